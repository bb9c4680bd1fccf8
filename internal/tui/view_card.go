package tui

import (
	"fmt"
	"strings"

	"mailtothings/internal/card"
	"mailtothings/internal/util"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			PaddingBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	buttonStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("241"))
	focusedButtonStyle = buttonStyle.
				BorderForeground(lipgloss.Color("39")).
				Foreground(lipgloss.Color("39"))
	sectionStyle = lipgloss.NewStyle().PaddingBottom(1)
	footerStyle  = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			PaddingTop(1)
)

// cardView is one card on the stack together with its live form state.
// Focus cycles over inputs first, then buttons.
type cardView struct {
	card    card.Card
	inputs  []textinput.Model
	names   []string
	buttons []card.Button
	focus   int
}

func newCardView(c card.Card) *cardView {
	v := &cardView{card: c, buttons: c.Buttons()}
	for _, in := range c.Inputs() {
		ti := textinput.New()
		ti.Prompt = "> "
		ti.Placeholder = in.Label
		ti.SetValue(in.Value)
		ti.CharLimit = 1024
		v.inputs = append(v.inputs, ti)
		v.names = append(v.names, in.Name)
	}
	v.setFocus(0)
	return v
}

func (v *cardView) focusables() int { return len(v.inputs) + len(v.buttons) }

func (v *cardView) setFocus(i int) {
	n := v.focusables()
	if n == 0 {
		return
	}
	v.focus = ((i % n) + n) % n
	for j := range v.inputs {
		if j == v.focus {
			v.inputs[j].Focus()
		} else {
			v.inputs[j].Blur()
		}
	}
}

// focusedButton returns the button under focus, if focus is on a button.
func (v *cardView) focusedButton() (card.Button, bool) {
	i := v.focus - len(v.inputs)
	if i < 0 || i >= len(v.buttons) {
		return card.Button{}, false
	}
	return v.buttons[i], true
}

// formValues returns the current text of every input keyed by field name.
func (v *cardView) formValues() map[string]string {
	out := make(map[string]string, len(v.inputs))
	for i, ti := range v.inputs {
		out[v.names[i]] = ti.Value()
	}
	return out
}

// updateInput forwards msg to the focused input, if any.
func (v *cardView) updateInput(msg tea.Msg) tea.Cmd {
	if v.focus >= len(v.inputs) {
		return nil
	}
	var cmd tea.Cmd
	v.inputs[v.focus], cmd = v.inputs[v.focus].Update(msg)
	return cmd
}

func (v *cardView) View(width int) string {
	var b strings.Builder
	if h := v.card.Header; h != nil {
		b.WriteString(headerStyle.Render(util.StripHTML(h.Title)))
		b.WriteString("\n")
	}

	input, button := 0, 0
	for _, s := range v.card.Sections {
		var sb strings.Builder
		for _, w := range s.Widgets {
			switch {
			case w.TextParagraph != nil:
				sb.WriteString(lipgloss.NewStyle().Width(width).Render(util.StripHTML(w.TextParagraph.Text)))
				sb.WriteString("\n")
			case w.Image != nil:
				sb.WriteString(labelStyle.Render("[image]"))
				sb.WriteString("\n")
			case w.TextInput != nil:
				sb.WriteString(labelStyle.Render(w.TextInput.Label))
				sb.WriteString("\n")
				if input < len(v.inputs) {
					sb.WriteString(v.inputs[input].View())
					sb.WriteString("\n")
				}
				input++
			case w.ButtonList != nil:
				var btns []string
				for _, btn := range w.ButtonList.Buttons {
					style := buttonStyle
					if len(v.inputs)+button == v.focus {
						style = focusedButtonStyle
					}
					btns = append(btns, style.Render(btn.Text))
					button++
				}
				sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, btns...))
				sb.WriteString("\n")
			}
		}
		b.WriteString(sectionStyle.Render(sb.String()))
		b.WriteString("\n")
	}
	return b.String()
}

func cardFooter(depth int) string {
	back := "esc: back to inbox"
	if depth > 1 {
		back = "esc: back"
	}
	return footerStyle.Render(fmt.Sprintf("tab: next field  enter: activate  ctrl+s: settings  %s  ctrl+c: quit", back))
}
