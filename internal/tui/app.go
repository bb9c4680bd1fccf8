package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"mailtothings/internal/addon"
	"mailtothings/internal/card"
	"mailtothings/internal/gmail"
	"mailtothings/internal/model"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	gmailv1 "google.golang.org/api/gmail/v1"
)

// InboxSize is how many recent messages the inbox list loads.
const InboxSize = 50

type viewState int

const (
	viewLoading  viewState = iota
	viewAuth               // waiting for auth code input
	viewMessages           // inbox list
	viewCard               // add-on card stack
)

// AppModel hosts the add-on in a terminal: the inbox list plays the part of
// Gmail's message view and the card stack plays the add-on sidebar.
type AppModel struct {
	// Core state
	registry  *addon.Registry
	cache     gmail.TokenCache
	configDir string
	logger    *log.Logger
	Err       error
	status    string

	// Session
	service *gmailv1.Service
	mailbox gmail.Mailbox
	userID  string

	// Auth flow
	uiEvents      chan interface{}
	userResponses chan string
	textInput     textinput.Model
	authURL       string

	// View state machine
	view         viewState
	messagesList list.Model
	selected     *model.MessageRef
	stack        []*cardView
	busy         bool

	// Layout
	width, height int
}

func NewAppModel(registry *addon.Registry, cache gmail.TokenCache, configDir string, logger *log.Logger) *AppModel {
	if logger == nil {
		logger = log.Default()
	}
	ti := textinput.New()
	ti.Placeholder = "Paste auth code here"
	ti.Focus()

	ml := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	// Keep esc free for leaving cards.
	ml.KeyMap.Quit.SetKeys("q")
	ml.Title = "Inbox"

	return &AppModel{
		registry:      registry,
		cache:         cache,
		configDir:     configDir,
		logger:        logger,
		status:        "Authenticating...",
		view:          viewLoading,
		uiEvents:      make(chan interface{}),
		userResponses: make(chan string, 1),
		textInput:     ti,
		messagesList:  ml,
	}
}

func (m *AppModel) Init() tea.Cmd {
	return tea.Batch(m.authenticateCmd(), textinput.Blink)
}

func (m *AppModel) authenticateCmd() tea.Cmd {
	uiEvents := m.uiEvents
	go func() {
		ctx := context.Background()
		svc, err := gmail.NewServiceInteractive(ctx, m.configDir, m.cache, uiEvents, m.userResponses)
		if err != nil {
			uiEvents <- authResultMsg{err: err}
			return
		}
		addr, err := gmail.Profile(ctx, svc)
		uiEvents <- authResultMsg{
			service: svc,
			mailbox: gmail.NewMailbox(svc, ""),
			userID:  addr,
			err:     err,
		}
	}()
	return m.waitForAuthCmd()
}

// waitForAuthCmd reads the next event from the auth flow: the consent URL as
// a raw string when it needs the user, and always an authResultMsg last.
func (m *AppModel) waitForAuthCmd() tea.Cmd {
	uiEvents := m.uiEvents
	return func() tea.Msg {
		event := <-uiEvents
		switch v := event.(type) {
		case string:
			return authURLMsg(v)
		default:
			return event
		}
	}
}

func (m *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.messagesList.SetSize(msg.Width, msg.Height-4) // room for footer
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case authResultMsg:
		if msg.err != nil {
			m.Err = msg.err
			m.status = "Authentication failed!"
			return m, tea.Quit
		}
		m.service = msg.service
		m.mailbox = msg.mailbox
		m.userID = msg.userID
		m.view = viewLoading
		m.logger.Info("authenticated", "user", m.userID)
		m.status = "Loading inbox..."
		return m, m.loadInboxCmd()

	case authURLMsg:
		m.authURL = string(msg)
		m.view = viewAuth
		// The loopback redirect may finish the flow without a pasted code.
		return m, m.waitForAuthCmd()

	case inboxLoadedMsg:
		if msg.err != nil {
			m.Err = msg.err
			m.status = "Loading inbox failed!"
			return m, tea.Quit
		}
		m.messagesList.SetItems(sortedMessageItems(msg.refs))
		m.messagesList.Title = fmt.Sprintf("Inbox (%d messages)", len(msg.refs))
		m.view = viewMessages
		m.status = ""
		return m, nil

	case handlerResultMsg:
		m.busy = false
		if msg.err != nil {
			m.logger.Error("handler failed", "handler", msg.handler, "err", msg.err)
			m.status = fmt.Sprintf("%s failed: %v", msg.handler, msg.err)
			return m, clearStatusAfter(3 * time.Second)
		}
		m.status = ""
		if note := m.applyResponse(msg.resp); note != "" {
			m.status = note
			return m, clearStatusAfter(3 * time.Second)
		}
		return m, nil

	case statusMsg:
		if string(msg) == "" {
			m.status = ""
		}
		return m, nil
	}

	// Delegate to active sub-model
	var cmd tea.Cmd
	switch m.view {
	case viewAuth:
		m.textInput, cmd = m.textInput.Update(msg)
	case viewMessages:
		m.messagesList, cmd = m.messagesList.Update(msg)
	case viewCard:
		if top := m.top(); top != nil {
			cmd = top.updateInput(msg)
		}
	}
	return m, cmd
}

func (m *AppModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	// Global keys
	switch key {
	case "ctrl+c":
		return m, tea.Quit
	}

	switch m.view {
	case viewAuth:
		switch key {
		case "enter":
			val := m.textInput.Value()
			m.textInput.Reset()
			m.status = "Exchanging code..."
			// The pending waitForAuthCmd delivers the result. A code pasted
			// after the redirect already won is dropped.
			select {
			case m.userResponses <- val:
			default:
			}
			return m, nil
		case "esc":
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		return m, cmd

	case viewMessages:
		// While filtering, the list owns every key.
		if m.messagesList.FilterState() == list.Filtering {
			var cmd tea.Cmd
			m.messagesList, cmd = m.messagesList.Update(msg)
			return m, cmd
		}
		switch key {
		case "q":
			return m, tea.Quit
		case "enter":
			return m.openSelected()
		case "s", "ctrl+s":
			m.selected = nil
			return m, m.dispatch(addon.OnSettingsClicked, m.event())
		case "r":
			m.status = "Loading inbox..."
			return m, m.loadInboxCmd()
		}
		var cmd tea.Cmd
		m.messagesList, cmd = m.messagesList.Update(msg)
		return m, cmd

	case viewCard:
		top := m.top()
		if top == nil {
			m.view = viewMessages
			return m, nil
		}
		switch key {
		case "esc":
			m.pop()
			return m, nil
		case "tab", "down":
			top.setFocus(top.focus + 1)
			return m, nil
		case "shift+tab", "up":
			top.setFocus(top.focus - 1)
			return m, nil
		case "ctrl+s":
			return m, m.dispatch(addon.OnSettingsClicked, m.event())
		case "enter":
			if btn, ok := top.focusedButton(); ok {
				return m, m.activate(top, btn)
			}
			top.setFocus(top.focus + 1)
			return m, nil
		}
		return m, top.updateInput(msg)
	}

	return m, nil
}

func (m *AppModel) openSelected() (tea.Model, tea.Cmd) {
	selected := m.messagesList.SelectedItem()
	if selected == nil {
		return m, nil
	}
	ref := selected.(messageItem).MessageRef
	m.selected = &ref
	m.stack = nil
	m.status = "Opening message..."
	return m, m.dispatch(addon.OnEmailSelected, m.event())
}

// activate runs the button's action with the card's current form values.
func (m *AppModel) activate(v *cardView, btn card.Button) tea.Cmd {
	if btn.OnClick == nil || btn.OnClick.Action == nil {
		return nil
	}
	ev := m.event()
	for name, val := range v.formValues() {
		ev.SetFormValue(name, val)
	}
	params := make(map[string]string, len(btn.OnClick.Action.Parameters))
	for _, p := range btn.OnClick.Action.Parameters {
		params[p.Key] = p.Value
	}
	if len(params) > 0 {
		ev.CommonEventObject.Parameters = params
	}
	return m.dispatch(addon.HandlerName(btn.OnClick.Action.Function), ev)
}

// event builds the event object Gmail would send for the current selection.
func (m *AppModel) event() *model.Event {
	ev := &model.Event{CommonEventObject: model.CommonEventObject{
		HostApp:  "GMAIL",
		Platform: "TERMINAL",
		TimeZone: &model.TimeZone{ID: time.Local.String()},
	}}
	if m.selected != nil {
		ev.Gmail = &model.GmailEventObject{MessageID: m.selected.ID, ThreadID: m.selected.ThreadID}
	}
	return ev
}

func (m *AppModel) dispatch(name string, ev *model.Event) tea.Cmd {
	if m.busy {
		return nil
	}
	m.busy = true
	req := &addon.Request{Event: ev, UserID: m.userID, Mailbox: m.mailbox}
	reg := m.registry
	return func() tea.Msg {
		resp, err := reg.Dispatch(context.Background(), name, req)
		return handlerResultMsg{handler: name, resp: resp, err: err}
	}
}

// applyResponse applies a handler response to the card stack and returns the
// notification text, if any.
func (m *AppModel) applyResponse(resp card.Response) string {
	var note string
	switch r := resp.(type) {
	case card.Cards:
		m.stack = nil
		for _, c := range r {
			m.push(c)
		}
	case card.UniversalActionResponse:
		for _, c := range r.Cards {
			m.push(c)
		}
	case card.ActionResponse:
		for _, nav := range r.Navigations {
			m.navigate(nav)
		}
		if r.Notification != nil {
			note = r.Notification.Text
		}
	}
	if len(m.stack) > 0 {
		m.view = viewCard
	} else if m.view == viewCard {
		m.view = viewMessages
	}
	return note
}

func (m *AppModel) navigate(nav card.Navigation) {
	switch {
	case nav.PushCard != nil:
		m.push(*nav.PushCard)
	case nav.UpdateCard != nil:
		if len(m.stack) == 0 {
			m.push(*nav.UpdateCard)
			return
		}
		m.stack[len(m.stack)-1] = newCardView(*nav.UpdateCard)
	case nav.PopToRoot:
		if len(m.stack) > 1 {
			m.stack = m.stack[:1]
		}
	case nav.PopCard:
		if len(m.stack) > 1 {
			m.stack = m.stack[:len(m.stack)-1]
		}
	}
}

func (m *AppModel) push(c card.Card) {
	m.stack = append(m.stack, newCardView(c))
}

// pop removes the top card; leaving the last card returns to the inbox.
func (m *AppModel) pop() {
	if len(m.stack) > 0 {
		m.stack = m.stack[:len(m.stack)-1]
	}
	if len(m.stack) == 0 {
		m.view = viewMessages
		m.selected = nil
	}
}

func (m *AppModel) top() *cardView {
	if len(m.stack) == 0 {
		return nil
	}
	return m.stack[len(m.stack)-1]
}

// Commands

func (m *AppModel) loadInboxCmd() tea.Cmd {
	svc := m.service
	return func() tea.Msg {
		refs, err := gmail.FetchInitialEmails(context.Background(), svc, InboxSize)
		return inboxLoadedMsg{refs: refs, err: err}
	}
}

func clearStatusAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return statusMsg("")
	})
}

// View renders the appropriate view based on current state.
func (m *AppModel) View() string {
	// Auth code input
	if m.view == viewAuth {
		out := "Please open this URL in your browser to authenticate:\n\n" +
			m.authURL + "\n\n" +
			m.textInput.View()
		if m.status != "" {
			out += "\n\n" + m.status
		}
		return out
	}

	// Error state
	if m.Err != nil {
		return "Error: " + m.Err.Error() + "\n"
	}

	if m.view == viewLoading {
		if m.status != "" {
			return m.status + "\n"
		}
		return "Loading...\n"
	}

	var b strings.Builder

	switch m.view {
	case viewMessages:
		b.WriteString(m.messagesList.View())
		b.WriteString("\n")
		b.WriteString(messagesFooter())
	case viewCard:
		width := m.width
		if width <= 0 {
			width = 80
		}
		b.WriteString(m.top().View(width))
		b.WriteString(cardFooter(len(m.stack)))
	}

	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(m.status)
	}

	return b.String()
}

// trimDate converts an RFC3339 timestamp to a short date string.
func trimDate(rfc3339 string) string {
	if rfc3339 == "" {
		return ""
	}
	if t, err := time.Parse(time.RFC3339, rfc3339); err == nil {
		return t.Format("Jan 2, 2006")
	}
	return rfc3339
}
