// Package card models add-on cards and the responses handlers return, and
// renders them to the JSON shape the Workspace add-on host expects.
package card

type ImageType string

const (
	ImageSquare ImageType = "SQUARE"
	ImageCircle ImageType = "CIRCLE"
)

type Card struct {
	Header   *Header   `json:"header,omitempty"`
	Sections []Section `json:"sections,omitempty"`
}

type Header struct {
	Title     string    `json:"title"`
	Subtitle  string    `json:"subtitle,omitempty"`
	ImageURL  string    `json:"imageUrl,omitempty"`
	ImageType ImageType `json:"imageType,omitempty"`
}

type Section struct {
	Header  string   `json:"header,omitempty"`
	Widgets []Widget `json:"widgets"`
}

// Widget is a union; exactly one field is set.
type Widget struct {
	TextParagraph *TextParagraph `json:"textParagraph,omitempty"`
	Image         *Image         `json:"image,omitempty"`
	TextInput     *TextInput     `json:"textInput,omitempty"`
	ButtonList    *ButtonList    `json:"buttonList,omitempty"`
}

type TextParagraph struct {
	Text string `json:"text"`
}

type Image struct {
	ImageURL string `json:"imageUrl"`
	AltText  string `json:"altText,omitempty"`
}

type TextInput struct {
	Name  string `json:"name"`
	Label string `json:"label,omitempty"`
	Value string `json:"value,omitempty"`
}

type ButtonList struct {
	Buttons []Button `json:"buttons"`
}

type Button struct {
	Text    string   `json:"text"`
	OnClick *OnClick `json:"onClick,omitempty"`
}

type OnClick struct {
	Action *Action `json:"action,omitempty"`
}

// Action names the function the host calls when a widget is activated. For
// HTTP deployments Function is the handler's endpoint URL.
type Action struct {
	Function   string            `json:"function"`
	Parameters []ActionParameter `json:"parameters,omitempty"`
}

type ActionParameter struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func Paragraph(text string) Widget {
	return Widget{TextParagraph: &TextParagraph{Text: text}}
}

func ImageWidget(url string) Widget {
	return Widget{Image: &Image{ImageURL: url}}
}

func Input(name, label, value string) Widget {
	return Widget{TextInput: &TextInput{Name: name, Label: label, Value: value}}
}

func TextButton(text string, action Action) Widget {
	return Widget{ButtonList: &ButtonList{Buttons: []Button{{
		Text:    text,
		OnClick: &OnClick{Action: &action},
	}}}}
}

// Inputs returns every text input on the card, in display order.
func (c Card) Inputs() []TextInput {
	var out []TextInput
	for _, s := range c.Sections {
		for _, w := range s.Widgets {
			if w.TextInput != nil {
				out = append(out, *w.TextInput)
			}
		}
	}
	return out
}

// Buttons returns every button on the card, in display order.
func (c Card) Buttons() []Button {
	var out []Button
	for _, s := range c.Sections {
		for _, w := range s.Widgets {
			if w.ButtonList != nil {
				out = append(out, w.ButtonList.Buttons...)
			}
		}
	}
	return out
}
