package model

import (
	"strings"
	"time"
	_ "time/tzdata" // event time zones must resolve on minimal hosts
)

// MessageRef holds the minimal info we need to list a message before opening it.
type MessageRef struct {
	ID          string
	ThreadID    string
	Subject     string
	DateRFC3339 string
	From        string
}

// Message is the fully loaded, currently selected e-mail.
type Message struct {
	ID        string
	ThreadID  string
	Subject   string
	From      string
	To        string
	Date      time.Time
	Permalink string
	PlainBody string
}

// Event is the add-on event object posted by the host for every invocation.
type Event struct {
	CommonEventObject        CommonEventObject        `json:"commonEventObject"`
	AuthorizationEventObject AuthorizationEventObject `json:"authorizationEventObject"`
	Gmail                    *GmailEventObject        `json:"gmail,omitempty"`
}

type CommonEventObject struct {
	HostApp    string               `json:"hostApp,omitempty"`
	Platform   string               `json:"platform,omitempty"`
	UserLocale string               `json:"userLocale,omitempty"`
	TimeZone   *TimeZone            `json:"timeZone,omitempty"`
	FormInputs map[string]FormInput `json:"formInputs,omitempty"`
	Parameters map[string]string    `json:"parameters,omitempty"`
}

type TimeZone struct {
	ID     string `json:"id"`
	Offset int    `json:"offset"` // milliseconds from UTC
}

type FormInput struct {
	StringInputs *StringInputs `json:"stringInputs,omitempty"`
}

type StringInputs struct {
	Value []string `json:"value"`
}

type AuthorizationEventObject struct {
	UserOAuthToken string `json:"userOAuthToken,omitempty"`
	UserIDToken    string `json:"userIdToken,omitempty"`
	SystemIDToken  string `json:"systemIdToken,omitempty"`
}

// GmailEventObject identifies the open message. AccessToken is scoped to
// that one message and only valid while the event is being handled.
type GmailEventObject struct {
	MessageID   string `json:"messageId,omitempty"`
	ThreadID    string `json:"threadId,omitempty"`
	AccessToken string `json:"accessToken,omitempty"`
}

// FormValue returns the first string submitted for the named field, or "".
func (e *Event) FormValue(name string) string {
	if e == nil {
		return ""
	}
	in, ok := e.CommonEventObject.FormInputs[name]
	if !ok || in.StringInputs == nil || len(in.StringInputs.Value) == 0 {
		return ""
	}
	return in.StringInputs.Value[0]
}

// SetFormValue records a single string input, creating the map as needed.
func (e *Event) SetFormValue(name, value string) {
	if e.CommonEventObject.FormInputs == nil {
		e.CommonEventObject.FormInputs = make(map[string]FormInput)
	}
	e.CommonEventObject.FormInputs[name] = FormInput{StringInputs: &StringInputs{Value: []string{value}}}
}

// MessageID returns the selected message id, or "" outside a message context.
func (e *Event) MessageID() string {
	if e == nil || e.Gmail == nil {
		return ""
	}
	return strings.TrimSpace(e.Gmail.MessageID)
}

// Location resolves the user's time zone. Unknown zones fall back to the
// reported offset, then UTC.
func (e *Event) Location() *time.Location {
	if e == nil || e.CommonEventObject.TimeZone == nil {
		return time.UTC
	}
	tz := e.CommonEventObject.TimeZone
	if tz.ID != "" {
		if loc, err := time.LoadLocation(tz.ID); err == nil {
			return loc
		}
	}
	if tz.Offset != 0 {
		return time.FixedZone(tz.ID, tz.Offset/1000)
	}
	return time.UTC
}
