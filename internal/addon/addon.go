// Package addon implements the Gmail add-on's handlers: choosing the card for
// a selected message, sending the to-do e-mail, and managing the Mail to
// Things address.
package addon

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/charmbracelet/log"

	"mailtothings/internal/card"
	"mailtothings/internal/gmail"
	"mailtothings/internal/model"
	"mailtothings/internal/store"
)

// Handler names, as referenced by card actions and the deployment descriptor.
const (
	OnEmailSelected       = "onEmailSelected"
	OnCreateTodoClicked   = "onCreateTodoClicked"
	OnSettingsClicked     = "onSettingsClicked"
	OnSettingsSaveClicked = "onSettingsSaveClicked"
)

// PropEmail is the user property holding the Mail to Things address.
const PropEmail = "mailToThingsEmail"

// ErrNoMessage is returned when a handler needs the open message but the
// event does not carry one.
var ErrNoMessage = errors.New("event has no selected message")

// Request is one handler invocation.
type Request struct {
	Event *model.Event
	// UserID scopes preference reads and writes.
	UserID string
	// Mailbox is authorized for this invocation only.
	Mailbox gmail.Mailbox
}

// App holds the handlers' dependencies.
type App struct {
	props      store.PropertyStore
	actionBase string
	logger     *log.Logger
}

// New returns an App. actionBase prefixes handler names in button actions;
// HTTP deployments pass the public endpoint base URL, local hosts pass "".
func New(props store.PropertyStore, actionBase string, logger *log.Logger) *App {
	if logger == nil {
		logger = log.Default()
	}
	return &App{props: props, actionBase: actionBase, logger: logger}
}

// action builds the card action that invokes the named handler.
func (a *App) action(name string) card.Action {
	if a.actionBase == "" {
		return card.Action{Function: name}
	}
	return card.Action{Function: strings.TrimRight(a.actionBase, "/") + "/" + name}
}

// HandlerName resolves a card action function back to a handler name.
func HandlerName(function string) string {
	return path.Base(strings.TrimRight(function, "/"))
}

func (a *App) destination(ctx context.Context, userID string) (string, error) {
	val, _, err := a.props.GetProperty(ctx, userID, PropEmail)
	if err != nil {
		return "", fmt.Errorf("read destination: %w", err)
	}
	return val, nil
}

func (a *App) currentMessage(ctx context.Context, req *Request) (model.Message, error) {
	id := req.Event.MessageID()
	if id == "" {
		return model.Message{}, ErrNoMessage
	}
	return req.Mailbox.Message(ctx, id)
}
