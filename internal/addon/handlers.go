package addon

import (
	"context"
	"fmt"
	"strings"
	"time"

	"mailtothings/internal/card"
	"mailtothings/internal/model"
	"mailtothings/internal/util"
)

const (
	msgSendFailed    = "An error occurred while attempting to send new To-Do to things. Please try again."
	msgSettingsSaved = "Settings saved successfully."
	msgInvalidEmail  = "Please enter a valid Mail to Things e-mail address."
)

// EmailSelected shows the Settings card until an address is configured, and
// the New To-Do card for the open message afterwards.
func (a *App) EmailSelected(ctx context.Context, req *Request) (card.Response, error) {
	dest, err := a.destination(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if dest == "" {
		return card.Cards{a.buildSettingsCard("")}, nil
	}

	msg, err := a.currentMessage(ctx, req)
	if err != nil {
		return nil, err
	}
	return card.Cards{a.buildNewToDoCard(msg)}, nil
}

// CreateTodo mails the open message, with the user's notes, to the
// configured address. Any send failure becomes the same notification.
func (a *App) CreateTodo(ctx context.Context, req *Request) (card.Response, error) {
	msg, err := a.currentMessage(ctx, req)
	if err != nil {
		return nil, err
	}
	dest, err := a.destination(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	comments := req.Event.FormValue(fieldComments)

	body := composeTodoBody(comments, msg, req.Event.Location())
	if err := req.Mailbox.Send(ctx, dest, msg.Subject, body); err != nil {
		a.logger.Warn("send to-do failed", "user", req.UserID, "message", msg.ID, "err", err)
		return card.Notify(msgSendFailed), nil
	}

	a.logger.Info("to-do sent", "user", req.UserID, "message", msg.ID)
	return card.ActionResponse{Navigations: []card.Navigation{card.Push(buildSuccessCard())}}, nil
}

// SettingsClicked opens the Settings card from the universal action menu.
func (a *App) SettingsClicked(ctx context.Context, req *Request) (card.Response, error) {
	dest, err := a.destination(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	return card.UniversalActionResponse{Cards: card.Cards{a.buildSettingsCard(dest)}}, nil
}

// SettingsSaveClicked validates and stores the submitted address. Invalid
// input leaves the store and the card stack untouched.
func (a *App) SettingsSaveClicked(ctx context.Context, req *Request) (card.Response, error) {
	email := req.Event.FormValue(fieldEmail)
	if !util.ValidateEmail(email) {
		return card.Notify(msgInvalidEmail), nil
	}

	if err := a.props.SetProperty(ctx, req.UserID, PropEmail, email); err != nil {
		return nil, fmt.Errorf("save destination: %w", err)
	}
	a.logger.Info("destination saved", "user", req.UserID)

	navs := []card.Navigation{card.PopToRoot()}
	if req.Event.MessageID() != "" {
		msg, err := a.currentMessage(ctx, req)
		if err != nil {
			return nil, err
		}
		navs = append(navs, card.Update(a.buildNewToDoCard(msg)))
	}
	return card.ActionResponse{
		Notification: &card.Notification{Text: msgSettingsSaved},
		Navigations:  navs,
	}, nil
}

// composeTodoBody lays out the e-mail Things turns into a to-do: the notes
// first, then a reference block for the original message.
func composeTodoBody(comments string, msg model.Message, loc *time.Location) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", comments)
	fmt.Fprintf(&b, "Original e-mail: %s\n", msg.Permalink)
	b.WriteString("---\n")
	fmt.Fprintf(&b, "Subject: %s\n", msg.Subject)
	fmt.Fprintf(&b, "From: %s\n", msg.From)
	fmt.Fprintf(&b, "To: %s\n", msg.To)
	fmt.Fprintf(&b, "Date: %s\n", msg.Date.In(loc).Format("1/2/2006"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s\n", util.CleanBody(msg.PlainBody))
	b.WriteString("---")
	return b.String()
}
