package tui

import (
	"mailtothings/internal/card"
	"mailtothings/internal/gmail"
	"mailtothings/internal/model"

	gmailv1 "google.golang.org/api/gmail/v1"
)

// Async message types for Bubble Tea commands.

type authResultMsg struct {
	service *gmailv1.Service
	mailbox gmail.Mailbox
	userID  string
	err     error
}

type authURLMsg string

type inboxLoadedMsg struct {
	refs []model.MessageRef
	err  error
}

// handlerResultMsg carries the outcome of one dispatched handler.
type handlerResultMsg struct {
	handler string
	resp    card.Response
	err     error
}

type statusMsg string
