package gmail

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-message/mail"
	gmailv1 "google.golang.org/api/gmail/v1"

	"mailtothings/internal/model"
)

// accessTokenHeader carries the per-message token that lets an add-on read
// the message the user has open.
const accessTokenHeader = "X-Goog-Gmail-Access-Token"

// Mailbox is the mail capability handlers depend on.
type Mailbox interface {
	Message(ctx context.Context, id string) (model.Message, error)
	Send(ctx context.Context, to, subject, body string) error
}

// Service is a Mailbox backed by the Gmail API.
type Service struct {
	svc                *gmailv1.Service
	messageAccessToken string
	now                func() time.Time
}

// NewMailbox wraps svc. messageAccessToken may be empty when svc has full
// read access (terminal client).
func NewMailbox(svc *gmailv1.Service, messageAccessToken string) *Service {
	return &Service{svc: svc, messageAccessToken: messageAccessToken, now: time.Now}
}

func (s *Service) Message(ctx context.Context, id string) (model.Message, error) {
	if id == "" {
		return model.Message{}, errors.New("message id is required")
	}
	call := s.svc.Users.Messages.Get("me", id).Format("full").Context(ctx)
	if s.messageAccessToken != "" {
		call.Header().Set(accessTokenHeader, s.messageAccessToken)
	}
	msg, err := call.Do()
	if err != nil {
		return model.Message{}, fmt.Errorf("get message %s: %w", id, err)
	}
	return toMessage(msg), nil
}

func (s *Service) Send(ctx context.Context, to, subject, body string) error {
	raw, err := composeMessage(to, subject, body, s.now())
	if err != nil {
		return err
	}
	_, err = s.svc.Users.Messages.Send("me", &gmailv1.Message{
		Raw: base64.URLEncoding.EncodeToString(raw),
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("send message to %s: %w", to, err)
	}
	return nil
}

// composeMessage renders a single-part UTF-8 text/plain RFC 5322 message.
// Gmail fills in From from the authenticated account.
func composeMessage(to, subject, body string, date time.Time) ([]byte, error) {
	addr, err := mail.ParseAddress(to)
	if err != nil {
		return nil, fmt.Errorf("parse recipient %q: %w", to, err)
	}

	var h mail.Header
	h.SetDate(date)
	h.SetAddressList("To", []*mail.Address{addr})
	h.SetSubject(subject)
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	h.Set("Content-Transfer-Encoding", "quoted-printable")

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("create message writer: %w", err)
	}
	if _, err := io.WriteString(w, body); err != nil {
		return nil, fmt.Errorf("write message body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close message writer: %w", err)
	}
	return buf.Bytes(), nil
}
