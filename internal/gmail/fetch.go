package gmail

import (
	"context"
	"fmt"
	"strings"
	"time"

	"mailtothings/internal/model"

	gmailv1 "google.golang.org/api/gmail/v1"
)

const permalinkBase = "https://mail.google.com/mail/u/0/#all/"

// Permalink returns the web link to a thread.
func Permalink(threadID string) string {
	return permalinkBase + threadID
}

// FetchInitialEmails retrieves the newest n messages from the user's inbox.
// Messages whose metadata cannot be read are skipped.
func FetchInitialEmails(ctx context.Context, svc *gmailv1.Service, n int64) ([]model.MessageRef, error) {
	user := "me"
	list, err := svc.Users.Messages.List(user).
		LabelIds("INBOX").
		MaxResults(n).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	var refs []model.MessageRef
	for _, m := range list.Messages {
		select {
		case <-ctx.Done():
			return refs, ctx.Err()
		default:
		}
		msg, err := svc.Users.Messages.Get(user, m.Id).
			Format("metadata").
			MetadataHeaders("From", "Subject", "Date").
			Context(ctx).
			Do()
		if err != nil {
			continue
		}
		h := headerMap(msg.Payload)
		refs = append(refs, model.MessageRef{
			ID:          msg.Id,
			ThreadID:    msg.ThreadId,
			From:        h["from"],
			Subject:     h["subject"],
			DateRFC3339: parseDateRFC3339(h["date"]),
		})
	}
	return refs, nil
}

// toMessage converts a full-format Gmail message into the add-on's view of it.
func toMessage(msg *gmailv1.Message) model.Message {
	h := headerMap(msg.Payload)
	date := time.UnixMilli(msg.InternalDate).UTC()
	if msg.InternalDate == 0 {
		if ts := parseDateRFC3339(h["date"]); ts != "" {
			date, _ = time.Parse(time.RFC3339, ts)
		}
	}
	return model.Message{
		ID:        msg.Id,
		ThreadID:  msg.ThreadId,
		Subject:   h["subject"],
		From:      h["from"],
		To:        h["to"],
		Date:      date,
		Permalink: Permalink(msg.ThreadId),
		PlainBody: plainBody(msg),
	}
}

// headerMap indexes the headers we care about by lowercased name. The first
// occurrence wins.
func headerMap(p *gmailv1.MessagePart) map[string]string {
	out := make(map[string]string, 4)
	if p == nil {
		return out
	}
	for _, h := range p.Headers {
		k := strings.ToLower(h.Name)
		switch k {
		case "from", "to", "subject", "date":
			if _, ok := out[k]; !ok {
				out[k] = h.Value
			}
		}
	}
	return out
}

func parseDateRFC3339(h string) string {
	if h == "" {
		return ""
	}
	// Try common formats Gmail uses in Date header.
	layouts := []string{
		time.RFC1123Z,
		time.RFC1123,
		time.RFC822Z,
		time.RFC822,
		time.RFC850,
		time.RFC3339,
		"Mon, 2 Jan 2006 15:04:05 -0700",
		"Mon, 2 Jan 2006 15:04:05 -0700 (MST)",
	}
	for _, l := range layouts {
		if t, err := time.Parse(l, h); err == nil {
			return t.UTC().Format(time.RFC3339)
		}
	}
	return ""
}
