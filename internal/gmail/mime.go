package gmail

import (
	"encoding/base64"
	"strings"

	"mailtothings/internal/util"

	gmailv1 "google.golang.org/api/gmail/v1"
)

// plainBody returns the message text: the first text/plain part, else the
// first text/html part with tags stripped, else the snippet.
func plainBody(msg *gmailv1.Message) string {
	if msg.Payload != nil {
		if body := findPart(msg.Payload, "text/plain"); body != "" {
			return body
		}
		if html := findPart(msg.Payload, "text/html"); html != "" {
			if text := util.StripHTML(html); text != "" {
				return text
			}
		}
	}
	return msg.Snippet
}

// findPart walks a MIME tree depth-first and returns the decoded body of the
// first leaf with the given type. Direct children of that type are tried
// before descending, so multipart/alternative prefers its own text part.
func findPart(part *gmailv1.MessagePart, mimeType string) string {
	if part == nil {
		return ""
	}
	if strings.EqualFold(part.MimeType, mimeType) && part.Body != nil && part.Body.Data != "" {
		return decodeBase64URL(part.Body.Data)
	}
	for _, sub := range part.Parts {
		if strings.EqualFold(sub.MimeType, mimeType) {
			if body := findPart(sub, mimeType); body != "" {
				return body
			}
		}
	}
	for _, sub := range part.Parts {
		if body := findPart(sub, mimeType); body != "" {
			return body
		}
	}
	return ""
}

func decodeBase64URL(data string) string {
	b, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		// Gmail uses unpadded base64url
		b, err = base64.RawURLEncoding.DecodeString(data)
		if err != nil {
			return ""
		}
	}
	return string(b)
}
