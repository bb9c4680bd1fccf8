package util

import (
	"net/mail"
	"strings"
)

// SenderName returns a short label for a From header: the display name when
// present, otherwise the lowercased address. Unparsable headers are returned
// trimmed as-is.
func SenderName(fromHeader string) string {
	fromHeader = strings.TrimSpace(fromHeader)
	if fromHeader == "" {
		return ""
	}
	addr, err := mail.ParseAddress(fromHeader)
	if err != nil || addr == nil {
		// Some headers carry a list; take the first entry that parses.
		for _, p := range strings.Split(fromHeader, ",") {
			if a, e := mail.ParseAddress(strings.TrimSpace(p)); e == nil && a != nil {
				addr = a
				break
			}
		}
		if addr == nil {
			return fromHeader
		}
	}
	if name := strings.TrimSpace(addr.Name); name != "" {
		return name
	}
	return strings.ToLower(addr.Address)
}
