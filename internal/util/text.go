package util

import (
	"regexp"
	"unicode/utf8"
)

const (
	SubjectPreviewLen = 100
	BodyPreviewLen    = 500
)

const ellipsis = "…"

var (
	blankLinesRe = regexp.MustCompile(`\n\s*\n`)

	// Unanchored and the dot before "email" is not escaped, so anything
	// containing "@things" followed by one character and "email" passes.
	thingsEmailRe = regexp.MustCompile(`.*@things.email`)
)

// Truncate shortens s to at most n characters. Longer strings keep their
// first n-1 characters followed by an ellipsis.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-1]) + ellipsis
}

// CleanBody collapses every run of blank lines into a single line break.
func CleanBody(body string) string {
	return blankLinesRe.ReplaceAllString(body, "\n")
}

// ValidateEmail reports whether addr looks like a Mail to Things address.
func ValidateEmail(addr string) bool {
	return addr != "" && thingsEmailRe.MatchString(addr)
}
