package util

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestCleanBody(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"a\n\nb", "a\nb"},
		{"a\n\n\n\nb", "a\nb"},
		{"a\n  \n\t\nb", "a\nb"},
		{"a\nb", "a\nb"},
		{"a\r\n\r\nb", "a\r\nb"},
		{"one\n\ntwo\n\n\nthree", "one\ntwo\nthree"},
		{"", ""},
	}
	for _, tc := range tests {
		if got := CleanBody(tc.in); got != tc.want {
			t.Errorf("CleanBody(%q) = %q; want %q", tc.in, got, tc.want)
		}
	}
}

func TestCleanBody_AnyNumberOfBlankLines(t *testing.T) {
	for n := 1; n <= 20; n++ {
		in := "top" + strings.Repeat("\n", n+1) + "bottom"
		if got := CleanBody(in); got != "top\nbottom" {
			t.Fatalf("n=%d: got %q", n, got)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 100, "short"},
		{strings.Repeat("x", 100), 100, strings.Repeat("x", 100)},
		{strings.Repeat("x", 101), 100, strings.Repeat("x", 99) + "…"},
		{"héllo wörld", 5, "héll…"},
		{"", 10, ""},
		{"abc", 0, ""},
	}
	for _, tc := range tests {
		if got := Truncate(tc.in, tc.n); got != tc.want {
			t.Errorf("Truncate(%q, %d) = %q; want %q", tc.in, tc.n, got, tc.want)
		}
	}
}

func TestTruncate_NeverExceedsLimit(t *testing.T) {
	for _, limit := range []int{SubjectPreviewLen, BodyPreviewLen} {
		for _, size := range []int{limit - 1, limit, limit + 1, limit * 3} {
			got := Truncate(strings.Repeat("ä", size), limit)
			if n := utf8.RuneCountInString(got); n > limit {
				t.Fatalf("limit %d size %d: got %d runes", limit, size, n)
			}
		}
	}
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"a@things.email", true},
		{"add-to-things-abc123@things.email", true},
		{"a@things.email.trailing", true},
		{"x@things.email and x@things.email", true},
		{"a@thingsXemail", true}, // unescaped dot
		{"a@gmail.com", false},
		{"a@THINGS.EMAIL", false},
		{"things.email", false},
		{"", false},
	}
	for _, tc := range tests {
		if got := ValidateEmail(tc.in); got != tc.want {
			t.Errorf("ValidateEmail(%q) = %v; want %v", tc.in, got, tc.want)
		}
	}
}
