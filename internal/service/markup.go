package service

import (
	"regexp"
	"strings"
)

var markupTagRe = regexp.MustCompile(`<[^>]+>`)

// StripMarkup converts rendered markup back to plain terminal text: breaks
// become newlines, all tags are dropped, and escaped angle brackets are
// restored.
func StripMarkup(s string) string {
	s = strings.ReplaceAll(s, "<br/>", "\n")
	s = strings.ReplaceAll(s, "<br>", "\n")
	s = strings.ReplaceAll(s, "<br />", "\n")
	s = markupTagRe.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	return s
}

// ContainsKeyMarker reports whether text carries the missing-credential
// marker phrase. The backend writes errors into the 200 stream body, so the
// marker can show up either in transport error text or in the reply itself.
func ContainsKeyMarker(text, marker string) bool {
	if marker == "" {
		return false
	}
	return strings.Contains(text, marker)
}
