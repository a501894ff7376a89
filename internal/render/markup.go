package render

import (
	"regexp"
	"strings"
)

// Format converts raw assistant text into safe display markup.
//
// The pipeline is escape-then-selectively-unescape: every < and > is
// escaped first so model output can never inject arbitrary markup, then a
// small allow-list of structural tags is opened back up. Format is
// regenerative — it is always called on raw accumulated text, never on its
// own output.
func Format(text string) string {
	// 1. Neutralize all markup.
	s := strings.ReplaceAll(text, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")

	// 2. Newlines become explicit breaks. After this point the string is a
	// single line, so the inline regexes below never span lines.
	s = strings.ReplaceAll(s, "\n", "<br>")

	// 3. Inline style conversions, non-greedy. Unmatched delimiters are
	// left literal.
	s = boldRe.ReplaceAllString(s, "<strong>$1</strong>")
	s = italicRe.ReplaceAllString(s, "<em>$1</em>")
	s = codeRe.ReplaceAllString(s, "<code>$1</code>")

	// 4. Re-open allow-listed structural tags that step 1 escaped.
	s = escapedTagRe.ReplaceAllStringFunc(s, reopenTag)

	return s
}

var (
	boldRe   = regexp.MustCompile(`\*\*(.+?)\*\*`)
	italicRe = regexp.MustCompile(`\*(.+?)\*`)
	codeRe   = regexp.MustCompile("`(.+?)`")

	// An escaped tag with an optional simple attribute list. Attribute
	// lists containing & (and anything malformed enough to not match) stay
	// escaped — fail-safe, not fail-open.
	escapedTagRe = regexp.MustCompile(`&lt;(/?)([a-zA-Z][a-zA-Z0-9]*)((?:\s+[^&]*?)?)\s*(/?)&gt;`)
)

// allowedTags is the fixed set of structural tags that survive escaping.
var allowedTags = map[string]bool{
	"div": true, "span": true, "p": true, "br": true,
	"strong": true, "em": true, "b": true, "i": true, "u": true,
	"code": true, "pre": true,
	"ul": true, "ol": true, "li": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true,
	"table":      true, "tr": true, "td": true, "th": true,
}

func reopenTag(match string) string {
	sub := escapedTagRe.FindStringSubmatch(match)
	closing, tag, attrs, selfClose := sub[1], sub[2], sub[3], sub[4]
	if !allowedTags[strings.ToLower(tag)] {
		return match
	}
	if closing != "" && (attrs != "" || selfClose != "") {
		// "</p attr>" is not a tag; leave it escaped.
		return match
	}
	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(closing)
	b.WriteString(tag)
	b.WriteString(attrs)
	b.WriteString(selfClose)
	b.WriteByte('>')
	return b.String()
}
