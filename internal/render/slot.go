package render

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// imageTokenRe matches the inline image convention the backend embeds in
// streamed replies: [图片: filename].
var imageTokenRe = regexp.MustCompile(`\[图片:\s*([^\]]+?)\s*\]`)

// Image is one resolved inline image reference.
type Image struct {
	Filename string
	URL      string
}

// Slot is the content slot for a single message. While a stream is active
// the owning session is the only writer; markup is regenerated wholesale on
// every update, and image tokens are resolved exactly once after the stream
// completes.
type Slot struct {
	markup   string
	images   []Image
	resolved bool
}

func NewSlot() *Slot {
	return &Slot{}
}

// SetMarkup replaces the slot's rendered markup.
func (s *Slot) SetMarkup(markup string) {
	s.markup = markup
}

func (s *Slot) Markup() string {
	return s.markup
}

func (s *Slot) Images() []Image {
	return s.images
}

// ResolveImages scans the final accumulated text for image tokens, appends
// an <img> element for each to the slot, and removes the token text from
// the rendered markup. Removal first keys on the exact matched text so a
// duplicate marker is resolved and removed independently; when Format has
// transformed characters inside the token (a filename holding * or a
// backtick) the literal lookup misses and the token is removed by pattern
// from the markup instead.
//
// The pass runs at most once per slot; markup re-renders never retrigger it
// (mid-stream text may hold a truncated marker).
func (s *Slot) ResolveImages(finalText, resourceBase string) []Image {
	if s.resolved {
		return nil
	}
	s.resolved = true

	matches := imageTokenRe.FindAllStringSubmatch(finalText, -1)
	var added []Image
	for _, m := range matches {
		token, filename := m[0], m[1]
		img := Image{
			Filename: filename,
			URL:      strings.TrimRight(resourceBase, "/") + "/resource/" + url.PathEscape(filename),
		}
		if idx := strings.Index(s.markup, token); idx >= 0 {
			s.markup = s.markup[:idx] + s.markup[idx+len(token):]
		} else if loc := imageTokenRe.FindStringIndex(s.markup); loc != nil {
			s.markup = s.markup[:loc[0]] + s.markup[loc[1]:]
		}
		s.markup += fmt.Sprintf(`<img src="%s" alt="%s" class="chat-image">`, img.URL, filename)
		s.images = append(s.images, img)
		added = append(added, img)
	}
	return added
}

// Resolved reports whether the one-shot image pass has already run.
func (s *Slot) Resolved() bool {
	return s.resolved
}

// StripImageTokens removes every image token from text.
func StripImageTokens(text string) string {
	return imageTokenRe.ReplaceAllString(text, "")
}

// ImageTokens returns the filenames of every image token in text, in order.
func ImageTokens(text string) []string {
	matches := imageTokenRe.FindAllStringSubmatch(text, -1)
	var names []string
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names
}
