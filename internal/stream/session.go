package stream

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/victorygod/FengyueSimulator/internal/render"
	"github.com/victorygod/FengyueSimulator/internal/service"
)

var (
	// ErrAPIKeyMissing distinguishes the unset-credential condition so the
	// caller can prompt for configuration instead of rendering the error as
	// chat content.
	ErrAPIKeyMissing = errors.New("api key not configured")

	// ErrCancelled is returned when the session was cancelled while chunks
	// were still arriving.
	ErrCancelled = errors.New("stream cancelled")
)

// Streamer is the part of the API client the session needs: an open chunked
// byte stream delivered through a callback.
type Streamer interface {
	ChatStream(ctx context.Context, message string, onChunk func([]byte) error) error
}

// Session owns one in-flight streaming reply: the accumulated text, the
// message's content slot, and the active flag. At most one session may be
// active at a time — the caller holds the handle and cancels the previous
// session before starting a new one.
type Session struct {
	slot         *Slot
	resourceBase string
	keyMarker    string

	// OnDelta, if set, receives each decoded text fragment as it arrives,
	// after the slot markup has been regenerated.
	OnDelta func(text string)

	mu     sync.Mutex
	text   strings.Builder
	active bool
	done   bool
}

// Slot aliases the render content slot owned by this session.
type Slot = render.Slot

// New creates a session bound to a content slot. resourceBase is prepended
// to resolved image URLs; keyMarker is the phrase that identifies a
// missing-credential error in text.
func New(slot *Slot, resourceBase, keyMarker string) *Session {
	return &Session{
		slot:         slot,
		resourceBase: resourceBase,
		keyMarker:    keyMarker,
	}
}

// Active reports whether the stream loop is still consuming chunks. The UI
// keeps the send control disabled while this is true.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Cancel deactivates the session. The read loop checks the flag between
// chunk reads and stops without writing further content to the slot.
func (s *Session) Cancel() {
	s.mu.Lock()
	s.active = false
	s.mu.Unlock()
}

// Text returns the accumulated reply text received so far.
func (s *Session) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text.String()
}

// Slot returns the content slot this session writes to.
func (s *Session) Slot() *Slot {
	return s.slot
}

// Run sends message and consumes the chunked reply until the stream closes
// or the session is cancelled. Each chunk appends decoded text and
// regenerates the slot's markup from the full accumulated text; when the
// stream ends normally a single image-resolution pass runs over the final
// text.
//
// A transport error, or a finished reply, whose text contains the
// missing-credential marker yields ErrAPIKeyMissing with the slot cleared.
// Any other error is rendered into the slot as the reply content and
// returned. Run may be called once per session.
func (s *Session) Run(ctx context.Context, client Streamer, message string) error {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return errors.New("session already consumed")
	}
	s.active = true
	s.done = true
	s.mu.Unlock()

	defer s.Cancel()

	var dec ChunkDecoder
	err := client.ChatStream(ctx, message, func(chunk []byte) error {
		if !s.Active() {
			return ErrCancelled
		}
		s.apply(dec.Decode(chunk))
		return nil
	})

	if errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled) {
		return ErrCancelled
	}

	if err != nil {
		if service.ContainsKeyMarker(err.Error(), s.keyMarker) {
			s.slot.SetMarkup("")
			return ErrAPIKeyMissing
		}
		// Transport failures become the reply content.
		s.slot.SetMarkup(render.Format(err.Error()))
		return err
	}

	if s.Active() {
		s.apply(dec.Flush())
	}

	final := s.Text()
	if service.ContainsKeyMarker(final, s.keyMarker) {
		s.slot.SetMarkup("")
		return ErrAPIKeyMissing
	}

	s.slot.ResolveImages(final, s.resourceBase)
	return nil
}

// apply appends decoded text and regenerates the slot markup from scratch.
// The formatter is regenerative, not diff-based, so the slot always
// reflects the latest accumulated state.
func (s *Session) apply(text string) {
	s.mu.Lock()
	if text != "" {
		s.text.WriteString(text)
	}
	full := s.text.String()
	s.mu.Unlock()

	s.slot.SetMarkup(render.Format(full))
	if s.OnDelta != nil && text != "" {
		s.OnDelta(text)
	}
}
