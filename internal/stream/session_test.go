package stream

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/victorygod/FengyueSimulator/internal/render"
	"github.com/victorygod/FengyueSimulator/internal/service"
)

// streamerFunc adapts a function to the Streamer interface.
type streamerFunc func(ctx context.Context, message string, onChunk func([]byte) error) error

func (f streamerFunc) ChatStream(ctx context.Context, message string, onChunk func([]byte) error) error {
	return f(ctx, message, onChunk)
}

// chunked delivers raw in fixed-size pieces, which splits multi-byte
// characters across callback invocations the way a real socket does.
func chunked(raw []byte, size int) streamerFunc {
	return func(ctx context.Context, message string, onChunk func([]byte) error) error {
		for off := 0; off < len(raw); off += size {
			end := off + size
			if end > len(raw) {
				end = len(raw)
			}
			if err := onChunk(raw[off:end]); err != nil {
				return err
			}
		}
		return nil
	}
}

func TestSessionAccumulatesAcrossChunkBoundaries(t *testing.T) {
	text := "你好，**世界**\n第二行"
	slot := render.NewSlot()
	s := New(slot, "http://localhost:8000", "请先设置API密钥")

	var deltas strings.Builder
	s.OnDelta = func(d string) { deltas.WriteString(d) }

	// Two-byte chunks guarantee every CJK character is torn at least once.
	if err := s.Run(context.Background(), chunked([]byte(text), 2), "hi"); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := s.Text(); got != text {
		t.Errorf("accumulated text = %q, want %q", got, text)
	}
	if got := deltas.String(); got != text {
		t.Errorf("delta concatenation = %q, want %q", got, text)
	}
	// The strong element that replaced the ** pair strips away entirely.
	plain := "你好，世界\n第二行"
	if got := service.StripMarkup(slot.Markup()); got != plain {
		t.Errorf("stripped markup = %q, want %q", got, plain)
	}
	if s.Active() {
		t.Error("session still active after Run returned")
	}
}

func TestSessionCancelFreezesSlot(t *testing.T) {
	slot := render.NewSlot()
	s := New(slot, "http://localhost:8000", "请先设置API密钥")

	var frozen string
	s.OnDelta = func(string) {
		frozen = slot.Markup()
		s.Cancel()
	}

	err := s.Run(context.Background(), chunked([]byte("first second third"), 5), "hi")
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("Run = %v, want ErrCancelled", err)
	}
	if got := slot.Markup(); got != frozen {
		t.Errorf("slot changed after cancel: %q -> %q", frozen, got)
	}
	if slot.Resolved() {
		t.Error("cancelled session ran the image pass")
	}
}

func TestSessionMissingKeyInBody(t *testing.T) {
	// The backend writes errors into the 200 stream body, so the marker
	// arrives as ordinary reply text.
	body := "流式响应错误: 聊天失败: 请先设置API密钥"
	slot := render.NewSlot()
	s := New(slot, "http://localhost:8000", "请先设置API密钥")

	err := s.Run(context.Background(), chunked([]byte(body), 16), "hi")
	if !errors.Is(err, ErrAPIKeyMissing) {
		t.Fatalf("Run = %v, want ErrAPIKeyMissing", err)
	}
	if got := slot.Markup(); got != "" {
		t.Errorf("slot not cleared: %q", got)
	}
}

func TestSessionMissingKeyInTransportError(t *testing.T) {
	slot := render.NewSlot()
	s := New(slot, "http://localhost:8000", "请先设置API密钥")

	fail := streamerFunc(func(context.Context, string, func([]byte) error) error {
		return errors.New("server error 500: 请先设置API密钥")
	})
	if err := s.Run(context.Background(), fail, "hi"); !errors.Is(err, ErrAPIKeyMissing) {
		t.Fatalf("Run = %v, want ErrAPIKeyMissing", err)
	}
}

func TestSessionTransportErrorBecomesReply(t *testing.T) {
	slot := render.NewSlot()
	s := New(slot, "http://localhost:8000", "请先设置API密钥")

	transport := errors.New("connection refused")
	fail := streamerFunc(func(context.Context, string, func([]byte) error) error {
		return transport
	})
	err := s.Run(context.Background(), fail, "hi")
	if !errors.Is(err, transport) {
		t.Fatalf("Run = %v, want wrapped transport error", err)
	}
	if got := service.StripMarkup(slot.Markup()); got != "connection refused" {
		t.Errorf("slot = %q, want error text", got)
	}
}

func TestSessionResolvesImagesOnce(t *testing.T) {
	body := "看这张 [图片: 月下.png] 好看吗"
	slot := render.NewSlot()
	s := New(slot, "http://localhost:8000", "请先设置API密钥")

	if err := s.Run(context.Background(), chunked([]byte(body), 7), "hi"); err != nil {
		t.Fatalf("Run: %v", err)
	}

	imgs := slot.Images()
	if len(imgs) != 1 {
		t.Fatalf("resolved %d images, want 1", len(imgs))
	}
	if imgs[0].Filename != "月下.png" {
		t.Errorf("filename = %q", imgs[0].Filename)
	}
	if strings.Contains(slot.Markup(), "[图片:") {
		t.Errorf("token left in markup: %q", slot.Markup())
	}
	if !strings.Contains(slot.Markup(), "<img ") {
		t.Errorf("no img element in markup: %q", slot.Markup())
	}
	if !slot.Resolved() {
		t.Error("slot not latched resolved")
	}
}

func TestSessionRunsOnce(t *testing.T) {
	slot := render.NewSlot()
	s := New(slot, "http://localhost:8000", "请先设置API密钥")

	ok := chunked([]byte("hi"), 8)
	if err := s.Run(context.Background(), ok, "a"); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if err := s.Run(context.Background(), ok, "b"); err == nil {
		t.Error("second Run succeeded, want error")
	}
}
