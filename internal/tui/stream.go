package tui

import (
	"context"
	"errors"

	"github.com/victorygod/FengyueSimulator/internal/render"
	"github.com/victorygod/FengyueSimulator/internal/stream"

	tea "github.com/charmbracelet/bubbletea"
)

// ─── Messages sent from the stream goroutine to Bubble Tea ──────────────────

type streamDeltaMsg struct {
	text string
}

type streamDoneMsg struct {
	text   string
	images []render.Image
}

type streamErrMsg struct {
	err error
}

type keyMissingMsg struct{}

type streamCancelledMsg struct{}

// ─── Stream command ─────────────────────────────────────────────────────────
//
// Sends the chat message in a goroutine, forwards decoded fragments through
// a channel, and returns a tea.Cmd that keeps reading from that channel
// until the stream ends. The model dispatches another waitForStream after
// each message.

var activeStreamCh chan tea.Msg

func beginStream(ctx context.Context, client stream.Streamer, sess *stream.Session, message string) tea.Cmd {
	ch := make(chan tea.Msg, 64)
	activeStreamCh = ch

	sess.OnDelta = func(text string) {
		ch <- streamDeltaMsg{text: text}
	}

	go func() {
		defer close(ch)

		err := sess.Run(ctx, client, message)
		switch {
		case errors.Is(err, stream.ErrAPIKeyMissing):
			ch <- keyMissingMsg{}
		case errors.Is(err, stream.ErrCancelled):
			ch <- streamCancelledMsg{}
		case err != nil:
			ch <- streamErrMsg{err: err}
		default:
			ch <- streamDoneMsg{text: sess.Text(), images: sess.Slot().Images()}
		}
	}()

	return waitForStream(ch)
}

// waitForStream reads the next message from the channel.
func waitForStream(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return streamCancelledMsg{}
		}
		return msg
	}
}
