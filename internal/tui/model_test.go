package tui

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/victorygod/FengyueSimulator/internal/api"
	"github.com/victorygod/FengyueSimulator/internal/config"
)

// mockAPI implements api.FengyueAPI for testing.
type mockAPI struct {
	prompts    []string
	prompt     string
	saves      []string
	files      []string
	history    []api.HistoryEntry
	keySet     bool
	saveStatus string // status returned by SaveChat
	streamText string // reply streamed by ChatStream

	err error // if set, all methods return this error
}

func (m *mockAPI) ChatStream(ctx context.Context, message string, onChunk func([]byte) error) error {
	if m.err != nil {
		return m.err
	}
	if m.streamText != "" {
		return onChunk([]byte(m.streamText))
	}
	return nil
}

func (m *mockAPI) Prompts() (*api.PromptsResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &api.PromptsResponse{Prompts: m.prompts, CurrentPrompt: m.prompt}, nil
}

func (m *mockAPI) SetPrompt(name string) error                        { return m.err }
func (m *mockAPI) SavePrompt(name string, data json.RawMessage) error { return m.err }
func (m *mockAPI) DeletePrompt(name string) error                     { return m.err }
func (m *mockAPI) RenamePrompt(oldName, newName string) error         { return m.err }

func (m *mockAPI) Saves() (*api.SavesResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &api.SavesResponse{Saves: m.saves}, nil
}

func (m *mockAPI) SaveChat(filename string) (*api.Envelope, error) {
	if m.err != nil {
		return nil, m.err
	}
	status := m.saveStatus
	if status == "" {
		status = api.StatusSuccess
	}
	return &api.Envelope{Status: status}, nil
}

func (m *mockAPI) ForceSaveChat(filename string) error        { return m.err }
func (m *mockAPI) LoadChat(filename string) error             { return m.err }
func (m *mockAPI) DeleteChat(filename string) error           { return m.err }
func (m *mockAPI) RenameChat(oldName, newName string) error   { return m.err }
func (m *mockAPI) DeleteResource(filename string) error       { return m.err }
func (m *mockAPI) RenameResource(oldName, newName string) error { return m.err }

func (m *mockAPI) Resources() (*api.ResourcesResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &api.ResourcesResponse{Files: m.files}, nil
}

func (m *mockAPI) ResourceURL(filename string) string { return "http://test/resource/" + filename }
func (m *mockAPI) BaseURL() string                    { return "http://test" }

func (m *mockAPI) KeyStatus() (*api.KeyStatusResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &api.KeyStatusResponse{HasAPIKey: m.keySet, APIKeySet: m.keySet}, nil
}

func (m *mockAPI) SetAPIKey(key string) error { return m.err }

func (m *mockAPI) History() (*api.HistoryResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &api.HistoryResponse{ChatHistory: m.history, CurrentPrompt: m.prompt}, nil
}

func (m *mockAPI) ClearChat() error               { return m.err }
func (m *mockAPI) SetMemoryRounds(rounds int) error { return m.err }

func newTestModel() model {
	m := initialModel("test", "")
	m.cfg = &config.Config{Server: "http://test"}
	m.client = &mockAPI{}
	m.ready = true
	m.width = 80
	return m
}

// ─── Command matching ───────────────────────────────────────────────────────

func TestMatchCommands(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		want   int
	}{
		{"bare slash lists all", "/", len(slashCommands)},
		{"prompt prefix", "/prompt", 2}, // /prompt and /prompts
		{"exact match", "/apikey", 1},
		{"unknown prefix", "/zzz", 0},
		{"case insensitive", "/SAVE", 2}, // /save and /saves
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := matchCommands(tt.prefix)
			if len(got) != tt.want {
				t.Errorf("matchCommands(%q) returned %d matches, want %d", tt.prefix, len(got), tt.want)
			}
		})
	}
}

// ─── Dispatch ───────────────────────────────────────────────────────────────

func TestDispatchCommand(t *testing.T) {
	t.Run("unknown command shows error", func(t *testing.T) {
		m := newTestModel()
		result, cmd := m.dispatchCommand("/bogus")
		rm := result.(model)
		if rm.mode != modeIdle {
			t.Errorf("mode = %d, want modeIdle", rm.mode)
		}
		if cmd == nil {
			t.Error("expected error message cmd, got nil")
		}
	})

	t.Run("config stays idle", func(t *testing.T) {
		m := newTestModel()
		result, _ := m.dispatchCommand("/config")
		rm := result.(model)
		if rm.mode != modeIdle {
			t.Errorf("mode = %d, want modeIdle", rm.mode)
		}
	})

	t.Run("quit returns a cmd", func(t *testing.T) {
		m := newTestModel()
		_, cmd := m.dispatchCommand("/quit")
		if cmd == nil {
			t.Error("expected quit cmd, got nil")
		}
	})
}

func TestDispatchInput(t *testing.T) {
	t.Run("question mark shows help", func(t *testing.T) {
		m := newTestModel()
		_, cmd := m.dispatchInput("?")
		if cmd == nil {
			t.Error("expected help cmd, got nil")
		}
	})

	t.Run("plain text starts streaming", func(t *testing.T) {
		m := newTestModel()
		result, _ := m.dispatchInput("你好")
		rm := result.(model)
		if rm.mode != modeStreaming {
			t.Errorf("mode = %d, want modeStreaming", rm.mode)
		}
		if rm.session == nil {
			t.Error("session not created")
		}
	})
}

// ─── API key flow ───────────────────────────────────────────────────────────

func TestAPIKeyFlow(t *testing.T) {
	t.Run("apikey set enters capture mode", func(t *testing.T) {
		m := newTestModel()
		result, _ := m.cmdAPIKey([]string{"set"})
		rm := result.(model)
		if rm.mode != modeAPIKey {
			t.Errorf("mode = %d, want modeAPIKey", rm.mode)
		}
	})

	t.Run("submit exits capture mode", func(t *testing.T) {
		m := newTestModel()
		m.enterAPIKeyCapture()
		result, cmd := m.handleAPIKeySubmit("sk-test")
		rm := result.(model)
		if rm.mode != modeIdle {
			t.Errorf("mode = %d, want modeIdle", rm.mode)
		}
		if cmd == nil {
			t.Error("expected save cmd, got nil")
		}
	})
}

// ─── Save confirmation ──────────────────────────────────────────────────────

func TestSaveConfirmFlow(t *testing.T) {
	t.Run("exists response enters confirm mode", func(t *testing.T) {
		m := newTestModel()
		result, _ := m.handleSaveResult(saveResultMsg{filename: "chat.json", status: api.StatusExists})
		rm := result.(model)
		if rm.mode != modeSaveConfirm {
			t.Errorf("mode = %d, want modeSaveConfirm", rm.mode)
		}
		if rm.pendingSave != "chat.json" {
			t.Errorf("pendingSave = %q, want %q", rm.pendingSave, "chat.json")
		}
	})

	t.Run("yes forces the save", func(t *testing.T) {
		m := newTestModel()
		m.mode = modeSaveConfirm
		m.pendingSave = "chat.json"
		result, cmd := m.handleSaveConfirmSubmit("y")
		rm := result.(model)
		if rm.mode != modeIdle {
			t.Errorf("mode = %d, want modeIdle", rm.mode)
		}
		if rm.pendingSave != "" {
			t.Errorf("pendingSave = %q, want empty", rm.pendingSave)
		}
		if cmd == nil {
			t.Error("expected force save cmd, got nil")
		}
	})

	t.Run("no cancels", func(t *testing.T) {
		m := newTestModel()
		m.mode = modeSaveConfirm
		m.pendingSave = "chat.json"
		result, _ := m.handleSaveConfirmSubmit("n")
		rm := result.(model)
		if rm.mode != modeIdle {
			t.Errorf("mode = %d, want modeIdle", rm.mode)
		}
		if rm.pendingSave != "" {
			t.Errorf("pendingSave = %q, want empty", rm.pendingSave)
		}
	})

	t.Run("forced result does not loop", func(t *testing.T) {
		m := newTestModel()
		result, _ := m.handleSaveResult(saveResultMsg{filename: "chat.json", status: api.StatusExists, forced: true})
		rm := result.(model)
		if rm.mode != modeIdle {
			t.Errorf("mode = %d, want modeIdle", rm.mode)
		}
	})
}

// ─── Stream delta buffering ─────────────────────────────────────────────────

func TestHandleStreamDelta(t *testing.T) {
	t.Run("partial line stays buffered", func(t *testing.T) {
		m := newTestModel()
		m.handleStreamDelta("第一句")
		if m.chatBuffer != "第一句" {
			t.Errorf("chatBuffer = %q, want %q", m.chatBuffer, "第一句")
		}
		if !m.replyStarted {
			t.Error("replyStarted should be set after first delta")
		}
	})

	t.Run("newline flushes the line", func(t *testing.T) {
		m := newTestModel()
		m.handleStreamDelta("第一句")
		cmd := m.handleStreamDelta("。\n第二")
		if m.chatBuffer != "第二" {
			t.Errorf("chatBuffer = %q, want %q", m.chatBuffer, "第二")
		}
		if cmd == nil {
			t.Error("expected print cmd for the completed line")
		}
	})
}

func TestStreamDoneRendersReply(t *testing.T) {
	t.Run("completion returns to idle with a render cmd", func(t *testing.T) {
		m := newTestModel()
		m.mode = modeStreaming
		m.chatBuffer = "收尾"
		result, cmd := m.Update(streamDoneMsg{text: "# 标题\n收尾"})
		rm := result.(model)
		if rm.mode != modeIdle {
			t.Errorf("mode = %d, want modeIdle", rm.mode)
		}
		if rm.chatBuffer != "" {
			t.Errorf("chatBuffer = %q, want empty", rm.chatBuffer)
		}
		if cmd == nil {
			t.Error("expected flush/render cmd, got nil")
		}
	})

	t.Run("done message outside streaming is dropped", func(t *testing.T) {
		m := newTestModel()
		m.mode = modeIdle
		_, cmd := m.Update(streamDoneMsg{text: "stale"})
		if cmd != nil {
			t.Error("stale done message should be a no-op")
		}
	})
}

func TestResetStreamState(t *testing.T) {
	m := newTestModel()
	m.chatBuffer = "leftover"
	m.replyStarted = true
	m.resetStreamState()
	if m.chatBuffer != "" || m.replyStarted || m.session != nil {
		t.Error("resetStreamState should clear all streaming state")
	}
}
