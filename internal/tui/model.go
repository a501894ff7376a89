package tui

import (
	"context"
	"strings"

	"github.com/victorygod/FengyueSimulator/internal/api"
	"github.com/victorygod/FengyueSimulator/internal/config"
	"github.com/victorygod/FengyueSimulator/internal/render"
	"github.com/victorygod/FengyueSimulator/internal/service"
	"github.com/victorygod/FengyueSimulator/internal/stream"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ─── App mode ───────────────────────────────────────────────────────────────

type appMode int

const (
	modeIdle appMode = iota
	modeStreaming
	modeAPIKey      // capturing an API key (masked input)
	modeSaveConfirm // save name collision — waiting for y/n
)

// ─── Slash command registry ─────────────────────────────────────────────────

type slashCmd struct {
	name string
	desc string
}

var slashCommands = []slashCmd{
	{"/apikey", "Check or set the chat API key"},
	{"/cg", "List/manage CG image resources"},
	{"/clear", "Clear the chat on the server"},
	{"/config", "Show current configuration"},
	{"/export", "Export chat history to md or html"},
	{"/help", "Show all commands"},
	{"/history", "Show the chat history"},
	{"/load", "Load a saved chat"},
	{"/memory", "Set how many rounds the bot remembers"},
	{"/prompt", "Switch or manage prompts"},
	{"/prompts", "List available prompts"},
	{"/quit", "Exit"},
	{"/save", "Save the current chat"},
	{"/saves", "List saved chats"},
}

// ─── Model ──────────────────────────────────────────────────────────────────

type model struct {
	width  int
	height int

	// Bubble Tea components
	input   textinput.Model
	spinner spinner.Model

	// App state
	mode    appMode
	cfg     *config.Config
	client  api.FengyueAPI
	version string
	profile string

	// Streaming state
	session      *stream.Session
	cancelStream context.CancelFunc
	chatBuffer   string // partial line buffer for the reply
	replyStarted bool   // whether the reply header has been printed

	// Pending interactions
	pendingSave string // save filename awaiting overwrite confirmation

	// UI state
	ready        bool
	cmdMenuIdx   int
	cmdMenuOpen  bool
	lastInputVal string

	// Input history
	history      []string
	historyIdx   int
	historySaved string
}

const inputPlaceholder = "说点什么，或输入 /help..."

func initialModel(version, profile string) model {
	ti := textinput.New()
	ti.Placeholder = inputPlaceholder
	ti.Focus()
	ti.CharLimit = 4096
	ti.Prompt = "❯ "
	ti.PromptStyle = promptSymbol
	ti.Cursor.Style = lipgloss.NewStyle().Foreground(colorRose)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorRose)

	cfg, _ := config.Load(profile)
	if cfg == nil {
		cfg = &config.Config{Server: config.DefaultServer, Profile: profile}
	}

	return model{
		input:      ti,
		spinner:    sp,
		version:    version,
		profile:    profile,
		cfg:        cfg,
		client:     api.NewClient(cfg),
		mode:       modeIdle,
		history:    make([]string, 0),
		historyIdx: -1,
	}
}

// ─── Init ───────────────────────────────────────────────────────────────────

func (m model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
	)
}

// ─── Update ─────────────────────────────────────────────────────────────────

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = m.width - 6

		if !m.ready {
			m.ready = true
			welcome := renderWelcome(m.version, m.cfg.Server, config.ProfileName(m.profile), m.width)
			cmds = append(cmds, tea.Println(welcome))
		}

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			if m.mode == modeStreaming {
				return m.cancelActiveStream()
			}
			return m, tea.Quit

		case tea.KeyEsc:
			if m.mode == modeStreaming {
				return m.cancelActiveStream()
			}
			if m.mode == modeAPIKey {
				m.exitCapture()
				return m, tea.Println(warnMsgStyle.Render("  ! API key entry cancelled."))
			}
			if m.mode == modeSaveConfirm {
				m.pendingSave = ""
				m.exitCapture()
				return m, tea.Println(warnMsgStyle.Render("  ! Save cancelled."))
			}
			if m.cmdMenuOpen {
				m.cmdMenuOpen = false
				m.cmdMenuIdx = 0
				return m, nil
			}

		case tea.KeyUp:
			if m.mode == modeIdle {
				if m.cmdMenuOpen {
					matches := matchCommands(m.input.Value())
					if len(matches) > 0 {
						m.cmdMenuIdx--
						if m.cmdMenuIdx < 0 {
							m.cmdMenuIdx = len(matches) - 1
						}
						return m, nil
					}
				} else if len(m.history) > 0 {
					if m.historyIdx == -1 {
						m.historySaved = m.input.Value()
						m.historyIdx = len(m.history) - 1
					} else if m.historyIdx > 0 {
						m.historyIdx--
					}
					m.input.SetValue(m.history[m.historyIdx])
					m.input.CursorEnd()
					return m, nil
				}
			}

		case tea.KeyDown:
			if m.mode == modeIdle {
				if m.cmdMenuOpen {
					matches := matchCommands(m.input.Value())
					if len(matches) > 0 {
						m.cmdMenuIdx++
						if m.cmdMenuIdx >= len(matches) {
							m.cmdMenuIdx = 0
						}
						return m, nil
					}
				} else if m.historyIdx != -1 {
					m.historyIdx++
					if m.historyIdx >= len(m.history) {
						m.historyIdx = -1
						m.input.SetValue(m.historySaved)
						m.historySaved = ""
					} else {
						m.input.SetValue(m.history[m.historyIdx])
					}
					m.input.CursorEnd()
					return m, nil
				}
			}

		case tea.KeyTab:
			if m.mode == modeIdle && m.cmdMenuOpen {
				matches := matchCommands(m.input.Value())
				if len(matches) > 0 {
					idx := m.cmdMenuIdx
					if idx < 0 || idx >= len(matches) {
						idx = 0
					}
					m.input.SetValue(matches[idx].name + " ")
					m.input.CursorEnd()
					m.cmdMenuOpen = false
					m.cmdMenuIdx = 0
				}
				return m, nil
			}

		case tea.KeyEnter:
			if m.mode == modeIdle && m.cmdMenuOpen && m.cmdMenuIdx >= 0 {
				matches := matchCommands(m.input.Value())
				if m.cmdMenuIdx < len(matches) {
					m.input.SetValue(matches[m.cmdMenuIdx].name + " ")
					m.input.CursorEnd()
					m.cmdMenuOpen = false
					m.cmdMenuIdx = 0
					return m, nil
				}
			}

			value := strings.TrimSpace(m.input.Value())
			if value == "" {
				return m, nil
			}

			if m.mode == modeIdle {
				if len(m.history) == 0 || m.history[len(m.history)-1] != value {
					m.history = append(m.history, value)
					if len(m.history) > 1000 {
						m.history = m.history[len(m.history)-1000:]
					}
				}
			}
			m.historyIdx = -1
			m.historySaved = ""

			m.input.SetValue("")
			m.cmdMenuOpen = false
			m.cmdMenuIdx = 0

			switch m.mode {
			case modeAPIKey:
				return m.handleAPIKeySubmit(value)
			case modeSaveConfirm:
				return m.handleSaveConfirmSubmit(value)
			default:
				return m.dispatchInput(value)
			}
		}

	// ── Stream messages ───────────────────────────────────────────────
	case streamDeltaMsg:
		if m.mode != modeStreaming {
			return m, nil
		}
		printCmd := m.handleStreamDelta(msg.text)
		if printCmd != nil {
			cmds = append(cmds, printCmd)
		}
		if activeStreamCh != nil {
			cmds = append(cmds, waitForStream(activeStreamCh))
		}
		return m, tea.Batch(cmds...)

	case streamDoneMsg:
		if m.mode != modeStreaming {
			return m, nil
		}
		m.mode = modeIdle
		activeStreamCh = nil

		var flushCmds []tea.Cmd
		if m.chatBuffer != "" {
			flushCmds = append(flushCmds, tea.Println("  "+service.RenderInline(m.chatBuffer)))
		}
		if hasBlockMarkdown(msg.text) {
			rendered := renderMarkdown(render.StripImageTokens(msg.text), min(m.width-6, 76))
			flushCmds = append(flushCmds,
				tea.Println(""),
				tea.Println(strings.TrimRight(indentText(rendered, "  "), "\n")),
			)
		}
		for _, img := range msg.images {
			flushCmds = append(flushCmds, tea.Println(imageLinkStyle.Render("  🖼 "+img.Filename)+dimStyle.Render("  "+img.URL)))
		}
		flushCmds = append(flushCmds, tea.Println(""))
		m.resetStreamState()
		return m, tea.Batch(append(cmds, tea.Sequence(flushCmds...))...)

	case keyMissingMsg:
		if m.mode != modeStreaming {
			return m, nil
		}
		activeStreamCh = nil
		m.resetStreamState()
		m.enterAPIKeyCapture()
		return m, tea.Sequence(
			tea.Println(warnMsgStyle.Render("  ! 请先设置API密钥")),
			tea.Println(dimStyle.Render("    Enter your API key below (Esc to cancel):")),
		)

	case streamCancelledMsg:
		// The cancel path already printed its notice and reset state.
		return m, nil

	case streamErrMsg:
		if m.mode != modeStreaming {
			return m, nil
		}
		m.mode = modeIdle
		activeStreamCh = nil
		var flushCmds []tea.Cmd
		if m.chatBuffer != "" {
			flushCmds = append(flushCmds, tea.Println("  "+service.RenderInline(m.chatBuffer)))
		}
		flushCmds = append(flushCmds, tea.Println(errorMsgStyle.Render("  ✗ "+msg.err.Error())))
		m.resetStreamState()
		return m, tea.Batch(append(cmds, tea.Sequence(flushCmds...))...)

	// ── Async results ─────────────────────────────────────────────────
	case promptsLoadedMsg:
		return m.handlePromptsLoaded(msg)

	case savesLoadedMsg:
		return m.handleSavesLoaded(msg)

	case saveResultMsg:
		return m.handleSaveResult(msg)

	case resourcesLoadedMsg:
		return m.handleResourcesLoaded(msg)

	case keyStatusMsg:
		return m.handleKeyStatus(msg)

	case historyLoadedMsg:
		return m.handleHistoryLoaded(msg)

	case exportDoneMsg:
		return m.handleExportDone(msg)

	case actionResultMsg:
		return m.handleActionResult(msg)
	}

	// Update sub-components
	var cmd tea.Cmd

	if m.mode != modeStreaming {
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	m.spinner, cmd = m.spinner.Update(msg)
	cmds = append(cmds, cmd)

	// Track input changes to open/close the command menu
	newVal := m.input.Value()
	if newVal != m.lastInputVal {
		m.lastInputVal = newVal
		if m.historyIdx != -1 {
			if m.historyIdx < len(m.history) && m.history[m.historyIdx] != newVal {
				m.historyIdx = -1
				m.historySaved = ""
			}
		}
		if m.mode == modeIdle && strings.HasPrefix(newVal, "/") {
			m.cmdMenuOpen = true
			m.cmdMenuIdx = 0
		} else {
			m.cmdMenuOpen = false
			m.cmdMenuIdx = 0
		}
	}

	return m, tea.Batch(cmds...)
}

// ─── View ───────────────────────────────────────────────────────────────────
//
// Inline mode: View() only shows the input prompt + hints.
// All output is printed above via tea.Println.

func (m model) View() string {
	if !m.ready {
		return ""
	}

	var s strings.Builder

	if m.mode == modeStreaming {
		s.WriteString(m.spinner.View() + " " + statusStyle.Render("风月正在回复..."))
	} else {
		s.WriteString(m.input.View())
	}
	s.WriteString("\n")

	sepWidth := min(m.width, 80)
	if sepWidth < 20 {
		sepWidth = 20
	}
	s.WriteString(separatorStyle.Render(strings.Repeat("─", sepWidth)))
	s.WriteString("\n")

	s.WriteString(m.renderHints())

	return s.String()
}

// ─── Hint bar ───────────────────────────────────────────────────────────────

func (m model) renderHints() string {
	switch m.mode {
	case modeStreaming:
		return hintBarStyle.Render("  Esc cancel")
	case modeAPIKey:
		return hintBarStyle.Render("  Enter submit   Esc cancel")
	case modeSaveConfirm:
		return hintBarStyle.Render("  y overwrite   n cancel")
	}

	if m.cmdMenuOpen {
		matches := matchCommands(m.input.Value())
		if len(matches) > 0 {
			return m.renderCommandMenu(matches)
		}
	}

	return hintBarStyle.Render("  ? for help")
}

// renderCommandMenu renders a vertical list of matching commands.
func (m model) renderCommandMenu(matches []slashCmd) string {
	maxLen := 0
	for _, c := range matches {
		if len(c.name) > maxLen {
			maxLen = len(c.name)
		}
	}

	var lines []string
	for i, c := range matches {
		padded := c.name
		for len(padded) < maxLen {
			padded += " "
		}

		var line string
		if i == m.cmdMenuIdx {
			line = "  " + cmdSelectedNameStyle.Render(padded) + "  " + cmdSelectedDescStyle.Render(c.desc)
		} else {
			line = "  " + cmdNameStyle.Render(padded) + "  " + cmdDescStyle.Render(c.desc)
		}
		lines = append(lines, line)
	}

	lines = append(lines, hintBarStyle.Render("  ↑↓ navigate  Tab/Enter select"))

	return strings.Join(lines, "\n")
}

// matchCommands returns all slash commands matching a prefix.
func matchCommands(prefix string) []slashCmd {
	prefix = strings.ToLower(prefix)
	if prefix == "/" {
		return slashCommands
	}
	var matches []slashCmd
	for _, c := range slashCommands {
		if strings.HasPrefix(c.name, prefix) {
			matches = append(matches, c)
		}
	}
	return matches
}

// ─── Streaming helpers ──────────────────────────────────────────────────────

// handleStreamDelta appends a reply fragment and prints any complete lines.
// The trailing partial line stays buffered so fragments never print torn.
func (m *model) handleStreamDelta(text string) tea.Cmd {
	var printCmds []tea.Cmd

	if !m.replyStarted {
		m.replyStarted = true
		printCmds = append(printCmds, tea.Println(replyNameStyle.Render("  风月")))
	}

	combined := m.chatBuffer + text
	lines := strings.Split(combined, "\n")
	for i, line := range lines {
		if i < len(lines)-1 {
			printCmds = append(printCmds, tea.Println("  "+service.RenderInline(line)))
		} else {
			m.chatBuffer = line
		}
	}

	if len(printCmds) > 0 {
		return tea.Sequence(printCmds...)
	}
	return nil
}

func (m model) cancelActiveStream() (tea.Model, tea.Cmd) {
	if m.session != nil {
		m.session.Cancel()
	}
	if m.cancelStream != nil {
		m.cancelStream()
	}
	m.mode = modeIdle
	activeStreamCh = nil
	var flushCmds []tea.Cmd
	if m.chatBuffer != "" {
		flushCmds = append(flushCmds, tea.Println("  "+service.RenderInline(m.chatBuffer)))
	}
	flushCmds = append(flushCmds, tea.Println(warnMsgStyle.Render("  ! Reply cancelled.")))
	m.resetStreamState()
	return m, tea.Sequence(flushCmds...)
}

func (m *model) resetStreamState() {
	m.session = nil
	m.cancelStream = nil
	m.chatBuffer = ""
	m.replyStarted = false
}

// ─── Capture modes ──────────────────────────────────────────────────────────

func (m *model) enterAPIKeyCapture() {
	m.mode = modeAPIKey
	m.input.Placeholder = "API key..."
	m.input.SetValue("")
	m.input.EchoCharacter = '•'
	m.input.EchoMode = textinput.EchoPassword
}

func (m *model) exitCapture() {
	m.mode = modeIdle
	m.input.Placeholder = inputPlaceholder
	m.input.SetValue("")
	m.input.EchoMode = textinput.EchoNormal
}
