package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/victorygod/FengyueSimulator/internal/api"
	"github.com/victorygod/FengyueSimulator/internal/config"
	"github.com/victorygod/FengyueSimulator/internal/export"
	"github.com/victorygod/FengyueSimulator/internal/render"
	"github.com/victorygod/FengyueSimulator/internal/service"
	"github.com/victorygod/FengyueSimulator/internal/stream"

	tea "github.com/charmbracelet/bubbletea"
)

// ─── Input dispatcher ───────────────────────────────────────────────────────

func (m model) dispatchInput(input string) (tea.Model, tea.Cmd) {
	if input == "?" {
		return m.cmdHelp()
	}
	if strings.HasPrefix(input, "/") {
		return m.dispatchCommand(input)
	}
	// Default: treat as a chat message
	return m.cmdChat(input)
}

func (m model) dispatchCommand(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return m, nil
	}

	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "/help", "/h":
		return m.cmdHelp()
	case "/prompts":
		return m.cmdPrompts()
	case "/prompt":
		return m.cmdPrompt(args)
	case "/saves":
		return m.cmdSaves()
	case "/save":
		return m.cmdSave(args)
	case "/load":
		return m.cmdLoad(args)
	case "/cg":
		return m.cmdCG(args)
	case "/apikey":
		return m.cmdAPIKey(args)
	case "/memory":
		return m.cmdMemory(args)
	case "/history":
		return m.cmdHistory()
	case "/clear":
		return m.cmdClear()
	case "/export":
		return m.cmdExport(args)
	case "/config":
		return m.cmdConfig()
	case "/quit", "/exit", "/q":
		return m, tea.Quit
	default:
		return m, tea.Println(errorMsgStyle.Render(fmt.Sprintf("  ✗ Unknown command: %s — type /help", cmd)))
	}
}

// ─── /help ──────────────────────────────────────────────────────────────────

func (m model) cmdHelp() (tea.Model, tea.Cmd) {
	pad := func(s string, w int) string {
		for len(s) < w {
			s += " "
		}
		return s
	}

	lines := []tea.Cmd{
		tea.Println(""),
		tea.Println(dimStyle.Render("  Shortcuts:")),
		tea.Println(""),
		tea.Println("  " + pad(hintKeyStyle.Render("/prompts"), 38) + dimStyle.Render("List available prompts")),
		tea.Println("  " + pad(hintKeyStyle.Render("/prompt <name>"), 38) + dimStyle.Render("Switch to a prompt")),
		tea.Println("  " + pad(hintKeyStyle.Render("/prompt delete|rename ..."), 38) + dimStyle.Render("Manage prompts")),
		tea.Println("  " + pad(hintKeyStyle.Render("/saves"), 38) + dimStyle.Render("List saved chats")),
		tea.Println("  " + pad(hintKeyStyle.Render("/save <name>"), 38) + dimStyle.Render("Save the chat (asks before overwrite)")),
		tea.Println("  " + pad(hintKeyStyle.Render("/load <name>"), 38) + dimStyle.Render("Load a saved chat")),
		tea.Println("  " + pad(hintKeyStyle.Render("/cg"), 38) + dimStyle.Render("List CG image resources")),
		tea.Println("  " + pad(hintKeyStyle.Render("/apikey [set]"), 38) + dimStyle.Render("Check or set the API key")),
		tea.Println("  " + pad(hintKeyStyle.Render("/memory <rounds>"), 38) + dimStyle.Render("Set memory rounds")),
		tea.Println("  " + pad(hintKeyStyle.Render("/history"), 38) + dimStyle.Render("Show the chat history")),
		tea.Println("  " + pad(hintKeyStyle.Render("/export [md|html]"), 38) + dimStyle.Render("Export chat history to a file")),
		tea.Println("  " + pad(hintKeyStyle.Render("/clear"), 38) + dimStyle.Render("Clear the chat on the server")),
		tea.Println("  " + pad(hintKeyStyle.Render("/config"), 38) + dimStyle.Render("Show current configuration")),
		tea.Println("  " + pad(hintKeyStyle.Render("/quit"), 38) + dimStyle.Render("Exit")),
		tea.Println(""),
		tea.Println(dimStyle.Render("  Or just type a message to chat!")),
		tea.Println(""),
	}
	return m, tea.Sequence(lines...)
}

// ─── Chat ───────────────────────────────────────────────────────────────────

func (m model) cmdChat(message string) (tea.Model, tea.Cmd) {
	ctx, cancel := context.WithCancel(context.Background())
	sess := stream.New(render.NewSlot(), m.client.BaseURL(), m.cfg.Marker())

	m.mode = modeStreaming
	m.resetStreamState()
	m.session = sess
	m.cancelStream = cancel

	return m, tea.Sequence(
		tea.Println(""),
		tea.Println(userPromptStyle.Render("  ❯ "+message)),
		tea.Println(""),
		beginStream(ctx, m.client, sess, message),
	)
}

// ─── Generic action result ──────────────────────────────────────────────────

type actionResultMsg struct {
	detail string
	err    error
}

func (m model) handleActionResult(msg actionResultMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		return m, tea.Println(errorMsgStyle.Render("  ✗ " + msg.err.Error()))
	}
	return m, tea.Println(successMsgStyle.Render("  ✓ " + msg.detail))
}

// ─── /prompts ───────────────────────────────────────────────────────────────

type promptsLoadedMsg struct {
	resp *api.PromptsResponse
	err  error
}

func (m model) cmdPrompts() (tea.Model, tea.Cmd) {
	client := m.client
	return m, tea.Sequence(
		tea.Println(statusStyle.Render("  ⟳ Loading prompts...")),
		func() tea.Msg {
			resp, err := client.Prompts()
			return promptsLoadedMsg{resp: resp, err: err}
		},
	)
}

func (m model) handlePromptsLoaded(msg promptsLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		return m, tea.Println(errorMsgStyle.Render(fmt.Sprintf("  ✗ Failed to load prompts: %v", msg.err)))
	}
	if len(msg.resp.Prompts) == 0 {
		return m, tea.Println(warnMsgStyle.Render("  ! No prompts found."))
	}

	var cmds []tea.Cmd
	cmds = append(cmds,
		tea.Println(""),
		tea.Println(dimStyle.Render(fmt.Sprintf("  Prompts (%d):", len(msg.resp.Prompts)))),
		tea.Println(""),
	)

	for _, p := range msg.resp.Prompts {
		marker := "   "
		if p == msg.resp.CurrentPrompt {
			marker = successMsgStyle.Render(" ⏺ ")
		}
		cmds = append(cmds, tea.Println(marker+service.DisplayName(p)))
	}

	cmds = append(cmds,
		tea.Println(""),
		tea.Println(dimStyle.Render("  Tip: /prompt <name> to switch")),
		tea.Println(""),
	)
	return m, tea.Sequence(cmds...)
}

// ─── /prompt ────────────────────────────────────────────────────────────────

func (m model) cmdPrompt(args []string) (tea.Model, tea.Cmd) {
	if len(args) == 0 {
		return m, tea.Println(warnMsgStyle.Render("  ! Usage: /prompt <name> | delete <name> | rename <old> <new>"))
	}

	client := m.client
	switch strings.ToLower(args[0]) {
	case "delete":
		if len(args) < 2 {
			return m, tea.Println(warnMsgStyle.Render("  ! Usage: /prompt delete <name>"))
		}
		name := service.EnsureJSONSuffix(args[1])
		return m, func() tea.Msg {
			return actionResultMsg{detail: "Prompt deleted: " + service.DisplayName(name), err: client.DeletePrompt(name)}
		}
	case "rename":
		if len(args) < 3 {
			return m, tea.Println(warnMsgStyle.Render("  ! Usage: /prompt rename <old> <new>"))
		}
		oldName := service.EnsureJSONSuffix(args[1])
		newName := service.EnsureJSONSuffix(args[2])
		return m, func() tea.Msg {
			return actionResultMsg{detail: fmt.Sprintf("Prompt renamed: %s → %s", service.DisplayName(oldName), service.DisplayName(newName)), err: client.RenamePrompt(oldName, newName)}
		}
	default:
		name := service.EnsureJSONSuffix(args[0])
		return m, func() tea.Msg {
			return actionResultMsg{detail: "Switched to prompt: " + service.DisplayName(name), err: client.SetPrompt(name)}
		}
	}
}

// ─── /saves ─────────────────────────────────────────────────────────────────

type savesLoadedMsg struct {
	saves []string
	err   error
}

func (m model) cmdSaves() (tea.Model, tea.Cmd) {
	client := m.client
	return m, tea.Sequence(
		tea.Println(statusStyle.Render("  ⟳ Loading saves...")),
		func() tea.Msg {
			resp, err := client.Saves()
			if err != nil {
				return savesLoadedMsg{err: err}
			}
			return savesLoadedMsg{saves: resp.Saves}
		},
	)
}

func (m model) handleSavesLoaded(msg savesLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		return m, tea.Println(errorMsgStyle.Render(fmt.Sprintf("  ✗ Failed to load saves: %v", msg.err)))
	}
	if len(msg.saves) == 0 {
		return m, tea.Println(warnMsgStyle.Render("  ! No saves found."))
	}

	var cmds []tea.Cmd
	cmds = append(cmds,
		tea.Println(""),
		tea.Println(dimStyle.Render(fmt.Sprintf("  Saves (%d):", len(msg.saves)))),
		tea.Println(""),
	)
	for _, s := range msg.saves {
		label := "  💾 " + service.DisplayName(s)
		if service.IsAutoSave(s) {
			label += dimStyle.Render("  (auto)")
		}
		cmds = append(cmds, tea.Println(label))
	}
	cmds = append(cmds,
		tea.Println(""),
		tea.Println(dimStyle.Render("  Tip: /load <name> to restore · /save <name> to save")),
		tea.Println(""),
	)
	return m, tea.Sequence(cmds...)
}

// ─── /save ──────────────────────────────────────────────────────────────────

type saveResultMsg struct {
	filename string
	status   string
	forced   bool
	err      error
}

func (m model) cmdSave(args []string) (tea.Model, tea.Cmd) {
	if len(args) == 0 {
		return m, tea.Println(warnMsgStyle.Render("  ! Usage: /save <name> | delete <name> | rename <old> <new>"))
	}

	client := m.client
	switch strings.ToLower(args[0]) {
	case "delete":
		if len(args) < 2 {
			return m, tea.Println(warnMsgStyle.Render("  ! Usage: /save delete <name>"))
		}
		name := service.EnsureJSONSuffix(args[1])
		return m, func() tea.Msg {
			return actionResultMsg{detail: "Save deleted: " + service.DisplayName(name), err: client.DeleteChat(name)}
		}
	case "rename":
		if len(args) < 3 {
			return m, tea.Println(warnMsgStyle.Render("  ! Usage: /save rename <old> <new>"))
		}
		oldName := service.EnsureJSONSuffix(args[1])
		newName := service.EnsureJSONSuffix(args[2])
		return m, func() tea.Msg {
			return actionResultMsg{detail: fmt.Sprintf("Save renamed: %s → %s", service.DisplayName(oldName), service.DisplayName(newName)), err: client.RenameChat(oldName, newName)}
		}
	}

	filename := service.EnsureJSONSuffix(args[0])
	return m, func() tea.Msg {
		resp, err := client.SaveChat(filename)
		if err != nil {
			return saveResultMsg{filename: filename, err: err}
		}
		return saveResultMsg{filename: filename, status: resp.Status}
	}
}

func (m model) handleSaveResult(msg saveResultMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		return m, tea.Println(errorMsgStyle.Render(fmt.Sprintf("  ✗ Save failed: %v", msg.err)))
	}

	if msg.status == api.StatusExists && !msg.forced {
		m.pendingSave = msg.filename
		m.mode = modeSaveConfirm
		m.input.Placeholder = "overwrite? y/n..."
		m.input.SetValue("")
		return m, tea.Println(warnMsgStyle.Render(fmt.Sprintf("  ! Save %q already exists. Overwrite? (y/n)", service.DisplayName(msg.filename))))
	}

	return m, tea.Println(successMsgStyle.Render("  ✓ Chat saved: " + service.DisplayName(msg.filename)))
}

func (m model) handleSaveConfirmSubmit(value string) (tea.Model, tea.Cmd) {
	filename := m.pendingSave
	m.pendingSave = ""
	m.exitCapture()

	switch strings.ToLower(value) {
	case "y", "yes":
		client := m.client
		return m, func() tea.Msg {
			if err := client.ForceSaveChat(filename); err != nil {
				return saveResultMsg{filename: filename, err: err}
			}
			return saveResultMsg{filename: filename, status: api.StatusSuccess, forced: true}
		}
	default:
		return m, tea.Println(warnMsgStyle.Render("  ! Save cancelled."))
	}
}

// ─── /load ──────────────────────────────────────────────────────────────────

func (m model) cmdLoad(args []string) (tea.Model, tea.Cmd) {
	if len(args) == 0 {
		return m, tea.Println(warnMsgStyle.Render("  ! Usage: /load <name>"))
	}
	name := service.EnsureJSONSuffix(args[0])
	client := m.client
	return m, func() tea.Msg {
		return actionResultMsg{detail: "Chat loaded: " + service.DisplayName(name), err: client.LoadChat(name)}
	}
}

// ─── /cg ────────────────────────────────────────────────────────────────────

type resourcesLoadedMsg struct {
	files []string
	err   error
}

func (m model) cmdCG(args []string) (tea.Model, tea.Cmd) {
	client := m.client

	if len(args) > 0 {
		switch strings.ToLower(args[0]) {
		case "delete":
			if len(args) < 2 {
				return m, tea.Println(warnMsgStyle.Render("  ! Usage: /cg delete <filename>"))
			}
			name := args[1]
			return m, func() tea.Msg {
				return actionResultMsg{detail: "Resource deleted: " + name, err: client.DeleteResource(name)}
			}
		case "rename":
			if len(args) < 3 {
				return m, tea.Println(warnMsgStyle.Render("  ! Usage: /cg rename <old> <new>"))
			}
			oldName, newName := args[1], args[2]
			return m, func() tea.Msg {
				return actionResultMsg{detail: fmt.Sprintf("Resource renamed: %s → %s", oldName, newName), err: client.RenameResource(oldName, newName)}
			}
		default:
			return m, tea.Println(warnMsgStyle.Render("  ! Usage: /cg [delete <name> | rename <old> <new>]"))
		}
	}

	return m, tea.Sequence(
		tea.Println(statusStyle.Render("  ⟳ Loading resources...")),
		func() tea.Msg {
			resp, err := client.Resources()
			if err != nil {
				return resourcesLoadedMsg{err: err}
			}
			return resourcesLoadedMsg{files: resp.Files}
		},
	)
}

func (m model) handleResourcesLoaded(msg resourcesLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		return m, tea.Println(errorMsgStyle.Render(fmt.Sprintf("  ✗ Failed to load resources: %v", msg.err)))
	}
	if len(msg.files) == 0 {
		return m, tea.Println(warnMsgStyle.Render("  ! No CG resources found."))
	}

	var cmds []tea.Cmd
	cmds = append(cmds,
		tea.Println(""),
		tea.Println(dimStyle.Render(fmt.Sprintf("  CG resources (%d):", len(msg.files)))),
		tea.Println(""),
	)
	for _, f := range msg.files {
		cmds = append(cmds,
			tea.Println("  🖼 "+f),
			tea.Println(dimStyle.Render("    "+m.client.ResourceURL(f))),
		)
	}
	cmds = append(cmds, tea.Println(""))
	return m, tea.Sequence(cmds...)
}

// ─── /apikey ────────────────────────────────────────────────────────────────

type keyStatusMsg struct {
	set bool
	err error
}

func (m model) cmdAPIKey(args []string) (tea.Model, tea.Cmd) {
	if len(args) > 0 && strings.ToLower(args[0]) == "set" {
		m.enterAPIKeyCapture()
		return m, tea.Println(dimStyle.Render("  Enter your API key (Esc to cancel):"))
	}

	client := m.client
	return m, func() tea.Msg {
		resp, err := client.KeyStatus()
		if err != nil {
			return keyStatusMsg{err: err}
		}
		return keyStatusMsg{set: resp.HasAPIKey}
	}
}

func (m model) handleKeyStatus(msg keyStatusMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		return m, tea.Println(errorMsgStyle.Render(fmt.Sprintf("  ✗ Failed to check key: %v", msg.err)))
	}
	if msg.set {
		return m, tea.Println(successMsgStyle.Render("  ✓ API key is set"))
	}
	return m, tea.Sequence(
		tea.Println(warnMsgStyle.Render("  ! API key is not set")),
		tea.Println(dimStyle.Render("    Use /apikey set to configure it")),
	)
}

func (m model) handleAPIKeySubmit(value string) (tea.Model, tea.Cmd) {
	m.exitCapture()
	client := m.client
	return m, tea.Sequence(
		tea.Println(statusStyle.Render("  ⟳ Saving API key...")),
		func() tea.Msg {
			return actionResultMsg{detail: "API key saved", err: client.SetAPIKey(value)}
		},
	)
}

// ─── /memory ────────────────────────────────────────────────────────────────

func (m model) cmdMemory(args []string) (tea.Model, tea.Cmd) {
	if len(args) == 0 {
		return m, tea.Println(warnMsgStyle.Render("  ! Usage: /memory <rounds>"))
	}
	rounds, err := strconv.Atoi(args[0])
	if err != nil || rounds < 0 {
		return m, tea.Println(errorMsgStyle.Render("  ✗ Rounds must be a non-negative number"))
	}
	client := m.client
	return m, func() tea.Msg {
		return actionResultMsg{detail: fmt.Sprintf("Memory set to %d rounds", rounds), err: client.SetMemoryRounds(rounds)}
	}
}

// ─── /history ───────────────────────────────────────────────────────────────

type historyLoadedMsg struct {
	resp *api.HistoryResponse
	err  error
}

func (m model) cmdHistory() (tea.Model, tea.Cmd) {
	client := m.client
	return m, tea.Sequence(
		tea.Println(statusStyle.Render("  ⟳ Loading history...")),
		func() tea.Msg {
			resp, err := client.History()
			return historyLoadedMsg{resp: resp, err: err}
		},
	)
}

func (m model) handleHistoryLoaded(msg historyLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		return m, tea.Println(errorMsgStyle.Render(fmt.Sprintf("  ✗ Failed to load history: %v", msg.err)))
	}
	if len(msg.resp.ChatHistory) == 0 {
		return m, tea.Println(warnMsgStyle.Render("  ! Chat history is empty."))
	}

	width := min(m.width-6, 76)
	var cmds []tea.Cmd
	cmds = append(cmds, tea.Println(""))
	if msg.resp.CurrentPrompt != "" {
		cmds = append(cmds, tea.Println(dimStyle.Render("  Prompt: "+service.DisplayName(msg.resp.CurrentPrompt))))
	}

	for _, entry := range msg.resp.ChatHistory {
		switch entry.Role {
		case "user":
			cmds = append(cmds,
				tea.Println(""),
				tea.Println(userPromptStyle.Render("  ❯ "+entry.Content)),
			)
		case "assistant":
			rendered := renderMarkdown(entry.Content, width)
			cmds = append(cmds,
				tea.Println(""),
				tea.Println(replyNameStyle.Render("  风月")),
				tea.Println(strings.TrimRight(indentText(rendered, "  "), "\n")),
			)
		}
		// System entries carry the prompt text itself; the web UI hides them too.
	}

	cmds = append(cmds, tea.Println(""))
	return m, tea.Sequence(cmds...)
}

// ─── /clear ─────────────────────────────────────────────────────────────────

func (m model) cmdClear() (tea.Model, tea.Cmd) {
	client := m.client
	return m, tea.Sequence(
		tea.ClearScreen,
		func() tea.Msg {
			return actionResultMsg{detail: "Chat cleared", err: client.ClearChat()}
		},
	)
}

// ─── /export ────────────────────────────────────────────────────────────────

type exportDoneMsg struct {
	path string
	err  error
}

func (m model) cmdExport(args []string) (tea.Model, tea.Cmd) {
	format := "md"
	if len(args) > 0 {
		format = strings.ToLower(args[0])
	}
	if format != "md" && format != "html" {
		return m, tea.Println(warnMsgStyle.Render("  ! Usage: /export [md|html]"))
	}

	client := m.client
	return m, tea.Sequence(
		tea.Println(statusStyle.Render("  ⟳ Exporting...")),
		func() tea.Msg {
			resp, err := client.History()
			if err != nil {
				return exportDoneMsg{err: err}
			}
			conv := &export.Conversation{
				PromptName: resp.CurrentPrompt,
				Server:     client.BaseURL(),
				Messages:   resp.ChatHistory,
			}

			opts := export.DefaultOptions()
			var exporter export.Exporter
			if format == "html" {
				exporter = export.NewHTMLExporter(opts)
			} else {
				exporter = export.NewMarkdownExporter(opts)
			}

			path, err := export.ExportToFile(conv, exporter, opts)
			return exportDoneMsg{path: path, err: err}
		},
	)
}

func (m model) handleExportDone(msg exportDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		return m, tea.Println(errorMsgStyle.Render(fmt.Sprintf("  ✗ Export failed: %v", msg.err)))
	}
	return m, tea.Println(successMsgStyle.Render("  ✓ Exported to " + msg.path))
}

// ─── /config ────────────────────────────────────────────────────────────────

func (m model) cmdConfig() (tea.Model, tea.Cmd) {
	return m, tea.Sequence(
		tea.Println(""),
		tea.Println(dimStyle.Render("  Configuration:")),
		tea.Println(fmt.Sprintf("    Profile:  %s", config.ProfileName(m.profile))),
		tea.Println(fmt.Sprintf("    Server:   %s", m.cfg.Server)),
		tea.Println(fmt.Sprintf("    Marker:   %s", m.cfg.Marker())),
		tea.Println(""),
		tea.Println(dimStyle.Render("  Change the server with: fengyue set server <url>")),
		tea.Println(""),
	)
}
