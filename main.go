package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/victorygod/FengyueSimulator/internal/api"
	"github.com/victorygod/FengyueSimulator/internal/config"
	"github.com/victorygod/FengyueSimulator/internal/display"
	"github.com/victorygod/FengyueSimulator/internal/export"
	"github.com/victorygod/FengyueSimulator/internal/render"
	"github.com/victorygod/FengyueSimulator/internal/service"
	"github.com/victorygod/FengyueSimulator/internal/stream"
	"github.com/victorygod/FengyueSimulator/internal/tui"
)

const version = "0.1.0"

var activeProfile string

func main() {
	args := os.Args[1:]

	// Parse global flags first (--profile)
	args = parseGlobalFlags(args)

	// No args → launch interactive mode (default)
	if len(args) == 0 {
		if err := tui.Run(version, activeProfile); err != nil {
			display.Error(err.Error())
			os.Exit(1)
		}
		return
	}

	// Explicit -i flag also launches interactive mode
	if args[0] == "-i" || args[0] == "--interactive" || args[0] == "interactive" {
		if err := tui.Run(version, activeProfile); err != nil {
			display.Error(err.Error())
			os.Exit(1)
		}
		return
	}

	var err error

	switch args[0] {
	case "ask", "chat":
		err = cmdAsk(args[1:])
	case "prompts":
		err = cmdPrompts()
	case "prompt":
		err = cmdPrompt(args[1:])
	case "saves":
		err = cmdSaves()
	case "save":
		err = cmdSave(args[1:])
	case "load":
		err = cmdLoad(args[1:])
	case "cg":
		err = cmdCG(args[1:])
	case "apikey":
		err = cmdAPIKey(args[1:])
	case "memory":
		err = cmdMemory(args[1:])
	case "history":
		err = cmdHistory()
	case "clear":
		err = cmdClear()
	case "export":
		err = cmdExport(args[1:])
	case "set":
		err = cmdSet(args[1:])
	case "config":
		err = cmdConfig()
	case "profiles":
		err = cmdProfiles()
	case "help", "--help", "-h":
		printUsage()
	case "version", "--version", "-v":
		fmt.Printf("fengyue %s\n", version)
	default:
		display.Error(fmt.Sprintf("Unknown command: %s", args[0]))
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		display.Error(err.Error())
		os.Exit(1)
	}
}

func loadClient() (*config.Config, *api.Client, error) {
	cfg, err := config.Load(activeProfile)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, api.NewClient(cfg), nil
}

// ─── ask ────────────────────────────────────────────────────────────────────

func cmdAsk(args []string) error {
	if len(args) == 0 {
		fmt.Println("Usage: fengyue ask <message>")
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println(`  fengyue ask "晚上好，风月"`)
		fmt.Println(`  fengyue ask 今天过得怎么样？`)
		return nil
	}
	message := strings.Join(args, " ")

	cfg, client, err := loadClient()
	if err != nil {
		return err
	}

	fmt.Printf("\n  %s❯%s %s\n\n", display.Cyan, display.Reset, message)
	display.Spinner("等待风月回复...")

	printer := service.NewTerminalPrinter(os.Stdout)
	sess := stream.New(render.NewSlot(), client.BaseURL(), cfg.Marker())

	replyStarted := false
	sess.OnDelta = func(text string) {
		if !replyStarted {
			replyStarted = true
			display.ClearLine()
			fmt.Printf("  %s风月%s\n", display.Magenta+display.Bold, display.Reset)
		}
		printer.Write(text)
	}

	err = sess.Run(context.Background(), client, message)
	if !replyStarted {
		display.ClearLine()
	}
	printer.Flush()

	if errors.Is(err, stream.ErrAPIKeyMissing) {
		fmt.Println()
		display.Warn("API key is not set on the server.")
		fmt.Printf("  %sNext:%s Run %sfengyue%s apikey set <key>%s first.\n\n",
			display.Dim, display.Reset, display.Cyan, profileFlag(), display.Reset)
		return nil
	}
	if err != nil {
		return fmt.Errorf("chat failed: %w", err)
	}

	images := sess.Slot().Images()
	if len(images) > 0 {
		fmt.Println()
		for _, img := range images {
			fmt.Printf("  🖼 %s%s%s  %s%s%s\n",
				display.Blue, img.Filename, display.Reset,
				display.Dim, img.URL, display.Reset)
		}
	}
	fmt.Println()

	return nil
}

// ─── prompts ────────────────────────────────────────────────────────────────

func cmdPrompts() error {
	_, client, err := loadClient()
	if err != nil {
		return err
	}

	resp, err := client.Prompts()
	if err != nil {
		return fmt.Errorf("listing prompts: %w", err)
	}

	display.Header(fmt.Sprintf("Prompts (%d)", len(resp.Prompts)))

	if len(resp.Prompts) == 0 {
		display.Warn("No prompts found.")
		return nil
	}

	for _, p := range resp.Prompts {
		marker := " "
		if p == resp.CurrentPrompt {
			marker = display.Green + "●" + display.Reset
		}
		fmt.Printf("  %s %s\n", marker, service.DisplayName(p))
	}

	fmt.Printf("\n  %sTip:%s Run %sfengyue prompt <name>%s to switch.\n\n",
		display.Dim, display.Reset, display.Cyan, display.Reset)

	return nil
}

func cmdPrompt(args []string) error {
	if len(args) == 0 {
		fmt.Println("Usage: fengyue prompt <name>")
		fmt.Println("       fengyue prompt save <name> <config.json>")
		fmt.Println("       fengyue prompt delete <name>")
		fmt.Println("       fengyue prompt rename <old> <new>")
		return nil
	}

	_, client, err := loadClient()
	if err != nil {
		return err
	}

	switch args[0] {
	case "save":
		if len(args) < 3 {
			return fmt.Errorf("usage: fengyue prompt save <name> <config.json>")
		}
		name := service.EnsureJSONSuffix(args[1])
		data, err := os.ReadFile(args[2])
		if err != nil {
			return err
		}
		if !json.Valid(data) {
			return fmt.Errorf("%s is not valid JSON", args[2])
		}
		if err := client.SavePrompt(name, data); err != nil {
			return err
		}
		display.Success("Prompt saved: " + service.DisplayName(name))
	case "delete":
		if len(args) < 2 {
			return fmt.Errorf("usage: fengyue prompt delete <name>")
		}
		name := service.EnsureJSONSuffix(args[1])
		if err := client.DeletePrompt(name); err != nil {
			return err
		}
		display.Success("Prompt deleted: " + service.DisplayName(name))
	case "rename":
		if len(args) < 3 {
			return fmt.Errorf("usage: fengyue prompt rename <old> <new>")
		}
		oldName := service.EnsureJSONSuffix(args[1])
		newName := service.EnsureJSONSuffix(args[2])
		if err := client.RenamePrompt(oldName, newName); err != nil {
			return err
		}
		display.Success(fmt.Sprintf("Prompt renamed: %s → %s", service.DisplayName(oldName), service.DisplayName(newName)))
	default:
		name := service.EnsureJSONSuffix(args[0])
		if err := client.SetPrompt(name); err != nil {
			return err
		}
		display.Success("Switched to prompt: " + service.DisplayName(name))
	}

	return nil
}

// ─── saves ──────────────────────────────────────────────────────────────────

func cmdSaves() error {
	_, client, err := loadClient()
	if err != nil {
		return err
	}

	resp, err := client.Saves()
	if err != nil {
		return fmt.Errorf("listing saves: %w", err)
	}

	display.Header(fmt.Sprintf("Saves (%d)", len(resp.Saves)))

	if len(resp.Saves) == 0 {
		display.Warn("No saves found.")
		return nil
	}

	for _, s := range resp.Saves {
		auto := ""
		if service.IsAutoSave(s) {
			auto = display.Dim + "  (auto)" + display.Reset
		}
		fmt.Printf("  💾 %s%s\n", service.DisplayName(s), auto)
	}

	fmt.Printf("\n  %sTip:%s Run %sfengyue load <name>%s to restore a chat.\n\n",
		display.Dim, display.Reset, display.Cyan, display.Reset)

	return nil
}

func cmdSave(args []string) error {
	if len(args) == 0 {
		fmt.Println("Usage: fengyue save <name> [--force]")
		fmt.Println("       fengyue save delete <name>")
		fmt.Println("       fengyue save rename <old> <new>")
		return nil
	}

	_, client, err := loadClient()
	if err != nil {
		return err
	}

	switch args[0] {
	case "delete":
		if len(args) < 2 {
			return fmt.Errorf("usage: fengyue save delete <name>")
		}
		name := service.EnsureJSONSuffix(args[1])
		if err := client.DeleteChat(name); err != nil {
			return err
		}
		display.Success("Save deleted: " + service.DisplayName(name))
		return nil
	case "rename":
		if len(args) < 3 {
			return fmt.Errorf("usage: fengyue save rename <old> <new>")
		}
		oldName := service.EnsureJSONSuffix(args[1])
		newName := service.EnsureJSONSuffix(args[2])
		if err := client.RenameChat(oldName, newName); err != nil {
			return err
		}
		display.Success(fmt.Sprintf("Save renamed: %s → %s", service.DisplayName(oldName), service.DisplayName(newName)))
		return nil
	}

	force := false
	var positional []string
	for _, a := range args {
		if a == "-f" || a == "--force" {
			force = true
			continue
		}
		positional = append(positional, a)
	}
	filename := service.EnsureJSONSuffix(positional[0])

	if force {
		if err := client.ForceSaveChat(filename); err != nil {
			return err
		}
		display.Success("Chat saved: " + service.DisplayName(filename))
		return nil
	}

	resp, err := client.SaveChat(filename)
	if err != nil {
		return err
	}
	if resp.Status == api.StatusExists {
		display.Warn(fmt.Sprintf("Save %q already exists.", service.DisplayName(filename)))
		fmt.Printf("  %sNext:%s Run %sfengyue save %s --force%s to overwrite.\n\n",
			display.Dim, display.Reset, display.Cyan, service.DisplayName(filename), display.Reset)
		return nil
	}

	display.Success("Chat saved: " + service.DisplayName(filename))
	return nil
}

func cmdLoad(args []string) error {
	if len(args) == 0 {
		fmt.Println("Usage: fengyue load <name>")
		return nil
	}

	_, client, err := loadClient()
	if err != nil {
		return err
	}

	name := service.EnsureJSONSuffix(args[0])
	if err := client.LoadChat(name); err != nil {
		return err
	}
	display.Success("Chat loaded: " + service.DisplayName(name))
	return nil
}

// ─── cg ─────────────────────────────────────────────────────────────────────

func cmdCG(args []string) error {
	_, client, err := loadClient()
	if err != nil {
		return err
	}

	if len(args) > 0 {
		switch args[0] {
		case "delete":
			if len(args) < 2 {
				return fmt.Errorf("usage: fengyue cg delete <filename>")
			}
			if err := client.DeleteResource(args[1]); err != nil {
				return err
			}
			display.Success("Resource deleted: " + args[1])
			return nil
		case "rename":
			if len(args) < 3 {
				return fmt.Errorf("usage: fengyue cg rename <old> <new>")
			}
			if err := client.RenameResource(args[1], args[2]); err != nil {
				return err
			}
			display.Success(fmt.Sprintf("Resource renamed: %s → %s", args[1], args[2]))
			return nil
		default:
			return fmt.Errorf("unknown cg subcommand: %s (valid: delete, rename)", args[0])
		}
	}

	resp, err := client.Resources()
	if err != nil {
		return fmt.Errorf("listing resources: %w", err)
	}

	display.Header(fmt.Sprintf("CG Resources (%d)", len(resp.Files)))

	if len(resp.Files) == 0 {
		display.Warn("No CG resources found.")
		return nil
	}

	for _, f := range resp.Files {
		fmt.Printf("  🖼 %s\n", f)
		fmt.Printf("     %s%s%s\n", display.Dim, client.ResourceURL(f), display.Reset)
	}
	fmt.Println()

	return nil
}

// ─── apikey ─────────────────────────────────────────────────────────────────

func cmdAPIKey(args []string) error {
	_, client, err := loadClient()
	if err != nil {
		return err
	}

	if len(args) > 0 && args[0] == "set" {
		if len(args) < 2 {
			return fmt.Errorf("usage: fengyue apikey set <key>")
		}
		if err := client.SetAPIKey(args[1]); err != nil {
			return err
		}
		display.Success("API key saved")
		return nil
	}

	resp, err := client.KeyStatus()
	if err != nil {
		return fmt.Errorf("checking key status: %w", err)
	}

	display.Info("API key:", display.KeyStatusLabel(resp.HasAPIKey))
	if !resp.HasAPIKey {
		fmt.Printf("\n  %sNext:%s Run %sfengyue apikey set <key>%s to configure it.\n\n",
			display.Dim, display.Reset, display.Cyan, display.Reset)
	}
	return nil
}

// ─── memory ─────────────────────────────────────────────────────────────────

func cmdMemory(args []string) error {
	if len(args) == 0 {
		fmt.Println("Usage: fengyue memory <rounds>")
		fmt.Println()
		fmt.Println("Sets how many recent rounds the bot keeps in context.")
		return nil
	}

	rounds, err := strconv.Atoi(args[0])
	if err != nil || rounds < 0 {
		return fmt.Errorf("invalid rounds: %s", args[0])
	}

	_, client, err := loadClient()
	if err != nil {
		return err
	}

	if err := client.SetMemoryRounds(rounds); err != nil {
		return err
	}
	display.Success(fmt.Sprintf("Memory set to %d rounds", rounds))
	return nil
}

// ─── history ────────────────────────────────────────────────────────────────

func cmdHistory() error {
	_, client, err := loadClient()
	if err != nil {
		return err
	}

	resp, err := client.History()
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}

	display.Header("Chat History")
	if resp.CurrentPrompt != "" {
		display.Info("Prompt:", service.DisplayName(resp.CurrentPrompt))
	}

	shown := 0
	round := 0
	for _, entry := range resp.ChatHistory {
		if entry.Role != "user" && entry.Role != "assistant" {
			continue
		}
		if entry.Role == "user" {
			round++
			fmt.Println()
			display.SubHeader(fmt.Sprintf("  ── 第 %d 轮 ──", round))
		}
		shown++
		fmt.Printf("\n  %s\n", display.RoleLabel(entry.Role))
		for _, line := range strings.Split(entry.Content, "\n") {
			fmt.Printf("    %s\n", service.RenderInline(line))
		}
	}

	if shown == 0 {
		fmt.Println()
		display.Warn("Chat history is empty.")
		return nil
	}

	fmt.Println()
	return nil
}

func cmdClear() error {
	_, client, err := loadClient()
	if err != nil {
		return err
	}

	if err := client.ClearChat(); err != nil {
		return err
	}
	display.Success("Chat cleared")
	return nil
}

// ─── export ─────────────────────────────────────────────────────────────────

func cmdExport(args []string) error {
	format := "md"
	opts := export.DefaultOptions()

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-o", "--output":
			if i+1 < len(args) {
				i++
				opts.OutputDir = args[i]
			} else {
				return fmt.Errorf("--output requires a value")
			}
		default:
			format = args[i]
		}
	}

	if format != "md" && format != "html" {
		return fmt.Errorf("unknown export format: %s (valid: md, html)", format)
	}

	_, client, err := loadClient()
	if err != nil {
		return err
	}

	resp, err := client.History()
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}

	conv := &export.Conversation{
		PromptName: resp.CurrentPrompt,
		Server:     client.BaseURL(),
		Messages:   resp.ChatHistory,
	}

	var exporter export.Exporter
	if format == "html" {
		exporter = export.NewHTMLExporter(opts)
	} else {
		exporter = export.NewMarkdownExporter(opts)
	}

	path, err := export.ExportToFile(conv, exporter, opts)
	if err != nil {
		return err
	}

	display.Success("Exported to " + path)
	return nil
}

// ─── set / config / profiles ────────────────────────────────────────────────

func cmdSet(args []string) error {
	if len(args) < 2 {
		fmt.Println("Usage: fengyue set <key> <value>")
		fmt.Println()
		fmt.Println("Keys:")
		fmt.Println("  server   Simulator server URL  (e.g. http://localhost:8000)")
		fmt.Println("  marker   Missing-key marker phrase returned by the server")
		return nil
	}

	cfg, err := config.Load(activeProfile)
	if err != nil {
		return err
	}

	key, value := args[0], args[1]

	switch key {
	case "server":
		cfg.Server = value
	case "marker":
		cfg.MissingKeyMarker = value
	default:
		return fmt.Errorf("unknown config key: %s (valid: server, marker)", key)
	}

	if err := cfg.Save(); err != nil {
		return err
	}

	display.Success(fmt.Sprintf("%s set to %s", key, value))
	return nil
}

func cmdConfig() error {
	cfg, err := config.Load(activeProfile)
	if err != nil {
		return err
	}

	display.Header("Fengyue Configuration")

	display.Info("Profile:", config.ProfileName(activeProfile))

	server := cfg.Server
	if server == "" {
		server = display.Dim + "(not set)" + display.Reset
	}
	display.Info("Server:", server)
	display.Info("Marker:", cfg.Marker())
	fmt.Println()

	return nil
}

func cmdProfiles() error {
	profiles, err := config.ListProfiles()
	if err != nil {
		return err
	}

	display.Header(fmt.Sprintf("Profiles (%d)", len(profiles)))

	if len(profiles) == 0 {
		display.Warn("No profiles found.")
		return nil
	}

	for _, p := range profiles {
		marker := " "
		if p == config.ProfileName(activeProfile) {
			marker = display.Green + "●" + display.Reset
		}
		fmt.Printf("  %s %s\n", marker, p)
	}
	fmt.Println()

	return nil
}

// ─── helpers ────────────────────────────────────────────────────────────────

func parseGlobalFlags(args []string) []string {
	var remaining []string
	for i := 0; i < len(args); i++ {
		if args[i] == "--profile" {
			if i+1 < len(args) {
				i++
				activeProfile = args[i]
			}
			continue
		}
		remaining = append(remaining, args[i])
	}
	return remaining
}

func profileFlag() string {
	if activeProfile == "" {
		return ""
	}
	return " --profile " + activeProfile
}

// ─── usage ──────────────────────────────────────────────────────────────────

func printUsage() {
	fmt.Printf(`%s风月 Simulator CLI%s — personal chatbot client (v%s)

%sUsage:%s
  fengyue                                            Launch interactive mode (default)
  fengyue [--profile <name>] <command> [arguments]   Run a specific command

%sChat:%s
  ask|chat "<message>"      Send a message and stream the reply
  history                   Show the chat history
  clear                     Clear the chat on the server
  memory <rounds>           Set how many rounds the bot remembers
  export [md|html]          Export the chat history to a file
    -o, --output <dir>      Export directory (default: current)

%sPrompts:%s
  prompts                   List available prompts
  prompt <name>             Switch to a prompt
  prompt save <name> <file> Save a prompt config from a JSON file
  prompt delete <name>      Delete a prompt
  prompt rename <old> <new> Rename a prompt

%sSaves:%s
  saves                     List saved chats
  save <name> [--force]     Save the chat (--force overwrites)
  save delete <name>        Delete a save
  save rename <old> <new>   Rename a save
  load <name>               Load a saved chat

%sResources:%s
  cg                        List CG image resources
  cg delete <name>          Delete a resource
  cg rename <old> <new>     Rename a resource

%sSettings:%s
  apikey                    Check whether the API key is set
  apikey set <key>          Set the chat API key on the server
  set server <url>          Set the simulator server URL
  config                    Show current configuration
  profiles                  List all config profiles
  --profile <name>          Use a named config profile (default: unnamed)

%sExamples:%s
  fengyue                                  # Start interactive mode
  fengyue set server http://localhost:8000
  fengyue apikey set sk-xxxx
  fengyue ask "晚上好，风月"
  fengyue save 周末存档
  fengyue --profile staging ask "你好"

`, display.Bold, display.Reset, version,
		display.Cyan, display.Reset,
		display.Cyan, display.Reset,
		display.Cyan, display.Reset,
		display.Cyan, display.Reset,
		display.Cyan, display.Reset,
		display.Cyan, display.Reset,
		display.Cyan, display.Reset)
}
