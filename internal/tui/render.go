package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
)

// ─── Welcome Screen ─────────────────────────────────────────────────────────

func renderWelcome(version, server, profile string, width int) string {
	titleLine := logoTitleStyle.Render("风月 Simulator") + " " + versionStyle.Render("v"+version)

	var infoLine string
	if server == "" {
		infoLine = welcomeHintStyle.Render("Type /config to get started")
	} else {
		serverDisplay := server
		if len(serverDisplay) > 40 {
			serverDisplay = serverDisplay[:37] + "..."
		}
		profileDisplay := dimStyle.Render("default")
		if profile != "" {
			profileDisplay = profile
		}
		infoLine = welcomeInfoLabel.Render(fmt.Sprintf("%s · %s", serverDisplay, profileDisplay))
	}

	return fmt.Sprintf("\n%s\n\n%s\n%s\n", renderMoonASCIIArt(), titleLine, infoLine)
}

const moonASCIIArt = `
             ..::::::..
          .::::::::::::::.
        .::::::::::::::::::.        %%
       ::::::::::::::::::::::     %%%%%%
      ::::::::::::::::::::::::   %%%%%%%%
      ::::::::::::::::::::::::    %%%%%%
      ::::::::::::::::::::::::  %%  %%
       ::::::::::::::::::::::      %%%%
        '::::::::::::::::::'     %%%%%%%%
          ':::::::::::::::'        %%%%
             ''::::::''             %%
`

func renderMoonASCIIArt() string {
	lines := strings.Split(moonASCIIArt, "\n")
	lines = trimEmptyEdgeLines(lines)

	minIndent := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := countLeadingSpaces(line)
		if minIndent == -1 || indent < minIndent {
			minIndent = indent
		}
	}

	for i, line := range lines {
		line = strings.TrimRight(line, " ")
		if minIndent > 0 && len(line) >= minIndent {
			line = line[minIndent:]
		}
		lines[i] = colorizeMoonLine(line)
	}

	return strings.Join(lines, "\n")
}

func trimEmptyEdgeLines(lines []string) []string {
	start := 0
	for start < len(lines) && strings.TrimSpace(lines[start]) == "" {
		start++
	}

	end := len(lines)
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return lines[start:end]
}

func countLeadingSpaces(s string) int {
	i := 0
	for i < len(s) && s[i] == ' ' {
		i++
	}
	return i
}

// colorizeMoonLine styles the moon (dots and quotes) yellow and the blossom
// (percent runs) rose, batching consecutive runes of the same style.
func colorizeMoonLine(line string) string {
	const (
		stylePlain = iota
		styleMoon
		styleBloom
	)

	styleFor := func(r rune) int {
		switch r {
		case '.', ':', '\'':
			return styleMoon
		case '%':
			return styleBloom
		default:
			return stylePlain
		}
	}

	render := func(style int, s string) string {
		switch style {
		case styleMoon:
			return logoMoonStyle.Render(s)
		case styleBloom:
			return logoBloomStyle.Render(s)
		default:
			return s
		}
	}

	var out strings.Builder
	var run strings.Builder
	currentStyle := stylePlain
	first := true

	flush := func() {
		if run.Len() == 0 {
			return
		}
		out.WriteString(render(currentStyle, run.String()))
		run.Reset()
	}

	for _, r := range line {
		nextStyle := styleFor(r)
		if first {
			currentStyle = nextStyle
			first = false
		} else if nextStyle != currentStyle {
			flush()
			currentStyle = nextStyle
		}
		run.WriteRune(r)
	}

	flush()
	return out.String()
}

// ─── Markdown (history view) ────────────────────────────────────────────────

// renderMarkdown renders a completed reply through glamour for the history
// view. Falls back to the raw text if the renderer cannot be built.
func renderMarkdown(text string, width int) string {
	if width < 20 {
		width = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return text
	}
	out, err := r.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

// hasBlockMarkdown reports whether text uses block structures the inline
// stream printer cannot show (fences, headings, lists, quotes, tables).
// Plain replies skip the completion re-render; their inline styling was
// already faithful line by line.
func hasBlockMarkdown(text string) bool {
	if strings.Contains(text, "```") {
		return true
	}
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		for _, prefix := range []string{"# ", "## ", "### ", "#### ", "- ", "* ", "> ", "| "} {
			if strings.HasPrefix(trimmed, prefix) {
				return true
			}
		}
	}
	return false
}

func indentText(text, prefix string) string {
	lines := strings.Split(text, "\n")
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(prefix)
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
