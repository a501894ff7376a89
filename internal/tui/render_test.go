package tui

import (
	"strings"
	"testing"
)

func TestRenderWelcome(t *testing.T) {
	out := renderWelcome("1.0.0", "http://localhost:8000", "default", 80)

	for _, want := range []string{"风月", "1.0.0", "http://localhost:8000", "default"} {
		if !strings.Contains(out, want) {
			t.Errorf("welcome output missing %q", want)
		}
	}
}

func TestRenderMoonASCIIArtNonEmpty(t *testing.T) {
	out := renderMoonASCIIArt()
	if strings.TrimSpace(out) == "" {
		t.Fatal("ASCII art should not be empty")
	}
	// The raw art characters must survive colorizing
	if !strings.Contains(out, "%") {
		t.Error("blossom characters missing from rendered art")
	}
}

func TestRenderMarkdownKeepsContent(t *testing.T) {
	// Width is clamped internally, so even 0 must render something readable
	out := renderMarkdown("plain text", 0)
	if !strings.Contains(out, "plain text") {
		t.Errorf("output = %q, want it to contain the raw text", out)
	}
}

func TestHasBlockMarkdown(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"plain reply", "你好呀，今晚的月色很美。", false},
		{"inline styling only", "这是 **重点** 和 `代码`。", false},
		{"code fence", "看这段：\n```go\nfmt.Println()\n```", true},
		{"heading", "# 今日计划\n先散步", true},
		{"list", "要带的东西：\n- 伞\n- 外套", true},
		{"quote", "> 月有阴晴圆缺", true},
		{"table", "| 名字 | 值 |\n|---|---|", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := hasBlockMarkdown(tt.text); got != tt.want {
				t.Errorf("hasBlockMarkdown(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestIndentText(t *testing.T) {
	got := indentText("a\nb", "  ")
	want := "  a\n  b\n"
	if got != want {
		t.Errorf("indentText = %q, want %q", got, want)
	}
}
