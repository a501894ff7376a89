package service

import (
	"fmt"
	"io"
	"strings"
)

const (
	ansiReset  = "\033[0m"
	ansiBold   = "\033[1m"
	ansiDim    = "\033[2m"
	ansiItalic = "\033[3m"
)

// TerminalPrinter writes streamed reply text to a terminal line by line,
// buffering the trailing partial line so fragments never print torn. Inline
// style markers are converted to ANSI on complete lines.
type TerminalPrinter struct {
	w      io.Writer
	buf    string
	indent string
}

func NewTerminalPrinter(w io.Writer) *TerminalPrinter {
	return &TerminalPrinter{w: w, indent: "  "}
}

// Write appends a streamed fragment and prints any complete lines.
func (p *TerminalPrinter) Write(text string) {
	p.buf += text
	for {
		idx := strings.IndexByte(p.buf, '\n')
		if idx < 0 {
			return
		}
		line := p.buf[:idx]
		p.buf = p.buf[idx+1:]
		fmt.Fprintln(p.w, p.indent+RenderInline(line))
	}
}

// Flush prints whatever partial line remains. Called once the stream ends.
func (p *TerminalPrinter) Flush() {
	if p.buf == "" {
		return
	}
	fmt.Fprintln(p.w, p.indent+RenderInline(p.buf))
	p.buf = ""
}

// RenderInline converts **bold**, *italic* and `code` spans to ANSI styling
// for terminal display. Unmatched delimiters are left literal.
func RenderInline(text string) string {
	var out strings.Builder
	i := 0
	for i < len(text) {
		if i+3 < len(text) && text[i] == '*' && text[i+1] == '*' {
			end := strings.Index(text[i+2:], "**")
			if end > 0 {
				out.WriteString(ansiBold)
				out.WriteString(text[i+2 : i+2+end])
				out.WriteString(ansiReset)
				i += 4 + end
				continue
			}
		}

		if text[i] == '*' {
			end := strings.IndexByte(text[i+1:], '*')
			if end > 0 {
				out.WriteString(ansiItalic)
				out.WriteString(text[i+1 : i+1+end])
				out.WriteString(ansiReset)
				i += 2 + end
				continue
			}
		}

		if text[i] == '`' {
			end := strings.IndexByte(text[i+1:], '`')
			if end > 0 {
				out.WriteString(ansiDim)
				out.WriteString(text[i+1 : i+1+end])
				out.WriteString(ansiReset)
				i += 2 + end
				continue
			}
		}

		out.WriteByte(text[i])
		i++
	}
	return out.String()
}
