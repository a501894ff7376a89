package export

import (
	"fmt"
	"strings"

	"github.com/victorygod/FengyueSimulator/internal/render"
	"github.com/victorygod/FengyueSimulator/internal/service"
)

// HTMLExporter writes the conversation as a standalone HTML page. Messages
// go through the same formatter the chat view uses, so inline styles,
// allow-listed tags and resolved images come out identically. Image
// elements point back at the backend's resource routes, so the page shows
// them as long as the server is running.
type HTMLExporter struct {
	options *Options
}

func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &HTMLExporter{options: opts}
}

func (e *HTMLExporter) Export(conv *Conversation) ([]byte, error) {
	var sb strings.Builder

	title := service.DisplayName(conv.PromptName)
	if title == "" {
		title = "聊天记录"
	}

	sb.WriteString("<!DOCTYPE html>\n<html lang=\"zh\">\n<head>\n")
	sb.WriteString("<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&sb, "<title>%s</title>\n", render.Format(title))
	sb.WriteString("<style>\n" + pageCSS + "</style>\n")
	sb.WriteString("</head>\n<body>\n")

	fmt.Fprintf(&sb, "<h1>%s</h1>\n", render.Format(title))
	if e.options.IncludeMetadata {
		fmt.Fprintf(&sb, "<p class=\"meta\">%s · %d 条消息</p>\n",
			conv.ExportedAt.Format("2006-01-02 15:04:05"), len(conv.Messages))
	}

	for _, msg := range conv.Messages {
		fmt.Fprintf(&sb, "<div class=\"message %s\">\n", messageClass(msg.Role))
		fmt.Fprintf(&sb, "<div class=\"role\">%s</div>\n", roleLabel(msg.Role))
		fmt.Fprintf(&sb, "<div class=\"content\">%s</div>\n", e.renderContent(msg.Role, msg.Content, conv.Server))
		sb.WriteString("</div>\n")
	}

	sb.WriteString("</body>\n</html>\n")
	return []byte(sb.String()), nil
}

func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

// renderContent formats one message body. Only assistant messages carry
// image tokens, and each message gets its own slot so the one-shot
// resolution pass applies per message.
func (e *HTMLExporter) renderContent(role, content, server string) string {
	markup := render.Format(content)
	if role != "assistant" || server == "" {
		return markup
	}
	slot := render.NewSlot()
	slot.SetMarkup(markup)
	slot.ResolveImages(content, server)
	return slot.Markup()
}

func messageClass(role string) string {
	switch role {
	case "user":
		return "user"
	case "assistant":
		return "assistant"
	}
	return "system"
}

const pageCSS = `body { font-family: sans-serif; max-width: 48em; margin: 2em auto; padding: 0 1em; background: #fdf6f8; color: #333; }
h1 { color: #c2185b; }
.meta { color: #999; font-size: 0.85em; }
.message { margin: 1em 0; padding: 0.8em 1em; border-radius: 8px; }
.message.user { background: #fce4ec; }
.message.assistant { background: #fff; border: 1px solid #f8bbd0; }
.message.system { background: #f5f5f5; color: #888; font-size: 0.9em; }
.role { font-weight: bold; color: #c2185b; margin-bottom: 0.4em; }
.chat-image { max-width: 100%; border-radius: 6px; margin-top: 0.5em; }
code { background: #f3e5f5; padding: 0.1em 0.3em; border-radius: 3px; }
`
