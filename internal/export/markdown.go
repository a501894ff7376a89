package export

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/victorygod/FengyueSimulator/internal/render"
	"github.com/victorygod/FengyueSimulator/internal/service"
)

// MarkdownExporter writes the conversation as plain Markdown. Reply text
// keeps its original inline markers, so the file renders the same styling
// the chat produced.
type MarkdownExporter struct {
	options *Options
}

func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

func (e *MarkdownExporter) Export(conv *Conversation) ([]byte, error) {
	var sb strings.Builder

	title := service.DisplayName(conv.PromptName)
	if title == "" {
		title = "聊天记录"
	}
	fmt.Fprintf(&sb, "# %s\n\n", title)

	if e.options.IncludeMetadata {
		fmt.Fprintf(&sb, "- **提示词**: %s\n", conv.PromptName)
		if conv.Server != "" {
			fmt.Fprintf(&sb, "- **服务器**: %s\n", conv.Server)
		}
		fmt.Fprintf(&sb, "- **导出时间**: %s\n", conv.ExportedAt.Format("2006-01-02 15:04:05"))
		fmt.Fprintf(&sb, "- **消息数**: %d\n\n", len(conv.Messages))
		sb.WriteString("---\n\n")
	}

	for i, msg := range conv.Messages {
		fmt.Fprintf(&sb, "### %s\n\n", roleLabel(msg.Role))
		sb.WriteString(strings.TrimSpace(msg.Content))
		sb.WriteString("\n\n")
		if msg.Role == "assistant" && conv.Server != "" {
			for _, name := range render.ImageTokens(msg.Content) {
				fmt.Fprintf(&sb, "![%s](%s/resource/%s)\n\n",
					name, strings.TrimRight(conv.Server, "/"), url.PathEscape(name))
			}
		}
		if i < len(conv.Messages)-1 {
			sb.WriteString("---\n\n")
		}
	}

	return []byte(sb.String()), nil
}

func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

func roleLabel(role string) string {
	switch role {
	case "user":
		return "你"
	case "assistant":
		return "风月"
	case "system":
		return "系统"
	}
	return role
}
