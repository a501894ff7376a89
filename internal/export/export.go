// Package export writes the current chat history to a local file, as
// Markdown or as a standalone HTML page using the same markup the chat
// view renders.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/victorygod/FengyueSimulator/internal/api"
)

// Conversation is the exportable view of a chat history.
type Conversation struct {
	PromptName string
	Server     string
	Messages   []api.HistoryEntry
	ExportedAt time.Time
}

// Exporter converts a conversation to one output format.
type Exporter interface {
	Export(conv *Conversation) ([]byte, error)
	FileExtension() string
}

// Options configures where and how exports are written.
type Options struct {
	// OutputDir is the directory where files are saved. Default: ".".
	OutputDir string

	// IncludeMetadata adds a header with prompt name, server and timestamps.
	IncludeMetadata bool
}

func DefaultOptions() *Options {
	return &Options{
		OutputDir:       ".",
		IncludeMetadata: true,
	}
}

// ExportToFile writes the conversation with the given exporter and returns
// the output path.
func ExportToFile(conv *Conversation, exporter Exporter, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if conv == nil || len(conv.Messages) == 0 {
		return "", fmt.Errorf("no chat history to export")
	}
	if conv.ExportedAt.IsZero() {
		conv.ExportedAt = time.Now()
	}

	content, err := exporter.Export(conv)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	filename := fmt.Sprintf("chat_%s_%s%s",
		sanitizeFilename(conv.PromptName),
		conv.ExportedAt.Format("20060102_150405"),
		exporter.FileExtension(),
	)

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	outputPath := filepath.Join(opts.OutputDir, filename)
	if err := os.WriteFile(outputPath, content, 0644); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}
	return outputPath, nil
}

// sanitizeFilename replaces characters that are unsafe in filenames. CJK
// prompt names pass through unchanged.
func sanitizeFilename(s string) string {
	runes := []rune(s)
	if len(runes) > 50 {
		runes = runes[:50]
	}

	out := make([]rune, 0, len(runes))
	for _, r := range runes {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			out = append(out, '-')
		case ' ', '\t', '\n', '\r':
			out = append(out, '_')
		default:
			if r < 32 || r == 127 {
				out = append(out, '-')
			} else {
				out = append(out, r)
			}
		}
	}

	if len(out) == 0 {
		return "chat"
	}
	return string(out)
}
