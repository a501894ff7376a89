package api

import (
	"context"
	"encoding/json"
)

// FengyueAPI defines the interface for the simulator API client.
// *Client satisfies this interface. TUI and tests can use mock implementations.
type FengyueAPI interface {
	ChatStream(ctx context.Context, message string, onChunk func(chunk []byte) error) error
	Prompts() (*PromptsResponse, error)
	SetPrompt(name string) error
	SavePrompt(name string, data json.RawMessage) error
	DeletePrompt(name string) error
	RenamePrompt(oldName, newName string) error
	Saves() (*SavesResponse, error)
	SaveChat(filename string) (*Envelope, error)
	ForceSaveChat(filename string) error
	LoadChat(filename string) error
	DeleteChat(filename string) error
	RenameChat(oldName, newName string) error
	Resources() (*ResourcesResponse, error)
	DeleteResource(filename string) error
	RenameResource(oldName, newName string) error
	ResourceURL(filename string) string
	BaseURL() string
	KeyStatus() (*KeyStatusResponse, error)
	SetAPIKey(key string) error
	History() (*HistoryResponse, error)
	ClearChat() error
	SetMemoryRounds(rounds int) error
}
