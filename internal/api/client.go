package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/victorygod/FengyueSimulator/internal/config"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.Server, "/"),
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
}

// Envelope is the common part of every API response. The backend never uses
// HTTP status codes for application errors; it reports them here.
type Envelope struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusExists  = "exists"
)

// Err converts an error-status envelope into a Go error. StatusExists is not
// an error: callers that care (save collision) check Status directly.
func (e *Envelope) Err() error {
	if e.Status == StatusError {
		if e.Message != "" {
			return fmt.Errorf("server error: %s", e.Message)
		}
		return fmt.Errorf("server error")
	}
	return nil
}

// --- Prompts ---

type PromptsResponse struct {
	Envelope
	Prompts       []string        `json:"prompts,omitempty"`
	CurrentPrompt string          `json:"current_prompt,omitempty"`
	CurrentConfig json.RawMessage `json:"current_config,omitempty"`
}

func (c *Client) Prompts() (*PromptsResponse, error) {
	var resp PromptsResponse
	if err := c.doJSON("GET", "/api/prompts", nil, &resp); err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}
	return &resp, nil
}

type setPromptRequest struct {
	PromptName string `json:"prompt_name"`
}

func (c *Client) SetPrompt(name string) error {
	var resp Envelope
	if err := c.doJSON("POST", "/api/prompt/set", setPromptRequest{PromptName: name}, &resp); err != nil {
		return err
	}
	return resp.Err()
}

type savePromptRequest struct {
	PromptName string          `json:"prompt_name"`
	PromptData json.RawMessage `json:"prompt_data"`
}

func (c *Client) SavePrompt(name string, data json.RawMessage) error {
	var resp Envelope
	if err := c.doJSON("POST", "/api/prompt/save", savePromptRequest{PromptName: name, PromptData: data}, &resp); err != nil {
		return err
	}
	return resp.Err()
}

type deletePromptRequest struct {
	PromptName string `json:"prompt_name"`
}

func (c *Client) DeletePrompt(name string) error {
	var resp Envelope
	if err := c.doJSON("POST", "/api/prompt/delete", deletePromptRequest{PromptName: name}, &resp); err != nil {
		return err
	}
	return resp.Err()
}

type renameRequest struct {
	OldName string `json:"old_name"`
	NewName string `json:"new_name"`
}

func (c *Client) RenamePrompt(oldName, newName string) error {
	var resp Envelope
	if err := c.doJSON("POST", "/api/prompt/rename", renameRequest{OldName: oldName, NewName: newName}, &resp); err != nil {
		return err
	}
	return resp.Err()
}

// --- Chat saves ---

type SavesResponse struct {
	Envelope
	Saves []string `json:"saves,omitempty"`
}

func (c *Client) Saves() (*SavesResponse, error) {
	var resp SavesResponse
	if err := c.doJSON("GET", "/api/saves", nil, &resp); err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}
	return &resp, nil
}

type saveChatRequest struct {
	Filename string `json:"filename"`
}

// SaveChat refuses to overwrite: a name collision comes back as
// StatusExists in the envelope rather than an error.
func (c *Client) SaveChat(filename string) (*Envelope, error) {
	var resp Envelope
	if err := c.doJSON("POST", "/api/save", saveChatRequest{Filename: filename}, &resp); err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ForceSaveChat overwrites an existing save of the same name.
func (c *Client) ForceSaveChat(filename string) error {
	var resp Envelope
	if err := c.doJSON("POST", "/api/save/force", saveChatRequest{Filename: filename}, &resp); err != nil {
		return err
	}
	return resp.Err()
}

func (c *Client) LoadChat(filename string) error {
	var resp Envelope
	if err := c.doJSON("POST", "/api/save/load", saveChatRequest{Filename: filename}, &resp); err != nil {
		return err
	}
	return resp.Err()
}

func (c *Client) DeleteChat(filename string) error {
	var resp Envelope
	if err := c.doJSON("POST", "/api/save/delete", saveChatRequest{Filename: filename}, &resp); err != nil {
		return err
	}
	return resp.Err()
}

func (c *Client) RenameChat(oldName, newName string) error {
	var resp Envelope
	if err := c.doJSON("POST", "/api/save/rename", renameRequest{OldName: oldName, NewName: newName}, &resp); err != nil {
		return err
	}
	return resp.Err()
}

// --- CG resources ---

type ResourcesResponse struct {
	Envelope
	Files []string `json:"files,omitempty"`
}

func (c *Client) Resources() (*ResourcesResponse, error) {
	var resp ResourcesResponse
	if err := c.doJSON("GET", "/api/resources", nil, &resp); err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}
	return &resp, nil
}

type resourceRequest struct {
	Filename string `json:"filename"`
}

func (c *Client) DeleteResource(filename string) error {
	var resp Envelope
	if err := c.doJSON("POST", "/api/resource/delete", resourceRequest{Filename: filename}, &resp); err != nil {
		return err
	}
	return resp.Err()
}

func (c *Client) RenameResource(oldName, newName string) error {
	var resp Envelope
	if err := c.doJSON("POST", "/api/resource/rename", renameRequest{OldName: oldName, NewName: newName}, &resp); err != nil {
		return err
	}
	return resp.Err()
}

// ResourceURL builds the fetch URL for a resource filename, percent-encoding
// the name so CJK filenames survive the round trip.
func (c *Client) ResourceURL(filename string) string {
	return c.baseURL + "/resource/" + url.PathEscape(filename)
}

// BaseURL returns the server address the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// --- API key ---

type KeyStatusResponse struct {
	Envelope
	HasAPIKey bool `json:"has_api_key"`
	APIKeySet bool `json:"api_key_set"`
}

func (c *Client) KeyStatus() (*KeyStatusResponse, error) {
	var resp KeyStatusResponse
	if err := c.doJSON("GET", "/api/api_key/status", nil, &resp); err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}
	return &resp, nil
}

type setAPIKeyRequest struct {
	APIKey string `json:"api_key"`
}

func (c *Client) SetAPIKey(key string) error {
	var resp Envelope
	if err := c.doJSON("POST", "/api/api_key/set", setAPIKeyRequest{APIKey: key}, &resp); err != nil {
		return err
	}
	return resp.Err()
}

// --- Chat history and memory ---

type HistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type HistoryResponse struct {
	Envelope
	ChatHistory   []HistoryEntry `json:"chat_history,omitempty"`
	CurrentPrompt string         `json:"current_prompt,omitempty"`
}

func (c *Client) History() (*HistoryResponse, error) {
	var resp HistoryResponse
	if err := c.doJSON("GET", "/api/chat/history", nil, &resp); err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ClearChat() error {
	var resp Envelope
	if err := c.doJSON("POST", "/api/chat/clear", nil, &resp); err != nil {
		return err
	}
	return resp.Err()
}

type setMemoryRequest struct {
	Rounds int `json:"rounds"`
}

// SetMemoryRounds sets how many recent exchanges the backend replays as
// context. Zero disables memory.
func (c *Client) SetMemoryRounds(rounds int) error {
	var resp Envelope
	if err := c.doJSON("POST", "/api/memory/set", setMemoryRequest{Rounds: rounds}, &resp); err != nil {
		return err
	}
	return resp.Err()
}

// --- Generic JSON helper ---

func (c *Client) doJSON(method, path string, reqBody interface{}, result interface{}) error {
	var bodyReader io.Reader
	if reqBody != nil && method != "GET" {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(respBody))
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("parsing response: %w", err)
		}
	}
	return nil
}
