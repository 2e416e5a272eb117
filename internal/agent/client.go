// Package agent is the HTTP/JSON client for the external AI backend that
// owns chat history and document indexing.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatResult struct {
	Answer  string `json:"answer"`
	Sources string `json:"sources"`
}

type IndexFileRequest struct {
	FileID         string `json:"file_id"`
	FileURL        string `json:"file_url"`
	FileName       string `json:"file_name"`
	ConversationID string `json:"conversation_id"`
}

type chatRequest struct {
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message"`
}

type deleteFileRequest struct {
	FileID         string `json:"file_id"`
	ConversationID string `json:"conversation_id"`
}

type deleteConversationRequest struct {
	ConversationID string `json:"conversation_id"`
}

type historyResponse struct {
	History []Message `json:"history"`
}

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// HTTPStatusError captures non-2xx upstream responses with status-aware context.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("agent: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient = &http.Client{Timeout: timeout}
	}
}

func NewClient(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("agent: base URL must not be empty")
	}
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Chat sends one user message and returns the assistant answer. The agent
// backend owns the durable history keyed by conversation ID.
func (c *Client) Chat(ctx context.Context, conversationID, message string) (ChatResult, error) {
	raw, err := c.postJSON(ctx, "/api/chat", chatRequest{
		ConversationID: conversationID,
		Message:        message,
	})
	if err != nil {
		return ChatResult{}, fmt.Errorf("agent: chat request failed: %w", err)
	}

	var payload ChatResult
	if decErr := json.Unmarshal(raw, &payload); decErr != nil {
		return ChatResult{}, fmt.Errorf("agent: decode chat response: %w", decErr)
	}
	if payload.Answer == "" {
		return ChatResult{}, errors.New("agent: empty answer in chat response")
	}
	return payload, nil
}

// History fetches the authoritative message list for a conversation. An
// unknown conversation yields an empty history, not an error.
func (c *Client) History(ctx context.Context, conversationID string) ([]Message, error) {
	endpoint := c.baseURL + "/api/chat/" + url.PathEscape(conversationID) + "/history"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("agent: create history request: %w", err)
	}

	raw, err := c.doJSONRequest(req, endpoint)
	if err != nil {
		return nil, fmt.Errorf("agent: history request failed: %w", err)
	}

	var payload historyResponse
	if decErr := json.Unmarshal(raw, &payload); decErr != nil {
		return nil, fmt.Errorf("agent: decode history response: %w", decErr)
	}
	return payload.History, nil
}

// IndexFile asks the agent backend to download and index an uploaded file.
func (c *Client) IndexFile(ctx context.Context, request IndexFileRequest) error {
	raw, err := c.postJSON(ctx, "/api/index-file", request)
	if err != nil {
		return fmt.Errorf("agent: index-file request failed: %w", err)
	}

	var payload statusResponse
	if decErr := json.Unmarshal(raw, &payload); decErr != nil {
		return fmt.Errorf("agent: decode index-file response: %w", decErr)
	}
	if payload.Status != "success" {
		return fmt.Errorf("agent: index-file rejected: %s", payload.Message)
	}
	return nil
}

// DeleteFile removes a file from the agent's index.
func (c *Client) DeleteFile(ctx context.Context, fileID, conversationID string) error {
	_, err := c.postJSON(ctx, "/api/delete-file", deleteFileRequest{
		FileID:         fileID,
		ConversationID: conversationID,
	})
	if err != nil {
		return fmt.Errorf("agent: delete-file request failed: %w", err)
	}
	return nil
}

// DeleteConversation drops the agent-side history and index entries for a
// conversation. Best effort only; callers treat failures as non-fatal.
func (c *Client) DeleteConversation(ctx context.Context, conversationID string) error {
	_, err := c.postJSON(ctx, "/api/delete-conversation", deleteConversationRequest{
		ConversationID: conversationID,
	})
	if err != nil {
		return fmt.Errorf("agent: delete-conversation request failed: %w", err)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, body any) ([]byte, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := c.baseURL + path
	req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if reqErr != nil {
		return nil, fmt.Errorf("create request: %w", reqErr)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.doJSONRequest(req, endpoint)
}

func (c *Client) doJSONRequest(req *http.Request, endpoint string) ([]byte, error) {
	res, doErr := c.httpClient.Do(req)
	if doErr != nil {
		return nil, doErr
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, &HTTPStatusError{
			StatusCode: res.StatusCode,
			URL:        endpoint,
			Body:       string(buf),
		}
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return buf, nil
}
