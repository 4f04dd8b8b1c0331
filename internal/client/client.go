// Package client talks to the YOUI backend over HTTP on behalf of the chat UI.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/youi/backend/internal/models"
	"github.com/youi/backend/internal/upstream"
)

// APIKeyHeader carries the shared key checked by the backend's /mcp guard.
const APIKeyHeader = "X-API-Key"

// Reply is a backend answer as the chat renders it: either Text, or the raw
// JSON object in Raw. Failed is set when the backend answered with {error}.
type Reply struct {
	Text   string
	Raw    json.RawMessage
	Failed bool
}

// IsText reports whether the reply renders as plain text.
func (r Reply) IsText() bool {
	return r.Raw == nil
}

// Client posts tool calls to the backend.
type Client struct {
	baseURL string
	apiKey  string
	caller  upstream.Caller
}

// New returns a client for the backend at baseURL.
func New(baseURL, apiKey string, httpClient upstream.Doer, policy upstream.Policy) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		caller: upstream.Caller{
			Service: "backend",
			Client:  httpClient,
			Policy:  policy,
		},
	}
}

// Call posts {tool, input} to /mcp. A JSON string answer becomes Text, an
// {error} object becomes "⚠️ <error>" text, and anything else is returned raw.
// Only transport failures and unreadable bodies are returned as errors.
func (c *Client) Call(ctx context.Context, tool string, input map[string]any) (Reply, error) {
	if input == nil {
		input = map[string]any{}
	}
	body, err := json.Marshal(models.ToolRequest{Tool: tool, Input: input})
	if err != nil {
		return Reply{}, fmt.Errorf("encode tool request: %w", err)
	}

	resp, err := c.caller.Do(ctx, "mcp", func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/mcp", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set(APIKeyHeader, c.apiKey)
		}
		return req, nil
	})
	if err != nil {
		var upErr *upstream.Error
		if !errors.As(err, &upErr) || upErr.StatusCode == 0 || len(resp.Body) == 0 {
			return Reply{}, err
		}
	}

	return decodeReply(resp.Body)
}

// LoggedIn asks the backend whether a platform account is connected.
func (c *Client) LoggedIn(ctx context.Context) (bool, error) {
	resp, err := c.caller.Do(ctx, "auth_status", func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/status", nil)
	})
	if err != nil {
		return false, err
	}
	var status struct {
		LoggedIn bool `json:"loggedIn"`
	}
	if err := json.Unmarshal(resp.Body, &status); err != nil {
		return false, fmt.Errorf("decode auth status: %w", err)
	}
	return status.LoggedIn, nil
}

// LoginURL is where the user authorizes the backend.
func (c *Client) LoginURL() string {
	return c.baseURL + "/auth/login"
}

func decodeReply(body []byte) (Reply, error) {
	trimmed := bytes.TrimSpace(body)

	var text string
	if err := json.Unmarshal(trimmed, &text); err == nil {
		return Reply{Text: text}, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return Reply{}, fmt.Errorf("decode backend reply: %w", err)
	}
	if rawErr, ok := obj["error"]; ok {
		var msg string
		if err := json.Unmarshal(rawErr, &msg); err == nil && msg != "" {
			return Reply{Text: "⚠️ " + msg, Failed: true}, nil
		}
	}
	return Reply{Raw: json.RawMessage(trimmed)}, nil
}
