package models

import "time"

// Credential is the OAuth token pair authorizing calls to the video platform.
type Credential struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	TokenType    string     `json:"token_type,omitempty"`
	Expiry       *time.Time `json:"expiry,omitempty"`
	Scope        string     `json:"scope,omitempty"`
}

// Empty reports whether the credential carries no usable token at all.
func (c Credential) Empty() bool {
	return c.AccessToken == "" && c.RefreshToken == ""
}

// ToolRequest is the body of a POST /mcp call.
type ToolRequest struct {
	Tool  string         `json:"tool"`
	Input map[string]any `json:"input"`
}

// Chat message senders.
const (
	SenderUser      = "user"
	SenderAssistant = "assistant"
)

// ChatMessage is one entry of the chat transcript.
type ChatMessage struct {
	Sender string
	Text   string
	// Items is set when the message answered with a list of cards.
	Items int
}

// WatchHistoryEntry records a card the user opened from the grid.
type WatchHistoryEntry struct {
	VideoID   string
	Title     string
	Channel   string
	Thumbnail string
	WatchedAt time.Time
}
