package handlers

import (
	"context"
	"encoding/json"

	"github.com/youi/backend/internal/models"
	"github.com/youi/backend/internal/tools"
)

// OAuthSession is the login state the auth endpoints drive.
type OAuthSession interface {
	LoginURL(state string) string
	Complete(ctx context.Context, code string) error
	LoggedIn() bool
}

// ToolHandler executes {tool, input} requests.
type ToolHandler interface {
	Handle(ctx context.Context, req models.ToolRequest) tools.Result
}

// VideoSearcher runs a platform search with a bearer token.
type VideoSearcher interface {
	Search(ctx context.Context, token, query string, maxResults int) (json.RawMessage, error)
}
