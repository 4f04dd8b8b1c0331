package handlers

import (
	"net/http"

	"github.com/youi/backend/internal/middleware"
	"github.com/youi/backend/internal/tools"
)

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{}
	auth := AuthHandler{Session: deps.Session, SecureCookies: deps.SecureCookies}
	mcp := MCPHandler{Tools: deps.Tools, Limiter: deps.Limiter}
	search := SearchHandler{Tokens: deps.Tokens, Videos: deps.Videos, Limiter: deps.Limiter}
	guard := middleware.RequireAPIKey(deps.APIKeyHash)

	mux.HandleFunc("/health", health.Handle)
	mux.HandleFunc("/auth/login", auth.Login)
	mux.HandleFunc("/auth/callback", auth.Callback)
	mux.HandleFunc("/auth/status", auth.Status)
	mux.Handle("/mcp", guard(http.HandlerFunc(mcp.Handle)))
	mux.Handle("/youtube/search", guard(http.HandlerFunc(search.Handle)))
}

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Session OAuthSession
	Tools   ToolHandler
	Tokens  tools.TokenSource
	Videos  VideoSearcher
	Limiter RateLimiter

	// APIKeyHash is the bcrypt hash guarding tool endpoints. Empty disables the guard.
	APIKeyHash    string
	SecureCookies bool
}
