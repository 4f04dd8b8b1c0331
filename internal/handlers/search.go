package handlers

import (
	"net/http"
	"strings"

	"github.com/youi/backend/internal/logging"
	"github.com/youi/backend/internal/tools"
)

const searchPageSize = 10

// MsgSearchFailed is the body of every failed GET /youtube/search.
const MsgSearchFailed = "Failed to fetch videos"

// SearchHandler implements GET /youtube/search?q=, a direct search route that
// bypasses the tool envelope.
type SearchHandler struct {
	Tokens  tools.TokenSource
	Videos  VideoSearcher
	Limiter RateLimiter
}

// Handle runs one search and returns the platform page unchanged.
func (h SearchHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Tokens == nil || h.Videos == nil {
		logger.Error("search dependencies unavailable", "hasTokens", h.Tokens != nil, "hasVideos", h.Videos != nil)
		respondJSON(ctx, w, http.StatusInternalServerError, errorBody(MsgSearchFailed))
		return
	}

	if !allowRequest(h.Limiter, r, "mcp") {
		respondJSON(ctx, w, http.StatusTooManyRequests, errorBody(MsgRateLimited))
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		respondJSON(ctx, w, http.StatusBadRequest, errorBody("query parameter q is required"))
		return
	}

	token, err := h.Tokens.AccessToken(ctx)
	if err != nil || token == "" {
		respondJSON(ctx, w, http.StatusUnauthorized, errorBody(tools.MsgLoginRequired))
		return
	}

	page, err := h.Videos.Search(ctx, token, query, searchPageSize)
	if err != nil {
		logger.Error("youtube search failed", "query", query, "error", err)
		respondJSON(ctx, w, http.StatusInternalServerError, errorBody(MsgSearchFailed))
		return
	}
	respondJSON(ctx, w, http.StatusOK, page)
}
