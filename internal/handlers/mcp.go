package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/youi/backend/internal/logging"
	"github.com/youi/backend/internal/models"
	"github.com/youi/backend/internal/tools"
)

const maxToolRequestBytes = 1 << 20

// MsgRateLimited is returned with 429.
const MsgRateLimited = "too many requests, slow down"

// MCPHandler implements POST /mcp, the single tool-call endpoint.
type MCPHandler struct {
	Tools   ToolHandler
	Limiter RateLimiter
}

// Handle decodes {tool, input}, runs the tool and writes its result.
func (h MCPHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Tools == nil {
		logger.Error("tool dispatcher unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, errorBody("tool dispatcher unavailable"))
		return
	}

	if !allowRequest(h.Limiter, r, "mcp") {
		respondJSON(ctx, w, http.StatusTooManyRequests, errorBody(MsgRateLimited))
		return
	}

	var req models.ToolRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxToolRequestBytes)).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondJSON(ctx, w, http.StatusRequestEntityTooLarge, errorBody("request body too large"))
			return
		}
		logger.Warn("invalid tool request payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, errorBody("invalid request body"))
		return
	}

	res := h.Tools.Handle(ctx, req)
	respondJSON(ctx, w, statusFor(res), res.Body())
}

func statusFor(res tools.Result) int {
	switch res.Kind {
	case "":
		return http.StatusOK
	case tools.KindUnauthenticated:
		return http.StatusUnauthorized
	case tools.KindUnknownTool, tools.KindInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
