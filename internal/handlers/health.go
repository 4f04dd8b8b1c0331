package handlers

import (
	"net/http"
)

// ServiceName is reported by the health endpoint.
const ServiceName = "mcp-youtube-agent-server"

// HealthHandler responds with service health information.
type HealthHandler struct{}

// Handle implements GET /health.
func (HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	respondJSON(r.Context(), w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": ServiceName,
	})
}
