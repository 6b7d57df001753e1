package handler

import (
	"net/http"
	"time"

	"github.com/yndnr/supportform/internal/infra/buildinfo"
)

// handleHealth handles GET /health.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, map[string]any{
		"status":    "healthy",
		"version":   buildinfo.Version,
		"assistant": h.assistant != nil && h.assistant.Ready(),
		"time":      time.Now().UTC().Format(time.RFC3339),
	})
}
