package handler

import (
	"net/http"

	"github.com/yndnr/supportform/internal/core/domain"
)

// handleSuggest handles POST /v1/assist/{field}.
func (h *Handler) handleSuggest(w http.ResponseWriter, r *http.Request) {
	if h.assistant == nil {
		h.handleServiceError(w, r, domain.ErrAssistUnavailable)
		return
	}
	field := domain.Field(r.PathValue("field"))

	var req SuggestRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, CodeBadRequest, "invalid request body", nil)
		return
	}

	text, err := h.assistant.Suggest(r.Context(), field, req.Context)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, SuggestResponse{Field: string(field), Text: text})
}

// handleApply handles POST /v1/assist/{field}/apply.
func (h *Handler) handleApply(w http.ResponseWriter, r *http.Request) {
	if h.assistant == nil {
		h.handleServiceError(w, r, domain.ErrAssistUnavailable)
		return
	}
	field := domain.Field(r.PathValue("field"))

	var req ApplyRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, CodeBadRequest, "invalid request body", nil)
		return
	}

	if err := h.assistant.Apply(field, req.Text); err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, newDraftResponse(h.wizard.Snapshot()))
}
