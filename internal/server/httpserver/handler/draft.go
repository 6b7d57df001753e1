package handler

import (
	"net/http"
	"strconv"

	"github.com/yndnr/supportform/internal/core/domain"
	"github.com/yndnr/supportform/internal/telemetry/logger"
)

// handleGetDraft handles GET /v1/draft.
func (h *Handler) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, newDraftResponse(h.wizard.Snapshot()))
}

// handlePatchDraft handles PATCH /v1/draft. The body maps field names to
// values and is merged into the form.
func (h *Handler) handlePatchDraft(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := decode(w, r, &body); err != nil {
		h.writeError(w, r, http.StatusBadRequest, CodeBadRequest, "invalid request body", nil)
		return
	}
	if len(body) == 0 {
		h.writeError(w, r, http.StatusBadRequest, CodeBadRequest, "at least one field is required", nil)
		return
	}

	patch := make(domain.Patch, len(body))
	for k, v := range body {
		patch[domain.Field(k)] = v
	}
	if err := h.wizard.UpdateFormData(patch); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	logger.L(r.Context()).Debug("draft patched", "fields", len(patch))
	h.writeJSON(w, r, http.StatusOK, newDraftResponse(h.wizard.Snapshot()))
}

// handleSetStep handles PUT /v1/draft/step. Out-of-range steps are
// clamped.
func (h *Handler) handleSetStep(w http.ResponseWriter, r *http.Request) {
	var req StepRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, CodeBadRequest, "invalid request body", nil)
		return
	}
	h.wizard.SetCurrentStep(req.Step)
	h.writeJSON(w, r, http.StatusOK, newDraftResponse(h.wizard.Snapshot()))
}

// handleNext handles POST /v1/draft/next.
func (h *Handler) handleNext(w http.ResponseWriter, r *http.Request) {
	if _, errs := h.wizard.NextStep(); len(errs) > 0 {
		h.handleServiceError(w, r, errs.Err())
		return
	}
	h.writeJSON(w, r, http.StatusOK, newDraftResponse(h.wizard.Snapshot()))
}

// handlePrevious handles POST /v1/draft/previous.
func (h *Handler) handlePrevious(w http.ResponseWriter, r *http.Request) {
	h.wizard.PreviousStep()
	h.writeJSON(w, r, http.StatusOK, newDraftResponse(h.wizard.Snapshot()))
}

// handleReset handles POST /v1/draft/reset. With ?wait=true the response
// is held until the reset has settled or the request is cancelled.
func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	wait, _ := strconv.ParseBool(r.URL.Query().Get("wait"))
	done := h.wizard.ResetForm()

	if !wait {
		h.writeJSON(w, r, http.StatusAccepted, ResetResponse{Settled: false})
		return
	}

	select {
	case <-done:
		h.writeJSON(w, r, http.StatusOK, ResetResponse{Settled: true})
	case <-r.Context().Done():
		h.writeJSON(w, r, http.StatusAccepted, ResetResponse{Settled: false})
	}
}

// handleSubmit handles POST /v1/draft/submit.
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if h.submitter == nil {
		h.writeError(w, r, http.StatusServiceUnavailable, domain.ErrSubmissionFailed.Code, "submission is not configured", nil)
		return
	}
	result, err := h.submitter.Submit(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, result)
}
