package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/yndnr/supportform/internal/core/domain"
	"github.com/yndnr/supportform/internal/core/service"
	"github.com/yndnr/supportform/internal/telemetry/logger"
)

// maxBodyBytes bounds request bodies; the largest legitimate body is a
// patch of every field.
const maxBodyBytes = 64 << 10

// Deps are the services behind the API.
type Deps struct {
	Wizard     *service.Wizard
	Submission *service.SubmissionService
	Assist     *service.AssistService
	Logger     *slog.Logger
}

// Handler routes API requests to the wizard services.
type Handler struct {
	wizard    *service.Wizard
	submitter *service.SubmissionService
	assistant *service.AssistService
	logger    *slog.Logger
	mux       *http.ServeMux
}

// New creates a Handler.
func New(deps Deps) *Handler {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	h := &Handler{
		wizard:    deps.Wizard,
		submitter: deps.Submission,
		assistant: deps.Assist,
		logger:    deps.Logger,
		mux:       http.NewServeMux(),
	}
	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// Route returns the pattern that serves r, or "unmatched".
func (h *Handler) Route(r *http.Request) string {
	if _, pattern := h.mux.Handler(r); pattern != "" {
		return pattern
	}
	return "unmatched"
}

func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("GET /health", h.handleHealth)

	h.mux.HandleFunc("GET /v1/draft", h.handleGetDraft)
	h.mux.HandleFunc("PATCH /v1/draft", h.handlePatchDraft)
	h.mux.HandleFunc("PUT /v1/draft/step", h.handleSetStep)
	h.mux.HandleFunc("POST /v1/draft/next", h.handleNext)
	h.mux.HandleFunc("POST /v1/draft/previous", h.handlePrevious)
	h.mux.HandleFunc("POST /v1/draft/reset", h.handleReset)
	h.mux.HandleFunc("POST /v1/draft/submit", h.handleSubmit)

	h.mux.HandleFunc("POST /v1/assist/{field}", h.handleSuggest)
	h.mux.HandleFunc("POST /v1/assist/{field}/apply", h.handleApply)
}

// Routes lists the patterns served by the handler.
func Routes() []string {
	return []string{
		"GET /health",
		"GET /v1/draft",
		"PATCH /v1/draft",
		"PUT /v1/draft/step",
		"POST /v1/draft/next",
		"POST /v1/draft/previous",
		"POST /v1/draft/reset",
		"POST /v1/draft/submit",
		"POST /v1/assist/{field}",
		"POST /v1/assist/{field}/apply",
	}
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// writeJSON writes a JSON response with standard envelope format.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	requestID := getRequestID(r)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Request-ID", requestID)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(NewResponse(requestID, data)); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// writeError writes an error response with standard envelope format.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, details any) {
	requestID := getRequestID(r)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", code)
	w.Header().Set("X-Request-ID", requestID)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(NewErrorResponse(requestID, code, message, details))
}

// handleServiceError converts service errors to HTTP responses.
func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var derr *domain.DomainError
	if errors.As(err, &derr) {
		var details any
		var fields domain.ValidationErrors
		if errors.As(err, &fields) {
			details = fields
		}
		h.writeError(w, r, errorCodeToHTTPStatus(derr.Code), derr.Code, derr.Message, details)
		return
	}

	logger.L(r.Context()).Error("internal error", "error", err)
	h.writeError(w, r, http.StatusInternalServerError, CodeInternal, "internal server error", nil)
}

// errorCodeToHTTPStatus maps error codes to HTTP status codes.
func errorCodeToHTTPStatus(code string) int {
	switch {
	case strings.HasSuffix(code, "-4000"):
		return http.StatusBadRequest
	case strings.HasSuffix(code, "-4220"):
		return http.StatusUnprocessableEntity
	case strings.HasSuffix(code, "-4290"):
		return http.StatusTooManyRequests
	case strings.HasSuffix(code, "-5020"):
		return http.StatusBadGateway
	case strings.HasSuffix(code, "-5030"):
		return http.StatusServiceUnavailable
	case strings.HasSuffix(code, "-5040"):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// getRequestID extracts the request ID from the context or header.
func getRequestID(r *http.Request) string {
	if id := logger.RequestIDFromContext(r.Context()); id != "" {
		return id
	}
	return r.Header.Get("X-Request-ID")
}
