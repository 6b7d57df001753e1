package handler

import (
	"time"

	"github.com/yndnr/supportform/internal/core/domain"
	"github.com/yndnr/supportform/internal/core/service"
)

// Codes used for failures that are not domain errors.
const (
	CodeOK          = "OK"
	CodeBadRequest  = "SF-HTTP-4000"
	CodeRateLimited = "SF-HTTP-4290"
	CodeInternal    = "SF-HTTP-5000"
)

// Response is the standard API response envelope.
// All JSON responses use this format (except /metrics which uses Prometheus format).
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
	Details   any    `json:"details,omitempty"`
}

// NewResponse creates a success response.
func NewResponse(requestID string, data any) *Response {
	return &Response{
		Code:      CodeOK,
		Message:   "Success",
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(requestID, code, message string, details any) *Response {
	return &Response{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Details:   details,
	}
}

// DraftResponse is the body of every draft endpoint.
type DraftResponse struct {
	service.State
	StepName   string `json:"stepName"`
	Completion int    `json:"completion"`
}

func newDraftResponse(s service.State) DraftResponse {
	return DraftResponse{
		State:      s,
		StepName:   domain.StepName(s.CurrentStep),
		Completion: s.FormData.Completion(),
	}
}

// StepRequest is the body of PUT /v1/draft/step.
type StepRequest struct {
	Step int `json:"step"`
}

// SuggestRequest is the body of POST /v1/assist/{field}.
type SuggestRequest struct {
	Context string `json:"context"`
}

// SuggestResponse carries generated text for a field.
type SuggestResponse struct {
	Field string `json:"field"`
	Text  string `json:"text"`
}

// ApplyRequest is the body of POST /v1/assist/{field}/apply.
type ApplyRequest struct {
	Text string `json:"text"`
}

// ResetResponse reports whether the reset had settled when the response
// was written.
type ResetResponse struct {
	Settled bool `json:"settled"`
}
