// Package domain defines the core domain models for the application wizard.
package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business domain error with a structured error code.
type DomainError struct {
	Code    string // Error code (e.g., "SF-STOR-5000")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is matches another DomainError by code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// Storage errors. These never leave the storage adapter as panics and are
// never copied into the wizard's user-facing error field.
var (
	// ErrStore indicates a read, write or remove against the durable store failed.
	ErrStore = NewDomainError("SF-STOR-5000", "durable store failure")

	// ErrCorruptEnvelope indicates the persisted draft could not be decoded.
	ErrCorruptEnvelope = NewDomainError("SF-STOR-4220", "corrupted draft envelope")
)

// Form errors.
var (
	// ErrInvalidPatch indicates a partial update names an unknown field or
	// carries a value of the wrong type.
	ErrInvalidPatch = NewDomainError("SF-FORM-4000", "invalid form update")

	// ErrValidation indicates one or more fields failed validation.
	ErrValidation = NewDomainError("SF-FORM-4220", "form validation failed")
)

// Submission errors.
var (
	// ErrSubmissionFailed indicates the transport rejected or failed the submission.
	ErrSubmissionFailed = NewDomainError("SF-SUBM-5020", "failed to submit application")

	// ErrSubmissionTimeout indicates the transport did not answer in time.
	ErrSubmissionTimeout = NewDomainError("SF-SUBM-5040", "submission timed out")
)

// Assistance errors. Messages are safe to display to the applicant.
var (
	// ErrAssistUnavailable indicates no generation backend is configured.
	ErrAssistUnavailable = NewDomainError("SF-ASST-5030", "writing assistance is not configured")

	// ErrAssistFailed indicates the generation backend failed after retries.
	ErrAssistFailed = NewDomainError("SF-ASST-5020", "failed to generate suggestion")

	// ErrAssistField indicates the field does not accept generated text.
	ErrAssistField = NewDomainError("SF-ASST-4000", "field does not support writing assistance")

	// ErrAssistRateLimited indicates suggestions are requested too quickly.
	ErrAssistRateLimited = NewDomainError("SF-ASST-4290", "too many suggestion requests, please wait")
)
