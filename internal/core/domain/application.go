package domain

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// ApplicationIDPrefix prefixes identifiers assigned to submitted applications.
const ApplicationIDPrefix = "APP-"

// SubmissionResult is the outcome reported back to the applicant.
type SubmissionResult struct {
	Success       bool   `json:"success" yaml:"success"`
	Message       string `json:"message,omitempty" yaml:"message,omitempty"`
	ApplicationID string `json:"applicationId,omitempty" yaml:"applicationId,omitempty"`
}

// NewApplicationID generates a time-ordered application identifier.
func NewApplicationID(at time.Time) (string, error) {
	id, err := ulid.New(ulid.Timestamp(at), ulid.Monotonic(rand.Reader, 0))
	if err != nil {
		return "", err
	}
	return ApplicationIDPrefix + id.String(), nil
}
