package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/yndnr/supportform/internal/core/domain"
	"github.com/yndnr/supportform/internal/infra/clock"
	"github.com/yndnr/supportform/internal/telemetry/metric"
)

// DefaultSubmissionTimeout bounds a single submission attempt.
const DefaultSubmissionTimeout = 30 * time.Second

// Transport delivers a completed application.
type Transport interface {
	Submit(ctx context.Context, form domain.FormData) (domain.SubmissionResult, error)
}

// SubmissionService validates the wizard's form, hands it to a Transport
// and resets the wizard once the application is accepted.
type SubmissionService struct {
	wizard    *Wizard
	transport Transport
	clock     clock.Clock
	timeout   time.Duration
	logger    *slog.Logger
	metrics   *metric.Registry
}

// NewSubmissionService creates a SubmissionService.
func NewSubmissionService(wizard *Wizard, transport Transport, timeout time.Duration, logger *slog.Logger, metrics *metric.Registry) *SubmissionService {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultSubmissionTimeout
	}
	return &SubmissionService{
		wizard:    wizard,
		transport: transport,
		clock:     wizard.clock,
		timeout:   timeout,
		logger:    logger,
		metrics:   metrics,
	}
}

// Submit sends the current application.
//
// Validation failures return domain.ErrValidation wrapping
// domain.ValidationErrors and leave the wizard untouched. Transport
// failures set the wizard's error message and return
// domain.ErrSubmissionFailed or domain.ErrSubmissionTimeout. On success
// the wizard is reset and the result carries an application ID.
func (s *SubmissionService) Submit(ctx context.Context) (domain.SubmissionResult, error) {
	form := s.wizard.Snapshot().FormData.TrimNarrative()

	if errs := domain.ValidateApplication(form, s.clock.Now()); len(errs) > 0 {
		s.metrics.RecordSubmission("invalid")
		return domain.SubmissionResult{Message: "Please correct the highlighted fields."}, errs.Err()
	}

	s.wizard.ClearError()
	s.wizard.SetLoading(true)

	sctx, cancel := context.WithTimeout(ctx, s.timeout)
	result, err := s.transport.Submit(sctx, form)
	cancel()

	s.wizard.SetLoading(false)

	if err == nil && !result.Success {
		err = errors.New(result.Message)
	}
	if err != nil {
		derr := domain.ErrSubmissionFailed
		if errors.Is(err, context.DeadlineExceeded) {
			derr = domain.ErrSubmissionTimeout
		}
		s.wizard.SetError(derr.Message)
		s.metrics.RecordSubmission("failure")
		s.logger.Warn("submission failed", "error", err)

		result.Success = false
		if result.Message == "" {
			result.Message = derr.Message
		}
		return result, derr.WithCause(err)
	}

	if result.ApplicationID == "" {
		id, idErr := domain.NewApplicationID(s.clock.Now())
		if idErr != nil {
			s.logger.Error("generate application id failed", "error", idErr)
		}
		result.ApplicationID = id
	}

	s.metrics.RecordSubmission("success")
	s.logger.Info("application submitted", "application_id", result.ApplicationID)
	s.wizard.ResetForm()
	return result, nil
}
