package submission

import (
	"context"
	"log/slog"
	"time"

	"github.com/yndnr/supportform/internal/core/domain"
)

// Loopback accepts every application locally and returns a receipt.
type Loopback struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewLoopback creates a Loopback transport.
func NewLoopback(logger *slog.Logger) *Loopback {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loopback{logger: logger, now: time.Now}
}

// Submit issues a new application ID without contacting any service.
func (l *Loopback) Submit(ctx context.Context, form domain.FormData) (domain.SubmissionResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.SubmissionResult{}, err
	}
	id, err := domain.NewApplicationID(l.now())
	if err != nil {
		return domain.SubmissionResult{}, err
	}
	l.logger.Info("application accepted offline", "application_id", id)
	return domain.SubmissionResult{
		Success:       true,
		Message:       "Application submitted successfully!",
		ApplicationID: id,
	}, nil
}
