package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/yndnr/supportform/internal/core/domain"
	"github.com/yndnr/supportform/internal/infra/clock"
	"github.com/yndnr/supportform/internal/telemetry/metric"
)

// DefaultDebounce is the quiet period before a draft is written.
const DefaultDebounce = 300 * time.Millisecond

// ScheduleOutcome reports what Schedule did with a snapshot.
type ScheduleOutcome int

const (
	// Scheduled means a write is armed.
	Scheduled ScheduleOutcome = iota
	// SkippedResetting means a reset is in progress.
	SkippedResetting
	// SkippedEmpty means the snapshot is the blank form at step 1.
	SkippedEmpty
	// SkippedUnchanged means the snapshot matches the last write.
	SkippedUnchanged
	// SkippedClosed means the scheduler was closed.
	SkippedClosed
	// SkippedEncodeError means the snapshot could not be encoded.
	SkippedEncodeError
)

// String returns the metric label for the outcome.
func (o ScheduleOutcome) String() string {
	switch o {
	case Scheduled:
		return "scheduled"
	case SkippedResetting:
		return "resetting"
	case SkippedEmpty:
		return "empty"
	case SkippedUnchanged:
		return "unchanged"
	case SkippedClosed:
		return "closed"
	case SkippedEncodeError:
		return "error"
	default:
		return "unknown"
	}
}

// PersistenceScheduler debounces draft writes. Only the last snapshot of
// a burst is written, and nothing is written while the reset gate is set.
type PersistenceScheduler struct {
	store    DraftStore
	gate     *ResetGate
	clock    clock.Clock
	key      string
	debounce time.Duration
	logger   *slog.Logger
	metrics  *metric.Registry

	mu          sync.Mutex
	timer       clock.Timer
	pending     *pendingWrite
	lastWritten string
	closed      bool

	// epoch advances on Forget; a write armed in an earlier epoch does
	// not record its fingerprint.
	epoch uint64
}

type pendingWrite struct {
	epoch       uint64
	payload     string
	fingerprint string
}

// NewPersistenceScheduler creates a scheduler writing under key.
func NewPersistenceScheduler(store DraftStore, gate *ResetGate, clk clock.Clock, key string, debounce time.Duration, logger *slog.Logger, metrics *metric.Registry) *PersistenceScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if key == "" {
		key = domain.StorageKey
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &PersistenceScheduler{
		store:    store,
		gate:     gate,
		clock:    clk,
		key:      key,
		debounce: debounce,
		logger:   logger,
		metrics:  metrics,
	}
}

// Schedule arms a debounced write of form at step, replacing any pending
// write. localResetting is the wizard's own resetting flag; the shared
// gate is consulted as well.
func (s *PersistenceScheduler) Schedule(form domain.FormData, step int, localResetting bool) ScheduleOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	outcome := s.scheduleLocked(form, step, localResetting)
	if outcome != Scheduled {
		s.metrics.RecordPersistSkipped(outcome.String())
	}
	return outcome
}

func (s *PersistenceScheduler) scheduleLocked(form domain.FormData, step int, localResetting bool) ScheduleOutcome {
	if s.closed {
		return SkippedClosed
	}

	s.cancelLocked()

	if localResetting || s.gate.Resetting() {
		return SkippedResetting
	}

	step = domain.ClampStep(step)
	if step == domain.MinStep && form.IsBlank() {
		return SkippedEmpty
	}

	fp := domain.Fingerprint(form, step)
	if fp == s.lastWritten {
		return SkippedUnchanged
	}

	payload, err := domain.NewEnvelope(form, step, s.clock.Now()).Encode()
	if err != nil {
		s.logger.Error("encode draft failed", "error", err)
		return SkippedEncodeError
	}

	w := &pendingWrite{epoch: s.epoch, payload: payload, fingerprint: fp}
	s.pending = w
	s.timer = s.clock.AfterFunc(s.debounce, func() {
		s.fire(w)
	})
	return Scheduled
}

// fire writes w if it is still the pending write.
func (s *PersistenceScheduler) fire(w *pendingWrite) {
	s.mu.Lock()
	if s.closed || s.pending != w {
		s.mu.Unlock()
		return
	}
	s.pending = nil
	s.timer = nil
	s.mu.Unlock()

	_ = s.write(context.Background(), w)
}

// write stores w unless the gate is set. It returns the store error, if any.
func (s *PersistenceScheduler) write(ctx context.Context, w *pendingWrite) error {
	var err error
	admitted := s.gate.Do(func() {
		err = s.store.Set(ctx, s.key, w.payload)
	})
	if !admitted {
		s.metrics.RecordPersistSkipped("resetting")
		s.logger.Debug("draft write dropped, reset in progress")
		return nil
	}
	if err != nil {
		s.logger.Warn("draft write failed", "error", err)
		return err
	}

	s.mu.Lock()
	if w.epoch == s.epoch {
		s.lastWritten = w.fingerprint
	}
	s.mu.Unlock()
	s.metrics.IncPersistWrite()
	return nil
}

// CancelPending drops the pending write, if any.
func (s *PersistenceScheduler) CancelPending() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
}

func (s *PersistenceScheduler) cancelLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.pending = nil
}

// Forget discards the memory of the last write so the next snapshot is
// written even if it matches. Used after the store has been cleared.
// A write already in flight does not restore the memory when it lands.
func (s *PersistenceScheduler) Forget() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastWritten = ""
	s.epoch++
}

// Pending reports whether a write is armed.
func (s *PersistenceScheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}

// Flush writes the pending snapshot now instead of waiting for the
// debounce. The gate still applies.
func (s *PersistenceScheduler) Flush(ctx context.Context) error {
	s.mu.Lock()
	w := s.pending
	if w == nil || s.closed {
		s.mu.Unlock()
		return nil
	}
	s.cancelLocked()
	s.mu.Unlock()

	return s.write(ctx, w)
}

// Close drops the pending write without writing it. Later calls to
// Schedule are ignored.
func (s *PersistenceScheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.cancelLocked()
}
