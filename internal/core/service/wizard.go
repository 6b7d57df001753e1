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

// Wizard timing defaults.
const (
	DefaultVerifyDelay = 200 * time.Millisecond
	DefaultSettleDelay = 500 * time.Millisecond
)

// State is a copy of the wizard state.
type State struct {
	CurrentStep int             `json:"currentStep" yaml:"currentStep"`
	FormData    domain.FormData `json:"formData" yaml:"formData"`
	IsLoading   bool            `json:"isLoading" yaml:"isLoading"`
	Error       string          `json:"error,omitempty" yaml:"error,omitempty"`
	IsResetting bool            `json:"isResetting" yaml:"isResetting"`
}

// WizardDeps are the collaborators of a Wizard.
type WizardDeps struct {
	Store   DraftStore
	Clock   clock.Clock      // defaults to clock.Real()
	Gate    *ResetGate       // defaults to a new gate
	Logger  *slog.Logger     // defaults to slog.Default()
	Metrics *metric.Registry // optional
}

// WizardConfig tunes a Wizard.
type WizardConfig struct {
	Key         string
	Debounce    time.Duration
	VerifyDelay time.Duration
	SettleDelay time.Duration
	Reset       ResetConfig
}

// DefaultWizardConfig returns the default timings.
func DefaultWizardConfig() WizardConfig {
	return WizardConfig{
		Key:         domain.StorageKey,
		Debounce:    DefaultDebounce,
		VerifyDelay: DefaultVerifyDelay,
		SettleDelay: DefaultSettleDelay,
		Reset:       DefaultResetConfig(),
	}
}

// Wizard is the form state machine of one applicant session. It restores
// the persisted draft on construction, persists every change through a
// debounced scheduler and clears the store on reset.
type Wizard struct {
	store       DraftStore
	clock       clock.Clock
	gate        *ResetGate
	cfg         WizardConfig
	logger      *slog.Logger
	metrics     *metric.Registry
	scheduler   *PersistenceScheduler
	coordinator *ResetCoordinator

	// ctx carries values for background store calls; it is never cancelled.
	ctx context.Context

	mu          sync.Mutex
	state       State
	resetDone   chan struct{}
	verifyTimer clock.Timer
	settleTimer clock.Timer
	closed      bool
}

// NewWizard builds a wizard and hydrates it from the store.
func NewWizard(ctx context.Context, deps WizardDeps, cfg WizardConfig) *Wizard {
	if deps.Clock == nil {
		deps.Clock = clock.Real()
	}
	if deps.Gate == nil {
		deps.Gate = NewResetGate()
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if cfg.Key == "" {
		cfg.Key = domain.StorageKey
	}
	if cfg.VerifyDelay <= 0 {
		cfg.VerifyDelay = DefaultVerifyDelay
	}
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = DefaultSettleDelay
	}
	cfg.Reset.Key = cfg.Key

	w := &Wizard{
		store:   deps.Store,
		clock:   deps.Clock,
		gate:    deps.Gate,
		cfg:     cfg,
		logger:  deps.Logger,
		metrics: deps.Metrics,
		ctx:     context.WithoutCancel(ctx),
	}
	w.scheduler = NewPersistenceScheduler(deps.Store, deps.Gate, deps.Clock, cfg.Key, cfg.Debounce, deps.Logger, deps.Metrics)
	w.coordinator = NewResetCoordinator(deps.Store, deps.Gate, deps.Clock, cfg.Reset, deps.Logger, deps.Metrics)

	step, form := NewInitialStateLoader(deps.Store, cfg.Key, deps.Logger).Load(ctx)
	w.state = State{CurrentStep: step, FormData: form}
	w.metrics.SetDraftCompletion(form.Completion())
	return w
}

// Snapshot returns a copy of the current state.
func (w *Wizard) Snapshot() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// SetCurrentStep moves to step n, clamped into range, and schedules a
// write.
func (w *Wizard) SetCurrentStep(n int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state.CurrentStep = domain.ClampStep(n)
	w.persistLocked()
}

// NextStep validates the fields of the current step and advances when
// they pass. On failure the step is unchanged and the field errors are
// returned.
func (w *Wizard) NextStep() (int, domain.ValidationErrors) {
	now := w.clock.Now()

	w.mu.Lock()
	defer w.mu.Unlock()
	if errs := domain.ValidateStep(w.state.CurrentStep, w.state.FormData, now); len(errs) > 0 {
		return w.state.CurrentStep, errs
	}
	if w.state.CurrentStep < domain.MaxStep {
		w.state.CurrentStep++
		w.persistLocked()
	}
	return w.state.CurrentStep, nil
}

// PreviousStep moves back one step without validating.
func (w *Wizard) PreviousStep() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state.CurrentStep > domain.MinStep {
		w.state.CurrentStep--
		w.persistLocked()
	}
	return w.state.CurrentStep
}

// UpdateFormData merges p into the form and schedules a write. An invalid
// patch leaves the form unchanged.
func (w *Wizard) UpdateFormData(p domain.Patch) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.state.FormData.Apply(p); err != nil {
		return err
	}
	w.metrics.SetDraftCompletion(w.state.FormData.Completion())
	w.persistLocked()
	return nil
}

// SetLoading sets the loading flag.
func (w *Wizard) SetLoading(loading bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state.IsLoading = loading
}

// SetError sets the user-facing error message.
func (w *Wizard) SetError(msg string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state.Error = msg
}

// ClearError clears the user-facing error message.
func (w *Wizard) ClearError() {
	w.SetError("")
}

// Completion returns the percentage of answered fields.
func (w *Wizard) Completion() int {
	return w.Snapshot().FormData.Completion()
}

// HasData reports whether any field has been answered.
func (w *Wizard) HasData() bool {
	return w.Snapshot().FormData.HasData()
}

// persistLocked hands the current form and step to the scheduler.
// Caller must hold w.mu.
func (w *Wizard) persistLocked() {
	if w.closed {
		return
	}
	outcome := w.scheduler.Schedule(w.state.FormData, w.state.CurrentStep, w.state.IsResetting)
	w.logger.Debug("draft change", "step", w.state.CurrentStep, "persist", outcome.String())
}

// ResetForm clears the persisted draft and returns the wizard to the
// first step with an empty form. The returned channel is closed once the
// state has been restored. Calling ResetForm again before that returns
// the same channel.
func (w *Wizard) ResetForm() <-chan struct{} {
	w.mu.Lock()
	if w.resetDone != nil {
		done := w.resetDone
		w.mu.Unlock()
		return done
	}
	done := make(chan struct{})
	if w.closed {
		close(done)
		w.mu.Unlock()
		return done
	}
	w.resetDone = done
	w.state.IsResetting = true
	w.scheduler.CancelPending()
	w.scheduler.Forget()
	w.mu.Unlock()

	w.logger.Info("resetting draft")
	w.gate.Set(true)
	res := w.coordinator.Clear(w.ctx)
	w.scheduler.Forget()
	w.logger.Debug("draft cleared", "verified", res.Verified, "attempts", res.Attempts, "escalated", res.Escalated)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return done
	}
	w.verifyTimer = w.clock.AfterFunc(w.cfg.VerifyDelay, w.verifyReset)
	w.settleTimer = w.clock.AfterFunc(w.cfg.SettleDelay, w.settleReset)
	return done
}

// verifyReset escalates to a full wipe if the draft survived Clear.
func (w *Wizard) verifyReset() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.verifyTimer = nil
	w.mu.Unlock()

	if _, ok := w.store.Get(w.ctx, w.cfg.Key); ok {
		w.logger.Warn("draft survived reset, wiping store")
		w.coordinator.NuclearClear(w.ctx)
	}
}

// settleReset restores the initial state and completes the reset.
func (w *Wizard) settleReset() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	done := w.resetDone
	w.resetDone = nil
	w.settleTimer = nil
	w.state = State{CurrentStep: domain.MinStep, FormData: domain.Empty()}
	w.mu.Unlock()

	w.metrics.SetDraftCompletion(0)
	w.logger.Info("draft reset complete")
	if done != nil {
		close(done)
	}
}

// Flush writes any pending change immediately.
func (w *Wizard) Flush(ctx context.Context) error {
	return w.scheduler.Flush(ctx)
}

// Close cancels pending writes and reset timers and releases the gate.
// A reset in flight is abandoned and its channel closed.
func (w *Wizard) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	if w.verifyTimer != nil {
		w.verifyTimer.Stop()
	}
	if w.settleTimer != nil {
		w.settleTimer.Stop()
	}
	done := w.resetDone
	w.resetDone = nil
	w.mu.Unlock()

	w.scheduler.Close()
	w.coordinator.Close()
	if done != nil {
		close(done)
	}
}
