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

// Reset timing defaults.
const (
	DefaultMaxVerifyAttempts   = 5
	DefaultQuiescenceDelay     = time.Second
	DefaultNuclearVerifyDelay  = 100 * time.Millisecond
	DefaultNuclearReleaseDelay = 2 * time.Second
)

// ResetConfig tunes a ResetCoordinator.
type ResetConfig struct {
	// Key is the draft key to clear.
	Key string

	// MaxVerifyAttempts bounds the read-then-remove loop of Clear.
	MaxVerifyAttempts int

	// QuiescenceDelay is how long the gate stays set after Clear.
	QuiescenceDelay time.Duration

	// NuclearVerifyDelay is the wait before NuclearClear re-checks the key.
	NuclearVerifyDelay time.Duration

	// NuclearReleaseDelay is how long the gate stays set after NuclearClear.
	NuclearReleaseDelay time.Duration
}

// DefaultResetConfig returns the default reset timings.
func DefaultResetConfig() ResetConfig {
	return ResetConfig{
		Key:                 domain.StorageKey,
		MaxVerifyAttempts:   DefaultMaxVerifyAttempts,
		QuiescenceDelay:     DefaultQuiescenceDelay,
		NuclearVerifyDelay:  DefaultNuclearVerifyDelay,
		NuclearReleaseDelay: DefaultNuclearReleaseDelay,
	}
}

// ClearResult reports how a clear went.
type ClearResult struct {
	// Verified is true when the key was confirmed absent.
	Verified bool

	// Attempts is the number of verification reads performed.
	Attempts int

	// Escalated is true when the whole store had to be wiped.
	Escalated bool
}

// ResetCoordinator removes the persisted draft and holds the reset gate
// until in-flight writes have had time to drain.
//
// Store failures are logged and never returned; the next escalation step
// is always attempted.
type ResetCoordinator struct {
	store   DraftStore
	gate    *ResetGate
	clock   clock.Clock
	cfg     ResetConfig
	logger  *slog.Logger
	metrics *metric.Registry

	mu        sync.Mutex
	release   clock.Timer
	releaseAt time.Time
	nuclear   map[*nuclearCheck]struct{}
	closed    bool
}

type nuclearCheck struct {
	timer clock.Timer
	done  chan ClearResult
}

// NewResetCoordinator creates a coordinator driving gate.
func NewResetCoordinator(store DraftStore, gate *ResetGate, clk clock.Clock, cfg ResetConfig, logger *slog.Logger, metrics *metric.Registry) *ResetCoordinator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Key == "" {
		cfg.Key = domain.StorageKey
	}
	if cfg.MaxVerifyAttempts <= 0 {
		cfg.MaxVerifyAttempts = DefaultMaxVerifyAttempts
	}
	return &ResetCoordinator{
		store:   store,
		gate:    gate,
		clock:   clk,
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		nuclear: make(map[*nuclearCheck]struct{}),
	}
}

// Gate returns the gate this coordinator drives.
func (c *ResetCoordinator) Gate() *ResetGate {
	return c.gate
}

// Clear removes the draft key, wiping the whole store if a targeted
// remove does not take, then re-verifies up to MaxVerifyAttempts times.
// The gate is set for the duration and released QuiescenceDelay later.
func (c *ResetCoordinator) Clear(ctx context.Context) ClearResult {
	if c.isClosed() {
		return ClearResult{}
	}

	c.gate.Set(true)
	c.metrics.RecordReset("clear")

	var res ClearResult
	if err := c.store.Remove(ctx, c.cfg.Key); err != nil {
		c.logger.Warn("remove draft failed", "error", err)
	}
	if _, ok := c.store.Get(ctx, c.cfg.Key); ok {
		res.Escalated = true
		c.logger.Warn("draft still present after remove, wiping store")
		if err := c.store.ClearAll(ctx); err != nil {
			c.logger.Warn("wipe store failed", "error", err)
		}
	}

	for res.Attempts < c.cfg.MaxVerifyAttempts {
		res.Attempts++
		if _, ok := c.store.Get(ctx, c.cfg.Key); !ok {
			res.Verified = true
			break
		}
		if err := c.store.Remove(ctx, c.cfg.Key); err != nil {
			c.logger.Warn("remove draft failed", "attempt", res.Attempts, "error", err)
		}
	}

	if !res.Verified {
		c.metrics.IncResetUnverified()
		c.logger.Error("draft could not be cleared", "attempts", res.Attempts)
	}

	c.scheduleRelease(c.cfg.QuiescenceDelay)
	return res
}

// NuclearClear wipes the whole store and re-checks the key after
// NuclearVerifyDelay, wiping again if data persists. The result is
// delivered on the returned channel, which is then closed. The gate is
// released NuclearReleaseDelay after the call.
func (c *ResetCoordinator) NuclearClear(ctx context.Context) <-chan ClearResult {
	done := make(chan ClearResult, 1)
	if c.isClosed() {
		done <- ClearResult{}
		close(done)
		return done
	}

	c.gate.Set(true)
	c.metrics.RecordReset("nuclear")

	if err := c.store.ClearAll(ctx); err != nil {
		c.logger.Warn("wipe store failed", "error", err)
	}

	bg := context.WithoutCancel(ctx)
	check := &nuclearCheck{done: done}

	c.mu.Lock()
	c.nuclear[check] = struct{}{}
	check.timer = c.clock.AfterFunc(c.cfg.NuclearVerifyDelay, func() {
		c.verifyNuclear(bg, check)
	})
	c.mu.Unlock()

	c.scheduleRelease(c.cfg.NuclearReleaseDelay)
	return done
}

func (c *ResetCoordinator) verifyNuclear(ctx context.Context, check *nuclearCheck) {
	c.mu.Lock()
	if _, ok := c.nuclear[check]; !ok {
		c.mu.Unlock()
		return
	}
	delete(c.nuclear, check)
	c.mu.Unlock()

	res := ClearResult{Escalated: true, Attempts: 1}
	if _, ok := c.store.Get(ctx, c.cfg.Key); ok {
		c.logger.Error("draft still present after wiping store, wiping again")
		if err := c.store.ClearAll(ctx); err != nil {
			c.logger.Warn("wipe store failed", "error", err)
		}
		res.Attempts++
		_, ok = c.store.Get(ctx, c.cfg.Key)
		res.Verified = !ok
	} else {
		res.Verified = true
	}

	if !res.Verified {
		c.metrics.IncResetUnverified()
	}
	check.done <- res
	close(check.done)
}

// scheduleRelease arms the gate release d from now unless a later
// release is already pending.
func (c *ResetCoordinator) scheduleRelease(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	at := c.clock.Now().Add(d)
	if c.release != nil && !c.releaseAt.Before(at) {
		return
	}
	if c.release != nil {
		c.release.Stop()
	}

	var t clock.Timer
	t = c.clock.AfterFunc(d, func() {
		c.mu.Lock()
		current := c.release == t
		if current {
			c.release = nil
		}
		c.mu.Unlock()

		if current {
			c.gate.Set(false)
			c.logger.Debug("reset gate released")
		}
	})
	c.release = t
	c.releaseAt = at
}

// Close stops pending timers and releases the gate. Pending NuclearClear
// results are delivered as unverified.
func (c *ResetCoordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.release != nil {
		c.release.Stop()
		c.release = nil
	}
	pending := c.nuclear
	c.nuclear = make(map[*nuclearCheck]struct{})
	c.mu.Unlock()

	for check := range pending {
		check.timer.Stop()
		check.done <- ClearResult{Escalated: true}
		close(check.done)
	}
	c.gate.Set(false)
}

func (c *ResetCoordinator) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
