package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/yndnr/supportform/internal/core/domain"
	"github.com/yndnr/supportform/internal/infra/clock"
	"github.com/yndnr/supportform/internal/storage"
	"github.com/yndnr/supportform/internal/storage/memory"
	"github.com/yndnr/supportform/internal/telemetry/metric"
)

var testStart = time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// harness wires the core components against an in-memory backend and a
// fake clock.
type harness struct {
	clock   *clock.Fake
	backend *memory.Store
	store   *storage.Store
	gate    *ResetGate
	metrics *metric.Registry
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	backend := memory.New()
	return &harness{
		clock:   clock.NewFake(testStart),
		backend: backend,
		store:   storage.NewStore(backend, storage.WithLogger(discardLogger())),
		gate:    NewResetGate(),
		metrics: metric.NewRegistry(),
	}
}

func (h *harness) deps() WizardDeps {
	return WizardDeps{
		Store:   h.store,
		Clock:   h.clock,
		Gate:    h.gate,
		Logger:  discardLogger(),
		Metrics: h.metrics,
	}
}

func (h *harness) wizard(t *testing.T) *Wizard {
	t.Helper()
	w := NewWizard(context.Background(), h.deps(), DefaultWizardConfig())
	t.Cleanup(w.Close)
	return w
}

// persisted decodes the envelope currently stored under the draft key.
func (h *harness) persisted(t *testing.T) (domain.Envelope, bool) {
	t.Helper()
	raw, ok := h.store.Get(context.Background(), domain.StorageKey)
	if !ok {
		return domain.Envelope{}, false
	}
	env, _, err := domain.DecodeEnvelope(raw)
	if err != nil {
		t.Fatalf("stored draft is not a valid envelope: %v", err)
	}
	return env, true
}

func (h *harness) seed(t *testing.T, raw string) {
	t.Helper()
	if err := h.store.Set(context.Background(), domain.StorageKey, raw); err != nil {
		t.Fatal(err)
	}
}

func isClosed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

// blockingStore holds the first Set until release is closed, signalling
// entered once the write is in progress.
type blockingStore struct {
	DraftStore
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newBlockingStore(inner DraftStore) *blockingStore {
	return &blockingStore{
		DraftStore: inner,
		entered:    make(chan struct{}),
		release:    make(chan struct{}),
	}
}

func (b *blockingStore) Set(ctx context.Context, key, value string) error {
	b.once.Do(func() {
		close(b.entered)
		<-b.release
	})
	return b.DraftStore.Set(ctx, key, value)
}
