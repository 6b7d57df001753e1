package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/yndnr/supportform/internal/core/domain"
	"github.com/yndnr/supportform/internal/telemetry/metric"
)

// Store operation names, used as the "op" metric label.
const (
	OpGet      = "get"
	OpSet      = "set"
	OpRemove   = "remove"
	OpClearAll = "clear_all"
)

// Store adapts a Backend to string values and isolates its failures.
//
// Get never fails: a backend error reads as absent. Set, Remove and
// ClearAll return domain.ErrStore wrapping the cause. A panicking backend
// is treated as a failed operation.
type Store struct {
	backend Backend
	logger  *slog.Logger
	metrics *metric.Registry
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the logger used to report backend failures.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithMetrics sets the registry counting backend failures.
func WithMetrics(r *metric.Registry) StoreOption {
	return func(s *Store) {
		s.metrics = r
	}
}

// NewStore wraps backend.
func NewStore(backend Backend, opts ...StoreOption) *Store {
	s := &Store{
		backend: backend,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the value under key. ok is false when the key is absent or
// the backend failed.
func (s *Store) Get(ctx context.Context, key string) (value string, ok bool) {
	var raw []byte
	err := s.guard(OpGet, key, func() error {
		var err error
		raw, err = s.backend.Get(ctx, key)
		return err
	})
	if err != nil {
		return "", false
	}
	return string(raw), true
}

// Set stores value under key.
func (s *Store) Set(ctx context.Context, key, value string) error {
	return s.guard(OpSet, key, func() error {
		return s.backend.Set(ctx, key, []byte(value))
	})
}

// Remove deletes key. Removing an absent key succeeds.
func (s *Store) Remove(ctx context.Context, key string) error {
	return s.guard(OpRemove, key, func() error {
		return s.backend.Delete(ctx, key)
	})
}

// ClearAll wipes every key of the backend.
func (s *Store) ClearAll(ctx context.Context) error {
	return s.guard(OpClearAll, "", func() error {
		return s.backend.DropAll(ctx)
	})
}

// Close closes the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

// guard runs fn, converting panics and errors into domain.ErrStore.
// ErrKeyNotFound passes through unlogged so Get can report absence.
func (s *Store) guard(op, key string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("backend panic: %v", r)
		}
		if err == nil {
			return
		}
		if errors.Is(err, ErrKeyNotFound) {
			if op == OpGet {
				return
			}
			err = nil
			return
		}

		s.logger.Warn("store operation failed", "op", op, "key", key, "error", err)
		s.metrics.RecordStoreError(op)
		err = domain.ErrStore.WithDetails(op).WithCause(err)
	}()
	return fn()
}
