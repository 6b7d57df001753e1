package service

import (
	"context"
	"log/slog"

	"github.com/yndnr/supportform/internal/core/domain"
)

// InitialStateLoader reads the persisted draft once at startup.
type InitialStateLoader struct {
	store  DraftStore
	key    string
	logger *slog.Logger
}

// NewInitialStateLoader creates a loader reading key from store.
func NewInitialStateLoader(store DraftStore, key string, logger *slog.Logger) *InitialStateLoader {
	if logger == nil {
		logger = slog.Default()
	}
	if key == "" {
		key = domain.StorageKey
	}
	return &InitialStateLoader{store: store, key: key, logger: logger}
}

// Load returns the persisted step and form. A missing draft yields the
// first step and the empty form. A draft that cannot be decoded is
// removed and treated as missing.
func (l *InitialStateLoader) Load(ctx context.Context) (int, domain.FormData) {
	raw, ok := l.store.Get(ctx, l.key)
	if !ok {
		return domain.MinStep, domain.Empty()
	}

	env, dropped, err := domain.DecodeEnvelope(raw)
	if err != nil {
		l.logger.Warn("discarding unreadable draft", "error", err)
		if rerr := l.store.Remove(ctx, l.key); rerr != nil {
			l.logger.Warn("remove unreadable draft failed", "error", rerr)
		}
		return domain.MinStep, domain.Empty()
	}

	if len(dropped) > 0 {
		l.logger.Warn("draft fields with unexpected types were reset", "fields", dropped)
	}
	l.logger.Debug("draft restored",
		"step", env.CurrentStep,
		"saved_at", env.Timestamp,
		"completion", env.FormData.Completion())

	return env.CurrentStep, env.FormData
}
