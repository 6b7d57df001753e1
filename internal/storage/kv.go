package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"
)

// Common errors
var (
	ErrKeyNotFound = errors.New("key not found")
	ErrClosed      = errors.New("backend closed")
)

// Backend is an embedded key-value store.
//
// Implementations must be safe for concurrent use. Set replaces any
// previous value atomically. Deleting an absent key is not an error.
type Backend interface {
	// Get returns the value stored under key, or ErrKeyNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key.
	Delete(ctx context.Context, key string) error

	// DropAll removes every key.
	DropAll(ctx context.Context) error

	// Close releases the backend.
	Close() error
}

// Backend kinds. KindMemory is not opened here; callers construct a
// memory.Store directly.
const (
	KindBadger = "badger"
	KindSQLite = "sqlite"
	KindMemory = "memory"
)

// Config selects and tunes a backend.
type Config struct {
	// Kind is one of KindBadger, KindSQLite or KindMemory.
	// Default: "badger"
	Kind string

	// Dir is the data directory for file-backed kinds.
	Dir string

	// Badger-specific configuration
	Badger BadgerConfig
}

// BadgerConfig contains Badger-specific tuning parameters.
type BadgerConfig struct {
	// GCInterval is the interval between automatic value-log GC runs.
	// Default: 10m
	GCInterval time.Duration

	// GCThreshold is the GC discard ratio threshold (0.0-1.0).
	// Default: 0.5
	GCThreshold float64

	// CacheSize is the block cache size in bytes.
	// Default: 8MB
	CacheSize int64

	// ValueLogFileSize is the max value log file size in bytes.
	// Default: 64MB
	ValueLogFileSize int64

	// SyncWrites enables fsync after each write.
	// Default: true (a draft write is rare and must survive a crash)
	SyncWrites bool
}

// DefaultConfig returns the default storage configuration.
func DefaultConfig(dir string) Config {
	return Config{
		Kind:   KindBadger,
		Dir:    dir,
		Badger: DefaultBadgerConfig(),
	}
}

// DefaultBadgerConfig returns the default Badger configuration.
func DefaultBadgerConfig() BadgerConfig {
	return BadgerConfig{
		GCInterval:       10 * time.Minute,
		GCThreshold:      0.5,
		CacheSize:        8 << 20,  // 8MB
		ValueLogFileSize: 64 << 20, // 64MB
		SyncWrites:       true,
	}
}

// Open creates the file-backed backend named by cfg.Kind.
func Open(cfg Config, logger *slog.Logger) (Backend, error) {
	switch cfg.Kind {
	case "", KindBadger:
		return NewBadgerBackend(cfg, logger)
	case KindSQLite:
		if cfg.Dir == "" {
			return nil, fmt.Errorf("sqlite: dir is required")
		}
		return NewSQLiteBackend(filepath.Join(cfg.Dir, "draft.db"), logger)
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", cfg.Kind)
	}
}
