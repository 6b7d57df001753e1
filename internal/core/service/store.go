package service

import "context"

// DraftStore is the durable string store the wizard persists into.
// storage.Store satisfies it.
//
// Get never fails: absence and backend failures both read as ok=false.
type DraftStore interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	ClearAll(ctx context.Context) error
}
