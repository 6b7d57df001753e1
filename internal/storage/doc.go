// Package storage provides durable key-value storage for the draft.
//
// A Backend is a minimal byte store keyed by string. Three backends are
// provided:
//
//   - BadgerBackend: embedded LSM store, the default for a data directory
//   - SQLiteBackend: a single kv table in a SQLite file
//   - memory.Store: in-process map used by tests and ephemeral sessions
//
// SealedBackend wraps any of them and encrypts values at rest.
//
// Store adapts a Backend to the string contract used by the wizard: reads
// never fail (a failure reads as absent), writes and removals return
// domain.ErrStore, and backend panics are recovered.
package storage
