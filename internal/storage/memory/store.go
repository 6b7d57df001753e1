package memory

import (
	"bytes"
	"context"
	"sync"

	"github.com/yndnr/supportform/internal/storage"
)

// Operation names accepted by FailNext, PanicNext and Calls.
const (
	OpGet     = "get"
	OpSet     = "set"
	OpDelete  = "delete"
	OpDropAll = "drop_all"
)

// Store is an in-memory storage.Backend.
type Store struct {
	mu     sync.Mutex
	data   map[string][]byte
	pinned map[string]bool
	faults map[string][]error
	panics map[string]int
	calls  map[string]int
	closed bool
}

var _ storage.Backend = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		data:   make(map[string][]byte),
		pinned: make(map[string]bool),
		faults: make(map[string][]error),
		panics: make(map[string]int),
		calls:  make(map[string]int),
	}
}

// begin records a call to op and returns its injected fault, if any.
// Callers must hold s.mu.
func (s *Store) begin(op string) error {
	s.calls[op]++

	if s.panics[op] > 0 {
		s.panics[op]--
		panic("memory: injected panic on " + op)
	}
	if queue := s.faults[op]; len(queue) > 0 {
		s.faults[op] = queue[1:]
		return queue[0]
	}
	if s.closed {
		return storage.ErrClosed
	}
	return nil
}

// Get retrieves a copy of the value under key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.begin(OpGet); err != nil {
		return nil, err
	}
	v, ok := s.data[key]
	if !ok {
		return nil, storage.ErrKeyNotFound
	}
	return bytes.Clone(v), nil
}

// Set stores a copy of value under key.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.begin(OpSet); err != nil {
		return err
	}
	s.data[key] = bytes.Clone(value)
	return nil
}

// Delete removes key unless it is pinned.
func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.begin(OpDelete); err != nil {
		return err
	}
	if !s.pinned[key] {
		delete(s.data, key)
	}
	return nil
}

// DropAll removes every key, pinned or not, and clears all pins.
func (s *Store) DropAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.begin(OpDropAll); err != nil {
		return err
	}
	clear(s.data)
	clear(s.pinned)
	return nil
}

// Close marks the store closed. Later operations return storage.ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// FailNext makes the next call of op return err. Repeated calls queue
// further failures.
func (s *Store) FailNext(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[op] = append(s.faults[op], err)
}

// PanicNext makes the next call of op panic.
func (s *Store) PanicNext(op string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.panics[op]++
}

// Pin makes key survive Delete until the next DropAll.
func (s *Store) Pin(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pinned[key] = true
}

// Calls returns how many times op has been invoked.
func (s *Store) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// Len returns the number of stored keys.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}
