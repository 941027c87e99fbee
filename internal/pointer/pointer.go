// Package pointer persists the single session pointer: the id of "this
// client's" current session, kept outside the database. The pointer and the
// record it names are reconciled by the session manager; this package only
// stores the string.
package pointer

import "sync"

// Store is the contract for the local session pointer.
type Store interface {
	// Get returns the pointer, or "" when none is set.
	Get() string
	// Set persists a new pointer value.
	Set(id string) error
	// Clear removes the pointer. Clearing an absent pointer is a no-op.
	Clear() error
}

// MemoryStore keeps the pointer in process memory. Used in tests and for
// ephemeral sessions that should not survive a restart.
type MemoryStore struct {
	mu sync.Mutex
	id string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Get() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

func (s *MemoryStore) Set(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = id
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = ""
	return nil
}

var _ Store = (*MemoryStore)(nil)
