package memory

import (
	"context"
	"sync"

	"expenses/internal/core"
	ports "expenses/internal/sheets"
)

var _ ports.SnapshotStore = (*Store)(nil)

// Store keeps the last saved snapshot in process memory.
type Store struct {
	mu    sync.Mutex
	state core.LedgerState
	saved bool
	saves int
}

func New() *Store {
	return &Store{}
}

// NewWithState returns a store that behaves as if state had been saved.
func NewWithState(state core.LedgerState) *Store {
	return &Store{state: state.Clone(), saved: true}
}

// Load returns a copy of the last saved snapshot.
func (s *Store) Load(_ context.Context) (core.LedgerState, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.saved {
		return core.LedgerState{}, false, nil
	}
	return s.state.Clone(), true, nil
}

// Save replaces the stored snapshot.
func (s *Store) Save(_ context.Context, state core.LedgerState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state.Clone()
	s.saved = true
	s.saves++
	return nil
}

// Saves returns how many snapshots were saved.
func (s *Store) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
