// Package ledger owns the mutable expense collection.
//
// A Store is constructed from the snapshot supplied by a persistence adapter
// and flushes a full snapshot back through it after every successful
// mutation. Mutations are all-or-nothing: if validation or the save fails the
// in-memory state is left untouched.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"expenses/internal/core"
	"expenses/internal/sheets"
)

type Store struct {
	mu        sync.Mutex
	state     core.LedgerState
	revision  uint64
	persister sheets.SnapshotStore
	newID     func() string
	currency  string
}

// Option customizes a Store.
type Option func(*Store)

// WithIDGenerator replaces the UUID identity generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithDefaultCurrency sets the currency used when no snapshot exists.
func WithDefaultCurrency(code string) Option {
	return func(s *Store) {
		if code = strings.TrimSpace(code); code != "" {
			s.currency = code
		}
	}
}

// Open loads the persisted snapshot, or starts empty when none was saved.
// A nil persister yields a purely in-memory store.
func Open(ctx context.Context, p sheets.SnapshotStore, opts ...Option) (*Store, error) {
	s := &Store{
		persister: p,
		newID:     func() string { return uuid.NewString() },
		currency:  core.DefaultCurrency,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.state = core.LedgerState{Entries: []core.Entry{}, Currency: s.currency}
	if p == nil {
		return s, nil
	}

	state, found, err := p.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ledger snapshot: %w", err)
	}
	if !found {
		slog.InfoContext(ctx, "No saved ledger, starting empty", "currency", s.currency)
		return s, nil
	}
	if strings.TrimSpace(state.Currency) == "" {
		state.Currency = s.currency
	}
	s.state = state.Clone()
	slog.InfoContext(ctx, "Ledger loaded",
		"entries", len(s.state.Entries),
		"currency", s.state.Currency)
	return s, nil
}

// Add validates the raw input, assigns a fresh identity and appends the entry.
func (s *Store) Add(ctx context.Context, in core.EntryInput) (core.Entry, error) {
	e, err := core.NewEntry(s.newID(), in)
	if err != nil {
		return core.Entry{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.Clone()
	next.Entries = append(next.Entries, e)
	if err := s.commit(ctx, next); err != nil {
		return core.Entry{}, err
	}

	slog.InfoContext(ctx, "Entry added",
		"id", e.ID,
		"amount", e.Amount.Value(),
		"category", e.Category,
		"date", e.Date.String())
	return e, nil
}

// Update replaces every field of the entry with the given identity.
func (s *Store) Update(ctx context.Context, id string, in core.EntryInput) (core.Entry, error) {
	e, err := core.NewEntry(id, in)
	if err != nil {
		return core.Entry{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return core.Entry{}, &core.NotFoundError{ID: id}
	}

	next := s.state.Clone()
	next.Entries[idx] = e
	if err := s.commit(ctx, next); err != nil {
		return core.Entry{}, err
	}

	slog.InfoContext(ctx, "Entry updated", "id", id)
	return e, nil
}

// Remove deletes the entry with the given identity. Removing an absent
// identity is a no-op.
func (s *Store) Remove(ctx context.Context, id string) error {
	_, err := s.Delete(ctx, id)
	return err
}

// Delete is Remove that also reports whether an entry was removed, decided
// under the same lock as the mutation.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		slog.DebugContext(ctx, "Remove of absent entry ignored", "id", id)
		return false, nil
	}

	next := s.state.Clone()
	next.Entries = append(next.Entries[:idx], next.Entries[idx+1:]...)
	if err := s.commit(ctx, next); err != nil {
		return false, err
	}

	slog.InfoContext(ctx, "Entry removed", "id", id)
	return true, nil
}

// Get returns the entry with the given identity.
func (s *Store) Get(id string) (core.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return core.Entry{}, &core.NotFoundError{ID: id}
	}
	return s.state.Entries[idx], nil
}

// List returns a copy of all entries in unspecified order.
func (s *Store) List() []core.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Entry, len(s.state.Entries))
	copy(out, s.state.Entries)
	return out
}

// Currency returns the selected display currency code.
func (s *Store) Currency() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Currency
}

// SetCurrency changes the display currency label. Any non-blank code is accepted.
func (s *Store) SetCurrency(ctx context.Context, code string) error {
	_, err := s.ChangeCurrency(ctx, code)
	return err
}

// ChangeCurrency is SetCurrency that also reports whether the code changed.
func (s *Store) ChangeCurrency(ctx context.Context, code string) (bool, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		verr := &core.ValidationError{}
		verr.Add("currency", "is required")
		return false, verr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if code == s.state.Currency {
		return false, nil
	}
	next := s.state.Clone()
	next.Currency = code
	if err := s.commit(ctx, next); err != nil {
		return false, err
	}

	slog.InfoContext(ctx, "Currency changed", "currency", code)
	return true, nil
}

// Snapshot returns a deep copy of the state and its revision. The revision
// increases by one on every committed mutation.
func (s *Store) Snapshot() (core.LedgerState, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone(), s.revision
}

// Revision returns the number of committed mutations since Open.
func (s *Store) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

// commit must be called with s.mu held.
func (s *Store) commit(ctx context.Context, next core.LedgerState) error {
	if s.persister != nil {
		if err := s.persister.Save(ctx, next); err != nil {
			slog.ErrorContext(ctx, "Failed to persist ledger snapshot", "error", err)
			return fmt.Errorf("save ledger snapshot: %w", err)
		}
	}
	s.state = next
	s.revision++
	return nil
}

func (s *Store) indexOf(id string) int {
	for i, e := range s.state.Entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}
