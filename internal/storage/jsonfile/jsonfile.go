// Package jsonfile stores the ledger snapshot as a single JSON document,
// the same blob layout the browser tracker kept under expense_tracker_v1.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"expenses/internal/core"
	ports "expenses/internal/sheets"
	"expenses/internal/storage/fileutil"
)

// FileName is the snapshot file created inside the data directory.
const FileName = "expense_tracker_v1.json"

var (
	_ ports.SnapshotStore = (*Store)(nil)

	// ErrCorruptSnapshot is returned when the file exists but is not a
	// readable snapshot.
	ErrCorruptSnapshot = errors.New("corrupt ledger snapshot")
)

type Store struct {
	mu   sync.Mutex
	path string
}

// New returns a store writing FileName inside dir.
func New(dir string) *Store {
	if dir == "" {
		dir = "."
	}
	return &Store{path: filepath.Join(dir, FileName)}
}

// Path returns the snapshot file location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) Load(ctx context.Context) (core.LedgerState, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return core.LedgerState{}, false, nil
	}
	if err != nil {
		return core.LedgerState{}, false, fmt.Errorf("read %s: %w", s.path, err)
	}

	var state core.LedgerState
	if err := json.Unmarshal(data, &state); err != nil {
		return core.LedgerState{}, false, fmt.Errorf("%w: %s: %v", ErrCorruptSnapshot, s.path, err)
	}
	if state.Entries == nil {
		state.Entries = []core.Entry{}
	}

	slog.DebugContext(ctx, "Ledger loaded from file", "path", s.path, "entries", len(state.Entries))
	return state, true, nil
}

func (s *Store) Save(ctx context.Context, state core.LedgerState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if state.Entries == nil {
		state.Entries = []core.Entry{}
	}
	err := fileutil.WriteAtomic(s.path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(state); err != nil {
			return fmt.Errorf("encode snapshot: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save %s: %w", s.path, err)
	}

	slog.DebugContext(ctx, "Ledger saved to file", "path", s.path, "entries", len(state.Entries))
	return nil
}
