// Package csvfile stores the ledger snapshot as two CSV files in a directory:
//
//	entries.csv   id,amount,category,date,note
//	settings.csv  key,value
//
// Both files are rewritten atomically on every save.
package csvfile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/gocarina/gocsv"

	"expenses/internal/core"
	ports "expenses/internal/sheets"
	"expenses/internal/storage/fileutil"
)

const (
	EntriesFile  = "entries.csv"
	SettingsFile = "settings.csv"

	currencyKey = "currency"
)

var _ ports.SnapshotStore = (*Store)(nil)

type entryRow struct {
	ID       string `csv:"id"`
	Amount   string `csv:"amount"`
	Category string `csv:"category"`
	Date     string `csv:"date"`
	Note     string `csv:"note"`
}

type settingRow struct {
	Key   string `csv:"key"`
	Value string `csv:"value"`
}

type Store struct {
	mu           sync.Mutex
	entriesPath  string
	settingsPath string
}

func New(dir string) *Store {
	if dir == "" {
		dir = "."
	}
	return &Store{
		entriesPath:  filepath.Join(dir, EntriesFile),
		settingsPath: filepath.Join(dir, SettingsFile),
	}
}

func (s *Store) Load(ctx context.Context) (core.LedgerState, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var entries []entryRow
	foundEntries, err := readRows(s.entriesPath, &entries)
	if err != nil {
		return core.LedgerState{}, false, err
	}
	var settings []settingRow
	foundSettings, err := readRows(s.settingsPath, &settings)
	if err != nil {
		return core.LedgerState{}, false, err
	}
	if !foundEntries && !foundSettings {
		return core.LedgerState{}, false, nil
	}

	state := core.LedgerState{Entries: make([]core.Entry, 0, len(entries))}
	for _, row := range entries {
		e := core.Entry{
			ID:       row.ID,
			Category: core.Category(row.Category),
			Date:     core.LegacyDate(row.Date),
			Note:     row.Note,
		}
		e.SetStoredAmount(row.Amount)
		state.Entries = append(state.Entries, e)
	}
	for _, row := range settings {
		if row.Key == currencyKey {
			state.Currency = row.Value
		}
	}

	slog.DebugContext(ctx, "Ledger loaded from CSV", "path", s.entriesPath, "entries", len(state.Entries))
	return state, true, nil
}

func (s *Store) Save(ctx context.Context, state core.LedgerState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := make([]*entryRow, 0, len(state.Entries))
	for _, e := range state.Entries {
		rows = append(rows, &entryRow{
			ID:       e.ID,
			Amount:   e.StoredAmount(),
			Category: string(e.Category),
			Date:     e.Date.String(),
			Note:     e.Note,
		})
	}
	if err := writeRows(s.entriesPath, &rows); err != nil {
		return err
	}

	settings := []*settingRow{{Key: currencyKey, Value: state.Currency}}
	if err := writeRows(s.settingsPath, &settings); err != nil {
		return err
	}

	slog.DebugContext(ctx, "Ledger saved to CSV", "path", s.entriesPath, "entries", len(rows))
	return nil
}

func readRows(path string, out interface{}) (bool, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if err := gocsv.UnmarshalFile(f, out); err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return true, nil
		}
		return false, fmt.Errorf("parse %s: %w", path, err)
	}
	return true, nil
}

func writeRows(path string, rows interface{}) error {
	err := fileutil.WriteAtomic(path, func(w io.Writer) error {
		return gocsv.Marshal(rows, w)
	})
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
