package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"expenses/internal/core"
	ports "expenses/internal/sheets"

	_ "modernc.org/sqlite"
)

const currencyKey = "currency"

var _ ports.SnapshotStore = (*SQLiteRepository)(nil)

// SQLiteRepository persists the ledger snapshot in a SQLite database.
// Entry order is kept in the position column.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Load implements sheets.SnapshotLoader. A database with neither entries nor
// a saved currency reports found == false.
func (r *SQLiteRepository) Load(ctx context.Context) (core.LedgerState, bool, error) {
	currency, hasCurrency, err := r.setting(ctx, currencyKey)
	if err != nil {
		return core.LedgerState{}, false, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, amount, category, date, note FROM entries ORDER BY position`)
	if err != nil {
		return core.LedgerState{}, false, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	entries := []core.Entry{}
	for rows.Next() {
		var id, amount, category, date, note string
		if err := rows.Scan(&id, &amount, &category, &date, &note); err != nil {
			return core.LedgerState{}, false, fmt.Errorf("scan entry: %w", err)
		}
		e := core.Entry{
			ID:       id,
			Category: core.Category(category),
			Date:     core.LegacyDate(date),
			Note:     note,
		}
		e.SetStoredAmount(amount)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return core.LedgerState{}, false, fmt.Errorf("iterate entries: %w", err)
	}

	if !hasCurrency && len(entries) == 0 {
		return core.LedgerState{}, false, nil
	}

	slog.DebugContext(ctx, "Ledger loaded from SQLite", "entries", len(entries))
	return core.LedgerState{Entries: entries, Currency: currency}, true, nil
}

// Save implements sheets.SnapshotSaver. The previous snapshot is replaced
// inside a single transaction.
func (r *SQLiteRepository) Save(ctx context.Context, state core.LedgerState) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM entries`); err != nil {
		return fmt.Errorf("clear entries: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO entries (id, amount, category, date, note, position) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range state.Entries {
		if _, err := stmt.ExecContext(ctx,
			e.ID, e.StoredAmount(), string(e.Category), e.Date.String(), e.Note, i); err != nil {
			return fmt.Errorf("insert entry %s: %w", e.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		currencyKey, state.Currency); err != nil {
		return fmt.Errorf("save currency: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}

	slog.DebugContext(ctx, "Ledger saved to SQLite", "entries", len(state.Entries))
	return nil
}

func (r *SQLiteRepository) setting(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get setting %s: %w", key, err)
	}
	return value, true, nil
}
