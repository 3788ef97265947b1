package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expenses/internal/config"
	"expenses/internal/core"
)

func TestCreateBackendRoundTrip(t *testing.T) {
	dir := t.TempDir()
	configs := map[BackendType]Config{
		MemoryBackend: {Type: MemoryBackend},
		FileBackend:   {Type: FileBackend, DataDirectory: dir},
		CSVBackend:    {Type: CSVBackend, DataDirectory: filepath.Join(dir, "csv")},
		SQLiteBackend: {Type: SQLiteBackend, SQLiteDBPath: filepath.Join(dir, "db", "ledger.db")},
	}

	state := core.LedgerState{
		Currency: "EUR",
		Entries: []core.Entry{
			{ID: "a", Amount: 12.5, Category: core.Food, Date: core.NewDate(2024, 2, 3), Note: "lunch"},
			{ID: "b", Amount: 40, Category: core.Bills, Date: core.NewDate(2024, 2, 4)},
		},
	}

	f := NewFactory(nil)
	for typ, cfg := range configs {
		t.Run(typ.String(), func(t *testing.T) {
			ctx := context.Background()
			res, err := f.CreateBackend(ctx, cfg)
			require.NoError(t, err)
			defer res.Close()

			_, found, err := res.Backend.Load(ctx)
			require.NoError(t, err)
			assert.False(t, found)

			require.NoError(t, res.Backend.Save(ctx, state))
			got, found, err := res.Backend.Load(ctx)
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, state, got)
		})
	}
}

func TestCreateBackendRejectsInvalidConfig(t *testing.T) {
	f := NewFactory(nil)
	ctx := context.Background()

	_, err := f.CreateBackend(ctx, Config{Type: "postgres"})
	assert.Error(t, err)

	_, err = f.CreateBackend(ctx, Config{Type: SheetsBackend, GoogleSpreadsheetID: "sheet"})
	assert.ErrorContains(t, err, "GoogleServiceAccount")

	_, err = f.CreateBackend(ctx, Config{Type: SQLiteBackend})
	assert.ErrorContains(t, err, "SQLite database path")
}

func TestFromAppConfig(t *testing.T) {
	app := &config.Config{
		DataBackend:         "csv",
		MirrorBackend:       "sheets",
		DataDir:             "/var/lib/ledger",
		SQLiteDBPath:        "/var/lib/ledger/ledger.db",
		GoogleSpreadsheetID: "abc",
		GoogleSheetName:     "Entries",
	}

	cfg, err := FromAppConfig(app, app.DataBackend)
	require.NoError(t, err)
	assert.Equal(t, CSVBackend, cfg.Type)
	assert.Equal(t, "/var/lib/ledger", cfg.DataDirectory)

	cfg, err = FromAppConfig(app, " Sheets ")
	require.NoError(t, err)
	assert.Equal(t, SheetsBackend, cfg.Type)
	assert.Equal(t, "abc", cfg.GoogleSpreadsheetID)

	_, err = FromAppConfig(app, "redis")
	assert.Error(t, err)

	_, err = FromAppConfig(nil, "memory")
	assert.Error(t, err)
}

func TestGetBackendTypeStrings(t *testing.T) {
	assert.Equal(t, []string{"memory", "file", "csv", "sqlite", "sheets"}, GetBackendTypeStrings())
}
