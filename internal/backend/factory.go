package backend

import (
	"context"
	"fmt"
	"log/slog"

	gsheet "expenses/internal/sheets/google"
	"expenses/internal/sheets/memory"
	"expenses/internal/storage"
	"expenses/internal/storage/csvfile"
	"expenses/internal/storage/jsonfile"
)

type builder func(ctx context.Context, cfg Config, logger *slog.Logger) (*BackendResult, error)

var builders = map[BackendType]builder{
	MemoryBackend: func(_ context.Context, _ Config, logger *slog.Logger) (*BackendResult, error) {
		logger.Info("Initialized memory backend")
		return &BackendResult{Backend: memory.New()}, nil
	},
	FileBackend: func(_ context.Context, cfg Config, logger *slog.Logger) (*BackendResult, error) {
		store := jsonfile.New(cfg.DataDirectory)
		logger.Info("Initialized JSON file backend", "path", store.Path())
		return &BackendResult{Backend: store}, nil
	},
	CSVBackend: func(_ context.Context, cfg Config, logger *slog.Logger) (*BackendResult, error) {
		logger.Info("Initialized CSV backend", "data_directory", cfg.DataDirectory)
		return &BackendResult{Backend: csvfile.New(cfg.DataDirectory)}, nil
	},
	SQLiteBackend: buildSQLite,
	SheetsBackend: buildSheets,
}

// DefaultFactory builds the backend registered for a Config's type.
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory returns a Factory logging to logger, or to the default logger
// when nil.
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

func (f *DefaultFactory) CreateBackend(ctx context.Context, cfg Config) (*BackendResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	build, ok := builders[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.Type)
	}
	return build(ctx, cfg, f.logger.With("backend", cfg.Type.String()))
}

func buildSQLite(_ context.Context, cfg Config, logger *slog.Logger) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite backend: %w", err)
	}
	logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
	return &BackendResult{Backend: repo, Cleanup: repo.Close}, nil
}

func buildSheets(ctx context.Context, cfg Config, logger *slog.Logger) (*BackendResult, error) {
	client, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		EntriesSheet:    cfg.GoogleSheetName,
		SettingsSheet:   cfg.GoogleSettingsSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
		OAuthClientJSON: cfg.GoogleOAuthClientJSON,
		OAuthClientFile: cfg.GoogleOAuthClientFile,
		OAuthTokenFile:  cfg.GoogleOAuthTokenFile,
	})
	if err != nil {
		return nil, fmt.Errorf("open sheets backend: %w", err)
	}
	logger.Info("Initialized Google Sheets backend",
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		"sheet", cfg.GoogleSheetName)
	return &BackendResult{Backend: client}, nil
}
