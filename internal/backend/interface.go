// Package backend turns configuration into a ledger snapshot store.
package backend

import (
	"context"
	"strings"

	"expenses/internal/sheets"
)

// Backend is the persistence collaborator of the ledger.
type Backend = sheets.SnapshotStore

// BackendResult pairs a backend with whatever must be released after use.
type BackendResult struct {
	Backend Backend
	Cleanup func() error
}

// Close releases the backend. A nil result or cleanup is a no-op.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config is the subset of application settings a backend needs.
type Config struct {
	Type BackendType

	DataDirectory string // file, csv
	SQLiteDBPath  string

	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleSettingsSheetName  string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string
	GoogleOAuthClientFile    string
	GoogleOAuthClientJSON    string
	GoogleOAuthTokenFile     string
}

type BackendType string

const (
	MemoryBackend BackendType = "memory"
	FileBackend   BackendType = "file"
	CSVBackend    BackendType = "csv"
	SQLiteBackend BackendType = "sqlite"
	SheetsBackend BackendType = "sheets"
)

var knownTypes = []BackendType{MemoryBackend, FileBackend, CSVBackend, SQLiteBackend, SheetsBackend}

func (bt BackendType) String() string { return string(bt) }

func (bt BackendType) IsValid() bool {
	for _, k := range knownTypes {
		if bt == k {
			return true
		}
	}
	return false
}

// ParseType normalises a configured backend name.
func ParseType(name string) BackendType {
	return BackendType(strings.ToLower(strings.TrimSpace(name)))
}

// GetBackendTypeStrings lists the accepted backend names in display order.
func GetBackendTypeStrings() []string {
	names := make([]string, len(knownTypes))
	for i, t := range knownTypes {
		names[i] = string(t)
	}
	return names
}
