package backend

import (
	"errors"
	"fmt"
	"strings"

	"expenses/internal/config"
)

// FromAppConfig builds the backend config for the named backend, usually
// DataBackend or MirrorBackend, from the application config.
func FromAppConfig(appConfig *config.Config, name string) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}
	typ := ParseType(name)
	if !typ.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type %q (want one of %s)",
			name, strings.Join(GetBackendTypeStrings(), ", "))
	}

	return Config{
		Type:                     typ,
		DataDirectory:            appConfig.DataDir,
		SQLiteDBPath:             appConfig.SQLiteDBPath,
		GoogleSpreadsheetID:      appConfig.GoogleSpreadsheetID,
		GoogleSheetName:          appConfig.GoogleSheetName,
		GoogleSettingsSheetName:  appConfig.GoogleSettingsSheetName,
		GoogleServiceAccountFile: appConfig.GoogleServiceAccountFile,
		GoogleServiceAccountJSON: appConfig.GoogleServiceAccountJSON,
		GoogleOAuthClientFile:    appConfig.GoogleOAuthClientFile,
		GoogleOAuthClientJSON:    appConfig.GoogleOAuthClientJSON,
		GoogleOAuthTokenFile:     appConfig.GoogleOAuthTokenFile,
	}, nil
}

// Validate checks that the settings required by c.Type are present.
func (c Config) Validate() error {
	var missing string
	switch c.Type {
	case MemoryBackend:
	case FileBackend, CSVBackend:
		if c.DataDirectory == "" {
			missing = "data directory"
		}
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			missing = "SQLite database path"
		}
	case SheetsBackend:
		return c.validateSheets()
	default:
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if missing != "" {
		return fmt.Errorf("%s is required for %s backend", missing, c.Type)
	}
	return nil
}

func (c Config) validateSheets() error {
	hasClient := c.GoogleOAuthClientFile != "" || c.GoogleOAuthClientJSON != ""
	hasAccount := c.GoogleServiceAccountFile != "" || c.GoogleServiceAccountJSON != ""
	switch {
	case c.GoogleSpreadsheetID == "":
		return errors.New("Google Spreadsheet ID is required for sheets backend")
	case c.GoogleOAuthTokenFile != "" && !hasClient:
		return errors.New("GoogleOAuthClientFile or GoogleOAuthClientJSON is required with GoogleOAuthTokenFile")
	case c.GoogleOAuthTokenFile == "" && !hasAccount:
		return errors.New("either GoogleServiceAccountFile, GoogleServiceAccountJSON or GoogleOAuthTokenFile must be provided for sheets backend")
	}
	return nil
}
