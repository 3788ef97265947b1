package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Backend names accepted by DATA_BACKEND and MIRROR_BACKEND.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendCSV    = "csv"
	BackendSQLite = "sqlite"
	BackendSheets = "sheets"
)

type Config struct {
	// HTTP Server
	Port string `mapstructure:"port"`

	// Storage
	DataBackend  string `mapstructure:"data_backend"`
	DataDir      string `mapstructure:"data_dir"`
	SQLiteDBPath string `mapstructure:"sqlite_db_path"`

	// AMQP
	AMQPURL      string `mapstructure:"amqp_url"`
	AMQPExchange string `mapstructure:"amqp_exchange"`
	AMQPQueue    string `mapstructure:"amqp_queue"`

	// Google Sheets
	GoogleSpreadsheetID      string `mapstructure:"google_spreadsheet_id"`
	GoogleSheetName          string `mapstructure:"google_sheet_name"`
	GoogleSettingsSheetName  string `mapstructure:"google_settings_sheet_name"`
	GoogleServiceAccountFile string `mapstructure:"google_service_account_file"`
	GoogleServiceAccountJSON string `mapstructure:"google_service_account_json"`
	GoogleOAuthClientFile    string `mapstructure:"google_oauth_client_file"`
	GoogleOAuthClientJSON    string `mapstructure:"google_oauth_client_json"`
	GoogleOAuthTokenFile     string `mapstructure:"google_oauth_token_file"`

	// Presentation
	DefaultCurrency string `mapstructure:"default_currency"`
	PaletteFile     string `mapstructure:"palette_file"`

	LogLevel string `mapstructure:"log_level"`

	// Worker
	SyncInterval  time.Duration `mapstructure:"sync_interval"`
	MirrorBackend string        `mapstructure:"mirror_backend"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8081")

	v.SetDefault("data_backend", BackendFile)
	v.SetDefault("data_dir", "./data")
	v.SetDefault("sqlite_db_path", "./data/ledger.db")

	v.SetDefault("amqp_url", "")
	v.SetDefault("amqp_exchange", "ledger")
	v.SetDefault("amqp_queue", "ledger_changes")

	v.SetDefault("google_spreadsheet_id", "")
	v.SetDefault("google_sheet_name", "Entries")
	v.SetDefault("google_settings_sheet_name", "Settings")
	v.SetDefault("google_service_account_file", "")
	v.SetDefault("google_service_account_json", "")
	v.SetDefault("google_oauth_client_file", "")
	v.SetDefault("google_oauth_client_json", "")
	v.SetDefault("google_oauth_token_file", "")

	v.SetDefault("default_currency", "INR")
	v.SetDefault("palette_file", "")

	v.SetDefault("log_level", "info")

	v.SetDefault("sync_interval", 5*time.Minute)
	v.SetDefault("mirror_backend", BackendSheets)
}

// Load reads defaults, then an optional YAML file, then environment
// variables (PORT, DATA_BACKEND, ...), later sources winning. With an empty
// configFile, ledger.yaml is looked up in the working directory and in
// $HOME/.ledger; a missing file is not an error.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("ledger")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.ledger")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	errors = append(errors, c.validateBackend("data backend", c.DataBackend)...)

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if strings.TrimSpace(c.DefaultCurrency) == "" {
		errors = append(errors, "default currency cannot be empty")
	}

	if c.PaletteFile != "" {
		if _, err := os.Stat(c.PaletteFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("palette file does not exist: %s", c.PaletteFile))
		}
	}

	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// ValidateWorker checks the settings the mirror worker needs on top of Validate.
func (c *Config) ValidateWorker() error {
	if err := c.Validate(); err != nil {
		return err
	}

	var errors []string
	errors = append(errors, c.validateBackend("mirror backend", c.MirrorBackend)...)
	if c.MirrorBackend == c.DataBackend {
		errors = append(errors, fmt.Sprintf("mirror backend '%s' must differ from the data backend", c.MirrorBackend))
	}
	if c.SyncInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at least 1 second", c.SyncInterval))
	} else if c.SyncInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at most 24 hours", c.SyncInterval))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func (c *Config) validateBackend(label, backend string) []string {
	var errors []string
	validBackends := []string{BackendMemory, BackendFile, BackendCSV, BackendSQLite, BackendSheets}
	isValidBackend := false
	for _, b := range validBackends {
		if backend == b {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		return []string{fmt.Sprintf("invalid %s '%s': must be one of %v", label, backend, validBackends)}
	}

	switch backend {
	case BackendFile, BackendCSV:
		if c.DataDir == "" {
			errors = append(errors, fmt.Sprintf("data directory cannot be empty when using %s backend", backend))
		}
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	case BackendSheets:
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		if c.GoogleSheetName == "" {
			errors = append(errors, "Google Sheet name is required when using sheets backend")
		}
		if c.GoogleOAuthTokenFile != "" {
			if c.GoogleOAuthClientFile == "" && c.GoogleOAuthClientJSON == "" {
				errors = append(errors, "GOOGLE_OAUTH_CLIENT_FILE or GOOGLE_OAUTH_CLIENT_JSON is required with GOOGLE_OAUTH_TOKEN_FILE")
			}
		} else if c.GoogleServiceAccountFile == "" && c.GoogleServiceAccountJSON == "" && os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_FILE, GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_OAUTH_TOKEN_FILE must be provided for sheets backend")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}
	return errors
}
