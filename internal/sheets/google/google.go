package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"expenses/internal/core"
	ports "expenses/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const (
	DefaultEntriesSheet  = "Entries"
	DefaultSettingsSheet = "Settings"
)

// Config selects the spreadsheet and the credentials used to reach it.
type Config struct {
	SpreadsheetID   string
	EntriesSheet    string
	SettingsSheet   string
	CredentialsJSON string
	CredentialsFile string

	// User credentials from oauth-init; used instead of a service account
	// when OAuthTokenFile is set.
	OAuthClientJSON string
	OAuthClientFile string
	OAuthTokenFile  string
}

// Client stores the ledger snapshot in a spreadsheet: one row per entry in
// the entries sheet (columns id, amount, category, date, note) and the
// currency in cell B1 of the settings sheet.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	entriesSheet  string
	settingsSheet string
}

var _ ports.SnapshotStore = (*Client)(nil)

// NewFromEnv creates a Sheets client from environment variables.
// Required: GOOGLE_SPREADSHEET_ID
// Optional sheet names: GOOGLE_SHEET_NAME (default "Entries"),
// GOOGLE_SETTINGS_SHEET_NAME (default "Settings").
func NewFromEnv(ctx context.Context) (*Client, error) {
	return New(ctx, Config{
		SpreadsheetID:   os.Getenv("GOOGLE_SPREADSHEET_ID"),
		EntriesSheet:    os.Getenv("GOOGLE_SHEET_NAME"),
		SettingsSheet:   os.Getenv("GOOGLE_SETTINGS_SHEET_NAME"),
		CredentialsJSON: os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"),
		CredentialsFile: os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"),
		OAuthClientJSON: os.Getenv("GOOGLE_OAUTH_CLIENT_JSON"),
		OAuthClientFile: os.Getenv("GOOGLE_OAUTH_CLIENT_FILE"),
		OAuthTokenFile:  os.Getenv("GOOGLE_OAUTH_TOKEN_FILE"),
	})
}

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, cfg Config, opts ...goption.ClientOption) (*Client, error) {
	cfg = cfg.withDefaults()
	if cfg.SpreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	svc, err := newSheetsService(ctx, cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewWithService(svc, cfg), nil
}

// NewWithService wraps an existing Sheets service.
func NewWithService(svc *gsheet.Service, cfg Config) *Client {
	cfg = cfg.withDefaults()
	return &Client{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		entriesSheet:  cfg.EntriesSheet,
		settingsSheet: cfg.SettingsSheet,
	}
}

func (cfg Config) withDefaults() Config {
	cfg.SpreadsheetID = strings.TrimSpace(cfg.SpreadsheetID)
	cfg.EntriesSheet = strings.TrimSpace(cfg.EntriesSheet)
	if cfg.EntriesSheet == "" {
		cfg.EntriesSheet = DefaultEntriesSheet
	}
	cfg.SettingsSheet = strings.TrimSpace(cfg.SettingsSheet)
	if cfg.SettingsSheet == "" {
		cfg.SettingsSheet = DefaultSettingsSheet
	}
	return cfg
}

// newSheetsService initializes a Sheets Service using OAuth user or Service
// Account credentials. Extra client options (endpoint, HTTP client) take
// precedence.
func newSheetsService(ctx context.Context, cfg Config, opts ...goption.ClientOption) (*gsheet.Service, error) {
	if len(opts) > 0 {
		return gsheet.NewService(ctx, opts...)
	}

	if strings.TrimSpace(cfg.OAuthTokenFile) != "" {
		slog.InfoContext(ctx, "Using OAuth user credentials", "token_file", cfg.OAuthTokenFile)
		creds, err := userCredentials(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return gsheet.NewService(ctx, creds)
	}

	serviceAccountJSON := strings.TrimSpace(cfg.CredentialsJSON)
	serviceAccountFile := strings.TrimSpace(cfg.CredentialsFile)
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		data, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = data
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created successfully")
	return service, nil
}

// Load implements sheets.SnapshotLoader. An entries sheet holding only the
// header and a settings sheet without a currency report found == false.
func (c *Client) Load(ctx context.Context) (core.LedgerState, bool, error) {
	if c.svc == nil {
		return core.LedgerState{}, false, errors.New("sheets service not initialized")
	}

	rng := fmt.Sprintf("%s!A:E", c.entriesSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").Context(ctx).Do()
	if err != nil {
		return core.LedgerState{}, false, fmt.Errorf("read %s: %w", rng, err)
	}
	entries := parseEntryRows(resp.Values)

	currency, err := c.readCurrency(ctx)
	if err != nil {
		return core.LedgerState{}, false, err
	}

	if len(entries) == 0 && currency == "" {
		return core.LedgerState{}, false, nil
	}

	slog.DebugContext(ctx, "Ledger loaded from Google Sheets",
		"sheet", c.entriesSheet,
		"entries", len(entries))
	return core.LedgerState{Entries: entries, Currency: currency}, true, nil
}

// Save implements sheets.SnapshotSaver by clearing the entries sheet and
// writing the whole snapshot back.
func (c *Client) Save(ctx context.Context, state core.LedgerState) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	clearRange := fmt.Sprintf("%s!A:E", c.entriesSheet)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", clearRange, err)
	}

	dataRange := fmt.Sprintf("%s!A1", c.entriesSheet)
	vr := &gsheet.ValueRange{Values: entryRows(state.Entries)}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, dataRange, vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("update %s: %w", dataRange, err)
	}

	settingsRange := fmt.Sprintf("%s!A1:B1", c.settingsSheet)
	sv := &gsheet.ValueRange{Values: [][]any{{currencyLabel, state.Currency}}}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, settingsRange, sv).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("update %s: %w", settingsRange, err)
	}

	slog.InfoContext(ctx, "Ledger saved to Google Sheets",
		"sheet", c.entriesSheet,
		"entries", len(state.Entries))
	return nil
}

func (c *Client) readCurrency(ctx context.Context) (string, error) {
	rng := fmt.Sprintf("%s!A1:B1", c.settingsSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("read %s: %w", rng, err)
	}
	return parseCurrency(resp.Values), nil
}
