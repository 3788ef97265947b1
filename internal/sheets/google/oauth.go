package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"expenses/internal/storage/fileutil"
)

// OAuthConfig builds the installed-app OAuth configuration for the Sheets
// scope from a client secret JSON document.
func OAuthConfig(clientJSON []byte, redirectURL string) (*oauth2.Config, error) {
	cfg, err := googleoauth.ConfigFromJSON(clientJSON, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("oauth config: %w", err)
	}
	cfg.RedirectURL = redirectURL
	return cfg, nil
}

// ReadClientSecret returns the inline JSON when set, the file contents
// otherwise.
func ReadClientSecret(inline, path string) ([]byte, error) {
	if s := strings.TrimSpace(inline); s != "" {
		return []byte(s), nil
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("missing OAuth client secret (set GOOGLE_OAUTH_CLIENT_JSON or GOOGLE_OAUTH_CLIENT_FILE)")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read oauth client file: %w", err)
	}
	return data, nil
}

// LoadToken reads a token written by SaveToken.
func LoadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read oauth token: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("decode oauth token: %w", err)
	}
	return &tok, nil
}

// SaveToken writes tok as JSON, replacing path atomically.
func SaveToken(path string, tok *oauth2.Token) error {
	err := fileutil.WriteAtomic(path, func(w io.Writer) error {
		return json.NewEncoder(w).Encode(tok)
	})
	if err != nil {
		return err
	}
	return os.Chmod(path, 0o600)
}

// userCredentials authenticates as the user who ran oauth-init. Tokens are
// refreshed by the token source.
func userCredentials(ctx context.Context, cfg Config) (goption.ClientOption, error) {
	secret, err := ReadClientSecret(cfg.OAuthClientJSON, cfg.OAuthClientFile)
	if err != nil {
		return nil, err
	}
	oauthCfg, err := OAuthConfig(secret, "")
	if err != nil {
		return nil, err
	}
	tok, err := LoadToken(cfg.OAuthTokenFile)
	if err != nil {
		return nil, err
	}
	return goption.WithTokenSource(oauthCfg.TokenSource(ctx, tok)), nil
}
