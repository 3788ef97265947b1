package google

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const testClientJSON = `{"installed":{"client_id":"client-1","client_secret":"secret","auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token","redirect_uris":["http://localhost"]}}`

func TestOAuthConfig(t *testing.T) {
	cfg, err := OAuthConfig([]byte(testClientJSON), "http://localhost:8085/callback")
	require.NoError(t, err)
	assert.Equal(t, "client-1", cfg.ClientID)
	assert.Equal(t, "http://localhost:8085/callback", cfg.RedirectURL)
	assert.Contains(t, cfg.Scopes, "https://www.googleapis.com/auth/spreadsheets")

	_, err = OAuthConfig([]byte("invalid-json"), "")
	assert.ErrorContains(t, err, "oauth config")
}

func TestReadClientSecret(t *testing.T) {
	data, err := ReadClientSecret(" "+testClientJSON+" ", "ignored")
	require.NoError(t, err)
	assert.Equal(t, testClientJSON, string(data))

	path := filepath.Join(t.TempDir(), "client.json")
	require.NoError(t, os.WriteFile(path, []byte(testClientJSON), 0o600))
	data, err = ReadClientSecret("", path)
	require.NoError(t, err)
	assert.Equal(t, testClientJSON, string(data))

	_, err = ReadClientSecret("", "")
	assert.ErrorContains(t, err, "GOOGLE_OAUTH_CLIENT_JSON")
}

func TestSaveAndLoadToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")
	expiry := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, SaveToken(path, &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		Expiry:       expiry,
	}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	tok, err := LoadToken(path)
	require.NoError(t, err)
	assert.Equal(t, "refresh", tok.RefreshToken)
	assert.True(t, expiry.Equal(tok.Expiry))

	_, err = LoadToken(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestNewWithInvalidOAuthClient(t *testing.T) {
	tokenPath := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, SaveToken(tokenPath, &oauth2.Token{AccessToken: "test"}))

	_, err := New(context.Background(), Config{
		SpreadsheetID:   "test-id",
		OAuthClientJSON: "invalid-json",
		OAuthTokenFile:  tokenPath,
	})
	require.Error(t, err)
	assert.ErrorContains(t, err, "oauth config")
}
