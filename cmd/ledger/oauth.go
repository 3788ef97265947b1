package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"expenses/internal/config"
	gsheet "expenses/internal/sheets/google"
)

const oauthTimeout = 5 * time.Minute

// newOAuthInitCmd authorizes the sheets backend as the current user and
// stores the refresh token in GOOGLE_OAUTH_TOKEN_FILE.
func newOAuthInitCmd(r *rootState) *cobra.Command {
	var (
		port      string
		tokenFile string
	)
	cmd := &cobra.Command{
		Use:   "oauth-init",
		Short: "Authorize Google Sheets access with your Google account",
		Long: `oauth-init opens a local callback server, prints the consent URL and
saves the resulting token. Add http://localhost:<port>/callback to the
authorized redirect URIs of the OAuth client first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(r.configFile)
			if err != nil {
				return err
			}
			if tokenFile == "" {
				tokenFile = cfg.GoogleOAuthTokenFile
			}
			if tokenFile == "" {
				tokenFile = "token.json"
			}

			secret, err := gsheet.ReadClientSecret(cfg.GoogleOAuthClientJSON, cfg.GoogleOAuthClientFile)
			if err != nil {
				return err
			}
			oauthCfg, err := gsheet.OAuthConfig(secret, "http://localhost:"+port+"/callback")
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), oauthTimeout)
			defer cancel()

			ln, err := net.Listen("tcp", ":"+port)
			if err != nil {
				return fmt.Errorf("listen for oauth callback: %w", err)
			}
			tok, err := authorize(ctx, oauthCfg, ln, func(url string) {
				fmt.Fprintf(cmd.OutOrStdout(), "Open this URL to authorize:\n%s\n", url)
			})
			if err != nil {
				return err
			}
			if err := gsheet.SaveToken(tokenFile, tok); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved token to %s\n", tokenFile)
			return nil
		},
	}
	cmd.Flags().StringVar(&port, "port", "8085", "local port for the OAuth redirect")
	cmd.Flags().StringVar(&tokenFile, "token-file", "", "where to save the token (default GOOGLE_OAUTH_TOKEN_FILE or token.json)")
	return cmd
}

// authorize serves the callback on ln, runs the authorization code flow and
// exchanges the returned code for a token. ln is closed on return.
func authorize(ctx context.Context, cfg *oauth2.Config, ln net.Listener, show func(url string)) (*oauth2.Token, error) {
	state := uuid.NewString()
	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch {
		case q.Get("error") != "":
			http.Error(w, "OAuth error: "+q.Get("error"), http.StatusBadRequest)
			select {
			case errCh <- fmt.Errorf("authorization denied: %s", q.Get("error")):
			default:
			}
		case q.Get("state") != state:
			http.Error(w, "state mismatch", http.StatusBadRequest)
		default:
			fmt.Fprintln(w, "You may close this window and return to the terminal.")
			select {
			case codeCh <- q.Get("code"):
			default:
			}
		}
	})

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() { _ = srv.Serve(ln) }()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	show(cfg.AuthCodeURL(state, oauth2.AccessTypeOffline))

	select {
	case code := <-codeCh:
		tok, err := cfg.Exchange(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("token exchange: %w", err)
		}
		return tok, nil
	case err := <-errCh:
		return nil, err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, errors.New("authorization timed out")
		}
		return nil, ctx.Err()
	}
}
