package main

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func tokenServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.PostForm.Get("code") != "good-code" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at","refresh_token":"rt","token_type":"Bearer","expires_in":3600}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

// callback returns a show func that follows the consent URL back to the
// local callback server with the given query.
func callback(t *testing.T, ln net.Listener, query func(state string) url.Values) func(string) {
	return func(consent string) {
		u, err := url.Parse(consent)
		require.NoError(t, err)
		q := query(u.Query().Get("state"))
		go func() {
			resp, err := http.Get("http://" + ln.Addr().String() + "/callback?" + q.Encode())
			if err == nil {
				resp.Body.Close()
			}
		}()
	}
}

func TestAuthorizeExchangesCode(t *testing.T) {
	ts := tokenServer(t)
	cfg := &oauth2.Config{
		ClientID: "client",
		Endpoint: oauth2.Endpoint{AuthURL: "https://accounts.example/auth", TokenURL: ts.URL},
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tok, err := authorize(ctx, cfg, ln, callback(t, ln, func(state string) url.Values {
		return url.Values{"code": {"good-code"}, "state": {state}}
	}))
	require.NoError(t, err)
	assert.Equal(t, "at", tok.AccessToken)
	assert.Equal(t, "rt", tok.RefreshToken)
}

func TestAuthorizeDenied(t *testing.T) {
	cfg := &oauth2.Config{Endpoint: oauth2.Endpoint{AuthURL: "https://accounts.example/auth"}}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = authorize(ctx, cfg, ln, callback(t, ln, func(string) url.Values {
		return url.Values{"error": {"access_denied"}}
	}))
	assert.ErrorContains(t, err, "access_denied")
}

func TestAuthorizeTimesOut(t *testing.T) {
	cfg := &oauth2.Config{Endpoint: oauth2.Endpoint{AuthURL: "https://accounts.example/auth"}}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = authorize(ctx, cfg, ln, func(string) {})
	assert.EqualError(t, err, "authorization timed out")
}
