package auth

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type tokenServer struct {
	requests []url.Values
	users    []string
	status   int
	body     string
}

func (s *tokenServer) start(t *testing.T) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		s.requests = append(s.requests, r.PostForm)
		user, _, _ := r.BasicAuth()
		s.users = append(s.users, user)
		w.Header().Set("Content-Type", "application/json")
		if s.status != 0 {
			w.WriteHeader(s.status)
		}
		_, _ = io.WriteString(w, s.body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestStatic(t *testing.T) {
	token, err := Static("abc").Token(context.Background(), []string{"x"})
	require.NoError(t, err)
	require.Equal(t, "abc", token)

	_, err = Static("").Token(context.Background(), nil)
	require.Error(t, err)
}

func TestClientCredentialsCaching(t *testing.T) {
	ts := &tokenServer{body: `{"access_token":"t1","expires_in":300,"token_type":"Bearer"}`}
	srv := ts.start(t)

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	cc := NewClientCredentials(srv.URL, "client-1", "secret", srv.Client())
	cc.now = func() time.Time { return now }

	ctx := context.Background()
	token, err := cc.Token(ctx, []string{"b", "a"})
	require.NoError(t, err)
	require.Equal(t, "t1", token)
	require.Equal(t, "a b", ts.requests[0].Get("scope"))
	require.Equal(t, "client_credentials", ts.requests[0].Get("grant_type"))
	require.Equal(t, "client-1", ts.users[0])

	// Same set in another order hits the cache.
	_, err = cc.Token(ctx, []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, ts.requests, 1)

	// A different set needs its own token.
	_, err = cc.Token(ctx, []string{"c"})
	require.NoError(t, err)
	require.Len(t, ts.requests, 2)

	// Within the expiry buffer the token is refreshed.
	now = now.Add(4*time.Minute + 30*time.Second)
	_, err = cc.Token(ctx, []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, ts.requests, 3)
}

func TestClientCredentialsErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"oauth error", http.StatusUnauthorized, `{"error":"invalid_client","error_description":"bad secret"}`},
		{"status", http.StatusInternalServerError, `{}`},
		{"empty token", http.StatusOK, `{"token_type":"Bearer"}`},
		{"not json", http.StatusBadGateway, `<html>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := &tokenServer{status: tt.status, body: tt.body}
			srv := ts.start(t)
			cc := NewClientCredentials(srv.URL, "c", "s", srv.Client())
			_, err := cc.Token(context.Background(), []string{"x"})
			require.Error(t, err)
		})
	}
}

func TestScopeKey(t *testing.T) {
	require.Equal(t, "a b", scopeKey([]string{"b", "a", "b"}))
	require.Equal(t, "", scopeKey(nil))
}
