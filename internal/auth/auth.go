// Package auth provides the token sources used by the dispatcher.
package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

const (
	tokenExpiryBuffer = time.Minute
	defaultExpiry     = time.Hour
)

// Static hands out one preconfigured token whatever the scopes.
type Static string

func (s Static) Token(context.Context, []string) (string, error) {
	if s == "" {
		return "", errors.New("empty static token")
	}
	return string(s), nil
}

// ClientCredentials obtains tokens with the OAuth2 client-credentials grant
// and caches one token per scope set until shortly before it expires.
// Safe for concurrent use.
type ClientCredentials struct {
	tokenURL     string
	clientID     string
	clientSecret string
	client       *http.Client
	now          func() time.Time

	mu     sync.Mutex
	tokens map[string]cachedToken
}

type cachedToken struct {
	accessToken string
	expiresAt   time.Time
}

func NewClientCredentials(tokenURL, clientID, clientSecret string, client *http.Client) *ClientCredentials {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &ClientCredentials{
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		client:       client,
		now:          time.Now,
		tokens:       make(map[string]cachedToken),
	}
}

func (c *ClientCredentials) Token(ctx context.Context, scopes []string) (string, error) {
	key := scopeKey(scopes)

	c.mu.Lock()
	defer c.mu.Unlock()

	if cached, ok := c.tokens[key]; ok && c.now().Before(cached.expiresAt.Add(-tokenExpiryBuffer)) {
		return cached.accessToken, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	if key != "" {
		form.Set("scope", key)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("oauth2 token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(url.QueryEscape(c.clientID), url.QueryEscape(c.clientSecret))

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("oauth2 token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("oauth2 token response: %w", err)
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
		TokenType   string `json:"token_type"`
		Error       string `json:"error"`
		ErrorDesc   string `json:"error_description"`
	}
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", fmt.Errorf("oauth2 token parse (status %d): %w", resp.StatusCode, err)
	}
	if tokenResp.Error != "" {
		return "", fmt.Errorf("oauth2: %s: %s", tokenResp.Error, tokenResp.ErrorDesc)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("oauth2 token endpoint returned %d", resp.StatusCode)
	}
	if tokenResp.AccessToken == "" {
		return "", errors.New("oauth2 token response: empty access_token")
	}

	expiresIn := time.Duration(tokenResp.ExpiresIn) * time.Second
	if expiresIn <= 0 {
		expiresIn = defaultExpiry
	}
	c.tokens[key] = cachedToken{
		accessToken: tokenResp.AccessToken,
		expiresAt:   c.now().Add(expiresIn),
	}
	return tokenResp.AccessToken, nil
}

// scopeKey is the order-independent form of a scope set, as sent in the
// token request.
func scopeKey(scopes []string) string {
	sorted := slices.Clone(scopes)
	slices.Sort(sorted)
	return strings.Join(slices.Compact(sorted), " ")
}
