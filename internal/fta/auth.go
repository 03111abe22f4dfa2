package fta

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// tokenSource caches a client-credentials access token until its expiry,
// reduced by the configured safety margin. Refresh is lazy: the first call
// after expiry fetches a new token inline.
type tokenSource struct {
	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// token returns a valid access token, fetching one via the client-credentials
// grant if the cached token is missing or expired.
func (c *Client) token(ctx context.Context) (string, error) {
	c.tokens.mu.Lock()
	defer c.tokens.mu.Unlock()

	if c.tokens.token != "" && c.now().Before(c.tokens.expiresAt) {
		return c.tokens.token, nil
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.cfg.ClientID},
		"client_secret": {c.cfg.ClientSecret},
		"scope":         {c.cfg.Scope},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", &APIError{Operation: "authenticate", Category: CategoryAuth, Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &APIError{Operation: "authenticate", Category: CategoryAuth,
			Message: "token request failed", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", &APIError{Operation: "authenticate", Category: CategoryAuth,
			Message: "reading token response failed", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return "", &APIError{
			Operation:  "authenticate",
			Category:   CategoryAuth,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("token endpoint returned status %d", resp.StatusCode),
		}
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", &APIError{Operation: "authenticate", Category: CategoryAuth,
			Message: "malformed token response", Err: err}
	}
	if tok.AccessToken == "" {
		return "", &APIError{Operation: "authenticate", Category: CategoryAuth,
			Message: "token response contained no access token"}
	}

	ttl := time.Duration(tok.ExpiresIn) * time.Second
	c.tokens.token = tok.AccessToken
	c.tokens.expiresAt = c.now().Add(ttl - c.cfg.TokenExpiryMargin)

	c.log.Debug("acquired access token", "expires_in", tok.ExpiresIn)
	return c.tokens.token, nil
}

// clearToken drops the cached token so the next call re-authenticates. Called
// when the authority rejects a request with 401.
func (c *Client) clearToken() {
	c.tokens.mu.Lock()
	c.tokens.token = ""
	c.tokens.expiresAt = time.Time{}
	c.tokens.mu.Unlock()
}
