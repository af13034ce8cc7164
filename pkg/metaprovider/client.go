// Package metaprovider is a rate-limited client for a streaming-metadata
// provider's catalog API: artist/album/track search and lookup, backed by
// OAuth2 client-credentials auth. Identities returned by the provider are
// alphanumeric; a numeric-only id is a parsing error, never a valid lookup
// key, and callers should reject it before spending a request on it.
package metaprovider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	apiBaseURL   = "https://api.metadata-provider.example/v1"
	tokenURL     = "https://accounts.metadata-provider.example/api/token"
	minCallGap   = 200 * time.Millisecond
	tokenSkew    = 60 * time.Second
)

// Client is a rate-limited, auto-reauthenticating provider client. One
// mutex-protected lastReq timestamp enforces the minimum inter-call gap
// regardless of which method is invoked, mirroring a single shared-quota
// upstream rate limit.
type Client struct {
	http         *http.Client
	clientID     string
	clientSecret string

	mu      sync.Mutex
	lastReq time.Time

	tokenMu     sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// New creates a Client that authenticates with clientID/clientSecret via
// the OAuth2 client-credentials flow on first use.
func New(clientID, clientSecret string) *Client {
	return &Client{
		http:         &http.Client{Timeout: 15 * time.Second},
		clientID:     clientID,
		clientSecret: clientSecret,
	}
}

// AuthError marks a 401/403 response. Per the error-handling policy, an
// auth failure must not consume the item being processed; callers sleep
// ~30s and retry the same tick rather than marking anything as error.
type AuthError struct{ StatusCode int }

func (e *AuthError) Error() string { return fmt.Sprintf("metaprovider: auth error (http %d)", e.StatusCode) }

// NotFoundError marks an explicit 404 or an empty result set.
type NotFoundError struct{ Query string }

func (e *NotFoundError) Error() string { return fmt.Sprintf("metaprovider: not found: %s", e.Query) }

func (c *Client) throttle() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elapsed := time.Since(c.lastReq); elapsed < minCallGap {
		time.Sleep(minCallGap - elapsed)
	}
	c.lastReq = time.Now()
}

// IsAuthenticated reports whether a cached, unexpired access token is
// held. It must be side-effect-free and cheap, so it never triggers a
// token refresh — only a real call does that, lazily.
func (c *Client) IsAuthenticated() bool {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()
	return c.accessToken != "" && time.Now().Before(c.tokenExpiry)
}

func (c *Client) token(ctx context.Context) (string, error) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()
	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.clientID, c.clientSecret)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", &AuthError{StatusCode: resp.StatusCode}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("metaprovider: token request failed (http %d): %s", resp.StatusCode, string(data))
	}

	var tok struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("metaprovider: parse token response: %w", err)
	}
	c.accessToken = tok.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn)*time.Second - tokenSkew)
	return c.accessToken, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	c.throttle()

	tok, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	u := apiBaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("metaprovider: GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		c.tokenMu.Lock()
		c.accessToken = ""
		c.tokenMu.Unlock()
		return nil, &AuthError{StatusCode: resp.StatusCode}
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, &NotFoundError{Query: path}
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := 1 * time.Second
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if secs, err := strconv.Atoi(ra); err == nil {
				retryAfter = time.Duration(secs) * time.Second
			}
		}
		time.Sleep(retryAfter)
		return c.get(ctx, path, query)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("metaprovider: http %d for %s: %s", resp.StatusCode, path, string(data))
	}
	return io.ReadAll(resp.Body)
}

// IsNumericOnly reports whether id consists solely of decimal digits — an
// invalid identity shape for this provider, rejected before it reaches a
// lookup call.
func IsNumericOnly(id string) bool {
	if id == "" {
		return false
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
