package ebay

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	defaultTokenURL = "https://api.ebay.com/identity/v1/oauth2/token"
	apiScope        = "https://api.ebay.com/oauth/api_scope"

	// refreshBuffer forces a refresh slightly before the token actually
	// expires so an in-flight search never carries a stale token.
	refreshBuffer = 5 * time.Minute
)

// Token is one application access token with its expiry.
type Token struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int       `json:"expires_in"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"-"`
}

// Valid reports whether the token is still usable with the refresh buffer
// applied.
func (t *Token) Valid() bool {
	return t != nil && t.AccessToken != "" && time.Now().Add(refreshBuffer).Before(t.ExpiresAt)
}

// TokenSource fetches and caches client-credentials tokens. The token is
// an explicit value handed to the one call that needs it, refreshed only
// when expiry demands it.
type TokenSource struct {
	clientID     string
	clientSecret string
	tokenURL     string
	httpClient   *http.Client

	mu      sync.Mutex
	current *Token
}

// NewTokenSource builds a source for production credentials.
func NewTokenSource(clientID, clientSecret string) *TokenSource {
	return &TokenSource{
		clientID:     clientID,
		clientSecret: clientSecret,
		tokenURL:     defaultTokenURL,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

// SetTokenURL overrides the token endpoint, for tests.
func (s *TokenSource) SetTokenURL(u string) {
	s.tokenURL = u
}

// Available reports whether credentials are configured.
func (s *TokenSource) Available() bool {
	return s.clientID != "" && s.clientSecret != ""
}

// Get returns a valid access token, fetching a fresh one when the cached
// token is missing or inside the refresh buffer.
func (s *TokenSource) Get(ctx context.Context) (*Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current.Valid() {
		return s.current, nil
	}

	token, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}
	s.current = token
	return token, nil
}

func (s *TokenSource) fetch(ctx context.Context) (*Token, error) {
	if !s.Available() {
		return nil, fmt.Errorf("ebay credentials not configured")
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("scope", apiScope)

	req, err := http.NewRequestWithContext(ctx, "POST", s.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating token request: %w", err)
	}
	basic := base64.StdEncoding.EncodeToString([]byte(s.clientID + ":" + s.clientSecret))
	req.Header.Set("Authorization", "Basic "+basic)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token request failed: %s", string(body))
	}

	var token Token
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, fmt.Errorf("parsing token response: %w", err)
	}
	token.ExpiresAt = time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
	return &token, nil
}
