// Package oauth – google.go implements the Google OAuth client used for
// calendar access: authorization URL construction, code exchange and
// refresh-token exchange.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	googleAuthURL  = "https://accounts.google.com/o/oauth2/v2/auth"
	googleTokenURL = "https://oauth2.googleapis.com/token"
)

// CalendarScopes are the scopes requested for calendar access.
var CalendarScopes = []string{
	"openid",
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/calendar",
	"https://www.googleapis.com/auth/calendar.events",
}

// Token is the result of a code or refresh exchange. RefreshToken may be
// empty on renewal; Google does not always issue a new one.
type Token struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	Scope        string
}

// tokenResponse is Google's token endpoint wire format.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	Scope        string `json:"scope"`
	TokenType    string `json:"token_type"`
}

// GoogleProvider talks to Google's OAuth endpoints.
type GoogleProvider struct {
	clientID     string
	clientSecret string
	redirectURL  string
	scopes       []string
	authURL      string
	tokenURL     string
	httpClient   *http.Client
	logger       *slog.Logger
}

// GoogleOption configures the provider.
type GoogleOption func(*GoogleProvider)

// WithScopes overrides the requested scopes.
func WithScopes(scopes []string) GoogleOption {
	return func(p *GoogleProvider) { p.scopes = scopes }
}

// WithEndpoints overrides the Google endpoints, used by tests.
func WithEndpoints(authURL, tokenURL string) GoogleOption {
	return func(p *GoogleProvider) {
		p.authURL = authURL
		p.tokenURL = tokenURL
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) GoogleOption {
	return func(p *GoogleProvider) { p.httpClient = c }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) GoogleOption {
	return func(p *GoogleProvider) { p.logger = logger.With("component", "google_oauth") }
}

// NewGoogleProvider creates a provider for the given OAuth application.
func NewGoogleProvider(clientID, clientSecret, redirectURL string, opts ...GoogleOption) *GoogleProvider {
	p := &GoogleProvider{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURL:  redirectURL,
		scopes:       CalendarScopes,
		authURL:      googleAuthURL,
		tokenURL:     googleTokenURL,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		logger:       slog.Default().With("component", "google_oauth"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// AuthURL returns the authorization URL carrying the handshake id as state.
// access_type=offline and prompt=consent force Google to issue a refresh
// token on every grant.
func (p *GoogleProvider) AuthURL(state string) string {
	params := url.Values{
		"client_id":     {p.clientID},
		"response_type": {"code"},
		"redirect_uri":  {p.redirectURL},
		"scope":         {strings.Join(p.scopes, " ")},
		"state":         {state},
		"access_type":   {"offline"},
		"prompt":        {"consent"},
	}
	return p.authURL + "?" + params.Encode()
}

// ExchangeCode exchanges an authorization code for tokens.
func (p *GoogleProvider) ExchangeCode(ctx context.Context, code string) (*Token, error) {
	data := url.Values{
		"client_id":     {p.clientID},
		"client_secret": {p.clientSecret},
		"code":          {code},
		"grant_type":    {"authorization_code"},
		"redirect_uri":  {p.redirectURL},
	}
	return p.tokenRequest(ctx, data)
}

// RefreshToken exchanges a refresh token for a fresh access token.
func (p *GoogleProvider) RefreshToken(ctx context.Context, refreshToken string) (*Token, error) {
	data := url.Values{
		"client_id":     {p.clientID},
		"client_secret": {p.clientSecret},
		"refresh_token": {refreshToken},
		"grant_type":    {"refresh_token"},
	}
	return p.tokenRequest(ctx, data)
}

func (p *GoogleProvider) tokenRequest(ctx context.Context, data url.Values) (*Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, fmt.Errorf("parse token response: %w", err)
	}
	if tr.AccessToken == "" {
		return nil, fmt.Errorf("token endpoint returned no access token")
	}

	return &Token{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second),
		Scope:        tr.Scope,
	}, nil
}

// Redact shortens a token for logging. Token values must never be logged
// in full.
func Redact(token string) string {
	if len(token) <= 8 {
		return "****"
	}
	return token[:8] + "..."
}
