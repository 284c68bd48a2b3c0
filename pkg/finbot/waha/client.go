// Package waha is the client for the WAHA (WhatsApp HTTP API) gateway,
// the external transport that actually delivers messages. Outbound sends
// are rate limited so a chatty job cannot trip the gateway's flood
// protection.
package waha

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Client sends text messages through a WAHA instance.
type Client struct {
	baseURL    string
	apiKey     string
	session    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithRateLimit overrides the outbound send rate.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst) }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger.With("component", "waha") }
}

// NewClient creates a WAHA client for the given instance and session.
func NewClient(baseURL, apiKey, session string, opts ...Option) *Client {
	if session == "" {
		session = "default"
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		session:    session,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(1), 3),
		logger:     slog.Default().With("component", "waha"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// sendTextRequest is WAHA's sendText payload.
type sendTextRequest struct {
	Session string `json:"session"`
	ChatID  string `json:"chatId"`
	Text    string `json:"text"`
}

// SendText delivers a text message to a chat. Blocks on the rate limiter
// before sending.
func (c *Client) SendText(ctx context.Context, chatID, text string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	payload, err := json.Marshal(sendTextRequest{
		Session: c.session,
		ChatID:  NormalizeChatID(chatID),
		Text:    text,
	})
	if err != nil {
		return fmt.Errorf("marshal sendText: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/sendText", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create sendText request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sendText request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sendText returned %d: %s", resp.StatusCode, string(body))
	}

	c.logger.Debug("message sent", "chat_id", NormalizeChatID(chatID), "len", len(text))
	return nil
}

// NormalizeChatID appends the WhatsApp user suffix when the id is a bare
// phone-like address.
func NormalizeChatID(chatID string) string {
	if strings.Contains(chatID, "@") {
		return chatID
	}
	return chatID + "@c.us"
}
