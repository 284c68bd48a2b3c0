// Package calendar – client.go is the Google Calendar REST client. Methods
// take the access token per call; the Token Lifecycle Manager owns token
// freshness.
package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultBaseURL = "https://www.googleapis.com/calendar/v3"

// ErrUnauthorized is returned when the Calendar API rejects the access
// token. Callers must treat it as "not connected" and prompt re-auth.
var ErrUnauthorized = fmt.Errorf("calendar: unauthorized")

// Client talks to the Google Calendar API for one configured calendar.
type Client struct {
	baseURL    string
	calendarID string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures the client.
type Option func(*Client)

// WithBaseURL overrides the API base, used by tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger.With("component", "calendar") }
}

// NewClient creates a client for the given calendar id ("primary").
func NewClient(calendarID string, opts ...Option) *Client {
	if calendarID == "" {
		calendarID = "primary"
	}
	c := &Client{
		baseURL:    defaultBaseURL,
		calendarID: calendarID,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     slog.Default().With("component", "calendar"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListEvents returns events in [timeMin, timeMax), recurring events
// expanded to single occurrences and ordered by start time. A zero timeMin
// defaults to now.
func (c *Client) ListEvents(ctx context.Context, token string, timeMin, timeMax time.Time, maxResults int) ([]Event, error) {
	if timeMin.IsZero() {
		timeMin = time.Now()
	}
	if maxResults <= 0 {
		maxResults = 10
	}

	q := url.Values{
		"timeMin":      {timeMin.Format(time.RFC3339)},
		"singleEvents": {"true"},
		"orderBy":      {"startTime"},
		"maxResults":   {strconv.Itoa(maxResults)},
	}
	if !timeMax.IsZero() {
		q.Set("timeMax", timeMax.Format(time.RFC3339))
	}

	var out struct {
		Items []Event `json:"items"`
	}
	path := "/calendars/" + url.PathEscape(c.calendarID) + "/events?" + q.Encode()
	if err := c.do(ctx, token, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// CreateEvent inserts an event and returns the created resource.
func (c *Client) CreateEvent(ctx context.Context, token string, ev *Event) (*Event, error) {
	var out Event
	path := "/calendars/" + url.PathEscape(c.calendarID) + "/events"
	if err := c.do(ctx, token, http.MethodPost, path, ev, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateEvent patches an existing event; only set fields change.
func (c *Client) UpdateEvent(ctx context.Context, token, eventID string, patch *Event) (*Event, error) {
	var out Event
	path := "/calendars/" + url.PathEscape(c.calendarID) + "/events/" + url.PathEscape(eventID)
	if err := c.do(ctx, token, http.MethodPatch, path, patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteEvent removes an event.
func (c *Client) DeleteEvent(ctx context.Context, token, eventID string) error {
	path := "/calendars/" + url.PathEscape(c.calendarID) + "/events/" + url.PathEscape(eventID)
	return c.do(ctx, token, http.MethodDelete, path, nil, nil)
}

// QuickAdd creates an event from natural-language text, e.g.
// "Lunch with Sarah tomorrow at noon".
func (c *Client) QuickAdd(ctx context.Context, token, text string) (*Event, error) {
	var out Event
	path := "/calendars/" + url.PathEscape(c.calendarID) + "/events/quickAdd?text=" + url.QueryEscape(text)
	if err := c.do(ctx, token, http.MethodPost, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FreeBusy returns the busy periods on the calendar within [start, end).
func (c *Client) FreeBusy(ctx context.Context, token string, start, end time.Time) ([]BusyPeriod, error) {
	req := map[string]any{
		"timeMin": start.Format(time.RFC3339),
		"timeMax": end.Format(time.RFC3339),
		"items":   []map[string]string{{"id": c.calendarID}},
	}
	var out struct {
		Calendars map[string]struct {
			Busy []struct {
				Start string `json:"start"`
				End   string `json:"end"`
			} `json:"busy"`
		} `json:"calendars"`
	}
	if err := c.do(ctx, token, http.MethodPost, "/freeBusy", req, &out); err != nil {
		return nil, err
	}

	var periods []BusyPeriod
	for _, cal := range out.Calendars {
		for _, b := range cal.Busy {
			bs, err1 := time.Parse(time.RFC3339, b.Start)
			be, err2 := time.Parse(time.RFC3339, b.End)
			if err1 != nil || err2 != nil {
				continue
			}
			periods = append(periods, BusyPeriod{Start: bs, End: be})
		}
	}
	return periods, nil
}

func (c *Client) do(ctx context.Context, token, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calendar request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: status %d", ErrUnauthorized, resp.StatusCode)
	case resp.StatusCode >= 400:
		return fmt.Errorf("calendar API returned %d: %s", resp.StatusCode, truncate(string(data), 200))
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
