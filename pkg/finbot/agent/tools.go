// Package agent – tools.go wires the concrete services into the tool
// registry and provides the argument coercion helpers shared by all
// handlers. Model-supplied arguments arrive as loosely typed JSON; every
// handler validates what it needs and returns a chat-friendly error
// otherwise.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jholhewres/finbot/pkg/finbot/calendar"
	"github.com/jholhewres/finbot/pkg/finbot/habits"
	"github.com/jholhewres/finbot/pkg/finbot/store"
)

// TokenSource yields a fresh access token for a user. *oauth.TokenManager
// satisfies it.
type TokenSource interface {
	AccessToken(ctx context.Context, userID string) (string, error)
}

// LinkCreator mints a short-lived authorization link for a user.
// *oauth.HandshakeService satisfies it.
type LinkCreator interface {
	CreateLink(userID string) (string, error)
}

// Tools bundles the service dependencies behind the registered tool
// handlers.
type Tools struct {
	calendar *calendar.Client
	tokens   TokenSource
	links    LinkCreator
	habits   *habits.Service
	store    *store.Store
	search   *SearchClient
	loc      *time.Location
	logger   *slog.Logger
}

// NewTools creates the tool dependency bundle.
func NewTools(cal *calendar.Client, tokens TokenSource, links LinkCreator, hb *habits.Service, st *store.Store, search *SearchClient, loc *time.Location, logger *slog.Logger) *Tools {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Tools{
		calendar: cal,
		tokens:   tokens,
		links:    links,
		habits:   hb,
		store:    st,
		search:   search,
		loc:      loc,
		logger:   logger.With("component", "tools"),
	}
}

// RegisterAll registers every tool on the registry.
func (t *Tools) RegisterAll(r *Registry) {
	t.registerCalendarTools(r)
	t.registerHabitTools(r)
	t.registerPreferenceTools(r)
	t.registerAuthTools(r)
	t.registerRecallTools(r)
	t.registerSearchTools(r)
}

// accessToken resolves the turn's user and their access token.
func (t *Tools) accessToken(ctx context.Context) (userID, token string, err error) {
	userID = UserIDFrom(ctx)
	if userID == "" {
		return "", "", fmt.Errorf("no user in this conversation")
	}
	token, err = t.tokens.AccessToken(ctx, userID)
	if err != nil {
		return "", "", fmt.Errorf("calendar belum terhubung: %w", err)
	}
	return userID, token, nil
}

// ---------- Argument helpers ----------

// stringArg reads an optional string argument.
func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

// requiredString reads a mandatory string argument.
func requiredString(args map[string]any, key string) (string, error) {
	v := stringArg(args, key)
	if v == "" {
		return "", fmt.Errorf("missing required argument %q", key)
	}
	return v, nil
}

// intArg reads a numeric argument, tolerating the float64 that JSON
// decoding produces and numeric strings from the fallback parser.
func intArg(args map[string]any, key string, def int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// optIntArg reads a numeric argument like intArg, but reports absence as
// nil so callers can tell "not provided" from an explicit zero.
func optIntArg(args map[string]any, key string) *int {
	switch v := args[key].(type) {
	case float64:
		n := int(v)
		return &n
	case int:
		return &v
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return &n
		}
	}
	return nil
}

// timeArg parses an RFC3339 timestamp argument. Bare local timestamps
// without an offset are interpreted in the assistant's timezone.
func timeArg(args map[string]any, key string, loc *time.Location) (time.Time, error) {
	raw := stringArg(args, key)
	if raw == "" {
		return time.Time{}, fmt.Errorf("missing required argument %q", key)
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts, nil
	}
	if ts, err := time.ParseInLocation("2006-01-02T15:04:05", raw, loc); err == nil {
		return ts, nil
	}
	return time.Time{}, fmt.Errorf("argument %q is not a valid timestamp: %q", key, raw)
}
