// Package store – store.go defines the Store facade and its record types.
package store

import (
	"database/sql"
	"log/slog"
	"time"
)

// ResponseProcessing is the sentinel stored in a message row between
// receipt and the computed reply.
const ResponseProcessing = "__processing__"

// JobSentinelPrefix tags audit rows written by periodic jobs instead of
// the orchestrator. The full sentinel is JobSentinelPrefix + jobName.
const JobSentinelPrefix = "job:"

// Store wraps the SQLite database with typed accessors.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a Store over an opened database.
func New(db *sql.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger.With("component", "store")}
}

// DB exposes the underlying handle for callers that need transactions.
func (s *Store) DB() *sql.DB { return s.db }

// User is a chat identity keyed by WhatsApp address.
type User struct {
	ID         string
	WhatsAppID string
	Name       string
	CreatedAt  time.Time
}

// Credential is a user's Google OAuth credential (at most one per user).
type Credential struct {
	UserID       string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	Scope        string
	UpdatedAt    time.Time
}

// Handshake is a short-lived record backing a one-time authorization link.
type Handshake struct {
	ID        string
	UserID    string
	LongURL   string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the handshake's TTL has passed.
func (h *Handshake) Expired(now time.Time) bool {
	return now.After(h.ExpiresAt)
}

// Habit is a tracked habit with optional recent completion logs.
type Habit struct {
	ID          string
	UserID      string
	Title       string
	Description string
	Frequency   string
	TimeOfDay   string
	CreatedAt   time.Time
	RecentLogs  []HabitLog
}

// HabitLog is a timestamped habit completion.
type HabitLog struct {
	ID          int64
	HabitID     string
	Notes       string
	CompletedAt time.Time
}

// Preferences holds a user's scheduling preferences.
type Preferences struct {
	UserID        string
	WorkStartHour int
	WorkEndHour   int
	BufferMinutes int
	Assertiveness string
	UpdatedAt     time.Time
}

// Message is a conversation audit row. Its ID is the channel message id.
type Message struct {
	ID        string
	UserID    string
	ChatID    string
	Body      string
	Response  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func fmtTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}
