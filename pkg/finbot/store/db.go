// Package store – db.go provides the central SQLite database for finbot.
// A single finbot.db file holds users, their Google credentials, auth
// handshakes, habits, preferences and the conversation audit log.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // SQLite driver.
)

// schema is the DDL executed on every startup (idempotent via IF NOT EXISTS).
const schema = `
-- Users, keyed by internal id, unique per WhatsApp address.
CREATE TABLE IF NOT EXISTS users (
    id          TEXT PRIMARY KEY,
    whatsapp_id TEXT NOT NULL UNIQUE,
    name        TEXT DEFAULT '',
    created_at  TEXT NOT NULL
);

-- Google OAuth credentials, at most one per user.
CREATE TABLE IF NOT EXISTS credentials (
    user_id       TEXT PRIMARY KEY REFERENCES users(id),
    access_token  TEXT NOT NULL,
    refresh_token TEXT NOT NULL,
    expires_at    TEXT NOT NULL,
    scope         TEXT DEFAULT '',
    updated_at    TEXT NOT NULL
);

-- Short-lived auth handshakes backing one-time connection links.
CREATE TABLE IF NOT EXISTS handshakes (
    id         TEXT PRIMARY KEY,
    user_id    TEXT NOT NULL REFERENCES users(id),
    long_url   TEXT NOT NULL,
    expires_at TEXT NOT NULL,
    created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_handshakes_user ON handshakes(user_id);

-- Tracked habits.
CREATE TABLE IF NOT EXISTS habits (
    id          TEXT PRIMARY KEY,
    user_id     TEXT NOT NULL REFERENCES users(id),
    title       TEXT NOT NULL,
    description TEXT DEFAULT '',
    frequency   TEXT NOT NULL DEFAULT 'daily',
    time_of_day TEXT DEFAULT '',
    created_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_habits_user ON habits(user_id);

-- Habit completion logs.
CREATE TABLE IF NOT EXISTS habit_logs (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    habit_id     TEXT NOT NULL REFERENCES habits(id) ON DELETE CASCADE,
    notes        TEXT DEFAULT '',
    completed_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_habit_logs_habit ON habit_logs(habit_id);

-- Per-user preferences, created lazily with defaults.
CREATE TABLE IF NOT EXISTS preferences (
    user_id         TEXT PRIMARY KEY REFERENCES users(id),
    work_start_hour INTEGER NOT NULL DEFAULT 9,
    work_end_hour   INTEGER NOT NULL DEFAULT 17,
    buffer_minutes  INTEGER NOT NULL DEFAULT 15,
    assertiveness   TEXT NOT NULL DEFAULT 'medium',
    updated_at      TEXT NOT NULL
);

-- Conversation audit log. The channel message id is the primary key,
-- which doubles as the ingress dedup constraint.
CREATE TABLE IF NOT EXISTS messages (
    id         TEXT PRIMARY KEY,
    user_id    TEXT,
    chat_id    TEXT DEFAULT '',
    body       TEXT NOT NULL,
    response   TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_messages_user ON messages(user_id, created_at);
`

// OpenDatabase opens (or creates) the central finbot.db at the given path.
// It enables WAL mode for concurrent read performance and creates all tables.
func OpenDatabase(path string) (*sql.DB, error) {
	if path == "" {
		path = "./data/finbot.db"
	}

	// Ensure parent directory exists.
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create database directory %q: %w", dir, err)
	}

	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=ON"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database %q: %w", path, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Create schema (idempotent).
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return db, nil
}
