// Package store – messages.go implements the conversation audit log and
// the ingress deduplication gate. The channel message id is the primary
// key, so the INSERT itself is the at-most-once admission check.
package store

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	sqlite3 "github.com/mattn/go-sqlite3"
)

// ReserveResult is the outcome of the dedup gate.
type ReserveResult int

const (
	// ReserveAccepted means this process owns the message and must reply.
	ReserveAccepted ReserveResult = iota

	// ReserveDuplicate means the message id was seen before; skip silently.
	ReserveDuplicate
)

// Reserve attempts to claim an inbound message id. A uniqueness violation
// means the message is already being (or has been) processed. Any other
// insert error is logged and the message is accepted anyway: an unrelated
// storage hiccup must not drop legitimate messages.
func (s *Store) Reserve(messageID, userID, chatID, body string) ReserveResult {
	now := fmtTime(time.Now())
	_, err := s.db.Exec(`
		INSERT INTO messages (id, user_id, chat_id, body, response, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		messageID, nullable(userID), chatID, body, ResponseProcessing, now, now)
	if err == nil {
		return ReserveAccepted
	}
	if isUniqueViolation(err) {
		s.logger.Debug("duplicate message skipped", "message_id", messageID)
		return ReserveDuplicate
	}

	// Fail open.
	s.logger.Warn("message reservation failed, processing anyway",
		"message_id", messageID, "err", err)
	return ReserveAccepted
}

// SetResponse records the computed reply on the audit row.
func (s *Store) SetResponse(messageID, response string) error {
	_, err := s.db.Exec(`
		UPDATE messages SET response = ?, updated_at = ? WHERE id = ?`,
		response, fmtTime(time.Now()), messageID)
	if err != nil {
		return fmt.Errorf("set response: %w", err)
	}
	return nil
}

// MessageByID loads a single audit row.
func (s *Store) MessageByID(id string) (*Message, error) {
	rows, err := s.queryMessages(`
		SELECT id, user_id, chat_id, body, response, created_at, updated_at
		FROM messages WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("message %s not found", id)
	}
	return rows[0], nil
}

// RecentMessages returns a user's most recent exchanges, newest first,
// excluding rows still in the processing state.
func (s *Store) RecentMessages(userID string, limit int) ([]*Message, error) {
	return s.queryMessages(`
		SELECT id, user_id, chat_id, body, response, created_at, updated_at
		FROM messages
		WHERE user_id = ? AND response != ?
		ORDER BY created_at DESC LIMIT ?`,
		userID, ResponseProcessing, limit)
}

// RecordJobMessage writes a periodic job's outbound message into the audit
// trail under a job sentinel id, so the orchestrator can later recall what
// the system already told the user.
func (s *Store) RecordJobMessage(jobName, userID, chatID, text string) error {
	now := fmtTime(time.Now())
	id := JobSentinelPrefix + jobName + ":" + uuid.NewString()
	_, err := s.db.Exec(`
		INSERT INTO messages (id, user_id, chat_id, body, response, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, nullable(userID), chatID, JobSentinelPrefix+jobName, text, now, now)
	if err != nil {
		return fmt.Errorf("record job message: %w", err)
	}
	return nil
}

// RecentJobMessages returns the latest job-generated messages for a user.
func (s *Store) RecentJobMessages(userID string, limit int) ([]*Message, error) {
	return s.queryMessages(`
		SELECT id, user_id, chat_id, body, response, created_at, updated_at
		FROM messages
		WHERE user_id = ? AND body LIKE ?
		ORDER BY created_at DESC LIMIT ?`,
		userID, JobSentinelPrefix+"%", limit)
}

func (s *Store) queryMessages(query string, args ...any) ([]*Message, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var msgs []*Message
	for rows.Next() {
		var (
			m                    Message
			userID               *string
			createdAt, updatedAt string
		)
		if err := rows.Scan(&m.ID, &userID, &m.ChatID, &m.Body, &m.Response,
			&createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		if userID != nil {
			m.UserID = *userID
		}
		m.CreatedAt = parseTime(createdAt)
		m.UpdatedAt = parseTime(updatedAt)
		msgs = append(msgs, &m)
	}
	return msgs, rows.Err()
}

// nullable maps an empty string to SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// isUniqueViolation reports whether an error is a SQLite uniqueness
// constraint failure. Only the PRIMARY KEY and UNIQUE extended codes
// count: other constraint classes (NOT NULL, CHECK, FK) are real storage
// errors, not duplicates, and must keep failing open.
func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			se.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
