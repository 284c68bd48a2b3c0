// Package store – handshakes.go persists the short-lived records behind
// one-time authorization links. Single-active-handshake per user: creating
// a new one deletes whatever came before.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// CreateHandshake stores a new handshake and invalidates any prior
// handshake for the same user. Both statements run in one transaction so
// a crash cannot leave two live handshakes.
func (s *Store) CreateHandshake(h *Handshake) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("create handshake: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM handshakes WHERE user_id = ?`, h.UserID); err != nil {
		return fmt.Errorf("invalidate prior handshakes: %w", err)
	}
	_, err = tx.Exec(`
		INSERT INTO handshakes (id, user_id, long_url, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		h.ID, h.UserID, h.LongURL, fmtTime(h.ExpiresAt), fmtTime(h.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert handshake: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("create handshake: commit: %w", err)
	}
	s.logger.Info("handshake created", "user_id", h.UserID, "expires_at", h.ExpiresAt)
	return nil
}

// HandshakeByID loads a handshake. Returns sql.ErrNoRows (wrapped) when the
// id is unknown, which callers must treat as invalid/consumed.
func (s *Store) HandshakeByID(id string) (*Handshake, error) {
	var (
		h                    Handshake
		expiresAt, createdAt string
	)
	err := s.db.QueryRow(`
		SELECT id, user_id, long_url, expires_at, created_at
		FROM handshakes WHERE id = ?`, id).
		Scan(&h.ID, &h.UserID, &h.LongURL, &expiresAt, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("handshake: %w", sql.ErrNoRows)
		}
		return nil, fmt.Errorf("load handshake: %w", err)
	}
	h.ExpiresAt = parseTime(expiresAt)
	h.CreatedAt = parseTime(createdAt)
	return &h, nil
}

// DeleteHandshake removes a handshake (consumed or expired).
func (s *Store) DeleteHandshake(id string) error {
	if _, err := s.db.Exec(`DELETE FROM handshakes WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete handshake: %w", err)
	}
	return nil
}

// PurgeExpiredHandshakes removes all handshakes past their TTL.
// Called opportunistically by the scheduler.
func (s *Store) PurgeExpiredHandshakes(now time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM handshakes WHERE expires_at < ?`, fmtTime(now))
	if err != nil {
		return 0, fmt.Errorf("purge handshakes: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
