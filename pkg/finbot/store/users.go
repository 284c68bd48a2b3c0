// Package store – users.go implements user lookup and creation.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EnsureUser returns the user for a WhatsApp address, creating it on first
// contact. Creation races resolve through the UNIQUE constraint: the loser
// re-reads the winner's row.
func (s *Store) EnsureUser(whatsappID string) (*User, error) {
	if whatsappID == "" {
		return nil, fmt.Errorf("ensure user: empty whatsapp id")
	}

	u, err := s.UserByWhatsAppID(whatsappID)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	now := time.Now()
	id := uuid.NewString()
	_, err = s.db.Exec(`
		INSERT INTO users (id, whatsapp_id, created_at)
		VALUES (?, ?, ?)`,
		id, whatsappID, fmtTime(now))
	if err != nil {
		if isUniqueViolation(err) {
			return s.UserByWhatsAppID(whatsappID)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user created", "whatsapp_id", whatsappID)
	return &User{ID: id, WhatsAppID: whatsappID, CreatedAt: now}, nil
}

// UserByWhatsAppID looks up a user by channel address.
// Returns sql.ErrNoRows (wrapped) when absent.
func (s *Store) UserByWhatsAppID(whatsappID string) (*User, error) {
	return s.scanUser(s.db.QueryRow(`
		SELECT id, whatsapp_id, name, created_at
		FROM users WHERE whatsapp_id = ?`, whatsappID))
}

// UserByID looks up a user by internal id.
func (s *Store) UserByID(id string) (*User, error) {
	return s.scanUser(s.db.QueryRow(`
		SELECT id, whatsapp_id, name, created_at
		FROM users WHERE id = ?`, id))
}

// ListUsers returns all users, oldest first.
func (s *Store) ListUsers() ([]*User, error) {
	rows, err := s.db.Query(`
		SELECT id, whatsapp_id, name, created_at
		FROM users ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		var (
			u         User
			createdAt string
		)
		if err := rows.Scan(&u.ID, &u.WhatsAppID, &u.Name, &createdAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		u.CreatedAt = parseTime(createdAt)
		users = append(users, &u)
	}
	return users, rows.Err()
}

func (s *Store) scanUser(row *sql.Row) (*User, error) {
	var (
		u         User
		createdAt string
	)
	if err := row.Scan(&u.ID, &u.WhatsAppID, &u.Name, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user: %w", sql.ErrNoRows)
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.CreatedAt = parseTime(createdAt)
	return &u, nil
}
