// Package store – credentials.go persists Google OAuth credentials.
// At most one live credential per user: a new grant replaces the old row.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Credential returns the user's stored credential, or sql.ErrNoRows
// (wrapped) when the user has not connected a Google account.
func (s *Store) Credential(userID string) (*Credential, error) {
	var (
		c                    Credential
		expiresAt, updatedAt string
	)
	err := s.db.QueryRow(`
		SELECT user_id, access_token, refresh_token, expires_at, scope, updated_at
		FROM credentials WHERE user_id = ?`, userID).
		Scan(&c.UserID, &c.AccessToken, &c.RefreshToken, &expiresAt, &c.Scope, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("credential: %w", sql.ErrNoRows)
		}
		return nil, fmt.Errorf("load credential: %w", err)
	}
	c.ExpiresAt = parseTime(expiresAt)
	c.UpdatedAt = parseTime(updatedAt)
	return &c, nil
}

// UpsertCredential stores a fresh grant for the user. When the provider
// omitted a refresh token on renewal, the previously stored refresh token
// is kept rather than overwritten with an empty value.
func (s *Store) UpsertCredential(c *Credential) error {
	if c.UserID == "" {
		return fmt.Errorf("upsert credential: empty user id")
	}
	now := time.Now()
	_, err := s.db.Exec(`
		INSERT INTO credentials (user_id, access_token, refresh_token, expires_at, scope, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			access_token  = excluded.access_token,
			refresh_token = CASE WHEN excluded.refresh_token = ''
			                THEN credentials.refresh_token
			                ELSE excluded.refresh_token END,
			expires_at    = excluded.expires_at,
			scope         = CASE WHEN excluded.scope = ''
			                THEN credentials.scope
			                ELSE excluded.scope END,
			updated_at    = excluded.updated_at`,
		c.UserID, c.AccessToken, c.RefreshToken, fmtTime(c.ExpiresAt), c.Scope, fmtTime(now))
	if err != nil {
		return fmt.Errorf("upsert credential: %w", err)
	}
	s.logger.Info("credential stored", "user_id", c.UserID, "expires_at", c.ExpiresAt)
	return nil
}

// UpdateAccessToken persists a refreshed access token and expiry without
// touching the refresh token.
func (s *Store) UpdateAccessToken(userID, accessToken string, expiresAt time.Time) error {
	res, err := s.db.Exec(`
		UPDATE credentials
		SET access_token = ?, expires_at = ?, updated_at = ?
		WHERE user_id = ?`,
		accessToken, fmtTime(expiresAt), fmtTime(time.Now()), userID)
	if err != nil {
		return fmt.Errorf("update access token: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update access token: no credential for user %s", userID)
	}
	return nil
}

// DeleteCredential removes a user's credential (disconnect).
func (s *Store) DeleteCredential(userID string) error {
	if _, err := s.db.Exec(`DELETE FROM credentials WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	return nil
}

// ConnectedUsers returns all users with a stored credential.
func (s *Store) ConnectedUsers() ([]*User, error) {
	rows, err := s.db.Query(`
		SELECT u.id, u.whatsapp_id, u.name, u.created_at
		FROM users u JOIN credentials c ON c.user_id = u.id
		ORDER BY u.created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list connected users: %w", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		var (
			u         User
			createdAt string
		)
		if err := rows.Scan(&u.ID, &u.WhatsAppID, &u.Name, &createdAt); err != nil {
			return nil, fmt.Errorf("scan connected user: %w", err)
		}
		u.CreatedAt = parseTime(createdAt)
		users = append(users, &u)
	}
	return users, rows.Err()
}
