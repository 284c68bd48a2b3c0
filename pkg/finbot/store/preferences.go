// Package store – preferences.go persists per-user scheduling preferences.
// The row is created lazily with defaults on first read.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Default preference values applied on first read.
const (
	DefaultWorkStartHour = 9
	DefaultWorkEndHour   = 17
	DefaultBufferMinutes = 15
	DefaultAssertiveness = "medium"
)

// GetPreferences returns the user's preferences, creating the row with
// defaults when it does not exist yet.
func (s *Store) GetPreferences(userID string) (*Preferences, error) {
	var (
		p         Preferences
		updatedAt string
	)
	err := s.db.QueryRow(`
		SELECT user_id, work_start_hour, work_end_hour, buffer_minutes, assertiveness, updated_at
		FROM preferences WHERE user_id = ?`, userID).
		Scan(&p.UserID, &p.WorkStartHour, &p.WorkEndHour, &p.BufferMinutes, &p.Assertiveness, &updatedAt)
	if err == nil {
		p.UpdatedAt = parseTime(updatedAt)
		return &p, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load preferences: %w", err)
	}

	p = Preferences{
		UserID:        userID,
		WorkStartHour: DefaultWorkStartHour,
		WorkEndHour:   DefaultWorkEndHour,
		BufferMinutes: DefaultBufferMinutes,
		Assertiveness: DefaultAssertiveness,
		UpdatedAt:     time.Now(),
	}
	_, err = s.db.Exec(`
		INSERT INTO preferences (user_id, work_start_hour, work_end_hour, buffer_minutes, assertiveness, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO NOTHING`,
		p.UserID, p.WorkStartHour, p.WorkEndHour, p.BufferMinutes, p.Assertiveness, fmtTime(p.UpdatedAt))
	if err != nil {
		return nil, fmt.Errorf("create default preferences: %w", err)
	}
	return &p, nil
}

// PreferencesUpdate carries a partial preference change. Nil fields keep
// their current value, so 0 stays a settable hour and buffer.
type PreferencesUpdate struct {
	WorkStartHour *int
	WorkEndHour   *int
	BufferMinutes *int
	Assertiveness string
}

// UpdatePreferences applies a partial update to the user's preferences.
func (s *Store) UpdatePreferences(userID string, upd *PreferencesUpdate) (*Preferences, error) {
	current, err := s.GetPreferences(userID)
	if err != nil {
		return nil, err
	}

	if upd.WorkStartHour != nil {
		current.WorkStartHour = *upd.WorkStartHour
	}
	if upd.WorkEndHour != nil {
		current.WorkEndHour = *upd.WorkEndHour
	}
	if upd.BufferMinutes != nil {
		current.BufferMinutes = *upd.BufferMinutes
	}
	if upd.Assertiveness != "" {
		current.Assertiveness = upd.Assertiveness
	}
	if current.WorkStartHour < 0 || current.WorkEndHour > 24 || current.WorkEndHour <= current.WorkStartHour {
		return nil, fmt.Errorf("update preferences: working hours must satisfy 0 <= start < end <= 24")
	}
	if current.BufferMinutes < 0 {
		return nil, fmt.Errorf("update preferences: buffer_minutes cannot be negative")
	}

	current.UpdatedAt = time.Now()
	_, err = s.db.Exec(`
		UPDATE preferences
		SET work_start_hour = ?, work_end_hour = ?, buffer_minutes = ?, assertiveness = ?, updated_at = ?
		WHERE user_id = ?`,
		current.WorkStartHour, current.WorkEndHour, current.BufferMinutes,
		current.Assertiveness, fmtTime(current.UpdatedAt), current.UserID)
	if err != nil {
		return nil, fmt.Errorf("update preferences: %w", err)
	}
	return current, nil
}
