// Package store – habits.go persists tracked habits and their completion
// logs. "Pending" means no log on or after the given day's local midnight.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CreateHabit stores a new habit. Frequency defaults to "daily".
func (s *Store) CreateHabit(userID, title, description, frequency, timeOfDay string) (*Habit, error) {
	if title == "" {
		return nil, fmt.Errorf("create habit: empty title")
	}
	if frequency == "" {
		frequency = "daily"
	}

	h := &Habit{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       title,
		Description: description,
		Frequency:   frequency,
		TimeOfDay:   timeOfDay,
		CreatedAt:   time.Now(),
	}
	_, err := s.db.Exec(`
		INSERT INTO habits (id, user_id, title, description, frequency, time_of_day, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		h.ID, h.UserID, h.Title, h.Description, h.Frequency, h.TimeOfDay, fmtTime(h.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("create habit: %w", err)
	}
	return h, nil
}

// LogHabit records a completion for a habit.
func (s *Store) LogHabit(habitID, notes string) (*HabitLog, error) {
	// Verify the habit exists so a log can never orphan.
	var exists int
	err := s.db.QueryRow(`SELECT 1 FROM habits WHERE id = ?`, habitID).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("log habit: habit %s not found", habitID)
		}
		return nil, fmt.Errorf("log habit: %w", err)
	}

	now := time.Now()
	res, err := s.db.Exec(`
		INSERT INTO habit_logs (habit_id, notes, completed_at)
		VALUES (?, ?, ?)`,
		habitID, notes, fmtTime(now))
	if err != nil {
		return nil, fmt.Errorf("log habit: %w", err)
	}
	id, _ := res.LastInsertId()
	return &HabitLog{ID: id, HabitID: habitID, Notes: notes, CompletedAt: now}, nil
}

// UserHabits returns all of a user's habits, each with its five most
// recent completion logs.
func (s *Store) UserHabits(userID string) ([]*Habit, error) {
	habits, err := s.queryHabits(`
		SELECT id, user_id, title, description, frequency, time_of_day, created_at
		FROM habits WHERE user_id = ? ORDER BY created_at ASC`, userID)
	if err != nil {
		return nil, err
	}

	for _, h := range habits {
		logs, err := s.habitLogs(h.ID, 5)
		if err != nil {
			return nil, err
		}
		h.RecentLogs = logs
	}
	return habits, nil
}

// PendingHabits returns habits with zero logs since the given instant,
// typically local midnight of the current day.
func (s *Store) PendingHabits(userID string, since time.Time) ([]*Habit, error) {
	return s.queryHabits(`
		SELECT h.id, h.user_id, h.title, h.description, h.frequency, h.time_of_day, h.created_at
		FROM habits h
		WHERE h.user_id = ?
		  AND NOT EXISTS (
			SELECT 1 FROM habit_logs l
			WHERE l.habit_id = h.id AND l.completed_at >= ?
		  )
		ORDER BY h.created_at ASC`, userID, fmtTime(since))
}

// CompletedHabits returns habits with at least one log since the given
// instant, used by the evening summary.
func (s *Store) CompletedHabits(userID string, since time.Time) ([]*Habit, error) {
	return s.queryHabits(`
		SELECT DISTINCT h.id, h.user_id, h.title, h.description, h.frequency, h.time_of_day, h.created_at
		FROM habits h
		JOIN habit_logs l ON l.habit_id = h.id
		WHERE h.user_id = ? AND l.completed_at >= ?
		ORDER BY h.created_at ASC`, userID, fmtTime(since))
}

// CountHabits returns the number of habits a user tracks.
func (s *Store) CountHabits(userID string) (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM habits WHERE user_id = ?`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count habits: %w", err)
	}
	return n, nil
}

// DeleteHabit removes a habit and (via cascade) its logs.
func (s *Store) DeleteHabit(habitID string) error {
	res, err := s.db.Exec(`DELETE FROM habits WHERE id = ?`, habitID)
	if err != nil {
		return fmt.Errorf("delete habit: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete habit: habit %s not found", habitID)
	}
	return nil
}

func (s *Store) queryHabits(query string, args ...any) ([]*Habit, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query habits: %w", err)
	}
	defer rows.Close()

	var habits []*Habit
	for rows.Next() {
		var (
			h         Habit
			createdAt string
		)
		if err := rows.Scan(&h.ID, &h.UserID, &h.Title, &h.Description,
			&h.Frequency, &h.TimeOfDay, &createdAt); err != nil {
			return nil, fmt.Errorf("scan habit: %w", err)
		}
		h.CreatedAt = parseTime(createdAt)
		habits = append(habits, &h)
	}
	return habits, rows.Err()
}

func (s *Store) habitLogs(habitID string, limit int) ([]HabitLog, error) {
	rows, err := s.db.Query(`
		SELECT id, habit_id, notes, completed_at
		FROM habit_logs WHERE habit_id = ?
		ORDER BY completed_at DESC LIMIT ?`, habitID, limit)
	if err != nil {
		return nil, fmt.Errorf("load habit logs: %w", err)
	}
	defer rows.Close()

	var logs []HabitLog
	for rows.Next() {
		var (
			l           HabitLog
			completedAt string
		)
		if err := rows.Scan(&l.ID, &l.HabitID, &l.Notes, &completedAt); err != nil {
			return nil, fmt.Errorf("scan habit log: %w", err)
		}
		l.CompletedAt = parseTime(completedAt)
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
