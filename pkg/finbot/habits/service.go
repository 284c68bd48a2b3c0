// Package habits – service.go implements habit tracking on top of the
// store. A habit is "pending" for a day when it has zero completion logs
// on or after that day's local midnight.
package habits

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jholhewres/finbot/pkg/finbot/store"
)

// Service provides habit operations for the tool layer and the jobs.
type Service struct {
	store  *store.Store
	loc    *time.Location
	logger *slog.Logger
}

// NewService creates a habit service. loc is the assistant's local
// timezone, used to compute day boundaries.
func NewService(st *store.Store, loc *time.Location, logger *slog.Logger) *Service {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: st, loc: loc, logger: logger.With("component", "habits")}
}

// Create adds a habit. frequency defaults to daily; timeOfDay is one of
// morning/afternoon/evening or empty.
func (s *Service) Create(userID, title, description, frequency, timeOfDay string) (*store.Habit, error) {
	switch frequency {
	case "", "daily", "weekly":
	default:
		return nil, fmt.Errorf("create habit: invalid frequency %q", frequency)
	}
	h, err := s.store.CreateHabit(userID, title, description, frequency, timeOfDay)
	if err != nil {
		return nil, err
	}
	s.logger.Info("habit created", "user_id", userID, "title", title)
	return h, nil
}

// Log records a completion for a habit.
func (s *Service) Log(habitID, notes string) (*store.HabitLog, error) {
	return s.store.LogHabit(habitID, notes)
}

// List returns the user's habits with recent logs.
func (s *Service) List(userID string) ([]*store.Habit, error) {
	return s.store.UserHabits(userID)
}

// Pending returns habits not yet completed today.
func (s *Service) Pending(userID string, now time.Time) ([]*store.Habit, error) {
	return s.store.PendingHabits(userID, s.Midnight(now))
}

// CompletedToday returns habits with at least one completion today.
func (s *Service) CompletedToday(userID string, now time.Time) ([]*store.Habit, error) {
	return s.store.CompletedHabits(userID, s.Midnight(now))
}

// Count returns how many habits the user tracks.
func (s *Service) Count(userID string) (int, error) {
	return s.store.CountHabits(userID)
}

// Delete removes a habit and its logs.
func (s *Service) Delete(habitID string) error {
	return s.store.DeleteHabit(habitID)
}

// Midnight returns local midnight of the day containing t.
func (s *Service) Midnight(t time.Time) time.Time {
	local := t.In(s.loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.loc)
}
