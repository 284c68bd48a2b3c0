// Package agent – tools_habits.go exposes habit tracking as model-callable
// tools. Habits live in local storage, so no external credential is needed.
package agent

import (
	"context"
	"fmt"
	"time"
)

func (t *Tools) registerHabitTools(r *Registry) {
	r.Register(MakeToolDefinition("create_habit",
		"Create a habit to track. Frequency is 'daily' or 'weekly' (default daily); time_of_day is a hint like 'pagi' or 'sebelum tidur'.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"title":       map[string]any{"type": "string"},
				"description": map[string]any{"type": "string"},
				"frequency":   map[string]any{"type": "string", "enum": []string{"daily", "weekly"}},
				"time_of_day": map[string]any{"type": "string"},
			},
			"required": []string{"title"},
		}), t.createHabit)

	r.Register(MakeToolDefinition("log_habit",
		"Record that a habit was completed just now. Optional notes.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"habit_id": map[string]any{"type": "string"},
				"notes":    map[string]any{"type": "string"},
			},
			"required": []string{"habit_id"},
		}), t.logHabit)

	r.Register(MakeToolDefinition("get_user_habits",
		"List the user's tracked habits with their recent completions.",
		nil), t.getUserHabits)

	r.Register(MakeToolDefinition("get_pending_habits",
		"List habits not yet completed today.",
		nil), t.getPendingHabits)

	r.Register(MakeToolDefinition("delete_habit",
		"Stop tracking a habit. This also removes its completion history.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"habit_id": map[string]any{"type": "string"},
			},
			"required": []string{"habit_id"},
		}), t.deleteHabit)
}

func (t *Tools) createHabit(ctx context.Context, args map[string]any) (any, error) {
	userID := UserIDFrom(ctx)
	if userID == "" {
		return nil, fmt.Errorf("no user in this conversation")
	}
	title, err := requiredString(args, "title")
	if err != nil {
		return nil, err
	}

	habit, err := t.habits.Create(userID, title,
		stringArg(args, "description"),
		stringArg(args, "frequency"),
		stringArg(args, "time_of_day"))
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"id":        habit.ID,
		"title":     habit.Title,
		"frequency": habit.Frequency,
	}, nil
}

func (t *Tools) logHabit(ctx context.Context, args map[string]any) (any, error) {
	habitID, err := requiredString(args, "habit_id")
	if err != nil {
		return nil, err
	}
	if _, err := t.habits.Log(habitID, stringArg(args, "notes")); err != nil {
		return nil, err
	}
	return "Tercatat. Mantap, konsisten terus!", nil
}

func (t *Tools) getUserHabits(ctx context.Context, _ map[string]any) (any, error) {
	userID := UserIDFrom(ctx)
	if userID == "" {
		return nil, fmt.Errorf("no user in this conversation")
	}
	list, err := t.habits.List(userID)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return "Belum ada habit yang dilacak.", nil
	}

	out := make([]map[string]any, 0, len(list))
	for _, h := range list {
		entry := map[string]any{
			"id":        h.ID,
			"title":     h.Title,
			"frequency": h.Frequency,
		}
		if h.TimeOfDay != "" {
			entry["time_of_day"] = h.TimeOfDay
		}
		if len(h.RecentLogs) > 0 {
			entry["last_completed"] = h.RecentLogs[0].CompletedAt.In(t.loc).Format("Mon, 2 Jan 15:04")
			entry["recent_completions"] = len(h.RecentLogs)
		}
		out = append(out, entry)
	}
	return map[string]any{"habits": out}, nil
}

func (t *Tools) getPendingHabits(ctx context.Context, _ map[string]any) (any, error) {
	userID := UserIDFrom(ctx)
	if userID == "" {
		return nil, fmt.Errorf("no user in this conversation")
	}
	pending, err := t.habits.Pending(userID, time.Now())
	if err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		return "Semua habit hari ini sudah selesai.", nil
	}

	out := make([]map[string]string, 0, len(pending))
	for _, h := range pending {
		out = append(out, map[string]string{"id": h.ID, "title": h.Title})
	}
	return map[string]any{"pending": out}, nil
}

func (t *Tools) deleteHabit(ctx context.Context, args map[string]any) (any, error) {
	habitID, err := requiredString(args, "habit_id")
	if err != nil {
		return nil, err
	}
	if err := t.habits.Delete(habitID); err != nil {
		return nil, err
	}
	return "Habit dihapus.", nil
}
