// Package agent – tools_prefs.go exposes the user's scheduling preferences
// as model-callable tools.
package agent

import (
	"context"
	"fmt"

	"github.com/jholhewres/finbot/pkg/finbot/store"
)

func (t *Tools) registerPreferenceTools(r *Registry) {
	r.Register(MakeToolDefinition("get_user_preferences",
		"Read the user's scheduling preferences: working hours, buffer between meetings, and reminder assertiveness.",
		nil), t.getUserPreferences)

	r.Register(MakeToolDefinition("update_user_preferences",
		"Update scheduling preferences. Only provided fields change. Hours are 0-23 local; assertiveness is low, medium, or high.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"work_start_hour": map[string]any{"type": "integer"},
				"work_end_hour":   map[string]any{"type": "integer"},
				"buffer_minutes":  map[string]any{"type": "integer"},
				"assertiveness":   map[string]any{"type": "string", "enum": []string{"low", "medium", "high"}},
			},
		}), t.updateUserPreferences)
}

func (t *Tools) getUserPreferences(ctx context.Context, _ map[string]any) (any, error) {
	userID := UserIDFrom(ctx)
	if userID == "" {
		return nil, fmt.Errorf("no user in this conversation")
	}
	prefs, err := t.store.GetPreferences(userID)
	if err != nil {
		return nil, err
	}
	return prefsSummary(prefs), nil
}

func (t *Tools) updateUserPreferences(ctx context.Context, args map[string]any) (any, error) {
	userID := UserIDFrom(ctx)
	if userID == "" {
		return nil, fmt.Errorf("no user in this conversation")
	}

	updated, err := t.store.UpdatePreferences(userID, &store.PreferencesUpdate{
		WorkStartHour: optIntArg(args, "work_start_hour"),
		WorkEndHour:   optIntArg(args, "work_end_hour"),
		BufferMinutes: optIntArg(args, "buffer_minutes"),
		Assertiveness: stringArg(args, "assertiveness"),
	})
	if err != nil {
		return nil, err
	}
	return prefsSummary(updated), nil
}

func prefsSummary(p *store.Preferences) map[string]any {
	return map[string]any{
		"work_start_hour": p.WorkStartHour,
		"work_end_hour":   p.WorkEndHour,
		"buffer_minutes":  p.BufferMinutes,
		"assertiveness":   p.Assertiveness,
	}
}
