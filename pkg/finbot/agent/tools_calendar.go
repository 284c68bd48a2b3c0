// Package agent – tools_calendar.go exposes the Google Calendar operations
// as model-callable tools. Every handler resolves a fresh access token for
// the turn's user before touching the API.
package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/jholhewres/finbot/pkg/finbot/calendar"
)

func (t *Tools) registerCalendarTools(r *Registry) {
	r.Register(MakeToolDefinition("get_calendar_events",
		"List upcoming calendar events. Optional RFC3339 time_min/time_max bound the range; max_results caps the count (default 10).",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"time_min":    map[string]any{"type": "string", "description": "RFC3339 lower bound, default now"},
				"time_max":    map[string]any{"type": "string", "description": "RFC3339 upper bound, optional"},
				"max_results": map[string]any{"type": "integer", "description": "maximum events to return"},
			},
		}), t.getCalendarEvents)

	r.Register(MakeToolDefinition("create_calendar_event",
		"Create a calendar event with a title and RFC3339 start/end times. Optional description, location, and attendee emails.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"summary":     map[string]any{"type": "string"},
				"start":       map[string]any{"type": "string", "description": "RFC3339 start time"},
				"end":         map[string]any{"type": "string", "description": "RFC3339 end time"},
				"description": map[string]any{"type": "string"},
				"location":    map[string]any{"type": "string"},
				"attendees":   map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			},
			"required": []string{"summary", "start", "end"},
		}), t.createCalendarEvent)

	r.Register(MakeToolDefinition("update_calendar_event",
		"Update fields of an existing event by id. Only provided fields change.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"event_id":    map[string]any{"type": "string"},
				"summary":     map[string]any{"type": "string"},
				"start":       map[string]any{"type": "string", "description": "RFC3339 start time"},
				"end":         map[string]any{"type": "string", "description": "RFC3339 end time"},
				"description": map[string]any{"type": "string"},
				"location":    map[string]any{"type": "string"},
			},
			"required": []string{"event_id"},
		}), t.updateCalendarEvent)

	r.Register(MakeToolDefinition("delete_calendar_event",
		"Delete a calendar event by id.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"event_id": map[string]any{"type": "string"},
			},
			"required": []string{"event_id"},
		}), t.deleteCalendarEvent)

	r.Register(MakeToolDefinition("quick_add_calendar_event",
		"Create an event from natural language text, e.g. 'Lunch with Sarah tomorrow at noon'.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"text": map[string]any{"type": "string"},
			},
			"required": []string{"text"},
		}), t.quickAddCalendarEvent)

	r.Register(MakeToolDefinition("bulk_create_calendar_events",
		"Create several events in one call. Each item needs summary, start, and end (RFC3339).",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"events": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"summary": map[string]any{"type": "string"},
							"start":   map[string]any{"type": "string"},
							"end":     map[string]any{"type": "string"},
						},
						"required": []string{"summary", "start", "end"},
					},
				},
			},
			"required": []string{"events"},
		}), t.bulkCreateCalendarEvents)

	r.Register(MakeToolDefinition("check_time_free",
		"Check whether a time window is free of busy periods.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"start": map[string]any{"type": "string", "description": "RFC3339 window start"},
				"end":   map[string]any{"type": "string", "description": "RFC3339 window end"},
			},
			"required": []string{"start", "end"},
		}), t.checkTimeFree)

	r.Register(MakeToolDefinition("find_available_slots",
		"Find open meeting slots of a given duration within a date range, respecting the user's working hours and skipping weekends.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"range_start":      map[string]any{"type": "string", "description": "RFC3339 search start"},
				"range_end":        map[string]any{"type": "string", "description": "RFC3339 search end"},
				"duration_minutes": map[string]any{"type": "integer"},
				"min_slots":        map[string]any{"type": "integer", "description": "stop after this many slots, default 3"},
			},
			"required": []string{"range_start", "range_end", "duration_minutes"},
		}), t.findAvailableSlots)
}

func (t *Tools) getCalendarEvents(ctx context.Context, args map[string]any) (any, error) {
	_, token, err := t.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	var timeMin, timeMax time.Time
	if stringArg(args, "time_min") != "" {
		if timeMin, err = timeArg(args, "time_min", t.loc); err != nil {
			return nil, err
		}
	}
	if stringArg(args, "time_max") != "" {
		if timeMax, err = timeArg(args, "time_max", t.loc); err != nil {
			return nil, err
		}
	}

	events, err := t.calendar.ListEvents(ctx, token, timeMin, timeMax, intArg(args, "max_results", 10))
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return "Tidak ada acara di rentang waktu itu.", nil
	}

	out := make([]map[string]any, 0, len(events))
	for i := range events {
		out = append(out, t.eventSummary(&events[i]))
	}
	return map[string]any{
		"events":    out,
		"conflicts": calendar.ConflictCount(events, t.loc),
	}, nil
}

func (t *Tools) createCalendarEvent(ctx context.Context, args map[string]any) (any, error) {
	_, token, err := t.accessToken(ctx)
	if err != nil {
		return nil, err
	}
	ev, err := t.eventFromArgs(args, true)
	if err != nil {
		return nil, err
	}

	created, err := t.calendar.CreateEvent(ctx, token, ev)
	if err != nil {
		return nil, err
	}
	return t.eventSummary(created), nil
}

func (t *Tools) updateCalendarEvent(ctx context.Context, args map[string]any) (any, error) {
	_, token, err := t.accessToken(ctx)
	if err != nil {
		return nil, err
	}
	eventID, err := requiredString(args, "event_id")
	if err != nil {
		return nil, err
	}
	patch, err := t.eventFromArgs(args, false)
	if err != nil {
		return nil, err
	}

	updated, err := t.calendar.UpdateEvent(ctx, token, eventID, patch)
	if err != nil {
		return nil, err
	}
	return t.eventSummary(updated), nil
}

func (t *Tools) deleteCalendarEvent(ctx context.Context, args map[string]any) (any, error) {
	_, token, err := t.accessToken(ctx)
	if err != nil {
		return nil, err
	}
	eventID, err := requiredString(args, "event_id")
	if err != nil {
		return nil, err
	}
	if err := t.calendar.DeleteEvent(ctx, token, eventID); err != nil {
		return nil, err
	}
	return "Acara dihapus.", nil
}

func (t *Tools) quickAddCalendarEvent(ctx context.Context, args map[string]any) (any, error) {
	_, token, err := t.accessToken(ctx)
	if err != nil {
		return nil, err
	}
	text, err := requiredString(args, "text")
	if err != nil {
		return nil, err
	}
	created, err := t.calendar.QuickAdd(ctx, token, text)
	if err != nil {
		return nil, err
	}
	return t.eventSummary(created), nil
}

func (t *Tools) bulkCreateCalendarEvents(ctx context.Context, args map[string]any) (any, error) {
	_, token, err := t.accessToken(ctx)
	if err != nil {
		return nil, err
	}
	items, ok := args["events"].([]any)
	if !ok || len(items) == 0 {
		return nil, fmt.Errorf("missing required argument %q", "events")
	}

	var created []map[string]any
	for i, item := range items {
		fields, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("events[%d] is not an object", i)
		}
		ev, err := t.eventFromArgs(fields, true)
		if err != nil {
			return nil, fmt.Errorf("events[%d]: %w", i, err)
		}
		out, err := t.calendar.CreateEvent(ctx, token, ev)
		if err != nil {
			return nil, fmt.Errorf("events[%d] (%s): %w", i, ev.Summary, err)
		}
		created = append(created, t.eventSummary(out))
	}
	return map[string]any{"created": created, "count": len(created)}, nil
}

func (t *Tools) checkTimeFree(ctx context.Context, args map[string]any) (any, error) {
	_, token, err := t.accessToken(ctx)
	if err != nil {
		return nil, err
	}
	start, err := timeArg(args, "start", t.loc)
	if err != nil {
		return nil, err
	}
	end, err := timeArg(args, "end", t.loc)
	if err != nil {
		return nil, err
	}
	free, err := t.calendar.IsTimeFree(ctx, token, start, end)
	if err != nil {
		return nil, err
	}
	return map[string]any{"free": free}, nil
}

func (t *Tools) findAvailableSlots(ctx context.Context, args map[string]any) (any, error) {
	userID, token, err := t.accessToken(ctx)
	if err != nil {
		return nil, err
	}
	rangeStart, err := timeArg(args, "range_start", t.loc)
	if err != nil {
		return nil, err
	}
	rangeEnd, err := timeArg(args, "range_end", t.loc)
	if err != nil {
		return nil, err
	}

	prefs, err := t.store.GetPreferences(userID)
	if err != nil {
		return nil, err
	}

	slots, err := t.calendar.FindAvailableSlots(ctx, token, calendar.SlotQuery{
		RangeStart:      rangeStart.In(t.loc),
		RangeEnd:        rangeEnd.In(t.loc),
		DurationMinutes: intArg(args, "duration_minutes", 30),
		WorkStartHour:   prefs.WorkStartHour,
		WorkEndHour:     prefs.WorkEndHour,
		MinSlots:        intArg(args, "min_slots", 3),
	})
	if err != nil {
		return nil, err
	}
	if len(slots) == 0 {
		return "Tidak ada slot kosong di rentang itu.", nil
	}

	out := make([]map[string]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, map[string]string{
			"start": s.Start.In(t.loc).Format(time.RFC3339),
			"end":   s.End.In(t.loc).Format(time.RFC3339),
		})
	}
	return map[string]any{"slots": out}, nil
}

// eventFromArgs builds an event payload from tool arguments. When
// requireCore is set, summary, start, and end are mandatory (create);
// otherwise only the provided fields are included (patch).
func (t *Tools) eventFromArgs(args map[string]any, requireCore bool) (*calendar.Event, error) {
	ev := &calendar.Event{
		Summary:     stringArg(args, "summary"),
		Description: stringArg(args, "description"),
		Location:    stringArg(args, "location"),
	}
	if requireCore && ev.Summary == "" {
		return nil, fmt.Errorf("missing required argument %q", "summary")
	}

	for _, key := range []string{"start", "end"} {
		if stringArg(args, key) == "" {
			if requireCore {
				return nil, fmt.Errorf("missing required argument %q", key)
			}
			continue
		}
		ts, err := timeArg(args, key, t.loc)
		if err != nil {
			return nil, err
		}
		dt := &calendar.EventDateTime{
			DateTime: ts.Format(time.RFC3339),
			TimeZone: t.loc.String(),
		}
		if key == "start" {
			ev.Start = dt
		} else {
			ev.End = dt
		}
	}

	if raw, ok := args["attendees"].([]any); ok {
		for _, a := range raw {
			if email, ok := a.(string); ok && email != "" {
				ev.Attendees = append(ev.Attendees, calendar.Attendee{Email: email})
			}
		}
	}
	return ev, nil
}

// eventSummary renders an event as the compact map fed back to the model.
func (t *Tools) eventSummary(ev *calendar.Event) map[string]any {
	out := map[string]any{
		"id":      ev.ID,
		"summary": ev.Summary,
		"time":    ev.FormatTime(t.loc),
		"all_day": ev.IsAllDay(),
	}
	if ev.Location != "" {
		out["location"] = ev.Location
	}
	if ev.HangoutLink != "" {
		out["meet_link"] = ev.HangoutLink
	}
	return out
}
