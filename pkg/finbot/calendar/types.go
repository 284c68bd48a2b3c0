// Package calendar – types.go defines the Google Calendar wire types and
// the helpers that branch on all-day versus timed events.
package calendar

import (
	"time"
)

// EventDateTime is a calendar instant. Timed events carry DateTime
// (RFC3339); all-day events carry Date (YYYY-MM-DD) and never a
// time-of-day.
type EventDateTime struct {
	DateTime string `json:"dateTime,omitempty"`
	Date     string `json:"date,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

// Time resolves the instant in the given location. All-day dates resolve
// to local midnight. Returns false when both fields are empty.
func (dt *EventDateTime) Time(loc *time.Location) (time.Time, bool) {
	if dt == nil {
		return time.Time{}, false
	}
	if dt.DateTime != "" {
		t, err := time.Parse(time.RFC3339, dt.DateTime)
		if err != nil {
			return time.Time{}, false
		}
		return t.In(loc), true
	}
	if dt.Date != "" {
		t, err := time.ParseInLocation("2006-01-02", dt.Date, loc)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}
	return time.Time{}, false
}

// Attendee is an event participant with their response status.
type Attendee struct {
	Email          string `json:"email,omitempty"`
	DisplayName    string `json:"displayName,omitempty"`
	ResponseStatus string `json:"responseStatus,omitempty"`
	Organizer      bool   `json:"organizer,omitempty"`
}

// Event is a Google Calendar event. Not persisted locally; always fetched
// live.
type Event struct {
	ID          string         `json:"id,omitempty"`
	Status      string         `json:"status,omitempty"`
	Summary     string         `json:"summary,omitempty"`
	Description string         `json:"description,omitempty"`
	Location    string         `json:"location,omitempty"`
	Start       *EventDateTime `json:"start,omitempty"`
	End         *EventDateTime `json:"end,omitempty"`
	Attendees   []Attendee     `json:"attendees,omitempty"`
	Recurrence  []string       `json:"recurrence,omitempty"`
	HangoutLink string         `json:"hangoutLink,omitempty"`
	HTMLLink    string         `json:"htmlLink,omitempty"`
}

// IsAllDay reports whether the event is an all-day event: a date with no
// time component.
func (e *Event) IsAllDay() bool {
	return e.Start != nil && e.Start.Date != "" && e.Start.DateTime == ""
}

// StartTime resolves the event's start in loc.
func (e *Event) StartTime(loc *time.Location) (time.Time, bool) {
	return e.Start.Time(loc)
}

// EndTime resolves the event's end in loc.
func (e *Event) EndTime(loc *time.Location) (time.Time, bool) {
	return e.End.Time(loc)
}

// Overlaps reports whether two timed events intersect, using half-open
// interval semantics. All-day events never overlap anything here; they
// have no meaningful overlap semantics.
func (e *Event) Overlaps(other *Event, loc *time.Location) bool {
	if e.IsAllDay() || other.IsAllDay() {
		return false
	}
	s1, ok1 := e.StartTime(loc)
	e1, ok2 := e.EndTime(loc)
	s2, ok3 := other.StartTime(loc)
	e2, ok4 := other.EndTime(loc)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return false
	}
	return s1.Before(e2) && e1.After(s2)
}

// FormatTime renders the event's time for chat display, branching on the
// all-day distinction.
func (e *Event) FormatTime(loc *time.Location) string {
	if e.IsAllDay() {
		start, ok := e.StartTime(loc)
		if !ok {
			return "waktu tidak diketahui"
		}
		return start.Format("Monday, 2 January 2006")
	}

	start, ok1 := e.StartTime(loc)
	end, ok2 := e.EndTime(loc)
	if !ok1 || !ok2 {
		return "waktu tidak diketahui"
	}
	return start.Format("Mon, 2 Jan") + ", " +
		start.Format("15:04") + " - " + end.Format("15:04")
}

// BusyPeriod is an occupied interval from a free/busy query.
type BusyPeriod struct {
	Start time.Time
	End   time.Time
}

// TimeSlot is a candidate meeting slot.
type TimeSlot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}
