package calendar

import (
	"testing"
	"time"
)

// Monday 2026-01-05 in UTC keeps the weekday math stable.
var monday = time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

func at(day time.Time, hour, min int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, min, 0, 0, day.Location())
}

func TestScanSlotsInvariants(t *testing.T) {
	busy := []BusyPeriod{
		{Start: at(monday, 9, 0), End: at(monday, 10, 0)},
		{Start: at(monday, 11, 0), End: at(monday, 12, 30)},
	}
	q := SlotQuery{
		RangeStart:      at(monday, 8, 0),
		RangeEnd:        at(monday, 17, 0),
		DurationMinutes: 30,
		WorkStartHour:   9,
		WorkEndHour:     17,
	}

	slots := ScanSlots(q, busy)
	if len(slots) == 0 {
		t.Fatal("no slots found")
	}

	// Earliest valid slot first: 10:00, right after the first busy block.
	if !slots[0].Start.Equal(at(monday, 10, 0)) {
		t.Errorf("first slot = %v, want 10:00", slots[0].Start)
	}

	for i, s := range slots {
		if got := s.End.Sub(s.Start); got != 30*time.Minute {
			t.Errorf("slot %d duration = %v", i, got)
		}
		if s.Start.Before(q.RangeStart) || s.End.After(q.RangeEnd) {
			t.Errorf("slot %d outside range: %v-%v", i, s.Start, s.End)
		}
		if s.Start.Hour() < 9 || s.End.Hour() > 17 || (s.End.Hour() == 17 && s.End.Minute() > 0) {
			t.Errorf("slot %d outside working window: %v-%v", i, s.Start, s.End)
		}
		for _, b := range busy {
			if s.Start.Before(b.End) && s.End.After(b.Start) {
				t.Errorf("slot %d overlaps busy %v-%v", i, b.Start, b.End)
			}
		}
	}
}

func TestScanSlotsBoundaryTouchingBusyIsFree(t *testing.T) {
	// Busy ends exactly at the candidate start: half-open semantics say free.
	busy := []BusyPeriod{{Start: at(monday, 9, 0), End: at(monday, 10, 0)}}
	q := SlotQuery{
		RangeStart:      at(monday, 10, 0),
		RangeEnd:        at(monday, 11, 0),
		DurationMinutes: 60,
		WorkStartHour:   9,
		WorkEndHour:     17,
		MinSlots:        1,
	}
	slots := ScanSlots(q, busy)
	if len(slots) != 1 || !slots[0].Start.Equal(at(monday, 10, 0)) {
		t.Fatalf("slots = %v, want single 10:00-11:00", slots)
	}
}

func TestScanSlotsSkipsWeekend(t *testing.T) {
	saturday := time.Date(2026, 1, 3, 8, 0, 0, 0, time.UTC)
	q := SlotQuery{
		RangeStart:      saturday,
		RangeEnd:        saturday.AddDate(0, 0, 3),
		DurationMinutes: 60,
		WorkStartHour:   9,
		WorkEndHour:     17,
		MinSlots:        1,
	}
	slots := ScanSlots(q, nil)
	if len(slots) != 1 {
		t.Fatalf("slots = %d, want 1", len(slots))
	}
	// First slot lands on Monday 09:00, not Saturday or Sunday.
	if !slots[0].Start.Equal(at(monday, 9, 0)) {
		t.Errorf("first slot = %v, want Monday 09:00", slots[0].Start)
	}
}

func TestScanSlotsMinSlotsStopsEarly(t *testing.T) {
	q := SlotQuery{
		RangeStart:      at(monday, 9, 0),
		RangeEnd:        at(monday, 17, 0),
		DurationMinutes: 15,
		WorkStartHour:   9,
		WorkEndHour:     17,
		MinSlots:        3,
	}
	slots := ScanSlots(q, nil)
	if len(slots) != 3 {
		t.Fatalf("slots = %d, want 3", len(slots))
	}
}

func TestScanSlotsRespectsDayEnd(t *testing.T) {
	// A 2-hour slot cannot start at 16:00 with a 17:00 work end.
	q := SlotQuery{
		RangeStart:      at(monday, 15, 30),
		RangeEnd:        at(monday, 23, 0),
		DurationMinutes: 120,
		WorkStartHour:   9,
		WorkEndHour:     17,
	}
	slots := ScanSlots(q, nil)
	if len(slots) != 0 {
		t.Fatalf("slots = %v, want none (day end + range end cut off)", slots)
	}
}

func TestScanSlotsDegenerateInput(t *testing.T) {
	if s := ScanSlots(SlotQuery{RangeStart: monday, RangeEnd: monday}, nil); s != nil {
		t.Errorf("empty range produced slots: %v", s)
	}
	if s := ScanSlots(SlotQuery{RangeStart: monday, RangeEnd: monday.Add(time.Hour)}, nil); s != nil {
		t.Errorf("zero duration produced slots: %v", s)
	}
}

func timedEvent(summary string, start, end time.Time) Event {
	return Event{
		Summary: summary,
		Start:   &EventDateTime{DateTime: start.Format(time.RFC3339)},
		End:     &EventDateTime{DateTime: end.Format(time.RFC3339)},
	}
}

func TestConflictCount(t *testing.T) {
	tests := []struct {
		name   string
		events []Event
		want   int
	}{
		{
			name: "overlapping adjacent pair",
			events: []Event{
				// A ends 10:30, B starts 10:00.
				timedEvent("B", at(monday, 10, 0), at(monday, 11, 0)),
				timedEvent("A", at(monday, 9, 30), at(monday, 10, 30)),
				timedEvent("C", at(monday, 13, 0), at(monday, 14, 0)),
			},
			want: 1,
		},
		{
			name: "back to back is not a conflict",
			events: []Event{
				timedEvent("A", at(monday, 9, 0), at(monday, 10, 0)),
				timedEvent("B", at(monday, 10, 0), at(monday, 11, 0)),
			},
			want: 0,
		},
		{
			name: "all-day events excluded",
			events: []Event{
				{Summary: "Holiday", Start: &EventDateTime{Date: "2026-01-05"}, End: &EventDateTime{Date: "2026-01-06"}},
				timedEvent("A", at(monday, 9, 0), at(monday, 10, 0)),
				timedEvent("B", at(monday, 11, 0), at(monday, 12, 0)),
			},
			want: 0,
		},
		{
			name:   "empty agenda",
			events: nil,
			want:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ConflictCount(tt.events, time.UTC); got != tt.want {
				t.Errorf("ConflictCount = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestIsAllDayAndFormat(t *testing.T) {
	allDay := Event{Start: &EventDateTime{Date: "2026-01-05"}, End: &EventDateTime{Date: "2026-01-06"}}
	if !allDay.IsAllDay() {
		t.Error("date-only event not detected as all-day")
	}
	if got := allDay.FormatTime(time.UTC); got != "Monday, 5 January 2026" {
		t.Errorf("all-day format = %q", got)
	}

	timed := timedEvent("Standup", at(monday, 9, 0), at(monday, 9, 15))
	if timed.IsAllDay() {
		t.Error("timed event detected as all-day")
	}
	if got := timed.FormatTime(time.UTC); got != "Mon, 5 Jan, 09:00 - 09:15" {
		t.Errorf("timed format = %q", got)
	}
}

func TestEventOverlaps(t *testing.T) {
	a := timedEvent("A", at(monday, 9, 0), at(monday, 10, 0))
	b := timedEvent("B", at(monday, 9, 30), at(monday, 10, 30))
	c := timedEvent("C", at(monday, 10, 0), at(monday, 11, 0))

	if !a.Overlaps(&b, time.UTC) {
		t.Error("a/b should overlap")
	}
	// Touching boundaries do not overlap (half-open).
	if a.Overlaps(&c, time.UTC) {
		t.Error("a/c touch but must not overlap")
	}
}
