// Package calendar – availability.go answers free/busy and slot-finding
// queries. The slot scan is a greedy forward walk in 15-minute steps: it
// trades optimality for determinism and always yields the earliest
// available slots first.
package calendar

import (
	"context"
	"sort"
	"time"
)

// scanStep is the slot scan resolution.
const scanStep = 15 * time.Minute

// SlotQuery describes a slot search.
type SlotQuery struct {
	RangeStart      time.Time
	RangeEnd        time.Time
	DurationMinutes int

	// WorkStartHour and WorkEndHour bound the working window, local hours.
	WorkStartHour int
	WorkEndHour   int

	// MinSlots stops the scan early once this many slots are found.
	// Zero means scan the whole range.
	MinSlots int
}

// IsTimeFree reports whether the window [start, end) has zero busy
// periods. Boundary-touching busy periods count as free.
func (c *Client) IsTimeFree(ctx context.Context, token string, start, end time.Time) (bool, error) {
	busy, err := c.FreeBusy(ctx, token, start, end)
	if err != nil {
		return false, err
	}
	return len(busy) == 0, nil
}

// FindAvailableSlots scans the query range for open slots of the requested
// duration, fetching busy periods once up front.
func (c *Client) FindAvailableSlots(ctx context.Context, token string, q SlotQuery) ([]TimeSlot, error) {
	busy, err := c.FreeBusy(ctx, token, q.RangeStart, q.RangeEnd)
	if err != nil {
		return nil, err
	}
	return ScanSlots(q, busy), nil
}

// ScanSlots walks the range in fixed 15-minute steps. Weekends are skipped
// entirely (jump to the next day's work start), as are hours outside the
// working window. A candidate is accepted only if it overlaps no busy
// period under half-open semantics: candStart < busyEnd && candEnd >
// busyStart.
func ScanSlots(q SlotQuery, busy []BusyPeriod) []TimeSlot {
	if q.DurationMinutes <= 0 || !q.RangeEnd.After(q.RangeStart) {
		return nil
	}
	workStart := q.WorkStartHour
	workEnd := q.WorkEndHour
	if workStart == 0 && workEnd == 0 {
		workStart, workEnd = 9, 17
	}
	duration := time.Duration(q.DurationMinutes) * time.Minute

	var slots []TimeSlot
	cur := q.RangeStart.Truncate(time.Minute)
	for cur.Before(q.RangeEnd) {
		// Skip weekends to the next day's work start.
		if wd := cur.Weekday(); wd == time.Saturday || wd == time.Sunday {
			cur = nextDayAt(cur, workStart)
			continue
		}
		// Clamp into the working window.
		if cur.Hour() < workStart {
			cur = time.Date(cur.Year(), cur.Month(), cur.Day(), workStart, 0, 0, 0, cur.Location())
			continue
		}
		if cur.Hour() >= workEnd {
			cur = nextDayAt(cur, workStart)
			continue
		}

		slotEnd := cur.Add(duration)
		dayEnd := time.Date(cur.Year(), cur.Month(), cur.Day(), workEnd, 0, 0, 0, cur.Location())
		if slotEnd.After(dayEnd) {
			cur = nextDayAt(cur, workStart)
			continue
		}
		if slotEnd.After(q.RangeEnd) {
			break
		}

		if !overlapsAny(cur, slotEnd, busy) {
			slots = append(slots, TimeSlot{Start: cur, End: slotEnd})
			if q.MinSlots > 0 && len(slots) >= q.MinSlots {
				break
			}
		}
		cur = cur.Add(scanStep)
	}
	return slots
}

// overlapsAny tests half-open interval intersection against every busy
// period.
func overlapsAny(start, end time.Time, busy []BusyPeriod) bool {
	for _, b := range busy {
		if start.Before(b.End) && end.After(b.Start) {
			return true
		}
	}
	return false
}

func nextDayAt(t time.Time, hour int) time.Time {
	next := t.AddDate(0, 0, 1)
	return time.Date(next.Year(), next.Month(), next.Day(), hour, 0, 0, 0, t.Location())
}

// ConflictCount counts adjacent-pair overlaps in a same-day agenda: after
// sorting timed events by start, each pair where the earlier event's end
// exceeds the next one's start is a conflict. All-day events are excluded;
// they have no meaningful overlap semantics.
func ConflictCount(events []Event, loc *time.Location) int {
	type timed struct {
		start, end time.Time
	}
	var list []timed
	for i := range events {
		e := &events[i]
		if e.IsAllDay() {
			continue
		}
		s, ok1 := e.StartTime(loc)
		en, ok2 := e.EndTime(loc)
		if !ok1 || !ok2 {
			continue
		}
		list = append(list, timed{start: s, end: en})
	}

	sort.Slice(list, func(i, j int) bool { return list[i].start.Before(list[j].start) })

	conflicts := 0
	for i := 0; i+1 < len(list); i++ {
		if list[i].end.After(list[i+1].start) {
			conflicts++
		}
	}
	return conflicts
}
