package calendar

import (
	"fmt"
	"log/slog"
	"time"
)

// MinPlacementMinutes is the smallest visual block a timed event occupies in
// the hourly views.
const MinPlacementMinutes = 20

// Classification is the derived per-event shape used by the projectors.
// Start and End are the parsed dates; when Malformed is set they are the
// fallback anchor, not what the row says.
type Classification struct {
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	AllDay          bool      `json:"all_day"`
	MultiDay        bool      `json:"multi_day"`
	Malformed       bool      `json:"malformed,omitempty"`
	DurationDays    int       `json:"duration_days"`
	DurationMinutes int       `json:"duration_minutes"`
}

// eventTimeLayouts are tried in order when parsing stored wall-clock dates.
var eventTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseEventTime parses a stored ISO 8601 wall-clock date string.
func ParseEventTime(s string) (time.Time, error) {
	for _, layout := range eventTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable event time %q", s)
}

// Classify derives the display shape of an event. It never fails: an event
// with an unparseable start date is classified as a single-day, non-all-day
// event anchored at now, with the error logged, so it still renders instead
// of disappearing.
func Classify(e Event) Classification {
	return classifyAt(e, time.Now())
}

func classifyAt(e Event, now time.Time) Classification {
	start, err := ParseEventTime(e.StartDate)
	if err != nil {
		slog.Error("malformed event start date", "source", e.Source, "id", e.ID, "error", err)
		anchor := now.Truncate(time.Minute)
		return Classification{
			Start:           anchor,
			End:             anchor,
			Malformed:       true,
			DurationDays:    1,
			DurationMinutes: 0,
		}
	}

	end, err := ParseEventTime(e.EndDate)
	if err != nil {
		slog.Error("malformed event end date", "source", e.Source, "id", e.ID, "error", err)
		end = start
	}

	c := Classification{Start: start, End: end}

	// All-day is a heuristic over clock times, not a stored flag: starts at
	// midnight and ends at 23:59 (any seconds) or on a midnight boundary. A
	// zero-duration midnight event counts as all-day; accepted ambiguity.
	startsMidnight := start.Hour() == 0 && start.Minute() == 0
	endsAllDay := (end.Hour() == 23 && end.Minute() == 59) || (end.Hour() == 0 && end.Minute() == 0)
	c.AllDay = startsMidnight && endsAllDay

	startDay := startOfDay(start)
	endDay := startOfDay(end)
	c.MultiDay = endDay.After(startDay)

	if c.MultiDay {
		c.DurationDays = int(endDay.Sub(startDay).Hours()/24) + 1
	} else {
		c.DurationDays = 1
	}

	if mins := int(end.Sub(start).Minutes()); mins > 0 {
		c.DurationMinutes = mins
	}

	return c
}

// PlacementMinutes is the duration used for visual block sizing in the
// hourly views, floored at the minimum block size.
func (c Classification) PlacementMinutes() int {
	if c.DurationMinutes < MinPlacementMinutes {
		return MinPlacementMinutes
	}
	return c.DurationMinutes
}

// CoversDay reports whether the given calendar day falls within the event's
// [start date, end date] span, inclusive.
func (c Classification) CoversDay(day time.Time) bool {
	d := startOfDay(day)
	return !d.Before(startOfDay(c.Start)) && !d.After(startOfDay(c.End))
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
