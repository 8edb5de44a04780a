package calendar

import "time"

// View is a calendar display unit.
type View string

const (
	ViewMonth View = "month"
	ViewWeek  View = "week"
	ViewDay   View = "day"
)

// Step moves the anchor date by delta units of the view. It is a pure
// function of the anchor: stepping forward then back always returns to the
// starting anchor day.
func Step(view View, anchor time.Time, delta int) time.Time {
	switch view {
	case ViewMonth:
		// Anchor to the first of the month so short months can't skip.
		first := time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, anchor.Location())
		return first.AddDate(0, delta, 0)
	case ViewWeek:
		return startOfDay(anchor).AddDate(0, 0, 7*delta)
	default:
		return startOfDay(anchor).AddDate(0, 0, delta)
	}
}

// Today returns the anchor for jump-to-today.
func Today(now time.Time) time.Time {
	return startOfDay(now)
}

// weekStart returns the Sunday beginning the week containing t, at midnight.
func weekStart(t time.Time) time.Time {
	d := startOfDay(t)
	return d.AddDate(0, 0, -int(d.Weekday()))
}
