package calendar

import "time"

// TimedEvent is a timed event placed in an hourly lane. The visual block is
// clipped to the starting hour: an event running past the hour boundary is
// truncated, not continued into the next lane. Known display limitation,
// kept deliberately.
type TimedEvent struct {
	PlacedEvent
	Hour           int `json:"hour"`
	OffsetMinutes  int `json:"offset_minutes"`
	ClippedMinutes int `json:"clipped_minutes"`
}

// PixelOffset converts the event's minute offset within its hour lane to
// pixels for the given lane height.
func (t TimedEvent) PixelOffset(hourHeightPx int) int {
	return t.OffsetMinutes * hourHeightPx / 60
}

// PixelHeight converts the clipped duration to pixels for the given lane
// height.
func (t TimedEvent) PixelHeight(hourHeightPx int) int {
	return t.ClippedMinutes * hourHeightPx / 60
}

// DayColumn is one day of the week (or day) projection: a banner lane for
// all-day and multi-day events, and 24 hourly lanes for timed events.
type DayColumn struct {
	Date   time.Time        `json:"date"`
	Today  bool             `json:"today"`
	AllDay []PlacedEvent    `json:"all_day"`
	Hours  [24][]TimedEvent `json:"hours"`
}

// WeekGrid is the week projection: seven day columns, Sunday first.
type WeekGrid struct {
	Start   time.Time   `json:"start"`
	Columns []DayColumn `json:"columns"`
	Partial bool        `json:"partial"`
}

// ProjectWeek buckets events into the week containing the anchor. All-day
// and multi-day events go to each covered day's banner lane regardless of
// their clock times; timed events land in the hour lane of their start time
// on their start day.
func ProjectWeek(anchor time.Time, events []Event, now time.Time) WeekGrid {
	if now.IsZero() {
		now = time.Now()
	}
	start := weekStart(anchor)
	classified := classifyAll(events)

	grid := WeekGrid{Start: start}
	for i := 0; i < 7; i++ {
		day := start.AddDate(0, 0, i)
		grid.Columns = append(grid.Columns, projectDayColumn(day, classified, now))
	}
	return grid
}

// ProjectDay is the week model restricted to a single day column.
func ProjectDay(anchor time.Time, events []Event, now time.Time) DayColumn {
	if now.IsZero() {
		now = time.Now()
	}
	return projectDayColumn(startOfDay(anchor), classifyAll(events), now)
}

func projectDayColumn(day time.Time, classified []PlacedEvent, now time.Time) DayColumn {
	col := DayColumn{
		Date:  day,
		Today: day.Equal(startOfDay(now)),
	}

	for _, pe := range classified {
		c := pe.Classification
		if c.AllDay || c.MultiDay {
			if c.CoversDay(day) {
				placed := pe
				placed.IsFirstDay = day.Equal(startOfDay(c.Start))
				placed.IsLastDay = day.Equal(startOfDay(c.End))
				col.AllDay = append(col.AllDay, placed)
			}
			continue
		}

		if !startOfDay(c.Start).Equal(day) {
			continue
		}

		offset := c.Start.Minute()
		clipped := c.PlacementMinutes()
		if remain := 60 - offset; clipped > remain {
			clipped = remain
		}
		placed := pe
		placed.IsFirstDay = true
		placed.IsLastDay = true
		col.Hours[c.Start.Hour()] = append(col.Hours[c.Start.Hour()], TimedEvent{
			PlacedEvent:    placed,
			Hour:           c.Start.Hour(),
			OffsetMinutes:  offset,
			ClippedMinutes: clipped,
		})
	}

	return col
}
