package calendar

import "time"

// DefaultMaxPerCell is the visible-event cap for a month cell before the
// remainder collapses into a "+N more" count.
const DefaultMaxPerCell = 3

// PlacedEvent is an event plus its classification and its position within a
// grid cell's span.
type PlacedEvent struct {
	Event
	Classification Classification `json:"classification"`
	IsFirstDay     bool           `json:"is_first_day"`
	IsLastDay      bool           `json:"is_last_day"`
}

// MonthCell is one day of the month grid. Date and Events are distinct hit
// regions: clicking the cell background selects the date, clicking an event
// selects that event, and nothing downstream has to disambiguate the two.
type MonthCell struct {
	Date      time.Time     `json:"date"`
	InMonth   bool          `json:"in_month"`
	Today     bool          `json:"today"`
	Events    []PlacedEvent `json:"events"`
	MoreCount int           `json:"more_count"`
}

// MonthGrid is the month projection: 5 or 6 full weeks of cells, Sunday
// first.
type MonthGrid struct {
	Anchor  time.Time     `json:"anchor"`
	Weeks   [][]MonthCell `json:"weeks"`
	Partial bool          `json:"partial"`
}

// MonthOptions tunes the month projection.
type MonthOptions struct {
	// MaxPerCell caps visible events per cell; DefaultMaxPerCell when zero.
	MaxPerCell int
	// Now anchors the Today flag; time.Now() when zero.
	Now time.Time
}

// ProjectMonth buckets events into a month grid. An event appears in every
// cell whose date falls inside its [start date, end date] span, so
// multi-day events repeat across their covered days.
func ProjectMonth(anchor time.Time, events []Event, opts MonthOptions) MonthGrid {
	maxPerCell := opts.MaxPerCell
	if maxPerCell <= 0 {
		maxPerCell = DefaultMaxPerCell
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	today := startOfDay(now)

	firstOfMonth := time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, anchor.Location())
	lastOfMonth := firstOfMonth.AddDate(0, 1, -1)
	gridStart := weekStart(firstOfMonth)
	gridEnd := weekStart(lastOfMonth).AddDate(0, 0, 6)

	classified := classifyAll(events)

	grid := MonthGrid{Anchor: firstOfMonth}
	var week []MonthCell
	for day := gridStart; !day.After(gridEnd); day = day.AddDate(0, 0, 1) {
		cell := MonthCell{
			Date:    day,
			InMonth: day.Month() == firstOfMonth.Month(),
			Today:   day.Equal(today),
		}

		for _, pe := range classified {
			if !pe.Classification.CoversDay(day) {
				continue
			}
			placed := pe
			placed.IsFirstDay = day.Equal(startOfDay(pe.Classification.Start))
			placed.IsLastDay = day.Equal(startOfDay(pe.Classification.End))
			cell.Events = append(cell.Events, placed)
		}

		if len(cell.Events) > maxPerCell {
			cell.MoreCount = len(cell.Events) - maxPerCell
			cell.Events = cell.Events[:maxPerCell]
		}

		week = append(week, cell)
		if len(week) == 7 {
			grid.Weeks = append(grid.Weeks, week)
			week = nil
		}
	}

	return grid
}

func classifyAll(events []Event) []PlacedEvent {
	placed := make([]PlacedEvent, 0, len(events))
	for _, e := range events {
		placed = append(placed, PlacedEvent{Event: e, Classification: Classify(e)})
	}
	return placed
}
