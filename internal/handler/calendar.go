package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/rowanfield/bramble/internal/auth"
	"github.com/rowanfield/bramble/internal/calendar"
)

// CalendarHandler serves the projected calendar views. Each authenticated
// identity gets its own cached feed; mutations elsewhere invalidate all of
// them wholesale.
type CalendarHandler struct {
	feeds  *calendar.Feeds
	logger *slog.Logger
}

func NewCalendarHandler(feeds *calendar.Feeds, logger *slog.Logger) *CalendarHandler {
	return &CalendarHandler{feeds: feeds, logger: logger}
}

// personFilter builds the person filter from members/children query params.
func personFilter(r *http.Request) (calendar.PersonFilter, error) {
	var filter calendar.PersonFilter

	memberIDs, err := parseIDList(r.URL.Query().Get("members"))
	if err != nil {
		return filter, err
	}
	childIDs, err := parseIDList(r.URL.Query().Get("children"))
	if err != nil {
		return filter, err
	}

	if len(memberIDs) > 0 {
		filter.MemberIDs = make(map[int64]struct{}, len(memberIDs))
		for _, id := range memberIDs {
			filter.MemberIDs[id] = struct{}{}
		}
	}
	if len(childIDs) > 0 {
		filter.ChildIDs = make(map[int64]struct{}, len(childIDs))
		for _, id := range childIDs {
			filter.ChildIDs[id] = struct{}{}
		}
	}
	return filter, nil
}

// load fetches merged events for the caller, applying the person filter.
func (h *CalendarHandler) load(w http.ResponseWriter, r *http.Request) (events []calendar.Event, partial bool, ok bool) {
	ac, _ := auth.FromContext(r.Context())

	filter, err := personFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "members and children must be comma-separated ids")
		return nil, false, false
	}

	merged := h.feeds.For(ac.HouseholdID, ac.UserID).Events()
	if merged.Partial {
		h.logger.Warn("calendar feed partial", "household_id", ac.HouseholdID, "error", merged.Err)
	}

	return calendar.FilterByPersons(merged.Events, filter), merged.Partial, true
}

// Month serves the month grid for the anchor's month.
func (h *CalendarHandler) Month(w http.ResponseWriter, r *http.Request) {
	anchor, err := parseAnchor(r, "anchor")
	if err != nil {
		writeError(w, http.StatusBadRequest, "anchor must be YYYY-MM-DD")
		return
	}

	events, partial, ok := h.load(w, r)
	if !ok {
		return
	}

	grid := calendar.ProjectMonth(anchor, events, calendar.MonthOptions{})
	grid.Partial = partial
	writeJSON(w, http.StatusOK, grid)
}

// Week serves the week grid for the week containing the anchor.
func (h *CalendarHandler) Week(w http.ResponseWriter, r *http.Request) {
	anchor, err := parseAnchor(r, "anchor")
	if err != nil {
		writeError(w, http.StatusBadRequest, "anchor must be YYYY-MM-DD")
		return
	}

	events, partial, ok := h.load(w, r)
	if !ok {
		return
	}

	grid := calendar.ProjectWeek(anchor, events, time.Time{})
	grid.Partial = partial
	writeJSON(w, http.StatusOK, grid)
}

// Day serves a single day column.
func (h *CalendarHandler) Day(w http.ResponseWriter, r *http.Request) {
	anchor, err := parseAnchor(r, "anchor")
	if err != nil {
		writeError(w, http.StatusBadRequest, "anchor must be YYYY-MM-DD")
		return
	}

	events, partial, ok := h.load(w, r)
	if !ok {
		return
	}

	column := calendar.ProjectDay(anchor, events, time.Time{})
	writeJSON(w, http.StatusOK, map[string]any{
		"column":  column,
		"partial": partial,
	})
}

// Step computes the anchor for month/week/day navigation. Pure date
// arithmetic; the client passes the result back as the next anchor.
func (h *CalendarHandler) Step(w http.ResponseWriter, r *http.Request) {
	anchor, err := parseAnchor(r, "anchor")
	if err != nil {
		writeError(w, http.StatusBadRequest, "anchor must be YYYY-MM-DD")
		return
	}

	view := calendar.View(r.URL.Query().Get("view"))
	switch view {
	case calendar.ViewMonth, calendar.ViewWeek, calendar.ViewDay:
	default:
		writeError(w, http.StatusBadRequest, "view must be month, week, or day")
		return
	}

	delta := 0
	if s := r.URL.Query().Get("delta"); s != "" {
		if delta, err = strconv.Atoi(s); err != nil {
			writeError(w, http.StatusBadRequest, "delta must be an integer")
			return
		}
	}

	next := calendar.Step(view, anchor, delta)
	writeJSON(w, http.StatusOK, map[string]string{
		"anchor": next.Format("2006-01-02"),
		"today":  calendar.Today(time.Now()).Format("2006-01-02"),
	})
}

// Refresh asks the caller's feed for a background refetch. Throttled inside
// the feed; the response says whether one was actually started.
func (h *CalendarHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	started := h.feeds.For(ac.HouseholdID, ac.UserID).Refresh()
	writeJSON(w, http.StatusOK, map[string]bool{"refreshing": started})
}
