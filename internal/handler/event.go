package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/rowanfield/bramble/internal/auth"
	"github.com/rowanfield/bramble/internal/calendar"
	"github.com/rowanfield/bramble/internal/store"
	"github.com/rowanfield/bramble/internal/websocket"
)

// EventHandler owns calendar event mutations. Every successful write
// invalidates all cached feeds and broadcasts a change notification, so
// every open client converges on the new state.
type EventHandler struct {
	hevents *store.HouseholdEventStore
	pevents *store.PersonalEventStore
	feeds   *calendar.Feeds
	hub     *websocket.Hub
	logger  *slog.Logger
}

func NewEventHandler(he *store.HouseholdEventStore, pe *store.PersonalEventStore, feeds *calendar.Feeds, hub *websocket.Hub, logger *slog.Logger) *EventHandler {
	return &EventHandler{hevents: he, pevents: pe, feeds: feeds, hub: hub, logger: logger}
}

type eventRequest struct {
	Title            string `json:"title"`
	Description      string `json:"description"`
	StartDate        string `json:"start_date"`
	EndDate          string `json:"end_date"`
	Color            string `json:"color"`
	Household        bool   `json:"is_household"`
	Public           bool   `json:"is_public"`
	AssignedMemberID *int64 `json:"assigned_member_id"`
	AssignedChildID  *int64 `json:"assigned_child_id"`
	ReminderMinutes  *int   `json:"reminder_minutes"`
}

func (req *eventRequest) validate() string {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return "title is required"
	}
	if strings.TrimSpace(req.StartDate) == "" {
		return "start_date is required"
	}
	if strings.TrimSpace(req.EndDate) == "" {
		req.EndDate = req.StartDate
	}
	return ""
}

func (h *EventHandler) changed(householdID int64, action string, id int64, source calendar.Source) {
	h.feeds.InvalidateAll()
	h.hub.Broadcast(householdID, websocket.NewMessage("event", action, id, map[string]any{
		"source": string(source),
	}))
}

// Create writes a new event. The is_household flag routes it to the shared
// household table when the caller has a household; otherwise it becomes a
// private personal event.
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	if req.Household && ac.HouseholdID != 0 {
		event, err := h.hevents.Create(ac.HouseholdID, req.Title, req.Description, req.StartDate, req.EndDate, req.Color, ac.UserID, req.AssignedMemberID, req.AssignedChildID, req.ReminderMinutes)
		if err != nil {
			h.logger.Error("create household event", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to create event")
			return
		}
		h.changed(ac.HouseholdID, "created", event.ID, calendar.SourceHousehold)
		writeJSON(w, http.StatusCreated, event)
		return
	}

	event, err := h.pevents.Create(ac.UserID, req.Title, req.Description, req.StartDate, req.EndDate, req.Color, req.Public, req.ReminderMinutes)
	if err != nil {
		h.logger.Error("create personal event", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create event")
		return
	}
	h.changed(ac.HouseholdID, "created", event.ID, calendar.SourcePersonal)
	writeJSON(w, http.StatusCreated, event)
}

// Get returns one event addressed by source and id.
func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	source, id, ok := h.parsePath(w, r)
	if !ok {
		return
	}

	switch source {
	case calendar.SourceHousehold:
		event, err := h.hevents.GetByID(id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to get event")
			return
		}
		if event == nil || event.HouseholdID != ac.HouseholdID {
			writeError(w, http.StatusNotFound, "event not found")
			return
		}
		writeJSON(w, http.StatusOK, event)
	default:
		event, err := h.pevents.GetByID(id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to get event")
			return
		}
		if event == nil || event.UserID != ac.UserID {
			writeError(w, http.StatusNotFound, "event not found")
			return
		}
		writeJSON(w, http.StatusOK, event)
	}
}

// Update rewrites an event in place. Events never move between sources; the
// source in the path decides which table is touched.
func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	source, id, ok := h.parsePath(w, r)
	if !ok {
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	switch source {
	case calendar.SourceHousehold:
		existing, err := h.hevents.GetByID(id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to update event")
			return
		}
		if existing == nil || existing.HouseholdID != ac.HouseholdID {
			writeError(w, http.StatusNotFound, "event not found")
			return
		}
		event, err := h.hevents.Update(id, req.Title, req.Description, req.StartDate, req.EndDate, req.Color, req.AssignedMemberID, req.AssignedChildID, req.ReminderMinutes)
		if err != nil {
			h.logger.Error("update household event", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to update event")
			return
		}
		h.changed(ac.HouseholdID, "updated", id, source)
		writeJSON(w, http.StatusOK, event)
	default:
		existing, err := h.pevents.GetByID(id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to update event")
			return
		}
		if existing == nil || existing.UserID != ac.UserID {
			writeError(w, http.StatusNotFound, "event not found")
			return
		}
		event, err := h.pevents.Update(id, req.Title, req.Description, req.StartDate, req.EndDate, req.Color, req.Public, req.ReminderMinutes)
		if err != nil {
			h.logger.Error("update personal event", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to update event")
			return
		}
		h.changed(ac.HouseholdID, "updated", id, source)
		writeJSON(w, http.StatusOK, event)
	}
}

// Delete removes an event.
func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	source, id, ok := h.parsePath(w, r)
	if !ok {
		return
	}

	switch source {
	case calendar.SourceHousehold:
		existing, err := h.hevents.GetByID(id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to delete event")
			return
		}
		if existing == nil || existing.HouseholdID != ac.HouseholdID {
			writeError(w, http.StatusNotFound, "event not found")
			return
		}
		if err := h.hevents.Delete(id); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to delete event")
			return
		}
	default:
		existing, err := h.pevents.GetByID(id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to delete event")
			return
		}
		if existing == nil || existing.UserID != ac.UserID {
			writeError(w, http.StatusNotFound, "event not found")
			return
		}
		if err := h.pevents.Delete(id); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to delete event")
			return
		}
	}

	h.changed(ac.HouseholdID, "deleted", id, source)
	w.WriteHeader(http.StatusNoContent)
}

// parsePath reads the {source} and {id} path segments.
func (h *EventHandler) parsePath(w http.ResponseWriter, r *http.Request) (calendar.Source, int64, bool) {
	source := calendar.Source(r.PathValue("source"))
	if source != calendar.SourceHousehold && source != calendar.SourcePersonal {
		writeError(w, http.StatusBadRequest, "source must be household or personal")
		return "", 0, false
	}
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return "", 0, false
	}
	return source, id, true
}
