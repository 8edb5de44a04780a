package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/rowanfield/bramble/internal/auth"
	"github.com/rowanfield/bramble/internal/model"
	"github.com/rowanfield/bramble/internal/store"
	"github.com/rowanfield/bramble/internal/websocket"
)

type GoalHandler struct {
	goals  *store.GoalStore
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewGoalHandler(gs *store.GoalStore, hub *websocket.Hub, logger *slog.Logger) *GoalHandler {
	return &GoalHandler{goals: gs, hub: hub, logger: logger}
}

type goalRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Target      int    `json:"target"`
}

func (req *goalRequest) validate() string {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return "title is required"
	}
	if req.Target <= 0 {
		return "target must be positive"
	}
	return ""
}

func (h *GoalHandler) List(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	goals, err := h.goals.ListByHousehold(ac.HouseholdID)
	if err != nil {
		h.logger.Error("list goals", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list goals")
		return
	}
	if goals == nil {
		goals = []model.Goal{}
	}
	writeJSON(w, http.StatusOK, goals)
}

func (h *GoalHandler) Create(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	var req goalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	goal, err := h.goals.Create(ac.HouseholdID, req.Title, req.Description, req.Target, ac.UserID)
	if err != nil {
		h.logger.Error("create goal", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create goal")
		return
	}

	h.hub.Broadcast(ac.HouseholdID, websocket.NewMessage("goal", "created", goal.ID, nil))
	writeJSON(w, http.StatusCreated, goal)
}

func (h *GoalHandler) owned(w http.ResponseWriter, r *http.Request) (*model.Goal, bool) {
	ac, _ := auth.FromContext(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return nil, false
	}
	goal, err := h.goals.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load goal")
		return nil, false
	}
	if goal == nil || goal.HouseholdID != ac.HouseholdID {
		writeError(w, http.StatusNotFound, "goal not found")
		return nil, false
	}
	return goal, true
}

func (h *GoalHandler) Update(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	existing, ok := h.owned(w, r)
	if !ok {
		return
	}

	var req goalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	goal, err := h.goals.Update(existing.ID, req.Title, req.Description, req.Target)
	if err != nil {
		h.logger.Error("update goal", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update goal")
		return
	}

	h.hub.Broadcast(ac.HouseholdID, websocket.NewMessage("goal", "updated", goal.ID, nil))
	writeJSON(w, http.StatusOK, goal)
}

type progressRequest struct {
	Delta int `json:"delta"`
}

// Progress adjusts the goal's running count. Progress never drops below zero
// and the goal flips to completed when it reaches the target.
func (h *GoalHandler) Progress(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	existing, ok := h.owned(w, r)
	if !ok {
		return
	}

	var req progressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	goal, err := h.goals.AddProgress(existing.ID, req.Delta)
	if err != nil {
		h.logger.Error("update goal progress", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update progress")
		return
	}

	h.hub.Broadcast(ac.HouseholdID, websocket.NewMessage("goal", "progress", goal.ID, map[string]any{
		"progress":  goal.Progress,
		"completed": goal.Completed,
	}))
	writeJSON(w, http.StatusOK, goal)
}

func (h *GoalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	existing, ok := h.owned(w, r)
	if !ok {
		return
	}

	if err := h.goals.Delete(existing.ID); err != nil {
		h.logger.Error("delete goal", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete goal")
		return
	}

	h.hub.Broadcast(ac.HouseholdID, websocket.NewMessage("goal", "deleted", existing.ID, nil))
	w.WriteHeader(http.StatusNoContent)
}
