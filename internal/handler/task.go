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

type TaskHandler struct {
	tasks  *store.TaskStore
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewTaskHandler(ts *store.TaskStore, hub *websocket.Hub, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{tasks: ts, hub: hub, logger: logger}
}

type taskRequest struct {
	Title            string `json:"title"`
	Description      string `json:"description"`
	AssignedMemberID *int64 `json:"assigned_member_id"`
	AssignedChildID  *int64 `json:"assigned_child_id"`
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	tasks, err := h.tasks.ListByHousehold(ac.HouseholdID)
	if err != nil {
		h.logger.Error("list tasks", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list tasks")
		return
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

// Create adds a task at the bottom of the todo column.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	task, err := h.tasks.Create(ac.HouseholdID, req.Title, req.Description, model.TaskStatusTodo, req.AssignedMemberID, req.AssignedChildID, ac.UserID)
	if err != nil {
		h.logger.Error("create task", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create task")
		return
	}

	h.hub.Broadcast(ac.HouseholdID, websocket.NewMessage("task", "created", task.ID, nil))
	writeJSON(w, http.StatusCreated, task)
}

// owned loads a task and checks household ownership.
func (h *TaskHandler) owned(w http.ResponseWriter, r *http.Request) (*model.Task, bool) {
	ac, _ := auth.FromContext(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return nil, false
	}
	task, err := h.tasks.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load task")
		return nil, false
	}
	if task == nil || task.HouseholdID != ac.HouseholdID {
		writeError(w, http.StatusNotFound, "task not found")
		return nil, false
	}
	return task, true
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	existing, ok := h.owned(w, r)
	if !ok {
		return
	}

	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	task, err := h.tasks.Update(existing.ID, req.Title, req.Description, req.AssignedMemberID, req.AssignedChildID)
	if err != nil {
		h.logger.Error("update task", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update task")
		return
	}

	h.hub.Broadcast(ac.HouseholdID, websocket.NewMessage("task", "updated", task.ID, nil))
	writeJSON(w, http.StatusOK, task)
}

type moveRequest struct {
	Status   model.TaskStatus `json:"status"`
	Position int              `json:"position"`
}

// Move drags a task to a new column and position. Positions in both the
// source and destination columns are reflowed in one transaction.
func (h *TaskHandler) Move(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	existing, ok := h.owned(w, r)
	if !ok {
		return
	}

	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	switch req.Status {
	case model.TaskStatusTodo, model.TaskStatusDoing, model.TaskStatusDone:
	default:
		writeError(w, http.StatusBadRequest, "status must be todo, doing, or done")
		return
	}
	if req.Position < 0 {
		writeError(w, http.StatusBadRequest, "position cannot be negative")
		return
	}

	task, err := h.tasks.Move(existing.ID, req.Status, req.Position)
	if err != nil {
		h.logger.Error("move task", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to move task")
		return
	}

	h.hub.Broadcast(ac.HouseholdID, websocket.NewMessage("task", "moved", task.ID, map[string]any{
		"status": string(task.Status),
	}))
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	existing, ok := h.owned(w, r)
	if !ok {
		return
	}

	if err := h.tasks.Delete(existing.ID); err != nil {
		h.logger.Error("delete task", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete task")
		return
	}

	h.hub.Broadcast(ac.HouseholdID, websocket.NewMessage("task", "deleted", existing.ID, nil))
	w.WriteHeader(http.StatusNoContent)
}
