package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/rowanfield/bramble/internal/auth"
	"github.com/rowanfield/bramble/internal/store"
)

type ChildHandler struct {
	children *store.ChildStore
	logger   *slog.Logger
}

func NewChildHandler(cs *store.ChildStore, logger *slog.Logger) *ChildHandler {
	return &ChildHandler{children: cs, logger: logger}
}

type childRequest struct {
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
	Age       int    `json:"age"`
	Color     string `json:"color"`
}

func (req *childRequest) validate() string {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return "name is required"
	}
	if req.Age < 0 {
		return "age cannot be negative"
	}
	return ""
}

func (h *ChildHandler) List(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	children, err := h.children.ListByHousehold(ac.HouseholdID)
	if err != nil {
		h.logger.Error("list children", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list children")
		return
	}
	writeJSON(w, http.StatusOK, children)
}

func (h *ChildHandler) Create(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	var req childRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	child, err := h.children.Create(ac.HouseholdID, req.Name, req.AvatarURL, req.Age, req.Color)
	if err != nil {
		h.logger.Error("create child", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create child")
		return
	}
	writeJSON(w, http.StatusCreated, child)
}

// owned loads a child and checks it belongs to the caller's household.
func (h *ChildHandler) owned(w http.ResponseWriter, r *http.Request) (int64, bool) {
	ac, _ := auth.FromContext(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	child, err := h.children.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load child")
		return 0, false
	}
	if child == nil || child.HouseholdID != ac.HouseholdID {
		writeError(w, http.StatusNotFound, "child not found")
		return 0, false
	}
	return id, true
}

func (h *ChildHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.owned(w, r)
	if !ok {
		return
	}

	var req childRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	child, err := h.children.Update(id, req.Name, req.AvatarURL, req.Age, req.Color)
	if err != nil {
		h.logger.Error("update child", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update child")
		return
	}
	writeJSON(w, http.StatusOK, child)
}

func (h *ChildHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.owned(w, r)
	if !ok {
		return
	}

	if err := h.children.Delete(id); err != nil {
		h.logger.Error("delete child", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete child")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type pinRequest struct {
	PIN string `json:"pin"`
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// SetPIN stores a 4-6 digit PIN for the child's simplified view.
func (h *ChildHandler) SetPIN(w http.ResponseWriter, r *http.Request) {
	id, ok := h.owned(w, r)
	if !ok {
		return
	}

	var req pinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if len(req.PIN) < 4 || len(req.PIN) > 6 || !isDigits(req.PIN) {
		writeError(w, http.StatusBadRequest, "pin must be 4-6 digits")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.PIN), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to set pin")
		return
	}
	if err := h.children.SetPIN(id, string(hash)); err != nil {
		h.logger.Error("set pin", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to set pin")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// VerifyPIN checks a PIN attempt against the stored hash.
func (h *ChildHandler) VerifyPIN(w http.ResponseWriter, r *http.Request) {
	id, ok := h.owned(w, r)
	if !ok {
		return
	}

	var req pinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	hash, err := h.children.GetPINHash(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to verify pin")
		return
	}
	if hash == "" {
		writeError(w, http.StatusBadRequest, "no pin set")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.PIN)) != nil {
		writeError(w, http.StatusUnauthorized, "incorrect pin")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "verified"})
}

// ClearPIN removes the child's PIN.
func (h *ChildHandler) ClearPIN(w http.ResponseWriter, r *http.Request) {
	id, ok := h.owned(w, r)
	if !ok {
		return
	}

	if err := h.children.ClearPIN(id); err != nil {
		h.logger.Error("clear pin", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to clear pin")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
