package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/rowanfield/bramble/internal/auth"
	"github.com/rowanfield/bramble/internal/model"
	"github.com/rowanfield/bramble/internal/store"
)

type MemberHandler struct {
	users      *store.UserStore
	households *store.HouseholdStore
	logger     *slog.Logger
}

func NewMemberHandler(us *store.UserStore, hs *store.HouseholdStore, logger *slog.Logger) *MemberHandler {
	return &MemberHandler{users: us, households: hs, logger: logger}
}

// List returns the members of the current household with their profiles.
func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	members, err := h.households.ListMembers(ac.HouseholdID)
	if err != nil {
		h.logger.Error("list members", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list members")
		return
	}

	ids := make([]int64, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.UserID)
	}
	users, err := h.users.ListByIDs(ids)
	if err != nil {
		h.logger.Error("load member profiles", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list members")
		return
	}
	byID := make(map[int64]model.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	type memberView struct {
		model.HouseholdMember
		Name      string `json:"name"`
		Email     string `json:"email"`
		AvatarURL string `json:"avatar_url"`
	}
	out := make([]memberView, 0, len(members))
	for _, m := range members {
		v := memberView{HouseholdMember: m}
		if u, ok := byID[m.UserID]; ok {
			v.Name = u.Name
			v.Email = u.Email
			v.AvatarURL = u.AvatarURL
		}
		out = append(out, v)
	}

	writeJSON(w, http.StatusOK, out)
}

type roleRequest struct {
	Role string `json:"role"`
}

// UpdateRole changes a member's role. Admin only; an admin cannot demote
// themselves so a household always keeps at least one admin.
func (h *MemberHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	userID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req roleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Role != model.RoleAdmin && req.Role != model.RoleMember {
		writeError(w, http.StatusBadRequest, "role must be admin or member")
		return
	}
	if userID == ac.UserID && req.Role != model.RoleAdmin {
		writeError(w, http.StatusBadRequest, "cannot demote yourself")
		return
	}

	member, err := h.households.UpdateMemberRole(ac.HouseholdID, userID, req.Role)
	if err != nil {
		h.logger.Error("update member role", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update role")
		return
	}
	if member == nil {
		writeError(w, http.StatusNotFound, "member not found")
		return
	}

	writeJSON(w, http.StatusOK, member)
}

// Remove takes a member out of the household. Admin only.
func (h *MemberHandler) Remove(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	userID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if userID == ac.UserID {
		writeError(w, http.StatusBadRequest, "cannot remove yourself")
		return
	}

	if err := h.households.RemoveMember(ac.HouseholdID, userID); err != nil {
		h.logger.Error("remove member", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to remove member")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type profileRequest struct {
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

// UpdateProfile updates the caller's own display name and avatar.
func (h *MemberHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	user, err := h.users.Update(ac.UserID, req.Name, req.AvatarURL)
	if err != nil {
		h.logger.Error("update profile", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update profile")
		return
	}
	writeJSON(w, http.StatusOK, user)
}
