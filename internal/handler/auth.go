package handler

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/rowanfield/bramble/internal/auth"
	"github.com/rowanfield/bramble/internal/middleware"
	"github.com/rowanfield/bramble/internal/model"
	"github.com/rowanfield/bramble/internal/store"
)

const (
	sessionTTL  = 30 * 24 * time.Hour
	inviteTTL   = 7 * 24 * time.Hour
	minPassword = 8
)

type AuthHandler struct {
	users      *store.UserStore
	households *store.HouseholdStore
	sessions   *store.SessionStore
	logger     *slog.Logger
}

func NewAuthHandler(us *store.UserStore, hs *store.HouseholdStore, ss *store.SessionStore, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{users: us, households: hs, sessions: ss, logger: logger}
}

func newSessionToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func (h *AuthHandler) startSession(w http.ResponseWriter, userID, householdID int64) error {
	token, err := newSessionToken()
	if err != nil {
		return err
	}
	if _, err := h.sessions.Create(userID, householdID, token, time.Now().Add(sessionTTL)); err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(sessionTTL.Seconds()),
	})
	return nil
}

type registerRequest struct {
	Email         string `json:"email"`
	Name          string `json:"name"`
	Password      string `json:"password"`
	HouseholdName string `json:"household_name"`
}

// Register creates a user with a fresh household and signs them in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		writeError(w, http.StatusBadRequest, "valid email is required")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if len(req.Password) < minPassword {
		writeError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	existing, err := h.users.GetByEmail(req.Email)
	if err != nil {
		h.logger.Error("lookup user", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to register")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "email already registered")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to register")
		return
	}

	user, err := h.users.Create(req.Email, req.Name, string(hash))
	if err != nil {
		h.logger.Error("create user", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to register")
		return
	}

	hhName := strings.TrimSpace(req.HouseholdName)
	if hhName == "" {
		hhName = req.Name + "'s Household"
	}
	hh, err := h.households.Create(hhName)
	if err != nil {
		h.logger.Error("create household", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to register")
		return
	}
	if _, err := h.households.AddMember(hh.ID, user.ID, model.RoleAdmin); err != nil {
		h.logger.Error("add member", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to register")
		return
	}

	if err := h.startSession(w, user.ID, hh.ID); err != nil {
		h.logger.Error("start session", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to register")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"user": user, "household": hh})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies credentials and opens a session in the user's first household.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	userID, hash, err := h.users.GetPasswordHash(email)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	households, err := h.households.ListHouseholdsForUser(userID)
	if err != nil || len(households) == 0 {
		writeError(w, http.StatusUnauthorized, "no household membership")
		return
	}

	if err := h.startSession(w, userID, households[0].ID); err != nil {
		h.logger.Error("start session", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to log in")
		return
	}

	user, err := h.users.GetByID(userID)
	if err != nil || user == nil {
		writeError(w, http.StatusInternalServerError, "failed to log in")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user, "household": households[0]})
}

// Logout deletes the current session and clears the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if ok {
		if err := h.sessions.Delete(ac.SessionID); err != nil {
			h.logger.Error("delete session", "error", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the authenticated user and their current household.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	user, err := h.users.GetByID(ac.UserID)
	if err != nil || user == nil {
		writeError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}
	hh, err := h.households.GetByID(ac.HouseholdID)
	if err != nil || hh == nil {
		writeError(w, http.StatusInternalServerError, "failed to load household")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user":      user,
		"household": hh,
		"role":      ac.Role,
	})
}

type switchRequest struct {
	HouseholdID int64 `json:"household_id"`
}

// SwitchHousehold repoints the session at another household the user belongs to.
func (h *AuthHandler) SwitchHousehold(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	var req switchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	member, err := h.households.GetMember(req.HouseholdID, ac.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to switch household")
		return
	}
	if member == nil {
		writeError(w, http.StatusForbidden, "not a member of that household")
		return
	}

	if err := h.sessions.SwitchHousehold(ac.SessionID, req.HouseholdID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to switch household")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type inviteRequest struct {
	Email string `json:"email"`
}

// CreateInvite issues an invite token for the current household. Admin only.
func (h *AuthHandler) CreateInvite(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	var req inviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	token := uuid.NewString()
	invite, err := h.households.CreateInvite(ac.HouseholdID, token, email, time.Now().Add(inviteTTL))
	if err != nil {
		h.logger.Error("create invite", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create invite")
		return
	}

	writeJSON(w, http.StatusCreated, invite)
}

type acceptInviteRequest struct {
	Token string `json:"token"`
}

// AcceptInvite joins the authenticated user to the invite's household.
func (h *AuthHandler) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	var req acceptInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	invite, err := h.households.GetInviteByToken(req.Token)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to look up invite")
		return
	}
	if invite == nil || time.Now().After(invite.ExpiresAt) {
		writeError(w, http.StatusNotFound, "invite not found or expired")
		return
	}

	if member, _ := h.households.GetMember(invite.HouseholdID, ac.UserID); member != nil {
		writeError(w, http.StatusConflict, "already a member")
		return
	}

	if _, err := h.households.AddMember(invite.HouseholdID, ac.UserID, model.RoleMember); err != nil {
		h.logger.Error("add member", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to join household")
		return
	}
	if err := h.households.DeleteInvite(invite.ID); err != nil {
		h.logger.Error("delete invite", "error", err)
	}

	w.WriteHeader(http.StatusNoContent)
}
