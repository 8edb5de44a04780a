package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/rowanfield/bramble/internal/backup"
	"github.com/rowanfield/bramble/internal/calendar"
	"github.com/rowanfield/bramble/internal/config"
	"github.com/rowanfield/bramble/internal/handler"
	"github.com/rowanfield/bramble/internal/logging"
	"github.com/rowanfield/bramble/internal/middleware"
	"github.com/rowanfield/bramble/internal/notify"
	"github.com/rowanfield/bramble/internal/store"
	ws "github.com/rowanfield/bramble/internal/websocket"
)

type Server struct {
	db  *sql.DB
	hub *ws.Hub

	authH     *handler.AuthHandler
	calendarH *handler.CalendarHandler
	eventH    *handler.EventHandler
	memberH   *handler.MemberHandler
	childH    *handler.ChildHandler
	taskH     *handler.TaskHandler
	goalH     *handler.GoalHandler
	pushH     *handler.PushHandler
	backupH   *handler.BackupHandler

	sessionStore   *store.SessionStore
	householdStore *store.HouseholdStore
	rateLimiter    *middleware.RateLimiter

	feeds           *calendar.Feeds
	backupManager   *backup.Manager
	notifyService   *notify.Service
	notifyScheduler *notify.Scheduler
	logger          *slog.Logger
}

func New(db *sql.DB, cfg config.Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logging.Component(logger, "websocket"))

	userStore := store.NewUserStore(db)
	householdStore := store.NewHouseholdStore(db)
	sessionStore := store.NewSessionStore(db)
	childStore := store.NewChildStore(db)
	householdEventStore := store.NewHouseholdEventStore(db)
	personalEventStore := store.NewPersonalEventStore(db)
	taskStore := store.NewTaskStore(db)
	goalStore := store.NewGoalStore(db)
	pushStore := store.NewPushStore(db)

	fetcher := calendar.NewFetcher(householdEventStore, personalEventStore, householdStore, userStore, childStore, logging.Component(logger, "calendar"))
	feeds := calendar.NewFeeds(fetcher, calendar.FeedOptions{})

	backupMgr := backup.NewManager(cfg.Backup, db, cfg.DBPath, logging.Component(logger, "backup"))

	var notifySvc *notify.Service
	var notifySched *notify.Scheduler
	var pushH *handler.PushHandler
	if cfg.Push.VAPIDPublicKey != "" && cfg.Push.VAPIDPrivateKey != "" {
		notifySvc = notify.NewService(cfg.Push.VAPIDPublicKey, cfg.Push.VAPIDPrivateKey)
		notifySched = notify.NewScheduler(notifySvc, pushStore, householdEventStore, personalEventStore, logging.Component(logger, "notify"))
		pushH = handler.NewPushHandler(pushStore, notifySvc, logging.Component(logger, "push"))
	}

	return &Server{
		db:  db,
		hub: hub,

		authH:     handler.NewAuthHandler(userStore, householdStore, sessionStore, logging.Component(logger, "auth")),
		calendarH: handler.NewCalendarHandler(feeds, logging.Component(logger, "calendar")),
		eventH:    handler.NewEventHandler(householdEventStore, personalEventStore, feeds, hub, logging.Component(logger, "event")),
		memberH:   handler.NewMemberHandler(userStore, householdStore, logging.Component(logger, "member")),
		childH:    handler.NewChildHandler(childStore, logging.Component(logger, "child")),
		taskH:     handler.NewTaskHandler(taskStore, hub, logging.Component(logger, "task")),
		goalH:     handler.NewGoalHandler(goalStore, hub, logging.Component(logger, "goal")),
		pushH:     pushH,
		backupH:   handler.NewBackupHandler(backupMgr, logging.Component(logger, "backup")),

		sessionStore:   sessionStore,
		householdStore: householdStore,
		rateLimiter:    middleware.NewRateLimiter(10, time.Minute),

		feeds:           feeds,
		backupManager:   backupMgr,
		notifyService:   notifySvc,
		notifyScheduler: notifySched,
		logger:          logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// BackupManager returns the snapshot manager.
func (s *Server) BackupManager() *backup.Manager {
	return s.backupManager
}

// NotifyScheduler returns the reminder scheduler, nil when push is not
// configured.
func (s *Server) NotifyScheduler() *notify.Scheduler {
	return s.notifyScheduler
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /api/auth/register", s.rateLimitedHandler(s.authH.Register))
	outerMux.HandleFunc("POST /api/auth/login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes behind RequireAuth
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore, s.householdStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(logging.Component(s.logger, "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	limited := s.rateLimiter.Middleware(middleware.RealIP)(h)
	return limited.ServeHTTP
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	// Session routes
	mux.HandleFunc("POST /api/auth/logout", s.authH.Logout)
	mux.HandleFunc("GET /api/auth/me", s.authH.Me)
	mux.HandleFunc("POST /api/auth/switch", s.authH.SwitchHousehold)
	mux.Handle("POST /api/invites", middleware.RequireAdmin(http.HandlerFunc(s.authH.CreateInvite)))
	mux.HandleFunc("POST /api/invites/accept", s.authH.AcceptInvite)

	// Calendar views
	mux.HandleFunc("GET /api/calendar/month", s.calendarH.Month)
	mux.HandleFunc("GET /api/calendar/week", s.calendarH.Week)
	mux.HandleFunc("GET /api/calendar/day", s.calendarH.Day)
	mux.HandleFunc("GET /api/calendar/step", s.calendarH.Step)
	mux.HandleFunc("POST /api/calendar/refresh", s.calendarH.Refresh)

	// Event mutations
	mux.HandleFunc("POST /api/events", s.eventH.Create)
	mux.HandleFunc("GET /api/events/{source}/{id}", s.eventH.Get)
	mux.HandleFunc("PUT /api/events/{source}/{id}", s.eventH.Update)
	mux.HandleFunc("DELETE /api/events/{source}/{id}", s.eventH.Delete)

	// Household members
	mux.HandleFunc("GET /api/members", s.memberH.List)
	mux.Handle("PUT /api/members/{id}/role", middleware.RequireAdmin(http.HandlerFunc(s.memberH.UpdateRole)))
	mux.Handle("DELETE /api/members/{id}", middleware.RequireAdmin(http.HandlerFunc(s.memberH.Remove)))
	mux.HandleFunc("PUT /api/profile", s.memberH.UpdateProfile)

	// Child profiles
	mux.HandleFunc("GET /api/children", s.childH.List)
	mux.HandleFunc("POST /api/children", s.childH.Create)
	mux.HandleFunc("PUT /api/children/{id}", s.childH.Update)
	mux.HandleFunc("DELETE /api/children/{id}", s.childH.Delete)
	mux.HandleFunc("POST /api/children/{id}/pin", s.childH.SetPIN)
	mux.HandleFunc("POST /api/children/{id}/pin/verify", s.childH.VerifyPIN)
	mux.HandleFunc("DELETE /api/children/{id}/pin", s.childH.ClearPIN)

	// Tasks
	mux.HandleFunc("GET /api/tasks", s.taskH.List)
	mux.HandleFunc("POST /api/tasks", s.taskH.Create)
	mux.HandleFunc("PUT /api/tasks/{id}", s.taskH.Update)
	mux.HandleFunc("POST /api/tasks/{id}/move", s.taskH.Move)
	mux.HandleFunc("DELETE /api/tasks/{id}", s.taskH.Delete)

	// Goals
	mux.HandleFunc("GET /api/goals", s.goalH.List)
	mux.HandleFunc("POST /api/goals", s.goalH.Create)
	mux.HandleFunc("PUT /api/goals/{id}", s.goalH.Update)
	mux.HandleFunc("POST /api/goals/{id}/progress", s.goalH.Progress)
	mux.HandleFunc("DELETE /api/goals/{id}", s.goalH.Delete)

	// Push notifications
	if s.pushH != nil {
		mux.HandleFunc("GET /api/push/vapid-key", s.pushH.VAPIDKey)
		mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
		mux.HandleFunc("POST /api/push/unsubscribe", s.pushH.Unsubscribe)
	}

	// Backups
	mux.Handle("GET /api/backup/status", middleware.RequireAdmin(http.HandlerFunc(s.backupH.Status)))
	mux.Handle("POST /api/backup/run", middleware.RequireAdmin(http.HandlerFunc(s.backupH.Run)))

	// Real-time sync
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub))
}
