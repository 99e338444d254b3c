package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/roomies/internal/account"
	"github.com/dukerupert/roomies/internal/config"
	"github.com/dukerupert/roomies/internal/handler"
	"github.com/dukerupert/roomies/internal/household"
	"github.com/dukerupert/roomies/internal/metrics"
	"github.com/dukerupert/roomies/internal/middleware"
	"github.com/dukerupert/roomies/internal/session"
	"github.com/dukerupert/roomies/internal/store"
	ws "github.com/dukerupert/roomies/internal/websocket"
	"github.com/dukerupert/roomies/web"
)

// Credential endpoints allow this many attempts per client per window.
const (
	authAttemptLimit  = 10
	authAttemptWindow = time.Minute
)

type Server struct {
	db          *sql.DB
	cfg         *config.Config
	hub         *ws.Hub
	sessions    *session.Manager
	metrics     *metrics.Metrics
	rateLimiter *middleware.RateLimiter
	render      *handler.Renderer
	authH       *handler.AuthHandler
	householdH  *handler.HouseholdHandler
	shoppingH   *handler.ShoppingHandler
	logger      *slog.Logger
}

func New(db *sql.DB, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	hub := ws.NewHub(logger.With("component", "websocket"))
	m := metrics.New()

	userStore := store.NewUserStore(db)
	householdStore := store.NewHouseholdStore(db)
	sessionStore := store.NewSessionStore(db)
	shoppingStore := store.NewShoppingStore(db)

	accounts := account.NewService(userStore, householdStore)
	households := household.NewService(userStore, householdStore)
	sessions := session.NewManager(sessionStore, cfg.SessionTTL, logger.With("component", "session"))

	render, err := handler.NewRenderer(web.Templates, logger.With("component", "render"))
	if err != nil {
		return nil, err
	}

	return &Server{
		db:          db,
		cfg:         cfg,
		hub:         hub,
		sessions:    sessions,
		metrics:     m,
		rateLimiter: middleware.NewRateLimiter(),
		render:      render,
		authH:       handler.NewAuthHandler(accounts, sessions, render, m, logger.With("component", "auth")),
		householdH:  handler.NewHouseholdHandler(accounts, households, sessions, hub, render, m, logger.With("component", "household")),
		shoppingH:   handler.NewShoppingHandler(shoppingStore, hub, render, logger.With("component", "shopping")),
		logger:      logger,
	}, nil
}

func (s *Server) Sessions() *session.Manager {
	return s.sessions
}

func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Hub() *ws.Hub {
	return s.hub
}

func (s *Server) Metrics() *metrics.Metrics {
	return s.metrics
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	authed := middleware.Guard(middleware.RequireAuthenticated)
	member := middleware.Guard(middleware.RequireAuthenticated, middleware.RequireHousehold)
	inHousehold := middleware.Guard(middleware.RequireHousehold)
	limited := middleware.RateLimit(s.rateLimiter, middleware.AttemptKey(s.cfg.TrustProxy), authAttemptLimit, authAttemptWindow, s.render.Error)

	// Public routes
	mux.HandleFunc("GET /{$}", s.authH.Index)
	mux.HandleFunc("POST /{$}", s.authH.Index)
	mux.HandleFunc("GET /register", s.authH.RegisterPage)
	mux.Handle("POST /register", limited(http.HandlerFunc(s.authH.Register)))
	mux.HandleFunc("GET /login", s.authH.LoginPage)
	mux.Handle("POST /login", limited(http.HandlerFunc(s.authH.Login)))
	mux.HandleFunc("GET /logout", s.authH.Logout)
	mux.HandleFunc("GET /health", s.healthHandler)
	mux.Handle("GET /metrics", s.metrics.Handler())

	// Signed-in routes
	mux.Handle("GET /homepage", authed(http.HandlerFunc(s.householdH.Homepage)))
	mux.Handle("POST /homepage", authed(http.HandlerFunc(s.householdH.Homepage)))
	mux.Handle("GET /no_household", authed(http.HandlerFunc(s.householdH.NoHouseholdPage)))
	mux.Handle("POST /no_household", authed(http.HandlerFunc(s.householdH.NoHousehold)))
	mux.Handle("GET /household", member(http.HandlerFunc(s.householdH.Household)))

	// Household routes
	mux.Handle("GET /shopping", inHousehold(http.HandlerFunc(s.shoppingH.Page)))
	mux.Handle("POST /shopping/items", inHousehold(http.HandlerFunc(s.shoppingH.AddItem)))
	mux.Handle("POST /shopping/items/{id}/check", inHousehold(http.HandlerFunc(s.shoppingH.ToggleItem)))
	mux.Handle("POST /shopping/clear-checked", inHousehold(http.HandlerFunc(s.shoppingH.ClearChecked)))

	var origins []string
	if host := s.cfg.OriginHost(); host != "" {
		origins = append(origins, host)
	}
	mux.Handle("GET /ws", inHousehold(ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket"), origins...)))

	var h http.Handler = mux
	h = middleware.Instrument(s.metrics)(h)
	h = middleware.LoadSession(s.sessions, s.logger.With("component", "auth"))(h)
	h = middleware.NoCache(h)
	h = middleware.RequestLogger(s.logger.With("component", "http"))(h)
	h = middleware.RequestID(h)
	return h
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := s.db.PingContext(r.Context()); err != nil {
		s.logger.Error("health check", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"status": "unavailable"})
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
