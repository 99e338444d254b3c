package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/roomies/internal/account"
	"github.com/dukerupert/roomies/internal/apperr"
	"github.com/dukerupert/roomies/internal/auth"
	"github.com/dukerupert/roomies/internal/metrics"
	"github.com/dukerupert/roomies/internal/session"
)

type AuthHandler struct {
	accounts *account.Service
	sessions *session.Manager
	render   *Renderer
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func NewAuthHandler(
	accounts *account.Service,
	sessions *session.Manager,
	render *Renderer,
	m *metrics.Metrics,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
		sessions: sessions,
		render:   render,
		metrics:  m,
		logger:   logger,
	}
}

// signOut clears the session and returns r with an anonymous auth context,
// so the page rendered next no longer sees the old login.
func (h *AuthHandler) signOut(w http.ResponseWriter, r *http.Request) *http.Request {
	h.sessions.Clear(r.Context(), w, r)
	return r.WithContext(auth.With(r.Context(), auth.Context{}))
}

// Index forgets any session and shows the landing page.
func (h *AuthHandler) Index(w http.ResponseWriter, r *http.Request) {
	r = h.signOut(w, r)
	h.render.Render(w, r, http.StatusOK, "index.html", map[string]any{"Title": "Roomies"})
}

func (h *AuthHandler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, r, http.StatusOK, "register.html", map[string]any{"Title": "Register"})
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render.Error(w, r, apperr.Validation("invalid form data"))
		return
	}

	_, err := h.accounts.Register(r.Context(),
		r.PostFormValue("username"),
		r.PostFormValue("password"),
		r.PostFormValue("confirmation"),
	)
	if err != nil {
		h.render.Error(w, r, err)
		return
	}

	h.metrics.AuthEvent(metrics.EventRegister)
	setFlash(w, "Congrats, you were successfully registered!")
	redirect(w, r, "/")
}

// LoginPage forgets any session before showing the form.
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	r = h.signOut(w, r)
	h.render.Render(w, r, http.StatusOK, "login.html", map[string]any{"Title": "Log In"})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	r = h.signOut(w, r)

	if err := r.ParseForm(); err != nil {
		h.render.Error(w, r, apperr.Validation("invalid form data"))
		return
	}

	userID, err := h.accounts.Verify(r.Context(), r.PostFormValue("username"), r.PostFormValue("password"))
	if err != nil {
		if apperr.Is(err, apperr.CodeAuth) {
			h.metrics.AuthEvent(metrics.EventLoginFailed)
		}
		h.render.Error(w, r, err)
		return
	}

	if _, err := h.sessions.Start(r.Context(), w, r, userID); err != nil {
		h.render.Error(w, r, err)
		return
	}

	h.metrics.AuthEvent(metrics.EventLoginOK)
	setFlash(w, "You were successfully logged in!")
	redirect(w, r, "/homepage")
}

// Logout is idempotent: it always ends at the landing page.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	r = h.signOut(w, r)
	redirect(w, r, "/")
}
