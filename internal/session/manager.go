// Package session binds browser cookies to server-side session rows.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/roomies/internal/model"
	"github.com/dukerupert/roomies/internal/store"
)

const CookieName = "roomies_session"

type Manager struct {
	store  *store.SessionStore
	ttl    time.Duration
	logger *slog.Logger
}

func NewManager(ss *store.SessionStore, ttl time.Duration, logger *slog.Logger) *Manager {
	return &Manager{store: ss, ttl: ttl, logger: logger}
}

// Start replaces whatever session the request carries with a fresh one for
// userID and sets its cookie.
func (m *Manager) Start(ctx context.Context, w http.ResponseWriter, r *http.Request, userID int64) (*model.Session, error) {
	if token := cookieToken(r); token != "" {
		if err := m.store.DeleteByToken(ctx, token); err != nil {
			return nil, fmt.Errorf("drop previous session: %w", err)
		}
	}

	sess, err := m.store.Create(ctx, userID, m.ttl)
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}

	// No MaxAge: the cookie lives until the browser closes, the row until ttl.
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    sess.Token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})
	return sess, nil
}

// Clear deletes the request's session, if any, and expires the cookie.
// Failing to delete the row is logged, never returned to the client.
func (m *Manager) Clear(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	token := cookieToken(r)
	if token == "" {
		return
	}
	if err := m.store.DeleteByToken(ctx, token); err != nil {
		m.logger.Error("clear session", "error", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})
}

// Current returns the live session for the request, or nil when there is no
// cookie or the token is unknown or expired.
func (m *Manager) Current(ctx context.Context, r *http.Request) (*model.Session, error) {
	token := cookieToken(r)
	if token == "" {
		return nil, nil
	}
	sess, err := m.store.GetByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("current session: %w", err)
	}
	return sess, nil
}

// RefreshHousehold updates the household cached on the session row.
func (m *Manager) RefreshHousehold(ctx context.Context, sessionID int64, household string) error {
	if err := m.store.UpdateHousehold(ctx, sessionID, household); err != nil {
		return fmt.Errorf("refresh session household: %w", err)
	}
	return nil
}

// Sweep removes expired session rows.
func (m *Manager) Sweep(ctx context.Context) (int64, error) {
	return m.store.DeleteExpired(ctx)
}

func cookieToken(r *http.Request) string {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return c.Value
}
