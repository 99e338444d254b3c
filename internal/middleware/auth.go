package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dukerupert/roomies/internal/apperr"
	"github.com/dukerupert/roomies/internal/auth"
	"github.com/dukerupert/roomies/internal/model"
)

// SessionSource resolves the session carried by a request.
type SessionSource interface {
	Current(ctx context.Context, r *http.Request) (*model.Session, error)
}

// LoadSession looks the session up once per request and stores the result as
// an auth.Context. Requests without a live session get a zero context.
func LoadSession(src SessionSource, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var ac auth.Context
			sess, err := src.Current(r.Context(), r)
			if err != nil {
				logger.Error("load session", "error", err)
			}
			if sess != nil {
				ac = auth.Context{
					UserID:    sess.UserID,
					Household: sess.Household,
					SessionID: sess.ID,
				}
			}
			next.ServeHTTP(w, r.WithContext(auth.With(r.Context(), ac)))
		})
	}
}

type Outcome int

const (
	Continue Outcome = iota
	Redirect
	Error
)

// Verdict is the result of a single guard.
type Verdict struct {
	Outcome  Outcome
	Location string
	Status   int
	Err      error
}

func Pass() Verdict {
	return Verdict{Outcome: Continue}
}

func RedirectTo(location string, err error) Verdict {
	return Verdict{Outcome: Redirect, Location: location, Err: err}
}

func Fail(status int, err error) Verdict {
	return Verdict{Outcome: Error, Status: status, Err: err}
}

// GuardFunc inspects a request that has been through LoadSession.
type GuardFunc func(*http.Request) Verdict

func RequireAuthenticated(r *http.Request) Verdict {
	ac, _ := auth.FromContext(r.Context())
	if !ac.Authenticated() {
		return RedirectTo("/login", apperr.Auth("login required"))
	}
	return Pass()
}

func RequireHousehold(r *http.Request) Verdict {
	ac, _ := auth.FromContext(r.Context())
	if !ac.HasHousehold() {
		return RedirectTo("/no_household", apperr.State("household required"))
	}
	return Pass()
}

// Guard runs guards in order and stops at the first one that does not pass.
func Guard(guards ...GuardFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, g := range guards {
				v := g(r)
				switch v.Outcome {
				case Continue:
					continue
				case Redirect:
					redirect(w, r, v.Location)
				default:
					status := v.Status
					if status == 0 {
						status = apperr.Status(v.Err)
					}
					http.Error(w, apperr.Message(v.Err), status)
				}
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// redirect is HTMX-aware: htmx requests get an HX-Redirect header instead
// of a 302 it would follow inline.
func redirect(w http.ResponseWriter, r *http.Request, location string) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", location)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, location, http.StatusFound)
}
