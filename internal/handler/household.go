package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dukerupert/roomies/internal/account"
	"github.com/dukerupert/roomies/internal/apperr"
	"github.com/dukerupert/roomies/internal/auth"
	"github.com/dukerupert/roomies/internal/household"
	"github.com/dukerupert/roomies/internal/metrics"
	"github.com/dukerupert/roomies/internal/session"
	ws "github.com/dukerupert/roomies/internal/websocket"
)

// Broadcaster pushes live updates to a household's open pages.
type Broadcaster interface {
	Broadcast(room string, msg ws.Message)
}

type HouseholdHandler struct {
	accounts   *account.Service
	households *household.Service
	sessions   *session.Manager
	hub        Broadcaster
	render     *Renderer
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

func NewHouseholdHandler(
	accounts *account.Service,
	households *household.Service,
	sessions *session.Manager,
	hub Broadcaster,
	render *Renderer,
	m *metrics.Metrics,
	logger *slog.Logger,
) *HouseholdHandler {
	return &HouseholdHandler{
		accounts:   accounts,
		households: households,
		sessions:   sessions,
		hub:        hub,
		render:     render,
		metrics:    m,
		logger:     logger,
	}
}

// Homepage reloads the user's household from the store, caches it on the
// session and shows either the household or the create/join form.
func (h *HouseholdHandler) Homepage(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	user, err := h.accounts.Get(r.Context(), ac.UserID)
	if err != nil {
		h.render.Error(w, r, err)
		return
	}
	if err := h.sessions.RefreshHousehold(r.Context(), ac.SessionID, user.Household); err != nil {
		h.render.Error(w, r, err)
		return
	}

	if user.Household == "" {
		h.render.Render(w, r, http.StatusOK, "no_household.html", map[string]any{
			"Title":    "Find your household",
			"Username": user.Username,
		})
		return
	}

	h.renderHousehold(w, r, user.Username, user.Household)
}

func (h *HouseholdHandler) NoHouseholdPage(w http.ResponseWriter, r *http.Request) {
	h.render.Render(w, r, http.StatusOK, "no_household.html", map[string]any{
		"Title": "Find your household",
	})
}

// NoHousehold creates or joins the household named in the form.
func (h *HouseholdHandler) NoHousehold(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render.Error(w, r, apperr.Validation("invalid form data"))
		return
	}
	ac, _ := auth.FromContext(r.Context())
	action := r.PostFormValue("action")

	name, err := h.households.Apply(r.Context(), action, r.PostFormValue("household"), ac.UserID)
	if err != nil {
		h.render.Error(w, r, err)
		return
	}
	if err := h.sessions.RefreshHousehold(r.Context(), ac.SessionID, name); err != nil {
		h.render.Error(w, r, err)
		return
	}

	if action == household.ActionCreate {
		h.metrics.AuthEvent(metrics.EventHouseholdCreated)
	} else {
		h.metrics.AuthEvent(metrics.EventHouseholdJoined)
	}
	h.hub.Broadcast(name, ws.NewMessage("member", "joined", ac.UserID, map[string]any{
		"username": h.username(r.Context(), ac.UserID),
	}))
	h.logger.Info("household membership changed", "action", action, "household", name, "user_id", ac.UserID)

	redirect(w, r, "/household")
}

func (h *HouseholdHandler) Household(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	user, err := h.accounts.Get(r.Context(), ac.UserID)
	if err != nil {
		h.render.Error(w, r, err)
		return
	}
	h.renderHousehold(w, r, user.Username, ac.Household)
}

func (h *HouseholdHandler) renderHousehold(w http.ResponseWriter, r *http.Request, username, name string) {
	members, err := h.households.Members(r.Context(), name)
	if err != nil {
		h.render.Error(w, r, err)
		return
	}
	h.render.Render(w, r, http.StatusOK, "household.html", map[string]any{
		"Title":     name,
		"Household": name,
		"Username":  username,
		"Members":   members,
	})
}

func (h *HouseholdHandler) username(ctx context.Context, userID int64) string {
	u, err := h.accounts.Get(ctx, userID)
	if err != nil {
		h.logger.Warn("lookup username for broadcast", "user_id", userID, "error", err)
		return ""
	}
	return u.Username
}
