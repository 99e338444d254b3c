package websocket

import (
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/roomies/internal/auth"
)

// HandleWebSocket upgrades the request and subscribes it to the caller's
// household room. originPatterns are extra hosts allowed to connect besides
// the request's own.
func HandleWebSocket(hub *Hub, logger *slog.Logger, originPatterns ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		household := auth.Household(r.Context())
		if household == "" {
			http.Error(w, "household required", http.StatusForbidden)
			return
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			OriginPatterns: originPatterns,
		})
		if err != nil {
			logger.Warn("websocket accept", "error", err)
			return
		}

		logger.Debug("websocket connected", "household", household)
		NewClient(hub, conn, household).Run(r.Context())
		logger.Debug("websocket disconnected", "household", household)
	}
}
