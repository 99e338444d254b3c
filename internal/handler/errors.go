package handler

import (
	"net/http"

	"github.com/dukerupert/roomies/internal/apperr"
)

// Error renders the error page for err with the status its code maps to.
// Internal errors are logged and shown as a bare "Internal error".
func (rd *Renderer) Error(w http.ResponseWriter, r *http.Request, err error) {
	rd.ErrorStatus(w, r, apperr.Status(err), err)
}

// ErrorStatus is Error with an explicit status.
func (rd *Renderer) ErrorStatus(w http.ResponseWriter, r *http.Request, status int, err error) {
	if apperr.Code(err) == "" {
		apperr.Log(rd.logger, "request failed", err)
		status = http.StatusInternalServerError
	}
	rd.Render(w, r, status, "error.html", map[string]any{
		"Title":   http.StatusText(status),
		"Status":  status,
		"Message": apperr.Message(err),
	})
}
