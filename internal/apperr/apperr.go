// Package apperr defines the error kinds surfaced to HTTP clients.
//
// Domain errors are oops errors tagged with one of the codes below. Anything
// without a known code is an internal failure and is reported as a 500.
package apperr

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/samber/oops"
)

const (
	CodeValidation  = "VALIDATION"
	CodeConflict    = "CONFLICT"
	CodeAuth        = "AUTH"
	CodeNotFound    = "NOT_FOUND"
	CodeState       = "STATE"
	CodeRateLimited = "RATE_LIMITED"
)

// Validation reports missing or malformed input.
func Validation(format string, args ...any) error {
	return oops.Code(CodeValidation).Errorf(format, args...)
}

// Conflict reports a uniqueness violation.
func Conflict(format string, args ...any) error {
	return oops.Code(CodeConflict).Errorf(format, args...)
}

// Auth reports bad credentials or a missing login.
func Auth(format string, args ...any) error {
	return oops.Code(CodeAuth).Errorf(format, args...)
}

// NotFound reports a reference to something that does not exist.
func NotFound(format string, args ...any) error {
	return oops.Code(CodeNotFound).Errorf(format, args...)
}

// State reports an authenticated user who has not joined a household yet.
func State(format string, args ...any) error {
	return oops.Code(CodeState).Errorf(format, args...)
}

// RateLimited reports a client that made too many attempts.
func RateLimited(format string, args ...any) error {
	return oops.Code(CodeRateLimited).Errorf(format, args...)
}

// Code returns the error kind of err, or "" for internal errors.
func Code(err error) string {
	o, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	switch code := fmt.Sprint(o.Code()); code {
	case CodeValidation, CodeConflict, CodeAuth, CodeNotFound, CodeState, CodeRateLimited:
		return code
	}
	return ""
}

// Is reports whether err carries the given code.
func Is(err error, code string) bool {
	return err != nil && Code(err) == code
}

// Status maps err to the HTTP status shown to the client. STATE is a 403
// here; redirecting to the household form is left to the guards.
func Status(err error) int {
	switch Code(err) {
	case CodeValidation, CodeConflict, CodeNotFound:
		return http.StatusBadRequest
	case CodeAuth, CodeState:
		return http.StatusForbidden
	case CodeRateLimited:
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

// Message returns the text safe to show the client. Internal errors never
// leak their cause.
func Message(err error) string {
	if Code(err) == "" {
		return "Internal error"
	}
	o, _ := oops.AsOops(err)
	return o.Error()
}

// Log writes err with its code and oops context when present.
func Log(logger *slog.Logger, msg string, err error) {
	o, ok := oops.AsOops(err)
	if !ok {
		logger.Error(msg, "error", err)
		return
	}
	attrs := []any{"error", o.Error()}
	if code := fmt.Sprint(o.Code()); code != "" && code != "<nil>" {
		attrs = append(attrs, "code", code)
	}
	if ctx := o.Context(); len(ctx) > 0 {
		attrs = append(attrs, "context", ctx)
	}
	logger.Error(msg, attrs...)
}
