// Package auth carries the authenticated identity of a request.
package auth

import "context"

type contextKey struct{}

// Context is resolved once per request from the session cookie. A zero
// UserID means the request is anonymous; an empty Household means the user
// has not created or joined one yet.
type Context struct {
	UserID    int64
	Household string
	SessionID int64
}

func (c Context) Authenticated() bool {
	return c.UserID != 0
}

func (c Context) HasHousehold() bool {
	return c.Authenticated() && c.Household != ""
}

func With(ctx context.Context, ac Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (Context, bool) {
	ac, ok := ctx.Value(contextKey{}).(Context)
	return ac, ok
}

func UserID(ctx context.Context) int64 {
	ac, _ := FromContext(ctx)
	return ac.UserID
}

func Household(ctx context.Context) string {
	ac, _ := FromContext(ctx)
	return ac.Household
}
