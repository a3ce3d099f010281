// ABOUTME: Request identity carried through handlers via context
// ABOUTME: Set by the HTTP middleware, read by the API and websocket handlers

package auth

import "context"

// User is the authenticated caller.
type User struct {
	ID string
}

type userKey struct{}

// WithUser returns a context carrying u.
func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// FromContext returns the caller, or nil when the request was not authenticated.
func FromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userKey{}).(*User)
	return u
}
