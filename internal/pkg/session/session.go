package session

import (
	"context"
	"time"
)

// Session is the authenticated caller as seen by the gateway. It is built once per request by the
// auth middleware and passed explicitly into services.
type Session struct {
	UserID   int64
	Role     string
	Email    string
	Token    string // raw bearer token, forwarded to the hotel backend
	Location *time.Location
}

type contextKey struct{}

// WithContext stores the session on the request context.
func WithContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session attached by the auth middleware, or nil.
func FromContext(ctx context.Context) *Session {
	if s, ok := ctx.Value(contextKey{}).(*Session); ok {
		return s
	}
	return nil
}

// Loc returns the caller's timezone, UTC when unknown.
func (s *Session) Loc() *time.Location {
	if s == nil || s.Location == nil {
		return time.UTC
	}
	return s.Location
}

// HasRole reports whether the session carries one of roles.
func (s *Session) HasRole(roles ...string) bool {
	if s == nil {
		return false
	}
	for _, r := range roles {
		if s.Role == r {
			return true
		}
	}
	return false
}
