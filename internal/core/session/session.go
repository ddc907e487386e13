// Package session carries the identity of the caller through the request path.
// Services receive a *Session explicitly; nothing reads identity from globals.
package session

import (
	"context"
	"errors"
	"time"

	"Agora/internal/core/users"
)

// ErrNoSession is returned when an operation requires an authenticated caller.
var ErrNoSession = errors.New("authentication required")

// Session is the authenticated caller of one request.
// It is built by the auth middleware from a verified backend token.
type Session struct {
	ExpiresAt time.Time
	UserID    string
	Handle    string
	Token     string // raw bearer token, forwarded only to the backend
	Role      users.Role
}

// Valid reports whether the session names a user and has not expired.
func (s *Session) Valid() bool {
	if s == nil || s.UserID == "" {
		return false
	}
	return s.ExpiresAt.IsZero() || time.Now().Before(s.ExpiresAt)
}

// CanModerate reports whether the caller may act on other users' content.
func (s *Session) CanModerate() bool {
	return s.Valid() && s.Role.AtLeast(users.RoleModerator)
}

// Owns reports whether the caller is the given author.
func (s *Session) Owns(authorID string) bool {
	return s.Valid() && s.UserID == authorID
}

type contextKey struct{}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session stored in ctx, or nil.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(contextKey{}).(*Session)
	return s
}

// Require returns the session in ctx or ErrNoSession.
func Require(ctx context.Context) (*Session, error) {
	s := FromContext(ctx)
	if !s.Valid() {
		return nil, ErrNoSession
	}
	return s, nil
}
