package domain

import (
	"context"
	"errors"
	"time"
)

var ErrSessionNotFound = errors.New("session not found")

// Session is a server-side credential record. The same shape backs both
// login sessions (referenced by the signed token) and CSRF sessions
// (referenced directly by their id, which the client echoes in a header).
type Session struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	ExpiresAt time.Time `json:"expires_at"`
	Canceled  bool      `json:"canceled"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired reports whether the session is past its expiry at the given instant.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// SessionStore is a keyed session record store, instantiated once for
// login sessions and once for CSRF sessions.
//
// Stores never enforce expiry or cancellation. Both are returned as data
// and interpreted by the auth validator, so all expiry semantics live in
// one place. Find returns ErrSessionNotFound for a missing id; any other
// error indicates a transient storage failure. Implementations must be
// safe for concurrent use.
type SessionStore interface {
	Create(ctx context.Context, ownerID string, ttl time.Duration) (*Session, error)
	Find(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}

// SessionCanceler marks a session as revoked without deleting it.
// Implemented by the store adapters and used by explicit logout.
type SessionCanceler interface {
	Cancel(ctx context.Context, id string) error
}

// ExpiredSessionDeleter removes sessions past their expiry in bulk.
// Used by the background sweeper, never on the request path.
type ExpiredSessionDeleter interface {
	DeleteExpired(ctx context.Context) (int64, error)
}
