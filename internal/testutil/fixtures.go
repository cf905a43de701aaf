package testutil

import (
	"fmt"
	"sync/atomic"
	"time"

	"backoffice-api/internal/domain"
)

// Counter for generating unique IDs
var idCounter atomic.Int64

// nextID generates a unique ID for test fixtures
func nextID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, idCounter.Add(1))
}

// SessionOptions allows customizing session fixture creation
type SessionOptions struct {
	ID        string
	OwnerID   string
	ExpiresAt time.Time
	Canceled  bool
	CreatedAt time.Time
}

// NewTestSession creates a test session with sensible defaults.
// Pass options to override specific fields.
func NewTestSession(opts ...func(*SessionOptions)) *domain.Session {
	o := &SessionOptions{
		ID:        nextID("session"),
		OwnerID:   nextID("owner"),
		ExpiresAt: time.Now().Add(15 * time.Minute),
		CreatedAt: time.Now(),
	}

	for _, opt := range opts {
		opt(o)
	}

	return &domain.Session{
		ID:        o.ID,
		OwnerID:   o.OwnerID,
		ExpiresAt: o.ExpiresAt,
		Canceled:  o.Canceled,
		CreatedAt: o.CreatedAt,
	}
}

// WithSessionID sets the session id
func WithSessionID(id string) func(*SessionOptions) {
	return func(o *SessionOptions) {
		o.ID = id
	}
}

// WithOwnerID sets the owning principal
func WithOwnerID(ownerID string) func(*SessionOptions) {
	return func(o *SessionOptions) {
		o.OwnerID = ownerID
	}
}

// WithExpiresAt sets the expiry instant
func WithExpiresAt(t time.Time) func(*SessionOptions) {
	return func(o *SessionOptions) {
		o.ExpiresAt = t
	}
}

// WithExpired makes the session already past its expiry
func WithExpired() func(*SessionOptions) {
	return func(o *SessionOptions) {
		o.ExpiresAt = time.Now().Add(-time.Minute)
	}
}

// WithCanceled flags the session as revoked
func WithCanceled() func(*SessionOptions) {
	return func(o *SessionOptions) {
		o.Canceled = true
	}
}

// UserOptions allows customizing user fixture creation
type UserOptions struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// NewTestUser creates a test user with sensible defaults
func NewTestUser(opts ...func(*UserOptions)) *domain.User {
	o := &UserOptions{
		ID:           nextID("user"),
		Username:     fmt.Sprintf("testuser%d", idCounter.Load()),
		PasswordHash: "$2a$10$test.hash.for.testing.purposes.only", // bcrypt hash placeholder
	}

	for _, opt := range opts {
		opt(o)
	}

	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now()
	}

	return &domain.User{
		ID:           o.ID,
		Username:     o.Username,
		PasswordHash: o.PasswordHash,
		CreatedAt:    o.CreatedAt,
	}
}

// WithUserID sets the user ID
func WithUserID(id string) func(*UserOptions) {
	return func(o *UserOptions) {
		o.ID = id
	}
}

// WithUsername sets the username
func WithUsername(username string) func(*UserOptions) {
	return func(o *UserOptions) {
		o.Username = username
	}
}

// WithPasswordHash sets the password hash
func WithPasswordHash(hash string) func(*UserOptions) {
	return func(o *UserOptions) {
		o.PasswordHash = hash
	}
}

// CustomerOptions allows customizing customer fixture creation
type CustomerOptions struct {
	ID        string
	Name      string
	Email     string
	CreatedBy string
}

// NewTestCustomer creates a test customer with sensible defaults
func NewTestCustomer(opts ...func(*CustomerOptions)) *domain.Customer {
	o := &CustomerOptions{
		ID:        nextID("customer"),
		Name:      fmt.Sprintf("Customer %d", idCounter.Load()),
		CreatedBy: nextID("owner"),
	}

	for _, opt := range opts {
		opt(o)
	}

	if o.Email == "" {
		o.Email = fmt.Sprintf("%s@example.com", o.ID)
	}

	return &domain.Customer{
		ID:        o.ID,
		Name:      o.Name,
		Email:     o.Email,
		CreatedBy: o.CreatedBy,
		CreatedAt: time.Now(),
	}
}

// WithCustomerID sets the customer ID
func WithCustomerID(id string) func(*CustomerOptions) {
	return func(o *CustomerOptions) {
		o.ID = id
	}
}
