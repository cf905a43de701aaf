// Package memory provides in-memory session store adapters for tests
// and single-node development setups.
package memory

import (
	"context"
	"sync"
	"time"

	"backoffice-api/internal/domain"
)

// SessionStore implements domain.SessionStore over a mutex-guarded map.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
	newID    func() (string, error)
}

// NewSessionStore creates an in-memory session store using the given id
// generator for new records.
func NewSessionStore(newID func() (string, error)) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*domain.Session),
		newID:    newID,
	}
}

func (s *SessionStore) Create(ctx context.Context, ownerID string, ttl time.Duration) (*domain.Session, error) {
	id, err := s.newID()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	session := &domain.Session{
		ID:        id,
		OwnerID:   ownerID,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session

	copied := *session
	return &copied, nil
}

func (s *SessionStore) Find(ctx context.Context, id string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}

	copied := *session
	return &copied, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return domain.ErrSessionNotFound
	}
	delete(s.sessions, id)
	return nil
}

// Cancel flags a session as revoked without removing it.
func (s *SessionStore) Cancel(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	session.Canceled = true
	return nil
}

// DeleteExpired removes sessions past their expiry.
func (s *SessionStore) DeleteExpired(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	var count int64
	for id, session := range s.sessions {
		if session.Expired(now) {
			delete(s.sessions, id)
			count++
		}
	}
	return count, nil
}

// Len returns the number of stored sessions. Test helper.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
