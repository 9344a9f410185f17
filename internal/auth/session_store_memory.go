package auth

import (
	"context"
	"sync"
	"time"
)

// NewInMemorySessionStore returns a SessionStore backed by an in-memory map.
func NewInMemorySessionStore() *InMemorySessionStore {
	return &InMemorySessionStore{sessions: make(map[string]Session)}
}

// InMemorySessionStore implements SessionStore for tests and local development.
type InMemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// Create persists a new session family.
func (s *InMemorySessionStore) Create(_ context.Context, session Session) error {
	s.mu.Lock()
	s.sessions[session.FamilyID] = session
	s.mu.Unlock()
	return nil
}

// Find retrieves a session family by ID.
func (s *InMemorySessionStore) Find(_ context.Context, familyID string) (Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[familyID]
	s.mu.RUnlock()
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return session, nil
}

// Rotate swaps the current token hash when it still matches currentHash.
func (s *InMemorySessionStore) Rotate(_ context.Context, familyID, currentHash, nextHash string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[familyID]
	if !ok || session.TokenHash != currentHash {
		return ErrSessionNotFound
	}
	now := time.Now().UTC()
	session.PreviousTokenHash = session.TokenHash
	session.TokenHash = nextHash
	session.ExpiresAt = expiresAt
	session.RotatedAt = &now
	s.sessions[familyID] = session
	return nil
}

// Delete removes a session family.
func (s *InMemorySessionStore) Delete(_ context.Context, familyID string) error {
	s.mu.Lock()
	delete(s.sessions, familyID)
	s.mu.Unlock()
	return nil
}

// DeleteByUser removes every family owned by the user.
func (s *InMemorySessionStore) DeleteByUser(_ context.Context, userID string) error {
	s.mu.Lock()
	for id, session := range s.sessions {
		if session.UserID == userID {
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()
	return nil
}

// Has reports whether a session family exists. Useful for tests.
func (s *InMemorySessionStore) Has(familyID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sessions[familyID]
	return ok
}
