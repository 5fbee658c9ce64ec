package session

import (
	"context"
	"sync"
	"time"

	id "dailybit/pkg/domain"
	"dailybit/pkg/platform/sentinel"
)

type memoryEntry struct {
	session   Session
	expiresAt time.Time
}

// InMemoryStore is a single-process session store for development and tests.
type InMemoryStore struct {
	mu       sync.Mutex
	sessions map[id.SessionID]memoryEntry
	now      func() time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sessions: make(map[id.SessionID]memoryEntry),
		now:      time.Now,
	}
}

func (s *InMemoryStore) Create(_ context.Context, sess Session, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = memoryEntry{session: sess, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, sessionID id.SessionID) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(sessionID)
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	sess := e.session
	return &sess, nil
}

func (s *InMemoryStore) Touch(_ context.Context, sessionID id.SessionID, now time.Time, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(sessionID)
	if !ok {
		return sentinel.ErrNotFound
	}
	e.session.LastSeenAt = now
	e.expiresAt = s.now().Add(ttl)
	s.sessions[sessionID] = e
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, sessionID id.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

// live must be called with mu held. Expired entries are evicted lazily.
func (s *InMemoryStore) live(sessionID id.SessionID) (memoryEntry, bool) {
	e, ok := s.sessions[sessionID]
	if !ok {
		return memoryEntry{}, false
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.sessions, sessionID)
		return memoryEntry{}, false
	}
	return e, true
}
