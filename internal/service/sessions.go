package service

import (
	"sync"

	"github.com/google/uuid"

	"github.com/border1px/video-remix/internal/domain"
)

// SessionStore keeps script sessions in memory for the process lifetime.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[domain.SessionID]*domain.ScriptSession
}

// NewSessionStore creates an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[domain.SessionID]*domain.ScriptSession),
	}
}

// NewSessionID returns a fresh random session id.
func NewSessionID() domain.SessionID {
	return domain.SessionID(uuid.New().String())
}

// Put stores a copy of session.
func (s *SessionStore) Put(session *domain.ScriptSession) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[session.ID] = cloneSession(session)
}

// Get returns a copy of the session with id.
func (s *SessionStore) Get(id domain.SessionID) (*domain.ScriptSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return cloneSession(session), nil
}

// Len returns the number of stored sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func cloneSession(in *domain.ScriptSession) *domain.ScriptSession {
	out := *in
	out.History = append([]domain.Turn(nil), in.History...)
	out.Log = append([]domain.ProgressEvent(nil), in.Log...)
	return &out
}
