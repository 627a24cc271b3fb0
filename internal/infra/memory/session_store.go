package memory

import (
	"context"
	"sync"

	"teacher-assistant-bot/internal/domain"
)

// SessionStore is an in-memory implementation of app.SessionRepository keyed by user.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[int64]domain.QuizSession
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[int64]domain.QuizSession),
	}
}

func (s *SessionStore) Get(_ context.Context, userID int64) (domain.QuizSession, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[userID]
	return session, ok, nil
}

func (s *SessionStore) Put(_ context.Context, session domain.QuizSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.UserID] = session
	return nil
}

func (s *SessionStore) Delete(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
	return nil
}

// Len reports the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
