package memory

import (
	"context"
	"sync"

	"quizmaster/internal/domain"
)

// SessionStore is an in-memory implementation of app.SessionStore.
type SessionStore struct {
	mu       sync.RWMutex
	attempts map[string]domain.AttemptState
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		attempts: make(map[string]domain.AttemptState),
	}
}

func (s *SessionStore) Load(_ context.Context, sessionID string) (domain.AttemptState, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.attempts[sessionID]
	if !ok {
		return domain.AttemptState{}, false, nil
	}
	return cloneState(state), true, nil
}

func (s *SessionStore) Save(_ context.Context, sessionID string, state domain.AttemptState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts[sessionID] = cloneState(state)
	return nil
}

func (s *SessionStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.attempts, sessionID)
	return nil
}

// cloneState copies the answer map so callers never share it with the store.
func cloneState(state domain.AttemptState) domain.AttemptState {
	answers := make(map[string]string, len(state.Answers))
	for k, v := range state.Answers {
		answers[k] = v
	}
	state.Answers = answers
	return state
}
