package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"quizmaster/internal/domain"
)

// SessionStore keeps attempt state in Redis so any instance can serve the next request.
// Each save refreshes the key's TTL; an idle attempt expires with it.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func (s *SessionStore) Load(ctx context.Context, sessionID string) (domain.AttemptState, bool, error) {
	data, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.AttemptState{}, false, nil
	}
	if err != nil {
		return domain.AttemptState{}, false, fmt.Errorf("load attempt: %w", err)
	}
	var state domain.AttemptState
	if err := json.Unmarshal(data, &state); err != nil {
		return domain.AttemptState{}, false, fmt.Errorf("unmarshal attempt: %w", err)
	}
	if state.Answers == nil {
		state.Answers = make(map[string]string)
	}
	return state, true, nil
}

func (s *SessionStore) Save(ctx context.Context, sessionID string, state domain.AttemptState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal attempt: %w", err)
	}
	if err := s.client.Set(ctx, s.key(sessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save attempt: %w", err)
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("delete attempt: %w", err)
	}
	return nil
}

func (s *SessionStore) key(sessionID string) string {
	return "quiz:attempt:" + sessionID
}
