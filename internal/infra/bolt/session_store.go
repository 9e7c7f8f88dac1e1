package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"quizmaster/internal/domain"
)

var attemptsBucket = []byte("attempts")

// SessionStore keeps attempt state in a local bbolt file so a single instance survives restarts.
type SessionStore struct {
	db  *bbolt.DB
	ttl time.Duration
	now func() time.Time
}

type envelope struct {
	ExpiresAt time.Time           `json:"expiresAt"`
	State     domain.AttemptState `json:"state"`
}

// Open opens (or creates) the bbolt file at path. A ttl of zero keeps attempts until they are cleared.
func Open(path string, ttl time.Duration) (*SessionStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt: %w", err)
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(attemptsBucket)
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}
	return &SessionStore{db: db, ttl: ttl, now: time.Now}, nil
}

func (s *SessionStore) Close() error {
	return s.db.Close()
}

func (s *SessionStore) Load(_ context.Context, sessionID string) (domain.AttemptState, bool, error) {
	var (
		env   envelope
		found bool
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(attemptsBucket).Get([]byte(sessionID))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &env)
	})
	if err != nil {
		return domain.AttemptState{}, false, fmt.Errorf("load attempt: %w", err)
	}
	if !found {
		return domain.AttemptState{}, false, nil
	}
	if !env.ExpiresAt.IsZero() && s.now().After(env.ExpiresAt) {
		return domain.AttemptState{}, false, s.Delete(context.Background(), sessionID)
	}
	if env.State.Answers == nil {
		env.State.Answers = make(map[string]string)
	}
	return env.State, true, nil
}

func (s *SessionStore) Save(_ context.Context, sessionID string, state domain.AttemptState) error {
	env := envelope{State: state}
	if s.ttl > 0 {
		env.ExpiresAt = s.now().Add(s.ttl)
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal attempt: %w", err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(attemptsBucket).Put([]byte(sessionID), data)
	})
}

func (s *SessionStore) Delete(_ context.Context, sessionID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(attemptsBucket).Delete([]byte(sessionID))
	})
}
