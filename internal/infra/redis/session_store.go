package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"teacher-assistant-bot/internal/domain"
)

// SessionStore keeps quiz sessions as JSON snapshots so any bot replica can continue
// a user's quiz. Idle sessions expire after ttl.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func (s *SessionStore) Get(ctx context.Context, userID int64) (domain.QuizSession, bool, error) {
	raw, err := s.client.Get(ctx, s.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.QuizSession{}, false, nil
	}
	if err != nil {
		return domain.QuizSession{}, false, fmt.Errorf("redis get session: %w", err)
	}
	var session domain.QuizSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return domain.QuizSession{}, false, fmt.Errorf("decode session: %w", err)
	}
	return session, true, nil
}

func (s *SessionStore) Put(ctx context.Context, session domain.QuizSession) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, s.key(session.UserID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, userID int64) error {
	if err := s.client.Del(ctx, s.key(userID)).Err(); err != nil {
		return fmt.Errorf("redis del session: %w", err)
	}
	return nil
}

func (s *SessionStore) key(userID int64) string {
	return "quiz:session:" + strconv.FormatInt(userID, 10)
}
