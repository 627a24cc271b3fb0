package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"teacher-assistant-bot/internal/domain"
	"teacher-assistant-bot/internal/infra/memory"
)

const questionsKey = "quiz:questions"

// QuestionRepository caches the question set in Redis as one JSON document and falls
// back to the loader on a miss. A Redis outage degrades to loading from the store.
type QuestionRepository struct {
	client *redis.Client
	loader memory.QuestionLoader
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewQuestionRepository(client *redis.Client, loader memory.QuestionLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuestionRepository) ListQuestions(ctx context.Context) ([]domain.QuizQuestion, error) {
	if questions, ok := r.cached(ctx); ok {
		return questions, nil
	}

	result, err, _ := r.sf.Do(questionsKey, func() (interface{}, error) {
		// Re-check in case another caller filled it.
		if questions, ok := r.cached(ctx); ok {
			return questions, nil
		}
		questions, err := r.loader.LoadQuestions(ctx)
		if err != nil {
			return nil, err
		}
		if raw, err := json.Marshal(questions); err == nil {
			_ = r.client.Set(ctx, questionsKey, raw, r.ttlWithJitter()).Err()
		}
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.QuizQuestion), nil
}

// Invalidate drops the cached set so the next read reloads it.
func (r *QuestionRepository) Invalidate(ctx context.Context) error {
	return r.client.Del(ctx, questionsKey).Err()
}

func (r *QuestionRepository) cached(ctx context.Context) ([]domain.QuizQuestion, bool) {
	raw, err := r.client.Get(ctx, questionsKey).Bytes()
	if err != nil {
		return nil, false
	}
	var questions []domain.QuizQuestion
	if err := json.Unmarshal(raw, &questions); err != nil || len(questions) == 0 {
		return nil, false
	}
	return questions, true
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
