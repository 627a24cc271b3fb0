package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"teacher-assistant-bot/internal/domain"
)

// QuestionLoader fetches the question set from a backing store (SQL, Postgres, static).
type QuestionLoader interface {
	LoadQuestions(ctx context.Context) ([]domain.QuizQuestion, error)
}

// QuestionRepository caches the question set with TTL to avoid repeated DB hits.
type QuestionRepository struct {
	loader QuestionLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu        sync.RWMutex
	cached    []domain.QuizQuestion
	expiresAt time.Time
}

func NewQuestionRepository(loader QuestionLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuestionRepository) ListQuestions(ctx context.Context) ([]domain.QuizQuestion, error) {
	if questions, ok := r.fresh(r.clock()); ok {
		return questions, nil
	}

	result, err, _ := r.sf.Do("questions", func() (interface{}, error) {
		now := r.clock()
		if questions, ok := r.fresh(now); ok {
			return questions, nil
		}

		questions, err := r.loader.LoadQuestions(ctx)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.cached = questions
		r.expiresAt = now.Add(r.ttlWithJitter())
		r.mu.Unlock()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.QuizQuestion), nil
}

// Invalidate drops the cached set so the next call reloads.
func (r *QuestionRepository) Invalidate(_ context.Context) error {
	r.mu.Lock()
	r.cached = nil
	r.expiresAt = time.Time{}
	r.mu.Unlock()
	return nil
}

func (r *QuestionRepository) fresh(now time.Time) ([]domain.QuizQuestion, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.cached != nil && r.expiresAt.After(now) {
		return r.cached, true
	}
	return nil, false
}

// StaticQuestionLoader is a simple loader backed by a slice (useful for tests/demos).
type StaticQuestionLoader struct {
	questions []domain.QuizQuestion
}

func NewStaticQuestionLoader(questions []domain.QuizQuestion) *StaticQuestionLoader {
	return &StaticQuestionLoader{questions: questions}
}

func (l *StaticQuestionLoader) LoadQuestions(_ context.Context) ([]domain.QuizQuestion, error) {
	out := make([]domain.QuizQuestion, len(l.questions))
	copy(out, l.questions)
	return out, nil
}

// ListQuestions lets the static loader serve as an uncached repository.
func (l *StaticQuestionLoader) ListQuestions(ctx context.Context) ([]domain.QuizQuestion, error) {
	return l.LoadQuestions(ctx)
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
