package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"teacher-assistant-bot/internal/domain"
	"teacher-assistant-bot/internal/infra/memory"
)

type countingLoader struct {
	memory.QuestionLoader
	mu    sync.Mutex
	calls int
}

func (l *countingLoader) LoadQuestions(ctx context.Context) ([]domain.QuizQuestion, error) {
	l.mu.Lock()
	l.calls++
	l.mu.Unlock()
	return l.QuestionLoader.LoadQuestions(ctx)
}

func TestQuestionRepositoryCachesInRedis(t *testing.T) {
	mr, client := newTestRedis(t)
	loader := &countingLoader{QuestionLoader: memory.NewStaticQuestionLoader([]domain.QuizQuestion{
		{ID: 1, Prompt: "What is 2 + 2?", Options: []string{"3", "4"}, CorrectIndex: 1},
	})}
	repo := NewQuestionRepository(client, loader, time.Minute)
	ctx := context.Background()

	questions, err := repo.ListQuestions(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(questions) != 1 || questions[0].CorrectOption() != "4" {
		t.Fatalf("unexpected questions %+v", questions)
	}
	if !mr.Exists(questionsKey) {
		t.Fatalf("expected cache key")
	}

	_, _ = repo.ListQuestions(ctx)
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}

	if err := repo.Invalidate(ctx); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	_, _ = repo.ListQuestions(ctx)
	if loader.calls != 2 {
		t.Fatalf("expected reload after invalidate, loader calls=%d", loader.calls)
	}
}

func TestQuestionRepositoryFallsBackWhenRedisDown(t *testing.T) {
	mr, client := newTestRedis(t)
	loader := &countingLoader{QuestionLoader: memory.NewStaticQuestionLoader([]domain.QuizQuestion{
		{ID: 1, Prompt: "p", Options: []string{"a", "b"}},
	})}
	repo := NewQuestionRepository(client, loader, time.Minute)
	mr.Close()

	questions, err := repo.ListQuestions(context.Background())
	if err != nil || len(questions) != 1 {
		t.Fatalf("expected loader fallback, got %v err=%v", questions, err)
	}
}
