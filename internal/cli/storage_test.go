package cli

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"

	"teacher-assistant-bot/internal/config"
)

func TestOpenBackendsSeedsAndDropsStaleCache(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()
	// left over from a previous database
	if err := mr.Set("quiz:questions", `[{"id":9,"prompt":"stale","options":["a","b"],"correctIndex":0}]`); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	var cfg config.Config
	cfg.Storage.Driver = "memory"
	cfg.Redis.Addr = mr.Addr()

	b, err := openBackends(context.Background(), cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("open backends: %v", err)
	}
	defer b.Close()

	questions, err := b.questions.ListQuestions(context.Background())
	if err != nil {
		t.Fatalf("list questions: %v", err)
	}
	if len(questions) != len(sampleQuestions()) || questions[0].Prompt != sampleQuestions()[0].Prompt {
		t.Fatalf("expected freshly seeded questions, got %+v", questions)
	}
}

func TestOpenBackendsMemoryWithoutRedis(t *testing.T) {
	var cfg config.Config
	cfg.Storage.Driver = "memory"

	b, err := openBackends(context.Background(), cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("open backends: %v", err)
	}
	defer b.Close()

	questions, err := b.questions.ListQuestions(context.Background())
	if err != nil || len(questions) != 3 {
		t.Fatalf("expected 3 sample questions, got %d err=%v", len(questions), err)
	}
}
