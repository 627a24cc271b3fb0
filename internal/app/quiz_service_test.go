package app_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"teacher-assistant-bot/internal/app"
	"teacher-assistant-bot/internal/domain"
	"teacher-assistant-bot/internal/infra/memory"
)

func TestQuizCorrectAnswerCompletes(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestQuiz(t, additionQuestion())
	register(t, store, 1)

	prompt, err := svc.Start(ctx, 1)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if prompt.Number != 1 || prompt.Total != 1 || prompt.Question.Prompt != "2+2?" {
		t.Fatalf("unexpected prompt %+v", prompt)
	}
	choices := prompt.Choices()
	if len(choices) != 3 || choices[1].Token != "quiz__1" || choices[1].Label != "4" {
		t.Fatalf("unexpected choices %+v", choices)
	}

	res, err := svc.Answer(ctx, 1, 1)
	if err != nil {
		t.Fatalf("answer failed: %v", err)
	}
	if !res.Correct || res.Score != 1 || res.Total != 1 || res.State != domain.SessionCompleted {
		t.Fatalf("unexpected result %+v", res)
	}
	results := store.Results()
	if len(results) != 1 || results[0].Score != 1 || results[0].Total != 1 {
		t.Fatalf("expected persisted result 1/1, got %+v", results)
	}
	if state, _ := svc.State(ctx, 1); state != domain.SessionNotStarted {
		t.Fatalf("expected session discarded, got %s", state)
	}
}

func TestQuizIncorrectAnswerRevealsCorrectOption(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestQuiz(t, additionQuestion())
	register(t, store, 1)

	if _, err := svc.Start(ctx, 1); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	res, err := svc.Answer(ctx, 1, 0)
	if err != nil {
		t.Fatalf("answer failed: %v", err)
	}
	if res.Correct || res.CorrectOption != "4" || res.Score != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
	results := store.Results()
	if len(results) != 1 || results[0].Score != 0 || results[0].Total != 1 {
		t.Fatalf("expected persisted result 0/1, got %+v", results)
	}
}

func TestQuizScoreCountsMatchingAnswers(t *testing.T) {
	ctx := context.Background()
	questions := []domain.QuizQuestion{
		{ID: 1, Prompt: "a", Options: []string{"x", "y"}, CorrectIndex: 0},
		{ID: 2, Prompt: "b", Options: []string{"x", "y", "z"}, CorrectIndex: 2},
		{ID: 3, Prompt: "c", Options: []string{"x", "y"}, CorrectIndex: 1},
		{ID: 4, Prompt: "d", Options: []string{"x", "y"}, CorrectIndex: 1},
	}
	answers := []int{0, 1, 1, 0}
	svc, store := newTestQuiz(t, questions...)
	register(t, store, 9)

	if _, err := svc.Start(ctx, 9); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	var last app.AnswerResult
	for i, option := range answers {
		res, err := svc.Answer(ctx, 9, option)
		if err != nil {
			t.Fatalf("answer %d failed: %v", i, err)
		}
		if i < len(answers)-1 {
			if res.State != domain.SessionActive || res.Next == nil || res.Next.Number != i+2 {
				t.Fatalf("answer %d: expected next question, got %+v", i, res)
			}
		}
		last = res
	}
	if last.State != domain.SessionCompleted || last.Score != 2 || last.Total != 4 {
		t.Fatalf("expected completed 2/4, got %+v", last)
	}
	if results := store.Results(); len(results) != 1 || results[0].Score != 2 {
		t.Fatalf("expected one result with score 2, got %+v", results)
	}
}

func TestQuizStartRequiresRegistration(t *testing.T) {
	svc, _ := newTestQuiz(t, additionQuestion())
	if _, err := svc.Start(context.Background(), 42); !errors.Is(err, domain.ErrNotRegistered) {
		t.Fatalf("expected ErrNotRegistered, got %v", err)
	}
	if state, _ := svc.State(context.Background(), 42); state != domain.SessionNotStarted {
		t.Fatalf("expected no session, got %s", state)
	}
}

func TestQuizStartWithoutQuestions(t *testing.T) {
	svc, store := newTestQuiz(t)
	register(t, store, 1)
	if _, err := svc.Start(context.Background(), 1); !errors.Is(err, domain.ErrNoQuestions) {
		t.Fatalf("expected ErrNoQuestions, got %v", err)
	}
}

func TestQuizStartWhileActiveIsRejected(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestQuiz(t, additionQuestion(), additionQuestion())
	register(t, store, 1)

	if _, err := svc.Start(ctx, 1); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, err := svc.Answer(ctx, 1, 1); err != nil {
		t.Fatalf("answer failed: %v", err)
	}
	if _, err := svc.Start(ctx, 1); !errors.Is(err, domain.ErrQuizInProgress) {
		t.Fatalf("expected ErrQuizInProgress, got %v", err)
	}
	res, err := svc.Answer(ctx, 1, 1)
	if err != nil {
		t.Fatalf("answer after rejected start failed: %v", err)
	}
	if res.Score != 2 || res.State != domain.SessionCompleted {
		t.Fatalf("expected progress preserved, got %+v", res)
	}
}

func TestQuizCancelDiscardsSession(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestQuiz(t, additionQuestion(), additionQuestion())
	register(t, store, 1)

	if _, err := svc.Start(ctx, 1); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := svc.Cancel(ctx, 1); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if len(store.Results()) != 0 {
		t.Fatalf("cancel must not persist a result")
	}
	if _, err := svc.Answer(ctx, 1, 1); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected answer after cancel to be a no-op, got %v", err)
	}
	if err := svc.Cancel(ctx, 1); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected nothing to cancel, got %v", err)
	}
}

func TestQuizAnswerWithoutSessionIsNoop(t *testing.T) {
	svc, store := newTestQuiz(t, additionQuestion())
	register(t, store, 1)
	if _, err := svc.Answer(context.Background(), 1, 0); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if len(store.Results()) != 0 {
		t.Fatalf("no result expected")
	}
}

func TestQuizOptionOutOfRangeKeepsState(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestQuiz(t, additionQuestion())
	register(t, store, 1)
	_, _ = svc.Start(ctx, 1)

	if _, err := svc.Answer(ctx, 1, 3); !errors.Is(err, domain.ErrOptionOutOfRange) {
		t.Fatalf("expected ErrOptionOutOfRange, got %v", err)
	}
	res, err := svc.Answer(ctx, 1, 1)
	if err != nil || res.State != domain.SessionCompleted || res.Score != 1 {
		t.Fatalf("expected session untouched by invalid option, got %+v err=%v", res, err)
	}
}

func TestQuizResultWriteFailureKeepsSession(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	register(t, store, 1)
	results := &flakyResults{ResultStore: store, fail: true}
	svc := app.NewQuizService(
		memory.NewSessionStore(),
		memory.NewStaticQuestionLoader([]domain.QuizQuestion{additionQuestion()}),
		store, results, memory.NewLocker(), zerolog.Nop(),
	)

	_, _ = svc.Start(ctx, 1)
	if _, err := svc.Answer(ctx, 1, 1); err == nil {
		t.Fatalf("expected failure when result write fails")
	}
	if state, _ := svc.State(ctx, 1); state != domain.SessionActive {
		t.Fatalf("session must stay active after failed write, got %s", state)
	}

	results.fail = false
	res, err := svc.Answer(ctx, 1, 1)
	if err != nil || res.State != domain.SessionCompleted || res.Score != 1 {
		t.Fatalf("expected retry to complete with score 1, got %+v err=%v", res, err)
	}
	if len(store.Results()) != 1 {
		t.Fatalf("expected exactly one persisted result")
	}
}

func TestQuizSessionDeleteFailureDoesNotRescore(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	register(t, store, 1)
	sessions := &stickySessions{SessionStore: memory.NewSessionStore(), failDeletes: 1}
	svc := app.NewQuizService(
		sessions,
		memory.NewStaticQuestionLoader([]domain.QuizQuestion{additionQuestion()}),
		store, store, memory.NewLocker(), zerolog.Nop(),
	)

	if _, err := svc.Start(ctx, 1); err != nil {
		t.Fatalf("start: %v", err)
	}
	res, err := svc.Answer(ctx, 1, 1)
	if err != nil || res.State != domain.SessionCompleted || res.Score != 1 {
		t.Fatalf("expected completion 1/1, got %+v err=%v", res, err)
	}
	if state, _ := svc.State(ctx, 1); state == domain.SessionActive {
		t.Fatalf("finished quiz must not report active")
	}

	if _, err := svc.Answer(ctx, 1, 0); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound for a tap after completion, got %v", err)
	}
	if results := store.Results(); len(results) != 1 || results[0].Score != 1 {
		t.Fatalf("expected exactly one QuizResult, got %+v", results)
	}
	if sessions.Len() != 0 {
		t.Fatalf("finished session must be cleaned up on the next tap")
	}
}

func TestQuizStartReplacesParkedSession(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	register(t, store, 1)
	sessions := &stickySessions{SessionStore: memory.NewSessionStore(), failDeletes: 1}
	svc := app.NewQuizService(
		sessions,
		memory.NewStaticQuestionLoader([]domain.QuizQuestion{additionQuestion()}),
		store, store, memory.NewLocker(), zerolog.Nop(),
	)

	_, _ = svc.Start(ctx, 1)
	if _, err := svc.Answer(ctx, 1, 1); err != nil {
		t.Fatalf("answer: %v", err)
	}
	prompt, err := svc.Start(ctx, 1)
	if err != nil || prompt.Number != 1 {
		t.Fatalf("expected a fresh quiz, got %+v err=%v", prompt, err)
	}
	if len(store.Results()) != 1 {
		t.Fatalf("restart must not record a result")
	}
}

func TestQuizSessionsAreIsolatedPerUser(t *testing.T) {
	ctx := context.Background()
	questions := make([]domain.QuizQuestion, 10)
	for i := range questions {
		questions[i] = domain.QuizQuestion{ID: int64(i + 1), Prompt: fmt.Sprint(i), Options: []string{"a", "b"}, CorrectIndex: 0}
	}
	svc, store := newTestQuiz(t, questions...)
	register(t, store, 1)
	register(t, store, 2)
	_, _ = svc.Start(ctx, 1)
	_, _ = svc.Start(ctx, 2)

	var wg sync.WaitGroup
	for _, user := range []struct {
		id     int64
		option int
	}{{1, 0}, {2, 1}} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range questions {
				if _, err := svc.Answer(ctx, user.id, user.option); err != nil {
					t.Errorf("user %d answer: %v", user.id, err)
					return
				}
			}
		}()
	}
	wg.Wait()

	scores := map[int64]int{}
	for _, r := range store.Results() {
		scores[r.UserID] = r.Score
	}
	if scores[1] != 10 || scores[2] != 0 || len(scores) != 2 {
		t.Fatalf("expected user1=10 user2=0, got %+v", scores)
	}
}

func TestQuizConcurrentDuplicateTapsDoNotLoseUpdates(t *testing.T) {
	ctx := context.Background()
	questions := make([]domain.QuizQuestion, 5)
	for i := range questions {
		questions[i] = domain.QuizQuestion{ID: int64(i + 1), Prompt: "q", Options: []string{"a", "b"}, CorrectIndex: 0}
	}
	svc, store := newTestQuiz(t, questions...)
	register(t, store, 1)
	_, _ = svc.Start(ctx, 1)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.Answer(ctx, 1, 0)
		}()
	}
	wg.Wait()

	results := store.Results()
	if len(results) != 1 || results[0].Score != 5 || results[0].Total != 5 {
		t.Fatalf("expected a single 5/5 result, got %+v", results)
	}
}

func newTestQuiz(t *testing.T, questions ...domain.QuizQuestion) (*app.QuizService, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	if _, err := store.SeedQuestions(context.Background(), questions); err != nil {
		t.Fatalf("seed: %v", err)
	}
	svc := app.NewQuizService(memory.NewSessionStore(), store, store, store, memory.NewLocker(), zerolog.Nop()).
		WithClock(func() time.Time { return time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC) })
	return svc, store
}

func register(t *testing.T, store *memory.Store, id int64) {
	t.Helper()
	if _, err := store.CreateUser(context.Background(), domain.User{ID: id, Name: "user"}); err != nil {
		t.Fatalf("register: %v", err)
	}
}

func additionQuestion() domain.QuizQuestion {
	return domain.QuizQuestion{ID: 1, Prompt: "2+2?", Options: []string{"3", "4", "5"}, CorrectIndex: 1}
}

type flakyResults struct {
	app.ResultStore
	fail bool
}

func (f *flakyResults) InsertResult(ctx context.Context, r domain.QuizResult) error {
	if f.fail {
		return errors.New("db unavailable")
	}
	return f.ResultStore.InsertResult(ctx, r)
}

type stickySessions struct {
	*memory.SessionStore
	failDeletes int
}

func (s *stickySessions) Delete(ctx context.Context, userID int64) error {
	if s.failDeletes > 0 {
		s.failDeletes--
		return errors.New("redis unavailable")
	}
	return s.SessionStore.Delete(ctx, userID)
}
