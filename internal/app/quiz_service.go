package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"teacher-assistant-bot/internal/domain"
)

// QuizService drives users through the question set, one session per user.
type QuizService struct {
	sessions  SessionRepository
	questions QuestionRepository
	users     UserStore
	results   ResultStore
	locks     Locker
	log       zerolog.Logger
	now       func() time.Time
}

func NewQuizService(sessions SessionRepository, questions QuestionRepository, users UserStore, results ResultStore, locks Locker, log zerolog.Logger) *QuizService {
	return &QuizService{
		sessions:  sessions,
		questions: questions,
		users:     users,
		results:   results,
		locks:     locks,
		log:       log.With().Str("module", "quiz").Logger(),
		now:       time.Now,
	}
}

// WithClock is test-only for deterministic timestamps.
func (s *QuizService) WithClock(now func() time.Time) *QuizService {
	s.now = now
	return s
}

// QuestionPrompt is a question ready to be shown; Number is 1-based.
type QuestionPrompt struct {
	Question domain.QuizQuestion
	Number   int
	Total    int
}

// Choices tags every option with its zero-based index.
func (p QuestionPrompt) Choices() []domain.Choice {
	choices := make([]domain.Choice, len(p.Question.Options))
	for i, opt := range p.Question.Options {
		choices[i] = domain.Choice{Label: opt, Token: domain.QuizAnswerCallback{Option: i}.Token()}
	}
	return choices
}

// AnswerResult summarizes one answer event.
type AnswerResult struct {
	Correct       bool
	CorrectOption string
	Score         int
	Total         int
	State         domain.SessionState
	Next          *QuestionPrompt
}

// Start opens a session for a registered user and returns the first question.
func (s *QuizService) Start(ctx context.Context, userID int64) (QuestionPrompt, error) {
	unlock, err := s.locks.Lock(ctx, sessionKey(userID))
	if err != nil {
		return QuestionPrompt{}, fmt.Errorf("lock session: %w", err)
	}
	defer unlock()

	if _, err := s.users.GetUser(ctx, userID); err != nil {
		return QuestionPrompt{}, err
	}

	existing, ok, err := s.sessions.Get(ctx, userID)
	if err != nil {
		return QuestionPrompt{}, fmt.Errorf("load session: %w", err)
	}
	if ok {
		if _, active := existing.Current(); active {
			return QuestionPrompt{}, domain.ErrQuizInProgress
		}
		// finished snapshot parked after a failed delete
		if err := s.sessions.Delete(ctx, userID); err != nil {
			return QuestionPrompt{}, fmt.Errorf("delete finished session: %w", err)
		}
	}

	questions, err := s.questions.ListQuestions(ctx)
	if err != nil {
		return QuestionPrompt{}, fmt.Errorf("list questions: %w", err)
	}
	if len(questions) == 0 {
		return QuestionPrompt{}, domain.ErrNoQuestions
	}

	snapshot := make([]domain.QuizQuestion, len(questions))
	copy(snapshot, questions)
	session := domain.QuizSession{
		UserID:    userID,
		Questions: snapshot,
		Position:  0,
		Score:     0,
		Total:     len(snapshot),
		StartedAt: s.now(),
	}
	if err := s.sessions.Put(ctx, session); err != nil {
		return QuestionPrompt{}, fmt.Errorf("store session: %w", err)
	}
	return promptFor(session), nil
}

// Answer scores the selected option against the current question and advances.
func (s *QuizService) Answer(ctx context.Context, userID int64, option int) (AnswerResult, error) {
	unlock, err := s.locks.Lock(ctx, sessionKey(userID))
	if err != nil {
		return AnswerResult{}, fmt.Errorf("lock session: %w", err)
	}
	defer unlock()

	session, ok, err := s.sessions.Get(ctx, userID)
	if err != nil {
		return AnswerResult{}, fmt.Errorf("load session: %w", err)
	}
	if !ok {
		return AnswerResult{}, domain.ErrSessionNotFound
	}

	question, ok := session.Current()
	if !ok {
		// finished snapshot parked after a failed delete
		_ = s.sessions.Delete(ctx, userID)
		return AnswerResult{}, domain.ErrSessionNotFound
	}
	if option < 0 || option >= len(question.Options) {
		return AnswerResult{}, domain.ErrOptionOutOfRange
	}

	next := session
	correct := option == question.CorrectIndex
	if correct {
		next.Score++
	}
	next.Position++

	result := AnswerResult{
		Correct:       correct,
		CorrectOption: question.CorrectOption(),
		Score:         next.Score,
		Total:         next.Total,
		State:         domain.SessionActive,
	}

	if next.Position >= next.Total {
		if err := s.results.InsertResult(ctx, domain.QuizResult{
			UserID:  userID,
			Score:   next.Score,
			Total:   next.Total,
			TakenAt: s.now(),
		}); err != nil {
			return AnswerResult{}, fmt.Errorf("save quiz result: %w", err)
		}
		if err := s.sessions.Delete(ctx, userID); err != nil {
			s.log.Warn().Err(err).Int64("user_id", userID).Msg("session_delete_failed")
			// Position == Total: the finished question can no longer be scored again
			if err := s.sessions.Put(ctx, next); err != nil {
				s.log.Error().Err(err).Int64("user_id", userID).Msg("session_park_failed")
			}
		}
		result.State = domain.SessionCompleted
		return result, nil
	}

	if err := s.sessions.Put(ctx, next); err != nil {
		return AnswerResult{}, fmt.Errorf("store session: %w", err)
	}
	prompt := promptFor(next)
	result.Next = &prompt
	return result, nil
}

// Cancel discards an active session without recording a result.
func (s *QuizService) Cancel(ctx context.Context, userID int64) error {
	unlock, err := s.locks.Lock(ctx, sessionKey(userID))
	if err != nil {
		return fmt.Errorf("lock session: %w", err)
	}
	defer unlock()

	if _, ok, err := s.sessions.Get(ctx, userID); err != nil {
		return fmt.Errorf("load session: %w", err)
	} else if !ok {
		return domain.ErrSessionNotFound
	}
	if err := s.sessions.Delete(ctx, userID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// State reports whether the user currently holds an active session.
func (s *QuizService) State(ctx context.Context, userID int64) (domain.SessionState, error) {
	session, ok, err := s.sessions.Get(ctx, userID)
	if err != nil {
		return domain.SessionNotStarted, fmt.Errorf("load session: %w", err)
	}
	if !ok {
		return domain.SessionNotStarted, nil
	}
	if _, active := session.Current(); !active {
		return domain.SessionCompleted, nil
	}
	return domain.SessionActive, nil
}

func promptFor(session domain.QuizSession) QuestionPrompt {
	question, _ := session.Current()
	return QuestionPrompt{
		Question: question,
		Number:   session.Position + 1,
		Total:    session.Total,
	}
}

func sessionKey(userID int64) string {
	return fmt.Sprintf("quiz:%d", userID)
}
