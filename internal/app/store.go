package app

import (
	"context"

	"teacher-assistant-bot/internal/domain"
)

// UserStore persists registered users.
type UserStore interface {
	// CreateUser inserts the user unless one with the same ID exists. It reports
	// whether a row was created.
	CreateUser(ctx context.Context, user domain.User) (bool, error)
	GetUser(ctx context.Context, userID int64) (domain.User, error)
	ListUserIDs(ctx context.Context) ([]int64, error)
	CountUsers(ctx context.Context) (int, error)
}

// AttendanceStore persists attendance records.
type AttendanceStore interface {
	HasAttendance(ctx context.Context, userID int64, date string) (bool, error)
	// InsertAttendance reports false when a record for the same (user, date) exists.
	InsertAttendance(ctx context.Context, record domain.AttendanceRecord) (bool, error)
	CountAttendance(ctx context.Context, date string) (int, error)
}

// ResultStore appends finished quiz results.
type ResultStore interface {
	InsertResult(ctx context.Context, result domain.QuizResult) error
}

// AskStore appends questions for the administrators.
type AskStore interface {
	InsertAsk(ctx context.Context, ask domain.AskRequest) error
}

// QuestionRepository returns the quiz question set in a stable order.
type QuestionRepository interface {
	ListQuestions(ctx context.Context) ([]domain.QuizQuestion, error)
}

// SessionRepository abstracts how quiz sessions are stored (in-memory, Redis, etc).
type SessionRepository interface {
	Get(ctx context.Context, userID int64) (domain.QuizSession, bool, error)
	Put(ctx context.Context, session domain.QuizSession) error
	Delete(ctx context.Context, userID int64) error
}

// Locker provides mutual exclusion per key. The returned func releases the lock.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}
