package domain

import "time"

// User is a registered chat participant.
type User struct {
	ID           int64
	Name         string
	RegisteredAt time.Time
}

// QuizQuestion models an MCQ question with exactly one correct option.
type QuizQuestion struct {
	ID           int64    `json:"id"`
	Prompt       string   `json:"prompt"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
}

// CorrectOption returns the text of the correct option, or "" when the index is invalid.
func (q QuizQuestion) CorrectOption() string {
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
		return ""
	}
	return q.Options[q.CorrectIndex]
}

// SessionState is the lifecycle position of a quiz session.
type SessionState int

const (
	// SessionNotStarted is the absence of a session; it is never stored.
	SessionNotStarted SessionState = iota
	SessionActive
	SessionCompleted
	SessionCancelled
)

func (s SessionState) String() string {
	switch s {
	case SessionActive:
		return "active"
	case SessionCompleted:
		return "completed"
	case SessionCancelled:
		return "cancelled"
	default:
		return "not_started"
	}
}

// QuizSession is the per-user progress through a quiz. Only active sessions are stored.
type QuizSession struct {
	UserID    int64          `json:"userId"`
	Questions []QuizQuestion `json:"questions"`
	Position  int            `json:"position"`
	Score     int            `json:"score"`
	Total     int            `json:"total"`
	StartedAt time.Time      `json:"startedAt"`
}

// Current returns the question at the session position.
func (s QuizSession) Current() (QuizQuestion, bool) {
	if s.Position < 0 || s.Position >= len(s.Questions) {
		return QuizQuestion{}, false
	}
	return s.Questions[s.Position], true
}

// QuizResult is the persisted outcome of a completed session.
type QuizResult struct {
	UserID  int64
	Score   int
	Total   int
	TakenAt time.Time
}

// AttendanceRecord marks a user present on a calendar day (YYYY-MM-DD, UTC).
type AttendanceRecord struct {
	UserID int64
	Date   string
	Note   string
}

// AttendanceStatus is the outcome of an attendance attempt.
type AttendanceStatus int

const (
	AttendanceMarked AttendanceStatus = iota + 1
	AttendanceAlreadyMarked
)

// AskRequest is a free-text question addressed to the administrators.
type AskRequest struct {
	UserID   int64
	Question string
	AskedAt  time.Time
	Handled  bool
}

// BroadcastOutcome summarizes one fan-out run.
type BroadcastOutcome struct {
	ID        string
	Delivered int
	Attempted int
	Failed    []int64
}

// Stats is the admin overview.
type Stats struct {
	Users           int
	AttendanceToday int
}

// Choice is a selectable option bound to a callback token.
type Choice struct {
	Label string
	Token string
}

// DayLayout is the calendar-day format used for attendance keys.
const DayLayout = "2006-01-02"

// DayOf truncates t to its UTC calendar day.
func DayOf(t time.Time) string {
	return t.UTC().Format(DayLayout)
}
