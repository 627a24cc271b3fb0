package memory

import (
	"context"
	"sort"
	"sync"

	"teacher-assistant-bot/internal/domain"
)

// Store keeps every record type in process memory. It backs the "memory" storage
// driver and the service tests.
type Store struct {
	mu         sync.RWMutex
	users      map[int64]domain.User
	attendance map[attendanceKey]domain.AttendanceRecord
	results    []domain.QuizResult
	asks       []domain.AskRequest
	questions  []domain.QuizQuestion
}

type attendanceKey struct {
	userID int64
	date   string
}

func NewStore() *Store {
	return &Store{
		users:      make(map[int64]domain.User),
		attendance: make(map[attendanceKey]domain.AttendanceRecord),
	}
}

func (s *Store) CreateUser(_ context.Context, user domain.User) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; ok {
		return false, nil
	}
	s.users[user.ID] = user
	return true, nil
}

func (s *Store) GetUser(_ context.Context, userID int64) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[userID]
	if !ok {
		return domain.User{}, domain.ErrNotRegistered
	}
	return user, nil
}

func (s *Store) ListUserIDs(_ context.Context) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]int64, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *Store) CountUsers(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users), nil
}

func (s *Store) HasAttendance(_ context.Context, userID int64, date string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.attendance[attendanceKey{userID, date}]
	return ok, nil
}

func (s *Store) InsertAttendance(_ context.Context, record domain.AttendanceRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := attendanceKey{record.UserID, record.Date}
	if _, ok := s.attendance[key]; ok {
		return false, nil
	}
	s.attendance[key] = record
	return true, nil
}

func (s *Store) CountAttendance(_ context.Context, date string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for key := range s.attendance {
		if key.date == date {
			n++
		}
	}
	return n, nil
}

// AttendanceRecords returns every stored record for userID.
func (s *Store) AttendanceRecords(userID int64) []domain.AttendanceRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.AttendanceRecord
	for key, rec := range s.attendance {
		if key.userID == userID {
			out = append(out, rec)
		}
	}
	return out
}

func (s *Store) InsertResult(_ context.Context, result domain.QuizResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, result)
	return nil
}

// Results returns a copy of the appended quiz results.
func (s *Store) Results() []domain.QuizResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.QuizResult(nil), s.results...)
}

func (s *Store) InsertAsk(_ context.Context, ask domain.AskRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.asks = append(s.asks, ask)
	return nil
}

// Asks returns a copy of the stored ask requests.
func (s *Store) Asks() []domain.AskRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.AskRequest(nil), s.asks...)
}

// SeedQuestions stores questions when none exist and reports whether it did.
func (s *Store) SeedQuestions(_ context.Context, questions []domain.QuizQuestion) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.questions) > 0 {
		return false, nil
	}
	for i, q := range questions {
		q.ID = int64(i + 1)
		s.questions = append(s.questions, q)
	}
	return true, nil
}

func (s *Store) LoadQuestions(_ context.Context) ([]domain.QuizQuestion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.QuizQuestion(nil), s.questions...), nil
}

// ListQuestions lets the store serve as an uncached question repository.
func (s *Store) ListQuestions(ctx context.Context) ([]domain.QuizQuestion, error) {
	return s.LoadQuestions(ctx)
}
