package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"teacher-assistant-bot/internal/domain"
)

// Store persists users, attendance, results, questions and asks through bun.
type Store struct {
	db *bun.DB
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

func (s *Store) CreateUser(ctx context.Context, user domain.User) (bool, error) {
	row := UserRow{TgID: user.ID, Name: user.Name, RegisteredAt: user.RegisteredAt}
	res, err := s.db.NewInsert().
		Model(&row).
		On("CONFLICT (tg_id) DO NOTHING").
		Returning("NULL").
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("insert user: %w", err)
	}
	return inserted(res)
}

func (s *Store) GetUser(ctx context.Context, userID int64) (domain.User, error) {
	var row UserRow
	err := s.db.NewSelect().Model(&row).Where("tg_id = ?", userID).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrNotRegistered
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("select user: %w", err)
	}
	return domain.User{ID: row.TgID, Name: row.Name, RegisteredAt: row.RegisteredAt}, nil
}

func (s *Store) ListUserIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := s.db.NewSelect().Model((*UserRow)(nil)).Column("tg_id").Order("id ASC").Scan(ctx, &ids)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return ids, nil
}

func (s *Store) CountUsers(ctx context.Context) (int, error) {
	n, err := s.db.NewSelect().Model((*UserRow)(nil)).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (s *Store) HasAttendance(ctx context.Context, userID int64, date string) (bool, error) {
	ok, err := s.db.NewSelect().
		Model((*AttendanceRow)(nil)).
		Where("tg_id = ?", userID).
		Where("day = ?", date).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("check attendance: %w", err)
	}
	return ok, nil
}

// InsertAttendance relies on the (tg_id, day) unique constraint; a conflict reports false.
func (s *Store) InsertAttendance(ctx context.Context, record domain.AttendanceRecord) (bool, error) {
	row := AttendanceRow{TgID: record.UserID, Day: record.Date, Note: record.Note}
	res, err := s.db.NewInsert().
		Model(&row).
		On("CONFLICT (tg_id, day) DO NOTHING").
		Returning("NULL").
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("insert attendance: %w", err)
	}
	return inserted(res)
}

func (s *Store) CountAttendance(ctx context.Context, date string) (int, error) {
	n, err := s.db.NewSelect().Model((*AttendanceRow)(nil)).Where("day = ?", date).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count attendance: %w", err)
	}
	return n, nil
}

func (s *Store) InsertResult(ctx context.Context, result domain.QuizResult) error {
	row := ResultRow{TgID: result.UserID, Score: result.Score, Total: result.Total, TakenAt: result.TakenAt}
	if _, err := s.db.NewInsert().Model(&row).Returning("NULL").Exec(ctx); err != nil {
		return fmt.Errorf("insert quiz result: %w", err)
	}
	return nil
}

func (s *Store) InsertAsk(ctx context.Context, ask domain.AskRequest) error {
	row := AskRow{TgID: ask.UserID, Question: ask.Question, AskedAt: ask.AskedAt, Handled: ask.Handled}
	if _, err := s.db.NewInsert().Model(&row).Returning("NULL").Exec(ctx); err != nil {
		return fmt.Errorf("insert ask: %w", err)
	}
	return nil
}

// LoadQuestions returns the question set ordered by id.
func (s *Store) LoadQuestions(ctx context.Context) ([]domain.QuizQuestion, error) {
	var rows []QuestionRow
	if err := s.db.NewSelect().Model(&rows).Order("id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("select questions: %w", err)
	}
	questions := make([]domain.QuizQuestion, 0, len(rows))
	for _, row := range rows {
		q, err := row.question()
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, nil
}

func (s *Store) ListQuestions(ctx context.Context) ([]domain.QuizQuestion, error) {
	return s.LoadQuestions(ctx)
}

// SeedQuestions inserts the given questions only when the table is empty.
func (s *Store) SeedQuestions(ctx context.Context, questions []domain.QuizQuestion) (bool, error) {
	n, err := s.db.NewSelect().Model((*QuestionRow)(nil)).Count(ctx)
	if err != nil {
		return false, fmt.Errorf("count questions: %w", err)
	}
	if n > 0 || len(questions) == 0 {
		return false, nil
	}
	rows := make([]QuestionRow, len(questions))
	for i, q := range questions {
		options, err := json.Marshal(q.Options)
		if err != nil {
			return false, fmt.Errorf("encode options: %w", err)
		}
		rows[i] = QuestionRow{Text: q.Prompt, Options: string(options), CorrectIndex: q.CorrectIndex}
	}
	if _, err := s.db.NewInsert().Model(&rows).Returning("NULL").Exec(ctx); err != nil {
		return false, fmt.Errorf("insert questions: %w", err)
	}
	return true, nil
}

func (r QuestionRow) question() (domain.QuizQuestion, error) {
	var options []string
	if err := json.Unmarshal([]byte(r.Options), &options); err != nil {
		return domain.QuizQuestion{}, fmt.Errorf("decode options of question %d: %w", r.ID, err)
	}
	return domain.QuizQuestion{ID: r.ID, Prompt: r.Text, Options: options, CorrectIndex: r.CorrectIndex}, nil
}

func inserted(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
