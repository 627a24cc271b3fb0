package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"teacher-assistant-bot/internal/domain"
)

// QuestionLoader reads the question set straight from Postgres over pgx, bypassing
// the ORM on the hot quiz-start path.
type QuestionLoader struct {
	pool *pgxpool.Pool
}

func NewQuestionLoader(pool *pgxpool.Pool) *QuestionLoader {
	return &QuestionLoader{pool: pool}
}

func (l *QuestionLoader) LoadQuestions(ctx context.Context) ([]domain.QuizQuestion, error) {
	rows, err := l.pool.Query(ctx, `SELECT id, text, options, correct_idx FROM questions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.QuizQuestion
	for rows.Next() {
		var (
			q   domain.QuizQuestion
			raw string
		)
		if err := rows.Scan(&q.ID, &q.Prompt, &raw, &q.CorrectIndex); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		if err := json.Unmarshal([]byte(raw), &q.Options); err != nil {
			return nil, fmt.Errorf("unmarshal options of question %d: %w", q.ID, err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}
	return questions, nil
}
