package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type UserRow struct {
	bun.BaseModel `bun:"table:users"`

	ID           int64     `bun:"id,pk,autoincrement"`
	TgID         int64     `bun:"tg_id,notnull,unique"`
	Name         string    `bun:"name"`
	RegisteredAt time.Time `bun:"registered_at,notnull"`
}

type AttendanceRow struct {
	bun.BaseModel `bun:"table:attendance"`

	ID   int64  `bun:"id,pk,autoincrement"`
	TgID int64  `bun:"tg_id,notnull,unique:attendance_tg_day"`
	Day  string `bun:"day,notnull,unique:attendance_tg_day"`
	Note string `bun:"note"`
}

type ResultRow struct {
	bun.BaseModel `bun:"table:quiz_results"`

	ID      int64     `bun:"id,pk,autoincrement"`
	TgID    int64     `bun:"tg_id,notnull"`
	Score   int       `bun:"score,notnull"`
	Total   int       `bun:"total,notnull"`
	TakenAt time.Time `bun:"taken_at,notnull"`
}

// QuestionRow keeps options as a JSON array so both dialects share one schema.
type QuestionRow struct {
	bun.BaseModel `bun:"table:questions"`

	ID           int64  `bun:"id,pk,autoincrement"`
	Text         string `bun:"text,notnull"`
	Options      string `bun:"options,notnull"`
	CorrectIndex int    `bun:"correct_idx,notnull"`
}

type AskRow struct {
	bun.BaseModel `bun:"table:asks"`

	ID       int64     `bun:"id,pk,autoincrement"`
	TgID     int64     `bun:"tg_id,notnull"`
	Question string    `bun:"question,notnull"`
	AskedAt  time.Time `bun:"asked_at,notnull"`
	Handled  bool      `bun:"handled,notnull,default:false"`
}

// Models lists every table in creation order.
func Models() []interface{} {
	return []interface{}{
		(*UserRow)(nil),
		(*AttendanceRow)(nil),
		(*ResultRow)(nil),
		(*QuestionRow)(nil),
		(*AskRow)(nil),
	}
}
