package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"teacher-assistant-bot/internal/domain"
)

// Directory covers registration, admin stats and question forwarding.
type Directory struct {
	users      UserStore
	attendance AttendanceStore
	asks       AskStore
	auth       *Authorizer
	fanout     *Broadcaster
	now        func() time.Time
}

func NewDirectory(users UserStore, attendance AttendanceStore, asks AskStore, auth *Authorizer, fanout *Broadcaster) *Directory {
	return &Directory{
		users:      users,
		attendance: attendance,
		asks:       asks,
		auth:       auth,
		fanout:     fanout,
		now:        time.Now,
	}
}

// WithClock is test-only for deterministic timestamps.
func (d *Directory) WithClock(now func() time.Time) *Directory {
	d.now = now
	return d
}

// Register stores the actor unless already registered. Re-registration is a no-op.
func (d *Directory) Register(ctx context.Context, actor domain.Actor) (bool, error) {
	created, err := d.users.CreateUser(ctx, domain.User{
		ID:           actor.UserID,
		Name:         actor.DisplayName(),
		RegisteredAt: d.now().UTC(),
	})
	if err != nil {
		return false, fmt.Errorf("register user: %w", err)
	}
	return created, nil
}

// Recipients lists every registered user id.
func (d *Directory) Recipients(ctx context.Context) ([]int64, error) {
	ids, err := d.users.ListUserIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return ids, nil
}

// Stats returns user and today's attendance counts for admins.
func (d *Directory) Stats(ctx context.Context, callerID int64) (domain.Stats, error) {
	if !d.auth.IsAdmin(callerID) {
		return domain.Stats{}, domain.ErrNotAdmin
	}
	users, err := d.users.CountUsers(ctx)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("count users: %w", err)
	}
	today, err := d.attendance.CountAttendance(ctx, domain.DayOf(d.now()))
	if err != nil {
		return domain.Stats{}, fmt.Errorf("count attendance: %w", err)
	}
	return domain.Stats{Users: users, AttendanceToday: today}, nil
}

// Ask stores the question and forwards it to every admin. Forwarding failures are
// isolated by the fan-out and never fail the request.
func (d *Directory) Ask(ctx context.Context, actor domain.Actor, question string) (domain.BroadcastOutcome, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return domain.BroadcastOutcome{}, domain.ErrEmptyMessage
	}
	if err := d.asks.InsertAsk(ctx, domain.AskRequest{
		UserID:   actor.UserID,
		Question: question,
		AskedAt:  d.now().UTC(),
	}); err != nil {
		return domain.BroadcastOutcome{}, fmt.Errorf("store ask: %w", err)
	}
	text := fmt.Sprintf("New question from %s:\n\n%s\n\nID: %d", actor.Handle(), question, actor.UserID)
	return d.fanout.Deliver(ctx, text, d.auth.AdminIDs()), nil
}
