package app

import (
	"context"
	"fmt"
	"time"

	"teacher-assistant-bot/internal/domain"
)

const presentNote = "present"

// AttendanceGuard records at most one attendance per user and calendar day.
type AttendanceGuard struct {
	store AttendanceStore
	locks Locker
	now   func() time.Time
}

func NewAttendanceGuard(store AttendanceStore, locks Locker) *AttendanceGuard {
	return NewAttendanceGuardWithClock(store, locks, time.Now)
}

// NewAttendanceGuardWithClock allows deterministic dates in tests.
func NewAttendanceGuardWithClock(store AttendanceStore, locks Locker, now func() time.Time) *AttendanceGuard {
	return &AttendanceGuard{store: store, locks: locks, now: now}
}

// MarkToday marks the user present for the current UTC day.
func (g *AttendanceGuard) MarkToday(ctx context.Context, userID int64) (domain.AttendanceStatus, error) {
	return g.TryMarkAttendance(ctx, userID, domain.DayOf(g.now()))
}

// TryMarkAttendance inserts a record for (userID, date) unless one exists. The lookup and
// insert run under a lock on the same key.
func (g *AttendanceGuard) TryMarkAttendance(ctx context.Context, userID int64, date string) (domain.AttendanceStatus, error) {
	unlock, err := g.locks.Lock(ctx, fmt.Sprintf("attendance:%d:%s", userID, date))
	if err != nil {
		return 0, fmt.Errorf("lock attendance: %w", err)
	}
	defer unlock()

	exists, err := g.store.HasAttendance(ctx, userID, date)
	if err != nil {
		return 0, fmt.Errorf("lookup attendance: %w", err)
	}
	if exists {
		return domain.AttendanceAlreadyMarked, nil
	}

	inserted, err := g.store.InsertAttendance(ctx, domain.AttendanceRecord{
		UserID: userID,
		Date:   date,
		Note:   presentNote,
	})
	if err != nil {
		return 0, fmt.Errorf("insert attendance: %w", err)
	}
	if !inserted {
		return domain.AttendanceAlreadyMarked, nil
	}
	return domain.AttendanceMarked, nil
}
