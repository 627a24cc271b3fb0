package app_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"teacher-assistant-bot/internal/app"
	"teacher-assistant-bot/internal/domain"
	"teacher-assistant-bot/internal/infra/memory"
)

func TestAttendanceIsIdempotentPerDay(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	now := time.Date(2025, 9, 1, 23, 59, 0, 0, time.UTC)
	guard := app.NewAttendanceGuardWithClock(store, memory.NewLocker(), func() time.Time { return now })

	status, err := guard.MarkToday(ctx, 1)
	if err != nil || status != domain.AttendanceMarked {
		t.Fatalf("expected Marked, got %v err=%v", status, err)
	}
	status, err = guard.MarkToday(ctx, 1)
	if err != nil || status != domain.AttendanceAlreadyMarked {
		t.Fatalf("expected AlreadyMarked, got %v err=%v", status, err)
	}
	if recs := store.AttendanceRecords(1); len(recs) != 1 || recs[0].Date != "2025-09-01" || recs[0].Note != "present" {
		t.Fatalf("expected one record for 2025-09-01, got %+v", recs)
	}

	now = now.Add(2 * time.Minute)
	status, _ = guard.MarkToday(ctx, 1)
	if status != domain.AttendanceMarked {
		t.Fatalf("expected a new day to mark again, got %v", status)
	}
	if ok, _ := store.HasAttendance(ctx, 1, "2025-09-02"); !ok || len(store.AttendanceRecords(1)) != 2 {
		t.Fatalf("expected a second record for 2025-09-02, got %+v", store.AttendanceRecords(1))
	}
}

func TestAttendanceConcurrentCallsStoreOneRecord(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	guard := app.NewAttendanceGuard(store, memory.NewLocker())

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		marked int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			status, err := guard.TryMarkAttendance(ctx, 3, "2025-01-10")
			if err != nil {
				t.Errorf("mark: %v", err)
				return
			}
			if status == domain.AttendanceMarked {
				mu.Lock()
				marked++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if marked != 1 {
		t.Fatalf("expected exactly one Marked, got %d", marked)
	}
	if recs := store.AttendanceRecords(3); len(recs) != 1 {
		t.Fatalf("expected one stored record, got %d", len(recs))
	}
}

func TestAttendanceInsertConflictReportsAlreadyMarked(t *testing.T) {
	store := &racingAttendance{Store: memory.NewStore()}
	guard := app.NewAttendanceGuard(store, memory.NewLocker())

	status, err := guard.TryMarkAttendance(context.Background(), 1, "2025-01-10")
	if err != nil || status != domain.AttendanceAlreadyMarked {
		t.Fatalf("expected AlreadyMarked from insert conflict, got %v err=%v", status, err)
	}
}

// racingAttendance simulates a second instance inserting between lookup and insert.
type racingAttendance struct {
	*memory.Store
}

func (r *racingAttendance) HasAttendance(context.Context, int64, string) (bool, error) {
	return false, nil
}

func (r *racingAttendance) InsertAttendance(context.Context, domain.AttendanceRecord) (bool, error) {
	return false, nil
}
