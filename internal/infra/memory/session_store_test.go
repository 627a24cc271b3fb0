package memory

import (
	"context"
	"testing"

	"teacher-assistant-bot/internal/domain"
)

func TestSessionStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore()

	if _, ok, _ := store.Get(ctx, 1); ok {
		t.Fatalf("expected no session")
	}
	if err := store.Put(ctx, domain.QuizSession{UserID: 1, Total: 3, Position: 1}); err != nil {
		t.Fatalf("put: %v", err)
	}
	session, ok, err := store.Get(ctx, 1)
	if err != nil || !ok {
		t.Fatalf("expected session present, err=%v", err)
	}
	if session.Position != 1 || session.Total != 3 {
		t.Fatalf("unexpected session %+v", session)
	}
	if _, ok, _ := store.Get(ctx, 2); ok {
		t.Fatalf("sessions must be keyed per user")
	}

	if err := store.Delete(ctx, 1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("expected session removed")
	}
}
