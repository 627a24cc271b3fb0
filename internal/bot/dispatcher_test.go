package bot

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"teacher-assistant-bot/internal/domain"
)

func TestDispatcherKeepsPerUserOrder(t *testing.T) {
	var mu sync.Mutex
	seen := map[int64][]string{}

	d := NewDispatcher(func(_ context.Context, ev domain.Event) {
		text := ev.(domain.TextEvent).Text
		time.Sleep(time.Millisecond)
		mu.Lock()
		seen[ev.Origin().UserID] = append(seen[ev.Origin().UserID], text)
		mu.Unlock()
	}, 4, zerolog.Nop())

	ctx := context.Background()
	want := []string{"a", "b", "c", "d", "e"}
	for _, text := range want {
		for _, uid := range []int64{1, 2, 3} {
			d.Submit(ctx, domain.TextEvent{Actor: domain.Actor{UserID: uid}, Text: text})
		}
	}
	d.Wait()

	for _, uid := range []int64{1, 2, 3} {
		got := seen[uid]
		if len(got) != len(want) {
			t.Fatalf("user %d: expected %d events, got %v", uid, len(want), got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("user %d: out of order %v", uid, got)
			}
		}
	}
}

func TestDispatcherRunsUsersInParallel(t *testing.T) {
	release := make(chan struct{})
	started := make(chan int64, 2)

	d := NewDispatcher(func(_ context.Context, ev domain.Event) {
		started <- ev.Origin().UserID
		<-release
	}, 2, zerolog.Nop())

	ctx := context.Background()
	d.Submit(ctx, domain.TextEvent{Actor: domain.Actor{UserID: 1}})
	d.Submit(ctx, domain.TextEvent{Actor: domain.Actor{UserID: 2}})

	for i := 0; i < 2; i++ {
		select {
		case <-started:
		case <-time.After(2 * time.Second):
			t.Fatalf("handlers for different users did not overlap")
		}
	}
	close(release)
	d.Wait()
}

func TestDispatcherSurvivesPanics(t *testing.T) {
	var mu sync.Mutex
	handled := 0

	d := NewDispatcher(func(_ context.Context, ev domain.Event) {
		if ev.(domain.TextEvent).Text == "boom" {
			panic("handler exploded")
		}
		mu.Lock()
		handled++
		mu.Unlock()
	}, 1, zerolog.Nop())

	ctx := context.Background()
	actor := domain.Actor{UserID: 7}
	d.Submit(ctx, domain.TextEvent{Actor: actor, Text: "boom"})
	d.Submit(ctx, domain.TextEvent{Actor: actor, Text: "ok"})
	d.Wait()

	if handled != 1 {
		t.Fatalf("expected the event after the panic to run, handled=%d", handled)
	}
}

func TestDispatcherDrainsAfterCancel(t *testing.T) {
	release := make(chan struct{})
	var (
		mu      sync.Mutex
		handled []string
	)
	d := NewDispatcher(func(ctx context.Context, ev domain.Event) {
		if ev.(domain.TextEvent).Text == "first" {
			<-release
		}
		mu.Lock()
		defer mu.Unlock()
		if ctx.Err() != nil {
			t.Errorf("handler context cancelled: %v", ctx.Err())
		}
		handled = append(handled, ev.(domain.TextEvent).Text)
	}, 1, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	d.Submit(ctx, domain.TextEvent{Actor: domain.Actor{UserID: 1}, Text: "first"})
	d.Submit(ctx, domain.TextEvent{Actor: domain.Actor{UserID: 2}, Text: "queued"})
	cancel()
	close(release)
	d.Wait()

	if len(handled) != 2 {
		t.Fatalf("expected both events handled after shutdown, got %v", handled)
	}
}
