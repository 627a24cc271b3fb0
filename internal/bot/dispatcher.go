package bot

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"teacher-assistant-bot/internal/domain"
)

// HandlerFunc processes one decoded event.
type HandlerFunc func(ctx context.Context, ev domain.Event)

// Dispatcher runs events asynchronously: in arrival order per user, in parallel across
// users, with at most `workers` handlers running at once.
type Dispatcher struct {
	handle HandlerFunc
	sem    chan struct{}
	log    zerolog.Logger

	mu     sync.Mutex
	queues map[int64][]queued
	wg     sync.WaitGroup
}

type queued struct {
	ctx context.Context
	ev  domain.Event
}

func NewDispatcher(handle HandlerFunc, workers int, log zerolog.Logger) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	return &Dispatcher{
		handle: handle,
		sem:    make(chan struct{}, workers),
		log:    log.With().Str("module", "dispatcher").Logger(),
		queues: make(map[int64][]queued),
	}
}

// Submit enqueues ev behind any pending events of the same user and returns immediately.
// Cancelling ctx does not drop the event, so Wait drains everything accepted.
func (d *Dispatcher) Submit(ctx context.Context, ev domain.Event) {
	ctx = context.WithoutCancel(ctx)
	userID := ev.Origin().UserID

	d.mu.Lock()
	pending, running := d.queues[userID]
	d.queues[userID] = append(pending, queued{ctx: ctx, ev: ev})
	if !running {
		d.wg.Add(1)
	}
	d.mu.Unlock()

	if !running {
		go d.drain(userID)
	}
}

// Wait blocks until every submitted event has been handled.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) drain(userID int64) {
	defer d.wg.Done()
	for {
		d.mu.Lock()
		pending := d.queues[userID]
		if len(pending) == 0 {
			delete(d.queues, userID)
			d.mu.Unlock()
			return
		}
		next := pending[0]
		d.queues[userID] = pending[1:]
		d.mu.Unlock()

		d.run(next)
	}
}

func (d *Dispatcher) run(q queued) {
	d.sem <- struct{}{}
	defer func() { <-d.sem }()
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().Interface("panic", r).Int64("user_id", q.ev.Origin().UserID).Msg("handler_panic")
		}
	}()
	d.handle(q.ctx, q.ev)
}
