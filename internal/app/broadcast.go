package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"teacher-assistant-bot/internal/domain"
)

// TextSender delivers a plain text message to one chat.
type TextSender interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

// BroadcastOptions bounds the fan-out. Rate is sends per second; zero disables pacing.
type BroadcastOptions struct {
	Concurrency int
	Rate        float64
	Burst       int
}

// Delivery is the result of one send attempt.
type Delivery struct {
	Recipient int64
	Err       error
}

// Broadcaster sends one message to many recipients, isolating per-recipient failures.
type Broadcaster struct {
	sender      TextSender
	limiter     *rate.Limiter
	concurrency int
	log         zerolog.Logger
}

func NewBroadcaster(sender TextSender, opts BroadcastOptions, log zerolog.Logger) *Broadcaster {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	var limiter *rate.Limiter
	if opts.Rate > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.Rate), burst)
	}
	return &Broadcaster{
		sender:      sender,
		limiter:     limiter,
		concurrency: concurrency,
		log:         log.With().Str("module", "broadcast").Logger(),
	}
}

// Broadcast validates the request and fans the trimmed text out to recipients.
func (b *Broadcaster) Broadcast(ctx context.Context, senderIsAdmin bool, text string, recipients []int64) (domain.BroadcastOutcome, error) {
	if !senderIsAdmin {
		return domain.BroadcastOutcome{}, domain.ErrNotAdmin
	}
	msg := strings.TrimSpace(text)
	if msg == "" {
		return domain.BroadcastOutcome{}, domain.ErrEmptyMessage
	}
	return b.Deliver(ctx, msg, recipients), nil
}

// Deliver attempts every distinct recipient exactly once and aggregates the results.
func (b *Broadcaster) Deliver(ctx context.Context, text string, recipients []int64) domain.BroadcastOutcome {
	id := uuid.NewString()
	log := b.log.With().Str("broadcast_id", id).Logger()

	targets := distinct(recipients)
	deliveries := make([]Delivery, len(targets))

	g := new(errgroup.Group)
	g.SetLimit(b.concurrency)
	for i, recipient := range targets {
		g.Go(func() error {
			deliveries[i] = b.send(ctx, recipient, text)
			return nil
		})
	}
	_ = g.Wait()

	outcome := domain.BroadcastOutcome{ID: id, Attempted: len(targets)}
	for _, d := range deliveries {
		if d.Err != nil {
			outcome.Failed = append(outcome.Failed, d.Recipient)
			log.Warn().Err(d.Err).Int64("recipient", d.Recipient).Msg("delivery_failed")
			continue
		}
		outcome.Delivered++
	}
	log.Info().Int("delivered", outcome.Delivered).Int("attempted", outcome.Attempted).Msg("broadcast_done")
	return outcome
}

func (b *Broadcaster) send(ctx context.Context, recipient int64, text string) (d Delivery) {
	d.Recipient = recipient
	defer func() {
		if r := recover(); r != nil {
			d.Err = fmt.Errorf("send panicked: %v", r)
		}
	}()
	if b.limiter != nil {
		if err := b.limiter.Wait(ctx); err != nil {
			d.Err = err
			return d
		}
	}
	d.Err = b.sender.SendText(ctx, recipient, text)
	return d
}

func distinct(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
