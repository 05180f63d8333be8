package usecase

import (
	"context"
	"log/slog"
	"time"
)

const relayBatchSize = 50

// OutboxRelay drains pending notification rows to the task queue. Rows are
// written inside the placement transaction; the relay gives them at-least-once
// delivery with bounded exponential backoff on publish failure.
type OutboxRelay struct {
	outbox   OutboxRepo
	pub      QueuePublisher
	interval time.Duration
	log      *slog.Logger
}

func NewOutboxRelay(outbox OutboxRepo, pub QueuePublisher, interval time.Duration, log *slog.Logger) *OutboxRelay {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &OutboxRelay{outbox: outbox, pub: pub, interval: interval, log: log}
}

// Run blocks until ctx is cancelled.
func (r *OutboxRelay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Drain(ctx)
		}
	}
}

// Drain publishes one batch of due rows.
func (r *OutboxRelay) Drain(ctx context.Context) {
	msgs, err := r.outbox.PickDue(ctx, relayBatchSize)
	if err != nil {
		r.log.Error("outbox pick failed", "err", err)
		return
	}

	for _, m := range msgs {
		if err := r.pub.Publish(ctx, m.Channel, m.Payload); err != nil {
			next := time.Now().Add(RelayBackoff(m.RetryCount))
			r.log.Warn("outbox publish failed",
				"id", m.ID, "channel", m.Channel, "retry", m.RetryCount, "err", err)
			if err := r.outbox.MarkFailed(ctx, m.ID, next); err != nil {
				r.log.Error("outbox mark failed", "id", m.ID, "err", err)
			}
			continue
		}
		if err := r.outbox.MarkSent(ctx, m.ID); err != nil {
			// the message may be republished on the next pass; consumers must
			// tolerate duplicates
			r.log.Error("outbox mark sent failed", "id", m.ID, "err", err)
		}
	}
}

// RelayBackoff doubles from five seconds, capped at ten minutes.
func RelayBackoff(retryCount int) time.Duration {
	d := 5 * time.Second
	for i := 0; i < retryCount; i++ {
		d *= 2
		if d >= 10*time.Minute {
			return 10 * time.Minute
		}
	}
	return d
}
