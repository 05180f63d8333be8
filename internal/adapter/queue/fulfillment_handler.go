package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/karenkamal24/softigitalshop/internal/usecase"
)

const maxNotifyAttempts = 10

// notifyBackoff grows into the tens of minutes before a notification is
// abandoned as a terminal failure.
var notifyBackoff = []time.Duration{
	5 * time.Second,
	15 * time.Second,
	30 * time.Second,
	time.Minute,
	2 * time.Minute,
	5 * time.Minute,
	10 * time.Minute,
	20 * time.Minute,
	30 * time.Minute,
	time.Hour,
}

// NotifyBackoff returns the delay before retry number attempt+1.
func NotifyBackoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= len(notifyBackoff) {
		return notifyBackoff[len(notifyBackoff)-1]
	}
	return notifyBackoff[attempt]
}

// Notifier is the downstream fulfillment API. It must treat duplicate
// notifications as idempotent.
type Notifier interface {
	NotifyOrder(ctx context.Context, msg usecase.FulfillmentNotifyMsg) error
}

// Requeuer parks a delivery for a delayed retry.
type Requeuer interface {
	Requeue(ctx context.Context, d amqp.Delivery, attempt int, delay time.Duration) error
}

// FulfillmentHandler forwards committed-order notifications downstream. A
// failed call is rescheduled with backoff; the original delivery is always
// acked so the work queue never wedges on a dead downstream.
type FulfillmentHandler struct {
	notifier Notifier
	requeuer Requeuer
	log      *slog.Logger
}

func NewFulfillmentHandler(n Notifier, r Requeuer, log *slog.Logger) *FulfillmentHandler {
	return &FulfillmentHandler{notifier: n, requeuer: r, log: log}
}

func (h *FulfillmentHandler) Handle(ctx context.Context, d amqp.Delivery) error {
	var msg usecase.FulfillmentNotifyMsg
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		h.log.Error("bad fulfillment message, dropping", "err", err, "body", string(d.Body))
		return nil // poison: ack and drop
	}

	err := h.notifier.NotifyOrder(ctx, msg)
	if err == nil {
		h.log.Info("fulfillment service notified", "order_id", msg.OrderID)
		return nil
	}

	attempt := Attempt(d)
	if attempt+1 >= maxNotifyAttempts {
		h.log.Error("failed to notify fulfillment service, giving up",
			"order_id", msg.OrderID, "attempts", attempt+1, "err", err)
		return nil
	}

	delay := NotifyBackoff(attempt)
	h.log.Warn("fulfillment notify failed, scheduling retry",
		"order_id", msg.OrderID, "attempt", attempt+1, "delay", delay, "err", err)
	if rqErr := h.requeuer.Requeue(ctx, d, attempt+1, delay); rqErr != nil {
		return rqErr // nack; broker redelivers the original
	}
	return nil
}

var _ Handler = (*FulfillmentHandler)(nil)
