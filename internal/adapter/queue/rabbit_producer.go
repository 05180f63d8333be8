package queue

import (
	"context"
	"fmt"
	"strconv"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/karenkamal24/softigitalshop/internal/usecase"
)

const (
	exchangeName = "shop.notify"

	// FulfillmentQueue is the work queue for downstream fulfillment calls.
	FulfillmentQueue = "fulfillment.notify.q"
	// fulfillmentWaitQueue parks failed deliveries; expired messages
	// dead-letter back into the work queue.
	fulfillmentWaitQueue = "fulfillment.notify.wait.q"

	attemptHeader = "x-attempt"
)

// RabbitProducer publishes outbox payloads to the notification exchange and
// owns the queue topology, including the TTL-based retry loop.
type RabbitProducer struct {
	ch *amqp.Channel
}

// NewRabbitProducer sets up the exchange, queues, and bindings once at startup.
func NewRabbitProducer(ch *amqp.Channel) (*RabbitProducer, error) {
	if err := ch.ExchangeDeclare(
		exchangeName,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	q, err := ch.QueueDeclare(
		FulfillmentQueue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, usecase.ChannelFulfillmentNotify, exchangeName, false, nil); err != nil {
		return nil, fmt.Errorf("queue bind: %w", err)
	}

	// wait queue: no consumer; expired messages return to the work queue
	_, err = ch.QueueDeclare(
		fulfillmentWaitQueue,
		true, false, false, false,
		amqp.Table{
			"x-dead-letter-exchange":    exchangeName,
			"x-dead-letter-routing-key": usecase.ChannelFulfillmentNotify,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("declare wait queue: %w", err)
	}

	if err := ch.Confirm(false); err != nil {
		return nil, fmt.Errorf("enable confirm mode: %w", err)
	}

	return &RabbitProducer{ch: ch}, nil
}

// Publish routes an outbox payload by its channel name.
func (p *RabbitProducer) Publish(ctx context.Context, channel string, payload []byte) error {
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // survive broker restarts
		Body:         payload,
	}
	if err := p.ch.PublishWithContext(ctx, exchangeName, channel, false, false, pub); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// Requeue parks a failed delivery in the wait queue for the given delay,
// carrying the incremented attempt counter.
func (p *RabbitProducer) Requeue(ctx context.Context, d amqp.Delivery, attempt int, delay time.Duration) error {
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         d.Body,
		Expiration:   strconv.FormatInt(delay.Milliseconds(), 10),
		Headers:      amqp.Table{attemptHeader: int32(attempt)},
	}
	// default exchange routes directly to the wait queue
	if err := p.ch.PublishWithContext(ctx, "", fulfillmentWaitQueue, false, false, pub); err != nil {
		return fmt.Errorf("requeue: %w", err)
	}
	return nil
}

// Attempt reads the retry counter from a delivery, zero for first tries.
func Attempt(d amqp.Delivery) int {
	v, ok := d.Headers[attemptHeader]
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case int32:
		return int(n)
	case int64:
		return int(n)
	case int:
		return n
	default:
		return 0
	}
}

var _ usecase.QueuePublisher = (*RabbitProducer)(nil)
