package queue

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karenkamal24/softigitalshop/internal/usecase"
)

type fakeNotifier struct {
	err   error
	calls []usecase.FulfillmentNotifyMsg
}

func (n *fakeNotifier) NotifyOrder(_ context.Context, msg usecase.FulfillmentNotifyMsg) error {
	n.calls = append(n.calls, msg)
	return n.err
}

type fakeRequeuer struct {
	err      error
	attempts []int
	delays   []time.Duration
}

func (r *fakeRequeuer) Requeue(_ context.Context, _ amqp.Delivery, attempt int, delay time.Duration) error {
	r.attempts = append(r.attempts, attempt)
	r.delays = append(r.delays, delay)
	return r.err
}

func testLog() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func delivery(attempt int) amqp.Delivery {
	d := amqp.Delivery{Body: []byte(`{"order_id":"ORD-AAAA111122","amount_in_cents":3000}`)}
	if attempt > 0 {
		d.Headers = amqp.Table{attemptHeader: int32(attempt)}
	}
	return d
}

func TestFulfillmentHandlerSuccess(t *testing.T) {
	n := &fakeNotifier{}
	rq := &fakeRequeuer{}
	h := NewFulfillmentHandler(n, rq, testLog())

	require.NoError(t, h.Handle(context.Background(), delivery(0)))
	require.Len(t, n.calls, 1)
	assert.Equal(t, "ORD-AAAA111122", n.calls[0].OrderID)
	assert.Empty(t, rq.attempts)
}

func TestFulfillmentHandlerRetryWithBackoff(t *testing.T) {
	n := &fakeNotifier{err: errors.New("downstream 503")}
	rq := &fakeRequeuer{}
	h := NewFulfillmentHandler(n, rq, testLog())

	require.NoError(t, h.Handle(context.Background(), delivery(0)), "failure is acked, retry goes to wait queue")
	require.Equal(t, []int{1}, rq.attempts)
	assert.Equal(t, []time.Duration{5 * time.Second}, rq.delays)

	require.NoError(t, h.Handle(context.Background(), delivery(3)))
	assert.Equal(t, time.Minute, rq.delays[1], "fourth attempt waits a minute")
}

func TestFulfillmentHandlerGivesUpAfterMaxAttempts(t *testing.T) {
	n := &fakeNotifier{err: errors.New("downstream gone")}
	rq := &fakeRequeuer{}
	h := NewFulfillmentHandler(n, rq, testLog())

	require.NoError(t, h.Handle(context.Background(), delivery(9)), "terminal failure is logged and dropped")
	assert.Empty(t, rq.attempts)
}

func TestFulfillmentHandlerRequeueFailureNacks(t *testing.T) {
	n := &fakeNotifier{err: errors.New("downstream 503")}
	rq := &fakeRequeuer{err: errors.New("broker down")}
	h := NewFulfillmentHandler(n, rq, testLog())

	assert.Error(t, h.Handle(context.Background(), delivery(0)))
}

func TestFulfillmentHandlerPoisonMessageDropped(t *testing.T) {
	n := &fakeNotifier{}
	h := NewFulfillmentHandler(n, &fakeRequeuer{}, testLog())

	err := h.Handle(context.Background(), amqp.Delivery{Body: []byte("not-json")})
	require.NoError(t, err)
	assert.Empty(t, n.calls)
}

func TestNotifyBackoffSchedule(t *testing.T) {
	assert.Equal(t, 5*time.Second, NotifyBackoff(0))
	assert.Equal(t, 30*time.Second, NotifyBackoff(2))
	assert.Equal(t, time.Hour, NotifyBackoff(9))
	assert.Equal(t, time.Hour, NotifyBackoff(50), "schedule is clamped")
}

func TestAttempt(t *testing.T) {
	assert.Equal(t, 0, Attempt(amqp.Delivery{}))
	assert.Equal(t, 4, Attempt(amqp.Delivery{Headers: amqp.Table{attemptHeader: int32(4)}}))
	assert.Equal(t, 2, Attempt(amqp.Delivery{Headers: amqp.Table{attemptHeader: int64(2)}}))
	assert.Equal(t, 0, Attempt(amqp.Delivery{Headers: amqp.Table{attemptHeader: "junk"}}))
}
