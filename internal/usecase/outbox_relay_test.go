package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedPublisher struct {
	failChannels map[string]bool
	published    []OutboxMessage
}

func (p *scriptedPublisher) Publish(_ context.Context, channel string, payload []byte) error {
	if p.failChannels[channel] {
		return errors.New("broker unavailable")
	}
	p.published = append(p.published, OutboxMessage{Channel: channel, Payload: payload})
	return nil
}

func TestOutboxRelayDrain(t *testing.T) {
	outbox := &fakeOutboxRepo{due: []OutboxMessage{
		{ID: 1, Channel: ChannelFulfillmentNotify, Payload: []byte(`{"order_id":"ORD-1"}`)},
		{ID: 2, Channel: "dead.channel", Payload: []byte(`{}`), RetryCount: 2},
	}}
	pub := &scriptedPublisher{failChannels: map[string]bool{"dead.channel": true}}
	relay := NewOutboxRelay(outbox, pub, time.Second, testLogger())

	relay.Drain(context.Background())

	assert.Equal(t, []int64{1}, outbox.sent)
	require.Contains(t, outbox.failed, int64(2))
	next := time.Until(outbox.failed[2])
	assert.Greater(t, next, 15*time.Second, "third failure backs off at least 20s")
	assert.Less(t, next, 25*time.Second)
	require.Len(t, pub.published, 1)
}

func TestRelayBackoff(t *testing.T) {
	assert.Equal(t, 5*time.Second, RelayBackoff(0))
	assert.Equal(t, 10*time.Second, RelayBackoff(1))
	assert.Equal(t, 40*time.Second, RelayBackoff(3))
	assert.Equal(t, 10*time.Minute, RelayBackoff(10))
	assert.Equal(t, 10*time.Minute, RelayBackoff(100), "backoff is capped")
}
