package domain

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		ok       bool
	}{
		{StatusConfirmed, StatusShipped, true},
		{StatusShipped, StatusDelivered, true},
		{StatusPending, StatusShipped, false},
		{StatusPending, StatusConfirmed, false},
		{StatusDelivered, StatusShipped, false},
		{StatusDelivered, StatusCancelled, false},
		{StatusConfirmed, StatusDelivered, false},
		{StatusCancelled, StatusShipped, false},
		{StatusShipped, StatusShipped, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestOrderTransition(t *testing.T) {
	o := &Order{Status: StatusPending}
	err := o.Transition(StatusShipped)
	require.ErrorIs(t, err, ErrIllegalTransition)
	assert.Equal(t, StatusPending, o.Status, "failed transition must not mutate")

	o.Status = StatusConfirmed
	require.NoError(t, o.Transition(StatusShipped))
	require.NoError(t, o.Transition(StatusDelivered))
	require.ErrorIs(t, o.Transition(StatusConfirmed), ErrIllegalTransition)
}

func TestStatusesFor(t *testing.T) {
	s, p := StatusesFor(InitialConfirmed)
	assert.Equal(t, StatusConfirmed, s)
	assert.Equal(t, PaymentPaid, p)

	s, p = StatusesFor(InitialPendingPayment)
	assert.Equal(t, StatusPending, s)
	assert.Equal(t, PaymentPending, p)
}

func TestNewOrderNumber(t *testing.T) {
	re := regexp.MustCompile(`^ORD-[A-Z0-9]{10}$`)
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		n := NewOrderNumber()
		require.Regexp(t, re, n)
		assert.False(t, seen[n], "order numbers should not collide in a small sample")
		seen[n] = true
	}
}
