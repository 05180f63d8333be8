package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/karenkamal24/softigitalshop/internal/entity"
)

func TestUpdateOrderStatus(t *testing.T) {
	o := &domain.Order{ID: "o-1", OrderNumber: "ORD-X", Status: domain.StatusConfirmed, PaymentStatus: domain.PaymentPaid}
	orders := newFakeOrderRepo(o)
	events := &fakeEvents{}
	uc := NewUpdateOrderStatus(orders, &fakeCache{}, events, testLogger())

	updated, err := uc.Execute(context.Background(), "o-1", domain.StatusShipped)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusShipped, updated.Status)

	_, err = uc.Execute(context.Background(), "o-1", domain.StatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDelivered, orders.byID["o-1"].Status)
	assert.Len(t, events.published, 2)
}

func TestUpdateOrderStatusIllegalTransition(t *testing.T) {
	o := &domain.Order{ID: "o-1", Status: domain.StatusPending}
	orders := newFakeOrderRepo(o)
	uc := NewUpdateOrderStatus(orders, nil, nil, testLogger())

	_, err := uc.Execute(context.Background(), "o-1", domain.StatusShipped)
	require.ErrorIs(t, err, domain.ErrIllegalTransition)
	assert.Equal(t, domain.StatusPending, orders.byID["o-1"].Status, "rejected before mutation")
}

func TestUpdateOrderStatusDeliveredIsTerminal(t *testing.T) {
	o := &domain.Order{ID: "o-1", Status: domain.StatusDelivered}
	uc := NewUpdateOrderStatus(newFakeOrderRepo(o), nil, nil, testLogger())

	for _, to := range []domain.Status{domain.StatusPending, domain.StatusConfirmed, domain.StatusShipped, domain.StatusCancelled} {
		_, err := uc.Execute(context.Background(), "o-1", to)
		assert.ErrorIs(t, err, domain.ErrIllegalTransition, "delivered -> %s", to)
	}
}

func TestArchiveOldOrders(t *testing.T) {
	old := &domain.Order{ID: "old", CreatedAt: time.Now().Add(-4 * 365 * 24 * time.Hour)}
	recent := &domain.Order{ID: "recent", CreatedAt: time.Now()}
	orders := newFakeOrderRepo(old, recent)
	uc := NewArchiveOldOrders(orders, 3*365*24*time.Hour, testLogger())

	n, err := uc.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NotNil(t, orders.byID["old"].ArchivedAt)
	assert.Nil(t, orders.byID["recent"].ArchivedAt)
}
