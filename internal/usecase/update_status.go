package usecase

import (
	"context"
	"log/slog"

	domain "github.com/karenkamal24/softigitalshop/internal/entity"
)

// UpdateOrderStatus performs operator-driven transitions. The transition table
// is checked before any mutation, independent of payment state: a pending
// order cannot be shipped no matter who asks.
type UpdateOrderStatus struct {
	orders OrderRepo
	cache  OrderCache
	events StatusEventPublisher
	log    *slog.Logger
}

func NewUpdateOrderStatus(orders OrderRepo, cache OrderCache, events StatusEventPublisher, log *slog.Logger) *UpdateOrderStatus {
	return &UpdateOrderStatus{orders: orders, cache: cache, events: events, log: log}
}

func (uc *UpdateOrderStatus) Execute(ctx context.Context, orderID string, to domain.Status) (*domain.Order, error) {
	order, err := uc.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := order.Transition(to); err != nil {
		return nil, err
	}

	if err := uc.orders.UpdateStatus(ctx, order.ID, to); err != nil {
		return nil, err
	}

	if uc.cache != nil {
		if err := uc.cache.SetStatus(ctx, order.ID, string(to)); err != nil {
			uc.log.Warn("status cache update failed", "order_id", order.ID, "err", err)
		}
	}
	if uc.events != nil {
		err := uc.events.PublishStatusChanged(ctx, OrderStatusChangedMsg{
			OrderID:       order.ID,
			OrderNumber:   order.OrderNumber,
			Status:        string(to),
			PaymentStatus: string(order.PaymentStatus),
		})
		if err != nil {
			uc.log.Warn("status event publish failed", "order_id", order.ID, "err", err)
		}
	}

	return order, nil
}
