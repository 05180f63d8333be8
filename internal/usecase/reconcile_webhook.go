package usecase

import (
	"context"
	"fmt"
	"log/slog"

	domain "github.com/karenkamal24/softigitalshop/internal/entity"
)

type ReconcileInput struct {
	ExternalOrderRef string
	TransactionID    string
	Success          bool
	Pending          bool
}

type ReconcileOutput struct {
	OrderID       string
	OrderNumber   string
	Status        domain.Status
	PaymentStatus domain.PaymentStatus
}

// ReconcileWebhook applies the provider's asynchronous payment result to a
// previously created order. The outcome mapping is idempotent: redelivering
// the same result leaves the order unchanged. Conflicting outcomes delivered
// out of order resolve last-write-wins by arrival time.
type ReconcileWebhook struct {
	orders OrderRepo
	cache  OrderCache           // optional, best-effort
	events StatusEventPublisher // optional, best-effort
	log    *slog.Logger
}

func NewReconcileWebhook(orders OrderRepo, cache OrderCache, events StatusEventPublisher, log *slog.Logger) *ReconcileWebhook {
	return &ReconcileWebhook{orders: orders, cache: cache, events: events, log: log}
}

func (uc *ReconcileWebhook) Execute(ctx context.Context, in ReconcileInput) (ReconcileOutput, error) {
	if in.ExternalOrderRef == "" {
		return ReconcileOutput{}, ErrMissingOrderRef
	}

	// archived orders can still receive late callbacks; the repo scans
	// regardless of archival state and returns ErrOrderNotFound otherwise
	order, err := uc.orders.GetByExternalRef(ctx, in.ExternalOrderRef)
	if err != nil {
		return ReconcileOutput{}, fmt.Errorf("lookup by external ref %s: %w", in.ExternalOrderRef, err)
	}

	var (
		status        domain.Status
		paymentStatus domain.PaymentStatus
		transactionID string
	)
	switch {
	case in.Success:
		status, paymentStatus = domain.StatusConfirmed, domain.PaymentPaid
		// overwrite the placeholder with the provider's transaction id
		transactionID = in.TransactionID
	case in.Pending:
		status, paymentStatus = domain.StatusPending, domain.PaymentPending
	default:
		status, paymentStatus = domain.StatusPending, domain.PaymentFailed
	}

	if err := uc.orders.UpdatePaymentOutcome(ctx, order.ID, status, paymentStatus, transactionID); err != nil {
		return ReconcileOutput{}, err
	}

	if paymentStatus == domain.PaymentPaid {
		uc.log.Info("webhook: order marked as paid", "order_id", order.ID)
	} else if paymentStatus == domain.PaymentFailed {
		uc.log.Info("webhook: payment failed", "order_id", order.ID)
	}

	uc.propagate(ctx, order, status, paymentStatus)

	return ReconcileOutput{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		Status:        status,
		PaymentStatus: paymentStatus,
	}, nil
}

func (uc *ReconcileWebhook) propagate(ctx context.Context, order *domain.Order, status domain.Status, paymentStatus domain.PaymentStatus) {
	if uc.cache != nil {
		if err := uc.cache.SetStatus(ctx, order.ID, string(status)); err != nil {
			uc.log.Warn("status cache update failed", "order_id", order.ID, "err", err)
		}
	}
	if uc.events != nil {
		err := uc.events.PublishStatusChanged(ctx, OrderStatusChangedMsg{
			OrderID:       order.ID,
			OrderNumber:   order.OrderNumber,
			Status:        string(status),
			PaymentStatus: string(paymentStatus),
		})
		if err != nil {
			uc.log.Warn("status event publish failed", "order_id", order.ID, "err", err)
		}
	}
}
