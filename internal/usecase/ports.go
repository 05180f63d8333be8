package usecase

import (
	"context"
	"time"

	domain "github.com/karenkamal24/softigitalshop/internal/entity"
)

// Store opens the single transaction an order placement runs in.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx groups the repository operations bound to one open transaction.
type Tx interface {
	// ReserveStock takes an exclusive row lock on an active product, checks
	// availability and decrements stock atomically. It returns the locked
	// product so totals are computed from authoritative prices.
	ReserveStock(ctx context.Context, productID, quantity int64) (*domain.Product, error)
	CreateOrder(ctx context.Context, o *domain.Order) error
	InsertOutbox(ctx context.Context, channel string, payload []byte) error
}

type OrderRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]domain.Order, error)
	// GetByExternalRef scans regardless of archival state: archived orders can
	// still receive late provider callbacks.
	GetByExternalRef(ctx context.Context, ref string) (*domain.Order, error)
	// UpdatePaymentOutcome sets both status axes; an empty transactionID keeps
	// the stored one.
	UpdatePaymentOutcome(ctx context.Context, id string, status domain.Status, pay domain.PaymentStatus, transactionID string) error
	UpdateStatus(ctx context.Context, id string, to domain.Status) error
	ArchiveOlderThan(ctx context.Context, threshold time.Time, limit int64) (int64, error)
}

type UserRepo interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

// OutboxMessage is a pending notification row.
type OutboxMessage struct {
	ID         int64
	Channel    string
	Payload    []byte
	RetryCount int
}

type OutboxRepo interface {
	PickDue(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkSent(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, nextAttempt time.Time) error
}

// QueuePublisher hands a payload to the task queue.
type QueuePublisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

type OrderCache interface {
	SetStatus(ctx context.Context, orderID string, status string) error
	GetStatus(ctx context.Context, orderID string) (string, bool, error)
}

type StatusEventPublisher interface {
	PublishStatusChanged(ctx context.Context, msg OrderStatusChangedMsg) error
}

type IdempotencyStore interface {
	TryLock(ctx context.Context, scope, key string) (bool, error)
	Remember(ctx context.Context, scope, key, value string) error
	Recall(ctx context.Context, scope, key string) (string, bool, error)
}
