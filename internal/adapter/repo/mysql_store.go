package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	domain "github.com/karenkamal24/softigitalshop/internal/entity"
	"github.com/karenkamal24/softigitalshop/internal/usecase"
)

var ErrNotFound = errors.New("not found")

// MySQLStore runs order placements in a single InnoDB transaction. Row locks
// taken by ReserveStock are held until the transaction commits or rolls back.
type MySQLStore struct{ db *sql.DB }

func NewMySQLStore(db *sql.DB) *MySQLStore { return &MySQLStore{db: db} }

func (s *MySQLStore) InTx(ctx context.Context, fn func(tx usecase.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(&mysqlTx{tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

type mysqlTx struct{ tx *sql.Tx }

// ReserveStock serializes concurrent reservations on the same product: the
// FOR UPDATE lock blocks other placements until this transaction finishes, so
// the read-check-decrement below cannot race.
func (t *mysqlTx) ReserveStock(ctx context.Context, productID, quantity int64) (*domain.Product, error) {
	row := t.tx.QueryRowContext(ctx, `
SELECT id, name, price_in_cents, stock
FROM products WHERE id = ? AND is_active = 1
FOR UPDATE`, productID)

	var p domain.Product
	p.IsActive = true
	if err := row.Scan(&p.ID, &p.Name, &p.PriceInCents, &p.Stock); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: product %d", usecase.ErrProductUnavailable, productID)
		}
		return nil, err
	}

	if quantity > p.Stock {
		return nil, fmt.Errorf("%w for product %q: requested %d, available %d",
			usecase.ErrInsufficientStock, p.Name, quantity, p.Stock)
	}

	if _, err := t.tx.ExecContext(ctx,
		`UPDATE products SET stock = stock - ?, updated_at = NOW() WHERE id = ?`,
		quantity, productID); err != nil {
		return nil, err
	}
	p.Stock -= quantity
	return &p, nil
}

func (t *mysqlTx) CreateOrder(ctx context.Context, o *domain.Order) error {
	_, err := t.tx.ExecContext(ctx, `
INSERT INTO orders
  (id, order_number, user_id, total_amount_cents, total_quantity, status,
   payment_status, address, external_order_ref, external_transaction_id,
   created_at, updated_at)
VALUES (?,?,?,?,?,?,?,?,?,?,NOW(),NOW())`,
		o.ID, o.OrderNumber, o.UserID, o.TotalAmountCents, o.TotalQuantity,
		string(o.Status), string(o.PaymentStatus), o.Address,
		nullIfEmpty(o.ExternalOrderRef), nullIfEmpty(o.ExternalTransactionID))
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i := range o.Items {
		o.Items[i].OrderID = o.ID
		_, err := t.tx.ExecContext(ctx, `
INSERT INTO order_items (order_id, product_id, quantity, unit_price_cents, created_at)
VALUES (?,?,?,?,NOW())`,
			o.ID, o.Items[i].ProductID, o.Items[i].Quantity, o.Items[i].UnitPriceCents)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	return nil
}

func (t *mysqlTx) InsertOutbox(ctx context.Context, channel string, payload []byte) error {
	_, err := t.tx.ExecContext(ctx, `
INSERT INTO outbox (channel, payload, status, retry_count, next_attempt_at, created_at)
VALUES (?,?,'PENDING',0,NOW(),NOW())`, channel, payload)
	return err
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

var _ usecase.Store = (*MySQLStore)(nil)
