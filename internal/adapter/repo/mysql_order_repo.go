package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	domain "github.com/karenkamal24/softigitalshop/internal/entity"
	"github.com/karenkamal24/softigitalshop/internal/usecase"
)

type MySQLOrderRepo struct{ db *sql.DB }

func NewMySQLOrderRepo(db *sql.DB) *MySQLOrderRepo { return &MySQLOrderRepo{db: db} }

const orderColumns = `id, order_number, user_id, total_amount_cents, total_quantity,
status, payment_status, address, external_order_ref, external_transaction_id,
archived_at, created_at, updated_at`

func (r *MySQLOrderRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = ?`, id)
	o, err := scanOrder(row)
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// GetByExternalRef intentionally ignores archival: archived orders can still
// receive late provider callbacks.
func (r *MySQLOrderRepo) GetByExternalRef(ctx context.Context, ref string) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE external_order_ref = ?`, ref)
	o, err := scanOrder(row)
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (r *MySQLOrderRepo) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+orderColumns+`
FROM orders
WHERE user_id = ? AND archived_at IS NULL
ORDER BY created_at DESC
LIMIT ? OFFSET ?`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func (r *MySQLOrderRepo) UpdatePaymentOutcome(ctx context.Context, id string, status domain.Status, pay domain.PaymentStatus, transactionID string) error {
	// no rows-affected check here: redelivered webhooks may apply identical
	// values, which MySQL reports as zero changed rows
	_, err := r.db.ExecContext(ctx, `
UPDATE orders
SET status = ?, payment_status = ?,
    external_transaction_id = COALESCE(NULLIF(?, ''), external_transaction_id),
    updated_at = NOW()
WHERE id = ?`,
		string(status), string(pay), transactionID, id)
	return err
}

func (r *MySQLOrderRepo) UpdateStatus(ctx context.Context, id string, to domain.Status) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET status = ?, updated_at = NOW() WHERE id = ?`,
		string(to), id)
	if err != nil {
		return err
	}
	return requireFound(res)
}

func (r *MySQLOrderRepo) ArchiveOlderThan(ctx context.Context, threshold time.Time, limit int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
UPDATE orders SET archived_at = NOW()
WHERE created_at < ? AND archived_at IS NULL
LIMIT ?`, threshold, limit)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *MySQLOrderRepo) loadItems(ctx context.Context, o *domain.Order) error {
	rows, err := r.db.QueryContext(ctx, `
SELECT order_id, product_id, quantity, unit_price_cents
FROM order_items WHERE order_id = ?`, o.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.OrderID, &it.ProductID, &it.Quantity, &it.UnitPriceCents); err != nil {
			return err
		}
		o.Items = append(o.Items, it)
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var (
		o          domain.Order
		status     string
		payStatus  string
		extRef     sql.NullString
		extTx      sql.NullString
		archivedAt sql.NullTime
	)
	err := row.Scan(&o.ID, &o.OrderNumber, &o.UserID, &o.TotalAmountCents,
		&o.TotalQuantity, &status, &payStatus, &o.Address, &extRef, &extTx,
		&archivedAt, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("order: %w", usecase.ErrOrderNotFound)
		}
		return nil, err
	}
	o.Status = domain.Status(status)
	o.PaymentStatus = domain.PaymentStatus(payStatus)
	o.ExternalOrderRef = extRef.String
	o.ExternalTransactionID = extTx.String
	if archivedAt.Valid {
		t := archivedAt.Time
		o.ArchivedAt = &t
	}
	return &o, nil
}

func requireFound(res sql.Result) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

var _ usecase.OrderRepo = (*MySQLOrderRepo)(nil)
