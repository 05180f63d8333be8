package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/karenkamal24/softigitalshop/internal/usecase"
)

// MySQLOutboxRepo serves the relay side of the outbox: rows are inserted by
// the placement transaction (see mysqlTx.InsertOutbox) and drained here.
type MySQLOutboxRepo struct{ db *sql.DB }

func NewMySQLOutboxRepo(db *sql.DB) *MySQLOutboxRepo { return &MySQLOutboxRepo{db: db} }

func (r *MySQLOutboxRepo) PickDue(ctx context.Context, limit int) ([]usecase.OutboxMessage, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, channel, payload, retry_count
FROM outbox
WHERE status = 'PENDING' AND next_attempt_at <= NOW()
ORDER BY id
LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []usecase.OutboxMessage
	for rows.Next() {
		var m usecase.OutboxMessage
		if err := rows.Scan(&m.ID, &m.Channel, &m.Payload, &m.RetryCount); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *MySQLOutboxRepo) MarkSent(ctx context.Context, id int64) error {
	return r.exec(ctx, `UPDATE outbox SET status = 'SENT', sent_at = NOW() WHERE id = ?`, id)
}

func (r *MySQLOutboxRepo) MarkFailed(ctx context.Context, id int64, nextAttempt time.Time) error {
	return r.exec(ctx, `
UPDATE outbox SET retry_count = retry_count + 1, next_attempt_at = ? WHERE id = ?`,
		nextAttempt, id)
}

func (r *MySQLOutboxRepo) exec(ctx context.Context, query string, args ...any) error {
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

var _ usecase.OutboxRepo = (*MySQLOutboxRepo)(nil)
