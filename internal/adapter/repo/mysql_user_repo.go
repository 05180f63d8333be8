package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	domain "github.com/karenkamal24/softigitalshop/internal/entity"
	"github.com/karenkamal24/softigitalshop/internal/usecase"
)

// MySQLUserRepo is a narrow read-only view of the users table: profile address
// fallback and billing data for the gateway.
type MySQLUserRepo struct{ db *sql.DB }

func NewMySQLUserRepo(db *sql.DB) *MySQLUserRepo { return &MySQLUserRepo{db: db} }

func (r *MySQLUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, name, email, COALESCE(phone, ''), COALESCE(address, '')
FROM users WHERE id = ?`, id)

	var u domain.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Address); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &u, nil
}

var _ usecase.UserRepo = (*MySQLUserRepo)(nil)
