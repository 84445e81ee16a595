package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/punchcard/backend/internal/models"
)

type CustomerRepo struct {
	pool *pgxpool.Pool
}

func NewCustomerRepo(pool *pgxpool.Pool) *CustomerRepo {
	return &CustomerRepo{pool: pool}
}

// CreateTx inserts a customer inside the given transaction. The token column
// carries a unique index; callers handle 23505 by regenerating the token.
func (r *CustomerRepo) CreateTx(ctx context.Context, tx pgx.Tx, c *models.Customer) error {
	return tx.QueryRow(ctx, `
		INSERT INTO customers (id, first_name, phone_e164, token, date_of_birth)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, c.ID, c.FirstName, c.PhoneE164, c.Token, c.DateOfBirth).Scan(&c.CreatedAt)
}

func (r *CustomerRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	return r.scanOne(r.pool.QueryRow(ctx, `
		SELECT id, first_name, phone_e164, token, date_of_birth, created_at
		FROM customers WHERE id = $1
	`, id))
}

// GetByToken looks up a customer by access token. Callers normalize the
// token to upper-case before calling.
func (r *CustomerRepo) GetByToken(ctx context.Context, token string) (*models.Customer, error) {
	return r.scanOne(r.pool.QueryRow(ctx, `
		SELECT id, first_name, phone_e164, token, date_of_birth, created_at
		FROM customers WHERE token = $1
	`, token))
}

func (r *CustomerRepo) GetByPhone(ctx context.Context, phoneE164 string) (*models.Customer, error) {
	return r.scanOne(r.pool.QueryRow(ctx, `
		SELECT id, first_name, phone_e164, token, date_of_birth, created_at
		FROM customers WHERE phone_e164 = $1
	`, phoneE164))
}

// TokenExists reports whether any customer already holds the candidate token.
func (r *CustomerRepo) TokenExists(ctx context.Context, token string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM customers WHERE token = $1)
	`, token).Scan(&exists)
	return exists, err
}

func (r *CustomerRepo) scanOne(row pgx.Row) (*models.Customer, error) {
	var c models.Customer
	err := row.Scan(&c.ID, &c.FirstName, &c.PhoneE164, &c.Token, &c.DateOfBirth, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
