package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/punchcard/backend/internal/models"
)

type StaffRepo struct {
	pool *pgxpool.Pool
}

func NewStaffRepo(pool *pgxpool.Pool) *StaffRepo {
	return &StaffRepo{pool: pool}
}

func (r *StaffRepo) Create(ctx context.Context, s *models.StaffAccount) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO staff_accounts (id, email, display_name, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, s.ID, s.Email, s.DisplayName, s.PasswordHash).Scan(&s.CreatedAt)
}

func (r *StaffRepo) GetByEmail(ctx context.Context, email string) (*models.StaffAccount, error) {
	var s models.StaffAccount
	err := r.pool.QueryRow(ctx, `
		SELECT id, email, display_name, password_hash, created_at
		FROM staff_accounts WHERE email = $1
	`, email).Scan(&s.ID, &s.Email, &s.DisplayName, &s.PasswordHash, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *StaffRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM staff_accounts`).Scan(&n)
	return n, err
}
