package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/punchcard/backend/internal/models"
)

type LedgerRepo struct {
	pool *pgxpool.Pool
}

func NewLedgerRepo(pool *pgxpool.Pool) *LedgerRepo {
	return &LedgerRepo{pool: pool}
}

// CreateTx seeds the ledger inside the signup transaction.
func (r *LedgerRepo) CreateTx(ctx context.Context, tx pgx.Tx, l *models.Ledger) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO ledgers (customer_id, outlet_id, points, stamps, reward_ids, last_activity)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, l.CustomerID, l.OutletID, l.Points, l.Stamps, l.RewardIDs, l.LastActivity)
	return err
}

func (r *LedgerRepo) GetByCustomer(ctx context.Context, customerID uuid.UUID) (*models.Ledger, error) {
	return scanLedger(r.pool.QueryRow(ctx, `
		SELECT customer_id, outlet_id, points, stamps, reward_ids, last_activity
		FROM ledgers WHERE customer_id = $1
	`, customerID))
}

// GetForUpdate locks the ledger row for the duration of the transaction.
// Every mutation decision is made against this re-read state, never against
// a snapshot taken before the transaction opened.
func (r *LedgerRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, customerID uuid.UUID) (*models.Ledger, error) {
	return scanLedger(tx.QueryRow(ctx, `
		SELECT customer_id, outlet_id, points, stamps, reward_ids, last_activity
		FROM ledgers WHERE customer_id = $1 FOR UPDATE
	`, customerID))
}

// UpdateTx writes the computed next-state back. Call after GetForUpdate in
// the same transaction.
func (r *LedgerRepo) UpdateTx(ctx context.Context, tx pgx.Tx, l *models.Ledger) error {
	_, err := tx.Exec(ctx, `
		UPDATE ledgers
		SET points = $2, stamps = $3, reward_ids = $4, last_activity = $5
		WHERE customer_id = $1
	`, l.CustomerID, l.Points, l.Stamps, l.RewardIDs, l.LastActivity)
	return err
}

func scanLedger(row pgx.Row) (*models.Ledger, error) {
	var l models.Ledger
	err := row.Scan(&l.CustomerID, &l.OutletID, &l.Points, &l.Stamps, &l.RewardIDs, &l.LastActivity)
	if err != nil {
		return nil, err
	}
	if l.Stamps == nil {
		l.Stamps = map[string]int{}
	}
	if l.RewardIDs == nil {
		l.RewardIDs = []uuid.UUID{}
	}
	return &l, nil
}
