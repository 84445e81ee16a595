package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/punchcard/backend/internal/models"
)

type RewardRepo struct {
	pool *pgxpool.Pool
}

func NewRewardRepo(pool *pgxpool.Pool) *RewardRepo {
	return &RewardRepo{pool: pool}
}

// CreateTx inserts a reward inside the issuing transaction.
func (r *RewardRepo) CreateTx(ctx context.Context, tx pgx.Tx, rw *models.Reward) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO rewards (id, customer_id, outlet_id, title, details, issued_at, redeemable, auto_redeem)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, rw.ID, rw.CustomerID, rw.OutletID, rw.Title, rw.Details, rw.IssuedAt, rw.Redeemable, rw.AutoRedeem)
	return err
}

func (r *RewardRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Reward, error) {
	return scanReward(r.pool.QueryRow(ctx, `
		SELECT id, customer_id, outlet_id, title, details, issued_at, redeemed_at, redeemable, auto_redeem
		FROM rewards WHERE id = $1
	`, id))
}

// GetForUpdate locks the reward row for the duration of the transaction.
func (r *RewardRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Reward, error) {
	return scanReward(tx.QueryRow(ctx, `
		SELECT id, customer_id, outlet_id, title, details, issued_at, redeemed_at, redeemable, auto_redeem
		FROM rewards WHERE id = $1 FOR UPDATE
	`, id))
}

// MarkRedeemedTx sets redeemed_at if and only if it is still unset. Returns
// false when the reward was already redeemed, making the transition
// exactly-once even if two redemptions race.
func (r *RewardRepo) MarkRedeemedTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, at time.Time) (bool, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE rewards SET redeemed_at = $2 WHERE id = $1 AND redeemed_at IS NULL
	`, id, at)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *RewardRepo) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*models.Reward, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, customer_id, outlet_id, title, details, issued_at, redeemed_at, redeemable, auto_redeem
		FROM rewards WHERE customer_id = $1 ORDER BY issued_at DESC
	`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Reward
	for rows.Next() {
		rw, err := scanReward(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, rw)
	}
	return list, rows.Err()
}

func scanReward(row pgx.Row) (*models.Reward, error) {
	var rw models.Reward
	err := row.Scan(&rw.ID, &rw.CustomerID, &rw.OutletID, &rw.Title, &rw.Details, &rw.IssuedAt, &rw.RedeemedAt, &rw.Redeemable, &rw.AutoRedeem)
	if err != nil {
		return nil, err
	}
	return &rw, nil
}
