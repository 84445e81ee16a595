package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/punchcard/backend/internal/models"
)

type OutletRepo struct {
	pool *pgxpool.Pool
}

func NewOutletRepo(pool *pgxpool.Pool) *OutletRepo {
	return &OutletRepo{pool: pool}
}

func (r *OutletRepo) Get(ctx context.Context, id string) (*models.Outlet, error) {
	return scanOutlet(r.pool.QueryRow(ctx, `
		SELECT id, name, stamp_threshold, stamp_reward_title, stamp_reward_details,
		       consume_on_redeem, redeem_points_debit, notify_webhook_url, published, updated_at
		FROM outlets WHERE id = $1
	`, id))
}

// GetTx reads outlet settings inside a transaction so a retried execution
// sees the configuration current at decision time.
func (r *OutletRepo) GetTx(ctx context.Context, tx pgx.Tx, id string) (*models.Outlet, error) {
	return scanOutlet(tx.QueryRow(ctx, `
		SELECT id, name, stamp_threshold, stamp_reward_title, stamp_reward_details,
		       consume_on_redeem, redeem_points_debit, notify_webhook_url, published, updated_at
		FROM outlets WHERE id = $1
	`, id))
}

// UpsertTx merges published settings into the outlet row.
func (r *OutletRepo) UpsertTx(ctx context.Context, tx pgx.Tx, o *models.Outlet) error {
	return tx.QueryRow(ctx, `
		INSERT INTO outlets (id, name, stamp_threshold, stamp_reward_title, stamp_reward_details,
		                     consume_on_redeem, redeem_points_debit, notify_webhook_url, published, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			stamp_threshold = EXCLUDED.stamp_threshold,
			stamp_reward_title = EXCLUDED.stamp_reward_title,
			stamp_reward_details = EXCLUDED.stamp_reward_details,
			consume_on_redeem = EXCLUDED.consume_on_redeem,
			redeem_points_debit = EXCLUDED.redeem_points_debit,
			notify_webhook_url = EXCLUDED.notify_webhook_url,
			published = EXCLUDED.published,
			updated_at = now()
		RETURNING updated_at
	`, o.ID, o.Name, o.StampThreshold, o.StampRewardTitle, o.StampRewardDetails,
		o.ConsumeOnRedeem, o.RedeemPointsDebit, o.NotifyWebhookURL, o.Published).Scan(&o.UpdatedAt)
}

func scanOutlet(row pgx.Row) (*models.Outlet, error) {
	var o models.Outlet
	err := row.Scan(&o.ID, &o.Name, &o.StampThreshold, &o.StampRewardTitle, &o.StampRewardDetails,
		&o.ConsumeOnRedeem, &o.RedeemPointsDebit, &o.NotifyWebhookURL, &o.Published, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}
