package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/punchcard/backend/internal/models"
)

type ContentRepo struct {
	pool *pgxpool.Pool
}

func NewContentRepo(pool *pgxpool.Pool) *ContentRepo {
	return &ContentRepo{pool: pool}
}

// UpsertTx merges one published content block, part of the adminPublish batch.
func (r *ContentRepo) UpsertTx(ctx context.Context, tx pgx.Tx, c *models.ContentBlock) error {
	return tx.QueryRow(ctx, `
		INSERT INTO content_blocks (id, outlet_id, payload, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (id) DO UPDATE SET
			outlet_id = EXCLUDED.outlet_id,
			payload = EXCLUDED.payload,
			updated_at = now()
		RETURNING updated_at
	`, c.ID, c.OutletID, c.Payload).Scan(&c.UpdatedAt)
}

func (r *ContentRepo) ListByOutlet(ctx context.Context, outletID string) ([]*models.ContentBlock, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, outlet_id, payload, updated_at
		FROM content_blocks WHERE outlet_id = $1 ORDER BY updated_at DESC
	`, outletID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.ContentBlock
	for rows.Next() {
		var c models.ContentBlock
		if err := rows.Scan(&c.ID, &c.OutletID, &c.Payload, &c.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, &c)
	}
	return list, rows.Err()
}
