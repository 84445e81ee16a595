package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/punchcard/backend/internal/models"
)

type NotificationRepo struct {
	pool *pgxpool.Pool
}

func NewNotificationRepo(pool *pgxpool.Pool) *NotificationRepo {
	return &NotificationRepo{pool: pool}
}

// CreateTx inserts a notification event inside the issuing transaction.
func (r *NotificationRepo) CreateTx(ctx context.Context, tx pgx.Tx, n *models.Notification) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO notifications (id, customer_id, type, reward_id, message)
		VALUES ($1, $2, $3, $4, $5)
	`, n.ID, n.CustomerID, n.Type, n.RewardID, n.Message)
	return err
}

func (r *NotificationRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	return scanNotification(r.pool.QueryRow(ctx, `
		SELECT id, customer_id, type, reward_id, message, created_at, shown_at
		FROM notifications WHERE id = $1
	`, id))
}

// ListPendingByCustomer returns events not yet shown, oldest first.
func (r *NotificationRepo) ListPendingByCustomer(ctx context.Context, customerID uuid.UUID) ([]*models.Notification, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, customer_id, type, reward_id, message, created_at, shown_at
		FROM notifications WHERE customer_id = $1 AND shown_at IS NULL
		ORDER BY created_at
	`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, n)
	}
	return list, rows.Err()
}

// MarkShown sets shown_at once. The ack is non-transactional with the
// ledger; a retried or lost ack never affects ledger correctness. Returns
// false when the event was already acked.
func (r *NotificationRepo) MarkShown(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE notifications SET shown_at = now() WHERE id = $1 AND shown_at IS NULL
	`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func scanNotification(row pgx.Row) (*models.Notification, error) {
	var n models.Notification
	err := row.Scan(&n.ID, &n.CustomerID, &n.Type, &n.RewardID, &n.Message, &n.CreatedAt, &n.ShownAt)
	if err != nil {
		return nil, err
	}
	return &n, nil
}
