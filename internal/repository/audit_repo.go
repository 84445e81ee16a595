package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/punchcard/backend/internal/models"
)

// AuditRepo appends to the immutable audit log. There is deliberately no
// update or delete.
type AuditRepo struct {
	pool *pgxpool.Pool
}

func NewAuditRepo(pool *pgxpool.Pool) *AuditRepo {
	return &AuditRepo{pool: pool}
}

// CreateTx appends an entry inside the transaction performing the mutation
// it records.
func (r *AuditRepo) CreateTx(ctx context.Context, tx pgx.Tx, e *models.AuditEntry) error {
	return tx.QueryRow(ctx, `
		INSERT INTO audit_entries (id, actor_id, action, details, before_state, after_state)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, e.ID, e.ActorID, e.Action, e.Details, e.Before, e.After).Scan(&e.CreatedAt)
}

func (r *AuditRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.AuditEntry, error) {
	return scanAudit(r.pool.QueryRow(ctx, `
		SELECT id, actor_id, action, details, before_state, after_state, created_at
		FROM audit_entries WHERE id = $1
	`, id))
}

func (r *AuditRepo) ListRecent(ctx context.Context, limit int) ([]*models.AuditEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, actor_id, action, details, before_state, after_state, created_at
		FROM audit_entries ORDER BY created_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.AuditEntry
	for rows.Next() {
		e, err := scanAudit(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

// ListByActor returns entries recorded for one actor (customer id, "staff"
// or "system"), newest first.
func (r *AuditRepo) ListByActor(ctx context.Context, actorID string, limit int) ([]*models.AuditEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, actor_id, action, details, before_state, after_state, created_at
		FROM audit_entries WHERE actor_id = $1 ORDER BY created_at DESC LIMIT $2
	`, actorID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.AuditEntry
	for rows.Next() {
		e, err := scanAudit(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

func scanAudit(row pgx.Row) (*models.AuditEntry, error) {
	var e models.AuditEntry
	err := row.Scan(&e.ID, &e.ActorID, &e.Action, &e.Details, &e.Before, &e.After, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
