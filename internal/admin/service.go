package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/punchcard/backend/internal/fault"
	"github.com/punchcard/backend/internal/models"
)

// UndoWindow is how long after a mutation its audit entry may still be
// reverted.
const UndoWindow = 5 * time.Minute

// Export types the CSV collaborator knows how to produce.
var exportTypes = map[string]bool{
	"customers": true,
	"rewards":   true,
	"audit":     true,
}

// OutletStore persists published outlet settings.
type OutletStore interface {
	UpsertTx(ctx context.Context, tx pgx.Tx, o *models.Outlet) error
}

// ContentStore persists published content blocks.
type ContentStore interface {
	UpsertTx(ctx context.Context, tx pgx.Tx, c *models.ContentBlock) error
	ListByOutlet(ctx context.Context, outletID string) ([]*models.ContentBlock, error)
}

// AuditSource reads the audit log for the dashboard and for undo.
type AuditSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.AuditEntry, error)
	ListRecent(ctx context.Context, limit int) ([]*models.AuditEntry, error)
	ListByActor(ctx context.Context, actorID string, limit int) ([]*models.AuditEntry, error)
}

// TxBeginner abstracts transaction creation so tests don't need a pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Service serves the admin console: publishing outlet settings/content,
// audit reads, CSV export handoff, and the undo stub.
type Service struct {
	pool          TxBeginner
	outlets       OutletStore
	content       ContentStore
	audit         AuditSource
	exportBaseURL string
	logger        *slog.Logger
}

func NewService(pool TxBeginner, outlets OutletStore, content ContentStore, audit AuditSource, exportBaseURL string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if exportBaseURL == "" {
		exportBaseURL = "https://example.com"
	}
	return &Service{pool: pool, outlets: outlets, content: content, audit: audit, exportBaseURL: exportBaseURL, logger: logger}
}

// Settings is the publishable outlet configuration.
type Settings struct {
	Name               string `json:"name"`
	StampThreshold     int    `json:"stamp_threshold"`
	StampRewardTitle   string `json:"stamp_reward_title"`
	StampRewardDetails string `json:"stamp_reward_details"`
	ConsumeOnRedeem    bool   `json:"consume_on_redeem"`
	RedeemPointsDebit  int    `json:"redeem_points_debit"`
	NotifyWebhookURL   string `json:"notify_webhook_url"`
}

// ContentItem is one content block in a publish batch.
type ContentItem struct {
	ID      string          `json:"id"`
	Payload json.RawMessage `json:"payload"`
}

// Publish upserts the outlet settings, the published template, and any
// content blocks as one transaction — the whole publish lands or none of it.
func (s *Service) Publish(ctx context.Context, outletID string, settings Settings, template json.RawMessage, content []ContentItem) error {
	if outletID == "" {
		return fault.InvalidArgument("outlet_id is required")
	}
	if settings.StampThreshold < 0 || settings.RedeemPointsDebit < 0 {
		return fault.InvalidArgument("thresholds must not be negative")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fault.Internal(err, "failed to open transaction")
	}
	defer tx.Rollback(ctx)

	outlet := &models.Outlet{
		ID:                 outletID,
		Name:               settings.Name,
		StampThreshold:     settings.StampThreshold,
		StampRewardTitle:   settings.StampRewardTitle,
		StampRewardDetails: settings.StampRewardDetails,
		ConsumeOnRedeem:    settings.ConsumeOnRedeem,
		RedeemPointsDebit:  settings.RedeemPointsDebit,
		NotifyWebhookURL:   settings.NotifyWebhookURL,
		Published:          template,
	}
	if err := s.outlets.UpsertTx(ctx, tx, outlet); err != nil {
		return fault.Internal(err, "failed to publish outlet settings")
	}

	for _, item := range content {
		id := item.ID
		if id == "" {
			id = uuid.New().String()
		}
		if err := s.content.UpsertTx(ctx, tx, &models.ContentBlock{
			ID:       id,
			OutletID: outletID,
			Payload:  item.Payload,
		}); err != nil {
			return fault.Internal(err, "failed to publish content")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fault.Internal(err, "failed to commit publish")
	}

	s.logger.Info("outlet published", "outlet_id", outletID, "content_blocks", len(content))
	return nil
}

// ListContent returns the published content blocks for an outlet.
func (s *Service) ListContent(ctx context.Context, outletID string) ([]*models.ContentBlock, error) {
	list, err := s.content.ListByOutlet(ctx, outletID)
	if err != nil {
		return nil, fault.Internal(err, "failed to list content")
	}
	return list, nil
}

// ListAudit returns recent audit entries, optionally filtered by actor.
func (s *Service) ListAudit(ctx context.Context, actorID string, limit int) ([]*models.AuditEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var (
		list []*models.AuditEntry
		err  error
	)
	if actorID != "" {
		list, err = s.audit.ListByActor(ctx, actorID, limit)
	} else {
		list, err = s.audit.ListRecent(ctx, limit)
	}
	if err != nil {
		return nil, fault.Internal(err, "failed to list audit entries")
	}
	return list, nil
}

// ExportURL hands back the CSV collaborator's download URL for a data set.
// Export generation itself lives outside this service.
func (s *Service) ExportURL(exportType string) (string, error) {
	if !exportTypes[exportType] {
		return "", fault.InvalidArgument("unknown export type %q", exportType)
	}
	return fmt.Sprintf("%s/%s.csv", s.exportBaseURL, exportType), nil
}

// Undo validates that an action is still revertible. Applying the inverse
// of the entry's before/after snapshots is not implemented yet.
// TODO: invert the paired audit entry's ledger delta inside one transaction.
func (s *Service) Undo(ctx context.Context, actionID uuid.UUID) error {
	entry, err := s.audit.GetByID(ctx, actionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fault.NotFound("action not found")
		}
		return fault.Internal(err, "failed to load action")
	}
	if time.Since(entry.CreatedAt) > UndoWindow {
		return fault.FailedPrecondition("undo window expired")
	}
	s.logger.Info("undo requested", "action_id", actionID, "action", entry.Action)
	return nil
}
