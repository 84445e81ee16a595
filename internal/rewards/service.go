package rewards

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/punchcard/backend/internal/fault"
	"github.com/punchcard/backend/internal/metrics"
	"github.com/punchcard/backend/internal/models"
)

// CustomerResolver maps an access token to a customer.
type CustomerResolver interface {
	Resolve(ctx context.Context, token string) (*models.Customer, error)
}

// RewardStore is the minimal reward interface for redemption.
type RewardStore interface {
	GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Reward, error)
	MarkRedeemedTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, at time.Time) (bool, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*models.Reward, error)
}

// LedgerStore updates lastActivity (and the optional consume-on-redeem
// debit) alongside the redemption.
type LedgerStore interface {
	GetForUpdate(ctx context.Context, tx pgx.Tx, customerID uuid.UUID) (*models.Ledger, error)
	UpdateTx(ctx context.Context, tx pgx.Tx, l *models.Ledger) error
}

// AuditWriter appends the redemption audit entry.
type AuditWriter interface {
	CreateTx(ctx context.Context, tx pgx.Tx, e *models.AuditEntry) error
}

// OutletSource reads the consume-on-redeem configuration.
type OutletSource interface {
	GetTx(ctx context.Context, tx pgx.Tx, id string) (*models.Outlet, error)
}

// TxBeginner abstracts transaction creation so tests don't need a pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Service performs the one-way, exactly-once redemption transition.
type Service struct {
	pool     TxBeginner
	resolver CustomerResolver
	rewards  RewardStore
	ledgers  LedgerStore
	audit    AuditWriter
	outlets  OutletSource
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func NewService(pool TxBeginner, resolver CustomerResolver, rewards RewardStore, ledgers LedgerStore, audit AuditWriter, outlets OutletSource, m *metrics.Metrics, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{pool: pool, resolver: resolver, rewards: rewards, ledgers: ledgers, audit: audit, outlets: outlets, metrics: m, logger: logger}
}

// List returns all rewards issued to the token's customer, newest first.
func (s *Service) List(ctx context.Context, token string) ([]*models.Reward, error) {
	cust, err := s.resolver.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	list, err := s.rewards.ListByCustomer(ctx, cust.ID)
	if err != nil {
		return nil, fault.Internal(err, "failed to list rewards")
	}
	return list, nil
}

// Redeem marks a reward redeemed exactly once. A second redemption of the
// same reward deterministically fails FailedPrecondition with no side
// effects; redeeming someone else's reward fails PermissionDenied. The
// reward, ledger and audit entry are written in one transaction.
func (s *Service) Redeem(ctx context.Context, token string, rewardID uuid.UUID) (*models.Ledger, error) {
	cust, err := s.resolver.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fault.Internal(err, "failed to open transaction")
	}
	defer tx.Rollback(ctx)

	rw, err := s.rewards.GetForUpdate(ctx, tx, rewardID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fault.NotFound("reward not found")
		}
		return nil, fault.Internal(err, "failed to load reward")
	}
	if rw.RedeemedAt != nil {
		return nil, fault.FailedPrecondition("reward already redeemed")
	}
	if rw.CustomerID != cust.ID {
		return nil, fault.PermissionDenied("reward does not belong to customer")
	}

	led, err := s.ledgers.GetForUpdate(ctx, tx, cust.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fault.NotFound("loyalty record not found")
		}
		return nil, fault.Internal(err, "failed to load ledger")
	}

	now := time.Now().UTC()

	// Conditional update backstops the row lock: even if a competing
	// redemption slipped past, only one transition can ever apply.
	ok, err := s.rewards.MarkRedeemedTx(ctx, tx, rewardID, now)
	if err != nil {
		return nil, fault.Internal(err, "failed to redeem reward")
	}
	if !ok {
		return nil, fault.FailedPrecondition("reward already redeemed")
	}

	next := led.Clone()
	next.LastActivity = now
	s.applyConsumeOnRedeem(ctx, tx, next)

	if err := s.ledgers.UpdateTx(ctx, tx, next); err != nil {
		return nil, fault.Internal(err, "failed to update ledger")
	}

	details, _ := json.Marshal(map[string]any{"reward_id": rewardID, "reward_title": rw.Title})
	before, _ := json.Marshal(map[string]any{"redeemed_at": nil})
	after, _ := json.Marshal(map[string]any{"redeemed_at": now})
	if err := s.audit.CreateTx(ctx, tx, &models.AuditEntry{
		ID:      uuid.New(),
		ActorID: cust.ID.String(),
		Action:  models.AuditRedeemReward,
		Details: details,
		Before:  before,
		After:   after,
	}); err != nil {
		return nil, fault.Internal(err, "failed to write audit entry")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fault.Internal(err, "failed to commit transaction")
	}

	if s.metrics != nil {
		s.metrics.RewardsRedeemed.Inc()
	}
	s.logger.Info("reward redeemed", "reward_id", rewardID, "customer_id", cust.ID)

	return next, nil
}

// applyConsumeOnRedeem debits points when the outlet enables it, flooring
// at zero. Configuration, not hard-coded behavior: the base design debits
// nothing.
func (s *Service) applyConsumeOnRedeem(ctx context.Context, tx pgx.Tx, led *models.Ledger) {
	outlet, err := s.outlets.GetTx(ctx, tx, led.OutletID)
	if err != nil {
		return
	}
	if !outlet.ConsumeOnRedeem || outlet.RedeemPointsDebit <= 0 {
		return
	}
	led.Points -= outlet.RedeemPointsDebit
	if led.Points < 0 {
		led.Points = 0
	}
}
