package loyalty

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
	"github.com/punchcard/backend/internal/notify"
)

// Actor recorded on audit entries for staff-triggered actions.
const ActorStaff = "staff"

// CustomerResolver maps an access token to a customer.
type CustomerResolver interface {
	Resolve(ctx context.Context, token string) (*models.Customer, error)
}

// LedgerStore is the minimal ledger interface for the action engine.
type LedgerStore interface {
	GetByCustomer(ctx context.Context, customerID uuid.UUID) (*models.Ledger, error)
	GetForUpdate(ctx context.Context, tx pgx.Tx, customerID uuid.UUID) (*models.Ledger, error)
	UpdateTx(ctx context.Context, tx pgx.Tx, l *models.Ledger) error
}

// RewardWriter persists issued rewards.
type RewardWriter interface {
	CreateTx(ctx context.Context, tx pgx.Tx, rw *models.Reward) error
}

// NotificationWriter persists notification events.
type NotificationWriter interface {
	CreateTx(ctx context.Context, tx pgx.Tx, n *models.Notification) error
}

// AuditWriter appends the mutation's audit entry.
type AuditWriter interface {
	CreateTx(ctx context.Context, tx pgx.Tx, e *models.AuditEntry) error
}

// OutletSource reads loyalty configuration inside the transaction.
type OutletSource interface {
	GetTx(ctx context.Context, tx pgx.Tx, id string) (*models.Outlet, error)
}

// TxBeginner abstracts transaction creation so tests don't need a pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// EnqueueDispatchTxFunc enqueues notification delivery within the given
// transaction. Provided by main as a closure over river.Client.InsertTx.
type EnqueueDispatchTxFunc func(ctx context.Context, tx pgx.Tx, args notify.DispatchArgs) error

// Service is the action engine: it applies one named action to a customer's
// ledger atomically, issuing rewards and notifications as required and
// always pairing the mutation with exactly one audit entry.
type Service struct {
	pool            TxBeginner
	resolver        CustomerResolver
	ledgers         LedgerStore
	rewards         RewardWriter
	notifications   NotificationWriter
	audit           AuditWriter
	outlets         OutletSource
	enqueueDispatch EnqueueDispatchTxFunc
	metrics         *metrics.Metrics
	logger          *slog.Logger
}

func NewService(
	pool TxBeginner,
	resolver CustomerResolver,
	ledgers LedgerStore,
	rewards RewardWriter,
	notifications NotificationWriter,
	audit AuditWriter,
	outlets OutletSource,
	enqueueDispatch EnqueueDispatchTxFunc,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		pool:            pool,
		resolver:        resolver,
		ledgers:         ledgers,
		rewards:         rewards,
		notifications:   notifications,
		audit:           audit,
		outlets:         outlets,
		enqueueDispatch: enqueueDispatch,
		metrics:         m,
		logger:          logger,
	}
}

// GetLedger returns the current ledger for an access token (read-only).
func (s *Service) GetLedger(ctx context.Context, token string) (*models.Ledger, error) {
	cust, err := s.resolver.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	led, err := s.ledgers.GetByCustomer(ctx, cust.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fault.NotFound("loyalty record not found")
		}
		return nil, fault.Internal(err, "failed to load ledger")
	}
	return led, nil
}

// Apply resolves the token and applies one action inside a single
// transaction scoped to the target ledger and any records it creates. The
// ledger is re-read with a row lock inside the transaction, so every
// decision is made against fresh state and concurrent actions on the same
// customer serialize without losing updates. Any failure aborts the whole
// transaction with zero partial writes.
func (s *Service) Apply(ctx context.Context, token string, act Action) (*models.Ledger, *models.Reward, error) {
	start := time.Now()

	cust, err := s.resolver.Resolve(ctx, token)
	if err != nil {
		return nil, nil, err
	}

	actorID := ActorStaff
	if _, ok := act.(TaskComplete); ok {
		actorID = cust.ID.String()
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fault.Internal(err, "failed to open transaction")
	}
	defer tx.Rollback(ctx)

	led, err := s.ledgers.GetForUpdate(ctx, tx, cust.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, fault.NotFound("loyalty record not found")
		}
		return nil, nil, fault.Internal(err, "failed to load ledger")
	}

	outlet, err := s.outlets.GetTx(ctx, tx, led.OutletID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, fault.Internal(err, "failed to load outlet settings")
		}
		outlet = models.DefaultOutlet(led.OutletID)
	}

	now := time.Now().UTC()
	out, err := Apply(led, act, outlet, now, uuid.New)
	if err != nil {
		return nil, nil, err
	}
	if !out.Mutated {
		// Recognized no-op: succeed without writing anything.
		return led, nil, nil
	}

	if out.Reward != nil {
		if err := s.rewards.CreateTx(ctx, tx, out.Reward); err != nil {
			return nil, nil, fault.Internal(err, "failed to create reward")
		}
		if err := s.notifications.CreateTx(ctx, tx, out.Notification); err != nil {
			return nil, nil, fault.Internal(err, "failed to create notification")
		}
		if s.enqueueDispatch != nil {
			if err := s.enqueueDispatch(ctx, tx, notify.DispatchArgs{
				NotificationID: out.Notification.ID,
				OutletID:       led.OutletID,
			}); err != nil {
				return nil, nil, fault.Internal(err, "failed to enqueue notification delivery")
			}
		}
	}

	if err := s.ledgers.UpdateTx(ctx, tx, out.Ledger); err != nil {
		return nil, nil, fault.Internal(err, "failed to update ledger")
	}

	if err := s.writeAudit(ctx, tx, actorID, act.Kind(), out.Details, led, out.Ledger); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fault.Internal(err, "failed to commit transaction")
	}

	if s.metrics != nil {
		s.metrics.ActionsApplied.WithLabelValues(act.Kind()).Inc()
		if out.Reward != nil {
			s.metrics.RewardsIssued.Inc()
		}
		s.metrics.ObserveApply(start)
	}
	s.logger.Info("action applied",
		"action", act.Kind(),
		"customer_id", cust.ID,
		"reward_issued", out.Reward != nil)

	return out.Ledger, out.Reward, nil
}

func (s *Service) writeAudit(ctx context.Context, tx pgx.Tx, actorID, action string, details map[string]any, before, after *models.Ledger) error {
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return fault.Internal(err, "failed to encode audit details")
	}
	beforeJSON, err := json.Marshal(before)
	if err != nil {
		return fault.Internal(err, "failed to encode audit snapshot")
	}
	afterJSON, err := json.Marshal(after)
	if err != nil {
		return fault.Internal(err, "failed to encode audit snapshot")
	}
	auditAction := action
	if action == KindTaskComplete {
		auditAction = models.AuditTaskComplete
	}
	if err := s.audit.CreateTx(ctx, tx, &models.AuditEntry{
		ID:      uuid.New(),
		ActorID: actorID,
		Action:  auditAction,
		Details: detailsJSON,
		Before:  beforeJSON,
		After:   afterJSON,
	}); err != nil {
		return fault.Internal(err, "failed to write audit entry")
	}
	return nil
}
