package identity

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/nyaruka/phonenumbers"

	"github.com/punchcard/backend/internal/fault"
	"github.com/punchcard/backend/internal/metrics"
	"github.com/punchcard/backend/internal/models"
)

// CustomerRepo is the minimal customer repository interface for identity.
type CustomerRepo interface {
	CreateTx(ctx context.Context, tx pgx.Tx, c *models.Customer) error
	GetByToken(ctx context.Context, token string) (*models.Customer, error)
	GetByPhone(ctx context.Context, phoneE164 string) (*models.Customer, error)
	TokenExists(ctx context.Context, token string) (bool, error)
}

// LedgerSeeder seeds the welcome ledger inside the signup transaction.
type LedgerSeeder interface {
	CreateTx(ctx context.Context, tx pgx.Tx, l *models.Ledger) error
}

// AuditWriter appends the signup audit entry.
type AuditWriter interface {
	CreateTx(ctx context.Context, tx pgx.Tx, e *models.AuditEntry) error
}

// TxBeginner abstracts transaction creation so tests don't need a pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Service resolves access tokens to customers and creates customers
// idempotently per phone identity.
type Service struct {
	pool      TxBeginner
	customers CustomerRepo
	ledgers   LedgerSeeder
	audit     AuditWriter
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func NewService(pool TxBeginner, customers CustomerRepo, ledgers LedgerSeeder, audit AuditWriter, m *metrics.Metrics, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{pool: pool, customers: customers, ledgers: ledgers, audit: audit, metrics: m, logger: logger}
}

// NormalizeToken upper-cases and trims a caller-supplied token. All lookups
// go through this before comparison.
func NormalizeToken(token string) string {
	return strings.ToUpper(strings.TrimSpace(token))
}

// Resolve maps an access token to its customer.
func (s *Service) Resolve(ctx context.Context, token string) (*models.Customer, error) {
	token = NormalizeToken(token)
	if token == "" {
		return nil, fault.InvalidArgument("token is required")
	}
	c, err := s.customers.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fault.NotFound("customer not found")
		}
		return nil, fault.Internal(err, "failed to resolve token")
	}
	return c, nil
}

// Create registers a customer. Idempotent per phone identity: if the phone
// is already registered the existing customer and token are returned, with
// no new ledger and no fresh signup audit entry. Otherwise the customer,
// welcome ledger and user_created audit entry are written as one
// transaction.
func (s *Service) Create(ctx context.Context, name, phone string, dateOfBirth *time.Time) (*models.Customer, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" || phone == "" {
		return nil, false, fault.InvalidArgument("name and phone are required")
	}
	phoneE164, err := normalizePhone(phone)
	if err != nil {
		return nil, false, err
	}

	existing, err := s.customers.GetByPhone(ctx, phoneE164)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fault.Internal(err, "failed to check existing registration")
	}

	// Unbounded retry on token collision: the 36^6 keyspace makes repeats
	// vanishingly rare, and the unique index backstops the pre-check so two
	// signups racing on the same candidate cannot both commit.
	for {
		token, err := GenerateToken()
		if err != nil {
			return nil, false, fault.Internal(err, "failed to generate token")
		}
		taken, err := s.customers.TokenExists(ctx, token)
		if err != nil {
			return nil, false, fault.Internal(err, "failed to check token uniqueness")
		}
		if taken {
			continue
		}

		c, err := s.createWithToken(ctx, name, phoneE164, token, dateOfBirth)
		if err == nil {
			if s.metrics != nil {
				s.metrics.CustomersCreated.Inc()
			}
			return c, true, nil
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			if strings.Contains(pgErr.ConstraintName, "phone") {
				// Lost a signup race on the same phone; return the winner.
				winner, getErr := s.customers.GetByPhone(ctx, phoneE164)
				if getErr != nil {
					return nil, false, fault.Internal(getErr, "failed to load existing registration")
				}
				return winner, false, nil
			}
			// Token collided between pre-check and commit; regenerate.
			continue
		}
		return nil, false, fault.Internal(err, "failed to create customer")
	}
}

func (s *Service) createWithToken(ctx context.Context, firstName, phoneE164, token string, dateOfBirth *time.Time) (*models.Customer, error) {
	if i := strings.IndexByte(firstName, ' '); i > 0 {
		firstName = firstName[:i]
	}
	now := time.Now().UTC()
	c := &models.Customer{
		ID:          uuid.New(),
		FirstName:   firstName,
		PhoneE164:   phoneE164,
		Token:       token,
		DateOfBirth: dateOfBirth,
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := s.customers.CreateTx(ctx, tx, c); err != nil {
		return nil, err
	}
	if err := s.ledgers.CreateTx(ctx, tx, models.NewLedger(c.ID, models.DefaultOutletID, now)); err != nil {
		return nil, err
	}

	details, _ := json.Marshal(map[string]any{"customer_id": c.ID, "token": token, "phone_e164": phoneE164})
	after, _ := json.Marshal(map[string]any{"customer_id": c.ID, "token": token})
	if err := s.audit.CreateTx(ctx, tx, &models.AuditEntry{
		ID:      uuid.New(),
		ActorID: models.ActorSystem,
		Action:  models.AuditUserCreated,
		Details: details,
		After:   after,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// normalizePhone delegates validity to the phone parsing library and
// canonicalizes to E.164.
func normalizePhone(phone string) (string, error) {
	num, err := phonenumbers.Parse(phone, "")
	if err != nil {
		return "", fault.InvalidArgument("invalid phone number")
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", fault.InvalidArgument("invalid phone number")
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}
