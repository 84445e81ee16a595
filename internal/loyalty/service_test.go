package loyalty

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/punchcard/backend/internal/fault"
	"github.com/punchcard/backend/internal/models"
	"github.com/punchcard/backend/internal/notify"
)

// ---------------------------------------------------------------------------
// Mocks
// ---------------------------------------------------------------------------

// --- noopTx satisfies pgx.Tx for test use; only Commit/Rollback are called. ---

type noopTx struct{}

func (noopTx) Begin(context.Context) (pgx.Tx, error) { return noopTx{}, nil }
func (noopTx) Commit(context.Context) error          { return nil }
func (noopTx) Rollback(context.Context) error        { return nil }
func (noopTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (noopTx) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, nil }
func (noopTx) QueryRow(context.Context, string, ...any) pgx.Row        { return nil }
func (noopTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (noopTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults { return nil }
func (noopTx) LargeObjects() pgx.LargeObjects                         { return pgx.LargeObjects{} }
func (noopTx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (noopTx) Conn() *pgx.Conn { return nil }

// --- TxBeginner mocks ---

type mockPool struct{}

func (mockPool) Begin(context.Context) (pgx.Tx, error) { return noopTx{}, nil }

// serialPool serializes transactions the way FOR UPDATE row locks do: Begin
// blocks until the previous transaction commits or rolls back.
type serialPool struct {
	mu sync.Mutex
}

type serialTx struct {
	noopTx
	release *sync.Once
	mu      *sync.Mutex
}

func (p *serialPool) Begin(context.Context) (pgx.Tx, error) {
	p.mu.Lock()
	return serialTx{release: &sync.Once{}, mu: &p.mu}, nil
}

func (t serialTx) Commit(context.Context) error {
	t.release.Do(t.mu.Unlock)
	return nil
}

func (t serialTx) Rollback(context.Context) error {
	t.release.Do(t.mu.Unlock)
	return nil
}

// --- CustomerResolver mock ---

type mockResolver struct {
	customers map[string]*models.Customer
}

func (m *mockResolver) Resolve(_ context.Context, token string) (*models.Customer, error) {
	c, ok := m.customers[token]
	if !ok {
		return nil, fault.NotFound("customer not found")
	}
	return c, nil
}

// --- LedgerStore mock ---

type mockLedgers struct {
	mu      sync.Mutex
	ledgers map[uuid.UUID]*models.Ledger
}

func newMockLedgers(ls ...*models.Ledger) *mockLedgers {
	m := &mockLedgers{ledgers: make(map[uuid.UUID]*models.Ledger)}
	for _, l := range ls {
		m.ledgers[l.CustomerID] = l.Clone()
	}
	return m
}

func (m *mockLedgers) GetByCustomer(_ context.Context, id uuid.UUID) (*models.Ledger, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.ledgers[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return l.Clone(), nil
}

func (m *mockLedgers) GetForUpdate(_ context.Context, _ pgx.Tx, id uuid.UUID) (*models.Ledger, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.ledgers[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return l.Clone(), nil
}

func (m *mockLedgers) UpdateTx(_ context.Context, _ pgx.Tx, l *models.Ledger) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ledgers[l.CustomerID] = l.Clone()
	return nil
}

func (m *mockLedgers) points(id uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ledgers[id].Points
}

// --- Reward / notification / audit recorders ---

type mockRewards struct {
	mu      sync.Mutex
	rewards []*models.Reward
}

func (m *mockRewards) CreateTx(_ context.Context, _ pgx.Tx, rw *models.Reward) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rw
	m.rewards = append(m.rewards, &cp)
	return nil
}

type mockNotifications struct {
	mu     sync.Mutex
	events []*models.Notification
}

func (m *mockNotifications) CreateTx(_ context.Context, _ pgx.Tx, n *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *n
	m.events = append(m.events, &cp)
	return nil
}

type mockAudit struct {
	mu      sync.Mutex
	entries []*models.AuditEntry
}

func (m *mockAudit) CreateTx(_ context.Context, _ pgx.Tx, e *models.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *e
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *mockAudit) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// --- OutletSource mock: no row published, engine falls back to defaults ---

type mockOutlets struct{}

func (mockOutlets) GetTx(context.Context, pgx.Tx, string) (*models.Outlet, error) {
	return nil, pgx.ErrNoRows
}

// ---------------------------------------------------------------------------
// Fixture
// ---------------------------------------------------------------------------

type fixture struct {
	svc           *Service
	cust          *models.Customer
	ledgers       *mockLedgers
	rewards       *mockRewards
	notifications *mockNotifications
	audit         *mockAudit
	enqueued      []notify.DispatchArgs
}

func newFixture(t *testing.T, pool TxBeginner, stamps int) *fixture {
	t.Helper()
	cust := &models.Customer{ID: uuid.New(), Token: "ABC123"}
	led := models.NewLedger(cust.ID, models.DefaultOutletID, testNow)
	led.Stamps[models.DefaultCampaign] = stamps

	f := &fixture{
		cust:          cust,
		ledgers:       newMockLedgers(led),
		rewards:       &mockRewards{},
		notifications: &mockNotifications{},
		audit:         &mockAudit{},
	}
	enqueue := func(_ context.Context, _ pgx.Tx, args notify.DispatchArgs) error {
		f.enqueued = append(f.enqueued, args)
		return nil
	}
	resolver := &mockResolver{customers: map[string]*models.Customer{cust.Token: cust}}
	f.svc = NewService(pool, resolver, f.ledgers, f.rewards, f.notifications, f.audit, mockOutlets{}, enqueue, nil, nil)
	return f
}

// ---------------------------------------------------------------------------
// 1. TestApplyAddStampIssuance: one transaction writes all five records
// ---------------------------------------------------------------------------

func TestApplyAddStampIssuance(t *testing.T) {
	f := newFixture(t, mockPool{}, 9)
	ctx := context.Background()

	led, reward, err := f.svc.Apply(ctx, "ABC123", AddStamp{Amount: 1})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if reward == nil {
		t.Fatal("threshold crossing must return the issued reward")
	}
	if led.Stamps[models.DefaultCampaign] != 0 {
		t.Errorf("campaign must reset: got %d", led.Stamps[models.DefaultCampaign])
	}

	if len(f.rewards.rewards) != 1 {
		t.Fatalf("persisted rewards: got %d, want 1", len(f.rewards.rewards))
	}
	if len(f.notifications.events) != 1 {
		t.Fatalf("persisted notifications: got %d, want 1", len(f.notifications.events))
	}
	if len(f.enqueued) != 1 {
		t.Fatalf("dispatch jobs: got %d, want 1", len(f.enqueued))
	}
	if f.enqueued[0].NotificationID != f.notifications.events[0].ID {
		t.Error("dispatch job must reference the persisted notification")
	}

	// The stored ledger matches the returned one.
	stored, _ := f.ledgers.GetByCustomer(ctx, f.cust.ID)
	if stored.Stamps[models.DefaultCampaign] != 0 || len(stored.RewardIDs) != 1 {
		t.Errorf("stored ledger: %+v", stored)
	}

	// Exactly one audit entry, staff-attributed.
	if f.audit.count() != 1 {
		t.Fatalf("audit entries: got %d, want 1", f.audit.count())
	}
	entry := f.audit.entries[0]
	if entry.ActorID != ActorStaff {
		t.Errorf("audit actor: got %q, want %q", entry.ActorID, ActorStaff)
	}
	if entry.Action != KindAddStamp {
		t.Errorf("audit action: got %q, want %q", entry.Action, KindAddStamp)
	}
	if len(entry.Before) == 0 || len(entry.After) == 0 {
		t.Error("audit entry must snapshot before and after states")
	}
}

// ---------------------------------------------------------------------------
// 2. TestApplyTaskCompleteActor: customer-attributed audit
// ---------------------------------------------------------------------------

func TestApplyTaskCompleteActor(t *testing.T) {
	f := newFixture(t, mockPool{}, 0)
	ctx := context.Background()

	led, _, err := f.svc.Apply(ctx, "ABC123", TaskComplete{RuleID: RuleShareReward})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if led.Points != 15 {
		t.Errorf("share points: got %d, want 15", led.Points)
	}
	if f.audit.count() != 1 {
		t.Fatalf("audit entries: got %d, want 1", f.audit.count())
	}
	entry := f.audit.entries[0]
	if entry.ActorID != f.cust.ID.String() {
		t.Errorf("task audit actor: got %q, want customer id", entry.ActorID)
	}
	if entry.Action != models.AuditTaskComplete {
		t.Errorf("audit action: got %q, want %q", entry.Action, models.AuditTaskComplete)
	}
}

// ---------------------------------------------------------------------------
// 3. TestApplyUnknownRuleWritesNothing
// ---------------------------------------------------------------------------

func TestApplyUnknownRuleWritesNothing(t *testing.T) {
	f := newFixture(t, mockPool{}, 4)
	ctx := context.Background()

	led, reward, err := f.svc.Apply(ctx, "ABC123", TaskComplete{RuleID: "dance-challenge"})
	if err != nil {
		t.Fatalf("unknown rule must succeed: %v", err)
	}
	if reward != nil {
		t.Error("no-op must not issue a reward")
	}
	if led.Points != 10 || led.Stamps[models.DefaultCampaign] != 4 {
		t.Errorf("no-op returned mutated ledger: %+v", led)
	}
	if f.audit.count() != 0 {
		t.Errorf("no-op must not write audit entries, got %d", f.audit.count())
	}
	if len(f.enqueued) != 0 || len(f.notifications.events) != 0 {
		t.Error("no-op must not queue notifications")
	}
}

// ---------------------------------------------------------------------------
// 4. TestApplyUnknownToken
// ---------------------------------------------------------------------------

func TestApplyUnknownToken(t *testing.T) {
	f := newFixture(t, mockPool{}, 0)

	_, _, err := f.svc.Apply(context.Background(), "ZZZZZZ", AddPoints{Amount: 1})
	if fault.KindOf(err) != fault.KindNotFound {
		t.Errorf("unknown token: got %v, want not_found", err)
	}
}

// ---------------------------------------------------------------------------
// 5. TestApplyConcurrentAddPoints: no lost updates under serialization
// ---------------------------------------------------------------------------

func TestApplyConcurrentAddPoints(t *testing.T) {
	f := newFixture(t, &serialPool{}, 0)
	ctx := context.Background()

	const workers = 4
	const perWorker = 25

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				if _, _, err := f.svc.Apply(ctx, "ABC123", AddPoints{Amount: 1}); err != nil {
					t.Errorf("Apply: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	want := models.WelcomeBonusPoints + workers*perWorker
	if got := f.ledgers.points(f.cust.ID); got != want {
		t.Errorf("points after concurrent adds: got %d, want %d", got, want)
	}
	if f.audit.count() != workers*perWorker {
		t.Errorf("audit entries: got %d, want %d", f.audit.count(), workers*perWorker)
	}
}
