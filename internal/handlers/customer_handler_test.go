package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/punchcard/backend/internal/fault"
	"github.com/punchcard/backend/internal/models"
)

// ---------------------------------------------------------------------------
// Mocks
// ---------------------------------------------------------------------------

type mockIdentity struct {
	customer *models.Customer
	created  bool
	lastDOB  *time.Time
}

func (m *mockIdentity) Create(_ context.Context, name, phone string, dob *time.Time) (*models.Customer, bool, error) {
	if name == "" || phone == "" {
		return nil, false, fault.InvalidArgument("name and phone are required")
	}
	m.lastDOB = dob
	return m.customer, m.created, nil
}

func (m *mockIdentity) Resolve(_ context.Context, token string) (*models.Customer, error) {
	if m.customer == nil || token != m.customer.Token {
		return nil, fault.NotFound("customer not found")
	}
	return m.customer, nil
}

type mockLedgerReader struct {
	ledger *models.Ledger
	err    error
}

func (m *mockLedgerReader) GetLedger(context.Context, string) (*models.Ledger, error) {
	return m.ledger, m.err
}

// ---------------------------------------------------------------------------
// 1. TestCreateCustomerStatus: 201 on first signup, 200 on repeat
// ---------------------------------------------------------------------------

func TestCreateCustomerStatus(t *testing.T) {
	cust := &models.Customer{ID: uuid.New(), FirstName: "Jane", Token: "ABC123"}

	h := &CustomerHandler{Identity: &mockIdentity{customer: cust, created: true}}
	rec := post(t, h.CreateCustomer, `{"name":"Jane","phone":"+14155552671"}`)
	if rec.Code != http.StatusCreated {
		t.Errorf("first signup: status got %d, want 201", rec.Code)
	}
	var resp createCustomerResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Token != "ABC123" || resp.CustomerID != cust.ID.String() {
		t.Errorf("response: %+v", resp)
	}

	h = &CustomerHandler{Identity: &mockIdentity{customer: cust, created: false}}
	rec = post(t, h.CreateCustomer, `{"name":"Jane","phone":"+14155552671"}`)
	if rec.Code != http.StatusOK {
		t.Errorf("repeat signup: status got %d, want 200", rec.Code)
	}
}

// ---------------------------------------------------------------------------
// 2. TestCreateCustomerDateOfBirth
// ---------------------------------------------------------------------------

func TestCreateCustomerDateOfBirth(t *testing.T) {
	ident := &mockIdentity{customer: &models.Customer{ID: uuid.New(), Token: "ABC123"}, created: true}
	h := &CustomerHandler{Identity: ident}

	rec := post(t, h.CreateCustomer, `{"name":"Jane","phone":"+14155552671","date_of_birth":"1990-06-15"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want 201", rec.Code)
	}
	if ident.lastDOB == nil || ident.lastDOB.Format("2006-01-02") != "1990-06-15" {
		t.Errorf("date of birth not parsed: %v", ident.lastDOB)
	}

	rec = post(t, h.CreateCustomer, `{"name":"Jane","phone":"+14155552671","date_of_birth":"15/06/1990"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed date: status got %d, want 400", rec.Code)
	}
}

// ---------------------------------------------------------------------------
// 3. TestGetCustomer
// ---------------------------------------------------------------------------

func TestGetCustomer(t *testing.T) {
	cust := &models.Customer{ID: uuid.New(), FirstName: "Jane", Token: "ABC123"}
	h := &CustomerHandler{Identity: &mockIdentity{customer: cust}}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/customers/{token}", h.GetCustomer)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/customers/ABC123", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	var got models.Customer
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != cust.ID {
		t.Error("wrong customer returned")
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/customers/NOPE99", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown token: status got %d, want 404", rec.Code)
	}
}

// ---------------------------------------------------------------------------
// 4. TestGetLedger
// ---------------------------------------------------------------------------

func TestGetLedger(t *testing.T) {
	led := testLedger()
	h := &CustomerHandler{Ledgers: &mockLedgerReader{ledger: led}}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/ledger/{token}", h.GetLedger)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/ledger/ABC123", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	var got models.Ledger
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Points != led.Points || got.Stamps[models.DefaultCampaign] != 3 {
		t.Errorf("ledger: %+v", got)
	}
}
