package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/punchcard/backend/internal/fault"
	"github.com/punchcard/backend/internal/models"
)

// IdentityService is the subset of the identity resolver the handler needs.
type IdentityService interface {
	Create(ctx context.Context, name, phone string, dateOfBirth *time.Time) (*models.Customer, bool, error)
	Resolve(ctx context.Context, token string) (*models.Customer, error)
}

// LedgerReader serves the card UI's ledger read.
type LedgerReader interface {
	GetLedger(ctx context.Context, token string) (*models.Ledger, error)
}

// CustomerHandler serves signup and token-based reads.
type CustomerHandler struct {
	Identity IdentityService
	Ledgers  LedgerReader
	Logger   *slog.Logger
}

type createCustomerRequest struct {
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	DateOfBirth string `json:"date_of_birth,omitempty"`
}

type createCustomerResponse struct {
	CustomerID string `json:"customer_id"`
	Token      string `json:"token"`
}

// CreateCustomer handles POST /api/v1/customers. Idempotent per phone
// identity: re-signup returns the existing token with 200 instead of 201.
func (h *CustomerHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req createCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.Logger, fault.InvalidArgument("invalid JSON"))
		return
	}

	var dob *time.Time
	if req.DateOfBirth != "" {
		d, err := time.Parse("2006-01-02", req.DateOfBirth)
		if err != nil {
			writeError(w, h.Logger, fault.InvalidArgument("date_of_birth must be YYYY-MM-DD"))
			return
		}
		dob = &d
	}

	cust, created, err := h.Identity.Create(r.Context(), req.Name, req.Phone, dob)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, createCustomerResponse{
		CustomerID: cust.ID.String(),
		Token:      cust.Token,
	})
}

// GetCustomer handles GET /api/v1/customers/{token}.
func (h *CustomerHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	cust, err := h.Identity.Resolve(r.Context(), r.PathValue("token"))
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, cust)
}

// GetLedger handles GET /api/v1/ledger/{token}.
func (h *CustomerHandler) GetLedger(w http.ResponseWriter, r *http.Request) {
	led, err := h.Ledgers.GetLedger(r.Context(), r.PathValue("token"))
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, led)
}
