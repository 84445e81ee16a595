package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/punchcard/backend/internal/fault"
)

type mockValidator struct {
	id  uuid.UUID
	err error
}

func (m *mockValidator) ValidateToken(string) (uuid.UUID, error) {
	return m.id, m.err
}

func TestStaffAuth(t *testing.T) {
	staffID := uuid.New()
	var gotID uuid.UUID
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = StaffFromCtx(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	handler := StaffAuth(&mockValidator{id: staffID})(next)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	if gotID != staffID {
		t.Errorf("staff id in context: got %s, want %s", gotID, staffID)
	}
}

func TestStaffAuthMissingHeader(t *testing.T) {
	handler := StaffAuth(&mockValidator{id: uuid.New()})(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("handler must not run without credentials")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want 401", rec.Code)
	}
}

func TestStaffAuthInvalidToken(t *testing.T) {
	handler := StaffAuth(&mockValidator{err: fault.Unauthenticated("invalid token")})(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("handler must not run with a bad token")
	}))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer bad-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want 401", rec.Code)
	}
}

func TestExtractBearerCaseInsensitive(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer abc")
	if got := extractBearer(req); got != "abc" {
		t.Errorf("extractBearer: got %q, want %q", got, "abc")
	}
	req.Header.Set("Authorization", "Basic abc")
	if got := extractBearer(req); got != "" {
		t.Errorf("extractBearer with Basic: got %q, want empty", got)
	}
}
