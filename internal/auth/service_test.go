package auth

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/punchcard/backend/internal/fault"
	"github.com/punchcard/backend/internal/models"
)

type mockStaffRepo struct {
	accounts map[string]*models.StaffAccount
}

func newMockStaffRepo() *mockStaffRepo {
	return &mockStaffRepo{accounts: make(map[string]*models.StaffAccount)}
}

func (m *mockStaffRepo) Create(_ context.Context, s *models.StaffAccount) error {
	cp := *s
	m.accounts[s.Email] = &cp
	return nil
}

func (m *mockStaffRepo) GetByEmail(_ context.Context, email string) (*models.StaffAccount, error) {
	acc, ok := m.accounts[email]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *acc
	return &cp, nil
}

func (m *mockStaffRepo) Count(context.Context) (int, error) {
	return len(m.accounts), nil
}

func seedAccount(t *testing.T, repo *mockStaffRepo, email, password string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	repo.accounts[email] = &models.StaffAccount{Email: email, PasswordHash: string(hash)}
}

func TestLoginAndValidate(t *testing.T) {
	repo := newMockStaffRepo()
	seedAccount(t, repo, "staff@example.com", "hunter2")
	svc := NewService(repo)
	ctx := context.Background()

	token, err := svc.Login(ctx, "staff@example.com", "hunter2")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token == "" {
		t.Fatal("empty token")
	}

	if _, err := svc.ValidateToken(token); err != nil {
		t.Errorf("ValidateToken on fresh token: %v", err)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	repo := newMockStaffRepo()
	seedAccount(t, repo, "staff@example.com", "hunter2")
	svc := NewService(repo)
	ctx := context.Background()

	if _, err := svc.Login(ctx, "staff@example.com", "wrong"); fault.KindOf(err) != fault.KindUnauthenticated {
		t.Errorf("wrong password: got %v, want unauthenticated", err)
	}
	if _, err := svc.Login(ctx, "nobody@example.com", "hunter2"); fault.KindOf(err) != fault.KindUnauthenticated {
		t.Errorf("unknown email: got %v, want unauthenticated", err)
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := NewService(newMockStaffRepo())
	if _, err := svc.ValidateToken("not-a-jwt"); fault.KindOf(err) != fault.KindUnauthenticated {
		t.Errorf("garbage token: got %v, want unauthenticated", err)
	}
}

func TestBootstrapSeedsOnlyOnce(t *testing.T) {
	repo := newMockStaffRepo()
	svc := NewService(repo)
	ctx := context.Background()

	if err := svc.Bootstrap(ctx, "staff@example.com", "hunter2"); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if len(repo.accounts) != 1 {
		t.Fatalf("accounts after bootstrap: got %d, want 1", len(repo.accounts))
	}

	// A second bootstrap against a populated table is a no-op.
	if err := svc.Bootstrap(ctx, "other@example.com", "secret"); err != nil {
		t.Fatalf("repeat Bootstrap: %v", err)
	}
	if len(repo.accounts) != 1 {
		t.Errorf("repeat bootstrap must not add accounts, got %d", len(repo.accounts))
	}

	if _, err := svc.Login(ctx, "staff@example.com", "hunter2"); err != nil {
		t.Errorf("login with bootstrapped credentials: %v", err)
	}
}
