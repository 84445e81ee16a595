package auth

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/punchcard/backend/internal/fault"
	"github.com/punchcard/backend/internal/models"
)

// StaffRepo is the minimal staff account interface for auth.
type StaffRepo interface {
	Create(ctx context.Context, s *models.StaffAccount) error
	GetByEmail(ctx context.Context, email string) (*models.StaffAccount, error)
	Count(ctx context.Context) (int, error)
}

// Service authenticates staff for the action and admin endpoints.
type Service struct {
	repo   StaffRepo
	secret []byte
}

func NewService(repo StaffRepo) *Service {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "punchcard-dev-secret"
	}
	return &Service{repo: repo, secret: []byte(secret)}
}

// Bootstrap seeds the first staff account when none exists yet, so a fresh
// deployment has a way in.
func (s *Service) Bootstrap(ctx context.Context, email, password string) error {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.Create(ctx, &models.StaffAccount{
		ID:           uuid.New(),
		Email:        email,
		DisplayName:  "Staff",
		PasswordHash: string(hash),
	})
}

// Login verifies credentials and issues a 24h HS256 token.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	acc, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fault.Unauthenticated("invalid credentials")
		}
		return "", fault.Internal(err, "login failed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)); err != nil {
		return "", fault.Unauthenticated("invalid credentials")
	}
	return s.issueToken(acc.ID)
}

func (s *Service) issueToken(staffID uuid.UUID) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   staffID.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(s.secret)
}

// ValidateToken returns the staff id carried by a bearer token.
func (s *Service) ValidateToken(token string) (uuid.UUID, error) {
	tok, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return uuid.Nil, fault.Unauthenticated("invalid token")
	}
	claims, ok := tok.Claims.(*jwt.RegisteredClaims)
	if !ok || !tok.Valid {
		return uuid.Nil, fault.Unauthenticated("invalid token")
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fault.Unauthenticated("invalid token")
	}
	return id, nil
}
