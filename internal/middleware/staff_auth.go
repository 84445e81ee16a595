package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

type contextKey string

const ctxStaffKey contextKey = "staff"

// TokenValidator validates a bearer token and returns the staff id.
type TokenValidator interface {
	ValidateToken(token string) (uuid.UUID, error)
}

// StaffAuth authenticates staff/admin requests by validating the bearer JWT
// and putting the staff id into request context.
func StaffAuth(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := extractBearer(r)
			if raw == "" {
				http.Error(w, `{"error":{"code":"unauthenticated","message":"missing or malformed Authorization header"}}`, http.StatusUnauthorized)
				return
			}
			staffID, err := validator.ValidateToken(raw)
			if err != nil {
				http.Error(w, `{"error":{"code":"unauthenticated","message":"invalid token"}}`, http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), ctxStaffKey, staffID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// StaffFromCtx returns the authenticated staff id, or uuid.Nil.
func StaffFromCtx(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(ctxStaffKey).(uuid.UUID)
	return id
}

// WithStaff returns a context carrying the given staff id.
func WithStaff(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, ctxStaffKey, id)
}

func extractBearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
