package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/punchcard/backend/internal/fault"
	"github.com/punchcard/backend/internal/models"
)

// NotificationStore is the subset of the notification queue the handler needs.
type NotificationStore interface {
	ListPendingByCustomer(ctx context.Context, customerID uuid.UUID) ([]*models.Notification, error)
	MarkShown(ctx context.Context, id uuid.UUID) (bool, error)
}

// TokenResolver maps an access token to a customer.
type TokenResolver interface {
	Resolve(ctx context.Context, token string) (*models.Customer, error)
}

// NotificationHandler serves the client side of the notification queue:
// pending events and the shown-ack.
type NotificationHandler struct {
	Notifications NotificationStore
	Resolver      TokenResolver
	Logger        *slog.Logger
}

// ListPending handles GET /api/v1/notifications/{token}.
func (h *NotificationHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	cust, err := h.Resolver.Resolve(r.Context(), r.PathValue("token"))
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	list, err := h.Notifications.ListPendingByCustomer(r.Context(), cust.ID)
	if err != nil {
		writeError(w, h.Logger, fault.Internal(err, "failed to list notifications"))
		return
	}
	if list == nil {
		list = []*models.Notification{}
	}
	writeJSON(w, http.StatusOK, list)
}

// MarkShown handles POST /api/v1/notifications/{id}/shown. The ack is
// set-once and safe to retry: a repeat ack reports success=false without
// changing anything.
func (h *NotificationHandler) MarkShown(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, h.Logger, fault.InvalidArgument("invalid notification id"))
		return
	}
	ok, err := h.Notifications.MarkShown(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, h.Logger, fault.NotFound("notification not found"))
			return
		}
		writeError(w, h.Logger, fault.Internal(err, "failed to ack notification"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": ok})
}
