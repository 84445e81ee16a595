package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/riverqueue/river"

	"github.com/punchcard/backend/internal/models"
)

// DispatchArgs enqueues webhook delivery of one notification event. The job
// is inserted in the same transaction that created the event, so a delivery
// job never exists for an uncommitted notification.
type DispatchArgs struct {
	NotificationID uuid.UUID `json:"notification_id"`
	OutletID       string    `json:"outlet_id"`
}

func (DispatchArgs) Kind() string { return "notification_dispatch" }

// NotificationSource loads the event to deliver.
type NotificationSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Notification, error)
}

// OutletSource resolves the outlet's webhook configuration.
type OutletSource interface {
	Get(ctx context.Context, id string) (*models.Outlet, error)
}

// DispatchWorker POSTs notification events to the outlet webhook. Delivery
// is best-effort: an outlet with no webhook completes immediately, and a
// failed POST is retried by the queue without ever touching the ledger.
type DispatchWorker struct {
	river.WorkerDefaults[DispatchArgs]
	notifications NotificationSource
	outlets       OutletSource
	httpClient    *http.Client
	logger        *slog.Logger
}

func NewDispatchWorker(notifications NotificationSource, outlets OutletSource, logger *slog.Logger) *DispatchWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &DispatchWorker{
		notifications: notifications,
		outlets:       outlets,
		httpClient:    &http.Client{Timeout: 15 * time.Second},
		logger:        logger,
	}
}

func (w *DispatchWorker) Work(ctx context.Context, job *river.Job[DispatchArgs]) error {
	args := job.Args

	event, err := w.notifications.GetByID(ctx, args.NotificationID)
	if err != nil {
		return fmt.Errorf("load notification %s: %w", args.NotificationID, err)
	}

	webhookURL := ""
	if outlet, err := w.outlets.Get(ctx, args.OutletID); err == nil {
		webhookURL = outlet.NotifyWebhookURL
	}
	if webhookURL == "" {
		w.logger.Info("no notification webhook configured, skipping delivery",
			"notification_id", event.ID, "outlet_id", args.OutletID)
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("deliver notification webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notification webhook returned status %d", resp.StatusCode)
	}

	w.logger.Info("notification delivered", "notification_id", event.ID, "type", event.Type)
	return nil
}
