package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/punchcard/backend/internal/admin"
	"github.com/punchcard/backend/internal/fault"
	"github.com/punchcard/backend/internal/models"
)

// AdminService is the subset of the admin console backend the handler needs.
type AdminService interface {
	Publish(ctx context.Context, outletID string, settings admin.Settings, template json.RawMessage, content []admin.ContentItem) error
	ListContent(ctx context.Context, outletID string) ([]*models.ContentBlock, error)
	ListAudit(ctx context.Context, actorID string, limit int) ([]*models.AuditEntry, error)
	ExportURL(exportType string) (string, error)
	Undo(ctx context.Context, actionID uuid.UUID) error
}

// AdminHandler serves outlet publishing, audit reads, CSV export handoff
// and undo.
type AdminHandler struct {
	Admin  AdminService
	Logger *slog.Logger
}

type publishRequest struct {
	OutletID string              `json:"outlet_id"`
	Settings admin.Settings      `json:"settings"`
	Template json.RawMessage     `json:"template,omitempty"`
	Content  []admin.ContentItem `json:"content,omitempty"`
}

// Publish handles POST /api/v1/admin/publish.
func (h *AdminHandler) Publish(w http.ResponseWriter, r *http.Request) {
	var req publishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.Logger, fault.InvalidArgument("invalid JSON"))
		return
	}
	if err := h.Admin.Publish(r.Context(), req.OutletID, req.Settings, req.Template, req.Content); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ListContent handles GET /api/v1/content/{outletId} (public card UI read).
func (h *AdminHandler) ListContent(w http.ResponseWriter, r *http.Request) {
	list, err := h.Admin.ListContent(r.Context(), r.PathValue("outletId"))
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	if list == nil {
		list = []*models.ContentBlock{}
	}
	writeJSON(w, http.StatusOK, list)
}

// ListAudit handles GET /api/v1/admin/audit?actor_id=&limit=.
func (h *AdminHandler) ListAudit(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	list, err := h.Admin.ListAudit(r.Context(), r.URL.Query().Get("actor_id"), limit)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	if list == nil {
		list = []*models.AuditEntry{}
	}
	writeJSON(w, http.StatusOK, list)
}

// Export handles GET /api/v1/admin/export?type=. CSV generation lives with
// the export collaborator; this hands back its download URL.
func (h *AdminHandler) Export(w http.ResponseWriter, r *http.Request) {
	url, err := h.Admin.ExportURL(r.URL.Query().Get("type"))
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

type undoRequest struct {
	ActionID string `json:"action_id"`
}

// Undo handles POST /api/v1/admin/undo.
func (h *AdminHandler) Undo(w http.ResponseWriter, r *http.Request) {
	var req undoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.Logger, fault.InvalidArgument("invalid JSON"))
		return
	}
	actionID, err := uuid.Parse(req.ActionID)
	if err != nil {
		writeError(w, h.Logger, fault.InvalidArgument("invalid action_id"))
		return
	}
	if err := h.Admin.Undo(r.Context(), actionID); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
