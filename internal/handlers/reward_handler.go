package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/punchcard/backend/internal/fault"
	"github.com/punchcard/backend/internal/models"
)

// RedemptionService is the subset of the reward subsystem the handler needs.
type RedemptionService interface {
	Redeem(ctx context.Context, token string, rewardID uuid.UUID) (*models.Ledger, error)
	List(ctx context.Context, token string) ([]*models.Reward, error)
}

// RewardHandler serves reward reads and redemption.
type RewardHandler struct {
	Rewards RedemptionService
	Logger  *slog.Logger
}

type redeemRequest struct {
	Token    string `json:"token"`
	RewardID string `json:"reward_id"`
}

type redeemResponse struct {
	Success bool           `json:"success"`
	Ledger  *models.Ledger `json:"ledger"`
}

// Redeem handles POST /api/v1/rewards/redeem.
func (h *RewardHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	var req redeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.Logger, fault.InvalidArgument("invalid JSON"))
		return
	}
	if req.Token == "" || req.RewardID == "" {
		writeError(w, h.Logger, fault.InvalidArgument("token and reward_id are required"))
		return
	}
	rewardID, err := uuid.Parse(req.RewardID)
	if err != nil {
		writeError(w, h.Logger, fault.InvalidArgument("invalid reward_id"))
		return
	}

	led, err := h.Rewards.Redeem(r.Context(), req.Token, rewardID)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, redeemResponse{Success: true, Ledger: led})
}

// List handles GET /api/v1/rewards/{token}.
func (h *RewardHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Rewards.List(r.Context(), r.PathValue("token"))
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	if list == nil {
		list = []*models.Reward{}
	}
	writeJSON(w, http.StatusOK, list)
}
