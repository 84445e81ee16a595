package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/punchcard/backend/internal/fault"
	"github.com/punchcard/backend/internal/loyalty"
	"github.com/punchcard/backend/internal/models"
)

// ActionService is the subset of the action engine the handlers need.
type ActionService interface {
	Apply(ctx context.Context, token string, act loyalty.Action) (*models.Ledger, *models.Reward, error)
}

// StaffLogin issues staff bearer tokens.
type StaffLogin interface {
	Login(ctx context.Context, email, password string) (string, error)
}

// ActionHandler serves staff actions, staff login, and task completion.
type ActionHandler struct {
	Actions ActionService
	Auth    StaffLogin
	Logger  *slog.Logger
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login handles POST /api/v1/staff/login.
func (h *ActionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.Logger, fault.InvalidArgument("invalid JSON"))
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, h.Logger, fault.InvalidArgument("email and password are required"))
		return
	}
	token, err := h.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token})
}

type staffActionRequest struct {
	Token         string                 `json:"token"`
	Action        string                 `json:"action"`
	Amount        int                    `json:"amount,omitempty"`
	CampaignID    string                 `json:"campaign_id,omitempty"`
	RewardDetails *loyalty.RewardDetails `json:"reward_details,omitempty"`
}

type ledgerResponse struct {
	Success bool           `json:"success"`
	Ledger  *models.Ledger `json:"ledger"`
	Reward  *models.Reward `json:"reward,omitempty"`
}

// ApplyAction handles POST /api/v1/staff/actions. Validation failures are
// raised before any transaction opens.
func (h *ActionHandler) ApplyAction(w http.ResponseWriter, r *http.Request) {
	var req staffActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.Logger, fault.InvalidArgument("invalid JSON"))
		return
	}
	if req.Token == "" || req.Action == "" {
		writeError(w, h.Logger, fault.InvalidArgument("token and action are required"))
		return
	}

	act, err := loyalty.ParseStaffAction(req.Action, req.Amount, req.CampaignID, req.RewardDetails)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}

	led, reward, err := h.Actions.Apply(r.Context(), req.Token, act)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ledgerResponse{Success: true, Ledger: led, Reward: reward})
}

type taskCompleteRequest struct {
	Token            string   `json:"token"`
	RuleID           string   `json:"rule_id"`
	ClientEventToken string   `json:"client_event_token,omitempty"`
	Lat              *float64 `json:"lat,omitempty"`
	Lng              *float64 `json:"lng,omitempty"`
}

// TaskComplete handles POST /api/v1/tasks/complete. Unrecognized rule ids
// succeed without mutating anything. Coordinates are accepted for client
// compatibility but not persisted.
func (h *ActionHandler) TaskComplete(w http.ResponseWriter, r *http.Request) {
	var req taskCompleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.Logger, fault.InvalidArgument("invalid JSON"))
		return
	}
	if req.Token == "" || req.RuleID == "" {
		writeError(w, h.Logger, fault.InvalidArgument("token and rule_id are required"))
		return
	}

	led, _, err := h.Actions.Apply(r.Context(), req.Token, loyalty.TaskComplete{
		RuleID:           req.RuleID,
		ClientEventToken: req.ClientEventToken,
	})
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ledgerResponse{Success: true, Ledger: led})
}
