package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification event types.
const (
	NotificationRewardIssued  = "rewardIssued"
	NotificationInstantReward = "instantReward"
)

// Notification is a queued "show this to the user" event produced on reward
// issuance. Delivery is best-effort and decoupled from ledger state; the
// client acks by setting ShownAt exactly once.
type Notification struct {
	ID         uuid.UUID  `json:"id"`
	CustomerID uuid.UUID  `json:"customer_id"`
	Type       string     `json:"type"`
	RewardID   *uuid.UUID `json:"reward_id,omitempty"`
	Message    string     `json:"message"`
	CreatedAt  time.Time  `json:"created_at"`
	ShownAt    *time.Time `json:"shown_at,omitempty"`
}
