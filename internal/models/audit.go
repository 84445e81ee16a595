package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Audit actor for mutations not attributable to a person.
const ActorSystem = "system"

// Audit action names.
const (
	AuditUserCreated  = "user_created"
	AuditRedeemReward = "redeem_reward"
	AuditTaskComplete = "task_complete"
)

// AuditEntry is an append-only, immutable record of one state transition.
// Entries are written by the same transaction that performs the mutation
// they record, and are never updated or deleted.
type AuditEntry struct {
	ID        uuid.UUID       `json:"id"`
	ActorID   string          `json:"actor_id"`
	Action    string          `json:"action"`
	Details   json.RawMessage `json:"details,omitempty"`
	Before    json.RawMessage `json:"before,omitempty"`
	After     json.RawMessage `json:"after,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
