package models

import (
	"time"

	"github.com/google/uuid"
)

// DefaultCampaign is the stamp campaign used when a staff action names none.
const DefaultCampaign = "default"

// WelcomeBonusPoints is seeded into every new ledger at signup.
const WelcomeBonusPoints = 10

// Ledger is the per-customer loyalty record (1:1 with Customer).
// Points and stamp counts never go negative; debits floor at zero.
type Ledger struct {
	CustomerID   uuid.UUID      `json:"customer_id"`
	OutletID     string         `json:"outlet_id"`
	Points       int            `json:"points"`
	Stamps       map[string]int `json:"stamps"`
	RewardIDs    []uuid.UUID    `json:"reward_ids"`
	LastActivity time.Time      `json:"last_activity"`
}

// NewLedger seeds the ledger created alongside a customer at signup.
func NewLedger(customerID uuid.UUID, outletID string, now time.Time) *Ledger {
	return &Ledger{
		CustomerID:   customerID,
		OutletID:     outletID,
		Points:       WelcomeBonusPoints,
		Stamps:       map[string]int{DefaultCampaign: 0},
		RewardIDs:    []uuid.UUID{},
		LastActivity: now,
	}
}

// Clone returns a deep copy so pure next-state computation never aliases
// the snapshot read inside a transaction.
func (l *Ledger) Clone() *Ledger {
	cp := *l
	cp.Stamps = make(map[string]int, len(l.Stamps))
	for k, v := range l.Stamps {
		cp.Stamps[k] = v
	}
	cp.RewardIDs = make([]uuid.UUID, len(l.RewardIDs))
	copy(cp.RewardIDs, l.RewardIDs)
	return &cp
}
