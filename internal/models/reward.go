package models

import (
	"time"

	"github.com/google/uuid"
)

// Reward is a single redeemable grant tied to one customer. RedeemedAt is
// one-way: once set it never changes, and rewards are never deleted.
type Reward struct {
	ID         uuid.UUID  `json:"id"`
	CustomerID uuid.UUID  `json:"customer_id"`
	OutletID   string     `json:"outlet_id"`
	Title      string     `json:"title"`
	Details    string     `json:"details"`
	IssuedAt   time.Time  `json:"issued_at"`
	RedeemedAt *time.Time `json:"redeemed_at,omitempty"`
	Redeemable bool       `json:"redeemable"`
	AutoRedeem bool       `json:"auto_redeem"`
}
