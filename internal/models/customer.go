package models

import (
	"time"

	"github.com/google/uuid"
)

// TokenAlphabet is the 36-symbol alphabet access tokens are drawn from.
// Tokens are always stored and compared upper-case.
const TokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// TokenLength is the fixed access token length.
const TokenLength = 6

type Customer struct {
	ID          uuid.UUID  `json:"id"`
	FirstName   string     `json:"first_name"`
	PhoneE164   string     `json:"phone_e164"`
	Token       string     `json:"token"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
