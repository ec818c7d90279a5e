package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account represents a trading account in the registry. Credentials are
// stored as a bcrypt hash only; the plaintext password never persists.
type Account struct {
	ID             string          `json:"id" badgerhold:"key"`
	Email          string          `json:"email,omitempty"`
	PasswordHash   string          `json:"password_hash"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
	CreatedAt      time.Time       `json:"created_at"`
}
