package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account represents a customer bank account. The balance is authoritative
// and may only be mutated through the ledger's atomic debit/credit
// operations; no other writer touches it.
type Account struct {
	AccountID     string          `json:"accountID"`
	UserID        int64           `json:"userID"`
	AccountNumber string          `json:"accountNumber"` // opaque unique number shown to customers
	Balance       decimal.Decimal `json:"balance"`
	CreatedAt     time.Time       `json:"createdAt"`
	LastUpdatedAt time.Time       `json:"lastUpdatedAt"`
}
