package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementKind identifies what sort of money movement a record describes.
type MovementKind string

const (
	Deposit     MovementKind = "DEPOSIT"
	Withdrawal  MovementKind = "WITHDRAWAL"
	Transfer    MovementKind = "TRANSFER"
	BillPayment MovementKind = "BILL_PAYMENT"
)

// MovementStatus tracks a movement through the debit-then-record saga.
type MovementStatus string

const (
	MovementPending     MovementStatus = "PENDING"
	MovementSucceeded   MovementStatus = "SUCCEEDED"
	MovementFailed      MovementStatus = "FAILED"
	MovementCompensated MovementStatus = "COMPENSATED"
)

// Terminal reports whether the status is final. A terminal movement is
// immutable and an idempotent replay returns it unchanged.
func (s MovementStatus) Terminal() bool {
	switch s {
	case MovementSucceeded, MovementFailed, MovementCompensated:
		return true
	}
	return false
}

// BillCategory classifies the payee of a bill payment.
type BillCategory string

const (
	BillElectricity BillCategory = "ELECTRICITY"
	BillWater       BillCategory = "WATER"
	BillInternet    BillCategory = "INTERNET"
	BillPhone       BillCategory = "PHONE"
	BillRent        BillCategory = "RENT"
	BillOther       BillCategory = "OTHER"
)

// Counterpart holds the other side of a movement: the transfer recipient or
// the bill category. Deposits and withdrawals leave it empty.
type Counterpart struct {
	RecipientName      string       `json:"recipientName,omitempty"`
	RecipientAccountNo string       `json:"recipientAccountNo,omitempty"`
	BillCategory       BillCategory `json:"billCategory,omitempty"`
}

// Movement is a durable record of an attempted money movement against one
// account. AccountID, Amount, Kind and Counterpart are immutable after
// creation; only Status and FailureReason transition as the saga progresses.
type Movement struct {
	MovementID     string          `json:"movementID"`
	UserID         int64           `json:"userID"`
	AccountID      string          `json:"accountID"`
	Kind           MovementKind    `json:"kind"`
	Amount         decimal.Decimal `json:"amount"`
	Counterpart    Counterpart     `json:"counterpart"`
	Status         MovementStatus  `json:"status"`
	FailureReason  string          `json:"failureReason,omitempty"`
	IdempotencyKey string          `json:"idempotencyKey"`
	Description    string          `json:"description,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	LastUpdatedAt  time.Time       `json:"lastUpdatedAt"`
}
