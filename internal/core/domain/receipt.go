package domain

import "github.com/shopspring/decimal"

// ReceiptOutcome is the definitive result of one ledger debit/credit attempt.
type ReceiptOutcome string

const (
	ReceiptApplied           ReceiptOutcome = "APPLIED"
	ReceiptInsufficientFunds ReceiptOutcome = "INSUFFICIENT_FUNDS"
	ReceiptAlreadyApplied    ReceiptOutcome = "ALREADY_APPLIED"
	ReceiptAccountNotFound   ReceiptOutcome = "ACCOUNT_NOT_FOUND"
)

// Receipt is returned by the ledger for every debit/credit attempt. Balance
// carries the resulting balance for APPLIED, or the balance as of the prior
// application for ALREADY_APPLIED. Keyed by idempotency key, it is what makes
// retried calls safe.
type Receipt struct {
	Outcome ReceiptOutcome  `json:"outcome"`
	Balance decimal.Decimal `json:"balance"`
}

// Applied reports whether the operation's effect is in place, whether from
// this attempt or a prior one with the same idempotency key.
func (r Receipt) Applied() bool {
	return r.Outcome == ReceiptApplied || r.Outcome == ReceiptAlreadyApplied
}
