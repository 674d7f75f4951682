package services

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/ManishBastola/bank-app/internal/core/domain"
)

// LedgerSvcFacade is the movement coordinator's only view of the balance
// ledger. It must stay an explicit interface even when ledger and
// coordinator share a process, so the retry and compensation paths can be
// driven against a substitute in tests and against the HTTP adapter in a
// split deployment.
//
// Debit and Credit return one of the four receipt outcomes; an error means
// the attempt had no definitive result (timeout, transport or storage fault)
// and may be retried with the same idempotency key.
type LedgerSvcFacade interface {
	Debit(ctx context.Context, accountID string, amount decimal.Decimal, idempotencyKey string) (domain.Receipt, error)
	Credit(ctx context.Context, accountID string, amount decimal.Decimal, idempotencyKey string) (domain.Receipt, error)
	GetBalance(ctx context.Context, accountID string) (decimal.Decimal, error)
}
