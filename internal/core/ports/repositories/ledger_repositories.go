package repositories

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/ManishBastola/bank-app/internal/core/domain"
)

// LedgerRepository owns account rows and their balances. ApplyDebit and
// ApplyCredit are the only writers of a balance and must be atomic: the
// funds check, the balance mutation and the receipt write succeed or fail
// together, serialized per account. Business outcomes (insufficient funds,
// unknown account, replayed key) are reported through the Receipt; the error
// return is reserved for storage faults.
type LedgerRepository interface {
	SaveAccount(ctx context.Context, account domain.Account) error
	FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error)
	FindAccountsByUser(ctx context.Context, userID int64) ([]domain.Account, error)
	ApplyDebit(ctx context.Context, accountID string, amount decimal.Decimal, idempotencyKey string) (domain.Receipt, error)
	ApplyCredit(ctx context.Context, accountID string, amount decimal.Decimal, idempotencyKey string) (domain.Receipt, error)
}
