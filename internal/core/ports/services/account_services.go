package services

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/ManishBastola/bank-app/internal/core/domain"
)

// AccountSvcFacade opens and reads accounts. Balance mutation is not here;
// that belongs exclusively to the ledger.
type AccountSvcFacade interface {
	OpenAccount(ctx context.Context, userID int64, openingBalance decimal.Decimal) (*domain.Account, error)
	GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error)
	ListAccountsByUser(ctx context.Context, userID int64) ([]domain.Account, error)
}
