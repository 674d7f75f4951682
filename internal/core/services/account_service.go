package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ManishBastola/bank-app/internal/apperrors"
	"github.com/ManishBastola/bank-app/internal/core/domain"
	portsrepo "github.com/ManishBastola/bank-app/internal/core/ports/repositories"
	portssvc "github.com/ManishBastola/bank-app/internal/core/ports/services"
	"github.com/ManishBastola/bank-app/internal/middleware"
)

// AccountService opens and reads accounts. Balances are set once at opening
// and thereafter mutated only through the ledger's atomic operations.
type AccountService struct {
	ledgerRepo portsrepo.LedgerRepository
}

var _ portssvc.AccountSvcFacade = (*AccountService)(nil)

// NewAccountService creates a new AccountService.
func NewAccountService(ledgerRepo portsrepo.LedgerRepository) *AccountService {
	return &AccountService{ledgerRepo: ledgerRepo}
}

// OpenAccount creates an account for the user with an opaque account number.
func (s *AccountService) OpenAccount(ctx context.Context, userID int64, openingBalance decimal.Decimal) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	if openingBalance.IsNegative() {
		return nil, fmt.Errorf("%w: opening balance cannot be negative", apperrors.ErrValidation)
	}

	now := time.Now().UTC()
	account := domain.Account{
		AccountID:     uuid.NewString(),
		UserID:        userID,
		AccountNumber: uuid.NewString(),
		Balance:       openingBalance,
		CreatedAt:     now,
		LastUpdatedAt: now,
	}

	if err := s.ledgerRepo.SaveAccount(ctx, account); err != nil {
		logger.Error("Failed to save account", slog.String("error", err.Error()))
		return nil, err
	}

	logger.Info("Account opened", slog.String("account_id", account.AccountID), slog.Int64("user_id", userID))
	return &account, nil
}

// GetAccountByID retrieves one account or apperrors.ErrNotFound.
func (s *AccountService) GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	account, err := s.ledgerRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			middleware.GetLoggerFromCtx(ctx).Error("Failed to find account",
				slog.String("error", err.Error()), slog.String("account_id", accountID))
		}
		return nil, err
	}
	return account, nil
}

// ListAccountsByUser returns all accounts owned by the user.
func (s *AccountService) ListAccountsByUser(ctx context.Context, userID int64) ([]domain.Account, error) {
	accounts, err := s.ledgerRepo.FindAccountsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts for user %d: %w", userID, err)
	}
	if accounts == nil {
		accounts = []domain.Account{}
	}
	return accounts, nil
}
