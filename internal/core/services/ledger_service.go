package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/ManishBastola/bank-app/internal/apperrors"
	"github.com/ManishBastola/bank-app/internal/core/domain"
	portsrepo "github.com/ManishBastola/bank-app/internal/core/ports/repositories"
	portssvc "github.com/ManishBastola/bank-app/internal/core/ports/services"
	"github.com/ManishBastola/bank-app/internal/middleware"
	"github.com/ManishBastola/bank-app/internal/platform/metrics"
)

// LedgerService is the authoritative owner of account balances. Every debit
// and credit on one account is serialized against every other operation on
// that account by the repository; operations on different accounts proceed
// independently. Receipts keyed by idempotency key make retried calls safe.
type LedgerService struct {
	ledgerRepo portsrepo.LedgerRepository
}

var _ portssvc.LedgerSvcFacade = (*LedgerService)(nil)

// NewLedgerService creates a new LedgerService.
func NewLedgerService(ledgerRepo portsrepo.LedgerRepository) *LedgerService {
	return &LedgerService{ledgerRepo: ledgerRepo}
}

// Debit atomically checks funds and decrements the balance. The non-negative
// invariant holds under any number of concurrent attempts on one account.
func (s *LedgerService) Debit(ctx context.Context, accountID string, amount decimal.Decimal, idempotencyKey string) (domain.Receipt, error) {
	if err := validateOperation(amount, idempotencyKey); err != nil {
		return domain.Receipt{}, err
	}
	receipt, err := s.ledgerRepo.ApplyDebit(ctx, accountID, amount, idempotencyKey)
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("ledger debit on account %s: %w", accountID, err)
	}
	s.observe(ctx, "debit", accountID, receipt)
	return receipt, nil
}

// Credit increments the balance. It succeeds unless the account does not
// exist; it serves deposits and the coordinator's compensation path alike.
func (s *LedgerService) Credit(ctx context.Context, accountID string, amount decimal.Decimal, idempotencyKey string) (domain.Receipt, error) {
	if err := validateOperation(amount, idempotencyKey); err != nil {
		return domain.Receipt{}, err
	}
	receipt, err := s.ledgerRepo.ApplyCredit(ctx, accountID, amount, idempotencyKey)
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("ledger credit on account %s: %w", accountID, err)
	}
	s.observe(ctx, "credit", accountID, receipt)
	return receipt, nil
}

// GetBalance returns the current balance, or apperrors.ErrNotFound.
func (s *LedgerService) GetBalance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	account, err := s.ledgerRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return account.Balance, nil
}

func validateOperation(amount decimal.Decimal, idempotencyKey string) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: amount must be positive", apperrors.ErrValidation)
	}
	if idempotencyKey == "" {
		return fmt.Errorf("%w: idempotency key required", apperrors.ErrValidation)
	}
	return nil
}

func (s *LedgerService) observe(ctx context.Context, operation, accountID string, receipt domain.Receipt) {
	metrics.LedgerOperations.WithLabelValues(operation, string(receipt.Outcome)).Inc()
	middleware.GetLoggerFromCtx(ctx).Debug("Ledger operation applied",
		slog.String("operation", operation),
		slog.String("account_id", accountID),
		slog.String("outcome", string(receipt.Outcome)),
	)
}
