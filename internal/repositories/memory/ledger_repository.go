// Package memory provides in-memory repository implementations behind the
// same ports as the pgsql adapters. They back local development (no
// database) and the concurrency tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ManishBastola/bank-app/internal/apperrors"
	"github.com/ManishBastola/bank-app/internal/core/domain"
	portsrepo "github.com/ManishBastola/bank-app/internal/core/ports/repositories"
)

// accountState guards one account: the mutex serializes every debit/credit
// against that account, and receipts record consumed idempotency keys.
type accountState struct {
	mu       sync.Mutex
	account  domain.Account
	receipts map[string]domain.Receipt
}

// LedgerRepository is an in-memory LedgerRepository. Operations on one
// account are serialized by a per-account mutex; different accounts proceed
// independently.
type LedgerRepository struct {
	mu       sync.RWMutex
	accounts map[string]*accountState
}

var _ portsrepo.LedgerRepository = (*LedgerRepository)(nil)

// NewLedgerRepository creates an empty in-memory ledger.
func NewLedgerRepository() *LedgerRepository {
	return &LedgerRepository{accounts: make(map[string]*accountState)}
}

// SaveAccount inserts a new account.
func (r *LedgerRepository) SaveAccount(_ context.Context, account domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.accounts[account.AccountID]; exists {
		return apperrors.ErrDuplicate
	}
	r.accounts[account.AccountID] = &accountState{
		account:  account,
		receipts: make(map[string]domain.Receipt),
	}
	return nil
}

// FindAccountByID returns a snapshot of the account.
func (r *LedgerRepository) FindAccountByID(_ context.Context, accountID string) (*domain.Account, error) {
	state, ok := r.state(accountID)
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	state.mu.Lock()
	defer state.mu.Unlock()
	cp := state.account
	return &cp, nil
}

// FindAccountsByUser returns snapshots of the user's accounts.
func (r *LedgerRepository) FindAccountsByUser(_ context.Context, userID int64) ([]domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	accounts := []domain.Account{}
	for _, state := range r.accounts {
		state.mu.Lock()
		if state.account.UserID == userID {
			accounts = append(accounts, state.account)
		}
		state.mu.Unlock()
	}
	return accounts, nil
}

// ApplyDebit atomically checks funds and decrements the balance. A consumed
// idempotency key short-circuits to ALREADY_APPLIED with the balance as of
// the prior application; the balance is never re-debited and never negative.
func (r *LedgerRepository) ApplyDebit(_ context.Context, accountID string, amount decimal.Decimal, idempotencyKey string) (domain.Receipt, error) {
	state, ok := r.state(accountID)
	if !ok {
		return domain.Receipt{Outcome: domain.ReceiptAccountNotFound}, nil
	}
	state.mu.Lock()
	defer state.mu.Unlock()

	if prior, consumed := state.receipts[idempotencyKey]; consumed {
		return domain.Receipt{Outcome: domain.ReceiptAlreadyApplied, Balance: prior.Balance}, nil
	}
	if state.account.Balance.LessThan(amount) {
		return domain.Receipt{Outcome: domain.ReceiptInsufficientFunds, Balance: state.account.Balance}, nil
	}
	state.account.Balance = state.account.Balance.Sub(amount)
	state.account.LastUpdatedAt = time.Now().UTC()

	receipt := domain.Receipt{Outcome: domain.ReceiptApplied, Balance: state.account.Balance}
	state.receipts[idempotencyKey] = receipt
	return receipt, nil
}

// ApplyCredit atomically increments the balance, idempotent per key.
func (r *LedgerRepository) ApplyCredit(_ context.Context, accountID string, amount decimal.Decimal, idempotencyKey string) (domain.Receipt, error) {
	state, ok := r.state(accountID)
	if !ok {
		return domain.Receipt{Outcome: domain.ReceiptAccountNotFound}, nil
	}
	state.mu.Lock()
	defer state.mu.Unlock()

	if prior, consumed := state.receipts[idempotencyKey]; consumed {
		return domain.Receipt{Outcome: domain.ReceiptAlreadyApplied, Balance: prior.Balance}, nil
	}
	state.account.Balance = state.account.Balance.Add(amount)
	state.account.LastUpdatedAt = time.Now().UTC()

	receipt := domain.Receipt{Outcome: domain.ReceiptApplied, Balance: state.account.Balance}
	state.receipts[idempotencyKey] = receipt
	return receipt, nil
}

func (r *LedgerRepository) state(accountID string) (*accountState, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	state, ok := r.accounts[accountID]
	return state, ok
}
