package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ManishBastola/bank-app/internal/core/domain"
)

// OpenAccountRequest defines the data needed to open an account.
type OpenAccountRequest struct {
	// OpeningBalance is optional; zero when omitted.
	OpeningBalance decimal.Decimal `json:"openingBalance"`
}

// AccountResponse defines the data returned for an account.
type AccountResponse struct {
	AccountID     string          `json:"accountID"`
	UserID        int64           `json:"userID"`
	AccountNumber string          `json:"accountNumber"`
	Balance       decimal.Decimal `json:"balance"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// ToAccountResponse converts a domain.Account to AccountResponse.
func ToAccountResponse(a *domain.Account) AccountResponse {
	return AccountResponse{
		AccountID:     a.AccountID,
		UserID:        a.UserID,
		AccountNumber: a.AccountNumber,
		Balance:       a.Balance,
		CreatedAt:     a.CreatedAt,
	}
}

// ListAccountsResponse wraps the list of accounts.
type ListAccountsResponse struct {
	Accounts []AccountResponse `json:"accounts"`
}

// ToListAccountsResponse converts a slice of domain.Account.
func ToListAccountsResponse(accounts []domain.Account) ListAccountsResponse {
	res := make([]AccountResponse, len(accounts))
	for i := range accounts {
		res[i] = ToAccountResponse(&accounts[i])
	}
	return ListAccountsResponse{Accounts: res}
}

// BalanceResponse defines the data returned for a balance query.
type BalanceResponse struct {
	AccountID string          `json:"accountID"`
	Balance   decimal.Decimal `json:"balance"`
}

// LedgerOperationRequest is the body of a ledger debit/credit call. The key
// bound is looser than the movement surfaces' because coordinator-derived
// keys carry a compensation suffix; the column holds 100 characters.
type LedgerOperationRequest struct {
	Amount         decimal.Decimal `json:"amount" binding:"required,positive_amount"`
	IdempotencyKey string          `json:"idempotencyKey" binding:"required,max=100"`
}
