package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ManishBastola/bank-app/internal/core/domain"
)

// TransactionRequest starts a deposit or withdrawal.
type TransactionRequest struct {
	AccountID      string          `json:"accountID" binding:"required"`
	Type           string          `json:"type" binding:"required,oneof=DEPOSIT WITHDRAWAL"`
	Amount         decimal.Decimal `json:"amount" binding:"required,positive_amount"`
	Description    string          `json:"description"`
	IdempotencyKey string          `json:"idempotencyKey" binding:"omitempty,max=64"`
}

// TransferRequest starts a transfer. Only the sender side is debited and
// recorded; the recipient fields are carried as counterpart information.
type TransferRequest struct {
	AccountID          string          `json:"accountID" binding:"required"`
	Amount             decimal.Decimal `json:"amount" binding:"required,positive_amount"`
	RecipientName      string          `json:"recipientName" binding:"required"`
	RecipientAccountNo string          `json:"recipientAccountNo" binding:"required"`
	Description        string          `json:"description"`
	IdempotencyKey     string          `json:"idempotencyKey" binding:"omitempty,max=64"`
}

// BillPaymentRequest starts a bill payment.
type BillPaymentRequest struct {
	AccountID      string          `json:"accountID" binding:"required"`
	Amount         decimal.Decimal `json:"amount" binding:"required,positive_amount"`
	Category       string          `json:"category" binding:"required,oneof=ELECTRICITY WATER INTERNET PHONE RENT OTHER"`
	Description    string          `json:"description"`
	IdempotencyKey string          `json:"idempotencyKey" binding:"omitempty,max=64"`
}

// MovementResponse defines the data returned for a movement.
type MovementResponse struct {
	MovementID     string                `json:"movementID"`
	UserID         int64                 `json:"userID"`
	AccountID      string                `json:"accountID"`
	Kind           domain.MovementKind   `json:"kind"`
	Amount         decimal.Decimal       `json:"amount"`
	Counterpart    domain.Counterpart    `json:"counterpart"`
	Status         domain.MovementStatus `json:"status"`
	FailureReason  string                `json:"failureReason,omitempty"`
	IdempotencyKey string                `json:"idempotencyKey"`
	Description    string                `json:"description,omitempty"`
	CreatedAt      time.Time             `json:"createdAt"`
}

// ToMovementResponse converts a domain.Movement to MovementResponse.
func ToMovementResponse(m *domain.Movement) MovementResponse {
	return MovementResponse{
		MovementID:     m.MovementID,
		UserID:         m.UserID,
		AccountID:      m.AccountID,
		Kind:           m.Kind,
		Amount:         m.Amount,
		Counterpart:    m.Counterpart,
		Status:         m.Status,
		FailureReason:  m.FailureReason,
		IdempotencyKey: m.IdempotencyKey,
		Description:    m.Description,
		CreatedAt:      m.CreatedAt,
	}
}

// ListMovementsResponse wraps a movement history.
type ListMovementsResponse struct {
	Movements []MovementResponse `json:"movements"`
}

// ToListMovementsResponse converts a slice of domain.Movement.
func ToListMovementsResponse(movements []domain.Movement) ListMovementsResponse {
	res := make([]MovementResponse, len(movements))
	for i := range movements {
		res[i] = ToMovementResponse(&movements[i])
	}
	return ListMovementsResponse{Movements: res}
}

// ListMovementsParams defines query parameters for movement history.
type ListMovementsParams struct {
	Limit  int `form:"limit,default=20"`
	Offset int `form:"offset,default=0"`
}
