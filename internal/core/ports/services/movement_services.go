package services

import (
	"context"

	"github.com/ManishBastola/bank-app/internal/core/domain"
)

// MovementSvcFacade coordinates the debit-then-record saga for every
// movement kind. Submit drives the movement to a terminal state (or to a
// completed compensation) before returning; the returned movement reflects
// the final status even when err is non-nil.
type MovementSvcFacade interface {
	Submit(ctx context.Context, movement domain.Movement) (*domain.Movement, error)
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]domain.Movement, error)
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]domain.Movement, error)
}

// MovementPublisher is notified whenever a movement reaches a terminal
// state. Implementations must not fail the saga; delivery is best effort.
type MovementPublisher interface {
	MovementCompleted(ctx context.Context, movement domain.Movement)
}
