package repositories

import (
	"context"
	"time"

	"github.com/ManishBastola/bank-app/internal/core/domain"
)

// MovementRepository is the per-service durable record of attempted
// movements. Append-mostly: Save inserts, UpdateStatus transitions the
// status, and the identifying fields never change after creation.
// FindByIdempotencyKey returns apperrors.ErrNotFound when no movement with
// the key exists; Save returns apperrors.ErrDuplicate on a key collision.
type MovementRepository interface {
	Save(ctx context.Context, movement domain.Movement) error
	UpdateStatus(ctx context.Context, movementID string, status domain.MovementStatus, reason string, now time.Time) error
	FindByIdempotencyKey(ctx context.Context, key string) (*domain.Movement, error)
	FindByAccount(ctx context.Context, accountID string, limit, offset int) ([]domain.Movement, error)
	FindByUser(ctx context.Context, userID int64, limit, offset int) ([]domain.Movement, error)
}
