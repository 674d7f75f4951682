package repositories

import (
	"context"

	"github.com/ManishBastola/bank-app/internal/core/domain"
)

// UserRepository stores registered users. SaveUser assigns the numeric
// UserID and returns apperrors.ErrDuplicate when the username is taken.
type UserRepository interface {
	SaveUser(ctx context.Context, user *domain.User) error
	FindUserByID(ctx context.Context, userID int64) (*domain.User, error)
	FindUserByUsername(ctx context.Context, username string) (*domain.User, error)
}
