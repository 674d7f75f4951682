package services

import (
	"context"

	"github.com/ManishBastola/bank-app/internal/core/domain"
)

// UserSvcFacade registers and authenticates users.
type UserSvcFacade interface {
	Register(ctx context.Context, username, password, fullName, role string) (*domain.User, error)
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
	GetUserByID(ctx context.Context, userID int64) (*domain.User, error)
}
