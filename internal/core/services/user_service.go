package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ManishBastola/bank-app/internal/apperrors"
	"github.com/ManishBastola/bank-app/internal/core/domain"
	portsrepo "github.com/ManishBastola/bank-app/internal/core/ports/repositories"
	portssvc "github.com/ManishBastola/bank-app/internal/core/ports/services"
	"github.com/ManishBastola/bank-app/internal/middleware"
	"github.com/ManishBastola/bank-app/internal/utils"
)

// UserService registers and authenticates users.
type UserService struct {
	userRepo portsrepo.UserRepository
}

var _ portssvc.UserSvcFacade = (*UserService)(nil)

// NewUserService creates a new UserService.
func NewUserService(userRepo portsrepo.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// Register creates a user with a bcrypt-hashed password. An empty role
// defaults to CUSTOMER; staff roles are assigned out of band.
func (s *UserService) Register(ctx context.Context, username, password, fullName, role string) (*domain.User, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if role == "" {
		role = domain.RoleCustomer
	}
	switch role {
	case domain.RoleCustomer, domain.RoleEmployee, domain.RoleAdmin:
	default:
		return nil, fmt.Errorf("%w: unknown role %q", apperrors.ErrValidation, role)
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := domain.User{
		Username:      username,
		FullName:      fullName,
		Role:          role,
		PasswordHash:  hash,
		CreatedAt:     now,
		LastUpdatedAt: now,
	}

	if err := s.userRepo.SaveUser(ctx, &user); err != nil {
		return nil, err
	}

	logger.Info("User registered", slog.Int64("user_id", user.UserID), slog.String("role", role))
	return &user, nil
}

// Authenticate verifies the username/password pair. It returns
// apperrors.ErrNotFound for both an unknown user and a wrong password so the
// two are indistinguishable to a caller probing for usernames.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.userRepo.FindUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if !utils.VerifyPassword(password, user.PasswordHash) {
		return nil, apperrors.ErrNotFound
	}
	return user, nil
}

// GetUserByID retrieves one user or apperrors.ErrNotFound.
func (s *UserService) GetUserByID(ctx context.Context, userID int64) (*domain.User, error) {
	return s.userRepo.FindUserByID(ctx, userID)
}
