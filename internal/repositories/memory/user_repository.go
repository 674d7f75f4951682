package memory

import (
	"context"
	"sync"

	"github.com/ManishBastola/bank-app/internal/apperrors"
	"github.com/ManishBastola/bank-app/internal/core/domain"
	portsrepo "github.com/ManishBastola/bank-app/internal/core/ports/repositories"
)

// UserRepository is an in-memory UserRepository.
type UserRepository struct {
	mu         sync.RWMutex
	nextID     int64
	byID       map[int64]*domain.User
	byUsername map[string]*domain.User
}

var _ portsrepo.UserRepository = (*UserRepository)(nil)

// NewUserRepository creates an empty in-memory user store.
func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:       make(map[int64]*domain.User),
		byUsername: make(map[string]*domain.User),
	}
}

// SaveUser inserts a new user and assigns its numeric ID.
func (r *UserRepository) SaveUser(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byUsername[user.Username]; exists {
		return apperrors.ErrDuplicate
	}
	r.nextID++
	user.UserID = r.nextID
	cp := *user
	r.byID[user.UserID] = &cp
	r.byUsername[user.Username] = &cp
	return nil
}

// FindUserByID returns the user or ErrNotFound.
func (r *UserRepository) FindUserByID(_ context.Context, userID int64) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[userID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// FindUserByUsername returns the user or ErrNotFound.
func (r *UserRepository) FindUserByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byUsername[username]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// NewRepositoryContainer bundles fresh in-memory repositories.
func NewRepositoryContainer() *portsrepo.RepositoryContainer {
	return &portsrepo.RepositoryContainer{
		Ledger:   NewLedgerRepository(),
		Movement: NewMovementRepository(),
		User:     NewUserRepository(),
	}
}
