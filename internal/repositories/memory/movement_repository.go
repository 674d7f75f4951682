package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ManishBastola/bank-app/internal/apperrors"
	"github.com/ManishBastola/bank-app/internal/core/domain"
	portsrepo "github.com/ManishBastola/bank-app/internal/core/ports/repositories"
)

// MovementRepository is an in-memory MovementRepository.
type MovementRepository struct {
	mu    sync.RWMutex
	byID  map[string]*domain.Movement
	byKey map[string]*domain.Movement
}

var _ portsrepo.MovementRepository = (*MovementRepository)(nil)

// NewMovementRepository creates an empty in-memory movement store.
func NewMovementRepository() *MovementRepository {
	return &MovementRepository{
		byID:  make(map[string]*domain.Movement),
		byKey: make(map[string]*domain.Movement),
	}
}

// Save inserts a new movement; the idempotency key must be unused.
func (r *MovementRepository) Save(_ context.Context, movement domain.Movement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byKey[movement.IdempotencyKey]; exists {
		return apperrors.ErrDuplicate
	}
	cp := movement
	r.byID[movement.MovementID] = &cp
	r.byKey[movement.IdempotencyKey] = &cp
	return nil
}

// UpdateStatus transitions a movement's status; identifying fields stay put.
func (r *MovementRepository) UpdateStatus(_ context.Context, movementID string, status domain.MovementStatus, reason string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.byID[movementID]
	if !ok {
		return apperrors.ErrNotFound
	}
	m.Status = status
	m.FailureReason = reason
	m.LastUpdatedAt = now
	return nil
}

// FindByIdempotencyKey returns the movement holding the key, or ErrNotFound.
func (r *MovementRepository) FindByIdempotencyKey(_ context.Context, key string) (*domain.Movement, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.byKey[key]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

// FindByAccount lists movements for one account, newest first.
func (r *MovementRepository) FindByAccount(_ context.Context, accountID string, limit, offset int) ([]domain.Movement, error) {
	return r.list(func(m *domain.Movement) bool { return m.AccountID == accountID }, limit, offset), nil
}

// FindByUser lists movements for one user, newest first.
func (r *MovementRepository) FindByUser(_ context.Context, userID int64, limit, offset int) ([]domain.Movement, error) {
	return r.list(func(m *domain.Movement) bool { return m.UserID == userID }, limit, offset), nil
}

func (r *MovementRepository) list(match func(*domain.Movement) bool, limit, offset int) []domain.Movement {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	matched := []domain.Movement{}
	for _, m := range r.byID {
		if match(m) {
			matched = append(matched, *m)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	if offset >= len(matched) {
		return []domain.Movement{}
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end]
}
