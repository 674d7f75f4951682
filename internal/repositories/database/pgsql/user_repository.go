package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ManishBastola/bank-app/internal/apperrors"
	"github.com/ManishBastola/bank-app/internal/core/domain"
	portsrepo "github.com/ManishBastola/bank-app/internal/core/ports/repositories"
)

// PgxUserRepository stores users in PostgreSQL.
type PgxUserRepository struct {
	pool *pgxpool.Pool
}

var _ portsrepo.UserRepository = (*PgxUserRepository)(nil)

// NewUserRepository creates a new repository for user data.
func NewUserRepository(pool *pgxpool.Pool) *PgxUserRepository {
	return &PgxUserRepository{pool: pool}
}

// SaveUser inserts a new user and fills in the generated numeric ID.
func (r *PgxUserRepository) SaveUser(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (username, full_name, role, password_hash, created_at, last_updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING user_id;
	`
	err := r.pool.QueryRow(ctx, query,
		user.Username,
		user.FullName,
		user.Role,
		user.PasswordHash,
		user.CreatedAt,
		user.LastUpdatedAt,
	).Scan(&user.UserID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: username %s", apperrors.ErrDuplicate, user.Username)
		}
		return fmt.Errorf("failed to save user %s: %w", user.Username, err)
	}
	return nil
}

// FindUserByID retrieves a user by numeric ID.
func (r *PgxUserRepository) FindUserByID(ctx context.Context, userID int64) (*domain.User, error) {
	return r.findUser(ctx, `WHERE user_id = $1`, userID)
}

// FindUserByUsername retrieves a user by username.
func (r *PgxUserRepository) FindUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findUser(ctx, `WHERE username = $1`, username)
}

func (r *PgxUserRepository) findUser(ctx context.Context, where string, arg any) (*domain.User, error) {
	query := `
		SELECT user_id, username, full_name, role, password_hash, created_at, last_updated_at
		FROM users ` + where + `;`
	var user domain.User
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&user.UserID,
		&user.Username,
		&user.FullName,
		&user.Role,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.LastUpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}
