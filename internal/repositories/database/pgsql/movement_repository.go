package pgsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ManishBastola/bank-app/internal/apperrors"
	"github.com/ManishBastola/bank-app/internal/core/domain"
	portsrepo "github.com/ManishBastola/bank-app/internal/core/ports/repositories"
)

// PgxMovementRepository stores movement records in PostgreSQL.
type PgxMovementRepository struct {
	pool *pgxpool.Pool
}

var _ portsrepo.MovementRepository = (*PgxMovementRepository)(nil)

// NewMovementRepository creates a new repository for movement data.
func NewMovementRepository(pool *pgxpool.Pool) *PgxMovementRepository {
	return &PgxMovementRepository{pool: pool}
}

const movementColumns = `movement_id, user_id, account_id, kind, amount, recipient_name, recipient_account_no, bill_category, status, failure_reason, idempotency_key, description, created_at, last_updated_at`

// Save inserts a new movement. The unique index on idempotency_key turns a
// concurrent duplicate submission into apperrors.ErrDuplicate.
func (r *PgxMovementRepository) Save(ctx context.Context, m domain.Movement) error {
	query := `
		INSERT INTO movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);
	`
	_, err := r.pool.Exec(ctx, query,
		m.MovementID,
		m.UserID,
		m.AccountID,
		m.Kind,
		m.Amount,
		nullable(m.Counterpart.RecipientName),
		nullable(m.Counterpart.RecipientAccountNo),
		nullable(string(m.Counterpart.BillCategory)),
		m.Status,
		nullable(m.FailureReason),
		m.IdempotencyKey,
		nullable(m.Description),
		m.CreatedAt,
		m.LastUpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: idempotency key %s", apperrors.ErrDuplicate, m.IdempotencyKey)
		}
		return fmt.Errorf("failed to save movement %s: %w", m.MovementID, err)
	}
	return nil
}

// UpdateStatus transitions a movement's status and failure reason only.
func (r *PgxMovementRepository) UpdateStatus(ctx context.Context, movementID string, status domain.MovementStatus, reason string, now time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE movements SET status = $1, failure_reason = $2, last_updated_at = $3 WHERE movement_id = $4`,
		status, nullable(reason), now, movementID,
	)
	if err != nil {
		return fmt.Errorf("failed to update movement %s status: %w", movementID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// FindByIdempotencyKey retrieves the movement holding the given key.
func (r *PgxMovementRepository) FindByIdempotencyKey(ctx context.Context, key string) (*domain.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM movements WHERE idempotency_key = $1;`
	m, err := scanMovement(r.pool.QueryRow(ctx, query, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find movement by idempotency key: %w", err)
	}
	return m, nil
}

// FindByAccount lists movements for one account, newest first.
func (r *PgxMovementRepository) FindByAccount(ctx context.Context, accountID string, limit, offset int) ([]domain.Movement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM movements
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3;
	`
	return r.list(ctx, query, accountID, limit, offset)
}

// FindByUser lists movements for one user, newest first.
func (r *PgxMovementRepository) FindByUser(ctx context.Context, userID int64, limit, offset int) ([]domain.Movement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM movements
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3;
	`
	return r.list(ctx, query, userID, limit, offset)
}

func (r *PgxMovementRepository) list(ctx context.Context, query string, filter any, limit, offset int) ([]domain.Movement, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.pool.Query(ctx, query, filter, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query movements: %w", err)
	}
	defer rows.Close()

	movements := []domain.Movement{}
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan movement row: %w", err)
		}
		movements = append(movements, *m)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating movement rows: %w", rows.Err())
	}
	return movements, nil
}

func scanMovement(row pgx.Row) (*domain.Movement, error) {
	var m domain.Movement
	var recipientName, recipientAccountNo, billCategory, failureReason, description sql.NullString
	err := row.Scan(
		&m.MovementID,
		&m.UserID,
		&m.AccountID,
		&m.Kind,
		&m.Amount,
		&recipientName,
		&recipientAccountNo,
		&billCategory,
		&m.Status,
		&failureReason,
		&m.IdempotencyKey,
		&description,
		&m.CreatedAt,
		&m.LastUpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.Counterpart.RecipientName = recipientName.String
	m.Counterpart.RecipientAccountNo = recipientAccountNo.String
	m.Counterpart.BillCategory = domain.BillCategory(billCategory.String)
	m.FailureReason = failureReason.String
	m.Description = description.String
	return &m, nil
}

// nullable maps "" to SQL NULL for optional text columns.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
