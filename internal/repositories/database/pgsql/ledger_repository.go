package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ManishBastola/bank-app/internal/apperrors"
	"github.com/ManishBastola/bank-app/internal/core/domain"
	portsrepo "github.com/ManishBastola/bank-app/internal/core/ports/repositories"
)

// PgxLedgerRepository stores accounts and applies balance operations in
// PostgreSQL. Debits and credits run inside a transaction that locks the
// account row with SELECT ... FOR UPDATE, so every operation on one account
// is serialized against every other; the receipt row is written in the same
// transaction, making the funds check, the balance mutation and the
// idempotency mark atomic.
type PgxLedgerRepository struct {
	pool *pgxpool.Pool
}

var _ portsrepo.LedgerRepository = (*PgxLedgerRepository)(nil)

// NewLedgerRepository creates a new repository for account and balance data.
func NewLedgerRepository(pool *pgxpool.Pool) *PgxLedgerRepository {
	return &PgxLedgerRepository{pool: pool}
}

// SaveAccount inserts a new account.
func (r *PgxLedgerRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	query := `
		INSERT INTO accounts (account_id, user_id, account_number, balance, created_at, last_updated_at)
		VALUES ($1, $2, $3, $4, $5, $6);
	`
	_, err := r.pool.Exec(ctx, query,
		account.AccountID,
		account.UserID,
		account.AccountNumber,
		account.Balance,
		account.CreatedAt,
		account.LastUpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: account %s", apperrors.ErrDuplicate, account.AccountID)
		}
		return fmt.Errorf("failed to save account %s: %w", account.AccountID, err)
	}
	return nil
}

// FindAccountByID retrieves an account by its ID.
func (r *PgxLedgerRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	query := `
		SELECT account_id, user_id, account_number, balance, created_at, last_updated_at
		FROM accounts
		WHERE account_id = $1;
	`
	var account domain.Account
	err := r.pool.QueryRow(ctx, query, accountID).Scan(
		&account.AccountID,
		&account.UserID,
		&account.AccountNumber,
		&account.Balance,
		&account.CreatedAt,
		&account.LastUpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find account by ID %s: %w", accountID, err)
	}
	return &account, nil
}

// FindAccountsByUser retrieves all accounts owned by a user.
func (r *PgxLedgerRepository) FindAccountsByUser(ctx context.Context, userID int64) ([]domain.Account, error) {
	query := `
		SELECT account_id, user_id, account_number, balance, created_at, last_updated_at
		FROM accounts
		WHERE user_id = $1
		ORDER BY created_at;
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts for user %d: %w", userID, err)
	}
	defer rows.Close()

	accounts := []domain.Account{}
	for rows.Next() {
		var account domain.Account
		err := rows.Scan(
			&account.AccountID,
			&account.UserID,
			&account.AccountNumber,
			&account.Balance,
			&account.CreatedAt,
			&account.LastUpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account row for user %d: %w", userID, err)
		}
		accounts = append(accounts, account)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating account rows for user %d: %w", userID, rows.Err())
	}
	return accounts, nil
}

// ApplyDebit atomically checks funds and decrements the balance.
func (r *PgxLedgerRepository) ApplyDebit(ctx context.Context, accountID string, amount decimal.Decimal, idempotencyKey string) (domain.Receipt, error) {
	return r.apply(ctx, accountID, amount.Neg(), idempotencyKey, "DEBIT")
}

// ApplyCredit atomically increments the balance.
func (r *PgxLedgerRepository) ApplyCredit(ctx context.Context, accountID string, amount decimal.Decimal, idempotencyKey string) (domain.Receipt, error) {
	return r.apply(ctx, accountID, amount, idempotencyKey, "CREDIT")
}

// apply runs one balance operation. delta is negative for debits. Receipts
// are only written when an operation is applied; a declined debit does not
// consume its idempotency key.
func (r *PgxLedgerRepository) apply(ctx context.Context, accountID string, delta decimal.Decimal, idempotencyKey string, operation string) (domain.Receipt, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("failed to begin ledger transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Replay check first: a consumed key returns the prior balance unchanged.
	var priorBalance decimal.Decimal
	err = tx.QueryRow(ctx,
		`SELECT balance_after FROM ledger_receipts WHERE account_id = $1 AND idempotency_key = $2`,
		accountID, idempotencyKey,
	).Scan(&priorBalance)
	if err == nil {
		return domain.Receipt{Outcome: domain.ReceiptAlreadyApplied, Balance: priorBalance}, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.Receipt{}, fmt.Errorf("failed to check ledger receipt: %w", err)
	}

	// Lock the account row; this serializes concurrent operations per account.
	var balance decimal.Decimal
	err = tx.QueryRow(ctx,
		`SELECT balance FROM accounts WHERE account_id = $1 FOR UPDATE`,
		accountID,
	).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Receipt{Outcome: domain.ReceiptAccountNotFound}, nil
		}
		return domain.Receipt{}, fmt.Errorf("failed to lock account %s: %w", accountID, err)
	}

	newBalance := balance.Add(delta)
	if newBalance.IsNegative() {
		return domain.Receipt{Outcome: domain.ReceiptInsufficientFunds, Balance: balance}, nil
	}

	_, err = tx.Exec(ctx,
		`UPDATE accounts SET balance = $1, last_updated_at = now() WHERE account_id = $2`,
		newBalance, accountID,
	)
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("failed to update balance for account %s: %w", accountID, err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO ledger_receipts (account_id, idempotency_key, operation, amount, balance_after, created_at)
		 VALUES ($1, $2, $3, $4, $5, now())`,
		accountID, idempotencyKey, operation, delta.Abs(), newBalance,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// A concurrent attempt with the same key applied first; our
			// transaction rolls back and the outcome is theirs.
			return domain.Receipt{}, fmt.Errorf("%w: receipt race for key %s", apperrors.ErrDuplicate, idempotencyKey)
		}
		return domain.Receipt{}, fmt.Errorf("failed to write ledger receipt: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Receipt{}, fmt.Errorf("failed to commit ledger transaction: %w", err)
	}
	return domain.Receipt{Outcome: domain.ReceiptApplied, Balance: newBalance}, nil
}
