package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ManishBastola/bank-app/internal/apperrors"
	"github.com/ManishBastola/bank-app/internal/core/domain"
	portsrepo "github.com/ManishBastola/bank-app/internal/core/ports/repositories"
	portssvc "github.com/ManishBastola/bank-app/internal/core/ports/services"
	"github.com/ManishBastola/bank-app/internal/middleware"
	"github.com/ManishBastola/bank-app/internal/platform/metrics"
)

const (
	reasonInsufficientFunds = "INSUFFICIENT_FUNDS"
	reasonAccountNotFound   = "ACCOUNT_NOT_FOUND"
	reasonRecordWriteFailed = "RECORD_WRITE_FAILED"
)

// MovementConfig tunes the saga's retry behavior.
type MovementConfig struct {
	// CallTimeout bounds each individual ledger call.
	CallTimeout time.Duration
	// LedgerAttempts is how many times a ledger call with an indefinite
	// outcome is retried with the same idempotency key before surfacing.
	LedgerAttempts int
	// RecordAttempts is how many times the movement record write is retried
	// before the applied ledger operation is compensated.
	RecordAttempts int
}

func (c *MovementConfig) applyDefaults() {
	if c.CallTimeout <= 0 {
		c.CallTimeout = 3 * time.Second
	}
	if c.LedgerAttempts < 1 {
		c.LedgerAttempts = 3
	}
	if c.RecordAttempts < 1 {
		c.RecordAttempts = 3
	}
}

// MovementService orchestrates "debit then record" as a saga. The ledger is
// a remote collaborator reached only through the LedgerSvcFacade; the
// movement store is local. Under partial failure the service reconciles the
// two: an indefinite ledger outcome is retried idempotently, and a movement
// record that cannot be persisted after an applied debit triggers a
// compensating credit. A movement therefore never claims SUCCEEDED while the
// ledger disagrees, and a debited account always ends with either a terminal
// SUCCEEDED record or a completed compensation.
type MovementService struct {
	ledger    portssvc.LedgerSvcFacade
	movements portsrepo.MovementRepository
	publisher portssvc.MovementPublisher
	cfg       MovementConfig
}

var _ portssvc.MovementSvcFacade = (*MovementService)(nil)

// NewMovementService creates a new MovementService. publisher may be nil.
func NewMovementService(ledger portssvc.LedgerSvcFacade, movements portsrepo.MovementRepository, publisher portssvc.MovementPublisher, cfg MovementConfig) *MovementService {
	cfg.applyDefaults()
	return &MovementService{
		ledger:    ledger,
		movements: movements,
		publisher: publisher,
		cfg:       cfg,
	}
}

// Submit runs the saga for one movement request and drives it to a terminal
// state. The returned movement carries the final status even when the error
// is non-nil; callers branch on the error for the response class.
//
// Cancellation is not honored once the ledger has accepted the operation:
// the saga runs to SUCCEEDED or to a completed compensation rather than
// aborting mid-flight.
func (s *MovementService) Submit(ctx context.Context, m domain.Movement) (*domain.Movement, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := s.validate(&m); err != nil {
		return nil, err
	}
	if m.IdempotencyKey == "" {
		m.IdempotencyKey = deriveIdempotencyKey(m)
	}

	// Idempotent replay: a terminal movement with this key is returned
	// unchanged, with the same error class the original attempt produced.
	existing, err := s.movements.FindByIdempotencyKey(ctx, m.IdempotencyKey)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to check idempotency key: %w", err)
	}
	if existing != nil {
		if existing.Status.Terminal() {
			logger.Info("Movement replayed from terminal record",
				slog.String("movement_id", existing.MovementID),
				slog.String("status", string(existing.Status)))
			return existing, terminalError(existing)
		}
		// A pending record means an earlier attempt stalled before reaching
		// a terminal state. Resuming is safe: the ledger is idempotent per
		// key, so re-driving the saga cannot double-apply.
		m = *existing
	} else {
		now := time.Now().UTC()
		m.MovementID = uuid.NewString()
		m.Status = domain.MovementPending
		m.CreatedAt = now
		m.LastUpdatedAt = now
		if err := s.movements.Save(ctx, m); err != nil {
			if !errors.Is(err, apperrors.ErrDuplicate) {
				return nil, fmt.Errorf("failed to create movement record: %w", err)
			}
			// Lost a race with a concurrent identical request.
			raced, ferr := s.movements.FindByIdempotencyKey(ctx, m.IdempotencyKey)
			if ferr != nil {
				return nil, fmt.Errorf("failed to load racing movement: %w", ferr)
			}
			if raced.Status.Terminal() {
				return raced, terminalError(raced)
			}
			return raced, apperrors.ErrMovementInProgress
		}
	}

	// Ledger step. Deposits credit; every other kind debits the source.
	op := s.ledger.Debit
	if m.Kind == domain.Deposit {
		op = s.ledger.Credit
	}
	receipt, err := s.callLedger(ctx, op, m.AccountID, m.Amount, m.IdempotencyKey)
	if err != nil {
		// Outcome unknown after bounded retries. The movement stays PENDING;
		// a later retry with the same key resumes without double-applying.
		logger.Error("Ledger unreachable, movement left pending",
			slog.String("movement_id", m.MovementID), slog.String("error", err.Error()))
		return &m, err
	}

	switch receipt.Outcome {
	case domain.ReceiptInsufficientFunds:
		s.finalize(ctx, &m, domain.MovementFailed, reasonInsufficientFunds)
		return &m, apperrors.ErrInsufficientFunds
	case domain.ReceiptAccountNotFound:
		s.finalize(ctx, &m, domain.MovementFailed, reasonAccountNotFound)
		return &m, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, m.AccountID)
	}

	// APPLIED or ALREADY_APPLIED: persist the movement as SUCCEEDED.
	var recordErr error
	for attempt := 1; attempt <= s.cfg.RecordAttempts; attempt++ {
		recordErr = s.movements.UpdateStatus(ctx, m.MovementID, domain.MovementSucceeded, "", time.Now().UTC())
		if recordErr == nil {
			break
		}
		logger.Warn("Movement record write failed",
			slog.Int("attempt", attempt), slog.String("error", recordErr.Error()))
	}
	if recordErr == nil {
		m.Status = domain.MovementSucceeded
		m.FailureReason = ""
		s.terminal(ctx, m)
		return &m, nil
	}

	return s.compensate(ctx, m, recordErr)
}

// compensate reverses the applied ledger operation after the record write
// failed permanently, so the caller's money is unaffected by construction.
func (s *MovementService) compensate(ctx context.Context, m domain.Movement, cause error) (*domain.Movement, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	logger.Error("Record write failed after applied ledger operation, compensating",
		slog.String("movement_id", m.MovementID), slog.String("error", cause.Error()))

	inverse := s.ledger.Credit
	if m.Kind == domain.Deposit {
		inverse = s.ledger.Debit
	}
	compKey := m.IdempotencyKey + ":comp"
	receipt, err := s.callLedger(ctx, inverse, m.AccountID, m.Amount, compKey)
	if err != nil || !receipt.Applied() {
		// The ledger holds an applied operation with no surviving record and
		// no completed reversal. Loudly flag for reconciliation.
		logger.Error("Compensation incomplete, manual reconciliation required",
			slog.String("movement_id", m.MovementID),
			slog.String("account_id", m.AccountID),
			slog.String("idempotency_key", m.IdempotencyKey))
		return &m, fmt.Errorf("%w: compensation incomplete", apperrors.ErrLedgerUnavailable)
	}
	metrics.Compensations.Inc()

	// Best effort: the money is already back, the terminal mark is bookkeeping.
	if err := s.movements.UpdateStatus(ctx, m.MovementID, domain.MovementCompensated, reasonRecordWriteFailed, time.Now().UTC()); err != nil {
		logger.Error("Failed to mark movement compensated",
			slog.String("movement_id", m.MovementID), slog.String("error", err.Error()))
	}
	m.Status = domain.MovementCompensated
	m.FailureReason = reasonRecordWriteFailed
	s.terminal(ctx, m)
	return &m, apperrors.ErrCompensated
}

// callLedger invokes one ledger operation with a per-call timeout and
// bounded retries. Retries reuse the same idempotency key, so they cannot
// double-apply; only an operation with no definitive receipt is retried.
func (s *MovementService) callLedger(
	ctx context.Context,
	op func(context.Context, string, decimal.Decimal, string) (domain.Receipt, error),
	accountID string,
	amount decimal.Decimal,
	idempotencyKey string,
) (domain.Receipt, error) {
	var lastErr error
	for attempt := 1; attempt <= s.cfg.LedgerAttempts; attempt++ {
		if attempt > 1 {
			metrics.LedgerCallRetries.Inc()
		}
		callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
		receipt, err := op(callCtx, accountID, amount, idempotencyKey)
		cancel()
		if err == nil {
			return receipt, nil
		}
		if errors.Is(err, apperrors.ErrValidation) {
			return domain.Receipt{}, err
		}
		lastErr = err
	}
	return domain.Receipt{}, fmt.Errorf("%w: %v", apperrors.ErrLedgerUnavailable, lastErr)
}

// finalize records a business decline. No money moved, so a failed write
// here costs only the record; it is retried and then logged, never hidden
// behind a system error.
func (s *MovementService) finalize(ctx context.Context, m *domain.Movement, status domain.MovementStatus, reason string) {
	var err error
	for attempt := 1; attempt <= s.cfg.RecordAttempts; attempt++ {
		err = s.movements.UpdateStatus(ctx, m.MovementID, status, reason, time.Now().UTC())
		if err == nil {
			break
		}
	}
	if err != nil {
		middleware.GetLoggerFromCtx(ctx).Error("Failed to persist declined movement",
			slog.String("movement_id", m.MovementID), slog.String("error", err.Error()))
	}
	m.Status = status
	m.FailureReason = reason
	s.terminal(ctx, *m)
}

func (s *MovementService) terminal(ctx context.Context, m domain.Movement) {
	metrics.Movements.WithLabelValues(string(m.Kind), string(m.Status)).Inc()
	if s.publisher != nil {
		s.publisher.MovementCompleted(ctx, m)
	}
}

// ListByAccount returns the movement history for one account.
func (s *MovementService) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]domain.Movement, error) {
	return s.movements.FindByAccount(ctx, accountID, limit, offset)
}

// ListByUser returns the movement history for one user across accounts.
func (s *MovementService) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]domain.Movement, error) {
	return s.movements.FindByUser(ctx, userID, limit, offset)
}

func (s *MovementService) validate(m *domain.Movement) error {
	if m.AccountID == "" {
		return fmt.Errorf("%w: account ID required", apperrors.ErrValidation)
	}
	if m.Amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: amount must be positive", apperrors.ErrValidation)
	}
	switch m.Kind {
	case domain.Deposit, domain.Withdrawal:
	case domain.Transfer:
		if m.Counterpart.RecipientAccountNo == "" {
			return fmt.Errorf("%w: recipient account number required for transfers", apperrors.ErrValidation)
		}
	case domain.BillPayment:
		if m.Counterpart.BillCategory == "" {
			return fmt.Errorf("%w: bill category required for bill payments", apperrors.ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown movement kind %q", apperrors.ErrValidation, m.Kind)
	}
	return nil
}

// deriveIdempotencyKey builds a deterministic key from the request content
// so that an identical retried request without a caller-supplied key maps to
// the same movement.
func deriveIdempotencyKey(m domain.Movement) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%d|%s|%s|%s|%s|%s",
		m.Kind, m.UserID, m.AccountID, m.Amount.String(),
		m.Counterpart.RecipientAccountNo, m.Counterpart.BillCategory, m.Description)
	return hex.EncodeToString(h.Sum(nil))
}

// terminalError maps a replayed terminal movement back to the error class
// its original submission produced, so replays get identical responses.
func terminalError(m *domain.Movement) error {
	switch m.Status {
	case domain.MovementFailed:
		if m.FailureReason == reasonAccountNotFound {
			return fmt.Errorf("%w: account %s", apperrors.ErrNotFound, m.AccountID)
		}
		return apperrors.ErrInsufficientFunds
	case domain.MovementCompensated:
		return apperrors.ErrCompensated
	}
	return nil
}
