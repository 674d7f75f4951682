package apperrors

import "errors"

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrInsufficientFunds indicates a debit was declined because the account
// balance was lower than the requested amount. A business decline, not a fault.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrForbidden indicates the caller's identity does not permit the operation.
var ErrForbidden = errors.New("forbidden")

// ErrMovementInProgress indicates a movement with the same idempotency key is
// still being processed by another request.
var ErrMovementInProgress = errors.New("movement already in progress")

// ErrLedgerUnavailable indicates the ledger could not be reached with a
// definitive outcome. The operation may be retried with the same idempotency key.
var ErrLedgerUnavailable = errors.New("ledger unavailable")

// ErrCompensated indicates the movement record could not be persisted and the
// applied ledger operation was reversed. The caller's balance is unaffected.
var ErrCompensated = errors.New("movement compensated after record failure")
