// Package errors defines the ledger's error taxonomy.
//
// Every failure the ledger can produce maps to exactly one Kind, and every
// Kind maps to exactly one HTTP status at the adapter boundary (see
// adapters/http/common/response.go). Using a closed Kind enum instead of
// scattered sentinel errors keeps that mapping total and reviewable in one
// place.
//
// Pattern: Typed Error + Kind Enum, generalized from a sentinel-errors
// pattern.
package errors

import (
	"errors"
	"fmt"
)

// Kind classifies a LedgerError for routing (HTTP status, retry behavior,
// logging level). Kind is closed: every case the ledger can produce has an
// entry here, and adapters switch on it exhaustively.
type Kind string

const (
	// KindValidation covers malformed input: bad amount format, missing
	// required field, unknown currency.
	KindValidation Kind = "VALIDATION_ERROR"

	// KindCurrencyMismatch: the operands of an operation carry different
	// currencies (e.g. a transfer between wallets denominated differently).
	KindCurrencyMismatch Kind = "CURRENCY_MISMATCH"

	// KindRecipientNotFound: a transfer or intent named a wallet, handle,
	// or external reference that does not resolve to an account.
	KindRecipientNotFound Kind = "RECIPIENT_NOT_FOUND"

	// KindInsufficientFunds: the source wallet's available balance cannot
	// cover the requested amount.
	KindInsufficientFunds Kind = "INSUFFICIENT_FUNDS"

	// KindHoldNotActive: an operation required a hold in ACTIVE or
	// PARTIALLY_CAPTURED state but found it elsewhere.
	KindHoldNotActive Kind = "HOLD_NOT_ACTIVE"

	// KindHoldExpired: the hold's expiry has passed.
	KindHoldExpired Kind = "HOLD_EXPIRED"

	// KindIntentExpired: the payment intent's expiry has passed.
	KindIntentExpired Kind = "INTENT_EXPIRED"

	// KindIntentAlreadyPaid: a pay attempt on an intent already in a
	// terminal paid state.
	KindIntentAlreadyPaid Kind = "INTENT_ALREADY_PAID"

	// KindRefundExceedsCapture: the requested refund amount exceeds what
	// remains refundable on the captured hold or paid intent.
	KindRefundExceedsCapture Kind = "REFUND_EXCEEDS_CAPTURE"

	// KindForbiddenScope: the caller's API key does not carry the scope
	// the requested operation needs.
	KindForbiddenScope Kind = "FORBIDDEN_SCOPE"

	// KindLimitExceeded: the caller's rolling spend ceiling would be
	// exceeded by this operation.
	KindLimitExceeded Kind = "LIMIT_EXCEEDED"

	// KindIdempotencyConflict: the idempotency key was already used for a
	// request with a different fingerprint (same key, different payload).
	KindIdempotencyConflict Kind = "IDEMPOTENCY_CONFLICT"

	// KindIdempotencyInProgress: another request with the same idempotency
	// key is still IN_FLIGHT.
	KindIdempotencyInProgress Kind = "IDEMPOTENCY_IN_PROGRESS"

	// KindTransientConflict: a serialization failure or deadlock that
	// exhausted its retry budget. Safe to retry from the caller's side
	// with the same idempotency key.
	KindTransientConflict Kind = "TRANSIENT_CONFLICT"

	// KindTimeout: the operation did not complete within its deadline.
	KindTimeout Kind = "TIMEOUT"

	// KindArithmeticError: an amount overflowed int64 minor units or
	// otherwise failed checked arithmetic.
	KindArithmeticError Kind = "ARITHMETIC_ERROR"

	// KindStoreError: an unclassified failure from the LedgerStore, not
	// attributable to caller input.
	KindStoreError Kind = "STORE_ERROR"
)

// LedgerError is the single error type the ledger and its adapters deal in.
// It carries a Kind for routing, a human message, optional field-level
// detail, and the wrapped cause for logging and errors.Is/As chains.
type LedgerError struct {
	Kind    Kind
	Message string
	Field   string // optional: which request field caused a VALIDATION_ERROR
	Err     error
}

// Error implements the error interface.
func (e *LedgerError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap implements error unwrapping for errors.Is and errors.As.
func (e *LedgerError) Unwrap() error { return e.Err }

// New builds a LedgerError of the given kind.
func New(kind Kind, message string) *LedgerError {
	return &LedgerError{Kind: kind, Message: message}
}

// Wrap builds a LedgerError of the given kind around an underlying cause.
func Wrap(kind Kind, message string, err error) *LedgerError {
	return &LedgerError{Kind: kind, Message: message, Err: err}
}

// WithField attaches field-level detail to a VALIDATION_ERROR and returns
// the same error for chaining at the call site.
func (e *LedgerError) WithField(field string) *LedgerError {
	e.Field = field
	return e
}

// KindOf extracts the Kind of an error if it is (or wraps) a LedgerError,
// defaulting to KindStoreError for anything unrecognized — an
// unclassified failure is treated as a store-side problem, never blamed on
// the caller.
func KindOf(err error) Kind {
	var le *LedgerError
	if errors.As(err, &le) {
		return le.Kind
	}
	return KindStoreError
}

// Is reports whether err is a LedgerError of the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// IsRetryable reports whether the caller may safely retry the same request
// (with the same idempotency key) after this error.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindTransientConflict, KindTimeout, KindIdempotencyInProgress:
		return true
	default:
		return false
	}
}
