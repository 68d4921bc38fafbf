package ledger

import (
	"context"
	"time"

	"github.com/wallethub/ledger/internal/application/ports"
	"github.com/wallethub/ledger/internal/domain/entities"
	"github.com/wallethub/ledger/internal/domain/errors"
	"github.com/wallethub/ledger/internal/domain/ids"
	"github.com/wallethub/ledger/internal/domain/valueobjects"
)

// SpendLimiter is an early-reject cache for the rolling spend ceiling. It
// MUST only ever early-reject, never early-accept: a limiter outage or a
// stale view can at worst cause one extra authoritative check, never let
// a call through that the authoritative check would have refused. The
// engine always runs the authoritative DB-derived check under the payer
// account's lock regardless of what the limiter says.
type SpendLimiter interface {
	// LikelyExceeds reports whether, based on the limiter's own rolling
	// window, the caller's ceiling is already exceeded such that this
	// request can be rejected before even opening a store transaction.
	// Implementations return (false, nil) whenever they are unsure — a
	// cache miss or a backend outage is not evidence of anything.
	LikelyExceeds(ctx context.Context, apiKeyID ids.APIKeyID, amount valueobjects.Money, window time.Duration) (bool, error)

	// RecordSpend records a committed debit so future LikelyExceeds calls
	// see it. No Executor operation calls RecordSpend, so the limiter's
	// window holds no spend from the engine and LikelyExceeds rejects only
	// an amount that alone exceeds the ceiling.
	RecordSpend(ctx context.Context, apiKeyID ids.APIKeyID, amount valueobjects.Money, at time.Time)
}

// Authorizer enforces scope membership and the per-key rolling spend
// ceiling. Scope is checked before any lock is taken; the spend ceiling's
// authoritative check runs under the payer account's lock so it cannot be
// bypassed by concurrent requests racing the same key.
type Authorizer struct {
	store   ports.LedgerStore
	limiter SpendLimiter // nil disables the fast path; authoritative check still runs
}

// NewAuthorizer builds an Authorizer. limiter may be nil.
func NewAuthorizer(store ports.LedgerStore, limiter SpendLimiter) *Authorizer {
	return &Authorizer{store: store, limiter: limiter}
}

// RequireScope fails FORBIDDEN_SCOPE unless key carries scope.
func RequireScope(key *entities.APIKey, scope ids.Scope) error {
	if !key.HasScope(scope) {
		return errors.New(errors.KindForbiddenScope, "caller's API key does not carry the required scope").WithField(string(scope))
	}
	return nil
}

// FastReject consults the spend limiter, if any, to reject obviously
// over-ceiling requests before a store transaction is even opened. It
// never substitutes for the authoritative check in CheckSpendCeiling.
func (a *Authorizer) FastReject(ctx context.Context, key *entities.APIKey, amount valueobjects.Money) error {
	if a.limiter == nil || !key.HasCeiling() {
		return nil
	}
	_, window := key.Ceiling()
	exceeds, err := a.limiter.LikelyExceeds(ctx, key.ID(), amount, window)
	if err != nil || !exceeds {
		return nil
	}
	return errors.New(errors.KindLimitExceeded, "spend ceiling exceeded")
}

// CheckSpendCeiling is the authoritative check, run under the payer
// account's lock: it sums committed AVAILABLE-bucket debits for the
// account within the key's rolling window and fails LIMIT_EXCEEDED if
// adding amount would exceed the ceiling.
func (a *Authorizer) CheckSpendCeiling(ctx context.Context, tx ports.Tx, key *entities.APIKey, payerAccountID ids.AccountID, amount valueobjects.Money, now time.Time) error {
	if !key.HasCeiling() {
		return nil
	}
	ceiling, window := key.Ceiling()

	spentUnits, err := a.store.SumDebitsSince(ctx, tx, payerAccountID, now.Add(-window))
	if err != nil {
		return errors.Wrap(errors.KindStoreError, "failed to sum prior debits for spend ceiling", err)
	}
	spent, err := valueobjects.NewMoney(spentUnits, amount.Currency())
	if err != nil {
		return errors.Wrap(errors.KindArithmeticError, "negative prior-debit sum", err)
	}
	projected, err := spent.Add(amount)
	if err != nil {
		return errors.Wrap(errors.KindArithmeticError, "failed to project spend against ceiling", err)
	}
	withinCeiling, err := ceiling.GreaterThanOrEqual(projected)
	if err != nil {
		return errors.Wrap(errors.KindCurrencyMismatch, "spend ceiling currency mismatch", err)
	}
	if !withinCeiling {
		return errors.New(errors.KindLimitExceeded, "operation would exceed the rolling spend ceiling")
	}
	return nil
}
