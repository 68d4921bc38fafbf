package entities

import (
	"time"

	"github.com/wallethub/ledger/internal/domain/errors"
	"github.com/wallethub/ledger/internal/domain/ids"
	"github.com/wallethub/ledger/internal/domain/valueobjects"
)

// HoldStatus is a hold's position in its lifecycle.
type HoldStatus string

const (
	HoldStatusActive            HoldStatus = "ACTIVE"
	HoldStatusCaptured          HoldStatus = "CAPTURED"
	HoldStatusPartiallyCaptured HoldStatus = "PARTIALLY_CAPTURED"
	HoldStatusReleased          HoldStatus = "RELEASED"
	HoldStatusExpired           HoldStatus = "EXPIRED"
)

// IsTerminal reports whether no further lines may reference this hold.
func (s HoldStatus) IsTerminal() bool {
	return s == HoldStatusCaptured || s == HoldStatusReleased || s == HoldStatusExpired
}

// Hold is a reservation against a payer account's available balance,
// later captured (in full or in part, possibly across multiple captures)
// or released. The entity itself holds no lock; every mutating method here
// is called by the executor only while the payer account's row lock is
// held.
type Hold struct {
	id             ids.HoldID
	payerAccountID ids.AccountID
	currency       valueobjects.Currency
	amount         valueobjects.Money
	remaining      valueobjects.Money
	status         HoldStatus
	expiresAt      time.Time
	createdAt      time.Time
	creatingEntry  ids.EntryID
}

// NewHold creates a hold in the ACTIVE state with remaining == amount. The
// caller (the ledger engine) is responsible for posting the corresponding
// debit/credit lines in the same transaction.
func NewHold(payerAccountID ids.AccountID, amount valueobjects.Money, expiresAt time.Time, creatingEntry ids.EntryID) (*Hold, error) {
	if !amount.IsPositive() {
		return nil, errors.New(errors.KindValidation, "hold amount must be positive").WithField("amount")
	}
	return &Hold{
		id:             ids.NewHoldID(),
		payerAccountID: payerAccountID,
		currency:       amount.Currency(),
		amount:         amount,
		remaining:      amount,
		status:         HoldStatusActive,
		expiresAt:      expiresAt,
		createdAt:      time.Now().UTC(),
		creatingEntry:  creatingEntry,
	}, nil
}

// ReconstructHold hydrates a Hold from stored fields.
func ReconstructHold(id ids.HoldID, payerAccountID ids.AccountID, currency valueobjects.Currency, amount, remaining valueobjects.Money, status HoldStatus, expiresAt, createdAt time.Time, creatingEntry ids.EntryID) *Hold {
	return &Hold{
		id:             id,
		payerAccountID: payerAccountID,
		currency:       currency,
		amount:         amount,
		remaining:      remaining,
		status:         status,
		expiresAt:      expiresAt,
		createdAt:      createdAt,
		creatingEntry:  creatingEntry,
	}
}

func (h *Hold) ID() ids.HoldID                  { return h.id }
func (h *Hold) PayerAccountID() ids.AccountID   { return h.payerAccountID }
func (h *Hold) Currency() valueobjects.Currency { return h.currency }
func (h *Hold) Amount() valueobjects.Money      { return h.amount }
func (h *Hold) Remaining() valueobjects.Money   { return h.remaining }
func (h *Hold) Status() HoldStatus              { return h.status }
func (h *Hold) ExpiresAt() time.Time            { return h.expiresAt }
func (h *Hold) CreatedAt() time.Time            { return h.createdAt }
func (h *Hold) CreatingEntryID() ids.EntryID    { return h.creatingEntry }

// IsExpired reports whether now is at or past expiresAt. Expiration is only
// material while the hold is still ACTIVE or PARTIALLY_CAPTURED; a terminal
// hold is never "expired", it simply already ended some other way.
func (h *Hold) IsExpired(now time.Time) bool {
	return !h.status.IsTerminal() && !now.Before(h.expiresAt)
}

// IsCapturable reports whether the hold can accept a capture of c right
// now, given now. It does not itself check expiry-driven lazy transition —
// the caller runs ExpireIfDue first.
func (h *Hold) IsCapturable(c valueobjects.Money, now time.Time) error {
	if h.status != HoldStatusActive && h.status != HoldStatusPartiallyCaptured {
		return errors.New(errors.KindHoldNotActive, "hold is not active")
	}
	if !now.Before(h.expiresAt) {
		return errors.New(errors.KindHoldExpired, "hold has expired")
	}
	ok, err := h.remaining.GreaterThanOrEqual(c)
	if err != nil {
		return errors.Wrap(errors.KindCurrencyMismatch, "capture amount currency mismatch", err)
	}
	if !ok {
		return errors.New(errors.KindValidation, "capture amount exceeds remaining hold").WithField("amount")
	}
	return nil
}

// Capture records a capture of c against the hold, transitioning to
// CAPTURED if nothing remains or PARTIALLY_CAPTURED otherwise. The caller
// has already validated IsCapturable and posted the capture lines; this
// method only updates bookkeeping state.
func (h *Hold) Capture(c valueobjects.Money) error {
	remaining, err := h.remaining.Subtract(c)
	if err != nil {
		return errors.Wrap(errors.KindArithmeticError, "failed to subtract capture from hold", err)
	}
	h.remaining = remaining
	if remaining.IsZero() {
		h.status = HoldStatusCaptured
	} else {
		h.status = HoldStatusPartiallyCaptured
	}
	return nil
}

// IsReleasable reports whether the hold can be voluntarily released now.
func (h *Hold) IsReleasable() error {
	if h.status != HoldStatusActive && h.status != HoldStatusPartiallyCaptured {
		return errors.New(errors.KindHoldNotActive, "hold is not active")
	}
	return nil
}

// Release records a full release of whatever remains, transitioning to
// RELEASED. The caller posts the release lines for h.Remaining() before
// calling this.
func (h *Hold) Release() {
	h.remaining = valueobjects.Zero(h.currency)
	h.status = HoldStatusReleased
}

// Expire records a lazy expiry, releasing whatever remained uncaptured.
// The caller posts the release lines for h.Remaining() before calling
// this.
func (h *Hold) Expire() {
	h.remaining = valueobjects.Zero(h.currency)
	h.status = HoldStatusExpired
}
