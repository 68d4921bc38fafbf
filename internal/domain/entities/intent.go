package entities

import (
	"time"

	"github.com/wallethub/ledger/internal/domain/errors"
	"github.com/wallethub/ledger/internal/domain/ids"
	"github.com/wallethub/ledger/internal/domain/valueobjects"
)

// IntentStatus is a payment intent's position in its lifecycle.
type IntentStatus string

const (
	IntentStatusPending   IntentStatus = "PENDING"
	IntentStatusPaid      IntentStatus = "PAID"
	IntentStatusExpired   IntentStatus = "EXPIRED"
	IntentStatusCancelled IntentStatus = "CANCELLED"
)

func (s IntentStatus) IsTerminal() bool {
	return s == IntentStatusPaid || s == IntentStatusExpired || s == IntentStatusCancelled
}

// PaymentIntent is a payee-initiated request that a specific payer must
// complete. Unlike a Hold, an intent has no funds reserved until it's
// paid — it exists purely as an addressable, expiring invoice.
type PaymentIntent struct {
	id            ids.IntentID
	payeeAccount  ids.AccountID
	creatorWallet ids.WalletID
	currency      valueobjects.Currency
	amount        valueobjects.Money
	status        IntentStatus
	expiresAt     time.Time
	metadata      map[string]string
	paidEntryID   ids.EntryID // "" until paid
	createdAt     time.Time
}

// NewPaymentIntent creates a PENDING intent. creatorWallet is recorded so
// that Pay can forbid the intent's own creator from paying it.
func NewPaymentIntent(payeeAccount ids.AccountID, creatorWallet ids.WalletID, amount valueobjects.Money, expiresAt time.Time, metadata map[string]string) (*PaymentIntent, error) {
	if !amount.IsPositive() {
		return nil, errors.New(errors.KindValidation, "intent amount must be positive").WithField("amount")
	}
	return &PaymentIntent{
		id:            ids.NewIntentID(),
		payeeAccount:  payeeAccount,
		creatorWallet: creatorWallet,
		currency:      amount.Currency(),
		amount:        amount,
		status:        IntentStatusPending,
		expiresAt:     expiresAt,
		metadata:      metadata,
		createdAt:     time.Now().UTC(),
	}, nil
}

// ReconstructPaymentIntent hydrates a PaymentIntent from stored fields.
func ReconstructPaymentIntent(id ids.IntentID, payeeAccount ids.AccountID, creatorWallet ids.WalletID, currency valueobjects.Currency, amount valueobjects.Money, status IntentStatus, expiresAt time.Time, metadata map[string]string, paidEntryID ids.EntryID, createdAt time.Time) *PaymentIntent {
	return &PaymentIntent{
		id:            id,
		payeeAccount:  payeeAccount,
		creatorWallet: creatorWallet,
		currency:      currency,
		amount:        amount,
		status:        status,
		expiresAt:     expiresAt,
		metadata:      metadata,
		paidEntryID:   paidEntryID,
		createdAt:     createdAt,
	}
}

func (p *PaymentIntent) ID() ids.IntentID                { return p.id }
func (p *PaymentIntent) PayeeAccountID() ids.AccountID   { return p.payeeAccount }
func (p *PaymentIntent) CreatorWalletID() ids.WalletID   { return p.creatorWallet }
func (p *PaymentIntent) Currency() valueobjects.Currency { return p.currency }
func (p *PaymentIntent) Amount() valueobjects.Money      { return p.amount }
func (p *PaymentIntent) Status() IntentStatus            { return p.status }
func (p *PaymentIntent) ExpiresAt() time.Time            { return p.expiresAt }
func (p *PaymentIntent) Metadata() map[string]string     { return p.metadata }
func (p *PaymentIntent) PaidEntryID() ids.EntryID        { return p.paidEntryID }
func (p *PaymentIntent) CreatedAt() time.Time            { return p.createdAt }

// IsExpired reports whether now is at or past expiresAt and the intent
// hasn't already reached a terminal state some other way.
func (p *PaymentIntent) IsExpired(now time.Time) bool {
	return p.status == IntentStatusPending && !now.Before(p.expiresAt)
}

// CanBePaidBy validates the preconditions for Pay: the intent must still
// be PENDING and unexpired, and the payer must not be the intent's own
// creator.
func (p *PaymentIntent) CanBePaidBy(payerWallet ids.WalletID, now time.Time) error {
	switch p.status {
	case IntentStatusPaid:
		return errors.New(errors.KindIntentAlreadyPaid, "intent already paid")
	case IntentStatusExpired:
		return errors.New(errors.KindIntentExpired, "intent has expired")
	case IntentStatusCancelled:
		return errors.New(errors.KindIntentExpired, "intent was cancelled")
	case IntentStatusPending:
		// falls through
	}
	if !now.Before(p.expiresAt) {
		return errors.New(errors.KindIntentExpired, "intent has expired")
	}
	if payerWallet == p.creatorWallet {
		return errors.New(errors.KindForbiddenScope, "intent creator cannot pay their own intent")
	}
	return nil
}

// Pay transitions the intent to PAID. The caller has already posted the
// intent-pay lines and validated CanBePaidBy.
func (p *PaymentIntent) Pay(entryID ids.EntryID) {
	p.status = IntentStatusPaid
	p.paidEntryID = entryID
}

// Expire transitions a pending intent to EXPIRED. No funds move: unlike a
// hold, an unpaid intent never reserved anything.
func (p *PaymentIntent) Expire() {
	p.status = IntentStatusExpired
}

// Cancel transitions a pending intent to CANCELLED.
func (p *PaymentIntent) Cancel() error {
	if p.status != IntentStatusPending {
		return errors.New(errors.KindIntentAlreadyPaid, "only a pending intent can be cancelled")
	}
	p.status = IntentStatusCancelled
	return nil
}
