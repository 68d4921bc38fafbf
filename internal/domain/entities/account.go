// Package entities holds the ledger's rich domain objects: entities with
// identity, invariants, and behavior, not bare data bags.
package entities

import (
	"time"

	"github.com/wallethub/ledger/internal/domain/errors"
	"github.com/wallethub/ledger/internal/domain/ids"
	"github.com/wallethub/ledger/internal/domain/valueobjects"
)

// AccountType distinguishes ordinary user accounts from system accounts
// (fee sinks, reserve accounts) that the ledger may post against without a
// corresponding wallet-level spend ceiling.
type AccountType string

const (
	AccountTypeUser   AccountType = "USER"
	AccountTypeSystem AccountType = "SYSTEM"
)

// IsValid reports whether t is a recognized account type.
func (t AccountType) IsValid() bool {
	return t == AccountTypeUser || t == AccountTypeSystem
}

// AccountStatus is the operational status of an account.
type AccountStatus string

const (
	AccountStatusActive AccountStatus = "ACTIVE"
	AccountStatusFrozen AccountStatus = "FROZEN"
)

// IsValid reports whether s is a recognized account status.
func (s AccountStatus) IsValid() bool {
	return s == AccountStatusActive || s == AccountStatusFrozen
}

// Account is one per (wallet, currency). It never stores a balance —
// available/held/total are always derived from journal lines by the
// balance calculator. The account row exists so there is something to
// lock: every money-moving operation acquires an exclusive lock on every
// account it touches before reading or posting.
type Account struct {
	id        ids.AccountID
	walletID  ids.WalletID
	currency  valueobjects.Currency
	accType   AccountType
	status    AccountStatus
	createdAt time.Time
}

// NewAccount creates a new account for a wallet in a given currency.
func NewAccount(walletID ids.WalletID, currency valueobjects.Currency, accType AccountType) (*Account, error) {
	if walletID.IsZero() {
		return nil, errors.New(errors.KindValidation, "walletID is required").WithField("wallet_id")
	}
	if currency.IsZero() {
		return nil, errors.New(errors.KindValidation, "currency is required").WithField("currency")
	}
	if !accType.IsValid() {
		return nil, errors.New(errors.KindValidation, "invalid account type").WithField("type")
	}
	return &Account{
		id:        ids.NewAccountID(),
		walletID:  walletID,
		currency:  currency,
		accType:   accType,
		status:    AccountStatusActive,
		createdAt: time.Now().UTC(),
	}, nil
}

// ReconstructAccount hydrates an Account from stored fields. Used by the
// store adapter; performs no validation beyond what the caller already
// persisted.
func ReconstructAccount(id ids.AccountID, walletID ids.WalletID, currency valueobjects.Currency, accType AccountType, status AccountStatus, createdAt time.Time) *Account {
	return &Account{
		id:        id,
		walletID:  walletID,
		currency:  currency,
		accType:   accType,
		status:    status,
		createdAt: createdAt,
	}
}

func (a *Account) ID() ids.AccountID               { return a.id }
func (a *Account) WalletID() ids.WalletID          { return a.walletID }
func (a *Account) Currency() valueobjects.Currency { return a.currency }
func (a *Account) Type() AccountType               { return a.accType }
func (a *Account) Status() AccountStatus           { return a.status }
func (a *Account) CreatedAt() time.Time            { return a.createdAt }

// IsActive reports whether the account accepts new postings.
func (a *Account) IsActive() bool { return a.status == AccountStatusActive }

// RequireActive rejects postings against a frozen account. Freezing is an
// operational safeguard with no dedicated error kind of its own, so it is
// surfaced as a scope failure at the executor boundary.
func (a *Account) RequireActive() error {
	if !a.IsActive() {
		return errors.New(errors.KindForbiddenScope, "account is frozen")
	}
	return nil
}

// Freeze marks the account FROZEN, rejecting further postings until
// reactivated. Freezing itself is not part of any posting primitive and
// is applied outside of a money-moving transaction.
func (a *Account) Freeze() { a.status = AccountStatusFrozen }

// Activate clears a FROZEN status.
func (a *Account) Activate() { a.status = AccountStatusActive }
