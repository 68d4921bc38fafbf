// Package ledger implements the double-entry ledger engine: the
// transaction executor, posting primitives, and the Hold/PaymentIntent/
// Refund state machines. It depends only on the ports and domain
// packages — no adapter, no concrete store.
package ledger

import (
	"context"
	"strings"

	"github.com/wallethub/ledger/internal/application/ports"
	"github.com/wallethub/ledger/internal/domain/entities"
	"github.com/wallethub/ledger/internal/domain/errors"
	"github.com/wallethub/ledger/internal/domain/ids"
	"github.com/wallethub/ledger/internal/domain/valueobjects"
)

// Resolver maps a caller-supplied recipient reference to an account.
// Resolution is read-only and always happens before any lock is taken —
// it must never observe a state that requires a lock to be consistent.
type Resolver struct {
	store ports.LedgerStore
}

// NewResolver builds a Resolver over the given store.
func NewResolver(store ports.LedgerStore) *Resolver {
	return &Resolver{store: store}
}

// Resolve accepts one of: a bare wallet id, a handle beginning with "@",
// or an external identifier prefixed "ext:". It returns the resolved
// account, failing RECIPIENT_NOT_FOUND when nothing matches and
// CURRENCY_MISMATCH when the resolved account's currency differs from
// wantCurrency.
func (r *Resolver) Resolve(ctx context.Context, reference string, wantCurrency valueobjects.Currency) (*entities.Account, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, errors.New(errors.KindValidation, "recipient reference is required").WithField("to")
	}

	var account *entities.Account
	var err error

	switch {
	case strings.HasPrefix(reference, "@"):
		account, err = r.resolveHandle(ctx, strings.TrimPrefix(reference, "@"), wantCurrency)
	case strings.HasPrefix(reference, "ext:"):
		account, err = r.resolveExternalRef(ctx, reference, wantCurrency)
	default:
		account, err = r.resolveWalletID(ctx, ids.WalletID(reference), wantCurrency)
	}
	if err != nil {
		return nil, err
	}

	if !account.Currency().Equals(wantCurrency) {
		return nil, errors.New(errors.KindCurrencyMismatch, "recipient account currency does not match operation currency")
	}
	return account, nil
}

func (r *Resolver) resolveHandle(ctx context.Context, handle string, currency valueobjects.Currency) (*entities.Account, error) {
	wallet, err := r.store.FindWalletByHandle(ctx, handle)
	if err != nil {
		return nil, errors.Wrap(errors.KindRecipientNotFound, "no wallet with that handle", err)
	}
	return r.resolveWalletID(ctx, wallet.ID(), currency)
}

func (r *Resolver) resolveExternalRef(ctx context.Context, externalRef string, _ valueobjects.Currency) (*entities.Account, error) {
	account, err := r.store.FindAccountByExternalRef(ctx, externalRef)
	if err != nil {
		return nil, errors.Wrap(errors.KindRecipientNotFound, "no account for that external reference", err)
	}
	return account, nil
}

func (r *Resolver) resolveWalletID(ctx context.Context, walletID ids.WalletID, currency valueobjects.Currency) (*entities.Account, error) {
	account, err := r.store.FindAccountByWalletCurrency(ctx, walletID, currency.Code())
	if err != nil {
		return nil, errors.Wrap(errors.KindRecipientNotFound, "no account for that wallet in the requested currency", err)
	}
	return account, nil
}
