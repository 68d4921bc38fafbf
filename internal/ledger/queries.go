package ledger

import (
	"context"

	"github.com/wallethub/ledger/internal/domain/entities"
	"github.com/wallethub/ledger/internal/domain/errors"
	"github.com/wallethub/ledger/internal/domain/ids"
	"github.com/wallethub/ledger/internal/domain/valueobjects"
)

// GetBalance returns the current derived balance for a wallet in a given
// currency. Unlike every write operation, this never opens a Tx or takes a
// lock: a balance read races with concurrent postings by design, the same
// way a bank statement can be a moment stale the instant it's printed.
func (e *Executor) GetBalance(ctx context.Context, walletID ids.WalletID, currency valueobjects.Currency) (Balance, error) {
	account, err := e.store.FindAccountByWalletCurrency(ctx, walletID, currency.Code())
	if err != nil {
		return Balance{}, errors.Wrap(errors.KindRecipientNotFound, "no account for that wallet in the requested currency", err)
	}
	return e.balances.Compute(ctx, nil, account.ID(), currency)
}

// ListTransactionsPage is one page of journal entries touching an account.
type ListTransactionsPage struct {
	Entries    []*entities.JournalEntry
	NextCursor string
}

// ListTransactions returns a newest-first page of entries touching a
// wallet's account in the given currency.
func (e *Executor) ListTransactions(ctx context.Context, walletID ids.WalletID, currency valueobjects.Currency, cursor string, limit int) (ListTransactionsPage, error) {
	account, err := e.store.FindAccountByWalletCurrency(ctx, walletID, currency.Code())
	if err != nil {
		return ListTransactionsPage{}, errors.Wrap(errors.KindRecipientNotFound, "no account for that wallet in the requested currency", err)
	}
	entries, next, err := e.store.ListEntriesForAccount(ctx, account.ID(), cursor, limit)
	if err != nil {
		return ListTransactionsPage{}, errors.Wrap(errors.KindStoreError, "failed to list entries", err)
	}
	return ListTransactionsPage{Entries: entries, NextCursor: next}, nil
}
