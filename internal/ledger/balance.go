package ledger

import (
	"context"

	"github.com/wallethub/ledger/internal/application/ports"
	"github.com/wallethub/ledger/internal/domain/errors"
	"github.com/wallethub/ledger/internal/domain/ids"
	"github.com/wallethub/ledger/internal/domain/valueobjects"
)

// Balance is the (available, held, total) view of an account at a point
// in time. Never stored; always computed fresh from journal lines.
type Balance struct {
	Available valueobjects.Money
	Held      valueobjects.Money
	Total     valueobjects.Money
	Currency  valueobjects.Currency
}

// BalanceCalculator derives balances from the store's journal-line sums.
// It never caches: every call re-reads SumBuckets, so a balance taken
// inside a held lock always reflects every previously committed line plus
// anything the current transaction has already written.
type BalanceCalculator struct {
	store ports.LedgerStore
}

// NewBalanceCalculator builds a BalanceCalculator over the given store.
func NewBalanceCalculator(store ports.LedgerStore) *BalanceCalculator {
	return &BalanceCalculator{store: store}
}

// Compute derives the balance for accountID inside tx.
func (c *BalanceCalculator) Compute(ctx context.Context, tx ports.Tx, accountID ids.AccountID, currency valueobjects.Currency) (Balance, error) {
	availableUnits, heldUnits, err := c.store.SumBuckets(ctx, tx, accountID)
	if err != nil {
		return Balance{}, errors.Wrap(errors.KindStoreError, "failed to sum account buckets", err)
	}

	available, err := valueobjects.NewMoney(availableUnits, currency)
	if err != nil {
		return Balance{}, errors.Wrap(errors.KindArithmeticError, "negative available balance derived from ledger lines", err)
	}
	held, err := valueobjects.NewMoney(heldUnits, currency)
	if err != nil {
		return Balance{}, errors.Wrap(errors.KindArithmeticError, "negative held balance derived from ledger lines", err)
	}
	total, err := available.Add(held)
	if err != nil {
		return Balance{}, errors.Wrap(errors.KindArithmeticError, "failed to sum available and held balances", err)
	}

	return Balance{Available: available, Held: held, Total: total, Currency: currency}, nil
}
