package ledger

import (
	"context"
	"time"

	"github.com/wallethub/ledger/internal/application/ports"
	"github.com/wallethub/ledger/internal/domain/entities"
	"github.com/wallethub/ledger/internal/domain/errors"
	"github.com/wallethub/ledger/internal/domain/events"
	"github.com/wallethub/ledger/internal/domain/ids"
	"github.com/wallethub/ledger/internal/domain/valueobjects"
)

// TransferRequest carries the validated input for a direct wallet-to-wallet
// transfer. To may be a bare wallet id, an "@handle", or an "ext:"-prefixed
// external reference — resolved by Resolver before any lock is taken.
type TransferRequest struct {
	APIKeyID       ids.APIKeyID
	FromWalletID   ids.WalletID
	To             string
	Amount         valueobjects.Money
	ReferenceID    string
	Metadata       map[string]string
	IdempotencyKey ids.IdempotencyKey
	Fingerprint    string
}

// TransferResult is returned to the caller on success.
type TransferResult struct {
	Entry *entities.JournalEntry
}

// Transfer moves amount from the caller's wallet to the resolved recipient,
// debiting the payer's available balance and crediting the payee's.
func (e *Executor) Transfer(ctx context.Context, req TransferRequest) (*TransferResult, error) {
	key, err := e.store.GetAPIKey(ctx, req.APIKeyID)
	if err != nil {
		return nil, errors.Wrap(errors.KindStoreError, "failed to load API key", err)
	}
	if err := RequireScope(key, entities.ScopeTransfer); err != nil {
		return nil, err
	}
	if err := e.authz.FastReject(ctx, key, req.Amount); err != nil {
		return nil, err
	}

	payerAccount, err := e.resolver.Resolve(ctx, req.FromWalletID.String(), req.Amount.Currency())
	if err != nil {
		return nil, err
	}
	payeeAccount, err := e.resolver.Resolve(ctx, req.To, req.Amount.Currency())
	if err != nil {
		return nil, err
	}
	if payerAccount.ID() == payeeAccount.ID() {
		return nil, errors.New(errors.KindValidation, "cannot transfer to the same account").WithField("to")
	}

	var result TransferResult
	_, err = e.run(ctx, "transfer", req.APIKeyID, req.IdempotencyKey, req.Fingerprint, func(ctx context.Context, tx ports.Tx) ([]byte, []events.DomainEvent, error) {
		locked, err := lockAccountsAscending(ctx, e.store, tx, payerAccount.ID(), payeeAccount.ID())
		if err != nil {
			return nil, nil, err
		}
		payer := locked[payerAccount.ID()]
		payee := locked[payeeAccount.ID()]
		if err := payer.RequireActive(); err != nil {
			return nil, nil, err
		}
		if err := payee.RequireActive(); err != nil {
			return nil, nil, err
		}

		now := time.Now().UTC()
		if err := e.authz.CheckSpendCeiling(ctx, tx, key, payer.ID(), req.Amount, now); err != nil {
			return nil, nil, err
		}

		balance, err := e.balances.Compute(ctx, tx, payer.ID(), req.Amount.Currency())
		if err != nil {
			return nil, nil, err
		}
		sufficient, err := balance.Available.GreaterThanOrEqual(req.Amount)
		if err != nil {
			return nil, nil, err
		}
		if !sufficient {
			return nil, nil, errors.New(errors.KindInsufficientFunds, "insufficient available balance")
		}

		entryID := ids.NewEntryID()
		lines, err := transferLines(entryID, payer.ID(), payee.ID(), req.Amount)
		if err != nil {
			return nil, nil, err
		}
		entry, err := entities.NewJournalEntry(entities.EntryKindTransfer, req.FromWalletID, req.ReferenceID, req.Metadata, req.IdempotencyKey, "", lines)
		if err != nil {
			return nil, nil, err
		}
		if err := e.store.InsertEntry(ctx, tx, entry); err != nil {
			return nil, nil, errors.Wrap(errors.KindStoreError, "failed to insert transfer entry", err)
		}

		result = TransferResult{Entry: entry}
		raised := []events.DomainEvent{
			events.NewEntryPosted(entry.ID(), req.IdempotencyKey.String(), len(lines)),
		}
		return []byte(entry.ID().String()), raised, nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}
