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

// CreateHoldRequest carries the validated input for placing a hold.
type CreateHoldRequest struct {
	APIKeyID       ids.APIKeyID
	PayerWalletID  ids.WalletID
	Amount         valueobjects.Money
	TTL            time.Duration
	IdempotencyKey ids.IdempotencyKey
	Fingerprint    string
}

// CreateHoldResult is returned to the caller on success.
type CreateHoldResult struct {
	Hold *entities.Hold
}

// CreateHold places a hold against the payer's available balance, moving
// funds from AVAILABLE to HELD on the same account.
func (e *Executor) CreateHold(ctx context.Context, req CreateHoldRequest) (*CreateHoldResult, error) {
	key, err := e.store.GetAPIKey(ctx, req.APIKeyID)
	if err != nil {
		return nil, errors.Wrap(errors.KindStoreError, "failed to load API key", err)
	}
	if err := RequireScope(key, entities.ScopeHold); err != nil {
		return nil, err
	}
	if err := e.authz.FastReject(ctx, key, req.Amount); err != nil {
		return nil, err
	}

	payerAccount, err := e.resolver.Resolve(ctx, req.PayerWalletID.String(), req.Amount.Currency())
	if err != nil {
		return nil, err
	}

	var result CreateHoldResult
	_, err = e.run(ctx, "hold_create", req.APIKeyID, req.IdempotencyKey, req.Fingerprint, func(ctx context.Context, tx ports.Tx) ([]byte, []events.DomainEvent, error) {
		locked, err := lockAccountsAscending(ctx, e.store, tx, payerAccount.ID())
		if err != nil {
			return nil, nil, err
		}
		payer := locked[payerAccount.ID()]
		if err := payer.RequireActive(); err != nil {
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
			return nil, nil, errors.New(errors.KindInsufficientFunds, "insufficient available balance to place hold")
		}

		entryID := ids.NewEntryID()
		lines, err := holdCreateLines(entryID, payer.ID(), req.Amount)
		if err != nil {
			return nil, nil, err
		}
		entry, err := entities.NewJournalEntry(entities.EntryKindHold, req.PayerWalletID, "", nil, req.IdempotencyKey, "", lines)
		if err != nil {
			return nil, nil, err
		}
		if err := e.store.InsertEntry(ctx, tx, entry); err != nil {
			return nil, nil, errors.Wrap(errors.KindStoreError, "failed to insert hold entry", err)
		}

		hold, err := entities.NewHold(payer.ID(), req.Amount, now.Add(req.TTL), entryID)
		if err != nil {
			return nil, nil, err
		}
		if err := e.store.PutHold(ctx, tx, hold); err != nil {
			return nil, nil, errors.Wrap(errors.KindStoreError, "failed to persist hold", err)
		}

		result = CreateHoldResult{Hold: hold}
		raised := []events.DomainEvent{
			events.NewEntryPosted(entry.ID(), req.IdempotencyKey.String(), len(lines)),
			events.NewHoldCreated(hold.ID(), req.PayerWalletID, req.Amount),
		}
		return []byte(hold.ID().String()), raised, nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// peekHold reads a hold without locking anything, purely so the caller
// learns which account to lock before it locks anything.
func (e *Executor) peekHold(ctx context.Context, tx ports.Tx, holdID ids.HoldID) (*entities.Hold, error) {
	hold, err := e.store.GetHold(ctx, tx, holdID)
	if err != nil {
		return nil, errors.Wrap(errors.KindStoreError, "failed to load hold", err)
	}
	return hold, nil
}

// expireHoldLocked lazily expires hold in place if its TTL has passed,
// posting the release entry for whatever remained uncaptured. The caller
// must already hold the payer account's lock before calling this — the
// release entry changes the payer's balance just as a voluntary release
// does, so it needs the same lock.
func (e *Executor) expireHoldLocked(ctx context.Context, tx ports.Tx, hold *entities.Hold) ([]events.DomainEvent, error) {
	now := time.Now().UTC()
	if !hold.IsExpired(now) {
		return nil, nil
	}

	remaining := hold.Remaining()
	entryID := ids.NewEntryID()
	lines, err := holdReleaseLines(entryID, hold.PayerAccountID(), remaining)
	if err != nil {
		return nil, err
	}
	entry, err := entities.NewJournalEntry(entities.EntryKindRelease, "", "", nil, "", hold.CreatingEntryID(), lines)
	if err != nil {
		return nil, err
	}
	if err := e.store.InsertEntry(ctx, tx, entry); err != nil {
		return nil, errors.Wrap(errors.KindStoreError, "failed to insert expiry-release entry", err)
	}
	hold.Expire()
	if err := e.store.PutHold(ctx, tx, hold); err != nil {
		return nil, errors.Wrap(errors.KindStoreError, "failed to persist expired hold", err)
	}

	return []events.DomainEvent{
		events.NewEntryPosted(entry.ID(), "", len(lines)),
		events.NewHoldExpired(hold.ID(), "", remaining),
	}, nil
}

// CaptureHoldRequest carries the validated input for capturing a hold. A
// nil Amount means "capture whatever remains" — Currency is still required
// up front so the payee account can be resolved before the hold itself is
// loaded and locked.
type CaptureHoldRequest struct {
	APIKeyID       ids.APIKeyID
	HoldID         ids.HoldID
	PayeeReference string
	Currency       valueobjects.Currency
	Amount         *valueobjects.Money
	IdempotencyKey ids.IdempotencyKey
	Fingerprint    string
}

// CaptureHoldResult is returned to the caller on success.
type CaptureHoldResult struct {
	Hold *entities.Hold
}

// CaptureHold captures c from a hold, crediting the payee's available
// balance. A hold may be captured more than once as long as the cumulative
// captured amount never exceeds the original hold amount.
func (e *Executor) CaptureHold(ctx context.Context, req CaptureHoldRequest) (*CaptureHoldResult, error) {
	key, err := e.store.GetAPIKey(ctx, req.APIKeyID)
	if err != nil {
		return nil, errors.Wrap(errors.KindStoreError, "failed to load API key", err)
	}
	if err := RequireScope(key, entities.ScopeCapture); err != nil {
		return nil, err
	}

	payeeAccount, err := e.resolver.Resolve(ctx, req.PayeeReference, req.Currency)
	if err != nil {
		return nil, err
	}

	var result CaptureHoldResult
	_, err = e.run(ctx, "hold_capture", req.APIKeyID, req.IdempotencyKey, req.Fingerprint, func(ctx context.Context, tx ports.Tx) ([]byte, []events.DomainEvent, error) {
		hold, err := e.peekHold(ctx, tx, req.HoldID)
		if err != nil {
			return nil, nil, err
		}

		locked, err := lockAccountsAscending(ctx, e.store, tx, hold.PayerAccountID(), payeeAccount.ID())
		if err != nil {
			return nil, nil, err
		}
		payee := locked[payeeAccount.ID()]
		if err := payee.RequireActive(); err != nil {
			return nil, nil, err
		}

		expiryEvents, err := e.expireHoldLocked(ctx, tx, hold)
		if err != nil {
			return nil, nil, err
		}

		amount := hold.Remaining()
		if req.Amount != nil {
			amount = *req.Amount
		}

		now := time.Now().UTC()
		if err := hold.IsCapturable(amount, now); err != nil {
			return nil, nil, err
		}

		entryID := ids.NewEntryID()
		lines, err := holdCaptureLines(entryID, hold.PayerAccountID(), payee.ID(), amount)
		if err != nil {
			return nil, nil, err
		}
		entry, err := entities.NewJournalEntry(entities.EntryKindCapture, "", "", nil, req.IdempotencyKey, hold.CreatingEntryID(), lines)
		if err != nil {
			return nil, nil, err
		}
		if err := e.store.InsertEntry(ctx, tx, entry); err != nil {
			return nil, nil, errors.Wrap(errors.KindStoreError, "failed to insert capture entry", err)
		}

		if err := hold.Capture(amount); err != nil {
			return nil, nil, err
		}
		if err := e.store.PutHold(ctx, tx, hold); err != nil {
			return nil, nil, errors.Wrap(errors.KindStoreError, "failed to persist captured hold", err)
		}

		result = CaptureHoldResult{Hold: hold}
		raised := append(expiryEvents,
			events.NewEntryPosted(entry.ID(), req.IdempotencyKey.String(), len(lines)),
			events.NewHoldCaptured(hold.ID(), payee.WalletID(), amount, hold.Status() == entities.HoldStatusCaptured),
		)
		return []byte(hold.ID().String()), raised, nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ExpireHold forces the lazy-expiry path on a single hold outside of any
// caller request — used by HoldSweeper. It carries no API key because
// nothing is being authorized on anyone's behalf; it only does what the
// next normal access to this hold would have done anyway.
func (e *Executor) ExpireHold(ctx context.Context, holdID ids.HoldID) error {
	_, err := e.run(ctx, "hold_expire", "", "", "", func(ctx context.Context, tx ports.Tx) ([]byte, []events.DomainEvent, error) {
		hold, err := e.peekHold(ctx, tx, holdID)
		if err != nil {
			return nil, nil, err
		}
		if hold.Status().IsTerminal() {
			return []byte(hold.ID().String()), nil, nil
		}
		if _, err := lockAccountsAscending(ctx, e.store, tx, hold.PayerAccountID()); err != nil {
			return nil, nil, err
		}
		raised, err := e.expireHoldLocked(ctx, tx, hold)
		if err != nil {
			return nil, nil, err
		}
		return []byte(hold.ID().String()), raised, nil
	})
	return err
}

// ReleaseHoldRequest carries the validated input for releasing a hold.
type ReleaseHoldRequest struct {
	APIKeyID       ids.APIKeyID
	HoldID         ids.HoldID
	IdempotencyKey ids.IdempotencyKey
	Fingerprint    string
}

// ReleaseHold voluntarily releases whatever remains on a hold back to the
// payer's available balance.
func (e *Executor) ReleaseHold(ctx context.Context, req ReleaseHoldRequest) (*entities.Hold, error) {
	key, err := e.store.GetAPIKey(ctx, req.APIKeyID)
	if err != nil {
		return nil, errors.Wrap(errors.KindStoreError, "failed to load API key", err)
	}
	if err := RequireScope(key, entities.ScopeHold); err != nil {
		return nil, err
	}

	var result *entities.Hold
	_, err = e.run(ctx, "hold_release", req.APIKeyID, req.IdempotencyKey, req.Fingerprint, func(ctx context.Context, tx ports.Tx) ([]byte, []events.DomainEvent, error) {
		hold, err := e.peekHold(ctx, tx, req.HoldID)
		if err != nil {
			return nil, nil, err
		}
		if hold.Status().IsTerminal() {
			result = hold
			return []byte(hold.ID().String()), nil, nil
		}

		if _, err := lockAccountsAscending(ctx, e.store, tx, hold.PayerAccountID()); err != nil {
			return nil, nil, err
		}

		expiryEvents, err := e.expireHoldLocked(ctx, tx, hold)
		if err != nil {
			return nil, nil, err
		}
		if hold.Status().IsTerminal() {
			result = hold
			return []byte(hold.ID().String()), expiryEvents, nil
		}

		if err := hold.IsReleasable(); err != nil {
			return nil, nil, err
		}

		remaining := hold.Remaining()
		entryID := ids.NewEntryID()
		lines, err := holdReleaseLines(entryID, hold.PayerAccountID(), remaining)
		if err != nil {
			return nil, nil, err
		}
		entry, err := entities.NewJournalEntry(entities.EntryKindRelease, "", "", nil, req.IdempotencyKey, hold.CreatingEntryID(), lines)
		if err != nil {
			return nil, nil, err
		}
		if err := e.store.InsertEntry(ctx, tx, entry); err != nil {
			return nil, nil, errors.Wrap(errors.KindStoreError, "failed to insert release entry", err)
		}

		hold.Release()
		if err := e.store.PutHold(ctx, tx, hold); err != nil {
			return nil, nil, errors.Wrap(errors.KindStoreError, "failed to persist released hold", err)
		}

		result = hold
		raised := append(expiryEvents,
			events.NewEntryPosted(entry.ID(), req.IdempotencyKey.String(), len(lines)),
			events.NewHoldReleased(hold.ID(), "", remaining),
		)
		return []byte(hold.ID().String()), raised, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
