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

// CreateIntentRequest carries the validated input for creating a payment
// intent. Unlike a hold, no funds move at creation time; the intent is
// purely an addressable, expiring invoice against the payee's account.
type CreateIntentRequest struct {
	APIKeyID       ids.APIKeyID
	PayeeWalletID  ids.WalletID
	Amount         valueobjects.Money
	TTL            time.Duration
	Metadata       map[string]string
	IdempotencyKey ids.IdempotencyKey
	Fingerprint    string
}

// CreateIntent creates a PENDING payment intent against the payee's
// account. No journal entry is posted; there is nothing to balance yet.
func (e *Executor) CreateIntent(ctx context.Context, req CreateIntentRequest) (*entities.PaymentIntent, error) {
	key, err := e.store.GetAPIKey(ctx, req.APIKeyID)
	if err != nil {
		return nil, errors.Wrap(errors.KindStoreError, "failed to load API key", err)
	}
	if err := RequireScope(key, entities.ScopeIntentCreate); err != nil {
		return nil, err
	}

	payeeAccount, err := e.resolver.Resolve(ctx, req.PayeeWalletID.String(), req.Amount.Currency())
	if err != nil {
		return nil, err
	}

	var result *entities.PaymentIntent
	_, err = e.run(ctx, "intent_create", req.APIKeyID, req.IdempotencyKey, req.Fingerprint, func(ctx context.Context, tx ports.Tx) ([]byte, []events.DomainEvent, error) {
		intent, err := entities.NewPaymentIntent(payeeAccount.ID(), req.PayeeWalletID, req.Amount, time.Now().UTC().Add(req.TTL), req.Metadata)
		if err != nil {
			return nil, nil, err
		}
		if err := e.store.PutIntent(ctx, tx, intent); err != nil {
			return nil, nil, errors.Wrap(errors.KindStoreError, "failed to persist intent", err)
		}

		result = intent
		raised := []events.DomainEvent{
			events.NewIntentCreated(intent.ID(), req.PayeeWalletID, req.Amount),
		}
		return []byte(intent.ID().String()), raised, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// loadIntent reads an intent and lazily expires it in place if its TTL has
// passed. Expiry needs no lock and posts no entry — an unpaid intent never
// reserved funds.
func (e *Executor) loadIntent(ctx context.Context, tx ports.Tx, intentID ids.IntentID) (*entities.PaymentIntent, []events.DomainEvent, error) {
	intent, err := e.store.GetIntent(ctx, tx, intentID)
	if err != nil {
		return nil, nil, errors.Wrap(errors.KindStoreError, "failed to load intent", err)
	}
	if !intent.IsExpired(time.Now().UTC()) {
		return intent, nil, nil
	}

	intent.Expire()
	if err := e.store.PutIntent(ctx, tx, intent); err != nil {
		return nil, nil, errors.Wrap(errors.KindStoreError, "failed to persist expired intent", err)
	}
	return intent, []events.DomainEvent{events.NewIntentExpired(intent.ID())}, nil
}

// PayIntentRequest carries the validated input for paying a pending intent.
type PayIntentRequest struct {
	APIKeyID       ids.APIKeyID
	IntentID       ids.IntentID
	PayerWalletID  ids.WalletID
	IdempotencyKey ids.IdempotencyKey
	Fingerprint    string
}

// PayIntent settles a pending intent, debiting the payer's available
// balance and crediting the payee's — the same shape as a transfer, routed
// through the intent state machine so it can only happen once.
func (e *Executor) PayIntent(ctx context.Context, req PayIntentRequest) (*entities.PaymentIntent, error) {
	key, err := e.store.GetAPIKey(ctx, req.APIKeyID)
	if err != nil {
		return nil, errors.Wrap(errors.KindStoreError, "failed to load API key", err)
	}
	if err := RequireScope(key, entities.ScopeIntentPay); err != nil {
		return nil, err
	}

	var result *entities.PaymentIntent
	_, err = e.run(ctx, "intent_pay", req.APIKeyID, req.IdempotencyKey, req.Fingerprint, func(ctx context.Context, tx ports.Tx) ([]byte, []events.DomainEvent, error) {
		intent, expiryEvents, err := e.loadIntent(ctx, tx, req.IntentID)
		if err != nil {
			return nil, nil, err
		}
		if err := intent.CanBePaidBy(req.PayerWalletID, time.Now().UTC()); err != nil {
			return nil, nil, err
		}

		payerAccount, err := e.resolver.Resolve(ctx, req.PayerWalletID.String(), intent.Currency())
		if err != nil {
			return nil, nil, err
		}

		locked, err := lockAccountsAscending(ctx, e.store, tx, payerAccount.ID(), intent.PayeeAccountID())
		if err != nil {
			return nil, nil, err
		}
		payer := locked[payerAccount.ID()]
		if err := payer.RequireActive(); err != nil {
			return nil, nil, err
		}

		if err := e.authz.CheckSpendCeiling(ctx, tx, key, payer.ID(), intent.Amount(), time.Now().UTC()); err != nil {
			return nil, nil, err
		}

		balance, err := e.balances.Compute(ctx, tx, payer.ID(), intent.Currency())
		if err != nil {
			return nil, nil, err
		}
		sufficient, err := balance.Available.GreaterThanOrEqual(intent.Amount())
		if err != nil {
			return nil, nil, err
		}
		if !sufficient {
			return nil, nil, errors.New(errors.KindInsufficientFunds, "insufficient available balance to pay intent")
		}

		entryID := ids.NewEntryID()
		lines, err := intentPayLines(entryID, payer.ID(), intent.PayeeAccountID(), intent.Amount())
		if err != nil {
			return nil, nil, err
		}
		entry, err := entities.NewJournalEntry(entities.EntryKindIntentPay, req.PayerWalletID, "", nil, req.IdempotencyKey, "", lines)
		if err != nil {
			return nil, nil, err
		}
		if err := e.store.InsertEntry(ctx, tx, entry); err != nil {
			return nil, nil, errors.Wrap(errors.KindStoreError, "failed to insert intent-pay entry", err)
		}

		intent.Pay(entry.ID())
		if err := e.store.PutIntent(ctx, tx, intent); err != nil {
			return nil, nil, errors.Wrap(errors.KindStoreError, "failed to persist paid intent", err)
		}

		result = intent
		raised := append(expiryEvents,
			events.NewEntryPosted(entry.ID(), req.IdempotencyKey.String(), len(lines)),
			events.NewIntentPaid(intent.ID(), req.PayerWalletID, intent.CreatorWalletID(), intent.Amount()),
		)
		return []byte(intent.ID().String()), raised, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CancelIntentRequest carries the validated input for cancelling a pending
// intent.
type CancelIntentRequest struct {
	APIKeyID       ids.APIKeyID
	IntentID       ids.IntentID
	IdempotencyKey ids.IdempotencyKey
	Fingerprint    string
}

// CancelIntent cancels a still-pending intent. No funds ever moved, so
// cancellation is a pure state transition.
func (e *Executor) CancelIntent(ctx context.Context, req CancelIntentRequest) (*entities.PaymentIntent, error) {
	key, err := e.store.GetAPIKey(ctx, req.APIKeyID)
	if err != nil {
		return nil, errors.Wrap(errors.KindStoreError, "failed to load API key", err)
	}
	if err := RequireScope(key, entities.ScopeIntentCreate); err != nil {
		return nil, err
	}

	var result *entities.PaymentIntent
	_, err = e.run(ctx, "intent_cancel", req.APIKeyID, req.IdempotencyKey, req.Fingerprint, func(ctx context.Context, tx ports.Tx) ([]byte, []events.DomainEvent, error) {
		intent, expiryEvents, err := e.loadIntent(ctx, tx, req.IntentID)
		if err != nil {
			return nil, nil, err
		}
		if err := intent.Cancel(); err != nil {
			return nil, nil, err
		}
		if err := e.store.PutIntent(ctx, tx, intent); err != nil {
			return nil, nil, errors.Wrap(errors.KindStoreError, "failed to persist cancelled intent", err)
		}

		result = intent
		raised := append(expiryEvents, events.NewIntentCanceled(intent.ID()))
		return []byte(intent.ID().String()), raised, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
