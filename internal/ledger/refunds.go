package ledger

import (
	"context"

	"github.com/wallethub/ledger/internal/application/ports"
	"github.com/wallethub/ledger/internal/domain/entities"
	"github.com/wallethub/ledger/internal/domain/errors"
	"github.com/wallethub/ledger/internal/domain/events"
	"github.com/wallethub/ledger/internal/domain/ids"
	"github.com/wallethub/ledger/internal/domain/valueobjects"
)

// RefundRequest carries the validated input for refunding a prior capture
// or intent payment. SourceEntryID names the CAPTURE or INTENT_PAY entry
// being reversed; partial and repeated refunds are allowed as long as their
// sum never exceeds that entry's amount. Amount is a decimal string scaled
// against the source entry's own currency once it is loaded — a refund
// never names its own currency, since it can only ever reverse the entry
// it points at. An empty Amount defaults to whatever remains refundable.
type RefundRequest struct {
	APIKeyID       ids.APIKeyID
	SourceEntryID  ids.EntryID
	Amount         string
	IdempotencyKey ids.IdempotencyKey
	Fingerprint    string
}

// Refund reverses amount from a captured hold or a paid intent, crediting
// the original payer and debiting whoever received the funds.
func (e *Executor) Refund(ctx context.Context, req RefundRequest) (*entities.Refund, error) {
	key, err := e.store.GetAPIKey(ctx, req.APIKeyID)
	if err != nil {
		return nil, errors.Wrap(errors.KindStoreError, "failed to load API key", err)
	}
	if err := RequireScope(key, entities.ScopeRefund); err != nil {
		return nil, err
	}

	var result *entities.Refund
	_, err = e.run(ctx, "refund", req.APIKeyID, req.IdempotencyKey, req.Fingerprint, func(ctx context.Context, tx ports.Tx) ([]byte, []events.DomainEvent, error) {
		source, err := e.store.GetEntryByID(ctx, tx, req.SourceEntryID)
		if err != nil {
			return nil, nil, errors.Wrap(errors.KindStoreError, "failed to load source entry for refund", err)
		}
		if source.Kind() != entities.EntryKindCapture && source.Kind() != entities.EntryKindIntentPay {
			return nil, nil, errors.New(errors.KindValidation, "only a capture or an intent payment can be refunded").WithField("source_entry_id")
		}

		payeeAccountID, payerAccountID, captureAmount, err := refundablePair(source)
		if err != nil {
			return nil, nil, err
		}

		locked, err := lockAccountsAscending(ctx, e.store, tx, payeeAccountID, payerAccountID)
		if err != nil {
			return nil, nil, err
		}
		payee := locked[payeeAccountID]
		if err := payee.RequireActive(); err != nil {
			return nil, nil, err
		}

		priorUnits, err := e.store.SumRefundsForCapture(ctx, tx, req.SourceEntryID)
		if err != nil {
			return nil, nil, errors.Wrap(errors.KindStoreError, "failed to sum prior refunds", err)
		}
		priorRefunded, err := valueobjects.NewMoney(priorUnits, captureAmount.Currency())
		if err != nil {
			return nil, nil, errors.Wrap(errors.KindArithmeticError, "negative prior-refund sum", err)
		}

		amount := captureAmount
		if req.Amount != "" {
			amount, err = valueobjects.ParseDecimal(req.Amount, captureAmount.Currency())
			if err != nil {
				return nil, nil, errors.Wrap(errors.KindValidation, "invalid refund amount", err).WithField("amount")
			}
		} else if remaining, err := captureAmount.Subtract(priorRefunded); err == nil {
			amount = remaining
		}
		if err := entities.CheckRefundable(amount, priorRefunded, captureAmount); err != nil {
			return nil, nil, err
		}

		entryID := ids.NewEntryID()
		lines, err := refundLines(entryID, payeeAccountID, payerAccountID, amount)
		if err != nil {
			return nil, nil, err
		}
		entry, err := entities.NewJournalEntry(entities.EntryKindRefund, "", "", nil, req.IdempotencyKey, req.SourceEntryID, lines)
		if err != nil {
			return nil, nil, err
		}
		if err := e.store.InsertEntry(ctx, tx, entry); err != nil {
			return nil, nil, errors.Wrap(errors.KindStoreError, "failed to insert refund entry", err)
		}

		refund, err := entities.NewRefund(req.SourceEntryID, amount, entry.ID())
		if err != nil {
			return nil, nil, err
		}
		if err := e.store.PutRefund(ctx, tx, refund); err != nil {
			return nil, nil, errors.Wrap(errors.KindStoreError, "failed to persist refund", err)
		}

		result = refund
		raised := []events.DomainEvent{
			events.NewEntryPosted(entry.ID(), req.IdempotencyKey.String(), len(lines)),
			events.NewRefundPosted(refund.ID(), req.SourceEntryID.String(), payee.WalletID(), amount),
		}
		return []byte(refund.ID().String()), raised, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// refundablePair extracts (payeeAccountID, payerAccountID, amount) from a
// CAPTURE or INTENT_PAY entry: the account credited AVAILABLE is the one a
// refund debits from, and the account debited is the one a refund credits
// back to. Both entry kinds have exactly one credit line, in the AVAILABLE
// bucket, and one debit line by construction (see posting.go); the debit is
// in the AVAILABLE bucket for INTENT_PAY and in the HELD bucket for CAPTURE.
func refundablePair(entry *entities.JournalEntry) (payeeAccountID, payerAccountID ids.AccountID, amount valueobjects.Money, err error) {
	var haveCredit, haveDebit bool
	for _, line := range entry.Lines() {
		switch line.Side() {
		case entities.SideCredit:
			if line.Bucket() != entities.BucketAvailable {
				continue
			}
			payeeAccountID = line.AccountID()
			amount = line.Amount()
			haveCredit = true
		case entities.SideDebit:
			payerAccountID = line.AccountID()
			haveDebit = true
		}
	}
	if !haveCredit || !haveDebit {
		return "", "", valueobjects.Money{}, errors.New(errors.KindStoreError, "source entry is missing its expected credit or debit line")
	}
	return payeeAccountID, payerAccountID, amount, nil
}
