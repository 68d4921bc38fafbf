package ledger

import (
	"github.com/wallethub/ledger/internal/domain/entities"
	"github.com/wallethub/ledger/internal/domain/ids"
	"github.com/wallethub/ledger/internal/domain/valueobjects"
)

// The posting primitives below are pure: given the accounts and amounts
// already validated under lock, each builds the balanced line set for one
// operation. None of them touch the store; the executor inserts the
// resulting entry.

// transferLines builds the lines for a wallet-to-wallet transfer:
// debit payer.available, credit payee.available.
func transferLines(entryID ids.EntryID, payer, payee ids.AccountID, amount valueobjects.Money) ([]entities.JournalLine, error) {
	debit, err := entities.NewJournalLine(entryID, payer, entities.SideDebit, amount, entities.BucketAvailable)
	if err != nil {
		return nil, err
	}
	credit, err := entities.NewJournalLine(entryID, payee, entities.SideCredit, amount, entities.BucketAvailable)
	if err != nil {
		return nil, err
	}
	return []entities.JournalLine{debit, credit}, nil
}

// holdCreateLines builds the lines for placing a hold: debit
// payer.available, credit payer.held — both on the same account, moving
// funds between buckets rather than between accounts.
func holdCreateLines(entryID ids.EntryID, payer ids.AccountID, amount valueobjects.Money) ([]entities.JournalLine, error) {
	debit, err := entities.NewJournalLine(entryID, payer, entities.SideDebit, amount, entities.BucketAvailable)
	if err != nil {
		return nil, err
	}
	credit, err := entities.NewJournalLine(entryID, payer, entities.SideCredit, amount, entities.BucketHeld)
	if err != nil {
		return nil, err
	}
	return []entities.JournalLine{debit, credit}, nil
}

// holdCaptureLines builds the lines for capturing c from a hold: debit
// payer.held, credit payee.available.
func holdCaptureLines(entryID ids.EntryID, payer, payee ids.AccountID, c valueobjects.Money) ([]entities.JournalLine, error) {
	debit, err := entities.NewJournalLine(entryID, payer, entities.SideDebit, c, entities.BucketHeld)
	if err != nil {
		return nil, err
	}
	credit, err := entities.NewJournalLine(entryID, payee, entities.SideCredit, c, entities.BucketAvailable)
	if err != nil {
		return nil, err
	}
	return []entities.JournalLine{debit, credit}, nil
}

// holdReleaseLines builds the lines for releasing r from a hold back to
// its payer: debit payer.held, credit payer.available.
func holdReleaseLines(entryID ids.EntryID, payer ids.AccountID, r valueobjects.Money) ([]entities.JournalLine, error) {
	debit, err := entities.NewJournalLine(entryID, payer, entities.SideDebit, r, entities.BucketHeld)
	if err != nil {
		return nil, err
	}
	credit, err := entities.NewJournalLine(entryID, payer, entities.SideCredit, r, entities.BucketAvailable)
	if err != nil {
		return nil, err
	}
	return []entities.JournalLine{debit, credit}, nil
}

// intentPayLines builds the lines for paying an intent: debit
// payer.available, credit payee.available — identical shape to a
// transfer, but issued through the intent state machine.
func intentPayLines(entryID ids.EntryID, payer, payee ids.AccountID, amount valueobjects.Money) ([]entities.JournalLine, error) {
	return transferLines(entryID, payer, payee, amount)
}

// refundLines builds the lines for refunding r from a payee back to the
// original payer: debit payee.available, credit payer.available.
func refundLines(entryID ids.EntryID, payee, payer ids.AccountID, r valueobjects.Money) ([]entities.JournalLine, error) {
	debit, err := entities.NewJournalLine(entryID, payee, entities.SideDebit, r, entities.BucketAvailable)
	if err != nil {
		return nil, err
	}
	credit, err := entities.NewJournalLine(entryID, payer, entities.SideCredit, r, entities.BucketAvailable)
	if err != nil {
		return nil, err
	}
	return []entities.JournalLine{debit, credit}, nil
}
