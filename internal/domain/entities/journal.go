package entities

import (
	"time"

	"github.com/wallethub/ledger/internal/domain/errors"
	"github.com/wallethub/ledger/internal/domain/ids"
	"github.com/wallethub/ledger/internal/domain/valueobjects"
)

// EntryKind identifies which posting primitive produced a journal entry.
type EntryKind string

const (
	EntryKindTransfer  EntryKind = "TRANSFER"
	EntryKindHold      EntryKind = "HOLD"
	EntryKindCapture   EntryKind = "CAPTURE"
	EntryKindRelease   EntryKind = "RELEASE"
	EntryKindRefund    EntryKind = "REFUND"
	EntryKindIntentPay EntryKind = "INTENT_PAY"
)

// Side is which side of a journal line an amount sits on.
type Side string

const (
	SideDebit  Side = "DEBIT"
	SideCredit Side = "CREDIT"
)

// Bucket is which balance bucket a journal line affects.
type Bucket string

const (
	BucketAvailable Bucket = "AVAILABLE"
	BucketHeld      Bucket = "HELD"
)

// JournalLine is one leg of a balanced entry. Amount is always positive;
// direction is carried by Side, not by sign, so the ledger never deals in
// negative Money.
type JournalLine struct {
	id        ids.LineID
	entryID   ids.EntryID
	accountID ids.AccountID
	side      Side
	amount    valueobjects.Money
	bucket    Bucket
}

// NewJournalLine builds a line, rejecting a non-positive amount — the one
// invariant a line can violate on its own, independent of the entry it
// belongs to.
func NewJournalLine(entryID ids.EntryID, accountID ids.AccountID, side Side, amount valueobjects.Money, bucket Bucket) (JournalLine, error) {
	if !amount.IsPositive() {
		return JournalLine{}, errors.New(errors.KindValidation, "journal line amount must be positive")
	}
	return JournalLine{
		id:        ids.NewLineID(),
		entryID:   entryID,
		accountID: accountID,
		side:      side,
		amount:    amount,
		bucket:    bucket,
	}, nil
}

// ReconstructJournalLine hydrates a JournalLine from stored fields.
func ReconstructJournalLine(id ids.LineID, entryID ids.EntryID, accountID ids.AccountID, side Side, amount valueobjects.Money, bucket Bucket) JournalLine {
	return JournalLine{id: id, entryID: entryID, accountID: accountID, side: side, amount: amount, bucket: bucket}
}

func (l JournalLine) ID() ids.LineID             { return l.id }
func (l JournalLine) EntryID() ids.EntryID       { return l.entryID }
func (l JournalLine) AccountID() ids.AccountID   { return l.accountID }
func (l JournalLine) Side() Side                 { return l.side }
func (l JournalLine) Amount() valueobjects.Money { return l.amount }
func (l JournalLine) Bucket() Bucket             { return l.bucket }

// JournalEntry is an atomic, balanced group of lines. Entries and lines are
// append-only: once inserted, neither is ever mutated or deleted.
type JournalEntry struct {
	id             ids.EntryID
	kind           EntryKind
	initiatorID    ids.WalletID
	referenceID    string // optional client-supplied string, "" if absent
	metadata       map[string]string
	idempotencyKey ids.IdempotencyKey // "" if none
	linkedEntryID  ids.EntryID        // "" if none (capture->hold, refund->capture)
	lines          []JournalLine
	createdAt      time.Time
}

// NewJournalEntry builds and balance-checks an entry. An entry that does
// not balance (sum of debit amounts != sum of credit amounts, in a single
// currency) is rejected before it ever reaches the store — insert_entry on
// the store port is documented to reject unbalanced entries too, but the
// domain layer never relies on the store to catch its own bugs.
func NewJournalEntry(kind EntryKind, initiatorID ids.WalletID, referenceID string, metadata map[string]string, idempotencyKey ids.IdempotencyKey, linkedEntryID ids.EntryID, lines []JournalLine) (*JournalEntry, error) {
	if len(lines) == 0 {
		return nil, errors.New(errors.KindValidation, "entry must have at least one line")
	}

	var currency valueobjects.Currency
	var debitTotal, creditTotal valueobjects.Money
	for i, line := range lines {
		if i == 0 {
			currency = line.Amount().Currency()
			debitTotal = valueobjects.Zero(currency)
			creditTotal = valueobjects.Zero(currency)
		} else if !line.Amount().Currency().Equals(currency) {
			return nil, errors.New(errors.KindCurrencyMismatch, "entry lines must share one currency")
		}

		var err error
		switch line.Side() {
		case SideDebit:
			debitTotal, err = debitTotal.Add(line.Amount())
		case SideCredit:
			creditTotal, err = creditTotal.Add(line.Amount())
		default:
			return nil, errors.New(errors.KindValidation, "line has unknown side")
		}
		if err != nil {
			return nil, errors.Wrap(errors.KindArithmeticError, "failed summing entry lines", err)
		}
	}

	if !debitTotal.Equals(creditTotal) {
		return nil, errors.New(errors.KindValidation, "entry is not balanced: debits must equal credits")
	}

	return &JournalEntry{
		id:             ids.NewEntryID(),
		kind:           kind,
		initiatorID:    initiatorID,
		referenceID:    referenceID,
		metadata:       metadata,
		idempotencyKey: idempotencyKey,
		linkedEntryID:  linkedEntryID,
		lines:          lines,
		createdAt:      time.Now().UTC(),
	}, nil
}

// ReconstructJournalEntry hydrates a JournalEntry from stored fields,
// skipping the balance re-check: a committed entry is trusted by
// construction, and re-validating on every read would be wasted work.
func ReconstructJournalEntry(id ids.EntryID, kind EntryKind, initiatorID ids.WalletID, referenceID string, metadata map[string]string, idempotencyKey ids.IdempotencyKey, linkedEntryID ids.EntryID, lines []JournalLine, createdAt time.Time) *JournalEntry {
	return &JournalEntry{
		id:             id,
		kind:           kind,
		initiatorID:    initiatorID,
		referenceID:    referenceID,
		metadata:       metadata,
		idempotencyKey: idempotencyKey,
		linkedEntryID:  linkedEntryID,
		lines:          lines,
		createdAt:      createdAt,
	}
}

func (e *JournalEntry) ID() ids.EntryID                    { return e.id }
func (e *JournalEntry) Kind() EntryKind                    { return e.kind }
func (e *JournalEntry) InitiatorID() ids.WalletID          { return e.initiatorID }
func (e *JournalEntry) ReferenceID() string                { return e.referenceID }
func (e *JournalEntry) Metadata() map[string]string        { return e.metadata }
func (e *JournalEntry) IdempotencyKey() ids.IdempotencyKey { return e.idempotencyKey }
func (e *JournalEntry) LinkedEntryID() ids.EntryID         { return e.linkedEntryID }
func (e *JournalEntry) Lines() []JournalLine               { return e.lines }
func (e *JournalEntry) CreatedAt() time.Time               { return e.createdAt }

// LinesForAccount returns the subset of lines touching the given account,
// used by callers that need only one account's side of a multi-account
// entry (e.g. rendering a transaction-history page).
func (e *JournalEntry) LinesForAccount(accountID ids.AccountID) []JournalLine {
	var out []JournalLine
	for _, l := range e.lines {
		if l.AccountID() == accountID {
			out = append(out, l)
		}
	}
	return out
}
