package entities

import (
	"time"

	"github.com/wallethub/ledger/internal/domain/errors"
	"github.com/wallethub/ledger/internal/domain/ids"
	"github.com/wallethub/ledger/internal/domain/valueobjects"
)

// RefundStatus reports whether a refund posted successfully.
type RefundStatus string

const (
	RefundStatusPosted RefundStatus = "POSTED"
	RefundStatusFailed RefundStatus = "FAILED"
)

// Refund reverses part or all of a captured hold or a paid intent. A
// refund is only ever created once its precondition (amount plus prior
// refunds not exceeding the original capture) has already been verified
// under the payee account's lock — NewRefund itself does not have access
// to prior-refund totals, so that check is CheckRefundable below, which the
// ledger engine (ledger/refunds.go) runs before calling NewRefund.
type Refund struct {
	id             ids.RefundID
	captureEntryID ids.EntryID
	amount         valueobjects.Money
	status         RefundStatus
	postingEntryID ids.EntryID // "" if FAILED
	createdAt      time.Time
}

// NewRefund creates a POSTED refund record alongside the entry that
// carried its lines.
func NewRefund(captureEntryID ids.EntryID, amount valueobjects.Money, postingEntryID ids.EntryID) (*Refund, error) {
	if !amount.IsPositive() {
		return nil, errors.New(errors.KindValidation, "refund amount must be positive").WithField("amount")
	}
	return &Refund{
		id:             ids.NewRefundID(),
		captureEntryID: captureEntryID,
		amount:         amount,
		status:         RefundStatusPosted,
		postingEntryID: postingEntryID,
		createdAt:      time.Now().UTC(),
	}, nil
}

// ReconstructRefund hydrates a Refund from stored fields.
func ReconstructRefund(id ids.RefundID, captureEntryID ids.EntryID, amount valueobjects.Money, status RefundStatus, postingEntryID ids.EntryID, createdAt time.Time) *Refund {
	return &Refund{id: id, captureEntryID: captureEntryID, amount: amount, status: status, postingEntryID: postingEntryID, createdAt: createdAt}
}

func (r *Refund) ID() ids.RefundID            { return r.id }
func (r *Refund) CaptureEntryID() ids.EntryID { return r.captureEntryID }
func (r *Refund) Amount() valueobjects.Money  { return r.amount }
func (r *Refund) Status() RefundStatus        { return r.status }
func (r *Refund) PostingEntryID() ids.EntryID { return r.postingEntryID }
func (r *Refund) CreatedAt() time.Time        { return r.createdAt }

// CheckRefundable verifies r + priorRefunded <= captureAmount, returning
// REFUND_EXCEEDS_CAPTURE otherwise. Called by the engine under the payee
// account's lock, with priorRefunded computed from the store.
func CheckRefundable(requested, priorRefunded, captureAmount valueobjects.Money) error {
	total, err := requested.Add(priorRefunded)
	if err != nil {
		return errors.Wrap(errors.KindArithmeticError, "failed summing refund totals", err)
	}
	ok, err := captureAmount.GreaterThanOrEqual(total)
	if err != nil {
		return errors.Wrap(errors.KindCurrencyMismatch, "refund currency mismatch", err)
	}
	if !ok {
		return errors.New(errors.KindRefundExceedsCapture, "refund would exceed the capture's amount")
	}
	return nil
}
