package handlers

import (
	"fmt"
	"time"

	"github.com/wallethub/ledger/internal/domain/entities"
	"github.com/wallethub/ledger/internal/domain/valueobjects"
	"github.com/wallethub/ledger/internal/ledger"
)

// The domain entities carry unexported fields by design (construction
// must go through their invariant-checking constructors) so none of them
// marshal to JSON directly. These DTOs are the HTTP adapter's own view of
// each entity, built once per response.

// moneyString renders amount as a bare decimal string (no currency code)
// scaled to the currency's minor unit, e.g. "19.99".
func moneyString(m valueobjects.Money) string {
	scale := m.Currency().Scale()
	units := m.MinorUnits()
	if scale == 0 {
		return fmt.Sprintf("%d", units)
	}
	factor := int64(1)
	for i := 0; i < scale; i++ {
		factor *= 10
	}
	whole := units / factor
	frac := units % factor
	return fmt.Sprintf("%d.%0*d", whole, scale, frac)
}

type journalLineDTO struct {
	AccountID string `json:"account_id"`
	Side      string `json:"side"`
	Bucket    string `json:"bucket"`
	Amount    string `json:"amount"`
}

type journalEntryDTO struct {
	ID             string            `json:"id"`
	Kind           string            `json:"kind"`
	InitiatorID    string            `json:"initiator_wallet_id,omitempty"`
	ReferenceID    string            `json:"reference_id,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	IdempotencyKey string            `json:"idempotency_key,omitempty"`
	LinkedEntryID  string            `json:"linked_entry_id,omitempty"`
	Currency       string            `json:"currency"`
	Lines          []journalLineDTO  `json:"lines"`
	CreatedAt      time.Time         `json:"created_at"`
}

func newJournalEntryDTO(entry *entities.JournalEntry) journalEntryDTO {
	lines := entry.Lines()
	lineDTOs := make([]journalLineDTO, len(lines))
	currency := ""
	for i, l := range lines {
		lineDTOs[i] = journalLineDTO{
			AccountID: l.AccountID().String(),
			Side:      string(l.Side()),
			Bucket:    string(l.Bucket()),
			Amount:    moneyString(l.Amount()),
		}
		currency = l.Amount().Currency().Code()
	}
	return journalEntryDTO{
		ID:             entry.ID().String(),
		Kind:           string(entry.Kind()),
		InitiatorID:    entry.InitiatorID().String(),
		ReferenceID:    entry.ReferenceID(),
		Metadata:       entry.Metadata(),
		IdempotencyKey: entry.IdempotencyKey().String(),
		LinkedEntryID:  entry.LinkedEntryID().String(),
		Currency:       currency,
		Lines:          lineDTOs,
		CreatedAt:      entry.CreatedAt(),
	}
}

type holdDTO struct {
	ID              string    `json:"id"`
	PayerAccountID  string    `json:"payer_account_id"`
	Currency        string    `json:"currency"`
	Amount          string    `json:"amount"`
	Remaining       string    `json:"remaining"`
	Status          string    `json:"status"`
	ExpiresAt       time.Time `json:"expires_at"`
	CreatedAt       time.Time `json:"created_at"`
	CreatingEntryID string    `json:"creating_entry_id"`
}

func newHoldDTO(h *entities.Hold) holdDTO {
	return holdDTO{
		ID:              h.ID().String(),
		PayerAccountID:  h.PayerAccountID().String(),
		Currency:        h.Currency().Code(),
		Amount:          moneyString(h.Amount()),
		Remaining:       moneyString(h.Remaining()),
		Status:          string(h.Status()),
		ExpiresAt:       h.ExpiresAt(),
		CreatedAt:       h.CreatedAt(),
		CreatingEntryID: h.CreatingEntryID().String(),
	}
}

type intentDTO struct {
	ID              string            `json:"id"`
	PayeeAccountID  string            `json:"payee_account_id"`
	CreatorWalletID string            `json:"creator_wallet_id"`
	Currency        string            `json:"currency"`
	Amount          string            `json:"amount"`
	Status          string            `json:"status"`
	ExpiresAt       time.Time         `json:"expires_at"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	PaidEntryID     string            `json:"paid_entry_id,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
}

func newIntentDTO(p *entities.PaymentIntent) intentDTO {
	return intentDTO{
		ID:              p.ID().String(),
		PayeeAccountID:  p.PayeeAccountID().String(),
		CreatorWalletID: p.CreatorWalletID().String(),
		Currency:        p.Currency().Code(),
		Amount:          moneyString(p.Amount()),
		Status:          string(p.Status()),
		ExpiresAt:       p.ExpiresAt(),
		Metadata:        p.Metadata(),
		PaidEntryID:     p.PaidEntryID().String(),
		CreatedAt:       p.CreatedAt(),
	}
}

type refundDTO struct {
	ID             string    `json:"id"`
	CaptureEntryID string    `json:"source_entry_id"`
	Amount         string    `json:"amount"`
	Status         string    `json:"status"`
	PostingEntryID string    `json:"posting_entry_id"`
	CreatedAt      time.Time `json:"created_at"`
}

func newRefundDTO(r *entities.Refund) refundDTO {
	return refundDTO{
		ID:             r.ID().String(),
		CaptureEntryID: r.CaptureEntryID().String(),
		Amount:         moneyString(r.Amount()),
		Status:         string(r.Status()),
		PostingEntryID: r.PostingEntryID().String(),
		CreatedAt:      r.CreatedAt(),
	}
}

type balanceDTO struct {
	Currency  string `json:"currency"`
	Available string `json:"available"`
	Held      string `json:"held"`
	Total     string `json:"total"`
}

func newBalanceDTO(b ledger.Balance) balanceDTO {
	return balanceDTO{
		Currency:  b.Currency.Code(),
		Available: moneyString(b.Available),
		Held:      moneyString(b.Held),
		Total:     moneyString(b.Total),
	}
}
