// Package events defines the domain events the ledger raises as facts about
// what already happened. Events are immutable and collected during an
// executor run, then published to the outbox in the same store
// transaction as the state change they describe — so a reader of the
// outbox never sees an event for a change that didn't commit.
//
// Pattern: Domain Events (Observer Pattern foundation), generalized from the
// teacher's BaseEvent + EventType-constants pattern.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/wallethub/ledger/internal/domain/ids"
	"github.com/wallethub/ledger/internal/domain/valueobjects"
)

// DomainEvent is the interface every ledger event satisfies.
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	AggregateID() string
}

// BaseEvent carries the fields common to every event. Embedded in each
// concrete event type to avoid repeating them.
type BaseEvent struct {
	eventID     uuid.UUID
	eventType   string
	occurredAt  time.Time
	aggregateID string
}

func newBaseEvent(eventType, aggregateID string) BaseEvent {
	return BaseEvent{
		eventID:     uuid.New(),
		eventType:   eventType,
		occurredAt:  time.Now().UTC(),
		aggregateID: aggregateID,
	}
}

func (e BaseEvent) EventID() uuid.UUID    { return e.eventID }
func (e BaseEvent) EventType() string     { return e.eventType }
func (e BaseEvent) OccurredAt() time.Time { return e.occurredAt }
func (e BaseEvent) AggregateID() string   { return e.aggregateID }

// Event type constants, used both for in-process type switches and as the
// "type" column written to the outbox table.
const (
	EventTypeEntryPosted    = "ledger.entry.posted"
	EventTypeHoldCreated    = "ledger.hold.created"
	EventTypeHoldCaptured   = "ledger.hold.captured"
	EventTypeHoldReleased   = "ledger.hold.released"
	EventTypeHoldExpired    = "ledger.hold.expired"
	EventTypeIntentCreated  = "ledger.intent.created"
	EventTypeIntentPaid     = "ledger.intent.paid"
	EventTypeIntentExpired  = "ledger.intent.expired"
	EventTypeIntentCanceled = "ledger.intent.canceled"
	EventTypeRefundPosted   = "ledger.refund.posted"
)

// EntryPosted is raised whenever a journal entry is committed, regardless
// of which operation produced it.
type EntryPosted struct {
	BaseEvent
	EntryID        ids.EntryID
	IdempotencyKey string
	LineCount      int
}

func NewEntryPosted(entryID ids.EntryID, idempotencyKey string, lineCount int) *EntryPosted {
	return &EntryPosted{
		BaseEvent:      newBaseEvent(EventTypeEntryPosted, entryID.String()),
		EntryID:        entryID,
		IdempotencyKey: idempotencyKey,
		LineCount:      lineCount,
	}
}

// HoldCreated is raised when a hold is placed against a wallet.
type HoldCreated struct {
	BaseEvent
	HoldID   ids.HoldID
	WalletID ids.WalletID
	Amount   valueobjects.Money
}

func NewHoldCreated(holdID ids.HoldID, walletID ids.WalletID, amount valueobjects.Money) *HoldCreated {
	return &HoldCreated{
		BaseEvent: newBaseEvent(EventTypeHoldCreated, holdID.String()),
		HoldID:    holdID,
		WalletID:  walletID,
		Amount:    amount,
	}
}

// HoldCaptured is raised when some or all of a hold is captured.
type HoldCaptured struct {
	BaseEvent
	HoldID         ids.HoldID
	WalletID       ids.WalletID
	CapturedAmount valueobjects.Money
	FullyCaptured  bool
}

func NewHoldCaptured(holdID ids.HoldID, walletID ids.WalletID, capturedAmount valueobjects.Money, fullyCaptured bool) *HoldCaptured {
	return &HoldCaptured{
		BaseEvent:      newBaseEvent(EventTypeHoldCaptured, holdID.String()),
		HoldID:         holdID,
		WalletID:       walletID,
		CapturedAmount: capturedAmount,
		FullyCaptured:  fullyCaptured,
	}
}

// HoldReleased is raised when a hold is voluntarily released.
type HoldReleased struct {
	BaseEvent
	HoldID         ids.HoldID
	WalletID       ids.WalletID
	ReleasedAmount valueobjects.Money
}

func NewHoldReleased(holdID ids.HoldID, walletID ids.WalletID, releasedAmount valueobjects.Money) *HoldReleased {
	return &HoldReleased{
		BaseEvent:      newBaseEvent(EventTypeHoldReleased, holdID.String()),
		HoldID:         holdID,
		WalletID:       walletID,
		ReleasedAmount: releasedAmount,
	}
}

// HoldExpired is raised when a hold is found past its expiry and lazily
// transitioned to EXPIRED, releasing whatever remained uncaptured.
type HoldExpired struct {
	BaseEvent
	HoldID         ids.HoldID
	WalletID       ids.WalletID
	ReleasedAmount valueobjects.Money
}

func NewHoldExpired(holdID ids.HoldID, walletID ids.WalletID, releasedAmount valueobjects.Money) *HoldExpired {
	return &HoldExpired{
		BaseEvent:      newBaseEvent(EventTypeHoldExpired, holdID.String()),
		HoldID:         holdID,
		WalletID:       walletID,
		ReleasedAmount: releasedAmount,
	}
}

// IntentCreated is raised when a payment intent is created.
type IntentCreated struct {
	BaseEvent
	IntentID ids.IntentID
	WalletID ids.WalletID
	Amount   valueobjects.Money
}

func NewIntentCreated(intentID ids.IntentID, walletID ids.WalletID, amount valueobjects.Money) *IntentCreated {
	return &IntentCreated{
		BaseEvent: newBaseEvent(EventTypeIntentCreated, intentID.String()),
		IntentID:  intentID,
		WalletID:  walletID,
		Amount:    amount,
	}
}

// IntentPaid is raised when a payment intent transitions to PAID.
type IntentPaid struct {
	BaseEvent
	IntentID ids.IntentID
	PayerID  ids.WalletID
	WalletID ids.WalletID
	Amount   valueobjects.Money
}

func NewIntentPaid(intentID ids.IntentID, payerID, walletID ids.WalletID, amount valueobjects.Money) *IntentPaid {
	return &IntentPaid{
		BaseEvent: newBaseEvent(EventTypeIntentPaid, intentID.String()),
		IntentID:  intentID,
		PayerID:   payerID,
		WalletID:  walletID,
		Amount:    amount,
	}
}

// IntentExpired is raised when an intent is found past its expiry and
// lazily transitioned to EXPIRED.
type IntentExpired struct {
	BaseEvent
	IntentID ids.IntentID
}

func NewIntentExpired(intentID ids.IntentID) *IntentExpired {
	return &IntentExpired{BaseEvent: newBaseEvent(EventTypeIntentExpired, intentID.String()), IntentID: intentID}
}

// IntentCanceled is raised when a pending intent is canceled by its owner.
type IntentCanceled struct {
	BaseEvent
	IntentID ids.IntentID
}

func NewIntentCanceled(intentID ids.IntentID) *IntentCanceled {
	return &IntentCanceled{BaseEvent: newBaseEvent(EventTypeIntentCanceled, intentID.String()), IntentID: intentID}
}

// RefundPosted is raised when a refund is successfully posted against a
// captured hold or a paid intent.
type RefundPosted struct {
	BaseEvent
	RefundID ids.RefundID
	SourceID string // the CAPTURE or INTENT_PAY entry id being refunded
	WalletID ids.WalletID
	Amount   valueobjects.Money
}

func NewRefundPosted(refundID ids.RefundID, sourceID string, walletID ids.WalletID, amount valueobjects.Money) *RefundPosted {
	return &RefundPosted{
		BaseEvent: newBaseEvent(EventTypeRefundPosted, refundID.String()),
		RefundID:  refundID,
		SourceID:  sourceID,
		WalletID:  walletID,
		Amount:    amount,
	}
}

// Collector gathers events raised during a single executor run so they can
// be published to the outbox atomically with the store transaction that
// produced them.
type Collector struct {
	events []DomainEvent
}

// NewCollector returns an empty event collector.
func NewCollector() *Collector {
	return &Collector{events: make([]DomainEvent, 0, 4)}
}

// Add appends an event to the collector.
func (c *Collector) Add(event DomainEvent) {
	c.events = append(c.events, event)
}

// Events returns everything collected so far.
func (c *Collector) Events() []DomainEvent {
	return c.events
}
