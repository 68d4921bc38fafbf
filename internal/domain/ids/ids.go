// Package ids defines the opaque, typed identifiers used across the ledger.
// Typing ids by entity (AccountID vs WalletID vs HoldID) prevents the
// classic bug of passing a wallet id where an account id is expected; the
// compiler catches it instead of a 500 in production.
package ids

import (
	"strings"

	"github.com/google/uuid"
)

// AccountID identifies an account, the unit that rows are locked by.
type AccountID string

// WalletID identifies a wallet, the unit money is posted against.
type WalletID string

// EntryID identifies a journal entry (a balanced group of journal lines).
type EntryID string

// LineID identifies a single journal line within an entry.
type LineID string

// HoldID identifies a hold placed against a wallet's available balance.
type HoldID string

// IntentID identifies a payment intent.
type IntentID string

// RefundID identifies a refund against a captured hold or paid intent.
type RefundID string

// APIKeyID identifies the caller whose scope and limits govern a request.
// It doubles as the idempotency namespace: the same key string from two
// different API keys is two different idempotency records.
type APIKeyID string

func newID() string { return uuid.NewString() }

// NewAccountID mints a fresh account id.
func NewAccountID() AccountID { return AccountID(newID()) }

// NewWalletID mints a fresh wallet id.
func NewWalletID() WalletID { return WalletID(newID()) }

// NewEntryID mints a fresh journal entry id.
func NewEntryID() EntryID { return EntryID(newID()) }

// NewLineID mints a fresh journal line id.
func NewLineID() LineID { return LineID(newID()) }

// NewHoldID mints a fresh hold id.
func NewHoldID() HoldID { return HoldID(newID()) }

// NewIntentID mints a fresh payment intent id.
func NewIntentID() IntentID { return IntentID(newID()) }

// NewRefundID mints a fresh refund id.
func NewRefundID() RefundID { return RefundID(newID()) }

func (id AccountID) String() string { return string(id) }
func (id WalletID) String() string  { return string(id) }
func (id EntryID) String() string   { return string(id) }
func (id LineID) String() string    { return string(id) }
func (id HoldID) String() string    { return string(id) }
func (id IntentID) String() string  { return string(id) }
func (id RefundID) String() string  { return string(id) }
func (id APIKeyID) String() string  { return string(id) }

func (id AccountID) IsZero() bool { return id == "" }
func (id WalletID) IsZero() bool  { return id == "" }
func (id HoldID) IsZero() bool    { return id == "" }
func (id IntentID) IsZero() bool  { return id == "" }

// IdempotencyKey is the caller-supplied key from the Idempotency-Key
// header, canonicalized so that incidental whitespace differences don't
// create two idempotency records for what the caller intended as one
// request.
type IdempotencyKey string

// NewIdempotencyKey trims a raw header value. An empty key
// after trimming is rejected by the caller (validation happens at the HTTP
// boundary, not here) — this constructor only canonicalizes.
func NewIdempotencyKey(raw string) IdempotencyKey {
	return IdempotencyKey(strings.TrimSpace(raw))
}

func (k IdempotencyKey) String() string { return string(k) }
func (k IdempotencyKey) IsEmpty() bool  { return k == "" }

// Scope is a single permission a caller's API key grants, e.g. "TRANSFER",
// "HOLD", "REFUND". Authorization checks membership in a ScopeSet.
type Scope string

// ScopeSet is the set of scopes an API key carries.
type ScopeSet map[Scope]struct{}

// NewScopeSet builds a ScopeSet from a list of scope strings.
func NewScopeSet(scopes ...string) ScopeSet {
	set := make(ScopeSet, len(scopes))
	for _, s := range scopes {
		set[Scope(strings.TrimSpace(s))] = struct{}{}
	}
	return set
}

// Has reports whether the set grants the given scope.
func (s ScopeSet) Has(scope Scope) bool {
	_, ok := s[scope]
	return ok
}
