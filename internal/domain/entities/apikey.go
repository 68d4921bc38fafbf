package entities

import (
	"time"

	"github.com/wallethub/ledger/internal/domain/ids"
	"github.com/wallethub/ledger/internal/domain/valueobjects"
)

// APIKey is the caller identity every write operation authenticates as. It
// carries the scopes the key is allowed to invoke and an optional rolling
// spend ceiling, both configured out-of-band (operator-provisioned, not
// self-service), seeded into the store at startup and read back from the
// store on every operation.
type APIKey struct {
	id        ids.APIKeyID
	walletID  ids.WalletID
	scopes    ids.ScopeSet
	ceiling   *valueobjects.Money // nil if uncapped
	window    time.Duration       // rolling window the ceiling applies over
	createdAt time.Time
}

// NewAPIKey builds an APIKey. A nil ceiling means the key has no spend
// ceiling; window is ignored in that case.
func NewAPIKey(id ids.APIKeyID, walletID ids.WalletID, scopes ids.ScopeSet, ceiling *valueobjects.Money, window time.Duration) *APIKey {
	return &APIKey{
		id:        id,
		walletID:  walletID,
		scopes:    scopes,
		ceiling:   ceiling,
		window:    window,
		createdAt: time.Now().UTC(),
	}
}

func (k *APIKey) ID() ids.APIKeyID       { return k.id }
func (k *APIKey) WalletID() ids.WalletID { return k.walletID }
func (k *APIKey) CreatedAt() time.Time   { return k.createdAt }

// HasScope reports whether the key grants the given scope.
func (k *APIKey) HasScope(scope ids.Scope) bool {
	return k.scopes.Has(scope)
}

// HasCeiling reports whether the key has a spend ceiling configured.
func (k *APIKey) HasCeiling() bool {
	return k.ceiling != nil
}

// Ceiling returns the configured spend ceiling and window. Only meaningful
// when HasCeiling() is true.
func (k *APIKey) Ceiling() (valueobjects.Money, time.Duration) {
	if k.ceiling == nil {
		return valueobjects.Money{}, 0
	}
	return *k.ceiling, k.window
}

// Well-known scopes an API key may carry, per operation.
const (
	ScopeRead         ids.Scope = "READ"
	ScopeTransfer     ids.Scope = "TRANSFER"
	ScopeHold         ids.Scope = "HOLD"
	ScopeCapture      ids.Scope = "CAPTURE"
	ScopeRefund       ids.Scope = "REFUND"
	ScopeIntentCreate ids.Scope = "INTENT_CREATE"
	ScopeIntentPay    ids.Scope = "INTENT_PAY"
)
