package entities

import (
	"time"

	"github.com/wallethub/ledger/internal/domain/ids"
)

// IdempotencyStatus is the lifecycle of a reserved idempotency key.
type IdempotencyStatus string

const (
	IdempotencyStatusInFlight  IdempotencyStatus = "IN_FLIGHT"
	IdempotencyStatusCompleted IdempotencyStatus = "COMPLETED"
	IdempotencyStatusFailed    IdempotencyStatus = "FAILED"
)

// IsTerminal reports whether the record is immutable from here on.
func (s IdempotencyStatus) IsTerminal() bool {
	return s == IdempotencyStatusCompleted || s == IdempotencyStatusFailed
}

// IdempotencyRecord is scoped to (api-key-id, key); it is never looked up
// any other way. ResponseSnapshot holds the exact bytes the adapter
// returned the first time, so a replay is byte-for-byte identical to the
// original response.
type IdempotencyRecord struct {
	APIKeyID           ids.APIKeyID
	Key                ids.IdempotencyKey
	Status             IdempotencyStatus
	RequestFingerprint string
	ResponseSnapshot   []byte
	CreatedAt          time.Time
}

// NewIdempotencyRecord builds an IN_FLIGHT record to reserve a key.
func NewIdempotencyRecord(apiKeyID ids.APIKeyID, key ids.IdempotencyKey, fingerprint string) IdempotencyRecord {
	return IdempotencyRecord{
		APIKeyID:           apiKeyID,
		Key:                key,
		Status:             IdempotencyStatusInFlight,
		RequestFingerprint: fingerprint,
		CreatedAt:          time.Now().UTC(),
	}
}
