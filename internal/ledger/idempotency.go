package ledger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/wallethub/ledger/internal/application/ports"
	"github.com/wallethub/ledger/internal/domain/entities"
	"github.com/wallethub/ledger/internal/domain/errors"
	"github.com/wallethub/ledger/internal/domain/ids"
)

// IdempotencyManager implements the reserve/complete protocol scoped to
// (api-key-id, key). Reserve and Complete are always called from inside
// the same store transaction as the posting they guard, so a crash or
// rollback between them leaves no IN_FLIGHT straggler visible to anyone
// else.
type IdempotencyManager struct {
	store ports.LedgerStore
}

// NewIdempotencyManager builds an IdempotencyManager over the given store.
func NewIdempotencyManager(store ports.LedgerStore) *IdempotencyManager {
	return &IdempotencyManager{store: store}
}

// Fingerprint canonicalizes a request body into a stable hash used to
// detect a key reused for a different request. Canonical here means
// "exactly the bytes the adapter serialized the validated request to" —
// field order and whitespace only matter insofar as the adapter is
// consistent about producing them, which it is by construction (it always
// marshals the same typed struct).
func Fingerprint(canonicalRequest []byte) string {
	sum := sha256.Sum256(canonicalRequest)
	return hex.EncodeToString(sum[:])
}

// ReserveResult is what Reserve returns.
type ReserveResult struct {
	// Fresh is true when no prior record existed and the caller should
	// proceed with the operation.
	Fresh bool

	// Replay holds the prior response snapshot when a completed or failed
	// record with a matching fingerprint already exists. The caller
	// returns this verbatim without re-running anything.
	Replay []byte

	// InProgress is true when a concurrent duplicate request is still
	// IN_FLIGHT. The caller surfaces IDEMPOTENCY_IN_PROGRESS.
	InProgress bool

	// Conflict is true when the key was reused with a different request
	// body. The caller surfaces IDEMPOTENCY_CONFLICT.
	Conflict bool
}

// Reserve attempts to reserve (apiKeyID, key) for a request with the given
// fingerprint, inside tx.
func (m *IdempotencyManager) Reserve(ctx context.Context, tx ports.Tx, apiKeyID ids.APIKeyID, key ids.IdempotencyKey, fingerprint string) (ReserveResult, error) {
	reservation, err := m.store.IdempotencyReserve(ctx, tx, apiKeyID, key, fingerprint)
	if err != nil {
		return ReserveResult{}, errors.Wrap(errors.KindStoreError, "failed to reserve idempotency key", err)
	}

	switch reservation.Outcome {
	case ports.IdempotencyFresh:
		return ReserveResult{Fresh: true}, nil
	case ports.IdempotencyReplay:
		return ReserveResult{Replay: reservation.Record.ResponseSnapshot}, nil
	case ports.IdempotencyConflict:
		if reservation.Record.Status == entities.IdempotencyStatusInFlight {
			return ReserveResult{InProgress: true}, nil
		}
		return ReserveResult{Conflict: true}, nil
	default:
		return ReserveResult{}, errors.New(errors.KindStoreError, "unrecognized idempotency reservation outcome")
	}
}

// Complete records the final outcome for a previously reserved key, within
// the same tx as the posting it guards. status must be COMPLETED or
// FAILED — IN_FLIGHT is a reservation-time status only.
func (m *IdempotencyManager) Complete(ctx context.Context, tx ports.Tx, apiKeyID ids.APIKeyID, key ids.IdempotencyKey, status entities.IdempotencyStatus, snapshot []byte) error {
	if err := m.store.IdempotencyComplete(ctx, tx, apiKeyID, key, status, snapshot); err != nil {
		return errors.Wrap(errors.KindStoreError, "failed to complete idempotency record", err)
	}
	return nil
}
