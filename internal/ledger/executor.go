package ledger

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/codes"

	"github.com/wallethub/ledger/internal/application/ports"
	"github.com/wallethub/ledger/internal/domain/entities"
	ledgererrors "github.com/wallethub/ledger/internal/domain/errors"
	"github.com/wallethub/ledger/internal/domain/events"
	"github.com/wallethub/ledger/internal/domain/ids"
)

// maxAttempts bounds how many times the executor retries one operation
// after a serialization conflict before surfacing TRANSIENT_CONFLICT to the
// caller.
const maxAttempts = 3

// Executor is the single place every write operation passes through: it
// reserves the idempotency key, authorizes the caller, opens a store
// transaction, acquires account locks in a fixed order, runs the operation's
// body, and commits — retrying the whole attempt on a detected
// serialization conflict. Every external operation (transfer, hold
// create/capture/release, intent create/pay, refund) is a thin method on
// Executor that supplies only the part specific to it.
type Executor struct {
	store      ports.LedgerStore
	publisher  ports.EventPublisher
	resolver   *Resolver
	balances   *BalanceCalculator
	idempotent *IdempotencyManager
	authz      *Authorizer
}

// NewExecutor wires an Executor from its collaborators. limiter may be nil.
func NewExecutor(store ports.LedgerStore, publisher ports.EventPublisher, limiter SpendLimiter) *Executor {
	return &Executor{
		store:      store,
		publisher:  publisher,
		resolver:   NewResolver(store),
		balances:   NewBalanceCalculator(store),
		idempotent: NewIdempotencyManager(store),
		authz:      NewAuthorizer(store, limiter),
	}
}

// opFunc is the body of one operation, run inside an open transaction with
// the idempotency key already reserved. It returns the response snapshot to
// record against the idempotency key (and to return to the caller) plus
// whatever domain events the operation raised.
type opFunc func(ctx context.Context, tx ports.Tx) (snapshot []byte, raised []events.DomainEvent, err error)

// run is the shared attempt/retry/commit loop every public operation method
// funnels through. idempotencyKey may be empty, in which case the
// idempotency protocol is skipped entirely (used by ExpireHold, which acts
// on no caller's behalf).
func (e *Executor) run(ctx context.Context, operation string, apiKeyID ids.APIKeyID, idempotencyKey ids.IdempotencyKey, fingerprint string, body opFunc) ([]byte, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "ledger.executor."+operation)
	defer span.End()
	span.SetAttributes(operationAttrs(operation, apiKeyID.String())...)

	var lastErr error
	attempt := 0
	for attempt = 1; attempt <= maxAttempts; attempt++ {
		snapshot, retry, err := e.attempt(ctx, operation, apiKeyID, idempotencyKey, fingerprint, body)
		spanStatusAttrs(span, attempt, err)
		if retry {
			lastErr = ports.ErrSerializationConflict
			continue
		}
		if err == nil {
			recordExecutorRun(operation, attempt, time.Since(start))
			span.SetStatus(codes.Ok, "")
			return snapshot, nil
		}
		lastErr = err
		if !retry {
			recordExecutorRun(operation, attempt, time.Since(start))
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
	}
	recordExecutorRun(operation, attempt-1, time.Since(start))
	span.SetStatus(codes.Error, "retries exhausted")
	return nil, ledgererrors.Wrap(ledgererrors.KindTransientConflict, "operation could not complete after repeated serialization conflicts", lastErr)
}

// attempt runs exactly one pass of idempotency reservation, the operation
// body, and commit. The bool return reports whether the caller should retry
// the whole attempt (true only for a detected serialization conflict).
func (e *Executor) attempt(ctx context.Context, operation string, apiKeyID ids.APIKeyID, idempotencyKey ids.IdempotencyKey, fingerprint string, body opFunc) ([]byte, bool, error) {
	tx, err := e.store.BeginTx(ctx)
	if err != nil {
		return nil, false, ledgererrors.Wrap(ledgererrors.KindStoreError, "failed to begin transaction", err)
	}
	defer tx.Rollback(ctx)

	if !idempotencyKey.IsEmpty() {
		reservation, err := e.idempotent.Reserve(ctx, tx, apiKeyID, idempotencyKey, fingerprint)
		if err != nil {
			return nil, false, err
		}
		switch {
		case reservation.Replay != nil:
			recordIdempotencyOutcome("replay")
			return reservation.Replay, false, nil
		case reservation.InProgress:
			recordIdempotencyOutcome("in_progress")
			return nil, false, ledgererrors.New(ledgererrors.KindIdempotencyInProgress, "a request with this idempotency key is still in flight")
		case reservation.Conflict:
			recordIdempotencyOutcome("conflict")
			return nil, false, ledgererrors.New(ledgererrors.KindIdempotencyConflict, "idempotency key was already used for a different request")
		}
		recordIdempotencyOutcome("fresh")
	}

	snapshot, raised, err := body(ctx, tx)
	if err != nil {
		if !idempotencyKey.IsEmpty() {
			_ = e.idempotent.Complete(ctx, tx, apiKeyID, idempotencyKey, entities.IdempotencyStatusFailed, []byte(err.Error()))
		}
		if isSerializationConflict(err) {
			recordEntry(operation, "conflict", "", 0)
			return nil, true, nil
		}
		recordEntry(operation, "error", "", 0)
		switch ledgererrors.KindOf(err) {
		case ledgererrors.KindStoreError, ledgererrors.KindArithmeticError,
			ledgererrors.KindTimeout, ledgererrors.KindTransientConflict:
			// Internal and transient failures are not snapshotted: the
			// deferred rollback leaves the key as if never reserved.
			return nil, false, err
		}
		// A client-input or state-precondition failure is final: its
		// FAILED record is committed so a later request with the same key
		// finds it instead of running the operation again.
		if commitErr := tx.Commit(ctx); commitErr != nil && isSerializationConflict(commitErr) {
			return nil, true, nil
		}
		return nil, false, err
	}

	if !idempotencyKey.IsEmpty() {
		if err := e.idempotent.Complete(ctx, tx, apiKeyID, idempotencyKey, entities.IdempotencyStatusCompleted, snapshot); err != nil {
			return nil, false, err
		}
	}

	if len(raised) > 0 && e.publisher != nil {
		records := make([]ports.EventRecord, 0, len(raised))
		for _, evt := range raised {
			records = append(records, ports.EventRecord{
				EventType:   evt.EventType(),
				AggregateID: evt.AggregateID(),
				Payload:     snapshot,
				OccurredAt:  evt.OccurredAt(),
			})
		}
		if err := e.publisher.Enqueue(ctx, tx, records); err != nil {
			return nil, false, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		if isSerializationConflict(err) {
			recordEntry(operation, "conflict", "", 0)
			return nil, true, nil
		}
		return nil, false, ledgererrors.Wrap(ledgererrors.KindStoreError, "failed to commit transaction", err)
	}

	recordEntry(operation, "success", "", 0)
	return snapshot, false, nil
}

// isSerializationConflict reports whether err is the store's serialization-
// conflict sentinel, possibly wrapped in a LedgerError.
func isSerializationConflict(err error) bool {
	return errors.Is(err, ports.ErrSerializationConflict)
}

// lockAccountsAscending locks a set of accounts in ascending AccountID
// order, the sole mechanism the engine relies on to avoid deadlocking
// against another attempt locking the same accounts in a different order.
// Duplicate ids (an operation against a single account, e.g. hold create)
// are locked once.
func lockAccountsAscending(ctx context.Context, store ports.LedgerStore, tx ports.Tx, accountIDs ...ids.AccountID) (map[ids.AccountID]*entities.Account, error) {
	ordered := dedupeAndSort(accountIDs)
	locked := make(map[ids.AccountID]*entities.Account, len(ordered))
	for _, id := range ordered {
		account, err := store.LockAccount(ctx, tx, id)
		if err != nil {
			return nil, ledgererrors.Wrap(ledgererrors.KindStoreError, "failed to lock account", err)
		}
		locked[id] = account
	}
	return locked, nil
}

func dedupeAndSort(accountIDs []ids.AccountID) []ids.AccountID {
	seen := make(map[ids.AccountID]struct{}, len(accountIDs))
	out := make([]ids.AccountID, 0, len(accountIDs))
	for _, id := range accountIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}
