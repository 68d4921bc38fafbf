// Package ports defines the interfaces the ledger core depends on but does
// not implement. Infrastructure adapters satisfy these; the core never
// imports a concrete store, broker, or cache.
//
// Pattern: Ports & Adapters (Hexagonal Architecture), generalized from the
// teacher's UnitOfWork + per-entity Repository split into a single
// LedgerStore port, because the core's every operation spans several
// entities (account, entry, hold/intent, idempotency record) inside one
// transaction — a per-entity repository boundary would just be threaded
// back together by every caller.
package ports

import (
	"context"
	"time"

	"github.com/wallethub/ledger/internal/domain/entities"
	"github.com/wallethub/ledger/internal/domain/ids"
)

// Tx is an opaque handle to a single store transaction. The core threads
// it explicitly through every store call; there is no ambient
// request-scoped transaction hiding in a context value.
type Tx interface {
	// Commit finalizes the transaction. On a serialization or deadlock
	// failure the store returns an error the executor recognizes as
	// retryable (see application/ports/retry.go).
	Commit(ctx context.Context) error

	// Rollback discards the transaction. Safe to call after Commit has
	// already failed; a no-op after a successful Commit.
	Rollback(ctx context.Context) error
}

// IdempotencyOutcome is the result of reserving an idempotency key.
type IdempotencyOutcome int

const (
	// IdempotencyFresh means no prior record existed; the caller should
	// proceed with the operation and call IdempotencyComplete when done.
	IdempotencyFresh IdempotencyOutcome = iota

	// IdempotencyReplay means a prior COMPLETED or FAILED record exists
	// with a matching fingerprint; the caller should return its snapshot
	// verbatim without re-running the operation.
	IdempotencyReplay

	// IdempotencyConflict means a prior record exists either IN_FLIGHT
	// (a concurrent duplicate) or with a different fingerprint (the same
	// key reused for a different request body). The caller distinguishes
	// the two by inspecting the returned record's Status.
	IdempotencyConflict
)

// IdempotencyReservation is what Reserve returns: the outcome plus
// whatever record the store found, if any.
type IdempotencyReservation struct {
	Outcome IdempotencyOutcome
	Record  *entities.IdempotencyRecord // nil on IdempotencyFresh
}

// LedgerStore is the persistence contract the ledger engine depends on.
// Every method that takes a Tx must be called with a Tx obtained from
// BeginTx on the same LedgerStore, still open.
type LedgerStore interface {
	// BeginTx starts a transaction with isolation at least serializable —
	// the engine relies on the store detecting write-skew between
	// concurrently locked accounts, not just preventing dirty reads.
	BeginTx(ctx context.Context) (Tx, error)

	// LockAccount acquires an exclusive row lock on the account, blocking
	// any concurrent locker until this Tx commits or rolls back. Callers
	// acquire locks for a single operation in ascending AccountID order.
	LockAccount(ctx context.Context, tx Tx, accountID ids.AccountID) (*entities.Account, error)

	// GetAccount reads an account without locking it, for resolution and
	// read-only queries performed before any lock is taken.
	GetAccount(ctx context.Context, tx Tx, accountID ids.AccountID) (*entities.Account, error)

	// FindAccountByWalletCurrency resolves the one account a wallet holds
	// in a given currency, used by the recipient resolver.
	FindAccountByWalletCurrency(ctx context.Context, walletID ids.WalletID, currency string) (*entities.Account, error)

	// FindWalletByHandle resolves a wallet by its handle (without the
	// leading "@"), used by the recipient resolver.
	FindWalletByHandle(ctx context.Context, handle string) (*entities.Wallet, error)

	// FindAccountByExternalRef resolves a "ext:"-prefixed external
	// identifier to an account, used by the recipient resolver.
	FindAccountByExternalRef(ctx context.Context, externalRef string) (*entities.Account, error)

	// InsertEntry atomically persists a balanced entry and its lines.
	// Rejects unbalanced entries, though the engine validates balance
	// before ever calling this.
	InsertEntry(ctx context.Context, tx Tx, entry *entities.JournalEntry) error

	// SumBuckets computes (available, held) for an account from lines
	// visible inside tx — committed lines plus any this tx has already
	// written and not yet committed.
	SumBuckets(ctx context.Context, tx Tx, accountID ids.AccountID) (available, held int64, err error)

	// SumDebitsSince sums committed AVAILABLE-bucket debit lines for an
	// account since the given time, for spend-ceiling enforcement.
	SumDebitsSince(ctx context.Context, tx Tx, accountID ids.AccountID, since time.Time) (int64, error)

	// GetHold reads a hold for mutation; the caller must already hold the
	// payer account's lock.
	GetHold(ctx context.Context, tx Tx, holdID ids.HoldID) (*entities.Hold, error)

	// PutHold inserts or updates a hold's full state (remaining, status).
	PutHold(ctx context.Context, tx Tx, hold *entities.Hold) error

	// GetIntent reads a payment intent for mutation.
	GetIntent(ctx context.Context, tx Tx, intentID ids.IntentID) (*entities.PaymentIntent, error)

	// PutIntent inserts or updates an intent's full state.
	PutIntent(ctx context.Context, tx Tx, intent *entities.PaymentIntent) error

	// SumRefundsForCapture sums prior refunds linked to a capture entry,
	// for REFUND_EXCEEDS_CAPTURE enforcement.
	SumRefundsForCapture(ctx context.Context, tx Tx, captureEntryID ids.EntryID) (int64, error)

	// PutRefund inserts a refund record.
	PutRefund(ctx context.Context, tx Tx, refund *entities.Refund) error

	// GetEntryByID reads an entry by id, used to validate capture/refund
	// linkage and to render list_transactions pages.
	GetEntryByID(ctx context.Context, tx Tx, entryID ids.EntryID) (*entities.JournalEntry, error)

	// ListEntriesForAccount returns a newest-first page of entries
	// touching an account, for list_transactions.
	ListEntriesForAccount(ctx context.Context, accountID ids.AccountID, cursor string, limit int) (entries []*entities.JournalEntry, nextCursor string, err error)

	// IdempotencyReserve atomically reserves (api-key-id, key) within tx.
	IdempotencyReserve(ctx context.Context, tx Tx, apiKeyID ids.APIKeyID, key ids.IdempotencyKey, fingerprint string) (IdempotencyReservation, error)

	// IdempotencyComplete records the final snapshot and status (COMPLETED
	// or FAILED) for a previously reserved key, within the same tx as the
	// posting it guards.
	IdempotencyComplete(ctx context.Context, tx Tx, apiKeyID ids.APIKeyID, key ids.IdempotencyKey, status entities.IdempotencyStatus, snapshot []byte) error

	// GetAPIKey loads the caller identity for a key id, including its
	// scopes and spend ceiling.
	GetAPIKey(ctx context.Context, keyID ids.APIKeyID) (*entities.APIKey, error)
}

// EventPublisher is the outbound port the engine uses to durably record
// domain events alongside the store transaction that produced them. The
// engine only ever calls Enqueue inside an open Tx; actual delivery to a
// broker happens out-of-band by draining the outbox (see
// infrastructure/eventbus).
type EventPublisher interface {
	// Enqueue writes events to the transactional outbox within tx. It does
	// not publish to the broker directly — that would make event delivery
	// only as atomic as the broker call, not the store commit.
	Enqueue(ctx context.Context, tx Tx, events []EventRecord) error
}

// EventRecord is the serialized form of a domain event as written to the
// outbox table.
type EventRecord struct {
	EventType   string
	AggregateID string
	Payload     []byte
	OccurredAt  time.Time
}
