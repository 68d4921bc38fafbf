// Package postgres implements ports.LedgerStore against PostgreSQL via pgx.
//
// Every operation the ledger core performs under a lock runs inside one
// serializable transaction; LockAccount uses SELECT ... FOR UPDATE rather
// than leaning on serializable isolation alone, because the core also needs
// a concrete point to block a concurrent locker on, not just a conflict
// detected at commit time. A handful of read methods (GetAccount,
// SumBuckets, GetBalance's caller) accept a nil Tx and fall back to the
// pool directly, for the lock-free reads the engine documents as racing
// with concurrent postings by design.
package postgres

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wallethub/ledger/internal/application/ports"
	"github.com/wallethub/ledger/internal/domain/entities"
	domainerrors "github.com/wallethub/ledger/internal/domain/errors"
	"github.com/wallethub/ledger/internal/domain/ids"
	"github.com/wallethub/ledger/internal/domain/valueobjects"
)

// Store implements ports.LedgerStore against a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

var _ ports.LedgerStore = (*Store)(nil)

// NewStore wraps an already-connected pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) querier(tx ports.Tx) querier {
	if q := querierFor(tx); q != nil {
		return q
	}
	return poolQuerier{pool: s.pool}
}

// BeginTx starts a serializable transaction. The engine relies on the store
// surfacing write-skew between concurrently locked accounts as a
// serialization failure, which Commit translates into
// ports.ErrSerializationConflict.
func (s *Store) BeginTx(ctx context.Context) (ports.Tx, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return nil, domainerrors.Wrap(domainerrors.KindStoreError, "failed to begin transaction", err)
	}
	return &pgxTx{tx: tx}, nil
}

// LockAccount acquires SELECT ... FOR UPDATE on the account row, blocking
// any concurrent locker until this Tx ends.
func (s *Store) LockAccount(ctx context.Context, tx ports.Tx, accountID ids.AccountID) (*entities.Account, error) {
	q := querierFor(tx)
	if q == nil {
		return nil, domainerrors.New(domainerrors.KindStoreError, "LockAccount requires an open transaction")
	}
	const query = `
		SELECT id, wallet_id, currency, account_type, status, created_at
		FROM accounts
		WHERE id = $1
		FOR UPDATE
	`
	return scanAccount(q.QueryRow(ctx, query, accountID.String()))
}

// GetAccount reads an account without locking it.
func (s *Store) GetAccount(ctx context.Context, tx ports.Tx, accountID ids.AccountID) (*entities.Account, error) {
	const query = `
		SELECT id, wallet_id, currency, account_type, status, created_at
		FROM accounts
		WHERE id = $1
	`
	return scanAccount(s.querier(tx).QueryRow(ctx, query, accountID.String()))
}

// FindAccountByWalletCurrency resolves the one account a wallet holds in a
// currency.
func (s *Store) FindAccountByWalletCurrency(ctx context.Context, walletID ids.WalletID, currency string) (*entities.Account, error) {
	const query = `
		SELECT id, wallet_id, currency, account_type, status, created_at
		FROM accounts
		WHERE wallet_id = $1 AND currency = $2
	`
	return scanAccount(s.pool.QueryRow(ctx, query, walletID.String(), currency))
}

// FindWalletByHandle resolves a wallet by its handle, without the leading
// "@".
func (s *Store) FindWalletByHandle(ctx context.Context, handle string) (*entities.Wallet, error) {
	handle = strings.TrimPrefix(strings.TrimSpace(handle), "@")
	const query = `
		SELECT id, handle, display_name, created_at
		FROM wallets
		WHERE handle = $1
	`
	return scanWallet(s.pool.QueryRow(ctx, query, handle))
}

// FindAccountByExternalRef resolves an "ext:"-prefixed identifier to an
// account.
func (s *Store) FindAccountByExternalRef(ctx context.Context, externalRef string) (*entities.Account, error) {
	const query = `
		SELECT id, wallet_id, currency, account_type, status, created_at
		FROM accounts
		WHERE external_ref = $1
	`
	return scanAccount(s.pool.QueryRow(ctx, query, externalRef))
}

// InsertEntry atomically persists a balanced entry and its lines.
func (s *Store) InsertEntry(ctx context.Context, tx ports.Tx, entry *entities.JournalEntry) error {
	q := querierFor(tx)
	if q == nil {
		return domainerrors.New(domainerrors.KindStoreError, "InsertEntry requires an open transaction")
	}

	metadataJSON, err := json.Marshal(entry.Metadata())
	if err != nil {
		return domainerrors.Wrap(domainerrors.KindStoreError, "failed to marshal entry metadata", err)
	}

	const entryQuery = `
		INSERT INTO journal_entries (
			id, kind, initiator_wallet_id, reference_id, metadata,
			idempotency_key, linked_entry_id, created_at
		) VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), $8)
	`
	_, err = q.Exec(ctx, entryQuery,
		entry.ID().String(),
		string(entry.Kind()),
		entry.InitiatorID().String(),
		entry.ReferenceID(),
		metadataJSON,
		entry.IdempotencyKey().String(),
		entry.LinkedEntryID().String(),
		entry.CreatedAt(),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domainerrors.Wrap(domainerrors.KindRecipientNotFound, "entry references an unknown account", err)
		}
		return domainerrors.Wrap(domainerrors.KindStoreError, "failed to insert journal entry", err)
	}

	const lineQuery = `
		INSERT INTO journal_lines (id, entry_id, account_id, side, amount, currency, bucket)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for _, line := range entry.Lines() {
		_, err := q.Exec(ctx, lineQuery,
			line.ID().String(),
			line.EntryID().String(),
			line.AccountID().String(),
			string(line.Side()),
			line.Amount().MinorUnits(),
			line.Amount().Currency().Code(),
			string(line.Bucket()),
		)
		if err != nil {
			return domainerrors.Wrap(domainerrors.KindStoreError, "failed to insert journal line", err)
		}
	}

	return nil
}

// SumBuckets computes (available, held) for an account from lines visible
// inside tx — or, when tx is nil, from the pool directly (only committed
// lines, per the lock-free read's documented staleness).
func (s *Store) SumBuckets(ctx context.Context, tx ports.Tx, accountID ids.AccountID) (available, held int64, err error) {
	const query = `
		SELECT
			COALESCE(SUM(CASE WHEN bucket = 'AVAILABLE' AND side = 'CREDIT' THEN amount
			                   WHEN bucket = 'AVAILABLE' AND side = 'DEBIT' THEN -amount
			                   ELSE 0 END), 0) AS available,
			COALESCE(SUM(CASE WHEN bucket = 'HELD' AND side = 'CREDIT' THEN amount
			                   WHEN bucket = 'HELD' AND side = 'DEBIT' THEN -amount
			                   ELSE 0 END), 0) AS held
		FROM journal_lines
		WHERE account_id = $1
	`
	row := s.querier(tx).QueryRow(ctx, query, accountID.String())
	if scanErr := row.Scan(&available, &held); scanErr != nil {
		return 0, 0, domainerrors.Wrap(domainerrors.KindStoreError, "failed to sum account buckets", scanErr)
	}
	return available, held, nil
}

// SumDebitsSince sums committed AVAILABLE-bucket debit lines since a time,
// for spend-ceiling enforcement.
func (s *Store) SumDebitsSince(ctx context.Context, tx ports.Tx, accountID ids.AccountID, since time.Time) (int64, error) {
	const query = `
		SELECT COALESCE(SUM(jl.amount), 0)
		FROM journal_lines jl
		JOIN journal_entries je ON je.id = jl.entry_id
		WHERE jl.account_id = $1
		  AND jl.bucket = 'AVAILABLE'
		  AND jl.side = 'DEBIT'
		  AND je.created_at >= $2
	`
	var total int64
	if err := s.querier(tx).QueryRow(ctx, query, accountID.String(), since).Scan(&total); err != nil {
		return 0, domainerrors.Wrap(domainerrors.KindStoreError, "failed to sum debits since", err)
	}
	return total, nil
}

// GetHold reads a hold for mutation. The caller must already hold the
// payer account's lock.
func (s *Store) GetHold(ctx context.Context, tx ports.Tx, holdID ids.HoldID) (*entities.Hold, error) {
	const query = `
		SELECT id, payer_account_id, currency, amount, remaining, status,
		       expires_at, created_at, creating_entry_id
		FROM holds
		WHERE id = $1
	`
	return scanHold(s.querier(tx).QueryRow(ctx, query, holdID.String()))
}

// PutHold inserts or updates a hold's full state.
func (s *Store) PutHold(ctx context.Context, tx ports.Tx, hold *entities.Hold) error {
	q := querierFor(tx)
	if q == nil {
		return domainerrors.New(domainerrors.KindStoreError, "PutHold requires an open transaction")
	}
	const query = `
		INSERT INTO holds (
			id, payer_account_id, currency, amount, remaining, status,
			expires_at, created_at, creating_entry_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			remaining = EXCLUDED.remaining,
			status = EXCLUDED.status
	`
	_, err := q.Exec(ctx, query,
		hold.ID().String(),
		hold.PayerAccountID().String(),
		hold.Currency().Code(),
		hold.Amount().MinorUnits(),
		hold.Remaining().MinorUnits(),
		string(hold.Status()),
		hold.ExpiresAt(),
		hold.CreatedAt(),
		hold.CreatingEntryID().String(),
	)
	if err != nil {
		return domainerrors.Wrap(domainerrors.KindStoreError, "failed to persist hold", err)
	}
	return nil
}

// GetIntent reads a payment intent for mutation.
func (s *Store) GetIntent(ctx context.Context, tx ports.Tx, intentID ids.IntentID) (*entities.PaymentIntent, error) {
	const query = `
		SELECT id, payee_account_id, creator_wallet_id, currency, amount,
		       status, expires_at, metadata, paid_entry_id, created_at
		FROM payment_intents
		WHERE id = $1
	`
	return scanIntent(s.querier(tx).QueryRow(ctx, query, intentID.String()))
}

// PutIntent inserts or updates an intent's full state.
func (s *Store) PutIntent(ctx context.Context, tx ports.Tx, intent *entities.PaymentIntent) error {
	q := querierFor(tx)
	if q == nil {
		return domainerrors.New(domainerrors.KindStoreError, "PutIntent requires an open transaction")
	}
	metadataJSON, err := json.Marshal(intent.Metadata())
	if err != nil {
		return domainerrors.Wrap(domainerrors.KindStoreError, "failed to marshal intent metadata", err)
	}
	const query = `
		INSERT INTO payment_intents (
			id, payee_account_id, creator_wallet_id, currency, amount,
			status, expires_at, metadata, paid_entry_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), $10)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			paid_entry_id = EXCLUDED.paid_entry_id
	`
	_, err = q.Exec(ctx, query,
		intent.ID().String(),
		intent.PayeeAccountID().String(),
		intent.CreatorWalletID().String(),
		intent.Currency().Code(),
		intent.Amount().MinorUnits(),
		string(intent.Status()),
		intent.ExpiresAt(),
		metadataJSON,
		intent.PaidEntryID().String(),
		intent.CreatedAt(),
	)
	if err != nil {
		return domainerrors.Wrap(domainerrors.KindStoreError, "failed to persist payment intent", err)
	}
	return nil
}

// SumRefundsForCapture sums prior refunds linked to a capture entry.
func (s *Store) SumRefundsForCapture(ctx context.Context, tx ports.Tx, captureEntryID ids.EntryID) (int64, error) {
	const query = `
		SELECT COALESCE(SUM(amount), 0)
		FROM refunds
		WHERE capture_entry_id = $1 AND status = 'POSTED'
	`
	var total int64
	if err := s.querier(tx).QueryRow(ctx, query, captureEntryID.String()).Scan(&total); err != nil {
		return 0, domainerrors.Wrap(domainerrors.KindStoreError, "failed to sum prior refunds", err)
	}
	return total, nil
}

// PutRefund inserts a refund record.
func (s *Store) PutRefund(ctx context.Context, tx ports.Tx, refund *entities.Refund) error {
	q := querierFor(tx)
	if q == nil {
		return domainerrors.New(domainerrors.KindStoreError, "PutRefund requires an open transaction")
	}
	const query = `
		INSERT INTO refunds (id, capture_entry_id, amount, status, posting_entry_id, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)
	`
	_, err := q.Exec(ctx, query,
		refund.ID().String(),
		refund.CaptureEntryID().String(),
		refund.Amount().MinorUnits(),
		string(refund.Status()),
		refund.PostingEntryID().String(),
		refund.CreatedAt(),
	)
	if err != nil {
		return domainerrors.Wrap(domainerrors.KindStoreError, "failed to persist refund", err)
	}
	return nil
}

// GetEntryByID reads an entry (with its lines) by id.
func (s *Store) GetEntryByID(ctx context.Context, tx ports.Tx, entryID ids.EntryID) (*entities.JournalEntry, error) {
	q := s.querier(tx)

	const entryQuery = `
		SELECT id, kind, initiator_wallet_id, reference_id, metadata,
		       idempotency_key, linked_entry_id, created_at
		FROM journal_entries
		WHERE id = $1
	`
	entry, err := scanEntryHeader(q.QueryRow(ctx, entryQuery, entryID.String()))
	if err != nil {
		return nil, err
	}

	lines, err := s.loadLinesForEntry(ctx, q, entryID)
	if err != nil {
		return nil, err
	}

	return entities.ReconstructJournalEntry(
		entry.id, entry.kind, entry.initiatorID, entry.referenceID, entry.metadata,
		entry.idempotencyKey, entry.linkedEntryID, lines, entry.createdAt,
	), nil
}

// ListEntriesForAccount returns a newest-first page of entries touching an
// account. The cursor is the created_at timestamp (RFC3339Nano) of the last
// entry on the previous page; an empty cursor starts from the newest.
func (s *Store) ListEntriesForAccount(ctx context.Context, accountID ids.AccountID, cursor string, limit int) ([]*entities.JournalEntry, string, error) {
	if limit <= 0 {
		limit = 50
	}

	var before time.Time
	if cursor != "" {
		parsed, err := time.Parse(time.RFC3339Nano, cursor)
		if err != nil {
			return nil, "", domainerrors.New(domainerrors.KindValidation, "invalid cursor").WithField("cursor")
		}
		before = parsed
	} else {
		before = time.Now().UTC().Add(24 * time.Hour)
	}

	const query = `
		SELECT DISTINCT je.id, je.kind, je.initiator_wallet_id, je.reference_id,
		       je.metadata, je.idempotency_key, je.linked_entry_id, je.created_at
		FROM journal_entries je
		JOIN journal_lines jl ON jl.entry_id = je.id
		WHERE jl.account_id = $1 AND je.created_at < $2
		ORDER BY je.created_at DESC
		LIMIT $3
	`
	rows, err := s.pool.Query(ctx, query, accountID.String(), before, limit)
	if err != nil {
		return nil, "", domainerrors.Wrap(domainerrors.KindStoreError, "failed to list entries", err)
	}
	defer rows.Close()

	var headers []entryHeader
	for rows.Next() {
		h, err := scanEntryHeaderRow(rows)
		if err != nil {
			return nil, "", err
		}
		headers = append(headers, h)
	}
	if err := rows.Err(); err != nil {
		return nil, "", domainerrors.Wrap(domainerrors.KindStoreError, "error iterating entries", err)
	}

	entries := make([]*entities.JournalEntry, 0, len(headers))
	for _, h := range headers {
		lines, err := s.loadLinesForEntry(ctx, poolQuerier{pool: s.pool}, h.id)
		if err != nil {
			return nil, "", err
		}
		entries = append(entries, entities.ReconstructJournalEntry(
			h.id, h.kind, h.initiatorID, h.referenceID, h.metadata,
			h.idempotencyKey, h.linkedEntryID, lines, h.createdAt,
		))
	}

	var next string
	if len(headers) == limit {
		next = headers[len(headers)-1].createdAt.Format(time.RFC3339Nano)
	}

	return entries, next, nil
}

func (s *Store) loadLinesForEntry(ctx context.Context, q querier, entryID ids.EntryID) ([]entities.JournalLine, error) {
	const query = `
		SELECT id, entry_id, account_id, side, amount, currency, bucket
		FROM journal_lines
		WHERE entry_id = $1
		ORDER BY id
	`
	rows, err := q.Query(ctx, query, entryID.String())
	if err != nil {
		return nil, domainerrors.Wrap(domainerrors.KindStoreError, "failed to load entry lines", err)
	}
	defer rows.Close()

	var lines []entities.JournalLine
	for rows.Next() {
		var (
			lineID, entryIDStr, accountID, side, currency, bucket string
			amount                                                int64
		)
		if err := rows.Scan(&lineID, &entryIDStr, &accountID, &side, &amount, &currency, &bucket); err != nil {
			return nil, domainerrors.Wrap(domainerrors.KindStoreError, "failed to scan entry line", err)
		}
		cur, err := valueobjects.NewCurrency(currency)
		if err != nil {
			return nil, domainerrors.Wrap(domainerrors.KindStoreError, "invalid currency in stored line", err)
		}
		money, err := valueobjects.NewMoney(amount, cur)
		if err != nil {
			return nil, domainerrors.Wrap(domainerrors.KindStoreError, "invalid amount in stored line", err)
		}
		lines = append(lines, entities.ReconstructJournalLine(
			ids.LineID(lineID), ids.EntryID(entryIDStr), ids.AccountID(accountID),
			entities.Side(side), money, entities.Bucket(bucket),
		))
	}
	if err := rows.Err(); err != nil {
		return nil, domainerrors.Wrap(domainerrors.KindStoreError, "error iterating entry lines", err)
	}
	return lines, nil
}

// IdempotencyReserve atomically reserves (api-key-id, key) within tx.
func (s *Store) IdempotencyReserve(ctx context.Context, tx ports.Tx, apiKeyID ids.APIKeyID, key ids.IdempotencyKey, fingerprint string) (ports.IdempotencyReservation, error) {
	q := querierFor(tx)
	if q == nil {
		return ports.IdempotencyReservation{}, domainerrors.New(domainerrors.KindStoreError, "IdempotencyReserve requires an open transaction")
	}

	const insertQuery = `
		INSERT INTO idempotency_records (api_key_id, key, status, request_fingerprint, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (api_key_id, key) DO NOTHING
	`
	tag, err := q.Exec(ctx, insertQuery,
		apiKeyID.String(), key.String(), string(entities.IdempotencyStatusInFlight), fingerprint, time.Now().UTC(),
	)
	if err != nil {
		return ports.IdempotencyReservation{}, domainerrors.Wrap(domainerrors.KindStoreError, "failed to reserve idempotency key", err)
	}
	if tag.RowsAffected() == 1 {
		return ports.IdempotencyReservation{Outcome: ports.IdempotencyFresh}, nil
	}

	// Someone already holds this key; load it to let the caller decide
	// between replay and conflict.
	const selectQuery = `
		SELECT api_key_id, key, status, request_fingerprint, response_snapshot, created_at
		FROM idempotency_records
		WHERE api_key_id = $1 AND key = $2
		FOR UPDATE
	`
	record, err := scanIdempotencyRecord(q.QueryRow(ctx, selectQuery, apiKeyID.String(), key.String()))
	if err != nil {
		return ports.IdempotencyReservation{}, err
	}

	if record.Status.IsTerminal() && record.RequestFingerprint == fingerprint {
		return ports.IdempotencyReservation{Outcome: ports.IdempotencyReplay, Record: record}, nil
	}
	return ports.IdempotencyReservation{Outcome: ports.IdempotencyConflict, Record: record}, nil
}

// IdempotencyComplete records the final snapshot and status for a
// previously reserved key.
func (s *Store) IdempotencyComplete(ctx context.Context, tx ports.Tx, apiKeyID ids.APIKeyID, key ids.IdempotencyKey, status entities.IdempotencyStatus, snapshot []byte) error {
	q := querierFor(tx)
	if q == nil {
		return domainerrors.New(domainerrors.KindStoreError, "IdempotencyComplete requires an open transaction")
	}
	const query = `
		UPDATE idempotency_records
		SET status = $3, response_snapshot = $4
		WHERE api_key_id = $1 AND key = $2
	`
	_, err := q.Exec(ctx, query, apiKeyID.String(), key.String(), string(status), snapshot)
	if err != nil {
		return domainerrors.Wrap(domainerrors.KindStoreError, "failed to complete idempotency record", err)
	}
	return nil
}

// GetAPIKey loads the caller identity for a key id.
func (s *Store) GetAPIKey(ctx context.Context, keyID ids.APIKeyID) (*entities.APIKey, error) {
	const query = `
		SELECT id, wallet_id, scopes, ceiling_minor_units, ceiling_currency, ceiling_window_seconds, created_at
		FROM api_keys
		WHERE id = $1
	`
	row := s.pool.QueryRow(ctx, query, keyID.String())

	var (
		idStr, walletIDStr   string
		scopes               []string
		ceilingMinorUnits    *int64
		ceilingCurrency      *string
		ceilingWindowSeconds *int64
		createdAt            time.Time
	)
	if err := row.Scan(&idStr, &walletIDStr, &scopes, &ceilingMinorUnits, &ceilingCurrency, &ceilingWindowSeconds, &createdAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domainerrors.New(domainerrors.KindForbiddenScope, "unknown api key")
		}
		return nil, domainerrors.Wrap(domainerrors.KindStoreError, "failed to load api key", err)
	}

	var ceiling *valueobjects.Money
	var window time.Duration
	if ceilingMinorUnits != nil && ceilingCurrency != nil {
		cur, err := valueobjects.NewCurrency(*ceilingCurrency)
		if err != nil {
			return nil, domainerrors.Wrap(domainerrors.KindStoreError, "invalid ceiling currency", err)
		}
		money, err := valueobjects.NewMoney(*ceilingMinorUnits, cur)
		if err != nil {
			return nil, domainerrors.Wrap(domainerrors.KindStoreError, "invalid ceiling amount", err)
		}
		ceiling = &money
		if ceilingWindowSeconds != nil {
			window = time.Duration(*ceilingWindowSeconds) * time.Second
		}
	}

	return entities.NewAPIKey(ids.APIKeyID(idStr), ids.WalletID(walletIDStr), ids.NewScopeSet(scopes...), ceiling, window), nil
}

// SeedAPIKey upserts one operator-provisioned caller identity. It is not
// part of ports.LedgerStore — the ledger core only ever reads API keys —
// this is a startup-time convenience the container uses to materialize the
// configured key table, not something the engine depends on.
func (s *Store) SeedAPIKey(ctx context.Context, id ids.APIKeyID, walletID ids.WalletID, scopes []string, ceiling *valueobjects.Money, window time.Duration) error {
	var ceilingUnits *int64
	var ceilingCurrency *string
	var ceilingWindowSeconds *int64
	if ceiling != nil {
		units := ceiling.MinorUnits()
		code := ceiling.Currency().Code()
		seconds := int64(window / time.Second)
		ceilingUnits, ceilingCurrency, ceilingWindowSeconds = &units, &code, &seconds
	}

	const query = `
		INSERT INTO api_keys (id, wallet_id, scopes, ceiling_minor_units, ceiling_currency, ceiling_window_seconds)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			wallet_id = EXCLUDED.wallet_id,
			scopes = EXCLUDED.scopes,
			ceiling_minor_units = EXCLUDED.ceiling_minor_units,
			ceiling_currency = EXCLUDED.ceiling_currency,
			ceiling_window_seconds = EXCLUDED.ceiling_window_seconds
	`
	_, err := s.pool.Exec(ctx, query,
		id.String(), walletID.String(), scopes,
		ceilingUnits, ceilingCurrency, ceilingWindowSeconds,
	)
	if err != nil {
		return domainerrors.Wrap(domainerrors.KindStoreError, "failed to seed api key", err)
	}
	return nil
}

// ListExpiredHoldIDs returns ids of ACTIVE/PARTIALLY_CAPTURED holds whose
// expiry has passed, for HoldSweeper. Not part of ports.LedgerStore: the
// engine's own correctness never depends on this running, only the
// sweeper's best-effort cleanup does.
func (s *Store) ListExpiredHoldIDs(ctx context.Context, limit int) ([]string, error) {
	const query = `
		SELECT id FROM holds
		WHERE status IN ('ACTIVE', 'PARTIALLY_CAPTURED') AND expires_at < now()
		ORDER BY expires_at
		LIMIT $1
	`
	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, domainerrors.Wrap(domainerrors.KindStoreError, "failed to list expired holds", err)
	}
	defer rows.Close()

	var holdIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, domainerrors.Wrap(domainerrors.KindStoreError, "failed to scan expired hold id", err)
		}
		holdIDs = append(holdIDs, id)
	}
	return holdIDs, rows.Err()
}

func scanAccount(row pgx.Row) (*entities.Account, error) {
	var (
		id, walletID, currencyCode, accType, status string
		createdAt                                   time.Time
	)
	if err := row.Scan(&id, &walletID, &currencyCode, &accType, &status, &createdAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domainerrors.New(domainerrors.KindRecipientNotFound, "account not found")
		}
		return nil, domainerrors.Wrap(domainerrors.KindStoreError, "failed to scan account", err)
	}
	currency, err := valueobjects.NewCurrency(currencyCode)
	if err != nil {
		return nil, domainerrors.Wrap(domainerrors.KindStoreError, "invalid currency in stored account", err)
	}
	return entities.ReconstructAccount(
		ids.AccountID(id), ids.WalletID(walletID), currency,
		entities.AccountType(accType), entities.AccountStatus(status), createdAt,
	), nil
}

func scanWallet(row pgx.Row) (*entities.Wallet, error) {
	var (
		id, handle, displayName string
		createdAt               time.Time
	)
	if err := row.Scan(&id, &handle, &displayName, &createdAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domainerrors.New(domainerrors.KindRecipientNotFound, "wallet not found")
		}
		return nil, domainerrors.Wrap(domainerrors.KindStoreError, "failed to scan wallet", err)
	}
	return entities.ReconstructWallet(ids.WalletID(id), handle, displayName, createdAt), nil
}

func scanHold(row pgx.Row) (*entities.Hold, error) {
	var (
		id, payerAccountID, currencyCode, creatingEntryID string
		amount, remaining                                 int64
		status                                            string
		expiresAt, createdAt                              time.Time
	)
	if err := row.Scan(&id, &payerAccountID, &currencyCode, &amount, &remaining, &status, &expiresAt, &createdAt, &creatingEntryID); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domainerrors.New(domainerrors.KindValidation, "hold not found").WithField("hold_id")
		}
		return nil, domainerrors.Wrap(domainerrors.KindStoreError, "failed to scan hold", err)
	}
	currency, err := valueobjects.NewCurrency(currencyCode)
	if err != nil {
		return nil, domainerrors.Wrap(domainerrors.KindStoreError, "invalid currency in stored hold", err)
	}
	amountMoney, err := valueobjects.NewMoney(amount, currency)
	if err != nil {
		return nil, domainerrors.Wrap(domainerrors.KindStoreError, "invalid amount in stored hold", err)
	}
	remainingMoney, err := valueobjects.NewMoney(remaining, currency)
	if err != nil {
		return nil, domainerrors.Wrap(domainerrors.KindStoreError, "invalid remaining in stored hold", err)
	}
	return entities.ReconstructHold(
		ids.HoldID(id), ids.AccountID(payerAccountID), currency, amountMoney, remainingMoney,
		entities.HoldStatus(status), expiresAt, createdAt, ids.EntryID(creatingEntryID),
	), nil
}

func scanIntent(row pgx.Row) (*entities.PaymentIntent, error) {
	var (
		id, payeeAccountID, creatorWalletID, currencyCode, status string
		amount                                                    int64
		expiresAt, createdAt                                      time.Time
		metadataJSON                                              []byte
		paidEntryID                                               *string
	)
	if err := row.Scan(&id, &payeeAccountID, &creatorWalletID, &currencyCode, &amount, &status, &expiresAt, &metadataJSON, &paidEntryID, &createdAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domainerrors.New(domainerrors.KindValidation, "intent not found").WithField("intent_id")
		}
		return nil, domainerrors.Wrap(domainerrors.KindStoreError, "failed to scan payment intent", err)
	}
	currency, err := valueobjects.NewCurrency(currencyCode)
	if err != nil {
		return nil, domainerrors.Wrap(domainerrors.KindStoreError, "invalid currency in stored intent", err)
	}
	money, err := valueobjects.NewMoney(amount, currency)
	if err != nil {
		return nil, domainerrors.Wrap(domainerrors.KindStoreError, "invalid amount in stored intent", err)
	}
	var metadata map[string]string
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &metadata); err != nil {
			return nil, domainerrors.Wrap(domainerrors.KindStoreError, "invalid metadata in stored intent", err)
		}
	}
	var paidEntry ids.EntryID
	if paidEntryID != nil {
		paidEntry = ids.EntryID(*paidEntryID)
	}
	return entities.ReconstructPaymentIntent(
		ids.IntentID(id), ids.AccountID(payeeAccountID), ids.WalletID(creatorWalletID), currency, money,
		entities.IntentStatus(status), expiresAt, metadata, paidEntry, createdAt,
	), nil
}

func scanIdempotencyRecord(row pgx.Row) (*entities.IdempotencyRecord, error) {
	var (
		apiKeyID, key, status, fingerprint string
		snapshot                           []byte
		createdAt                          time.Time
	)
	if err := row.Scan(&apiKeyID, &key, &status, &fingerprint, &snapshot, &createdAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domainerrors.New(domainerrors.KindStoreError, "idempotency record vanished after insert race")
		}
		return nil, domainerrors.Wrap(domainerrors.KindStoreError, "failed to scan idempotency record", err)
	}
	return &entities.IdempotencyRecord{
		APIKeyID:           ids.APIKeyID(apiKeyID),
		Key:                ids.IdempotencyKey(key),
		Status:             entities.IdempotencyStatus(status),
		RequestFingerprint: fingerprint,
		ResponseSnapshot:   snapshot,
		CreatedAt:          createdAt,
	}, nil
}

type entryHeader struct {
	id             ids.EntryID
	kind           entities.EntryKind
	initiatorID    ids.WalletID
	referenceID    string
	metadata       map[string]string
	idempotencyKey ids.IdempotencyKey
	linkedEntryID  ids.EntryID
	createdAt      time.Time
}

func scanEntryHeader(row pgx.Row) (entryHeader, error) {
	var (
		id, kind, initiatorID, referenceID string
		metadataJSON                       []byte
		idempotencyKey, linkedEntryID      *string
		createdAt                          time.Time
	)
	if err := row.Scan(&id, &kind, &initiatorID, &referenceID, &metadataJSON, &idempotencyKey, &linkedEntryID, &createdAt); err != nil {
		if err == pgx.ErrNoRows {
			return entryHeader{}, domainerrors.New(domainerrors.KindValidation, "entry not found").WithField("entry_id")
		}
		return entryHeader{}, domainerrors.Wrap(domainerrors.KindStoreError, "failed to scan journal entry", err)
	}
	return buildEntryHeader(id, kind, initiatorID, referenceID, metadataJSON, idempotencyKey, linkedEntryID, createdAt)
}

func scanEntryHeaderRow(rows pgx.Rows) (entryHeader, error) {
	var (
		id, kind, initiatorID, referenceID string
		metadataJSON                       []byte
		idempotencyKey, linkedEntryID      *string
		createdAt                          time.Time
	)
	if err := rows.Scan(&id, &kind, &initiatorID, &referenceID, &metadataJSON, &idempotencyKey, &linkedEntryID, &createdAt); err != nil {
		return entryHeader{}, domainerrors.Wrap(domainerrors.KindStoreError, "failed to scan journal entry row", err)
	}
	return buildEntryHeader(id, kind, initiatorID, referenceID, metadataJSON, idempotencyKey, linkedEntryID, createdAt)
}

func buildEntryHeader(id, kind, initiatorID, referenceID string, metadataJSON []byte, idempotencyKey, linkedEntryID *string, createdAt time.Time) (entryHeader, error) {
	var metadata map[string]string
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &metadata); err != nil {
			return entryHeader{}, domainerrors.Wrap(domainerrors.KindStoreError, "invalid metadata in stored entry", err)
		}
	}
	var key ids.IdempotencyKey
	if idempotencyKey != nil {
		key = ids.IdempotencyKey(*idempotencyKey)
	}
	var linked ids.EntryID
	if linkedEntryID != nil {
		linked = ids.EntryID(*linkedEntryID)
	}
	return entryHeader{
		id:             ids.EntryID(id),
		kind:           entities.EntryKind(kind),
		initiatorID:    ids.WalletID(initiatorID),
		referenceID:    referenceID,
		metadata:       metadata,
		idempotencyKey: key,
		linkedEntryID:  linked,
		createdAt:      createdAt,
	}, nil
}
