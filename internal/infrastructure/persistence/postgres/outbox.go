package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wallethub/ledger/internal/application/ports"
	domainerrors "github.com/wallethub/ledger/internal/domain/errors"
)

// OutboxStore implements ports.EventPublisher by writing to the
// transactional outbox table within the caller's open Tx. Actual delivery
// to the broker happens out-of-band, by draining unpublished rows (see
// infrastructure/eventbus.NATSPublisher), so the outbox row commits
// atomically with the posting that produced it and never depends on the
// broker being reachable at posting time.
type OutboxStore struct {
	pool *pgxpool.Pool
}

var _ ports.EventPublisher = (*OutboxStore)(nil)

// NewOutboxStore wraps an already-connected pool.
func NewOutboxStore(pool *pgxpool.Pool) *OutboxStore {
	return &OutboxStore{pool: pool}
}

// Enqueue writes events to the outbox within tx.
func (o *OutboxStore) Enqueue(ctx context.Context, tx ports.Tx, events []ports.EventRecord) error {
	q := querierFor(tx)
	if q == nil {
		return domainerrors.New(domainerrors.KindStoreError, "Enqueue requires an open transaction")
	}
	const query = `
		INSERT INTO outbox_events (id, event_type, aggregate_id, payload, occurred_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	for _, evt := range events {
		if _, err := q.Exec(ctx, query, uuid.NewString(), evt.EventType, evt.AggregateID, evt.Payload, evt.OccurredAt); err != nil {
			return domainerrors.Wrap(domainerrors.KindStoreError, "failed to enqueue outbox event", err)
		}
	}
	return nil
}

// OutboxRow is one unpublished outbox entry, as read by a drainer.
type OutboxRow struct {
	ID          string
	EventType   string
	AggregateID string
	Payload     []byte
	OccurredAt  time.Time
}

// FindUnpublished returns up to limit unpublished rows, locking them with
// FOR UPDATE SKIP LOCKED so multiple drainer replicas never double-publish
// the same row.
func (o *OutboxStore) FindUnpublished(ctx context.Context, limit int) ([]OutboxRow, error) {
	const query = `
		SELECT id, event_type, aggregate_id, payload, occurred_at
		FROM outbox_events
		WHERE published_at IS NULL
		ORDER BY occurred_at ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`
	rows, err := o.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, domainerrors.Wrap(domainerrors.KindStoreError, "failed to find unpublished outbox rows", err)
	}
	defer rows.Close()

	var out []OutboxRow
	for rows.Next() {
		var r OutboxRow
		if err := rows.Scan(&r.ID, &r.EventType, &r.AggregateID, &r.Payload, &r.OccurredAt); err != nil {
			return nil, domainerrors.Wrap(domainerrors.KindStoreError, "failed to scan outbox row", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, domainerrors.Wrap(domainerrors.KindStoreError, "error iterating outbox rows", err)
	}
	return out, nil
}

// MarkPublished stamps a row's published_at.
func (o *OutboxStore) MarkPublished(ctx context.Context, id string) error {
	const query = `UPDATE outbox_events SET published_at = $2 WHERE id = $1`
	_, err := o.pool.Exec(ctx, query, id, time.Now().UTC())
	if err != nil {
		return domainerrors.Wrap(domainerrors.KindStoreError, "failed to mark outbox row published", err)
	}
	return nil
}

// MarkFailed records a delivery failure without advancing published_at, so
// the next drain pass retries the row.
func (o *OutboxStore) MarkFailed(ctx context.Context, id string, reason string) error {
	const query = `UPDATE outbox_events SET attempts = attempts + 1, last_error = $2 WHERE id = $1`
	_, err := o.pool.Exec(ctx, query, id, reason)
	if err != nil {
		return domainerrors.Wrap(domainerrors.KindStoreError, "failed to mark outbox row failed", err)
	}
	return nil
}

// CleanupPublished deletes published rows older than olderThan, for
// maintenance.
func (o *OutboxStore) CleanupPublished(ctx context.Context, olderThan time.Duration) (int64, error) {
	const query = `DELETE FROM outbox_events WHERE published_at IS NOT NULL AND published_at < $1`
	tag, err := o.pool.Exec(ctx, query, time.Now().UTC().Add(-olderThan))
	if err != nil {
		return 0, domainerrors.Wrap(domainerrors.KindStoreError, "failed to clean up published outbox rows", err)
	}
	return tag.RowsAffected(), nil
}
