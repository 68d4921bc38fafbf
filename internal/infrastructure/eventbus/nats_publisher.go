// Package eventbus drains the transactional outbox onto NATS. It is a
// separate process concern from the engine's EventPublisher port: the
// engine only ever writes to the outbox inside its own store transaction,
// and this drainer is the only thing that ever talks to the broker.
package eventbus

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/wallethub/ledger/internal/infrastructure/persistence/postgres"
)

// SubjectPrefix namespaces every event this drainer publishes.
const SubjectPrefix = "wallethub.ledger"

// NATSPublisher polls the outbox for unpublished rows and publishes each to
// a subject derived from its event type.
type NATSPublisher struct {
	conn      *nats.Conn
	outbox    *postgres.OutboxStore
	batchSize int
	interval  time.Duration
	log       *slog.Logger
}

// NewNATSPublisher builds a drainer. batchSize and interval both default to
// sane values when zero.
func NewNATSPublisher(conn *nats.Conn, outbox *postgres.OutboxStore, batchSize int, interval time.Duration, log *slog.Logger) *NATSPublisher {
	if batchSize <= 0 {
		batchSize = 100
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &NATSPublisher{conn: conn, outbox: outbox, batchSize: batchSize, interval: interval, log: log}
}

// Run blocks, draining the outbox on a fixed interval until ctx is
// cancelled. Callers run it in its own goroutine.
func (p *NATSPublisher) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.drainOnce(ctx); err != nil {
				p.log.ErrorContext(ctx, "outbox drain failed", "error", err)
			}
		}
	}
}

func (p *NATSPublisher) drainOnce(ctx context.Context) error {
	rows, err := p.outbox.FindUnpublished(ctx, p.batchSize)
	if err != nil {
		return err
	}

	for _, row := range rows {
		subject := fmt.Sprintf("%s.%s", SubjectPrefix, row.EventType)
		if err := p.conn.Publish(subject, row.Payload); err != nil {
			if markErr := p.outbox.MarkFailed(ctx, row.ID, err.Error()); markErr != nil {
				p.log.ErrorContext(ctx, "failed to record outbox publish failure", "event_id", row.ID, "error", markErr)
			}
			continue
		}
		if err := p.outbox.MarkPublished(ctx, row.ID); err != nil {
			p.log.ErrorContext(ctx, "failed to mark outbox row published", "event_id", row.ID, "error", err)
		}
	}

	return nil
}
