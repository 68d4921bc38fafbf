package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/wallethub/ledger/internal/application/ports"
)

// pgxTx adapts a pgx.Tx to ports.Tx. Unlike the teacher's context-injected
// transaction, the ledger core threads this handle explicitly through every
// store call — there is no ambient lookup, so a caller can never
// accidentally run a statement outside the transaction it meant to be in.
type pgxTx struct {
	tx pgx.Tx
}

var _ ports.Tx = (*pgxTx)(nil)

func (t *pgxTx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		if isSerializationFailure(err) {
			return ports.ErrSerializationConflict
		}
		return err
	}
	return nil
}

func (t *pgxTx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if err != nil && err != pgx.ErrTxClosed {
		return err
	}
	return nil
}

// querierFor returns the underlying pgx.Tx for tx, or nil for a nil Tx
// (callers fall back to the pool directly for lock-free reads).
func querierFor(tx ports.Tx) pgx.Tx {
	if tx == nil {
		return nil
	}
	pt, ok := tx.(*pgxTx)
	if !ok || pt == nil {
		return nil
	}
	return pt.tx
}
