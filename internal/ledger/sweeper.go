package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/wallethub/ledger/internal/domain/ids"
)

// HoldSweeper periodically scans for holds past their expiry and forces the
// lazy-expiry path on them proactively; intents are not swept. It exists
// purely to bound how long a forgotten hold sits ACTIVE with nobody
// accessing it — capture and release already expire a hold lazily when they
// access it. A balance read does not expire holds, so an expired hold's
// funds stay in HELD until the hold is next captured, released or swept.
// Disabled by default; an operator opts in by calling Run.
type HoldSweeper struct {
	executor *Executor
	interval time.Duration
	log      *slog.Logger
}

// NewHoldSweeper builds a sweeper that wakes up every interval.
func NewHoldSweeper(executor *Executor, interval time.Duration, log *slog.Logger) *HoldSweeper {
	return &HoldSweeper{executor: executor, interval: interval, log: log}
}

// Run blocks, sweeping on a fixed interval until ctx is cancelled. Callers
// run it in its own goroutine.
func (s *HoldSweeper) Run(ctx context.Context, expiredHoldIDs func(context.Context) ([]string, error)) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepOnce(ctx, expiredHoldIDs)
		}
	}
}

func (s *HoldSweeper) sweepOnce(ctx context.Context, expiredHoldIDs func(context.Context) ([]string, error)) {
	candidates, err := expiredHoldIDs(ctx)
	if err != nil {
		s.log.ErrorContext(ctx, "hold sweeper failed to list candidates", "error", err)
		return
	}
	for _, id := range candidates {
		if err := s.executor.ExpireHold(ctx, ids.HoldID(id)); err != nil {
			s.log.WarnContext(ctx, "hold sweeper could not expire candidate", "hold_id", id, "error", err)
		}
	}
}
