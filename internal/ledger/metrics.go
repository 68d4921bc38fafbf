package ledger

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Business metrics for the ledger engine itself, distinct from the HTTP
// adapter's request-level metrics (adapters/http/middleware/metrics.go).
var (
	entriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wallethub",
			Subsystem: "ledger",
			Name:      "entries_total",
			Help:      "Total number of journal entries posted, by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	entryAmount = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "wallethub",
			Subsystem: "ledger",
			Name:      "entry_amount_minor_units",
			Help:      "Amount posted per entry, in the currency's minor units.",
			Buckets:   prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"kind", "currency"},
	)

	executorDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "wallethub",
			Subsystem: "ledger",
			Name:      "executor_duration_seconds",
			Help:      "Wall-clock time for one executor run, including retries.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"kind"},
	)

	executorRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wallethub",
			Subsystem: "ledger",
			Name:      "executor_retries_total",
			Help:      "Total number of serialization-conflict retries.",
		},
		[]string{"kind"},
	)

	idempotencyOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wallethub",
			Subsystem: "ledger",
			Name:      "idempotency_outcomes_total",
			Help:      "Idempotency reservation outcomes, by kind.",
		},
		[]string{"outcome"},
	)
)

func recordEntry(kind, outcome, currency string, amountMinorUnits int64) {
	entriesTotal.WithLabelValues(kind, outcome).Inc()
	if outcome == "success" {
		entryAmount.WithLabelValues(kind, currency).Observe(float64(amountMinorUnits))
	}
}

func recordExecutorRun(kind string, attempts int, d time.Duration) {
	executorDuration.WithLabelValues(kind).Observe(d.Seconds())
	if attempts > 1 {
		executorRetries.WithLabelValues(kind).Add(float64(attempts - 1))
	}
}

func recordIdempotencyOutcome(outcome string) {
	idempotencyOutcomes.WithLabelValues(outcome).Inc()
}
