package ledger

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// tracerName identifies this package's spans in exported traces.
const tracerName = "github.com/wallethub/ledger/internal/ledger"

var tracer = otel.Tracer(tracerName)

// operationAttrs builds the common span attributes every executor
// operation tags itself with.
func operationAttrs(operation string, apiKeyID string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("ledger.operation", operation),
		attribute.String("ledger.api_key_id", apiKeyID),
	}
}

// spanStatusAttrs tags a span with the outcome of an executor attempt.
func spanStatusAttrs(span trace.Span, attempt int, err error) {
	span.SetAttributes(attribute.Int("ledger.attempt", attempt))
	if err != nil {
		span.RecordError(err)
	}
}
