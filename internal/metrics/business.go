package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Operations recorded by the key distribution use case.
const (
	OperationSessionKeyGet = "session_key_get"
	OperationKeySet        = "key_set"
)

// Outcomes. A rejection is the caller's fault (malformed, unknown principal, bad
// signature, stale timestamp); an error is the server's (store, integrity, decryption).
// Alerting usually wants them apart: rejections spike under probing, errors mean a
// broken key store or master key.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// BusinessMetrics records finished key distribution operations.
type BusinessMetrics interface {
	// RecordOperation counts one operation and observes its latency, labelled by outcome.
	RecordOperation(ctx context.Context, operation, outcome string, duration time.Duration)
}

type businessMetrics struct {
	operations metric.Int64Counter
	durations  metric.Float64Histogram
}

// NewBusinessMetrics registers {namespace}_operations_total and
// {namespace}_operation_duration_seconds on meterProvider.
func NewBusinessMetrics(meterProvider metric.MeterProvider, namespace string) (BusinessMetrics, error) {
	meter := meterProvider.Meter(namespace)

	operations, err := meter.Int64Counter(
		fmt.Sprintf("%s_operations_total", namespace),
		metric.WithDescription("Key distribution operations by outcome"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create operation counter: %w", err)
	}

	durations, err := meter.Float64Histogram(
		fmt.Sprintf("%s_operation_duration_seconds", namespace),
		metric.WithDescription("Key distribution operation latency in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	return &businessMetrics{operations: operations, durations: durations}, nil
}

func (b *businessMetrics) RecordOperation(
	ctx context.Context,
	operation, outcome string,
	duration time.Duration,
) {
	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	)
	b.operations.Add(ctx, 1, attrs)
	b.durations.Record(ctx, duration.Seconds(), attrs)
}

// NoOpBusinessMetrics is used when METRICS_ENABLED is false.
type NoOpBusinessMetrics struct{}

// NewNoOpBusinessMetrics creates a no-op BusinessMetrics implementation.
func NewNoOpBusinessMetrics() BusinessMetrics {
	return &NoOpBusinessMetrics{}
}

func (n *NoOpBusinessMetrics) RecordOperation(context.Context, string, string, time.Duration) {}
