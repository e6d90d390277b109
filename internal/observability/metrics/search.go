package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const searchMeterName = "departure.search"

type SearchMetrics struct {
	solverRuns      metric.Int64Counter
	providerCalls   metric.Int64Counter
	solverCallCount metric.Int64Histogram
	sweepOutcomes   metric.Int64Counter
	sweepDuration   metric.Float64Histogram
}

func NewSearchMetrics() (*SearchMetrics, error) {
	meter := otel.Meter(searchMeterName)

	solverRuns, err := meter.Int64Counter(
		"departure_solver_runs_total",
		metric.WithDescription("Total number of departure-time searches"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, err
	}

	providerCalls, err := meter.Int64Counter(
		"departure_provider_calls_total",
		metric.WithDescription("Total number of routing provider calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	solverCallCount, err := meter.Int64Histogram(
		"departure_solver_provider_calls",
		metric.WithDescription("Provider calls consumed per search"),
		metric.WithUnit("{call}"),
		metric.WithExplicitBucketBoundaries(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11),
	)
	if err != nil {
		return nil, err
	}

	sweepOutcomes, err := meter.Int64Counter(
		"departure_sweep_records_total",
		metric.WithDescription("Pending departures processed by the sweep, by outcome"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, err
	}

	sweepDuration, err := meter.Float64Histogram(
		"departure_sweep_duration_seconds",
		metric.WithDescription("Sweep tick duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(
			0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30,
		),
	)
	if err != nil {
		return nil, err
	}

	return &SearchMetrics{
		solverRuns:      solverRuns,
		providerCalls:   providerCalls,
		solverCallCount: solverCallCount,
		sweepOutcomes:   sweepOutcomes,
		sweepDuration:   sweepDuration,
	}, nil
}

func (m *SearchMetrics) RecordSolverRun(ctx context.Context, providerCalls int, outcome string) {
	m.solverRuns.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
	))
	m.solverCallCount.Record(ctx, int64(providerCalls), metric.WithAttributes(
		attribute.String("outcome", outcome),
	))
}

func (m *SearchMetrics) RecordProviderCall(ctx context.Context, provider, outcome string) {
	m.providerCalls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("outcome", outcome),
	))
}

func (m *SearchMetrics) RecordSweepOutcome(ctx context.Context, outcome string) {
	m.sweepOutcomes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
	))
}

func (m *SearchMetrics) RecordSweepDuration(ctx context.Context, duration time.Duration) {
	m.sweepDuration.Record(ctx, duration.Seconds())
}
