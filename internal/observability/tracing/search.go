package tracing

import (
	"context"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const searchTracerName = "github.com/NeriVermilion/departure-planner/internal/service/search"

func SearchTracer() trace.Tracer {
	return otel.Tracer(searchTracerName)
}

func StartSolverSpan(ctx context.Context, desiredArrival time.Time) (context.Context, trace.Span) {
	return SearchTracer().Start(ctx, "search.departure_solver",
		trace.WithAttributes(
			attribute.String("solver.desired_arrival", desiredArrival.Format(time.RFC3339)),
		),
	)
}

func RecordSolverResult(span trace.Span, chosenDeparture time.Time, arrivalDiff time.Duration, providerCalls int, converged bool, err error) {
	span.SetAttributes(
		attribute.String("solver.chosen_departure", chosenDeparture.Format(time.RFC3339)),
		attribute.Int64("solver.arrival_diff_ms", arrivalDiff.Milliseconds()),
		attribute.Int("solver.provider_calls", providerCalls),
		attribute.Bool("solver.converged", converged),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
}

func StartProviderCallSpan(ctx context.Context, provider, operation string) (context.Context, trace.Span) {
	return SearchTracer().Start(ctx, "search.provider."+operation,
		trace.WithAttributes(
			attribute.String("provider", provider),
		),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

func StartSweepSpan(ctx context.Context, now time.Time) (context.Context, trace.Span) {
	return SearchTracer().Start(ctx, "sweep.tick",
		trace.WithAttributes(
			attribute.String("sweep.now", now.Format(time.RFC3339)),
		),
	)
}

func RecordSweepResult(span trace.Span, due, delivered, failed, skipped int, err error) {
	span.SetAttributes(
		attribute.Int("sweep.due_count", due),
		attribute.Int("sweep.delivered_count", delivered),
		attribute.Int("sweep.failed_count", failed),
		attribute.Int("sweep.skipped_count", skipped),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
}

// InjectToHTTPRequest propagates the current trace context onto an outgoing
// provider request.
func InjectToHTTPRequest(ctx context.Context, req *http.Request) {
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
}
