package solver

import (
	"context"
	"log/slog"
	"time"

	"github.com/NeriVermilion/departure-planner/internal/config"
	"github.com/NeriVermilion/departure-planner/internal/domain"
	"github.com/NeriVermilion/departure-planner/internal/observability/metrics"
)

// RouteFunc asks a routing provider for the travel duration of one candidate
// departure. A nil departure means "leave now" and is only used by the
// fallback path. Implementations must honor the departure time, otherwise
// the search is meaningless.
type RouteFunc func(ctx context.Context, departure *time.Time) (*domain.RouteEstimate, error)

type Result struct {
	Estimate      *domain.RouteEstimate
	ArrivalDiff   time.Duration
	ProviderCalls int
	Converged     bool
	FellBack      bool
}

// Solver bisects a departure-time window so that the resulting arrival lands
// near a desired arrival time. Travel duration is not guaranteed monotonic in
// departure time (rush-hour spikes), so this is a heuristic search: the best
// of the sampled candidates wins, whether or not it is inside tolerance.
type Solver struct {
	lookback      time.Duration
	maxIterations int
	tolerance     time.Duration
	searchMetrics *metrics.SearchMetrics
}

func New(cfg *config.SolverConfig, searchMetrics *metrics.SearchMetrics) *Solver {
	return &Solver{
		lookback:      time.Duration(cfg.LookbackHours) * time.Hour,
		maxIterations: cfg.MaxIterations,
		tolerance:     cfg.Tolerance,
		searchMetrics: searchMetrics,
	}
}

// Solve returns the best estimate found within the iteration budget. The
// window is one-sided: departures after desiredArrival are never tried. If a
// provider duration would push the ideal departure before the window's low
// bound, the loop simply exhausts its budget and the nearest sampled
// candidate is returned. The result may be outside tolerance; callers that
// care must check ArrivalDiff. A provider failure mid-search ends the search
// with the best estimate so far; if the very first call fails, a single
// no-departure-time fallback call is made and returned unevaluated.
func (s *Solver) Solve(ctx context.Context, desiredArrival time.Time, route RouteFunc) (*Result, error) {
	low := desiredArrival.Add(-s.lookback)
	high := desiredArrival

	slog.DebugContext(ctx, "departure search started",
		slog.Time("desired_arrival", desiredArrival),
		slog.Time("window_low", low),
		slog.Int("max_iterations", s.maxIterations),
	)

	result := &Result{}
	var best *domain.RouteEstimate
	var bestDiff time.Duration

	for i := 0; i < s.maxIterations; i++ {
		mid := low.Add(high.Sub(low) / 2)

		estimate, err := route(ctx, &mid)
		result.ProviderCalls++
		if err != nil {
			// No retry at the same midpoint; the search ends here.
			slog.WarnContext(ctx, "provider call failed, ending departure search",
				slog.Int("iteration", i+1),
				slog.Time("candidate_departure", mid),
				slog.String("error", err.Error()),
			)
			break
		}

		estimate.DepartureTime = mid
		arrival := estimate.ArrivalTime()
		diff := arrival.Sub(desiredArrival)

		slog.DebugContext(ctx, "departure candidate evaluated",
			slog.Int("iteration", i+1),
			slog.Time("candidate_departure", mid),
			slog.Duration("travel_duration", estimate.TravelDuration),
			slog.Time("arrival", arrival),
			slog.Duration("diff", diff),
		)

		// First-found wins on ties.
		if best == nil || absDuration(diff) < absDuration(bestDiff) {
			best = estimate
			bestDiff = diff
		}

		if absDuration(diff) <= s.tolerance {
			result.Converged = true
			break
		}

		if diff > 0 {
			// Arrived too late: try earlier departures.
			high = mid
		} else {
			low = mid
		}
	}

	if best == nil {
		slog.WarnContext(ctx, "departure search got no estimate, falling back to leave-now route")
		estimate, err := route(ctx, nil)
		result.ProviderCalls++
		if err != nil {
			if s.searchMetrics != nil {
				s.searchMetrics.RecordSolverRun(ctx, result.ProviderCalls, "unavailable")
			}
			return nil, err
		}
		result.Estimate = estimate
		result.FellBack = true
		if s.searchMetrics != nil {
			s.searchMetrics.RecordSolverRun(ctx, result.ProviderCalls, "fallback")
		}
		return result, nil
	}

	result.Estimate = best
	result.ArrivalDiff = bestDiff

	outcome := "best_effort"
	if result.Converged {
		outcome = "converged"
	}
	if s.searchMetrics != nil {
		s.searchMetrics.RecordSolverRun(ctx, result.ProviderCalls, outcome)
	}

	slog.InfoContext(ctx, "departure search finished",
		slog.Time("chosen_departure", best.DepartureTime),
		slog.Duration("arrival_diff", bestDiff),
		slog.Int("provider_calls", result.ProviderCalls),
		slog.Bool("converged", result.Converged),
	)

	return result, nil
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
