package solver

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/NeriVermilion/departure-planner/internal/config"
	"github.com/NeriVermilion/departure-planner/internal/domain"
)

func testConfig() *config.SolverConfig {
	return &config.SolverConfig{
		LookbackHours: 12,
		MaxIterations: 10,
		Tolerance:     time.Minute,
	}
}

// fixedDurationRoute returns the same travel duration for every departure
// and counts calls.
type fixedDurationRoute struct {
	duration time.Duration
	calls    int
	nilCalls int
}

func (f *fixedDurationRoute) fn(_ context.Context, departure *time.Time) (*domain.RouteEstimate, error) {
	f.calls++
	if departure == nil {
		f.nilCalls++
		return &domain.RouteEstimate{
			DepartureTime:  time.Now(),
			TravelDuration: f.duration,
		}, nil
	}
	return &domain.RouteEstimate{
		DepartureTime:  *departure,
		TravelDuration: f.duration,
	}, nil
}

func TestSolve_ConstantDurationConverges(t *testing.T) {
	desired := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	route := &fixedDurationRoute{duration: 30 * time.Minute}

	s := New(testConfig(), nil)
	result, err := s.Solve(context.Background(), desired, route.fn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.Converged {
		t.Error("Converged = false, want true")
	}
	if result.FellBack {
		t.Error("FellBack = true, want false")
	}

	wantDeparture := desired.Add(-30 * time.Minute)
	gap := result.Estimate.DepartureTime.Sub(wantDeparture)
	if gap < 0 {
		gap = -gap
	}
	if gap > time.Minute {
		t.Errorf("chosen departure %v is %v away from %v, want within 1m",
			result.Estimate.DepartureTime, gap, wantDeparture)
	}

	// ceil(log2(lookback / tolerance)) bounds the bisection depth.
	maxNeeded := int(math.Ceil(math.Log2(float64(12*time.Hour) / float64(time.Minute))))
	if route.calls > maxNeeded {
		t.Errorf("provider calls = %d, want <= %d", route.calls, maxNeeded)
	}
	if route.nilCalls != 0 {
		t.Errorf("fallback calls = %d, want 0", route.nilCalls)
	}
}

func TestSolve_NineOClockScenario(t *testing.T) {
	// desiredArrival 09:00, constant 1800s duration: departure converges to
	// roughly 08:30 within tolerance, in at most 10 calls.
	desired := time.Date(2026, 3, 14, 9, 0, 0, 0, time.Local)
	route := &fixedDurationRoute{duration: 1800 * time.Second}

	s := New(testConfig(), nil)
	result, err := s.Solve(context.Background(), desired, route.fn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.Converged {
		t.Error("Converged = false, want true")
	}
	if route.calls > 10 {
		t.Errorf("provider calls = %d, want <= 10", route.calls)
	}

	arrival := result.Estimate.ArrivalTime()
	diff := arrival.Sub(desired)
	if diff < 0 {
		diff = -diff
	}
	if diff > time.Minute {
		t.Errorf("arrival %v misses desired %v by %v", arrival, desired, diff)
	}
}

func TestSolve_FirstCallFailsFallsBack(t *testing.T) {
	desired := time.Now().Add(2 * time.Hour)
	providerErr := errors.New("upstream timeout")

	calls := 0
	nilCalls := 0
	route := func(_ context.Context, departure *time.Time) (*domain.RouteEstimate, error) {
		calls++
		if departure != nil {
			return nil, providerErr
		}
		nilCalls++
		return &domain.RouteEstimate{
			DepartureTime:  time.Now(),
			TravelDuration: 45 * time.Minute,
		}, nil
	}

	s := New(testConfig(), nil)
	result, err := s.Solve(context.Background(), desired, route)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.FellBack {
		t.Error("FellBack = false, want true")
	}
	if result.Converged {
		t.Error("Converged = true, want false")
	}
	if nilCalls != 1 {
		t.Errorf("fallback calls = %d, want exactly 1", nilCalls)
	}
	// One failed midpoint probe plus the single fallback; no retry at the
	// same midpoint.
	if calls != 2 {
		t.Errorf("total calls = %d, want 2", calls)
	}
	if result.Estimate == nil {
		t.Fatal("Estimate = nil, want fallback estimate")
	}
}

func TestSolve_TotalFailureReturnsError(t *testing.T) {
	desired := time.Now().Add(time.Hour)
	providerErr := domain.ErrProviderUnavailable

	calls := 0
	route := func(_ context.Context, _ *time.Time) (*domain.RouteEstimate, error) {
		calls++
		return nil, providerErr
	}

	s := New(testConfig(), nil)
	result, err := s.Solve(context.Background(), desired, route)
	if err == nil {
		t.Fatal("expected error when every provider call fails")
	}
	if !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Errorf("error = %v, want ErrProviderUnavailable", err)
	}
	if result != nil {
		t.Errorf("result = %+v, want nil", result)
	}
	if calls != 2 {
		t.Errorf("total calls = %d, want 2 (failed probe + failed fallback)", calls)
	}
}

func TestSolve_MidSearchFailureKeepsBestSoFar(t *testing.T) {
	desired := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	providerErr := errors.New("rate limited")

	calls := 0
	route := func(_ context.Context, departure *time.Time) (*domain.RouteEstimate, error) {
		calls++
		if calls >= 3 {
			return nil, providerErr
		}
		return &domain.RouteEstimate{
			DepartureTime:  *departure,
			TravelDuration: 4 * time.Hour,
		}, nil
	}

	s := New(testConfig(), nil)
	result, err := s.Solve(context.Background(), desired, route)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Estimate == nil {
		t.Fatal("Estimate = nil, want best-so-far estimate")
	}
	if result.FellBack {
		t.Error("FellBack = true, want false (two probes succeeded)")
	}
	if calls != 3 {
		t.Errorf("total calls = %d, want 3 (search ends on first failure)", calls)
	}
}

func TestSolve_NeverExceedsIterationBudget(t *testing.T) {
	desired := time.Now().Add(6 * time.Hour)

	// Duration longer than the lookback window: no departure in the window
	// can arrive on time, so the loop runs out its budget.
	calls := 0
	route := func(_ context.Context, departure *time.Time) (*domain.RouteEstimate, error) {
		calls++
		return &domain.RouteEstimate{
			DepartureTime:  *departure,
			TravelDuration: 14 * time.Hour,
		}, nil
	}

	cfg := testConfig()
	s := New(cfg, nil)
	result, err := s.Solve(context.Background(), desired, route)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if calls > cfg.MaxIterations+1 {
		t.Errorf("total calls = %d, want <= %d", calls, cfg.MaxIterations+1)
	}
	if result.Converged {
		t.Error("Converged = true, want false for an unreachable arrival")
	}
	if result.Estimate == nil {
		t.Fatal("Estimate = nil, want nearest sampled candidate")
	}
	// Best effort: the nearest candidate is still late.
	if result.ArrivalDiff <= 0 {
		t.Errorf("ArrivalDiff = %v, want > 0 (arrival after deadline)", result.ArrivalDiff)
	}
}

func TestSolve_FirstFoundWinsOnTies(t *testing.T) {
	desired := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	// Every probe produces the same |diff|, so the first sampled departure
	// must be kept.
	var firstDeparture time.Time
	calls := 0
	route := func(_ context.Context, departure *time.Time) (*domain.RouteEstimate, error) {
		calls++
		if calls == 1 {
			firstDeparture = *departure
		}
		return &domain.RouteEstimate{
			DepartureTime:  *departure,
			TravelDuration: desired.Add(90 * time.Minute).Sub(*departure),
		}, nil
	}

	s := New(testConfig(), nil)
	result, err := s.Solve(context.Background(), desired, route)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.Estimate.DepartureTime.Equal(firstDeparture) {
		t.Errorf("chosen departure = %v, want first sampled %v",
			result.Estimate.DepartureTime, firstDeparture)
	}
}
