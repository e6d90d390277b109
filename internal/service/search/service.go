package search

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/NeriVermilion/departure-planner/internal/domain"
	"github.com/NeriVermilion/departure-planner/internal/infra/routing"
	"github.com/NeriVermilion/departure-planner/internal/observability/metrics"
	"github.com/NeriVermilion/departure-planner/internal/observability/tracing"
	"github.com/NeriVermilion/departure-planner/internal/service/solver"
)

// Service orchestrates one route plan: resolve both endpoints, route by
// travel mode, derive the recommended departure, and optionally save the
// result for the notification sweep.
type Service struct {
	geocoder Geocoder
	places   PlaceSearcher

	driving DrivingRouter
	walking WalkingRouter
	cycling CyclingRouter
	transit TransitRouter

	solver        *solver.Solver
	memo          *routing.Memo
	departures    domain.PendingDepartureRepository
	recorder      domain.SolverRunRecorder
	searchMetrics *metrics.SearchMetrics
}

type Deps struct {
	Geocoder Geocoder
	Places   PlaceSearcher

	Driving DrivingRouter
	Walking WalkingRouter
	Cycling CyclingRouter
	Transit TransitRouter

	Solver        *solver.Solver
	Memo          *routing.Memo
	Departures    domain.PendingDepartureRepository
	Recorder      domain.SolverRunRecorder
	SearchMetrics *metrics.SearchMetrics
}

func NewService(deps Deps) *Service {
	return &Service{
		geocoder:      deps.Geocoder,
		places:        deps.Places,
		driving:       deps.Driving,
		walking:       deps.Walking,
		cycling:       deps.Cycling,
		transit:       deps.Transit,
		solver:        deps.Solver,
		memo:          deps.Memo,
		departures:    deps.Departures,
		recorder:      deps.Recorder,
		searchMetrics: deps.SearchMetrics,
	}
}

// Plan resolves and routes one request.
func (s *Service) Plan(ctx context.Context, req Request) (*Plan, error) {
	if _, err := domain.ParseTravelMode(string(req.Mode)); err != nil {
		return nil, err
	}

	start, err := s.geocoder.Geocode(ctx, req.StartQuery)
	if err != nil {
		return nil, fmt.Errorf("resolve start: %w", err)
	}
	end, err := s.geocoder.Geocode(ctx, req.EndQuery)
	if err != nil {
		return nil, fmt.Errorf("resolve end: %w", err)
	}

	plan := &Plan{
		Start:          start,
		End:            end,
		Mode:           req.Mode,
		DesiredArrival: req.DesiredArrival,
	}

	if err := s.route(ctx, req, plan); err != nil {
		return nil, err
	}

	s.recommendDeparture(plan)

	if req.WantsNotification {
		s.saveDeparture(ctx, req, plan)
	}

	return plan, nil
}

// SearchPlaces proxies the place search for the client's endpoint picker.
func (s *Service) SearchPlaces(ctx context.Context, query string) ([]domain.Place, error) {
	return s.places.SearchLocal(ctx, query)
}

// ListDepartures returns a user's saved reverse searches, newest first.
func (s *Service) ListDepartures(ctx context.Context, userID string, limit int) ([]*domain.PendingDeparture, error) {
	return s.departures.ListByUser(ctx, userID, limit)
}

func (s *Service) route(ctx context.Context, req Request, plan *Plan) error {
	origin := plan.Start.Coord
	destination := plan.End.Coord

	switch req.Mode {
	case domain.ModeDriving:
		if req.DesiredArrival != nil {
			return s.routeDrivingWithSearch(ctx, origin, destination, *req.DesiredArrival, plan)
		}
		estimate, err := s.callDriving(ctx, origin, destination, nil)
		plan.ProviderCalls = 1
		if err != nil {
			return err
		}
		plan.Estimate = estimate
		return nil

	case domain.ModeWalking:
		estimate, err := s.walking.Walking(ctx, origin, destination)
		plan.ProviderCalls = 1
		if err != nil {
			s.recordProviderCall(ctx, "tmap", "error")
			return err
		}
		s.recordProviderCall(ctx, "tmap", "ok")
		plan.Estimate = estimate
		return nil

	case domain.ModeCycling:
		estimate, err := s.cycling.Cycling(ctx, origin, destination)
		plan.ProviderCalls = 1
		if err != nil {
			s.recordProviderCall(ctx, "ors", "error")
			return err
		}
		s.recordProviderCall(ctx, "ors", "ok")
		plan.Estimate = estimate
		return nil

	case domain.ModeTransit:
		estimate, err := s.transit.Transit(ctx, origin, destination, req.DesiredArrival)
		plan.ProviderCalls = 1
		if err != nil {
			s.recordProviderCall(ctx, "google", "error")
			return err
		}
		s.recordProviderCall(ctx, "google", "ok")
		plan.Estimate = estimate
		return nil
	}

	return fmt.Errorf("%w: %q", domain.ErrInvalidTravelMode, req.Mode)
}

func (s *Service) routeDrivingWithSearch(ctx context.Context, origin, destination domain.Coordinate, desiredArrival time.Time, plan *Plan) error {
	ctx, span := tracing.StartSolverSpan(ctx, desiredArrival)
	defer span.End()

	started := time.Now()

	routeFn := func(ctx context.Context, departure *time.Time) (*domain.RouteEstimate, error) {
		return s.callDriving(ctx, origin, destination, departure)
	}

	result, err := s.solver.Solve(ctx, desiredArrival, routeFn)
	if err != nil {
		tracing.RecordSolverResult(span, time.Time{}, 0, 0, false, err)
		return err
	}

	plan.Estimate = result.Estimate
	plan.ProviderCalls = result.ProviderCalls
	plan.Converged = result.Converged
	plan.FellBack = result.FellBack

	tracing.RecordSolverResult(span,
		result.Estimate.DepartureTime, result.ArrivalDiff, result.ProviderCalls, result.Converged, nil)

	if s.recorder != nil {
		_ = s.recorder.RecordSolverRun(ctx, domain.SolverRunRecord{
			RunID:           uuid.NewString(),
			DesiredArrival:  desiredArrival,
			ChosenDeparture: result.Estimate.DepartureTime,
			ArrivalDiff:     result.ArrivalDiff,
			ProviderCalls:   result.ProviderCalls,
			Converged:       result.Converged,
			FellBack:        result.FellBack,
			Elapsed:         time.Since(started),
		})
	}

	return nil
}

func (s *Service) callDriving(ctx context.Context, origin, destination domain.Coordinate, departure *time.Time) (*domain.RouteEstimate, error) {
	fetch := func(ctx context.Context) (*domain.RouteEstimate, error) {
		ctx, span := tracing.StartProviderCallSpan(ctx, "tmap", "driving")
		defer span.End()

		estimate, err := s.driving.Driving(ctx, origin, destination, departure)
		if err != nil {
			s.recordProviderCall(ctx, "tmap", "error")
			return nil, err
		}
		s.recordProviderCall(ctx, "tmap", "ok")
		return estimate, nil
	}

	if s.memo == nil {
		return fetch(ctx)
	}
	key := routing.MemoKey(domain.ModeDriving, origin, destination, departure)
	return s.memo.Get(ctx, key, fetch)
}

// recommendDeparture fills the recommended departure. Driving estimates
// carry the solver's chosen departure already; every other mode gets the
// plain arrival-minus-duration subtraction.
func (s *Service) recommendDeparture(plan *Plan) {
	if plan.Estimate == nil {
		return
	}

	if plan.Mode == domain.ModeDriving && plan.DesiredArrival != nil && !plan.FellBack {
		departure := plan.Estimate.DepartureTime
		plan.RecommendedDeparture = &departure
		return
	}

	if plan.DesiredArrival != nil {
		departure := plan.DesiredArrival.Add(-plan.Estimate.TravelDuration)
		plan.RecommendedDeparture = &departure
	}
}

// saveDeparture persists the plan for the sweep. Best effort: a plan with
// no future departure, no user, or a failed insert just skips the save.
func (s *Service) saveDeparture(ctx context.Context, req Request, plan *Plan) {
	if req.UserID == "" || plan.RecommendedDeparture == nil || plan.DesiredArrival == nil {
		return
	}
	if !plan.RecommendedDeparture.After(time.Now()) {
		slog.DebugContext(ctx, "computed departure already passed, not saving",
			slog.Time("computed_departure", *plan.RecommendedDeparture),
		)
		return
	}

	departure := domain.NewPendingDeparture(
		req.UserID,
		plan.Start.Query,
		plan.End.Query,
		plan.Mode,
		*plan.DesiredArrival,
		*plan.RecommendedDeparture,
		plan.Estimate.Payload,
	)

	if err := s.departures.Insert(ctx, departure); err != nil {
		slog.ErrorContext(ctx, "failed to save pending departure",
			slog.String("user_id", req.UserID),
			slog.String("error", err.Error()),
		)
		return
	}

	slog.InfoContext(ctx, "pending departure saved",
		slog.String("departure_id", departure.ID),
		slog.String("user_id", req.UserID),
		slog.Time("computed_departure", departure.ComputedDeparture),
	)
	plan.SavedDepartureID = departure.ID
}

func (s *Service) recordProviderCall(ctx context.Context, provider, outcome string) {
	if s.searchMetrics != nil {
		s.searchMetrics.RecordProviderCall(ctx, provider, outcome)
	}
}
