package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/NeriVermilion/departure-planner/internal/config"
	"github.com/NeriVermilion/departure-planner/internal/domain"
	"github.com/NeriVermilion/departure-planner/internal/service/solver"
)

type mockGeocoder struct {
	coords map[string]domain.Coordinate
	err    error
}

func (m *mockGeocoder) Geocode(_ context.Context, query string) (*domain.GeocodeResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	coord, ok := m.coords[query]
	if !ok {
		return nil, domain.ErrAddressNotFound
	}
	return &domain.GeocodeResult{Query: query, Coord: coord}, nil
}

type mockDriving struct {
	duration time.Duration
	err      error
	calls    int
}

func (m *mockDriving) Driving(_ context.Context, _, _ domain.Coordinate, departure *time.Time) (*domain.RouteEstimate, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	departureTime := time.Now()
	if departure != nil {
		departureTime = *departure
	}
	return &domain.RouteEstimate{
		DepartureTime:  departureTime,
		TravelDuration: m.duration,
		DistanceMeters: 12000,
	}, nil
}

type mockWalking struct {
	duration time.Duration
	calls    int
}

func (m *mockWalking) Walking(_ context.Context, _, _ domain.Coordinate) (*domain.RouteEstimate, error) {
	m.calls++
	return &domain.RouteEstimate{
		DepartureTime:  time.Now(),
		TravelDuration: m.duration,
	}, nil
}

type mockDepartureRepo struct {
	inserted  []*domain.PendingDeparture
	insertErr error
}

func (m *mockDepartureRepo) Insert(_ context.Context, d *domain.PendingDeparture) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.inserted = append(m.inserted, d)
	return nil
}

func (m *mockDepartureRepo) FindDueUnsent(_ context.Context, _ time.Time, _ time.Duration) ([]*domain.PendingDeparture, error) {
	return nil, nil
}

func (m *mockDepartureRepo) MarkSent(_ context.Context, _ string) (bool, error) {
	return false, nil
}

func (m *mockDepartureRepo) ListByUser(_ context.Context, _ string, _ int) ([]*domain.PendingDeparture, error) {
	return m.inserted, nil
}

func testGeocoder() *mockGeocoder {
	return &mockGeocoder{coords: map[string]domain.Coordinate{
		"Home":   {Lat: 37.5665, Lng: 126.9780},
		"Office": {Lat: 37.3948, Lng: 127.1112},
	}}
}

func testSolver() *solver.Solver {
	return solver.New(&config.SolverConfig{
		LookbackHours: 12,
		MaxIterations: 10,
		Tolerance:     time.Minute,
	}, nil)
}

func TestPlan_DrivingWithArrivalRunsSearch(t *testing.T) {
	driving := &mockDriving{duration: 40 * time.Minute}
	repo := &mockDepartureRepo{}

	svc := NewService(Deps{
		Geocoder:   testGeocoder(),
		Driving:    driving,
		Solver:     testSolver(),
		Departures: repo,
	})

	arrival := time.Now().Add(6 * time.Hour)
	plan, err := svc.Plan(context.Background(), Request{
		UserID:            "user-1",
		StartQuery:        "Home",
		EndQuery:          "Office",
		Mode:              domain.ModeDriving,
		DesiredArrival:    &arrival,
		WantsNotification: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if plan.RecommendedDeparture == nil {
		t.Fatal("RecommendedDeparture = nil, want a departure")
	}
	wantDeparture := arrival.Add(-40 * time.Minute)
	gap := plan.RecommendedDeparture.Sub(wantDeparture)
	if gap < 0 {
		gap = -gap
	}
	if gap > time.Minute {
		t.Errorf("recommended departure %v is %v away from %v",
			plan.RecommendedDeparture, gap, wantDeparture)
	}
	if !plan.Converged {
		t.Error("Converged = false, want true for a constant-duration route")
	}
	if driving.calls < 1 || driving.calls > 10 {
		t.Errorf("driving calls = %d, want between 1 and 10", driving.calls)
	}

	if len(repo.inserted) != 1 {
		t.Fatalf("inserted records = %d, want 1", len(repo.inserted))
	}
	saved := repo.inserted[0]
	if saved.UserID != "user-1" || saved.Mode != domain.ModeDriving {
		t.Errorf("saved record = %+v", saved)
	}
	if plan.SavedDepartureID != saved.ID {
		t.Errorf("SavedDepartureID = %q, want %q", plan.SavedDepartureID, saved.ID)
	}
}

func TestPlan_WalkingUsesSubtraction(t *testing.T) {
	walking := &mockWalking{duration: 25 * time.Minute}

	svc := NewService(Deps{
		Geocoder:   testGeocoder(),
		Walking:    walking,
		Solver:     testSolver(),
		Departures: &mockDepartureRepo{},
	})

	arrival := time.Now().Add(2 * time.Hour)
	plan, err := svc.Plan(context.Background(), Request{
		StartQuery:     "Home",
		EndQuery:       "Office",
		Mode:           domain.ModeWalking,
		DesiredArrival: &arrival,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if walking.calls != 1 {
		t.Errorf("walking calls = %d, want 1 (no departure search for walking)", walking.calls)
	}
	if plan.RecommendedDeparture == nil {
		t.Fatal("RecommendedDeparture = nil, want arrival minus duration")
	}
	want := arrival.Add(-25 * time.Minute)
	if !plan.RecommendedDeparture.Equal(want) {
		t.Errorf("recommended departure = %v, want %v", plan.RecommendedDeparture, want)
	}
}

func TestPlan_PastDepartureNotSaved(t *testing.T) {
	// Arrival so soon that the computed departure has already passed.
	walking := &mockWalking{duration: 2 * time.Hour}
	repo := &mockDepartureRepo{}

	svc := NewService(Deps{
		Geocoder:   testGeocoder(),
		Walking:    walking,
		Solver:     testSolver(),
		Departures: repo,
	})

	arrival := time.Now().Add(30 * time.Minute)
	plan, err := svc.Plan(context.Background(), Request{
		UserID:            "user-1",
		StartQuery:        "Home",
		EndQuery:          "Office",
		Mode:              domain.ModeWalking,
		DesiredArrival:    &arrival,
		WantsNotification: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(repo.inserted) != 0 {
		t.Errorf("inserted records = %d, want 0 for a past departure", len(repo.inserted))
	}
	if plan.SavedDepartureID != "" {
		t.Errorf("SavedDepartureID = %q, want empty", plan.SavedDepartureID)
	}
}

func TestPlan_InvalidMode(t *testing.T) {
	svc := NewService(Deps{
		Geocoder:   testGeocoder(),
		Solver:     testSolver(),
		Departures: &mockDepartureRepo{},
	})

	_, err := svc.Plan(context.Background(), Request{
		StartQuery: "Home",
		EndQuery:   "Office",
		Mode:       domain.TravelMode("teleport"),
	})
	if !errors.Is(err, domain.ErrInvalidTravelMode) {
		t.Errorf("error = %v, want ErrInvalidTravelMode", err)
	}
}

func TestPlan_GeocodeFailurePropagates(t *testing.T) {
	svc := NewService(Deps{
		Geocoder:   testGeocoder(),
		Solver:     testSolver(),
		Departures: &mockDepartureRepo{},
	})

	_, err := svc.Plan(context.Background(), Request{
		StartQuery: "Nowhere",
		EndQuery:   "Office",
		Mode:       domain.ModeWalking,
	})
	if !errors.Is(err, domain.ErrAddressNotFound) {
		t.Errorf("error = %v, want ErrAddressNotFound", err)
	}
}
