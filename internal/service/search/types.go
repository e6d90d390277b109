package search

import (
	"context"
	"time"

	"github.com/NeriVermilion/departure-planner/internal/domain"
)

// Geocoder resolves a free-form address or place label to a coordinate.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (*domain.GeocodeResult, error)
}

// PlaceSearcher returns candidate places for a query.
type PlaceSearcher interface {
	SearchLocal(ctx context.Context, query string) ([]domain.Place, error)
}

// DrivingRouter is the only router that honors a departure time, which is
// why the bisection search exists for driving alone.
type DrivingRouter interface {
	Driving(ctx context.Context, origin, destination domain.Coordinate, departure *time.Time) (*domain.RouteEstimate, error)
}

type WalkingRouter interface {
	Walking(ctx context.Context, origin, destination domain.Coordinate) (*domain.RouteEstimate, error)
}

type CyclingRouter interface {
	Cycling(ctx context.Context, origin, destination domain.Coordinate) (*domain.RouteEstimate, error)
}

type TransitRouter interface {
	Transit(ctx context.Context, origin, destination domain.Coordinate, arrival *time.Time) (*domain.RouteEstimate, error)
}

// Request is one route-planning request.
type Request struct {
	UserID            string
	StartQuery        string
	EndQuery          string
	Mode              domain.TravelMode
	DesiredArrival    *time.Time
	WantsNotification bool
}

// Plan is the outcome of one request.
type Plan struct {
	Start *domain.GeocodeResult
	End   *domain.GeocodeResult
	Mode  domain.TravelMode

	Estimate             *domain.RouteEstimate
	RecommendedDeparture *time.Time
	DesiredArrival       *time.Time

	ProviderCalls int
	Converged     bool
	FellBack      bool

	SavedDepartureID string
}
