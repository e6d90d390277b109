package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// PointParam renders the coordinate in the lng,lat order the routing
// providers expect in query strings.
func (c Coordinate) PointParam() string {
	return fmt.Sprintf("%f,%f", c.Lng, c.Lat)
}

// RouteEstimate is the result of a single routing provider call.
// Payload keeps the provider response opaque for clients that render it.
type RouteEstimate struct {
	DepartureTime  time.Time       `json:"departure_time"`
	TravelDuration time.Duration   `json:"travel_duration"`
	DistanceMeters int             `json:"distance_meters"`
	Payload        json.RawMessage `json:"payload,omitempty"`
}

func (e *RouteEstimate) ArrivalTime() time.Time {
	return e.DepartureTime.Add(e.TravelDuration)
}
