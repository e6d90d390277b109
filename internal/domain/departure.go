package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// PendingDeparture is a saved reverse search: a computed departure time
// waiting for its notification. NotificationSent flips to true exactly once,
// by whichever sweep first claims the record; the record is never deleted
// here (retention is an external concern).
type PendingDeparture struct {
	ID                string          `json:"id"`
	UserID            string          `json:"user_id"`
	StartLabel        string          `json:"start_label"`
	EndLabel          string          `json:"end_label"`
	Mode              TravelMode      `json:"mode"`
	DesiredArrival    time.Time       `json:"desired_arrival"`
	ComputedDeparture time.Time       `json:"computed_departure"`
	RouteSnapshot     json.RawMessage `json:"route_snapshot,omitempty"`
	NotificationSent  bool            `json:"notification_sent"`
	CreatedAt         time.Time       `json:"created_at"`
}

func NewPendingDeparture(
	userID, startLabel, endLabel string,
	mode TravelMode,
	desiredArrival, computedDeparture time.Time,
	routeSnapshot json.RawMessage,
) *PendingDeparture {
	return &PendingDeparture{
		ID:                uuid.NewString(),
		UserID:            userID,
		StartLabel:        startLabel,
		EndLabel:          endLabel,
		Mode:              mode,
		DesiredArrival:    desiredArrival,
		ComputedDeparture: computedDeparture,
		RouteSnapshot:     routeSnapshot,
		NotificationSent:  false,
		CreatedAt:         time.Now().UTC(),
	}
}

// Due reports whether the computed departure time has arrived without
// falling outside the sweep grace period.
func (p *PendingDeparture) Due(now time.Time, gracePeriod time.Duration) bool {
	if p.ComputedDeparture.After(now) {
		return false
	}
	return !p.ComputedDeparture.Before(now.Add(-gracePeriod))
}
