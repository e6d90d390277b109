package domain

import (
	"context"
	"time"
)

type PendingDepartureRepository interface {
	Insert(ctx context.Context, departure *PendingDeparture) error
	// FindDueUnsent returns unsent records whose computed departure lies in
	// [now - gracePeriod, now], ordered by computed departure.
	FindDueUnsent(ctx context.Context, now time.Time, gracePeriod time.Duration) ([]*PendingDeparture, error)
	// MarkSent flips notification_sent for an unsent record. The boolean is
	// the claim: false means another sweep already owns the record.
	MarkSent(ctx context.Context, id string) (bool, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]*PendingDeparture, error)
}
