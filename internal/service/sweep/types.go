package sweep

import (
	"context"
	"time"

	"github.com/NeriVermilion/departure-planner/internal/domain"
)

// DepartureStore is the slice of the repository the sweep needs.
type DepartureStore interface {
	FindDueUnsent(ctx context.Context, now time.Time, gracePeriod time.Duration) ([]*domain.PendingDeparture, error)
	MarkSent(ctx context.Context, id string) (bool, error)
}

// CredentialSource produces a fresh delivery credential.
type CredentialSource interface {
	Refresh(ctx context.Context) (string, error)
}

// Channel delivers one reminder. Implementations make exactly one attempt.
type Channel interface {
	Send(ctx context.Context, accessToken string, msg domain.NotificationMessage) error
}

// ResultItem is the outcome for one pending departure.
type ResultItem struct {
	DepartureID string
	UserID      string
	Delivered   bool
	Skipped     bool
	FailReason  string
}

// Result summarizes one sweep tick.
type Result struct {
	TickAt         time.Time
	DueCount       int
	DeliveredCount int
	FailedCount    int
	SkippedCount   int
	Items          []ResultItem
}
