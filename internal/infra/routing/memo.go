package routing

import (
	"context"
	"fmt"
	"time"

	"github.com/bluele/gcache"

	"github.com/NeriVermilion/departure-planner/internal/domain"
)

// EstimateFunc is any provider call producing a single estimate.
type EstimateFunc func(ctx context.Context) (*domain.RouteEstimate, error)

// Memo is an in-process LRU for provider estimates. Keys include the
// departure truncated to the minute, so repeated bisection probes across
// near-simultaneous searches hit the cache while stale traffic data ages
// out quickly.
type Memo struct {
	cache gcache.Cache
}

func NewMemo(size int, ttl time.Duration) *Memo {
	return &Memo{
		cache: gcache.New(size).
			LRU().
			Expiration(ttl).
			Build(),
	}
}

// Get returns the cached estimate for the key, calling fetch on a miss.
// Errors are never cached. Callers get their own copy since the search
// rewrites departure times on the estimates it holds.
func (m *Memo) Get(ctx context.Context, key string, fetch EstimateFunc) (*domain.RouteEstimate, error) {
	if v, err := m.cache.Get(key); err == nil {
		if estimate, ok := v.(domain.RouteEstimate); ok {
			return &estimate, nil
		}
	}

	estimate, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	_ = m.cache.Set(key, *estimate)

	cached := *estimate
	return &cached, nil
}

// MemoKey builds a cache key for one provider call. A nil departure maps to
// the literal "now" bucket.
func MemoKey(mode domain.TravelMode, origin, destination domain.Coordinate, departure *time.Time) string {
	at := "now"
	if departure != nil {
		at = departure.Truncate(time.Minute).Format(time.RFC3339)
	}
	return fmt.Sprintf("%s|%s|%s|%s", mode, origin.PointParam(), destination.PointParam(), at)
}
