package routing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/NeriVermilion/departure-planner/internal/domain"
)

func TestMemo_SecondLookupSkipsFetch(t *testing.T) {
	memo := NewMemo(16, time.Minute)

	calls := 0
	fetch := func(_ context.Context) (*domain.RouteEstimate, error) {
		calls++
		return &domain.RouteEstimate{TravelDuration: 10 * time.Minute}, nil
	}

	first, err := memo.Get(context.Background(), "k1", fetch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := memo.Get(context.Background(), "k1", fetch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if calls != 1 {
		t.Errorf("fetch calls = %d, want 1", calls)
	}
	if second.TravelDuration != first.TravelDuration {
		t.Errorf("cached duration = %v, want %v", second.TravelDuration, first.TravelDuration)
	}

	// Mutating one caller's estimate must not leak into the cache.
	first.DepartureTime = time.Now().Add(time.Hour)
	third, err := memo.Get(context.Background(), "k1", fetch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if third.DepartureTime.Equal(first.DepartureTime) {
		t.Error("cache returned a shared estimate pointer")
	}
}

func TestMemo_ErrorsAreNotCached(t *testing.T) {
	memo := NewMemo(16, time.Minute)

	calls := 0
	fetch := func(_ context.Context) (*domain.RouteEstimate, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("provider down")
		}
		return &domain.RouteEstimate{TravelDuration: 5 * time.Minute}, nil
	}

	if _, err := memo.Get(context.Background(), "k1", fetch); err == nil {
		t.Fatal("expected error on first fetch")
	}
	estimate, err := memo.Get(context.Background(), "k1", fetch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Errorf("fetch calls = %d, want 2", calls)
	}
	if estimate.TravelDuration != 5*time.Minute {
		t.Errorf("duration = %v", estimate.TravelDuration)
	}
}

func TestMemoKey_DepartureBuckets(t *testing.T) {
	origin := domain.Coordinate{Lat: 37.5, Lng: 127.0}
	destination := domain.Coordinate{Lat: 37.4, Lng: 127.1}

	base := time.Date(2026, 3, 14, 8, 30, 10, 0, time.UTC)
	sameMinute := base.Add(40 * time.Second)
	nextMinute := base.Add(time.Minute)

	k1 := MemoKey(domain.ModeDriving, origin, destination, &base)
	k2 := MemoKey(domain.ModeDriving, origin, destination, &sameMinute)
	k3 := MemoKey(domain.ModeDriving, origin, destination, &nextMinute)

	if k1 != k2 {
		t.Errorf("same-minute keys differ: %q vs %q", k1, k2)
	}
	if k1 == k3 {
		t.Errorf("different-minute keys collide: %q", k1)
	}

	if now := MemoKey(domain.ModeDriving, origin, destination, nil); now == k1 {
		t.Error("nil-departure key collides with timed key")
	}
}
