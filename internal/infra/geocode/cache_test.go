package geocode

import (
	"context"
	"testing"

	"github.com/NeriVermilion/departure-planner/internal/domain"
	"github.com/NeriVermilion/departure-planner/internal/testutil"
)

type stubGeocoder struct {
	result *domain.GeocodeResult
	err    error
	calls  int
}

func (s *stubGeocoder) Geocode(_ context.Context, _ string) (*domain.GeocodeResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func TestCachedGeocoder_HitBypassesUpstream(t *testing.T) {
	ctx := context.Background()
	client, cleanup := testutil.SetupRedisContainer(ctx, t)
	defer cleanup()

	upstream := &stubGeocoder{result: &domain.GeocodeResult{
		Query:       "Seoul City Hall",
		RoadAddress: "110 Sejong-daero, Jung-gu, Seoul",
		Coord:       domain.Coordinate{Lat: 37.5665, Lng: 126.9780},
	}}
	cached := NewCachedGeocoder(client, upstream)

	first, err := cached.Geocode(ctx, "Seoul City Hall")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if upstream.calls != 1 {
		t.Fatalf("upstream calls = %d, want 1", upstream.calls)
	}

	second, err := cached.Geocode(ctx, "Seoul City Hall")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if upstream.calls != 1 {
		t.Errorf("upstream calls = %d, want still 1 after cache hit", upstream.calls)
	}

	if second.Coord != first.Coord {
		t.Errorf("cached coordinate = %+v, want %+v", second.Coord, first.Coord)
	}
	if second.RoadAddress != first.RoadAddress {
		t.Errorf("cached road address = %q, want %q", second.RoadAddress, first.RoadAddress)
	}
}

func TestCachedGeocoder_ErrorsAreNotCached(t *testing.T) {
	ctx := context.Background()
	client, cleanup := testutil.SetupRedisContainer(ctx, t)
	defer cleanup()

	upstream := &stubGeocoder{err: domain.ErrAddressNotFound}
	cached := NewCachedGeocoder(client, upstream)

	if _, err := cached.Geocode(ctx, "nowhere"); err == nil {
		t.Fatal("expected error from upstream")
	}

	// The failure must reach upstream again instead of being served.
	upstream.err = nil
	upstream.result = &domain.GeocodeResult{
		Query: "nowhere",
		Coord: domain.Coordinate{Lat: 1, Lng: 2},
	}
	result, err := cached.Geocode(ctx, "nowhere")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if upstream.calls != 2 {
		t.Errorf("upstream calls = %d, want 2", upstream.calls)
	}
	if result.Coord != (domain.Coordinate{Lat: 1, Lng: 2}) {
		t.Errorf("coordinate = %+v", result.Coord)
	}
}
