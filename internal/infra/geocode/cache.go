package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/NeriVermilion/departure-planner/internal/domain"
)

const (
	geocodeKeyPrefix = "geocode:addr:"

	geocodeTTL = 24 * time.Hour
)

type geocodeRecord struct {
	Query       string    `json:"query"`
	RoadAddress string    `json:"road_address"`
	Lat         float64   `json:"lat"`
	Lng         float64   `json:"lng"`
	CachedAt    time.Time `json:"cached_at"`
}

// Geocoder resolves an address to a coordinate.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (*domain.GeocodeResult, error)
}

// CachedGeocoder fronts a Geocoder with redis. Addresses rarely move, so
// hits are served for a day. Cache failures degrade to the upstream call.
type CachedGeocoder struct {
	client   *redis.Client
	upstream Geocoder
}

func NewCachedGeocoder(client *redis.Client, upstream Geocoder) *CachedGeocoder {
	return &CachedGeocoder{
		client:   client,
		upstream: upstream,
	}
}

func (g *CachedGeocoder) Geocode(ctx context.Context, query string) (*domain.GeocodeResult, error) {
	key := geocodeKeyPrefix + query

	data, err := g.client.Get(ctx, key).Bytes()
	if err == nil {
		var record geocodeRecord
		if err := json.Unmarshal(data, &record); err == nil {
			return &domain.GeocodeResult{
				Query:       record.Query,
				RoadAddress: record.RoadAddress,
				Coord:       domain.Coordinate{Lat: record.Lat, Lng: record.Lng},
			}, nil
		}
		// Unreadable record: fall through and overwrite it.
	} else if !errors.Is(err, redis.Nil) {
		slog.WarnContext(ctx, "geocode cache read failed",
			slog.String("query", query),
			slog.String("error", err.Error()),
		)
	}

	result, err := g.upstream.Geocode(ctx, query)
	if err != nil {
		return nil, err
	}

	record := geocodeRecord{
		Query:       result.Query,
		RoadAddress: result.RoadAddress,
		Lat:         result.Coord.Lat,
		Lng:         result.Coord.Lng,
		CachedAt:    time.Now(),
	}
	if data, err := json.Marshal(record); err == nil {
		if err := g.client.Set(ctx, key, data, geocodeTTL).Err(); err != nil {
			slog.WarnContext(ctx, "geocode cache write failed",
				slog.String("query", query),
				slog.String("error", err.Error()),
			)
		}
	}

	return result, nil
}
