package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/NeriVermilion/departure-planner/internal/domain"
	"github.com/NeriVermilion/departure-planner/internal/observability/tracing"
)

type googleDirectionsResponse struct {
	Status string `json:"status"`
	Routes []struct {
		Legs []struct {
			Duration struct {
				Value int `json:"value"`
			} `json:"duration"`
			Distance struct {
				Value int `json:"value"`
			} `json:"distance"`
			DepartureTime struct {
				Value int64 `json:"value"`
			} `json:"departure_time"`
		} `json:"legs"`
	} `json:"routes"`
}

// GoogleTransitClient calls the Directions API for transit routes. Transit
// schedules come from the provider, so the recommended departure is taken
// from the response rather than searched for.
type GoogleTransitClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewGoogleTransitClient(baseURL, apiKey string) *GoogleTransitClient {
	return &GoogleTransitClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Transit fetches a transit route arriving by the given time. A nil arrival
// asks for the next available departure.
func (c *GoogleTransitClient) Transit(ctx context.Context, origin, destination domain.Coordinate, arrival *time.Time) (*domain.RouteEstimate, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}
	u.Path = "/maps/api/directions/json"

	q := u.Query()
	q.Set("origin", fmt.Sprintf("%f,%f", origin.Lat, origin.Lng))
	q.Set("destination", fmt.Sprintf("%f,%f", destination.Lat, destination.Lng))
	q.Set("mode", "transit")
	q.Set("key", c.apiKey)
	if arrival != nil {
		q.Set("arrival_time", strconv.FormatInt(arrival.Unix(), 10))
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	tracing.InjectToHTTPRequest(ctx, req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.ErrorContext(ctx, "google directions request failed",
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: google directions: %s", domain.ErrProviderUnavailable, err.Error())
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: google directions: read body: %s", domain.ErrProviderUnavailable, err.Error())
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: google directions: status %d", domain.ErrProviderUnavailable, resp.StatusCode)
	}

	var parsed googleDirectionsResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%w: google directions: %s", domain.ErrProviderDataMalformed, err.Error())
	}
	if parsed.Status != "OK" || len(parsed.Routes) == 0 || len(parsed.Routes[0].Legs) == 0 {
		return nil, fmt.Errorf("%w: google directions: status %q with %d routes", domain.ErrProviderDataMalformed, parsed.Status, len(parsed.Routes))
	}

	leg := parsed.Routes[0].Legs[0]
	if leg.Duration.Value <= 0 {
		return nil, fmt.Errorf("%w: google directions: non-positive duration %d", domain.ErrProviderDataMalformed, leg.Duration.Value)
	}

	departureTime := time.Now()
	if leg.DepartureTime.Value > 0 {
		departureTime = time.Unix(leg.DepartureTime.Value, 0)
	}

	return &domain.RouteEstimate{
		DepartureTime:  departureTime,
		TravelDuration: time.Duration(leg.Duration.Value) * time.Second,
		DistanceMeters: leg.Distance.Value,
		Payload:        json.RawMessage(raw),
	}, nil
}
