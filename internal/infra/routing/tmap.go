package routing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/NeriVermilion/departure-planner/internal/domain"
	"github.com/NeriVermilion/departure-planner/internal/observability/tracing"
)

// tmapTimeLayout is the departure time format the routes API expects.
const tmapTimeLayout = "200601021504"

type tmapRouteResponse struct {
	Features []struct {
		Properties struct {
			TotalTime     int `json:"totalTime"`
			TotalDistance int `json:"totalDistance"`
		} `json:"properties"`
	} `json:"features"`
}

// TMapClient calls the SK open API for driving and walking routes.
type TMapClient struct {
	baseURL    string
	appKey     string
	httpClient *http.Client
}

func NewTMapClient(baseURL, appKey string) *TMapClient {
	return &TMapClient{
		baseURL: baseURL,
		appKey:  appKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Driving fetches a car route. A non-nil departure requests a traffic
// prediction for that time; nil means depart now.
func (c *TMapClient) Driving(ctx context.Context, origin, destination domain.Coordinate, departure *time.Time) (*domain.RouteEstimate, error) {
	body := map[string]any{
		"startX":       strconv.FormatFloat(origin.Lng, 'f', -1, 64),
		"startY":       strconv.FormatFloat(origin.Lat, 'f', -1, 64),
		"endX":         strconv.FormatFloat(destination.Lng, 'f', -1, 64),
		"endY":         strconv.FormatFloat(destination.Lat, 'f', -1, 64),
		"reqCoordType": "WGS84GEO",
		"resCoordType": "WGS84GEO",
		"searchOption": "0",
		"trafficInfo":  "Y",
	}
	if departure != nil {
		body["departureTime"] = departure.Format(tmapTimeLayout)
	}

	estimate, err := c.postRoute(ctx, "/tmap/routes", body)
	if err != nil {
		return nil, err
	}
	if departure != nil {
		estimate.DepartureTime = *departure
	}
	return estimate, nil
}

// Walking fetches a pedestrian route. The API ignores departure time for
// walking, so none is sent.
func (c *TMapClient) Walking(ctx context.Context, origin, destination domain.Coordinate) (*domain.RouteEstimate, error) {
	body := map[string]any{
		"startX":       strconv.FormatFloat(origin.Lng, 'f', -1, 64),
		"startY":       strconv.FormatFloat(origin.Lat, 'f', -1, 64),
		"endX":         strconv.FormatFloat(destination.Lng, 'f', -1, 64),
		"endY":         strconv.FormatFloat(destination.Lat, 'f', -1, 64),
		"reqCoordType": "WGS84GEO",
		"resCoordType": "WGS84GEO",
		"startName":    "origin",
		"endName":      "destination",
	}

	return c.postRoute(ctx, "/tmap/routes/pedestrian", body)
}

func (c *TMapClient) postRoute(ctx context.Context, path string, body map[string]any) (*domain.RouteEstimate, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path+"?version=1", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("appKey", c.appKey)
	tracing.InjectToHTTPRequest(ctx, req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.ErrorContext(ctx, "tmap request failed",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: tmap: %s", domain.ErrProviderUnavailable, err.Error())
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: tmap: read body: %s", domain.ErrProviderUnavailable, err.Error())
	}

	if resp.StatusCode != http.StatusOK {
		slog.ErrorContext(ctx, "unexpected status code from tmap",
			slog.String("path", path),
			slog.Int("status_code", resp.StatusCode),
		)
		return nil, fmt.Errorf("%w: tmap: status %d", domain.ErrProviderUnavailable, resp.StatusCode)
	}

	var parsed tmapRouteResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%w: tmap: %s", domain.ErrProviderDataMalformed, err.Error())
	}
	if len(parsed.Features) == 0 {
		return nil, fmt.Errorf("%w: tmap: empty feature collection", domain.ErrProviderDataMalformed)
	}

	props := parsed.Features[0].Properties
	if props.TotalTime <= 0 {
		return nil, fmt.Errorf("%w: tmap: non-positive totalTime %d", domain.ErrProviderDataMalformed, props.TotalTime)
	}

	return &domain.RouteEstimate{
		DepartureTime:  time.Now(),
		TravelDuration: time.Duration(props.TotalTime) * time.Second,
		DistanceMeters: props.TotalDistance,
		Payload:        json.RawMessage(raw),
	}, nil
}
