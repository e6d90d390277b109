package routing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/NeriVermilion/departure-planner/internal/domain"
	"github.com/NeriVermilion/departure-planner/internal/observability/tracing"
)

type httpStatusError struct {
	Code int
	Body string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Code, e.Body)
}

type orsRouteResponse struct {
	Features []struct {
		Properties struct {
			Summary struct {
				Distance float64 `json:"distance"`
				Duration float64 `json:"duration"`
			} `json:"summary"`
		} `json:"properties"`
	} `json:"features"`
}

// ORSClient calls openrouteservice for cycling routes. The API has no
// traffic model, so durations are departure-independent.
type ORSClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewORSClient(baseURL, apiKey string) *ORSClient {
	return &ORSClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *ORSClient) Cycling(ctx context.Context, origin, destination domain.Coordinate) (*domain.RouteEstimate, error) {
	reqBody := map[string]any{
		"coordinates": [][]float64{
			{origin.Lng, origin.Lat},
			{destination.Lng, destination.Lat},
		},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	url := c.baseURL + "/v2/directions/cycling-regular/geojson"
	resp, err := c.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Authorization", c.apiKey)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		tracing.InjectToHTTPRequest(ctx, req)
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: openrouteservice: %s", domain.ErrProviderUnavailable, err.Error())
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: openrouteservice: read body: %s", domain.ErrProviderUnavailable, err.Error())
	}

	var parsed orsRouteResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%w: openrouteservice: %s", domain.ErrProviderDataMalformed, err.Error())
	}
	if len(parsed.Features) == 0 {
		return nil, fmt.Errorf("%w: openrouteservice: empty feature collection", domain.ErrProviderDataMalformed)
	}

	summary := parsed.Features[0].Properties.Summary
	if summary.Duration <= 0 {
		return nil, fmt.Errorf("%w: openrouteservice: non-positive duration %f", domain.ErrProviderDataMalformed, summary.Duration)
	}

	return &domain.RouteEstimate{
		DepartureTime:  time.Now(),
		TravelDuration: time.Duration(summary.Duration * float64(time.Second)),
		DistanceMeters: int(summary.Distance),
		Payload:        json.RawMessage(raw),
	}, nil
}

// doWithRetry retries transient failures (network errors, 5xx responses)
// with exponential backoff while respecting context cancellation.
func (c *ORSClient) doWithRetry(ctx context.Context, makeReq func() (*http.Request, error)) (*http.Response, error) {
	const maxAttempts = 4
	backoff := 200 * time.Millisecond

	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := makeReq()
		if err != nil {
			return nil, err
		}

		resp, err := c.httpClient.Do(req)
		if err == nil && resp.StatusCode < 400 {
			return resp, nil
		}
		if err == nil {
			b, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			err = &httpStatusError{
				Code: resp.StatusCode,
				Body: strings.TrimSpace(string(b)),
			}
		}
		lastErr = err

		retry := false
		var he *httpStatusError
		if errors.As(err, &he) {
			switch he.Code {
			case http.StatusTooManyRequests,
				http.StatusInternalServerError,
				http.StatusBadGateway,
				http.StatusServiceUnavailable,
				http.StatusGatewayTimeout:
				retry = true
			}
		}
		var netErr net.Error
		if !retry && errors.As(err, &netErr) {
			retry = true
		}

		if !retry || attempt == maxAttempts {
			return nil, lastErr
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		backoff *= 2
	}

	return nil, lastErr
}
