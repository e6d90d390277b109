package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/NeriVermilion/departure-planner/internal/domain"
	"github.com/NeriVermilion/departure-planner/internal/observability/tracing"
)

const localSearchDisplay = 5

var htmlTagPattern = regexp.MustCompile(`</?b>`)

type naverGeocodeResponse struct {
	Status    string `json:"status"`
	Addresses []struct {
		X           string `json:"x"`
		Y           string `json:"y"`
		RoadAddress string `json:"roadAddress"`
	} `json:"addresses"`
}

type naverLocalSearchResponse struct {
	Items []struct {
		Title       string `json:"title"`
		Category    string `json:"category"`
		Address     string `json:"address"`
		RoadAddress string `json:"roadAddress"`
		MapX        string `json:"mapx"`
		MapY        string `json:"mapy"`
	} `json:"items"`
}

// NaverClient resolves addresses and place queries through the Naver APIs.
// The geocode API and the local search API live on different hosts and use
// different credential headers.
type NaverClient struct {
	mapBaseURL      string
	mapClientID     string
	mapClientSecret string

	searchBaseURL      string
	searchClientID     string
	searchClientSecret string

	httpClient *http.Client
}

type NaverClientOptions struct {
	MapBaseURL      string
	MapClientID     string
	MapClientSecret string

	SearchBaseURL      string
	SearchClientID     string
	SearchClientSecret string
}

func NewNaverClient(opts NaverClientOptions) *NaverClient {
	return &NaverClient{
		mapBaseURL:         opts.MapBaseURL,
		mapClientID:        opts.MapClientID,
		mapClientSecret:    opts.MapClientSecret,
		searchBaseURL:      opts.SearchBaseURL,
		searchClientID:     opts.SearchClientID,
		searchClientSecret: opts.SearchClientSecret,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Geocode resolves one address string to a coordinate. An address the API
// does not know yields ErrAddressNotFound.
func (c *NaverClient) Geocode(ctx context.Context, query string) (*domain.GeocodeResult, error) {
	u, err := url.Parse(c.mapBaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}
	u.Path = "/map-geocode/v2/geocode"
	q := u.Query()
	q.Set("query", query)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-NCP-APIGW-API-KEY-ID", c.mapClientID)
	req.Header.Set("X-NCP-APIGW-API-KEY", c.mapClientSecret)
	tracing.InjectToHTTPRequest(ctx, req)

	raw, err := c.do(ctx, req, "geocode")
	if err != nil {
		return nil, err
	}

	var parsed naverGeocodeResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%w: naver geocode: %s", domain.ErrProviderDataMalformed, err.Error())
	}
	if len(parsed.Addresses) == 0 {
		return nil, fmt.Errorf("%w: %q", domain.ErrAddressNotFound, query)
	}

	addr := parsed.Addresses[0]
	lng, errX := strconv.ParseFloat(addr.X, 64)
	lat, errY := strconv.ParseFloat(addr.Y, 64)
	if errX != nil || errY != nil {
		return nil, fmt.Errorf("%w: naver geocode: bad coordinates %q,%q", domain.ErrProviderDataMalformed, addr.X, addr.Y)
	}

	return &domain.GeocodeResult{
		Query:       query,
		RoadAddress: addr.RoadAddress,
		Coord:       domain.Coordinate{Lat: lat, Lng: lng},
	}, nil
}

// SearchLocal returns up to five place hits for a free-form query. Naver
// returns coordinates as 1e7-scaled integers and wraps match terms in <b>
// tags, both of which are normalized here.
func (c *NaverClient) SearchLocal(ctx context.Context, query string) ([]domain.Place, error) {
	u, err := url.Parse(c.searchBaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}
	u.Path = "/v1/search/local.json"
	q := u.Query()
	q.Set("query", query)
	q.Set("display", strconv.Itoa(localSearchDisplay))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Naver-Client-Id", c.searchClientID)
	req.Header.Set("X-Naver-Client-Secret", c.searchClientSecret)
	tracing.InjectToHTTPRequest(ctx, req)

	raw, err := c.do(ctx, req, "local search")
	if err != nil {
		return nil, err
	}

	var parsed naverLocalSearchResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%w: naver local search: %s", domain.ErrProviderDataMalformed, err.Error())
	}

	places := make([]domain.Place, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		mapX, errX := strconv.ParseFloat(item.MapX, 64)
		mapY, errY := strconv.ParseFloat(item.MapY, 64)
		if errX != nil || errY != nil {
			continue
		}
		places = append(places, domain.Place{
			Title:       htmlTagPattern.ReplaceAllString(item.Title, ""),
			Category:    item.Category,
			Address:     item.Address,
			RoadAddress: item.RoadAddress,
			Coord: domain.Coordinate{
				Lat: mapY / 1e7,
				Lng: mapX / 1e7,
			},
		})
	}

	return places, nil
}

func (c *NaverClient) do(ctx context.Context, req *http.Request, operation string) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.ErrorContext(ctx, "naver request failed",
			slog.String("operation", operation),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: naver %s: %s", domain.ErrProviderUnavailable, operation, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.ErrorContext(ctx, "unexpected status code from naver",
			slog.String("operation", operation),
			slog.Int("status_code", resp.StatusCode),
		)
		return nil, fmt.Errorf("%w: naver %s: status %d", domain.ErrProviderUnavailable, operation, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: naver %s: read body: %s", domain.ErrProviderUnavailable, operation, err.Error())
	}
	return raw, nil
}
