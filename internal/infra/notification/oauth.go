package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/NeriVermilion/departure-planner/internal/domain"
)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// TokenRefresher exchanges a long-lived refresh token for a short-lived
// access token. Every sweep record gets a fresh exchange so a revoked
// credential fails the record instead of poisoning the whole run.
type TokenRefresher struct {
	endpoint     string
	clientID     string
	clientSecret string
	refreshToken string
	httpClient   *http.Client
}

func NewTokenRefresher(endpoint, clientID, clientSecret, refreshToken string) *TokenRefresher {
	return &TokenRefresher{
		endpoint:     endpoint,
		clientID:     clientID,
		clientSecret: clientSecret,
		refreshToken: refreshToken,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (r *TokenRefresher) Refresh(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("client_id", r.clientID)
	form.Set("client_secret", r.clientSecret)
	form.Set("refresh_token", r.refreshToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		slog.ErrorContext(ctx, "token refresh request failed",
			slog.String("error", err.Error()),
		)
		return "", fmt.Errorf("%w: %s", domain.ErrCredentialRefreshFailed, err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read body: %s", domain.ErrCredentialRefreshFailed, err.Error())
	}
	if resp.StatusCode != http.StatusOK {
		slog.ErrorContext(ctx, "unexpected status code from token endpoint",
			slog.Int("status_code", resp.StatusCode),
		)
		return "", fmt.Errorf("%w: status %d", domain.ErrCredentialRefreshFailed, resp.StatusCode)
	}

	var parsed tokenResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("%w: decode response: %s", domain.ErrCredentialRefreshFailed, err.Error())
	}
	if parsed.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", domain.ErrCredentialRefreshFailed)
	}

	return parsed.AccessToken, nil
}
