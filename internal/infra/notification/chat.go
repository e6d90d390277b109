package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/NeriVermilion/departure-planner/internal/domain"
)

// ChatChannel posts a message to the chat webhook. Exactly one attempt per
// call: retry policy belongs to the caller, and the sweep deliberately has
// none.
type ChatChannel struct {
	webhookURL string
	httpClient *http.Client
}

func NewChatChannel(webhookURL string) *ChatChannel {
	return &ChatChannel{
		webhookURL: webhookURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *ChatChannel) Send(ctx context.Context, accessToken string, msg domain.NotificationMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.ErrorContext(ctx, "chat webhook request failed",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("%w: %s", domain.ErrDeliveryFailed, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		slog.ErrorContext(ctx, "unexpected status code from chat webhook",
			slog.Int("status_code", resp.StatusCode),
			slog.String("body", string(body)),
		)
		return fmt.Errorf("%w: status %d", domain.ErrDeliveryFailed, resp.StatusCode)
	}

	return nil
}
