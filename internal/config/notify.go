package config

import "os"

// NotifyConfig configures the chat notification channel: the OAuth token
// endpoint used to refresh per-user credentials and the webhook that
// receives the message.
type NotifyConfig struct {
	TokenEndpoint   string
	ClientID        string
	ClientSecret    string
	RefreshToken    string
	WebhookURL      string
	DeepLinkBaseURL string
}

func LoadNotifyConfig() *NotifyConfig {
	return &NotifyConfig{
		TokenEndpoint:   getEnvOrDefault("NOTIFY_TOKEN_ENDPOINT", "https://oauth2.googleapis.com/token"),
		ClientID:        os.Getenv("NOTIFY_CLIENT_ID"),
		ClientSecret:    os.Getenv("NOTIFY_CLIENT_SECRET"),
		RefreshToken:    os.Getenv("NOTIFY_REFRESH_TOKEN"),
		WebhookURL:      os.Getenv("NOTIFY_WEBHOOK_URL"),
		DeepLinkBaseURL: getEnvOrDefault("NOTIFY_DEEPLINK_BASE_URL", "http://localhost:8080/results.html"),
	}
}
