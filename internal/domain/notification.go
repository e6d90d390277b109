package domain

// NotificationMessage is one departure reminder on its way out.
type NotificationMessage struct {
	Title       string `json:"title"`
	Body        string `json:"body"`
	DeepLinkURL string `json:"deep_link_url,omitempty"`
}
