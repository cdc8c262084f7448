package slack

import (
	"net/http"
	"time"
)

const (
	// defaultRequestTimeout is the default timeout for Slack webhook requests
	defaultRequestTimeout = 10 * time.Second
	// defaultUsername is the name the webhook posts under
	defaultUsername = "EUShield"
)

// Client sends analysis notifications to Slack via incoming webhooks
type Client struct {
	webhookURL string
	username   string
	httpClient *http.Client
}

// Option configures the Client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client for the Slack client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithUsername overrides the display name of posted messages
func WithUsername(username string) Option {
	return func(c *Client) {
		if username != "" {
			c.username = username
		}
	}
}

// New creates a new Slack webhook client
func New(webhookURL string, opts ...Option) (*Client, error) {
	if webhookURL == "" {
		return nil, ErrMissingWebhookURL
	}

	client := &Client{
		webhookURL: webhookURL,
		username:   defaultUsername,
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}
