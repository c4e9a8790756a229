package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/tractorbid/tractorbid-backend/pkg/db/models"
)

const channelTimeout = 10 * time.Second

// WebhookChannel forwards notifications to a delivery bridge over HTTP.
// Email and SMS go through provider bridges rather than vendor SDKs, so
// swapping providers is a config change.
type WebhookChannel struct {
	name   string
	url    string
	client *http.Client
}

// NewWebhookChannel builds a channel posting to the given bridge URL.
func NewWebhookChannel(name, url string) (*WebhookChannel, error) {
	if name == "" {
		return nil, fmt.Errorf("channel name required")
	}
	if url == "" {
		return nil, fmt.Errorf("channel url required")
	}
	return &WebhookChannel{
		name:   name,
		url:    url,
		client: &http.Client{Timeout: channelTimeout},
	}, nil
}

func (c *WebhookChannel) Name() string {
	return c.name
}

func (c *WebhookChannel) Deliver(ctx context.Context, notification *models.Notification) error {
	body, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("deliver via %s: %w", c.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("deliver via %s: unexpected status %d", c.name, resp.StatusCode)
	}
	return nil
}
