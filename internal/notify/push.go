package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"pathfinder/internal/domain"
)

// PushClient delivers notifications to an ntfy-compatible push server by
// POSTing the body to <baseURL>/<topic> with title and priority headers.
type PushClient struct {
	baseURL string
	client  *http.Client
}

func NewPushClient(baseURL string) (*PushClient, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("push base URL is required")
	}
	return &PushClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}, nil
}

func (c *PushClient) Send(ctx context.Context, topic, title string, priority domain.Priority, body string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/"+topic, strings.NewReader(body))
	if err != nil {
		return fmt.Errorf("build push request: %w", err)
	}
	req.Header.Set("Title", title)
	req.Header.Set("Priority", string(priority))

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("push to topic %s: %w", topic, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("push to topic %s: unexpected status %d", topic, resp.StatusCode)
	}
	return nil
}
