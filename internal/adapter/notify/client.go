// Package notify delivers crisis alerts to the clinician notification
// collaborator. Delivery is best-effort: a failed alert is logged, never
// surfaced to the person in the conversation.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Alert is the payload posted to the notification webhook.
type Alert struct {
	ConversationID string `json:"conversation_id"`
	MessageID      string `json:"message_id"`
	RiskLevel      string `json:"risk_level"`
	Decision       string `json:"decision"`
	Ts             int64  `json:"ts"`
}

// Client posts alerts to a webhook. A client with an empty URL is a no-op.
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient creates a notification client.
func NewClient(url string) *Client {
	return &Client{
		url: url,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// Send posts an alert. Returns nil when no webhook is configured.
func (c *Client) Send(ctx context.Context, alert Alert) error {
	if c.url == "" {
		return nil
	}

	if alert.Ts == 0 {
		alert.Ts = time.Now().UnixMilli()
	}

	body, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post alert: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("notification webhook returned status %d", resp.StatusCode)
	}
	return nil
}
