package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/avast/retry-go"
)

// Client wraps the WhatsApp gateway REST API directly (no SDK dependency).
type Client struct {
	apiToken   string
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a new WhatsApp gateway client.
func NewClient(baseURL, apiToken string) *Client {
	return &Client{
		apiToken:   apiToken,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    baseURL,
	}
}

// SendReceipt sends a payment receipt message to the member's phone. The
// gateway call is retried a few times for transient failures; the caller's
// queue handles longer-horizon retries.
func (c *Client) SendReceipt(ctx context.Context, name, phone, planLabel string, amount int64, expiryLabel string) error {
	message := fmt.Sprintf("Hi %s, we received your payment of %d for the %s plan.", name, amount, planLabel)
	if expiryLabel != "" {
		message += fmt.Sprintf(" Your membership is valid until %s.", expiryLabel)
	}

	return c.SendMessage(ctx, phone, message)
}

// SendMessage delivers a free-form text message through the gateway.
func (c *Client) SendMessage(ctx context.Context, phone, message string) error {
	if phone == "" {
		return fmt.Errorf("notify: phone number is required")
	}

	err := retry.Do(
		func() error {
			return c.post(ctx, "/v1/messages", map[string]any{
				"to":   phone,
				"type": "text",
				"text": map[string]any{"body": message},
			})
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.MaxDelay(5*time.Second),
		retry.RetryIf(func(err error) bool {
			var gwErr *GatewayError
			if errors.As(err, &gwErr) {
				return gwErr.StatusCode >= 500 || gwErr.StatusCode == http.StatusTooManyRequests
			}
			return true
		}),
	)
	if err != nil {
		return fmt.Errorf("notify: send message: %w", err)
	}

	log.Printf("[notify] sent WhatsApp message to %s", phone)
	return nil
}

// GatewayError is a non-2xx response from the WhatsApp gateway.
type GatewayError struct {
	StatusCode int
	Message    string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway error (%d): %s", e.StatusCode, e.Message)
}

func (c *Client) post(ctx context.Context, path string, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return fmt.Errorf("read gateway response: %w", err)
	}

	if resp.StatusCode >= 400 {
		msg := "unknown error"
		var result map[string]any
		if err := json.Unmarshal(buf.Bytes(), &result); err == nil {
			if m, ok := result["message"].(string); ok {
				msg = m
			}
		}
		return &GatewayError{StatusCode: resp.StatusCode, Message: msg}
	}

	return nil
}
