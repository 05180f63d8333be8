// Package fulfillment calls the downstream fulfillment API over HTTP.
package fulfillment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/karenkamal24/softigitalshop/internal/usecase"
)

// Client posts committed-order notifications to the fulfillment service. The
// downstream endpoint is idempotent on order id, so retries are safe.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// NotifyOrder delivers one order notification. Any non-2xx response is an
// error so the caller can schedule a retry.
func (c *Client) NotifyOrder(ctx context.Context, msg usecase.FulfillmentNotifyMsg) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal notify payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build notify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("notify fulfillment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("fulfillment rejected order %s: status %d: %s",
			msg.OrderID, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return nil
}
