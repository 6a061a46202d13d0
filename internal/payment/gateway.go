// Package payment integrates with the external payment gateway: creating
// one payment order per booking at reservation time, and verifying the
// HMAC signature the gateway sends with its confirmation callback.  The
// system never processes payments itself.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// OrderCreator creates an external payment order and returns its opaque id.
// The booking coordinator depends on this interface so tests can substitute
// a stub without a gateway.
type OrderCreator interface {
	CreateOrder(ctx context.Context, amountCents uint32, receipt string) (string, error)
}

// Gateway is the HTTP client for the payment provider's order API.  It
// authenticates with basic auth (key id / key secret) the way the provider
// documents for server-to-server calls.
type Gateway struct {
	baseURL   string
	keyID     string
	keySecret string
	client    *http.Client
}

// NewGateway returns a Gateway for the given endpoint and credentials.
func NewGateway(baseURL, keyID, keySecret string) *Gateway {
	return &Gateway{
		baseURL:   baseURL,
		keyID:     keyID,
		keySecret: keySecret,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

type orderRequest struct {
	Amount   uint32 `json:"amount"` // smallest currency unit
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type orderResponse struct {
	ID string `json:"id"`
}

// CreateOrder registers a payment order for the given amount and returns
// the provider's order id.  The receipt string correlates the order with
// the booking attempt on the provider's dashboard.
func (g *Gateway) CreateOrder(ctx context.Context, amountCents uint32, receipt string) (string, error) {
	body, err := json.Marshal(orderRequest{
		Amount:   amountCents,
		Currency: "INR",
		Receipt:  receipt,
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(g.keyID, g.keySecret)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("payment gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		// Drain a little of the body for the log line; never trust it fully.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return "", fmt.Errorf("payment gateway: create order returned %d: %s", resp.StatusCode, snippet)
	}

	var out orderResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("payment gateway: decode order response: %w", err)
	}
	if out.ID == "" {
		return "", fmt.Errorf("payment gateway: order response missing id")
	}
	return out.ID, nil
}
