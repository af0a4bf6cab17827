package payment

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// VendorError is a definitive rejection from the payment vendor. The code and
// message are surfaced to the failure page as-is.
type VendorError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *VendorError) Error() string {
	return fmt.Sprintf("payment vendor: %s (%s)", e.Message, e.Code)
}

// Client calls the vendor's confirm endpoint. Every call has a bounded
// timeout; no response within that interval is a failure, never an assumed
// success. Transport errors are wrapped and left to the caller to retry
// manually.
type Client struct {
	baseURL    string
	authHeader string
	httpClient *http.Client
}

func NewClient(baseURL, secretKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		authHeader: "Basic " + base64.StdEncoding.EncodeToString([]byte(secretKey+":")),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type confirmRequest struct {
	PaymentKey string `json:"paymentKey"`
	OrderID    string `json:"orderId"`
	Amount     int64  `json:"amount"`
}

// Confirm captures the payment. A nil return means the vendor committed the
// charge; a *VendorError means it definitively refused.
func (c *Client) Confirm(ctx context.Context, paymentKey, orderID string, amount int64) error {
	body, err := json.Marshal(confirmRequest{PaymentKey: paymentKey, OrderID: orderID, Amount: amount})
	if err != nil {
		return fmt.Errorf("marshal confirm request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/payments/confirm", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build confirm request: %w", err)
	}
	req.Header.Set("Authorization", c.authHeader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("confirm request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var ve VendorError
	if err := json.NewDecoder(resp.Body).Decode(&ve); err != nil || ve.Code == "" {
		return &VendorError{Code: fmt.Sprintf("HTTP_%d", resp.StatusCode), Message: "payment confirm rejected"}
	}
	return &ve
}
