// Package gateway holds the thin HTTP client for the external
// payment gateway. The integration itself is out of scope for the
// core: this client only creates a charge and translates the
// gateway's response categories into the typed errors the payment
// service understands. It never retries.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/Mr-Fulani/class-booking-api/internal/service"
)

// Client posts charge requests to the configured gateway endpoint.
// It implements service.Gateway.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// New returns a Client for the given endpoint and secret key.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type chargeBody struct {
	Amount        int64             `json:"amount"`
	Currency      string            `json:"currency"`
	Description   string            `json:"description"`
	PaymentMethod string            `json:"payment_method"`
	Confirm       bool              `json:"confirm"`
	Metadata      map[string]string `json:"metadata"`
}

type chargeResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  string `json:"error"`
}

// CreateCharge creates and confirms a charge. The user id travels in
// the metadata so asynchronous webhook notifications can be tied
// back to the owning user. Gateway failures come back as typed
// *service.GatewayError values:
//   402 / 400        -> rejected or invalid input
//   5xx / transport  -> unavailable (retryable by the caller)
func (c *Client) CreateCharge(ctx context.Context, req service.ChargeRequest) (service.ChargeResult, error) {
	body := chargeBody{
		Amount:        req.AmountMinor,
		Currency:      req.Currency,
		Description:   req.Description,
		PaymentMethod: req.PaymentMethod,
		Confirm:       true,
		Metadata:      map[string]string{"user_id": fmt.Sprintf("%d", req.UserID)},
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return service.ChargeResult{}, &service.GatewayError{Category: service.GatewayInvalid, Message: err.Error()}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/charges", bytes.NewReader(raw))
	if err != nil {
		return service.ChargeResult{}, &service.GatewayError{Category: service.GatewayInvalid, Message: err.Error()}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	// Idempotency key protects against double charges if the caller
	// repeats a request after a network error.
	httpReq.Header.Set("Idempotency-Key", uuid.NewString())

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return service.ChargeResult{}, &service.GatewayError{Category: service.GatewayUnavailable, Message: err.Error()}
	}
	defer resp.Body.Close()

	var out chargeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil && resp.StatusCode < 500 {
		return service.ChargeResult{}, &service.GatewayError{Category: service.GatewayUnavailable, Message: "malformed gateway response"}
	}

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		return service.ChargeResult{TransactionID: out.ID, Status: out.Status}, nil
	case resp.StatusCode == http.StatusPaymentRequired:
		return service.ChargeResult{}, &service.GatewayError{Category: service.GatewayRejected, Message: nonEmpty(out.Error, "card declined")}
	case resp.StatusCode == http.StatusBadRequest:
		return service.ChargeResult{}, &service.GatewayError{Category: service.GatewayInvalid, Message: nonEmpty(out.Error, "invalid request")}
	case resp.StatusCode == http.StatusUnauthorized:
		return service.ChargeResult{}, &service.GatewayError{Category: service.GatewayRejected, Message: "authentication failed"}
	case resp.StatusCode == http.StatusTooManyRequests:
		return service.ChargeResult{}, &service.GatewayError{Category: service.GatewayUnavailable, Message: "rate limited by gateway"}
	default:
		return service.ChargeResult{}, &service.GatewayError{Category: service.GatewayUnavailable, Message: fmt.Sprintf("gateway status %d", resp.StatusCode)}
	}
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
