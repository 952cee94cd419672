package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"shop_backend/config"
)

const (
	defaultTimeout  = 15 * time.Second
	statusCompleted = "completed"
)

// Client talks to the external payment processor over HTTP. It holds no
// local state and no retry policy; retries are the caller's decision.
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

func NewClient() *Client {
	return &Client{
		BaseURL: config.Config("PAYMENT_API_URL"),
		APIKey:  config.Config("PAYMENT_API_KEY"),
		HTTP:    &http.Client{Timeout: defaultTimeout},
	}
}

type chargePayload struct {
	Source      string         `json:"source"`
	Amount      int64          `json:"amount"`
	Currency    string         `json:"currency"`
	Description string         `json:"description,omitempty"`
	Billing     billingPayload `json:"billing"`
}

type billingPayload struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Line1   string `json:"line1"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"postal_code"`
	Country string `json:"country"`
}

type chargeResponse struct {
	ID      string   `json:"id"`
	OrderID string   `json:"order_id"`
	Status  string   `json:"status"`
	Error   string   `json:"error"`
	Details []string `json:"details"`
}

func (c *Client) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	payload := chargePayload{
		Source:      req.Token,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Description: req.Description,
		Billing: billingPayload{
			Name:    req.Billing.FirstName + " " + req.Billing.LastName,
			Email:   req.Billing.Email,
			Phone:   req.Billing.Phone,
			Line1:   req.Billing.Address,
			City:    req.Billing.City,
			State:   req.Billing.State,
			Zip:     req.Billing.Zip,
			Country: req.Billing.Country,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.BaseURL+"/v1/charges", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	httpReq.Header.Set("Idempotency-Key", req.IdempotencyKey)

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		// An ambiguous timeout is treated the same as a decline: no order
		// gets recorded and the caller surfaces the failure.
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, &ChargeError{Reason: "payment processor timed out"}
		}
		return nil, fmt.Errorf("payment request failed: %w", err)
	}
	defer resp.Body.Close()

	var decoded chargeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("invalid processor response: %w", err)
	}

	if resp.StatusCode >= 400 {
		reason := decoded.Error
		if reason == "" {
			reason = fmt.Sprintf("processor returned HTTP %d", resp.StatusCode)
		}
		return nil, &ChargeError{Reason: reason, Details: decoded.Details}
	}

	if decoded.Status != statusCompleted {
		return nil, &ChargeError{
			Reason: "charge not completed (status " + decoded.Status + ")",
		}
	}

	return &ChargeResult{
		TransactionID:    decoded.ID,
		ProcessorOrderID: decoded.OrderID,
		Status:           decoded.Status,
	}, nil
}
