/**
 * @description
 * This package provides a client for the payment provider aggregator: the
 * upstream that actually charges backers across the supported methods
 * (card, PayPal, Flutterwave, Paystack, Stripe). The gateway creates a
 * payment intent at submit time and learns the outcome from webhooks or
 * by polling intent status.
 *
 * @dependencies
 * - bytes, context, encoding/json, fmt, net/http, time: Standard Go libraries.
 */
package paygateclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"
)

// Intent statuses reported by the provider.
const (
	StatusPending   = "pending"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Client is a client for the payment provider API.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewClient creates a new payment provider client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// CreateIntentRequest is the payload for opening a payment intent.
type CreateIntentRequest struct {
	Method      string            `json:"method"`
	Amount      int64             `json:"amount"`
	Currency    string            `json:"currency"`
	Reference   string            `json:"reference"`
	Description string            `json:"description,omitempty"`
	Customer    IntentCustomer    `json:"customer"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// IntentCustomer identifies the payer to the provider. Card fields are
// forwarded verbatim and never retained by the gateway.
type IntentCustomer struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Email          string `json:"email"`
	Phone          string `json:"phone,omitempty"`
	BillingAddress string `json:"billing_address,omitempty"`
	Country        string `json:"country,omitempty"`
	CardNumber     string `json:"card_number,omitempty"`
	ExpirationDate string `json:"expiration_date,omitempty"`
	CVV            string `json:"cvv,omitempty"`
}

// IntentResponse is the provider's view of a payment intent.
type IntentResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// ErrorResponse represents an error from the payment provider API.
type ErrorResponse struct {
	Errors []struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
		Status string `json:"status"`
	} `json:"errors"`
}

func (e *ErrorResponse) Error() string {
	if len(e.Errors) > 0 {
		return fmt.Sprintf("payment provider error: %s - %s", e.Errors[0].Title, e.Errors[0].Detail)
	}
	return "unknown payment provider error"
}

// CreateIntent opens a payment intent for the given method and amount.
func (c *Client) CreateIntent(ctx context.Context, req CreateIntentRequest) (*IntentResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal intent request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/intents", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create intent request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)

	return c.doIntent(httpReq, "create_intent")
}

// GetIntentStatus polls the provider for an intent's current status.
func (c *Client) GetIntentStatus(ctx context.Context, intentID string) (*IntentResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/v1/intents/"+url.PathEscape(intentID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create status request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)

	return c.doIntent(httpReq, "get_intent_status")
}

func (c *Client) doIntent(req *http.Request, op string) (*IntentResponse, error) {
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute %s request: %w", op, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp ErrorResponse
		if err := json.Unmarshal(bodyBytes, &errResp); err != nil {
			log.Printf("level=warn component=paygate_client op=%s status=%d msg=\"non-2xx response (unparsable error body)\"", op, resp.StatusCode)
			return nil, fmt.Errorf("failed to decode error response (status %d)", resp.StatusCode)
		}
		log.Printf("level=warn component=paygate_client op=%s status=%d title=%q", op, resp.StatusCode, firstErrorTitle(errResp))
		return nil, &errResp
	}

	var intent IntentResponse
	if err := json.Unmarshal(bodyBytes, &intent); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", op, err)
	}
	return &intent, nil
}

func firstErrorTitle(resp ErrorResponse) string {
	if len(resp.Errors) == 0 {
		return ""
	}
	return resp.Errors[0].Title
}
