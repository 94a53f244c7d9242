package paywidget

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Intent statuses reported by the provider.
const (
	StatusSucceeded  = "succeeded"
	StatusProcessing = "processing"
	StatusCanceled   = "canceled"
	StatusRequiresPM = "requires_payment_method"
)

// Config holds payment widget provider configuration
type Config struct {
	BaseURL   string
	SecretKey string
	Timeout   time.Duration
}

// Client represents the payment widget provider client
type Client struct {
	httpClient *http.Client
	config     Config
}

// CreateIntentRequest represents intent creation request. Amount is in minor units.
type CreateIntentRequest struct {
	Amount      int64             `json:"amount"`
	Currency    string            `json:"currency"`
	Description string            `json:"description,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Intent is the provider's view of a payment intent
type Intent struct {
	ID           string            `json:"id"`
	ClientSecret string            `json:"client_secret,omitempty"`
	Amount       int64             `json:"amount"`
	Currency     string            `json:"currency"`
	Status       string            `json:"status"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// Succeeded reports whether the provider captured the payment.
func (i *Intent) Succeeded() bool {
	return i != nil && i.Status == StatusSucceeded
}

// NewClient creates new payment widget provider client
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		config:     cfg,
	}
}

// ToMinorUnits converts a decimal amount to provider minor units (cents).
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// FromMinorUnits converts provider minor units back to a decimal amount.
func FromMinorUnits(amount int64) float64 {
	return float64(amount) / 100
}

// CreateIntent registers a payment intent and returns the client secret the widget needs
func (c *Client) CreateIntent(ctx context.Context, req CreateIntentRequest) (*Intent, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("validation error: amount must be > 0")
	}
	if strings.TrimSpace(req.Currency) == "" {
		return nil, fmt.Errorf("validation error: currency must be non-empty")
	}
	req.Currency = strings.ToLower(req.Currency)

	var out Intent
	if err := c.call(ctx, http.MethodPost, "/v1/payment_intents", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetIntent re-reads an intent from the provider
func (c *Client) GetIntent(ctx context.Context, id string) (*Intent, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("validation error: intent id must be non-empty")
	}

	var out Intent
	if err := c.call(ctx, http.MethodGet, "/v1/payment_intents/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) call(ctx context.Context, method, path string, in, out any) error {
	if c == nil || c.httpClient == nil {
		return fmt.Errorf("paywidget client is not initialized")
	}
	if strings.TrimSpace(c.config.BaseURL) == "" {
		return fmt.Errorf("paywidget config error: base_url is empty")
	}
	if strings.TrimSpace(c.config.SecretKey) == "" {
		return fmt.Errorf("paywidget config error: secret_key is empty")
	}

	var body io.Reader
	if in != nil {
		jsonData, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode paywidget request: %w", err)
		}
		body = bytes.NewReader(jsonData)
	}

	base := strings.TrimRight(c.config.BaseURL, "/")
	httpReq, err := http.NewRequestWithContext(ctx, method, base+path, body)
	if err != nil {
		return fmt.Errorf("paywidget api call failed: %w", err)
	}

	if in != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.config.SecretKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("paywidget api call failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("paywidget api call failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("paywidget api returned non-2xx status: %d, body: %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse paywidget response: %w", err)
	}
	return nil
}
