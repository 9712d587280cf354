package forecast

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const DefaultTimeout = 10 * time.Second

var ErrInvalidForecast = errors.New("forecast response has no usable suggestedQty")

// Suggestion is one reorder recommendation from the forecasting service.
type Suggestion struct {
	SuggestedQty int     `json:"suggestedQty"`
	Confidence   float64 `json:"confidence"`
	Reasoning    string  `json:"reasoning"`
}

// Forecaster is what the monitor needs from the forecasting service.
type Forecaster interface {
	Forecast(ctx context.Context, storeID, itemID string) (*Suggestion, error)
}

// StatusError carries a non-2xx reply so callers can relay it.
type StatusError struct {
	Code int
	Body []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("forecast service returned %d", e.Code)
}

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type forecastRequest struct {
	StoreID string `json:"storeId"`
	ItemID  string `json:"itemId,omitempty"`
}

type forecastResponse struct {
	SuggestedQty *int    `json:"suggestedQty"`
	Confidence   float64 `json:"confidence"`
	Reasoning    string  `json:"reasoning"`
}

// Forecast issues one call per invocation. There is no retry and no caching.
func (c *Client) Forecast(ctx context.Context, storeID, itemID string) (*Suggestion, error) {
	body, err := c.post(ctx, "/forecast", forecastRequest{StoreID: storeID, ItemID: itemID})
	if err != nil {
		return nil, err
	}

	var resp forecastResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode forecast: %w", err)
	}
	if resp.SuggestedQty == nil || *resp.SuggestedQty < 0 {
		return nil, ErrInvalidForecast
	}

	return &Suggestion{
		SuggestedQty: *resp.SuggestedQty,
		Confidence:   resp.Confidence,
		Reasoning:    resp.Reasoning,
	}, nil
}

// StoreForecast returns the service's raw forecast for every item in a store.
func (c *Client) StoreForecast(ctx context.Context, storeID string) (json.RawMessage, error) {
	body, err := c.post(ctx, "/forecast/store", forecastRequest{StoreID: storeID})
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, errors.New("forecast service returned invalid JSON")
	}
	return body, nil
}

type HealthStatus struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp,omitempty"`
	Service   string `json:"service,omitempty"`
}

func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return nil, err
	}
	body, err := c.do(req)
	if err != nil {
		return nil, err
	}
	var hs HealthStatus
	if err := json.Unmarshal(body, &hs); err != nil {
		return nil, fmt.Errorf("decode health: %w", err)
	}
	return &hs, nil
}

// HealthCheck is a liveness probe for diagnostics only.
func (c *Client) HealthCheck(ctx context.Context) bool {
	hs, err := c.Health(ctx)
	return err == nil && hs.Status == "healthy"
}

func (c *Client) post(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call forecast service: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read forecast response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Body: body}
	}
	return body, nil
}
