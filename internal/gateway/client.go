package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrUnavailable marks transport errors, timeouts and non-2xx replies from
// the gateway. No order exists upstream when it is returned, so the caller
// may retry without risking a duplicate charge.
var ErrUnavailable = errors.New("payment gateway unavailable")

// RemoteOrder is the gateway's view of a created order. Amount is in minor
// units and is authoritative over whatever the client sent us.
type RemoteOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status,omitempty"`
}

// Client creates orders against the gateway's REST API. The HTTP timeout is
// configured strictly below the platform request deadline so a hung upstream
// call cannot starve the enclosing request budget.
type Client struct {
	HTTP      *http.Client
	BaseURL   string
	KeyID     string
	KeySecret string
}

func NewClient(baseURL, keyID, keySecret string, timeout time.Duration) *Client {
	return &Client{
		HTTP:      &http.Client{Timeout: timeout},
		BaseURL:   baseURL,
		KeyID:     keyID,
		KeySecret: keySecret,
	}
}

type createOrderBody struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// CreateOrder posts a new order. amountMinor is in the smallest currency
// unit; receipt must be unique per attempt (the gateway dedupes on it).
func (c *Client) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (*RemoteOrder, error) {
	body, _ := json.Marshal(createOrderBody{Amount: amountMinor, Currency: currency, Receipt: receipt})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/v1/orders", c.BaseURL), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.KeyID, c.KeySecret)

	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		// Drain a bounded slice for the log line; never echoed to callers.
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return nil, fmt.Errorf("%w: status %s: %s", ErrUnavailable, res.Status, snippet)
	}

	var out RemoteOrder
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: bad response body: %v", ErrUnavailable, err)
	}
	if out.ID == "" {
		return nil, fmt.Errorf("%w: response missing order id", ErrUnavailable)
	}
	return &out, nil
}
