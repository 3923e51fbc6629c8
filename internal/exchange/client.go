// Package exchange is a thin client for the external currency-quote
// service. Callers decide what a failed quote means; registration records a
// zero rate and proceeds.
package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Quote is the quote service response for one currency.
type Quote struct {
	Currency string          `json:"currency"`
	Rate     decimal.Decimal `json:"rate"`
}

// Client queries the quote service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a quote client. The request timeout is finite so a
// quote outage never holds a registration request indefinitely.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// Rate returns the current rate for the given currency code against the
// local currency.
func (c *Client) Rate(ctx context.Context, currency string) (decimal.Decimal, error) {
	url := fmt.Sprintf("%s/api/cambio/%s", c.baseURL, strings.ToUpper(currency))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("exchange: building request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("exchange: requesting quote for %s: %w", currency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("exchange: quote for %s: unexpected status %d", currency, resp.StatusCode)
	}

	var quote Quote
	if err := json.NewDecoder(resp.Body).Decode(&quote); err != nil {
		return decimal.Zero, fmt.Errorf("exchange: decoding quote for %s: %w", currency, err)
	}
	return quote.Rate, nil
}
