// Package balance is a thin client for the externally hosted balance
// ledger. The ledger keeps one record per account, created once at account
// registration.
package balance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const resource = "/saldoInicial"

type record struct {
	ID        string          `json:"id,omitempty"`
	AccountID string          `json:"usuarioId"`
	Balance   decimal.Decimal `json:"saldo"`
}

// Client talks to the balance ledger over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a balance client with a finite request timeout.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// CreateAccount registers an account with its initial balance in the
// external ledger.
func (c *Client) CreateAccount(ctx context.Context, accountID uuid.UUID, initial decimal.Decimal) error {
	body, err := json.Marshal(record{AccountID: accountID.String(), Balance: initial})
	if err != nil {
		return fmt.Errorf("balance: encoding account record: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+resource, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("balance: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("balance: creating account %s: %w", accountID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("balance: creating account %s: unexpected status %d", accountID, resp.StatusCode)
	}
	return nil
}

// Balance returns the stored balance for the account. An account with no
// record has a zero balance; this is not an error.
func (c *Client) Balance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	u := c.baseURL + resource + "?usuarioId=" + url.QueryEscape(accountID.String())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("balance: building request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("balance: querying account %s: %w", accountID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("balance: querying account %s: unexpected status %d", accountID, resp.StatusCode)
	}

	var records []record
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return decimal.Zero, fmt.Errorf("balance: decoding records for %s: %w", accountID, err)
	}
	if len(records) == 0 {
		return decimal.Zero, nil
	}
	return records[0].Balance, nil
}
