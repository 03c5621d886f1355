package treasury

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// Client implements Treasury against a remote wallet service over HTTP.
// The wallet owns balances and the pool account; this client only moves
// funds and surfaces the wallet's accept/reject decision.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// NewClient creates a wallet client with a short request timeout — a
// transfer that hangs would hold the engine's write lock.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 2 * time.Second},
	}
}

type transferRequest struct {
	Participant string          `json:"participant"`
	Amount      decimal.Decimal `json:"amount"`
}

func (c *Client) Debit(ctx context.Context, participant string, amount decimal.Decimal) error {
	return c.post(ctx, "/wallet/debit", participant, amount)
}

func (c *Client) Credit(ctx context.Context, participant string, amount decimal.Decimal) error {
	return c.post(ctx, "/wallet/credit", participant, amount)
}

func (c *Client) PoolBalance(ctx context.Context) (decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/wallet/pool", nil)
	if err != nil {
		return decimal.Zero, err
	}
	res, err := c.HTTP.Do(req)
	if err != nil {
		return decimal.Zero, err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return decimal.Zero, fmt.Errorf("wallet pool balance: http %d", res.StatusCode)
	}

	var out struct {
		Balance decimal.Decimal `json:"balance"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return decimal.Zero, err
	}
	return out.Balance, nil
}

func (c *Client) post(ctx context.Context, path, participant string, amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrNonPositiveAmount
	}

	body, err := json.Marshal(transferRequest{Participant: participant, Amount: amount})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusPaymentRequired || res.StatusCode == http.StatusConflict:
		return ErrInsufficientFunds
	case res.StatusCode >= 300:
		return fmt.Errorf("wallet %s: http %d", path, res.StatusCode)
	}
	return nil
}
