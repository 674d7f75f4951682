// Package ledgerhttp reaches the balance ledger over HTTP when the ledger
// runs in its own service. It implements the same LedgerSvcFacade the
// in-process ledger does, so the movement coordinator cannot tell the two
// apart; deployment topology is a wiring decision.
package ledgerhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ManishBastola/bank-app/internal/apperrors"
	"github.com/ManishBastola/bank-app/internal/core/domain"
	portssvc "github.com/ManishBastola/bank-app/internal/core/ports/services"
)

// Client calls a remote ledger service. Every call carries a timeout; a
// timeout means the outcome is unknown and the caller retries with the same
// idempotency key rather than assuming failure.
type Client struct {
	baseURL    string
	httpClient *http.Client
	authToken  string
}

var _ portssvc.LedgerSvcFacade = (*Client)(nil)

type operationRequest struct {
	Amount         decimal.Decimal `json:"amount"`
	IdempotencyKey string          `json:"idempotencyKey"`
}

type balanceResponse struct {
	AccountID string          `json:"accountID"`
	Balance   decimal.Decimal `json:"balance"`
}

// NewClient creates a ledger client. authToken, when non-empty, is attached
// as a bearer token to every outbound call.
func NewClient(baseURL string, timeout time.Duration, authToken string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		authToken:  authToken,
	}
}

// Debit asks the remote ledger to debit the account.
func (c *Client) Debit(ctx context.Context, accountID string, amount decimal.Decimal, idempotencyKey string) (domain.Receipt, error) {
	return c.operate(ctx, accountID, "debit", amount, idempotencyKey)
}

// Credit asks the remote ledger to credit the account.
func (c *Client) Credit(ctx context.Context, accountID string, amount decimal.Decimal, idempotencyKey string) (domain.Receipt, error) {
	return c.operate(ctx, accountID, "credit", amount, idempotencyKey)
}

func (c *Client) operate(ctx context.Context, accountID, operation string, amount decimal.Decimal, idempotencyKey string) (domain.Receipt, error) {
	body, err := json.Marshal(operationRequest{Amount: amount, IdempotencyKey: idempotencyKey})
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("failed to marshal ledger request: %w", err)
	}

	url := fmt.Sprintf("%s/api/v1/ledger/accounts/%s/%s", c.baseURL, accountID, operation)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("failed to build ledger request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Transport failure or timeout: no definitive outcome.
		return domain.Receipt{}, fmt.Errorf("ledger %s call failed: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Receipt{}, fmt.Errorf("ledger %s call returned status %d", operation, resp.StatusCode)
	}

	var receipt domain.Receipt
	if err := json.NewDecoder(resp.Body).Decode(&receipt); err != nil {
		return domain.Receipt{}, fmt.Errorf("failed to decode ledger receipt: %w", err)
	}
	if receipt.Outcome == "" {
		return domain.Receipt{}, fmt.Errorf("ledger %s call returned an empty receipt", operation)
	}
	return receipt, nil
}

// GetBalance fetches the current balance from the remote ledger.
func (c *Client) GetBalance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	url := fmt.Sprintf("%s/api/v1/ledger/accounts/%s/balance", c.baseURL, accountID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("failed to build balance request: %w", err)
	}
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("ledger balance call failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return decimal.Decimal{}, apperrors.ErrNotFound
	default:
		return decimal.Decimal{}, fmt.Errorf("ledger balance call returned status %d", resp.StatusCode)
	}

	var body balanceResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Decimal{}, fmt.Errorf("failed to decode balance response: %w", err)
	}
	return body.Balance, nil
}
