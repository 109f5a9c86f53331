// Package ledger is the budget service's HTTP client for the transaction ledger.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dafibh/tally/tally-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ServiceKeyHeader carries the shared secret for service-to-service calls
const ServiceKeyHeader = "X-Service-Key"

// DefaultTimeout bounds a single ledger check
const DefaultTimeout = 3 * time.Second

// CheckResponse is the ledger's answer to a budget item check
type CheckResponse struct {
	BudgetItemID    uuid.UUID `json:"budgetItemId"`
	HasTransactions bool      `json:"hasTransactions"`
}

// Client asks the ledger whether budget items are referenced by transactions
type Client struct {
	httpClient *http.Client
	baseURL    string
	serviceKey string
}

// NewClient creates a ledger client. A non-positive timeout falls back to DefaultTimeout.
func NewClient(baseURL, serviceKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
	}
}

// HasBudgetItemTransactions implements domain.LedgerChecker. Any transport failure,
// timeout, or unexpected status is reported as domain.ErrDependencyUnavailable.
func (c *Client) HasBudgetItemTransactions(ctx context.Context, budgetItemID uuid.UUID) (bool, error) {
	url := fmt.Sprintf("%s/api/v1/transactions/check-budget-item/%s", c.baseURL, budgetItemID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("%w: building request: %v", domain.ErrDependencyUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.serviceKey != "" {
		req.Header.Set(ServiceKeyHeader, c.serviceKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return false, err
		}
		log.Warn().Err(err).Str("budget_item_id", budgetItemID.String()).Msg("Ledger check failed")
		return false, fmt.Errorf("%w: %v", domain.ErrDependencyUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		log.Warn().Int("status", resp.StatusCode).Str("budget_item_id", budgetItemID.String()).Msg("Ledger check returned unexpected status")
		return false, fmt.Errorf("%w: unexpected status %d", domain.ErrDependencyUnavailable, resp.StatusCode)
	}

	var body CheckResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("%w: decoding response: %v", domain.ErrDependencyUnavailable, err)
	}
	return body.HasTransactions, nil
}
