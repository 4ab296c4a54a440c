// Package mural implements ports.PartnerClient against the Mural Pay REST API.
package mural

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"crypto-checkout/config"
	"crypto-checkout/internal/core/ports"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const defaultTimeout = 30 * time.Second

// Client is an HTTP client for the Mural Pay partner API. Every call carries
// the bearer API key; ExecutePayout additionally sends the transfer key.
type Client struct {
	baseURL        string
	apiKey         string
	transferAPIKey string
	httpClient     *http.Client
	log            zerolog.Logger
}

// NewClient creates a Mural API client from config.
func NewClient(cfg config.MuralConfig, log zerolog.Logger) *Client {
	return &Client{
		baseURL:        cfg.APIBaseURL,
		apiKey:         cfg.APIKey,
		transferAPIKey: cfg.TransferAPIKey,
		httpClient:     &http.Client{Timeout: defaultTimeout},
		log:            log.With().Str("component", "mural_client").Logger(),
	}
}

// CreateAccount provisions a new custodial account. The returned account is
// usually still INITIALIZING and has no wallet details yet.
func (c *Client) CreateAccount(ctx context.Context, name string) (*ports.PartnerAccount, error) {
	body := map[string]string{"name": name}
	var account ports.PartnerAccount
	if err := c.do(ctx, http.MethodPost, "/api/accounts", body, false, &account); err != nil {
		return nil, fmt.Errorf("creating partner account: %w", err)
	}
	c.log.Info().
		Str("account_id", account.ID).
		Str("status", account.Status).
		Msg("Created partner account")
	return &account, nil
}

// GetAccount fetches a single account by id.
func (c *Client) GetAccount(ctx context.Context, id string) (*ports.PartnerAccount, error) {
	var account ports.PartnerAccount
	if err := c.do(ctx, http.MethodGet, "/api/accounts/"+id, nil, false, &account); err != nil {
		return nil, fmt.Errorf("fetching partner account %s: %w", id, err)
	}
	return &account, nil
}

// ListAccounts fetches all accounts owned by this API key.
func (c *Client) ListAccounts(ctx context.Context) ([]ports.PartnerAccount, error) {
	var accounts []ports.PartnerAccount
	if err := c.do(ctx, http.MethodGet, "/api/accounts", nil, false, &accounts); err != nil {
		return nil, fmt.Errorf("listing partner accounts: %w", err)
	}
	return accounts, nil
}

// CreatePayout registers a payout request draining amount USDC from the given
// source account. The request is not executed yet.
func (c *Client) CreatePayout(ctx context.Context, sourceAccountID string, amount decimal.Decimal) (*ports.PartnerPayoutRequest, error) {
	body := map[string]any{
		"sourceAccountId": sourceAccountID,
		"payouts": []map[string]any{
			{
				"amount": ports.PartnerTokenAmount{
					TokenAmount: amount,
					TokenSymbol: "USDC",
				},
			},
		},
	}
	var req ports.PartnerPayoutRequest
	if err := c.do(ctx, http.MethodPost, "/api/payouts/payout", body, false, &req); err != nil {
		return nil, fmt.Errorf("creating payout request: %w", err)
	}
	c.log.Info().
		Str("payout_request_id", req.ID).
		Str("source_account_id", sourceAccountID).
		Str("amount", amount.String()).
		Msg("Created payout request")
	return &req, nil
}

// ExecutePayout executes a previously created payout request. This is the only
// call carrying the elevated transfer credential.
func (c *Client) ExecutePayout(ctx context.Context, requestID string) (*ports.PartnerPayoutRequest, error) {
	var req ports.PartnerPayoutRequest
	if err := c.do(ctx, http.MethodPost, "/api/payouts/payout/"+requestID+"/execute", nil, true, &req); err != nil {
		return nil, fmt.Errorf("executing payout request %s: %w", requestID, err)
	}
	c.log.Info().
		Str("payout_request_id", req.ID).
		Str("status", req.Status).
		Msg("Executed payout request")
	return &req, nil
}

// GetPayout fetches a payout request with its current execution details.
func (c *Client) GetPayout(ctx context.Context, requestID string) (*ports.PartnerPayoutRequest, error) {
	var req ports.PartnerPayoutRequest
	if err := c.do(ctx, http.MethodGet, "/api/payouts/payout/"+requestID, nil, false, &req); err != nil {
		return nil, fmt.Errorf("fetching payout request %s: %w", requestID, err)
	}
	return &req, nil
}

// do performs a JSON request against the partner API and decodes the response
// into out. A non-2xx status is returned as an error carrying the status code
// and response body.
func (c *Client) do(ctx context.Context, method, path string, body any, withTransferKey bool, out any) error {
	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if withTransferKey {
		req.Header.Set("transfer-api-key", c.transferAPIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling partner API: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("partner API %s %s returned %d: %s", method, path, resp.StatusCode, detail)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}
