package ports

import (
	"context"

	"github.com/shopspring/decimal"
)

// Partner account statuses as reported by the Mural API.
const (
	AccountStatusInitializing = "INITIALIZING"
	AccountStatusActive       = "ACTIVE"
)

// PartnerAccount is a custodial account at the payment partner. Details is
// nil until the account finishes provisioning.
type PartnerAccount struct {
	ID           string                 `json:"id"`
	Name         string                 `json:"name"`
	Status       string                 `json:"status"`
	IsAPIEnabled bool                   `json:"isApiEnabled"`
	Details      *PartnerAccountDetails `json:"accountDetails,omitempty"`
}

// PartnerAccountDetails holds the on-chain deposit location for an active
// account.
type PartnerAccountDetails struct {
	WalletDetails PartnerWalletDetails `json:"walletDetails"`
	Balances      []PartnerTokenAmount `json:"balances,omitempty"`
}

type PartnerWalletDetails struct {
	Blockchain    string `json:"blockchain"`
	WalletAddress string `json:"walletAddress"`
}

type PartnerTokenAmount struct {
	TokenAmount decimal.Decimal `json:"tokenAmount"`
	TokenSymbol string          `json:"tokenSymbol"`
}

// PartnerPayoutRequest is the partner-side payout request wrapping one or
// more individual payouts.
type PartnerPayoutRequest struct {
	ID      string          `json:"id"`
	Status  string          `json:"status"`
	Payouts []PartnerPayout `json:"payouts"`
}

// PartnerPayout carries the execution and fiat conversion details of a single
// payout leg. Fiat details appear only after execution.
type PartnerPayout struct {
	ID     string                    `json:"id"`
	Amount PartnerTokenAmount        `json:"amount"`
	Fiat   *PartnerPayoutFiatDetails `json:"details,omitempty"`
}

type PartnerPayoutFiatDetails struct {
	FiatAmount       decimal.Decimal `json:"fiatAmount"`
	FiatCurrencyCode string          `json:"fiatCurrencyCode"`
	ExchangeRate     decimal.Decimal `json:"exchangeRate"`
}

// PartnerClient talks to the external payment partner (Mural Pay). Standard
// calls use the bearer API key; ExecutePayout additionally requires the
// elevated transfer credential.
type PartnerClient interface {
	CreateAccount(ctx context.Context, name string) (*PartnerAccount, error)
	GetAccount(ctx context.Context, id string) (*PartnerAccount, error)
	ListAccounts(ctx context.Context) ([]PartnerAccount, error)
	CreatePayout(ctx context.Context, sourceAccountID string, amount decimal.Decimal) (*PartnerPayoutRequest, error)
	ExecutePayout(ctx context.Context, requestID string) (*PartnerPayoutRequest, error)
	GetPayout(ctx context.Context, requestID string) (*PartnerPayoutRequest, error)
}
