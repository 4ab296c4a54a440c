package integration

import (
	"context"
	"fmt"
	"sync"

	"crypto-checkout/internal/core/ports"

	"github.com/shopspring/decimal"
)

// fakePartnerClient is an in-memory Mural stand-in. Accounts are created
// ACTIVE with an address by default; set activateLater to exercise the
// INITIALIZING path and flip accounts with activate().
type fakePartnerClient struct {
	mu            sync.Mutex
	activateLater bool
	seq           int
	accounts      map[string]*ports.PartnerAccount
	payouts       map[string]*ports.PartnerPayoutRequest
}

func newFakePartnerClient() *fakePartnerClient {
	return &fakePartnerClient{
		accounts: make(map[string]*ports.PartnerAccount),
		payouts:  make(map[string]*ports.PartnerPayoutRequest),
	}
}

func (f *fakePartnerClient) CreateAccount(ctx context.Context, name string) (*ports.PartnerAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	id := fmt.Sprintf("acct-%d", f.seq)
	acct := &ports.PartnerAccount{
		ID:           id,
		Name:         name,
		Status:       ports.AccountStatusInitializing,
		IsAPIEnabled: true,
	}
	if !f.activateLater {
		f.fillActive(acct)
	}
	f.accounts[id] = acct
	cp := *acct
	return &cp, nil
}

func (f *fakePartnerClient) GetAccount(ctx context.Context, id string) (*ports.PartnerAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	acct, ok := f.accounts[id]
	if !ok {
		return nil, fmt.Errorf("account %s not found", id)
	}
	cp := *acct
	return &cp, nil
}

func (f *fakePartnerClient) ListAccounts(ctx context.Context) ([]ports.PartnerAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]ports.PartnerAccount, 0, len(f.accounts))
	for _, acct := range f.accounts {
		out = append(out, *acct)
	}
	return out, nil
}

func (f *fakePartnerClient) CreatePayout(ctx context.Context, sourceAccountID string, amount decimal.Decimal) (*ports.PartnerPayoutRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	req := &ports.PartnerPayoutRequest{
		ID:     fmt.Sprintf("req-%d", f.seq),
		Status: "created",
		Payouts: []ports.PartnerPayout{
			{
				ID: fmt.Sprintf("leg-%d", f.seq),
				Amount: ports.PartnerTokenAmount{
					TokenAmount: amount,
					TokenSymbol: "USDC",
				},
			},
		},
	}
	f.payouts[req.ID] = req
	cp := *req
	return &cp, nil
}

func (f *fakePartnerClient) ExecutePayout(ctx context.Context, requestID string) (*ports.PartnerPayoutRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.payouts[requestID]
	if !ok {
		return nil, fmt.Errorf("payout request %s not found", requestID)
	}
	req.Status = "pending"
	rate := decimal.RequireFromString("3900.00")
	req.Payouts[0].Fiat = &ports.PartnerPayoutFiatDetails{
		FiatAmount:       req.Payouts[0].Amount.TokenAmount.Mul(rate),
		FiatCurrencyCode: "COP",
		ExchangeRate:     rate,
	}
	cp := *req
	return &cp, nil
}

func (f *fakePartnerClient) GetPayout(ctx context.Context, requestID string) (*ports.PartnerPayoutRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.payouts[requestID]
	if !ok {
		return nil, fmt.Errorf("payout request %s not found", requestID)
	}
	cp := *req
	return &cp, nil
}

// activate flips an INITIALIZING account to ACTIVE with an address.
func (f *fakePartnerClient) activate(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if acct, ok := f.accounts[id]; ok {
		f.fillActive(acct)
	}
}

func (f *fakePartnerClient) fillActive(acct *ports.PartnerAccount) {
	acct.Status = ports.AccountStatusActive
	acct.Details = &ports.PartnerAccountDetails{
		WalletDetails: ports.PartnerWalletDetails{
			Blockchain:    "POLYGON",
			WalletAddress: "0x" + acct.ID,
		},
	}
}
