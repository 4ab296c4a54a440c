package service

import (
	"context"
	"fmt"
	"time"

	"crypto-checkout/internal/core/domain"
	"crypto-checkout/internal/core/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// WalletPoolServiceImpl implements ports.WalletPoolService.
type WalletPoolServiceImpl struct {
	walletRepo ports.WalletRepository
	partner    ports.PartnerClient
	transactor ports.DBTransactor
	namePrefix string
	log        zerolog.Logger
}

// NewWalletPoolService creates a new WalletPoolServiceImpl.
func NewWalletPoolService(
	walletRepo ports.WalletRepository,
	partner ports.PartnerClient,
	transactor ports.DBTransactor,
	namePrefix string,
	log zerolog.Logger,
) *WalletPoolServiceImpl {
	return &WalletPoolServiceImpl{
		walletRepo: walletRepo,
		partner:    partner,
		transactor: transactor,
		namePrefix: namePrefix,
		log:        log,
	}
}

// Claim atomically takes one AVAILABLE wallet, or returns (nil, nil) when the
// pool is empty. Contention never blocks: concurrent claimants skip locked
// rows, so N claimants racing for K wallets produce exactly K winners.
func (s *WalletPoolServiceImpl) Claim(ctx context.Context) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.ClaimAvailable(ctx)
	if err != nil {
		return nil, fmt.Errorf("claim wallet: %w", err)
	}
	return wallet, nil
}

// TryActivate asks the partner whether an INITIALIZING wallet's account went
// active. Partner failures are swallowed: activation is opportunistic and
// retried on the next touch.
func (s *WalletPoolServiceImpl) TryActivate(ctx context.Context, wallet *domain.Wallet) (*domain.Wallet, error) {
	account, err := s.partner.GetAccount(ctx, wallet.ExternalAccountID)
	if err != nil {
		s.log.Warn().Err(err).
			Str("wallet_id", wallet.ID.String()).
			Str("account_id", wallet.ExternalAccountID).
			Msg("partner account lookup failed, activation deferred")
		return nil, nil
	}
	if account.Status != ports.AccountStatusActive || account.Details == nil {
		return nil, nil
	}

	address := account.Details.WalletDetails.WalletAddress
	chain := account.Details.WalletDetails.Blockchain
	if err := s.walletRepo.Activate(ctx, wallet.ID, address, chain); err != nil {
		return nil, fmt.Errorf("activate wallet: %w", err)
	}

	activated := *wallet
	activated.Address = &address
	activated.Chain = &chain
	activated.Status = domain.WalletStatusAvailable
	s.log.Info().
		Str("wallet_id", wallet.ID.String()).
		Str("address", address).
		Str("chain", chain).
		Msg("wallet activated")
	return &activated, nil
}

// RequestNew provisions a fresh partner account and registers it in the pool.
// Most accounts come back without an address and start INITIALIZING.
func (s *WalletPoolServiceImpl) RequestNew(ctx context.Context) (*domain.Wallet, error) {
	name := fmt.Sprintf("%s-%d", s.namePrefix, time.Now().UnixMilli())
	account, err := s.partner.CreateAccount(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("create partner account: %w", err)
	}

	wallet := &domain.Wallet{
		ID:                uuid.New(),
		ExternalAccountID: account.ID,
		Status:            domain.WalletStatusInitializing,
		CreatedAt:         time.Now(),
	}
	if account.Status == ports.AccountStatusActive && account.Details != nil {
		address := account.Details.WalletDetails.WalletAddress
		chain := account.Details.WalletDetails.Blockchain
		wallet.Address = &address
		wallet.Chain = &chain
		wallet.Status = domain.WalletStatusAvailable
	}

	if err := s.walletRepo.Create(ctx, wallet); err != nil {
		return nil, fmt.Errorf("persist wallet: %w", err)
	}
	s.log.Info().
		Str("wallet_id", wallet.ID.String()).
		Str("account_id", account.ID).
		Str("status", string(wallet.Status)).
		Msg("provisioned pool wallet")
	return wallet, nil
}

// Acquire runs the full acquisition chain: claim an AVAILABLE wallet, failing
// that try activating an INITIALIZING one, failing that provision anew. The
// returned wallet is always ASSIGNED; it may lack an address when acquisition
// fell through to a fresh INITIALIZING account.
func (s *WalletPoolServiceImpl) Acquire(ctx context.Context) (*domain.Wallet, error) {
	wallet, err := s.Claim(ctx)
	if err != nil {
		return nil, err
	}
	if wallet != nil {
		return wallet, nil
	}

	// Pool exhausted. Try to wake an initializing wallet before paying the
	// cost of a fresh partner account.
	initializing, err := s.walletRepo.ListByStatus(ctx, domain.WalletStatusInitializing)
	if err != nil {
		return nil, fmt.Errorf("list initializing wallets: %w", err)
	}
	for i := range initializing {
		activated, err := s.TryActivate(ctx, &initializing[i])
		if err != nil {
			return nil, err
		}
		if activated == nil {
			continue
		}
		if err := s.walletRepo.SetAssigned(ctx, activated.ID); err != nil {
			return nil, fmt.Errorf("assign activated wallet: %w", err)
		}
		activated.Status = domain.WalletStatusAssigned
		return activated, nil
	}

	fresh, err := s.RequestNew(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.walletRepo.SetAssigned(ctx, fresh.ID); err != nil {
		return nil, fmt.Errorf("assign fresh wallet: %w", err)
	}
	fresh.Status = domain.WalletStatusAssigned
	return fresh, nil
}

// Release returns a wallet to the pool outside an order-resolving transaction,
// used when order creation fails after acquisition.
func (s *WalletPoolServiceImpl) Release(ctx context.Context, wallet *domain.Wallet) error {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if err := s.walletRepo.Release(ctx, dbTx, wallet.ID, wallet.ReleaseTarget()); err != nil {
		return fmt.Errorf("release wallet: %w", err)
	}
	if err := dbTx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Bootstrap imports partner accounts missing from the local pool at startup
// and provisions an initial wallet when both sides are empty.
func (s *WalletPoolServiceImpl) Bootstrap(ctx context.Context) error {
	accounts, err := s.partner.ListAccounts(ctx)
	if err != nil {
		return fmt.Errorf("list partner accounts: %w", err)
	}

	imported := 0
	for _, account := range accounts {
		existing, err := s.walletRepo.GetByAccountID(ctx, account.ID)
		if err != nil {
			return fmt.Errorf("check wallet for account %s: %w", account.ID, err)
		}
		if existing != nil {
			continue
		}

		wallet := &domain.Wallet{
			ID:                uuid.New(),
			ExternalAccountID: account.ID,
			Status:            domain.WalletStatusInitializing,
			CreatedAt:         time.Now(),
		}
		if account.Status == ports.AccountStatusActive && account.Details != nil {
			address := account.Details.WalletDetails.WalletAddress
			chain := account.Details.WalletDetails.Blockchain
			wallet.Address = &address
			wallet.Chain = &chain
			wallet.Status = domain.WalletStatusAvailable
		}
		if err := s.walletRepo.Create(ctx, wallet); err != nil {
			return fmt.Errorf("import wallet for account %s: %w", account.ID, err)
		}
		imported++
	}

	s.log.Info().
		Int("partner_accounts", len(accounts)).
		Int("imported", imported).
		Msg("wallet pool bootstrap complete")

	available, err := s.walletRepo.CountByStatus(ctx, domain.WalletStatusAvailable)
	if err != nil {
		return fmt.Errorf("count available wallets: %w", err)
	}
	if available == 0 {
		if _, err := s.RequestNew(ctx); err != nil {
			return fmt.Errorf("seed initial wallet: %w", err)
		}
	}
	return nil
}

// ReplenishIfExhausted provisions a new wallet when no AVAILABLE wallet
// remains. Best-effort: failures are logged, never returned, so callers can
// fire it after commit without coupling their outcome to partner health.
func (s *WalletPoolServiceImpl) ReplenishIfExhausted(ctx context.Context) {
	available, err := s.walletRepo.CountByStatus(ctx, domain.WalletStatusAvailable)
	if err != nil {
		s.log.Error().Err(err).Msg("replenish check failed")
		return
	}
	if available > 0 {
		return
	}
	if _, err := s.RequestNew(ctx); err != nil {
		s.log.Error().Err(err).Msg("pool replenishment failed")
	}
}
