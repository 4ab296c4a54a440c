package service

import (
	"context"
	"fmt"
	"time"

	"crypto-checkout/internal/core/domain"
	"crypto-checkout/internal/core/ports"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ReconciliationServiceImpl implements ports.ReconciliationService.
type ReconciliationServiceImpl struct {
	orderRepo  ports.OrderRepository
	walletRepo ports.WalletRepository
	payoutSvc  ports.PayoutService
	transactor ports.DBTransactor
	log        zerolog.Logger
}

// NewReconciliationService creates a new ReconciliationServiceImpl.
func NewReconciliationService(
	orderRepo ports.OrderRepository,
	walletRepo ports.WalletRepository,
	payoutSvc ports.PayoutService,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *ReconciliationServiceImpl {
	return &ReconciliationServiceImpl{
		orderRepo:  orderRepo,
		walletRepo: walletRepo,
		payoutSvc:  payoutSvc,
		transactor: transactor,
		log:        log,
	}
}

// MatchDeposit settles at most one AWAITING_PAYMENT order bound to the
// account. The paid flip and the wallet release commit in a single
// transaction; payout initiation fires after commit and can never undo the
// confirmed payment. Duplicate or stray deliveries and underpayments return
// (nil, nil) and mutate nothing.
func (s *ReconciliationServiceImpl) MatchDeposit(ctx context.Context, amount decimal.Decimal, txHash, accountID string) (*domain.Order, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	order, err := s.orderRepo.GetAwaitingByAccountForUpdate(ctx, dbTx, accountID)
	if err != nil {
		return nil, fmt.Errorf("lock awaiting order: %w", err)
	}
	if order == nil {
		// Stray credit or a redelivery of an already-settled deposit.
		s.log.Info().
			Str("account_id", accountID).
			Str("tx_hash", txHash).
			Msg("deposit matched no awaiting order, ignoring")
		return nil, nil
	}

	if amount.LessThan(order.Total) {
		s.log.Warn().
			Str("order_id", order.ID.String()).
			Str("expected", order.Total.String()).
			Str("received", amount.String()).
			Str("tx_hash", txHash).
			Msg("underpayment received, order left awaiting")
		return nil, nil
	}

	paidAt := time.Now()
	if err := s.orderRepo.MarkPaid(ctx, dbTx, order.ID, txHash, paidAt); err != nil {
		return nil, fmt.Errorf("mark order paid: %w", err)
	}

	wallet, err := s.walletRepo.GetByAccountIDForUpdate(ctx, dbTx, accountID)
	if err != nil {
		return nil, fmt.Errorf("lock wallet: %w", err)
	}
	if wallet != nil {
		if err := s.walletRepo.Release(ctx, dbTx, wallet.ID, wallet.ReleaseTarget()); err != nil {
			return nil, fmt.Errorf("release wallet: %w", err)
		}
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	order.Status = domain.OrderStatusPaid
	order.TxHash = &txHash
	order.PaidAt = &paidAt

	s.log.Info().
		Str("order_id", order.ID.String()).
		Str("amount", amount.String()).
		Str("tx_hash", txHash).
		Msg("deposit matched, order paid")

	// Fire-and-forget: the payment is committed, payout failure only delays
	// settlement and is retried through partner status events.
	settled := *order
	go func() {
		if _, err := s.payoutSvc.Initiate(context.Background(), &settled); err != nil {
			s.log.Error().Err(err).Str("order_id", settled.ID.String()).Msg("payout initiation failed")
		}
	}()

	return order, nil
}
