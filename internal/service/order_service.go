package service

import (
	"context"
	"fmt"
	"time"

	"crypto-checkout/internal/core/domain"
	"crypto-checkout/internal/core/ports"
	"crypto-checkout/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// OrderServiceImpl implements ports.OrderService.
type OrderServiceImpl struct {
	orderRepo   ports.OrderRepository
	cartRepo    ports.CartRepository
	walletRepo  ports.WalletRepository
	pool        ports.WalletPoolService
	transactor  ports.DBTransactor
	orderExpiry time.Duration
	tokenSymbol string
	log         zerolog.Logger
}

// NewOrderService creates a new OrderServiceImpl.
func NewOrderService(
	orderRepo ports.OrderRepository,
	cartRepo ports.CartRepository,
	walletRepo ports.WalletRepository,
	pool ports.WalletPoolService,
	transactor ports.DBTransactor,
	orderExpiry time.Duration,
	tokenSymbol string,
	log zerolog.Logger,
) *OrderServiceImpl {
	return &OrderServiceImpl{
		orderRepo:   orderRepo,
		cartRepo:    cartRepo,
		walletRepo:  walletRepo,
		pool:        pool,
		transactor:  transactor,
		orderExpiry: orderExpiry,
		tokenSymbol: tokenSymbol,
		log:         log,
	}
}

// CreateFromCart snapshots the cart into an immutable order bound to an
// acquired deposit wallet. The order starts AWAITING_PAYMENT when the wallet
// already has an address, CREATING_WALLET otherwise.
func (s *OrderServiceImpl) CreateFromCart(ctx context.Context, cartID uuid.UUID) (*domain.Order, error) {
	cart, err := s.cartRepo.GetByID(ctx, cartID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("load cart: %w", err))
	}
	if cart == nil {
		return nil, apperror.ErrNotFound("cart")
	}
	if cart.IsEmpty() {
		return nil, apperror.ErrEmptyCart()
	}

	items := make([]domain.OrderItem, 0, len(cart.Items))
	for _, line := range cart.Items {
		if line.Product == nil {
			return nil, apperror.InternalError(fmt.Errorf("cart line %s has no product", line.ProductID))
		}
		items = append(items, domain.OrderItem{
			Name:      line.Product.Name,
			Quantity:  line.Quantity,
			UnitPrice: line.Product.Price,
		})
	}
	total := domain.ItemsTotal(items)

	// Partner call happens before the transaction so a slow provision never
	// holds row locks.
	wallet, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, apperror.ErrPartnerFailure(fmt.Errorf("acquire wallet: %w", err))
	}

	now := time.Now()
	order := &domain.Order{
		ID:                uuid.New(),
		Status:            domain.OrderStatusCreatingWallet,
		Subtotal:          total,
		Total:             total,
		TokenSymbol:       s.tokenSymbol,
		ExternalAccountID: &wallet.ExternalAccountID,
		CreatedAt:         now,
		ExpiresAt:         now.Add(s.orderExpiry),
		Items:             items,
	}
	if wallet.IsAddressed() {
		order.Status = domain.OrderStatusAwaitingPayment
		order.Address = wallet.Address
		order.Chain = wallet.Chain
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		s.releaseAcquired(ctx, wallet)
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if err := s.orderRepo.Create(ctx, dbTx, order); err != nil {
		s.releaseAcquired(ctx, wallet)
		return nil, apperror.InternalError(fmt.Errorf("persist order: %w", err))
	}
	if err := s.walletRepo.AssignToOrder(ctx, dbTx, wallet.ID, order.ID); err != nil {
		s.releaseAcquired(ctx, wallet)
		return nil, apperror.InternalError(fmt.Errorf("bind wallet: %w", err))
	}
	if err := dbTx.Commit(ctx); err != nil {
		s.releaseAcquired(ctx, wallet)
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	// Post-commit housekeeping, never affecting the created order.
	if err := s.cartRepo.Clear(ctx, cartID); err != nil {
		s.log.Warn().Err(err).Str("cart_id", cartID.String()).Msg("cart cleanup failed")
	}
	go s.pool.ReplenishIfExhausted(context.Background())

	s.log.Info().
		Str("order_id", order.ID.String()).
		Str("status", string(order.Status)).
		Str("total", order.Total.String()).
		Msg("order created")
	return order, nil
}

func (s *OrderServiceImpl) releaseAcquired(ctx context.Context, wallet *domain.Wallet) {
	if err := s.pool.Release(ctx, wallet); err != nil {
		s.log.Error().Err(err).Str("wallet_id", wallet.ID.String()).Msg("wallet release after failed checkout")
	}
}

// Get returns the order, opportunistically promoting a CREATING_WALLET order
// whose wallet has since activated so pollers see the deposit address as soon
// as the partner reports it.
func (s *OrderServiceImpl) Get(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("load order: %w", err))
	}
	if order == nil {
		return nil, apperror.ErrNotFound("order")
	}
	if order.Status != domain.OrderStatusCreatingWallet || order.ExternalAccountID == nil {
		return order, nil
	}

	wallet, err := s.walletRepo.GetByAccountID(ctx, *order.ExternalAccountID)
	if err != nil || wallet == nil {
		if err != nil {
			s.log.Warn().Err(err).Str("order_id", id.String()).Msg("wallet lookup during promotion failed")
		}
		return order, nil
	}
	activated, err := s.pool.TryActivate(ctx, wallet)
	if err != nil || activated == nil {
		if err != nil {
			s.log.Warn().Err(err).Str("order_id", id.String()).Msg("wallet activation during promotion failed")
		}
		return order, nil
	}

	if err := s.orderRepo.PromoteToAwaitingPayment(ctx, order.ID, *activated.Address, *activated.Chain); err != nil {
		s.log.Warn().Err(err).Str("order_id", id.String()).Msg("order promotion failed")
		return order, nil
	}
	order.Status = domain.OrderStatusAwaitingPayment
	order.Address = activated.Address
	order.Chain = activated.Chain
	return order, nil
}

// List returns all orders, newest first.
func (s *OrderServiceImpl) List(ctx context.Context) ([]domain.Order, error) {
	orders, err := s.orderRepo.List(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list orders: %w", err))
	}
	return orders, nil
}

// ExpireDueOrders transitions every overdue pending order to EXPIRED and
// releases its wallet, one transaction per order so a single bad row never
// stalls the sweep. Returns how many orders were expired.
func (s *OrderServiceImpl) ExpireDueOrders(ctx context.Context) (int, error) {
	due, err := s.orderRepo.ListDue(ctx, time.Now())
	if err != nil {
		return 0, fmt.Errorf("list due orders: %w", err)
	}

	expired := 0
	for i := range due {
		ok, err := s.expireOne(ctx, &due[i])
		if err != nil {
			s.log.Error().Err(err).Str("order_id", due[i].ID.String()).Msg("order expiry failed")
			continue
		}
		if ok {
			expired++
		}
	}
	if expired > 0 {
		s.log.Info().Int("expired", expired).Msg("expiry sweep complete")
	}
	return expired, nil
}

func (s *OrderServiceImpl) expireOne(ctx context.Context, order *domain.Order) (bool, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	expired, err := s.orderRepo.MarkExpired(ctx, dbTx, order.ID)
	if err != nil {
		return false, fmt.Errorf("mark expired: %w", err)
	}
	if !expired {
		// Paid (or otherwise resolved) between ListDue and now; the wallet
		// belongs to the settlement path.
		return false, nil
	}
	if order.ExternalAccountID != nil {
		wallet, err := s.walletRepo.GetByAccountIDForUpdate(ctx, dbTx, *order.ExternalAccountID)
		if err != nil {
			return false, fmt.Errorf("lock wallet: %w", err)
		}
		// Release only a wallet still bound to this order. A released and
		// re-claimed wallet must not be yanked from its new order.
		if wallet != nil && wallet.AssignedOrderID != nil && *wallet.AssignedOrderID == order.ID {
			if err := s.walletRepo.Release(ctx, dbTx, wallet.ID, wallet.ReleaseTarget()); err != nil {
				return false, fmt.Errorf("release wallet: %w", err)
			}
		}
	}
	if err := dbTx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit tx: %w", err)
	}
	return true, nil
}

// RunExpirySweep blocks, expiring due orders every interval until ctx is
// cancelled. Meant to run in its own goroutine from main.
func (s *OrderServiceImpl) RunExpirySweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.log.Info().Dur("interval", interval).Msg("order expiry sweep started")
	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("order expiry sweep stopped")
			return
		case <-ticker.C:
			if _, err := s.ExpireDueOrders(ctx); err != nil {
				s.log.Error().Err(err).Msg("expiry sweep iteration failed")
			}
		}
	}
}
