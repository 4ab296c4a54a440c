package ports

import (
	"context"
	"time"

	"crypto-checkout/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// WalletRepository defines persistence operations for the deposit wallet pool.
// Methods accepting pgx.Tx run inside transaction blocks so wallet state and
// order state commit or roll back together.
type WalletRepository interface {
	Create(ctx context.Context, wallet *domain.Wallet) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error)
	GetByAccountID(ctx context.Context, accountID string) (*domain.Wallet, error)
	GetByAccountIDForUpdate(ctx context.Context, tx pgx.Tx, accountID string) (*domain.Wallet, error)
	// ClaimAvailable atomically selects one AVAILABLE wallet and flips it to
	// ASSIGNED using a skip-on-contention row pick. Returns (nil, nil) when no
	// wallet is free; it never blocks on rows locked by concurrent claimants.
	ClaimAvailable(ctx context.Context) (*domain.Wallet, error)
	ListByStatus(ctx context.Context, status domain.WalletStatus) ([]domain.Wallet, error)
	CountByStatus(ctx context.Context, status domain.WalletStatus) (int64, error)
	// SetAssigned flips a wallet to ASSIGNED outside the claim fast path
	// (activation and fresh-provision fallbacks).
	SetAssigned(ctx context.Context, id uuid.UUID) error
	// AssignToOrder binds the wallet to an order within the order-creation
	// transaction.
	AssignToOrder(ctx context.Context, tx pgx.Tx, walletID, orderID uuid.UUID) error
	// Activate fills address/chain reported by the partner and flips the
	// wallet to AVAILABLE.
	Activate(ctx context.Context, id uuid.UUID, address, chain string) error
	// Release clears the order binding and sets the given status. Runs inside
	// the transaction that resolves the bound order.
	Release(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.WalletStatus) error
}

// OrderRepository defines persistence operations for orders and their item
// snapshots.
type OrderRepository interface {
	Create(ctx context.Context, tx pgx.Tx, order *domain.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	List(ctx context.Context) ([]domain.Order, error)
	// GetAwaitingByAccountForUpdate locks and returns at most one
	// AWAITING_PAYMENT order bound to the account, or (nil, nil).
	GetAwaitingByAccountForUpdate(ctx context.Context, tx pgx.Tx, accountID string) (*domain.Order, error)
	MarkPaid(ctx context.Context, tx pgx.Tx, id uuid.UUID, txHash string, paidAt time.Time) error
	// PromoteToAwaitingPayment moves a CREATING_WALLET order forward once its
	// wallet activates, copying the deposit address.
	PromoteToAwaitingPayment(ctx context.Context, id uuid.UUID, address, chain string) error
	// ListDue returns orders in CREATING_WALLET or AWAITING_PAYMENT whose
	// expires_at has passed.
	ListDue(ctx context.Context, now time.Time) ([]domain.Order, error)
	// MarkExpired transitions a still-pending order to EXPIRED. Returns false
	// when the order had already left its pending status, so callers know the
	// wallet is no longer theirs to release.
	MarkExpired(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error)
}

// PayoutRepository defines persistence operations for payouts.
type PayoutRepository interface {
	Create(ctx context.Context, payout *domain.Payout) error
	GetByRequestID(ctx context.Context, requestID string) (*domain.Payout, error)
	GetByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.Payout, error)
	// RecordExecution backfills the partner payout id and fiat details after a
	// successful execution call.
	RecordExecution(ctx context.Context, id uuid.UUID, payoutID string, amountTarget, rate *decimal.Decimal) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.PayoutStatus) error
	// BackfillRate fills fiat amount and exchange rate learned from a later
	// partner detail fetch.
	BackfillRate(ctx context.Context, id uuid.UUID, amountTarget, rate decimal.Decimal) error
}

// ProductRepository defines persistence operations for the catalog.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	List(ctx context.Context) ([]domain.Product, error)
}

// CartRepository defines persistence operations for carts.
type CartRepository interface {
	Create(ctx context.Context, cart *domain.Cart) error
	// GetByID returns the cart with items and their products, or (nil, nil).
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Cart, error)
	// UpsertItem adds quantity to an existing line or inserts a new one.
	UpsertItem(ctx context.Context, cartID, productID uuid.UUID, quantity int32) error
	RemoveItem(ctx context.Context, cartID, productID uuid.UUID) error
	Clear(ctx context.Context, cartID uuid.UUID) error
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
