package ports

import (
	"context"
	"encoding/json"
	"time"

	"crypto-checkout/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WalletPoolService owns allocation and lifecycle of deposit wallets.
type WalletPoolService interface {
	// Claim atomically takes one AVAILABLE wallet, or returns (nil, nil).
	Claim(ctx context.Context) (*domain.Wallet, error)
	// TryActivate asks the partner whether an INITIALIZING wallet's account
	// went active; on success fills address/chain and returns the wallet,
	// otherwise (nil, nil). Partner failures are swallowed and logged.
	TryActivate(ctx context.Context, wallet *domain.Wallet) (*domain.Wallet, error)
	// RequestNew provisions a fresh partner account. The wallet comes back
	// AVAILABLE when the partner reports an immediate address, else
	// INITIALIZING.
	RequestNew(ctx context.Context) (*domain.Wallet, error)
	// Acquire runs the full acquisition chain: claim, activate an
	// INITIALIZING wallet, or provision anew. The returned wallet is ASSIGNED.
	Acquire(ctx context.Context) (*domain.Wallet, error)
	// Release returns a wallet to the pool outside an order-resolving
	// transaction.
	Release(ctx context.Context, wallet *domain.Wallet) error
	// Bootstrap imports partner accounts into an empty pool at startup.
	Bootstrap(ctx context.Context) error
	// ReplenishIfExhausted provisions a new wallet when no AVAILABLE wallet
	// remains. Best-effort: failures are logged, never returned.
	ReplenishIfExhausted(ctx context.Context)
}

// OrderService drives the order state machine.
type OrderService interface {
	CreateFromCart(ctx context.Context, cartID uuid.UUID) (*domain.Order, error)
	// Get returns the order, opportunistically promoting CREATING_WALLET
	// orders whose wallet has since activated.
	Get(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	List(ctx context.Context) ([]domain.Order, error)
	// ExpireDueOrders transitions every overdue pending order to EXPIRED,
	// one transaction per order, and reports how many were expired.
	ExpireDueOrders(ctx context.Context) (int, error)
}

// ReconciliationService matches inbound credit events to pending orders.
type ReconciliationService interface {
	// MatchDeposit settles at most one AWAITING_PAYMENT order bound to the
	// account. Duplicate or stray deliveries and underpayments return
	// (nil, nil) and mutate nothing.
	MatchDeposit(ctx context.Context, amount decimal.Decimal, txHash, accountID string) (*domain.Order, error)
}

// PayoutService converts a paid order's funds into a fiat payout and tracks
// partner status updates.
type PayoutService interface {
	Initiate(ctx context.Context, order *domain.Order) (*domain.Payout, error)
	UpdateStatus(ctx context.Context, requestID, payoutID, rawStatus string) error
	GetByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.Payout, error)
}

// CartService manages carts consumed by order creation.
type CartService interface {
	Create(ctx context.Context) (*domain.Cart, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Cart, error)
	AddItem(ctx context.Context, cartID, productID uuid.UUID, quantity int32) (*domain.Cart, error)
	RemoveItem(ctx context.Context, cartID, productID uuid.UUID) (*domain.Cart, error)
	Clear(ctx context.Context, cartID uuid.UUID) error
}

// ProductService manages the catalog.
type ProductService interface {
	Create(ctx context.Context, name, description string, price decimal.Decimal) (*domain.Product, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	List(ctx context.Context) ([]domain.Product, error)
}

// WebhookService verifies and dispatches inbound partner events.
type WebhookService interface {
	// VerifySignature checks the detached signature over
	// ISO-8601(timestamp) + "." + rawBody. Returns true when no public key is
	// configured (verification disabled).
	VerifySignature(rawBody []byte, signatureB64, timestamp string) bool
	ProcessEvent(ctx context.Context, event WebhookEvent) error
}

// EventDedupStore guards against duplicate webhook deliveries.
type EventDedupStore interface {
	// CheckAndSet returns true if the event id is new, false on replay.
	CheckAndSet(ctx context.Context, eventID string, ttl time.Duration) (bool, error)
}

// Webhook event payload types.
const (
	EventTypeAccountCredited     = "account_credited"
	EventTypePayoutStatusChanged = "payout_status_changed"
)

// WebhookEvent is the partner's signed event envelope.
type WebhookEvent struct {
	EventID       string          `json:"eventId"`
	DeliveryID    string          `json:"deliveryId"`
	AttemptNumber int             `json:"attemptNumber"`
	EventCategory string          `json:"eventCategory"`
	OccurredAt    string          `json:"occurredAt"`
	Payload       json.RawMessage `json:"payload"`
}

// EventPayloadType carries only the discriminator field of a payload.
type EventPayloadType struct {
	Type string `json:"type"`
}

// AccountCreditedPayload reports an on-chain deposit into a partner account.
type AccountCreditedPayload struct {
	Type               string                  `json:"type"`
	AccountID          string                  `json:"accountId"`
	TransactionID      string                  `json:"transactionId"`
	TokenAmount        EventTokenAmount        `json:"tokenAmount"`
	TransactionDetails EventTransactionDetails `json:"transactionDetails"`
}

type EventTokenAmount struct {
	Blockchain           string          `json:"blockchain"`
	TokenAmount          decimal.Decimal `json:"tokenAmount"`
	TokenSymbol          string          `json:"tokenSymbol"`
	TokenContractAddress string          `json:"tokenContractAddress"`
}

type EventTransactionDetails struct {
	Blockchain               string `json:"blockchain"`
	TransactionDate          string `json:"transactionDate"`
	TransactionHash          string `json:"transactionHash"`
	SourceWalletAddress      string `json:"sourceWalletAddress"`
	DestinationWalletAddress string `json:"destinationWalletAddress"`
}

// PayoutStatusChangedPayload reports a partner-side payout state change.
type PayoutStatusChangedPayload struct {
	Type                string                   `json:"type"`
	PayoutRequestID     string                   `json:"payoutRequestId"`
	PayoutID            string                   `json:"payoutId"`
	StatusChangeDetails EventStatusChangeDetails `json:"statusChangeDetails"`
}

type EventStatusChangeDetails struct {
	Type           string           `json:"type"`
	PreviousStatus EventStatusValue `json:"previousStatus"`
	CurrentStatus  EventStatusValue `json:"currentStatus"`
}

type EventStatusValue struct {
	Type string `json:"type"`
}
