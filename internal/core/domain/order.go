package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus represents the lifecycle state of an order.
// Transitions only move forward:
// CREATING_WALLET -> AWAITING_PAYMENT -> {PAID, EXPIRED}.
type OrderStatus string

const (
	OrderStatusCreatingWallet  OrderStatus = "CREATING_WALLET"
	OrderStatusAwaitingPayment OrderStatus = "AWAITING_PAYMENT"
	OrderStatusPaid            OrderStatus = "PAID"
	OrderStatusExpired         OrderStatus = "EXPIRED"
)

// Order binds a priced cart snapshot to a deposit wallet and tracks payment.
type Order struct {
	ID                uuid.UUID       `json:"id"`
	Status            OrderStatus     `json:"status"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	Total             decimal.Decimal `json:"total"`
	Address           *string         `json:"address,omitempty"`
	Chain             *string         `json:"chain,omitempty"`
	TokenSymbol       string          `json:"token_symbol"`
	ExternalAccountID *string         `json:"external_account_id,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	ExpiresAt         time.Time       `json:"expires_at"`
	TxHash            *string         `json:"tx_hash,omitempty"`
	PaidAt            *time.Time      `json:"paid_at,omitempty"`
	Items             []OrderItem     `json:"items"`
}

// OrderItem is a value snapshot of a cart line taken at order creation.
// It is never re-read from the catalog.
type OrderItem struct {
	Name      string          `json:"name"`
	Quantity  int32           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// IsTerminal returns true if the order is in a final state.
func (o *Order) IsTerminal() bool {
	return o.Status == OrderStatusPaid || o.Status == OrderStatusExpired
}

// IsPayable returns true while a deposit may still settle the order.
func (o *Order) IsPayable() bool {
	return o.Status == OrderStatusAwaitingPayment
}

// ItemsTotal sums unit price times quantity over the snapshot.
func ItemsTotal(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.UnitPrice.Mul(decimal.NewFromInt32(it.Quantity)))
	}
	return total
}
