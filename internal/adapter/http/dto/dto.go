package dto

import "github.com/shopspring/decimal"

// CreateProductRequest is the request body for catalog creation.
type CreateProductRequest struct {
	Name        string          `json:"name" binding:"required,min=1,max=200"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price" binding:"required"`
}

// ProductResponse is the response body for a catalog entry.
type ProductResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	CreatedAt   string          `json:"created_at"`
}

// AddCartItemRequest is the request body for adding a product to a cart.
type AddCartItemRequest struct {
	ProductID string `json:"product_id" binding:"required,uuid"`
	Quantity  int32  `json:"quantity" binding:"required,gt=0"`
}

// CartItemResponse is a priced cart line.
type CartItemResponse struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int32           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// CartResponse is the response body for cart state.
type CartResponse struct {
	ID       string             `json:"id"`
	Items    []CartItemResponse `json:"items"`
	Subtotal decimal.Decimal    `json:"subtotal"`
}

// CheckoutRequest is the request body for converting a cart into an order.
type CheckoutRequest struct {
	CartID string `json:"cart_id" binding:"required,uuid"`
}

// OrderItemResponse is an immutable order line snapshot.
type OrderItemResponse struct {
	Name      string          `json:"name"`
	Quantity  int32           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// OrderResponse is the response body for order state. Address and chain are
// empty while the deposit wallet is still provisioning.
type OrderResponse struct {
	ID          string              `json:"id"`
	Status      string              `json:"status"`
	Total       decimal.Decimal     `json:"total"`
	TokenSymbol string              `json:"token_symbol"`
	Address     *string             `json:"address,omitempty"`
	Chain       *string             `json:"chain,omitempty"`
	CreatedAt   string              `json:"created_at"`
	ExpiresAt   string              `json:"expires_at"`
	TxHash      *string             `json:"tx_hash,omitempty"`
	PaidAt      *string             `json:"paid_at,omitempty"`
	Items       []OrderItemResponse `json:"items"`
}

// PayoutResponse is the response body for a payout linked to an order.
type PayoutResponse struct {
	ID              string           `json:"id"`
	OrderID         string           `json:"order_id"`
	PayoutRequestID string           `json:"payout_request_id"`
	PayoutID        *string          `json:"payout_id,omitempty"`
	Status          string           `json:"status"`
	AmountSource    decimal.Decimal  `json:"amount_source"`
	AmountTarget    *decimal.Decimal `json:"amount_target,omitempty"`
	Rate            *decimal.Decimal `json:"rate,omitempty"`
	CreatedAt       string           `json:"created_at"`
	UpdatedAt       string           `json:"updated_at"`
}
