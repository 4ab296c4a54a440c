package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a catalog entry priced in the checkout token.
type Product struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Cart is an anonymous shopping cart consumed by order creation.
type Cart struct {
	ID        uuid.UUID  `json:"id"`
	Items     []CartItem `json:"items"`
	CreatedAt time.Time  `json:"created_at"`
}

// CartItem joins a cart to a product; pricing comes from the product at
// read time, the snapshot is taken only when an order is created.
type CartItem struct {
	CartID    uuid.UUID `json:"cart_id"`
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int32     `json:"quantity"`
	Product   *Product  `json:"product,omitempty"`
}

// Subtotal sums product price times quantity across the cart.
func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.Items {
		if it.Product == nil {
			continue
		}
		total = total.Add(it.Product.Price.Mul(decimal.NewFromInt32(it.Quantity)))
	}
	return total
}

// IsEmpty returns true when the cart has no items.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}
