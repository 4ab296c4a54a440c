package postgres

import (
	"context"
	"errors"
	"fmt"

	"crypto-checkout/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CartRepo implements ports.CartRepository.
type CartRepo struct {
	pool Pool
}

// NewCartRepo creates a new CartRepo.
func NewCartRepo(pool Pool) *CartRepo {
	return &CartRepo{pool: pool}
}

// Create inserts an empty cart.
func (r *CartRepo) Create(ctx context.Context, c *domain.Cart) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO carts (id, created_at) VALUES ($1, $2)`, c.ID, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert cart: %w", err)
	}
	return nil
}

// GetByID fetches a cart with items and their products, or (nil, nil).
func (r *CartRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Cart, error) {
	c := &domain.Cart{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, created_at FROM carts WHERE id = $1`, id).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cart by id: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT ci.cart_id, ci.product_id, ci.quantity, p.id, p.name, p.description, p.price, p.created_at
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("load cart items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it domain.CartItem
		var p domain.Product
		if err := rows.Scan(
			&it.CartID, &it.ProductID, &it.Quantity,
			&p.ID, &p.Name, &p.Description, &p.Price, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		it.Product = &p
		c.Items = append(c.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart items: %w", err)
	}
	return c, nil
}

// UpsertItem adds quantity to an existing line or inserts a new one.
func (r *CartRepo) UpsertItem(ctx context.Context, cartID, productID uuid.UUID, quantity int32) error {
	query := `INSERT INTO cart_items (cart_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity`

	_, err := r.pool.Exec(ctx, query, cartID, productID, quantity)
	if err != nil {
		return fmt.Errorf("upsert cart item: %w", err)
	}
	return nil
}

// RemoveItem deletes a line from the cart.
func (r *CartRepo) RemoveItem(ctx context.Context, cartID, productID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2`, cartID, productID)
	if err != nil {
		return fmt.Errorf("remove cart item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("item not in cart")
	}
	return nil
}

// Clear empties the cart after a successful checkout.
func (r *CartRepo) Clear(ctx context.Context, cartID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
