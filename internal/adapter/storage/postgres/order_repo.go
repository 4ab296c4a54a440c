package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"crypto-checkout/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const orderColumns = `id, status, subtotal, total, address, chain, token_symbol,
		external_account_id, created_at, expires_at, tx_hash, paid_at`

// OrderRepo implements ports.OrderRepository.
type OrderRepo struct {
	pool Pool
}

// NewOrderRepo creates a new OrderRepo.
func NewOrderRepo(pool Pool) *OrderRepo {
	return &OrderRepo{pool: pool}
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	o := &domain.Order{}
	err := row.Scan(
		&o.ID, &o.Status, &o.Subtotal, &o.Total, &o.Address, &o.Chain,
		&o.TokenSymbol, &o.ExternalAccountID, &o.CreatedAt, &o.ExpiresAt,
		&o.TxHash, &o.PaidAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return o, nil
}

// Create inserts an order and its item snapshot within a database transaction.
func (r *OrderRepo) Create(ctx context.Context, tx pgx.Tx, o *domain.Order) error {
	query := `INSERT INTO orders (id, status, subtotal, total, address, chain, token_symbol,
		external_account_id, created_at, expires_at, tx_hash, paid_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := tx.Exec(ctx, query,
		o.ID, o.Status, o.Subtotal, o.Total, o.Address, o.Chain,
		o.TokenSymbol, o.ExternalAccountID, o.CreatedAt, o.ExpiresAt,
		o.TxHash, o.PaidAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, item := range o.Items {
		_, err := tx.Exec(ctx,
			`INSERT INTO order_items (order_id, name, quantity, unit_price) VALUES ($1, $2, $3, $4)`,
			o.ID, item.Name, item.Quantity, item.UnitPrice,
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	return nil
}

// GetByID fetches an order with its item snapshot.
func (r *OrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	o, err := scanOrder(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("get order by id: %w", err)
	}
	if o == nil {
		return nil, nil
	}

	items, err := r.loadItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

// List returns all orders, newest first, with their item snapshots.
func (r *OrderRepo) List(ctx context.Context) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(
			&o.ID, &o.Status, &o.Subtotal, &o.Total, &o.Address, &o.Chain,
			&o.TokenSymbol, &o.ExternalAccountID, &o.CreatedAt, &o.ExpiresAt,
			&o.TxHash, &o.PaidAt,
		); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}

	for i := range orders {
		items, err := r.loadItems(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}
	return orders, nil
}

// GetAwaitingByAccountForUpdate locks and returns at most one AWAITING_PAYMENT
// order bound to the partner account. The pool invariant should make the
// match unique; LIMIT 1 guards against invariant violations anyway.
func (r *OrderRepo) GetAwaitingByAccountForUpdate(ctx context.Context, tx pgx.Tx, accountID string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders
		WHERE status = $1 AND external_account_id = $2
		LIMIT 1
		FOR UPDATE`

	o, err := scanOrder(tx.QueryRow(ctx, query, domain.OrderStatusAwaitingPayment, accountID))
	if err != nil {
		return nil, fmt.Errorf("get awaiting order for update: %w", err)
	}
	if o == nil {
		return nil, nil
	}

	items, err := r.loadItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

// MarkPaid stamps the transaction hash and paid timestamp within a database
// transaction.
func (r *OrderRepo) MarkPaid(ctx context.Context, tx pgx.Tx, id uuid.UUID, txHash string, paidAt time.Time) error {
	query := `UPDATE orders SET status = $1, tx_hash = $2, paid_at = $3 WHERE id = $4`

	tag, err := tx.Exec(ctx, query, domain.OrderStatusPaid, txHash, paidAt, id)
	if err != nil {
		return fmt.Errorf("mark order paid: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("order not found: %s", id)
	}
	return nil
}

// PromoteToAwaitingPayment moves a CREATING_WALLET order forward once its
// wallet activates. The status guard keeps the transition forward-only.
func (r *OrderRepo) PromoteToAwaitingPayment(ctx context.Context, id uuid.UUID, address, chain string) error {
	query := `UPDATE orders SET status = $1, address = $2, chain = $3
		WHERE id = $4 AND status = $5`

	_, err := r.pool.Exec(ctx, query,
		domain.OrderStatusAwaitingPayment, address, chain,
		id, domain.OrderStatusCreatingWallet,
	)
	if err != nil {
		return fmt.Errorf("promote order: %w", err)
	}
	return nil
}

// ListDue returns pending orders whose expires_at has passed.
func (r *OrderRepo) ListDue(ctx context.Context, now time.Time) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders
		WHERE status IN ($1, $2) AND expires_at < $3`

	rows, err := r.pool.Query(ctx, query,
		domain.OrderStatusCreatingWallet, domain.OrderStatusAwaitingPayment, now)
	if err != nil {
		return nil, fmt.Errorf("list due orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(
			&o.ID, &o.Status, &o.Subtotal, &o.Total, &o.Address, &o.Chain,
			&o.TokenSymbol, &o.ExternalAccountID, &o.CreatedAt, &o.ExpiresAt,
			&o.TxHash, &o.PaidAt,
		); err != nil {
			return nil, fmt.Errorf("scan due order row: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate due order rows: %w", err)
	}
	return orders, nil
}

// MarkExpired transitions an order to EXPIRED within a database transaction.
// The status guard ensures a concurrently-paid order is never clawed back;
// the returned bool reports whether the transition actually happened.
func (r *OrderRepo) MarkExpired(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error) {
	query := `UPDATE orders SET status = $1 WHERE id = $2 AND status IN ($3, $4)`

	tag, err := tx.Exec(ctx, query,
		domain.OrderStatusExpired, id,
		domain.OrderStatusCreatingWallet, domain.OrderStatusAwaitingPayment,
	)
	if err != nil {
		return false, fmt.Errorf("mark order expired: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *OrderRepo) loadItems(ctx context.Context, orderID uuid.UUID) ([]domain.OrderItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT name, quantity, unit_price FROM order_items WHERE order_id = $1`, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.Name, &it.Quantity, &it.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}
	return items, nil
}
