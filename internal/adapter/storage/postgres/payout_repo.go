package postgres

import (
	"context"
	"errors"
	"fmt"

	"crypto-checkout/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const payoutColumns = `id, order_id, payout_request_id, payout_id, status,
		amount_source, amount_target, rate, created_at, updated_at`

// PayoutRepo implements ports.PayoutRepository.
type PayoutRepo struct {
	pool Pool
}

// NewPayoutRepo creates a new PayoutRepo.
func NewPayoutRepo(pool Pool) *PayoutRepo {
	return &PayoutRepo{pool: pool}
}

func scanPayout(row pgx.Row) (*domain.Payout, error) {
	p := &domain.Payout{}
	err := row.Scan(
		&p.ID, &p.OrderID, &p.PayoutRequestID, &p.PayoutID, &p.Status,
		&p.AmountSource, &p.AmountTarget, &p.Rate, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// Create inserts a payout row.
func (r *PayoutRepo) Create(ctx context.Context, p *domain.Payout) error {
	query := `INSERT INTO payouts (id, order_id, payout_request_id, payout_id, status,
		amount_source, amount_target, rate, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.pool.Exec(ctx, query,
		p.ID, p.OrderID, p.PayoutRequestID, p.PayoutID, p.Status,
		p.AmountSource, p.AmountTarget, p.Rate, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert payout: %w", err)
	}
	return nil
}

// GetByRequestID fetches a payout by the partner request id.
func (r *PayoutRepo) GetByRequestID(ctx context.Context, requestID string) (*domain.Payout, error) {
	query := `SELECT ` + payoutColumns + ` FROM payouts WHERE payout_request_id = $1`

	p, err := scanPayout(r.pool.QueryRow(ctx, query, requestID))
	if err != nil {
		return nil, fmt.Errorf("get payout by request id: %w", err)
	}
	return p, nil
}

// GetByOrderID fetches the payout linked to an order.
func (r *PayoutRepo) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.Payout, error) {
	query := `SELECT ` + payoutColumns + ` FROM payouts WHERE order_id = $1`

	p, err := scanPayout(r.pool.QueryRow(ctx, query, orderID))
	if err != nil {
		return nil, fmt.Errorf("get payout by order id: %w", err)
	}
	return p, nil
}

// RecordExecution backfills partner payout id and fiat details after a
// successful execution call.
func (r *PayoutRepo) RecordExecution(ctx context.Context, id uuid.UUID, payoutID string, amountTarget, rate *decimal.Decimal) error {
	query := `UPDATE payouts SET payout_id = $1, amount_target = $2, rate = $3, updated_at = NOW()
		WHERE id = $4`

	tag, err := r.pool.Exec(ctx, query, payoutID, amountTarget, rate, id)
	if err != nil {
		return fmt.Errorf("record payout execution: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("payout not found: %s", id)
	}
	return nil
}

// UpdateStatus moves the payout to a new lifecycle state.
func (r *PayoutRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.PayoutStatus) error {
	query := `UPDATE payouts SET status = $1, updated_at = NOW() WHERE id = $2`

	tag, err := r.pool.Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("update payout status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("payout not found: %s", id)
	}
	return nil
}

// BackfillRate fills fiat amount and exchange rate learned from a later
// partner detail fetch.
func (r *PayoutRepo) BackfillRate(ctx context.Context, id uuid.UUID, amountTarget, rate decimal.Decimal) error {
	query := `UPDATE payouts SET amount_target = $1, rate = $2, updated_at = NOW() WHERE id = $3`

	tag, err := r.pool.Exec(ctx, query, amountTarget, rate, id)
	if err != nil {
		return fmt.Errorf("backfill payout rate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("payout not found: %s", id)
	}
	return nil
}
