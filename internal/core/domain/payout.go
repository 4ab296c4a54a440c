package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PayoutStatus represents the lifecycle state of a fiat payout.
type PayoutStatus string

const (
	// PayoutStatusInitiated means the payout request was created at the
	// partner; execution may or may not have succeeded yet.
	PayoutStatusInitiated PayoutStatus = "INITIATED"
	PayoutStatusPending   PayoutStatus = "PENDING"
	PayoutStatusCompleted PayoutStatus = "COMPLETED"
	PayoutStatusFailed    PayoutStatus = "FAILED"
)

// Payout tracks the conversion of a paid order's funds into a fiat payment.
// At most one payout is created per paid order. The row is persisted in
// INITIATED before execution so a crash mid-call leaves an auditable record.
type Payout struct {
	ID              uuid.UUID        `json:"id"`
	OrderID         uuid.UUID        `json:"order_id"`
	PayoutRequestID string           `json:"payout_request_id"` // Mural payout request id
	PayoutID        *string          `json:"payout_id,omitempty"`
	Status          PayoutStatus     `json:"status"`
	AmountSource    decimal.Decimal  `json:"amount_source"` // USDC collected
	AmountTarget    *decimal.Decimal `json:"amount_target,omitempty"`
	Rate            *decimal.Decimal `json:"rate,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// IsTerminal returns true if the payout reached a final state.
func (p *Payout) IsTerminal() bool {
	return p.Status == PayoutStatusCompleted || p.Status == PayoutStatusFailed
}
