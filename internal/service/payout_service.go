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
	"github.com/shopspring/decimal"
)

// payoutStatusMap is the fixed translation from the partner's payout status
// vocabulary to the local lifecycle. Raw statuses outside this table are
// logged and ignored, never guessed.
var payoutStatusMap = map[string]domain.PayoutStatus{
	"created":                 domain.PayoutStatusPending,
	"awaiting_source_deposit": domain.PayoutStatusPending,
	"pending":                 domain.PayoutStatusPending,
	"on_hold":                 domain.PayoutStatusPending,
	"completed":               domain.PayoutStatusCompleted,
	"executed":                domain.PayoutStatusCompleted,
	"failed":                  domain.PayoutStatusFailed,
	"canceled":                domain.PayoutStatusFailed,
}

// PayoutServiceImpl implements ports.PayoutService.
type PayoutServiceImpl struct {
	payoutRepo ports.PayoutRepository
	partner    ports.PartnerClient
	log        zerolog.Logger
}

// NewPayoutService creates a new PayoutServiceImpl.
func NewPayoutService(
	payoutRepo ports.PayoutRepository,
	partner ports.PartnerClient,
	log zerolog.Logger,
) *PayoutServiceImpl {
	return &PayoutServiceImpl{
		payoutRepo: payoutRepo,
		partner:    partner,
		log:        log,
	}
}

// Initiate converts a paid order's funds into a fiat payout. The payout row is
// persisted in INITIATED before the execute call so a crash mid-flight leaves
// an auditable record; an execute failure keeps the row INITIATED and is later
// reconciled through partner status events. Calling Initiate again for the
// same order returns the existing payout.
func (s *PayoutServiceImpl) Initiate(ctx context.Context, order *domain.Order) (*domain.Payout, error) {
	if order.Status != domain.OrderStatusPaid {
		return nil, apperror.ErrOrderNotPaid()
	}
	if order.ExternalAccountID == nil {
		return nil, apperror.Validation("order has no partner account")
	}

	existing, err := s.payoutRepo.GetByOrderID(ctx, order.ID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check existing payout: %w", err))
	}
	if existing != nil {
		return existing, nil
	}

	request, err := s.partner.CreatePayout(ctx, *order.ExternalAccountID, order.Total)
	if err != nil {
		return nil, apperror.ErrPartnerFailure(fmt.Errorf("create payout: %w", err))
	}

	now := time.Now()
	payout := &domain.Payout{
		ID:              uuid.New(),
		OrderID:         order.ID,
		PayoutRequestID: request.ID,
		Status:          domain.PayoutStatusInitiated,
		AmountSource:    order.Total,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.payoutRepo.Create(ctx, payout); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("persist payout: %w", err))
	}

	executed, err := s.partner.ExecutePayout(ctx, request.ID)
	if err != nil {
		s.log.Error().Err(err).
			Str("payout_request_id", request.ID).
			Str("order_id", order.ID.String()).
			Msg("payout execution failed, row left initiated")
		return payout, nil
	}

	payoutID, amountTarget, rate := extractExecution(executed)
	if payoutID != "" {
		if err := s.payoutRepo.RecordExecution(ctx, payout.ID, payoutID, amountTarget, rate); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("record execution: %w", err))
		}
		payout.PayoutID = &payoutID
		payout.AmountTarget = amountTarget
		payout.Rate = rate
	}

	s.log.Info().
		Str("payout_request_id", request.ID).
		Str("order_id", order.ID.String()).
		Msg("payout initiated")
	return payout, nil
}

// UpdateStatus applies a partner status event to the local payout. Unknown
// request ids and unrecognized statuses are logged and ignored so redeliveries
// and vocabulary drift never fail the webhook.
func (s *PayoutServiceImpl) UpdateStatus(ctx context.Context, requestID, payoutID, rawStatus string) error {
	payout, err := s.payoutRepo.GetByRequestID(ctx, requestID)
	if err != nil {
		return fmt.Errorf("load payout: %w", err)
	}
	if payout == nil {
		s.log.Warn().
			Str("payout_request_id", requestID).
			Str("raw_status", rawStatus).
			Msg("status event for unknown payout request, ignoring")
		return nil
	}

	status, ok := payoutStatusMap[rawStatus]
	if !ok {
		s.log.Warn().
			Err(apperror.ErrUnknownPayoutStatus(rawStatus)).
			Str("payout_request_id", requestID).
			Msg("unrecognized payout status, ignoring")
		return nil
	}

	if err := s.payoutRepo.UpdateStatus(ctx, payout.ID, status); err != nil {
		return fmt.Errorf("update payout status: %w", err)
	}
	s.log.Info().
		Str("payout_request_id", requestID).
		Str("status", string(status)).
		Msg("payout status updated")

	if payout.PayoutID == nil && payoutID != "" {
		if err := s.payoutRepo.RecordExecution(ctx, payout.ID, payoutID, nil, nil); err != nil {
			s.log.Warn().Err(err).Str("payout_request_id", requestID).Msg("payout id backfill failed")
		}
	}
	if payout.Rate == nil {
		s.backfillRate(ctx, payout)
	}
	return nil
}

// backfillRate opportunistically fetches fiat conversion details missed at
// execution time. Best-effort only.
func (s *PayoutServiceImpl) backfillRate(ctx context.Context, payout *domain.Payout) {
	request, err := s.partner.GetPayout(ctx, payout.PayoutRequestID)
	if err != nil {
		s.log.Warn().Err(err).Str("payout_request_id", payout.PayoutRequestID).Msg("rate backfill fetch failed")
		return
	}
	_, amountTarget, rate := extractExecution(request)
	if amountTarget == nil || rate == nil {
		return
	}
	if err := s.payoutRepo.BackfillRate(ctx, payout.ID, *amountTarget, *rate); err != nil {
		s.log.Warn().Err(err).Str("payout_request_id", payout.PayoutRequestID).Msg("rate backfill persist failed")
	}
}

// GetByOrderID returns the payout linked to the order.
func (s *PayoutServiceImpl) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.Payout, error) {
	payout, err := s.payoutRepo.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("load payout: %w", err))
	}
	if payout == nil {
		return nil, apperror.ErrNotFound("payout")
	}
	return payout, nil
}

// extractExecution pulls the first payout leg's id and fiat conversion details
// out of a partner payout request, when present.
func extractExecution(request *ports.PartnerPayoutRequest) (payoutID string, amountTarget, rate *decimal.Decimal) {
	if len(request.Payouts) == 0 {
		return "", nil, nil
	}
	leg := request.Payouts[0]
	if leg.Fiat != nil {
		amountTarget = &leg.Fiat.FiatAmount
		rate = &leg.Fiat.ExchangeRate
	}
	return leg.ID, amountTarget, rate
}
