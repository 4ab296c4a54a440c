package service

import (
	"context"
	"crypto/ecdsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"strconv"
	"time"

	"crypto-checkout/internal/core/ports"

	"github.com/rs/zerolog"
)

const eventDedupTTL = 24 * time.Hour

// signatureTimeFormat matches the partner's canonical timestamp rendering:
// UTC with millisecond precision.
const signatureTimeFormat = "2006-01-02T15:04:05.000Z"

// WebhookServiceImpl implements ports.WebhookService. It verifies the
// partner's detached ECDSA signature and dispatches events to reconciliation
// and payout tracking.
type WebhookServiceImpl struct {
	recon       ports.ReconciliationService
	payoutSvc   ports.PayoutService
	dedup       ports.EventDedupStore
	publicKey   *ecdsa.PublicKey // nil disables verification
	tokenSymbol string
	log         zerolog.Logger
}

// NewWebhookService creates a new WebhookServiceImpl. An empty publicKeyPEM
// disables signature verification entirely.
func NewWebhookService(
	recon ports.ReconciliationService,
	payoutSvc ports.PayoutService,
	dedup ports.EventDedupStore,
	publicKeyPEM string,
	tokenSymbol string,
	log zerolog.Logger,
) (*WebhookServiceImpl, error) {
	s := &WebhookServiceImpl{
		recon:       recon,
		payoutSvc:   payoutSvc,
		dedup:       dedup,
		tokenSymbol: tokenSymbol,
		log:         log,
	}
	if publicKeyPEM == "" {
		log.Warn().Msg("no webhook public key configured, signature verification disabled")
		return s, nil
	}

	block, _ := pem.Decode([]byte(publicKeyPEM))
	if block == nil {
		return nil, fmt.Errorf("webhook public key: no PEM block found")
	}
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("webhook public key: %w", err)
	}
	key, ok := parsed.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("webhook public key: not an ECDSA key")
	}
	s.publicKey = key
	return s, nil
}

// VerifySignature checks the DER-encoded ECDSA signature over
// canonical(timestamp) + "." + rawBody. Returns true when verification is
// disabled.
func (s *WebhookServiceImpl) VerifySignature(rawBody []byte, signatureB64, timestamp string) bool {
	if s.publicKey == nil {
		return true
	}

	canonical, err := canonicalTimestamp(timestamp)
	if err != nil {
		s.log.Error().Err(err).Str("timestamp", timestamp).Msg("unparseable webhook timestamp")
		return false
	}
	signature, err := base64.StdEncoding.DecodeString(signatureB64)
	if err != nil {
		s.log.Error().Err(err).Msg("undecodable webhook signature")
		return false
	}

	message := append([]byte(canonical+"."), rawBody...)
	digest := sha256.Sum256(message)
	return ecdsa.VerifyASN1(s.publicKey, digest[:], signature)
}

// canonicalTimestamp normalizes the timestamp header, accepting RFC 3339 or
// epoch milliseconds, into the partner's signing format.
func canonicalTimestamp(timestamp string) (string, error) {
	if millis, err := strconv.ParseInt(timestamp, 10, 64); err == nil {
		return time.UnixMilli(millis).UTC().Format(signatureTimeFormat), nil
	}
	t, err := time.Parse(time.RFC3339Nano, timestamp)
	if err != nil {
		return "", fmt.Errorf("parse timestamp: %w", err)
	}
	return t.UTC().Format(signatureTimeFormat), nil
}

// ProcessEvent dispatches a verified partner event. Duplicate deliveries are
// dropped through the dedup store; a dedup store failure lets the event
// through since downstream handling is idempotent and a dropped deposit is
// worse than a redundant one.
func (s *WebhookServiceImpl) ProcessEvent(ctx context.Context, event ports.WebhookEvent) error {
	if event.EventID != "" {
		fresh, err := s.dedup.CheckAndSet(ctx, event.EventID, eventDedupTTL)
		if err != nil {
			s.log.Warn().Err(err).Str("event_id", event.EventID).Msg("event dedup check failed, processing anyway")
		} else if !fresh {
			s.log.Info().Str("event_id", event.EventID).Msg("duplicate event delivery dropped")
			return nil
		}
	}

	var discriminator ports.EventPayloadType
	if err := json.Unmarshal(event.Payload, &discriminator); err != nil {
		return fmt.Errorf("decode event payload: %w", err)
	}

	s.log.Info().
		Str("event_id", event.EventID).
		Str("type", discriminator.Type).
		Msg("processing webhook event")

	switch discriminator.Type {
	case ports.EventTypeAccountCredited:
		return s.handleAccountCredited(ctx, event.Payload)
	case ports.EventTypePayoutStatusChanged:
		return s.handlePayoutStatusChanged(ctx, event.Payload)
	default:
		// Unhandled event categories are acknowledged so the partner stops
		// redelivering them.
		return nil
	}
}

func (s *WebhookServiceImpl) handleAccountCredited(ctx context.Context, payload json.RawMessage) error {
	var credited ports.AccountCreditedPayload
	if err := json.Unmarshal(payload, &credited); err != nil {
		return fmt.Errorf("decode account_credited payload: %w", err)
	}
	if credited.TokenAmount.TokenSymbol != s.tokenSymbol {
		s.log.Info().
			Str("token", credited.TokenAmount.TokenSymbol).
			Str("account_id", credited.AccountID).
			Msg("credit in unsupported token, ignoring")
		return nil
	}

	_, err := s.recon.MatchDeposit(
		ctx,
		credited.TokenAmount.TokenAmount,
		credited.TransactionDetails.TransactionHash,
		credited.AccountID,
	)
	if err != nil {
		return fmt.Errorf("match deposit: %w", err)
	}
	return nil
}

func (s *WebhookServiceImpl) handlePayoutStatusChanged(ctx context.Context, payload json.RawMessage) error {
	var changed ports.PayoutStatusChangedPayload
	if err := json.Unmarshal(payload, &changed); err != nil {
		return fmt.Errorf("decode payout_status_changed payload: %w", err)
	}

	err := s.payoutSvc.UpdateStatus(
		ctx,
		changed.PayoutRequestID,
		changed.PayoutID,
		changed.StatusChangeDetails.CurrentStatus.Type,
	)
	if err != nil {
		return fmt.Errorf("update payout status: %w", err)
	}
	return nil
}
