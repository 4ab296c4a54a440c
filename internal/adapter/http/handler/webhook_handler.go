package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"crypto-checkout/internal/core/ports"
	"crypto-checkout/pkg/apperror"
	"crypto-checkout/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Mural delivery headers carrying the detached signature.
const (
	headerWebhookSignature = "X-Mural-Webhook-Signature"
	headerWebhookTimestamp = "X-Mural-Webhook-Timestamp"
)

// WebhookHandler receives signed partner event deliveries.
type WebhookHandler struct {
	webhookSvc ports.WebhookService
	log        zerolog.Logger
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(webhookSvc ports.WebhookService, log zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{webhookSvc: webhookSvc, log: log}
}

// HandleMural handles POST /api/webhooks/mural. Deliveries are verified only
// when both signature headers are present; Mural omits them on test pings.
func (h *WebhookHandler) HandleMural(c *gin.Context) {
	rawBody, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.Error(c, apperror.Validation("unreadable request body"))
		return
	}

	signature := c.GetHeader(headerWebhookSignature)
	timestamp := c.GetHeader(headerWebhookTimestamp)
	if signature != "" && timestamp != "" {
		if !h.webhookSvc.VerifySignature(rawBody, signature, timestamp) {
			h.log.Warn().Str("timestamp", timestamp).Msg("webhook signature rejected")
			response.Error(c, apperror.ErrInvalidWebhookSignature())
			return
		}
	}

	var event ports.WebhookEvent
	if err := json.Unmarshal(rawBody, &event); err != nil {
		response.Error(c, apperror.Validation("malformed event payload"))
		return
	}

	if err := h.webhookSvc.ProcessEvent(c.Request.Context(), event); err != nil {
		response.Error(c, err)
		return
	}

	// Mural expects this exact acknowledgement shape.
	c.JSON(http.StatusOK, gin.H{"received": true})
}
