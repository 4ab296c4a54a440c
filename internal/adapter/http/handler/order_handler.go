package handler

import (
	"crypto-checkout/internal/adapter/http/dto"
	"crypto-checkout/internal/core/domain"
	"crypto-checkout/internal/core/ports"
	"crypto-checkout/pkg/apperror"
	"crypto-checkout/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// OrderHandler handles order and payout read endpoints.
type OrderHandler struct {
	orderSvc  ports.OrderService
	payoutSvc ports.PayoutService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orderSvc ports.OrderService, payoutSvc ports.PayoutService) *OrderHandler {
	return &OrderHandler{orderSvc: orderSvc, payoutSvc: payoutSvc}
}

// Create handles POST /api/orders, converting a cart into an order with a
// dedicated deposit wallet.
func (h *OrderHandler) Create(c *gin.Context) {
	var req dto.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	cartID, err := uuid.Parse(req.CartID)
	if err != nil {
		response.Error(c, apperror.Validation("invalid cart id"))
		return
	}

	order, err := h.orderSvc.CreateFromCart(c.Request.Context(), cartID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toOrderResponse(order))
}

// Get handles GET /api/orders/:id.
func (h *OrderHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid order id"))
		return
	}

	order, err := h.orderSvc.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toOrderResponse(order))
}

// List handles GET /api/orders.
func (h *OrderHandler) List(c *gin.Context) {
	orders, err := h.orderSvc.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	out := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, toOrderResponse(&orders[i]))
	}
	response.OK(c, out)
}

// GetPayout handles GET /api/orders/:id/payout.
func (h *OrderHandler) GetPayout(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid order id"))
		return
	}

	payout, err := h.payoutSvc.GetByOrderID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toPayoutResponse(payout))
}

// toOrderResponse converts domain.Order to DTO.
func toOrderResponse(order *domain.Order) dto.OrderResponse {
	resp := dto.OrderResponse{
		ID:          order.ID.String(),
		Status:      string(order.Status),
		Total:       order.Total,
		TokenSymbol: order.TokenSymbol,
		Address:     order.Address,
		Chain:       order.Chain,
		CreatedAt:   order.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		ExpiresAt:   order.ExpiresAt.Format("2006-01-02T15:04:05Z07:00"),
		TxHash:      order.TxHash,
	}
	if order.PaidAt != nil {
		s := order.PaidAt.Format("2006-01-02T15:04:05Z07:00")
		resp.PaidAt = &s
	}
	resp.Items = make([]dto.OrderItemResponse, 0, len(order.Items))
	for _, it := range order.Items {
		resp.Items = append(resp.Items, dto.OrderItemResponse{
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}
	return resp
}

// toPayoutResponse converts domain.Payout to DTO.
func toPayoutResponse(p *domain.Payout) dto.PayoutResponse {
	return dto.PayoutResponse{
		ID:              p.ID.String(),
		OrderID:         p.OrderID.String(),
		PayoutRequestID: p.PayoutRequestID,
		PayoutID:        p.PayoutID,
		Status:          string(p.Status),
		AmountSource:    p.AmountSource,
		AmountTarget:    p.AmountTarget,
		Rate:            p.Rate,
		CreatedAt:       p.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:       p.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
