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

// CartHandler handles cart endpoints.
type CartHandler struct {
	cartSvc ports.CartService
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(cartSvc ports.CartService) *CartHandler {
	return &CartHandler{cartSvc: cartSvc}
}

// Create handles POST /api/carts.
func (h *CartHandler) Create(c *gin.Context) {
	cart, err := h.cartSvc.Create(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toCartResponse(cart))
}

// Get handles GET /api/carts/:id.
func (h *CartHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid cart id"))
		return
	}

	cart, err := h.cartSvc.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toCartResponse(cart))
}

// AddItem handles POST /api/carts/:id/items.
func (h *CartHandler) AddItem(c *gin.Context) {
	cartID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid cart id"))
		return
	}

	var req dto.AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		response.Error(c, apperror.Validation("invalid product id"))
		return
	}

	cart, err := h.cartSvc.AddItem(c.Request.Context(), cartID, productID, req.Quantity)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toCartResponse(cart))
}

// RemoveItem handles DELETE /api/carts/:id/items/:productId.
func (h *CartHandler) RemoveItem(c *gin.Context) {
	cartID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid cart id"))
		return
	}

	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid product id"))
		return
	}

	cart, err := h.cartSvc.RemoveItem(c.Request.Context(), cartID, productID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toCartResponse(cart))
}

// toCartResponse converts domain.Cart to DTO.
func toCartResponse(cart *domain.Cart) dto.CartResponse {
	items := make([]dto.CartItemResponse, 0, len(cart.Items))
	for _, it := range cart.Items {
		item := dto.CartItemResponse{
			ProductID: it.ProductID.String(),
			Quantity:  it.Quantity,
		}
		if it.Product != nil {
			item.Name = it.Product.Name
			item.UnitPrice = it.Product.Price
		}
		items = append(items, item)
	}
	return dto.CartResponse{
		ID:       cart.ID.String(),
		Items:    items,
		Subtotal: cart.Subtotal(),
	}
}
