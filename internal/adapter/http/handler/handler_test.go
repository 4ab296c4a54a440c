package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"crypto-checkout/internal/adapter/http/dto"
	"crypto-checkout/internal/core/domain"
	"crypto-checkout/internal/core/ports"
	"crypto-checkout/internal/core/ports/mocks"
	"crypto-checkout/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// --- Product Handler Tests ---

func TestProductCreate_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockProduct := mocks.NewMockProductService(ctrl)
	h := NewProductHandler(mockProduct)

	productID := uuid.New()
	now := time.Now()
	price := decimal.RequireFromString("19.99")

	mockProduct.EXPECT().Create(gomock.Any(), "Widget", "A widget", price).Return(&domain.Product{
		ID:          productID,
		Name:        "Widget",
		Description: "A widget",
		Price:       price,
		CreatedAt:   now,
	}, nil)

	body, _ := json.Marshal(dto.CreateProductRequest{
		Name:        "Widget",
		Description: "A widget",
		Price:       price,
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, productID.String(), data["id"])
	assert.Equal(t, "Widget", data["name"])
}

func TestProductCreate_ValidationError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockProduct := mocks.NewMockProductService(ctrl)
	h := NewProductHandler(mockProduct)

	// Empty body => binding error
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte("{}")))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProductGet_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockProduct := mocks.NewMockProductService(ctrl)
	h := NewProductHandler(mockProduct)

	productID := uuid.New()
	mockProduct.EXPECT().Get(gomock.Any(), productID).Return(nil, apperror.ErrNotFound("Product"))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Params = gin.Params{{Key: "id", Value: productID.String()}}

	h.Get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProductGet_BadID(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockProduct := mocks.NewMockProductService(ctrl)
	h := NewProductHandler(mockProduct)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Params = gin.Params{{Key: "id", Value: "not-a-uuid"}}

	h.Get(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProductList_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockProduct := mocks.NewMockProductService(ctrl)
	h := NewProductHandler(mockProduct)

	mockProduct.EXPECT().List(gomock.Any()).Return([]domain.Product{
		{ID: uuid.New(), Name: "Widget", Price: decimal.RequireFromString("10.00"), CreatedAt: time.Now()},
		{ID: uuid.New(), Name: "Gadget", Price: decimal.RequireFromString("5.00"), CreatedAt: time.Now()},
	}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	h.List(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	items := resp["data"].([]interface{})
	assert.Len(t, items, 2)
}

// --- Cart Handler Tests ---

func TestCartAddItem_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockCart := mocks.NewMockCartService(ctrl)
	h := NewCartHandler(mockCart)

	cartID := uuid.New()
	productID := uuid.New()
	price := decimal.RequireFromString("10.00")

	mockCart.EXPECT().AddItem(gomock.Any(), cartID, productID, int32(2)).Return(&domain.Cart{
		ID: cartID,
		Items: []domain.CartItem{
			{
				CartID:    cartID,
				ProductID: productID,
				Quantity:  2,
				Product:   &domain.Product{ID: productID, Name: "Widget", Price: price},
			},
		},
	}, nil)

	body, _ := json.Marshal(dto.AddCartItemRequest{
		ProductID: productID.String(),
		Quantity:  2,
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: cartID.String()}}

	h.AddItem(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "20.00", data["subtotal"])
	items := data["items"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, "Widget", items[0].(map[string]interface{})["name"])
}

func TestCartAddItem_ZeroQuantity(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockCart := mocks.NewMockCartService(ctrl)
	h := NewCartHandler(mockCart)

	body, _ := json.Marshal(dto.AddCartItemRequest{
		ProductID: uuid.New().String(),
		Quantity:  0,
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: uuid.New().String()}}

	h.AddItem(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCartRemoveItem_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockCart := mocks.NewMockCartService(ctrl)
	h := NewCartHandler(mockCart)

	cartID := uuid.New()
	productID := uuid.New()
	mockCart.EXPECT().RemoveItem(gomock.Any(), cartID, productID).Return(&domain.Cart{ID: cartID}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodDelete, "/", nil)
	c.Params = gin.Params{
		{Key: "id", Value: cartID.String()},
		{Key: "productId", Value: productID.String()},
	}

	h.RemoveItem(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

// --- Order Handler Tests ---

func TestOrderCreate_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockOrder := mocks.NewMockOrderService(ctrl)
	h := NewOrderHandler(mockOrder, nil)

	cartID := uuid.New()
	orderID := uuid.New()
	address := "0xabc"
	chain := "POLYGON"
	now := time.Now()

	mockOrder.EXPECT().CreateFromCart(gomock.Any(), cartID).Return(&domain.Order{
		ID:          orderID,
		Status:      domain.OrderStatusAwaitingPayment,
		Subtotal:    decimal.RequireFromString("25.00"),
		Total:       decimal.RequireFromString("25.00"),
		Address:     &address,
		Chain:       &chain,
		TokenSymbol: "USDC",
		CreatedAt:   now,
		ExpiresAt:   now.Add(30 * time.Minute),
		Items: []domain.OrderItem{
			{Name: "Widget", Quantity: 2, UnitPrice: decimal.RequireFromString("10.00")},
		},
	}, nil)

	body, _ := json.Marshal(dto.CheckoutRequest{CartID: cartID.String()})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, orderID.String(), data["id"])
	assert.Equal(t, "AWAITING_PAYMENT", data["status"])
	assert.Equal(t, "0xabc", data["address"])
}

func TestOrderCreate_EmptyCart(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockOrder := mocks.NewMockOrderService(ctrl)
	h := NewOrderHandler(mockOrder, nil)

	cartID := uuid.New()
	mockOrder.EXPECT().CreateFromCart(gomock.Any(), cartID).Return(nil, apperror.ErrEmptyCart())

	body, _ := json.Marshal(dto.CheckoutRequest{CartID: cartID.String()})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrderCreate_PartnerDown(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockOrder := mocks.NewMockOrderService(ctrl)
	h := NewOrderHandler(mockOrder, nil)

	cartID := uuid.New()
	mockOrder.EXPECT().CreateFromCart(gomock.Any(), cartID).
		Return(nil, apperror.ErrPartnerFailure(errors.New("mural unreachable")))

	body, _ := json.Marshal(dto.CheckoutRequest{CartID: cartID.String()})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Create(c)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestOrderGet_PendingWallet(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockOrder := mocks.NewMockOrderService(ctrl)
	h := NewOrderHandler(mockOrder, nil)

	orderID := uuid.New()
	now := time.Now()
	mockOrder.EXPECT().Get(gomock.Any(), orderID).Return(&domain.Order{
		ID:          orderID,
		Status:      domain.OrderStatusCreatingWallet,
		Total:       decimal.RequireFromString("25.00"),
		TokenSymbol: "USDC",
		CreatedAt:   now,
		ExpiresAt:   now.Add(30 * time.Minute),
	}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Params = gin.Params{{Key: "id", Value: orderID.String()}}

	h.Get(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "CREATING_WALLET", data["status"])
	_, hasAddress := data["address"]
	assert.False(t, hasAddress)
}

func TestOrderGetPayout_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockPayout := mocks.NewMockPayoutService(ctrl)
	h := NewOrderHandler(nil, mockPayout)

	orderID := uuid.New()
	payoutID := "p-1"
	now := time.Now()
	mockPayout.EXPECT().GetByOrderID(gomock.Any(), orderID).Return(&domain.Payout{
		ID:              uuid.New(),
		OrderID:         orderID,
		PayoutRequestID: "req-1",
		PayoutID:        &payoutID,
		Status:          domain.PayoutStatusCompleted,
		AmountSource:    decimal.RequireFromString("25.00"),
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Params = gin.Params{{Key: "id", Value: orderID.String()}}

	h.GetPayout(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "COMPLETED", data["status"])
	assert.Equal(t, "p-1", data["payout_id"])
}

func TestOrderGetPayout_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockPayout := mocks.NewMockPayoutService(ctrl)
	h := NewOrderHandler(nil, mockPayout)

	orderID := uuid.New()
	mockPayout.EXPECT().GetByOrderID(gomock.Any(), orderID).Return(nil, apperror.ErrNotFound("Payout"))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Params = gin.Params{{Key: "id", Value: orderID.String()}}

	h.GetPayout(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// --- Webhook Handler Tests ---

func webhookTestBody(t *testing.T) []byte {
	t.Helper()
	payload, err := json.Marshal(map[string]string{"type": "account_credited"})
	require.NoError(t, err)
	body, err := json.Marshal(ports.WebhookEvent{
		EventID:       "evt-1",
		EventCategory: "account",
		Payload:       payload,
	})
	require.NoError(t, err)
	return body
}

func TestWebhook_SignedDelivery(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockWebhook := mocks.NewMockWebhookService(ctrl)
	h := NewWebhookHandler(mockWebhook, zerolog.Nop())

	body := webhookTestBody(t)
	mockWebhook.EXPECT().VerifySignature(body, "sig", "2026-09-01T00:00:00.000Z").Return(true)
	mockWebhook.EXPECT().ProcessEvent(gomock.Any(), gomock.Any()).Return(nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	c.Request.Header.Set("X-Mural-Webhook-Signature", "sig")
	c.Request.Header.Set("X-Mural-Webhook-Timestamp", "2026-09-01T00:00:00.000Z")

	h.HandleMural(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["received"])
}

func TestWebhook_BadSignature(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockWebhook := mocks.NewMockWebhookService(ctrl)
	h := NewWebhookHandler(mockWebhook, zerolog.Nop())

	body := webhookTestBody(t)
	mockWebhook.EXPECT().VerifySignature(body, "bad", "ts").Return(false)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	c.Request.Header.Set("X-Mural-Webhook-Signature", "bad")
	c.Request.Header.Set("X-Mural-Webhook-Timestamp", "ts")

	h.HandleMural(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebhook_UnsignedDeliverySkipsVerification(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockWebhook := mocks.NewMockWebhookService(ctrl)
	h := NewWebhookHandler(mockWebhook, zerolog.Nop())

	// No signature headers: test pings are processed without verification.
	mockWebhook.EXPECT().ProcessEvent(gomock.Any(), gomock.Any()).Return(nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(webhookTestBody(t)))

	h.HandleMural(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWebhook_MalformedBody(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockWebhook := mocks.NewMockWebhookService(ctrl)
	h := NewWebhookHandler(mockWebhook, zerolog.Nop())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte("not json")))

	h.HandleMural(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// --- Health Check Test ---

func TestHealthCheck(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

	HealthCheck()(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
}
