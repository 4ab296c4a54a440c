package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httpHandler "crypto-checkout/internal/adapter/http/handler"
	redisStorage "crypto-checkout/internal/adapter/storage/redis"
	"crypto-checkout/internal/core/domain"
	"crypto-checkout/internal/core/ports"
	"crypto-checkout/internal/service"
	"crypto-checkout/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testApp builds a full application stack: real HTTP layer, middleware,
// handlers, and services over in-memory repos, a fake Mural client, and
// miniredis-backed event dedup.

type testApp struct {
	server     *httptest.Server
	redis      *miniredis.Miniredis
	partner    *fakePartnerClient
	walletRepo *inMemoryWalletRepo
	orderRepo  *inMemoryOrderRepo
	payoutRepo *inMemoryPayoutRepo
	poolSvc    *service.WalletPoolServiceImpl
	orderSvc   *service.OrderServiceImpl
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	eventDedup := redisStorage.NewEventDedupStore(rdb)

	productRepo := newInMemoryProductRepo()
	cartRepo := newInMemoryCartRepo(productRepo)
	orderRepo := newInMemoryOrderRepo()
	walletRepo := newInMemoryWalletRepo()
	payoutRepo := newInMemoryPayoutRepo()
	transactor := newInMemoryTransactor()
	partner := newFakePartnerClient()

	log := logger.New("debug", false)

	poolSvc := service.NewWalletPoolService(walletRepo, partner, transactor, "checkout-test", log)
	productSvc := service.NewProductService(productRepo, log)
	cartSvc := service.NewCartService(cartRepo, productRepo, log)
	orderSvc := service.NewOrderService(orderRepo, cartRepo, walletRepo, poolSvc, transactor, 30*time.Minute, "USDC", log)
	payoutSvc := service.NewPayoutService(payoutRepo, partner, log)
	reconSvc := service.NewReconciliationService(orderRepo, walletRepo, payoutSvc, transactor, log)
	webhookSvc, err := service.NewWebhookService(reconSvc, payoutSvc, eventDedup, "", "USDC", log)
	require.NoError(t, err)

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		ProductSvc: productSvc,
		CartSvc:    cartSvc,
		OrderSvc:   orderSvc,
		PayoutSvc:  payoutSvc,
		WebhookSvc: webhookSvc,
		Logger:     log,
	})

	server := httptest.NewServer(router)

	return &testApp{
		server:     server,
		redis:      mr,
		partner:    partner,
		walletRepo: walletRepo,
		orderRepo:  orderRepo,
		payoutRepo: payoutRepo,
		poolSvc:    poolSvc,
		orderSvc:   orderSvc,
	}
}

func (a *testApp) close() {
	a.server.Close()
	a.redis.Close()
}

func (a *testApp) postJSON(t *testing.T, path, body string) map[string]interface{} {
	t.Helper()
	resp, err := http.Post(a.server.URL+path, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Less(t, resp.StatusCode, 300, "POST %s", path)

	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (a *testApp) getJSON(t *testing.T, path string) (int, map[string]interface{}) {
	t.Helper()
	resp, err := http.Get(a.server.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

// deliverCredit posts an unsigned account_credited webhook.
func (a *testApp) deliverCredit(t *testing.T, eventID, accountID, amount, txHash string) {
	t.Helper()
	payload, err := json.Marshal(ports.AccountCreditedPayload{
		Type:          "account_credited",
		AccountID:     accountID,
		TransactionID: "tx-" + eventID,
		TokenAmount: ports.EventTokenAmount{
			Blockchain:  "POLYGON",
			TokenAmount: decimal.RequireFromString(amount),
			TokenSymbol: "USDC",
		},
		TransactionDetails: ports.EventTransactionDetails{
			Blockchain:      "POLYGON",
			TransactionHash: txHash,
		},
	})
	require.NoError(t, err)
	a.deliverEvent(t, eventID, "account", payload)
}

// deliverPayoutStatus posts an unsigned payout_status_changed webhook.
func (a *testApp) deliverPayoutStatus(t *testing.T, eventID, requestID, payoutID, status string) {
	t.Helper()
	payload, err := json.Marshal(ports.PayoutStatusChangedPayload{
		Type:            "payout_status_changed",
		PayoutRequestID: requestID,
		PayoutID:        payoutID,
		StatusChangeDetails: ports.EventStatusChangeDetails{
			Type:          "payout_status_changed",
			CurrentStatus: ports.EventStatusValue{Type: status},
		},
	})
	require.NoError(t, err)
	a.deliverEvent(t, eventID, "payout", payload)
}

func (a *testApp) deliverEvent(t *testing.T, eventID, category string, payload []byte) {
	t.Helper()
	body, err := json.Marshal(ports.WebhookEvent{
		EventID:       eventID,
		DeliveryID:    "del-" + eventID,
		AttemptNumber: 1,
		EventCategory: category,
		OccurredAt:    time.Now().UTC().Format(time.RFC3339),
		Payload:       payload,
	})
	require.NoError(t, err)

	resp, err := http.Post(a.server.URL+"/api/webhooks/mural", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

// seedCheckout creates two products, fills a cart, and returns the cart id.
// Cart total: 2 x 10.00 + 1 x 5.00 = 25.00.
func (a *testApp) seedCheckout(t *testing.T) string {
	t.Helper()
	widget := a.postJSON(t, "/api/products", `{"name":"Widget","price":"10.00"}`)
	gadget := a.postJSON(t, "/api/products", `{"name":"Gadget","price":"5.00"}`)
	widgetID := widget["data"].(map[string]interface{})["id"].(string)
	gadgetID := gadget["data"].(map[string]interface{})["id"].(string)

	cart := a.postJSON(t, "/api/carts", `{}`)
	cartID := cart["data"].(map[string]interface{})["id"].(string)

	a.postJSON(t, "/api/carts/"+cartID+"/items", fmt.Sprintf(`{"product_id":%q,"quantity":2}`, widgetID))
	a.postJSON(t, "/api/carts/"+cartID+"/items", fmt.Sprintf(`{"product_id":%q,"quantity":1}`, gadgetID))
	return cartID
}

// --- Integration Tests ---

func TestIntegration_CheckoutToPayoutFlow(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	cartID := app.seedCheckout(t)

	// Checkout: the fake partner activates accounts immediately, so the
	// order starts AWAITING_PAYMENT with a deposit address.
	created := app.postJSON(t, "/api/orders", fmt.Sprintf(`{"cart_id":%q}`, cartID))
	order := created["data"].(map[string]interface{})
	orderID := order["id"].(string)
	accountID := walletAccountFor(t, app, orderID)
	assert.Equal(t, "AWAITING_PAYMENT", order["status"])
	assert.Equal(t, "25.00", order["total"])
	assert.NotEmpty(t, order["address"])

	// Underpayment is observed but settles nothing.
	app.deliverCredit(t, "evt-under", accountID, "20.00", "0xunder")
	code, body := app.getJSON(t, "/api/orders/"+orderID)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "AWAITING_PAYMENT", body["data"].(map[string]interface{})["status"])

	// Exact payment settles the order.
	app.deliverCredit(t, "evt-paid", accountID, "25.00", "0xdeadbeef")
	code, body = app.getJSON(t, "/api/orders/"+orderID)
	require.Equal(t, http.StatusOK, code)
	paid := body["data"].(map[string]interface{})
	assert.Equal(t, "PAID", paid["status"])
	assert.Equal(t, "0xdeadbeef", paid["tx_hash"])

	// The wallet went back to the pool.
	wallet, err := app.walletRepo.GetByAccountID(context.Background(), accountID)
	require.NoError(t, err)
	require.NotNil(t, wallet)
	assert.Equal(t, domain.WalletStatusAvailable, wallet.Status)
	assert.Nil(t, wallet.AssignedOrderID)

	// Payout initiation fires after the payment commit.
	var requestID, payoutID string
	require.Eventually(t, func() bool {
		code, body := app.getJSON(t, "/api/orders/"+orderID+"/payout")
		if code != http.StatusOK {
			return false
		}
		data := body["data"].(map[string]interface{})
		requestID = data["payout_request_id"].(string)
		payoutID, _ = data["payout_id"].(string)
		return data["status"] == "INITIATED"
	}, 2*time.Second, 10*time.Millisecond)
	require.NotEmpty(t, requestID)
	require.NotEmpty(t, payoutID)

	// Partner confirms completion via webhook.
	app.deliverPayoutStatus(t, "evt-payout-done", requestID, payoutID, "completed")
	code, body = app.getJSON(t, "/api/orders/"+orderID+"/payout")
	require.Equal(t, http.StatusOK, code)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "COMPLETED", data["status"])
	assert.NotEmpty(t, data["amount_target"])
	assert.NotEmpty(t, data["rate"])
}

func TestIntegration_DuplicateCreditSettlesOnce(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	cartID := app.seedCheckout(t)
	created := app.postJSON(t, "/api/orders", fmt.Sprintf(`{"cart_id":%q}`, cartID))
	orderID := created["data"].(map[string]interface{})["id"].(string)
	accountID := walletAccountFor(t, app, orderID)

	// Same event id delivered twice: dedup drops the replay.
	app.deliverCredit(t, "evt-dup", accountID, "25.00", "0xaaa")
	app.deliverCredit(t, "evt-dup", accountID, "25.00", "0xaaa")

	code, body := app.getJSON(t, "/api/orders/"+orderID)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "PAID", body["data"].(map[string]interface{})["status"])

	// Distinct event for an already-settled order matches nothing.
	app.deliverCredit(t, "evt-late", accountID, "25.00", "0xbbb")
	code, body = app.getJSON(t, "/api/orders/"+orderID)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "0xaaa", body["data"].(map[string]interface{})["tx_hash"])
}

func TestIntegration_OrderExpiryReleasesWallet(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	cartID := app.seedCheckout(t)
	created := app.postJSON(t, "/api/orders", fmt.Sprintf(`{"cart_id":%q}`, cartID))
	orderID := created["data"].(map[string]interface{})["id"].(string)
	accountID := walletAccountFor(t, app, orderID)

	// Push the deadline into the past and run a sweep.
	id := uuid.MustParse(orderID)
	app.orderRepo.mu.Lock()
	app.orderRepo.orders[id].ExpiresAt = time.Now().Add(-time.Minute)
	app.orderRepo.mu.Unlock()

	expired, err := app.orderSvc.ExpireDueOrders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	code, body := app.getJSON(t, "/api/orders/"+orderID)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "EXPIRED", body["data"].(map[string]interface{})["status"])

	wallet, err := app.walletRepo.GetByAccountID(context.Background(), accountID)
	require.NoError(t, err)
	require.NotNil(t, wallet)
	assert.Equal(t, domain.WalletStatusAvailable, wallet.Status)

	// Credits after expiry match nothing.
	app.deliverCredit(t, "evt-too-late", accountID, "25.00", "0xlate")
	code, body = app.getJSON(t, "/api/orders/"+orderID)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "EXPIRED", body["data"].(map[string]interface{})["status"])
}

func TestIntegration_ExpirySweepLeavesSettledOrderAlone(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	cartID := app.seedCheckout(t)
	created := app.postJSON(t, "/api/orders", fmt.Sprintf(`{"cart_id":%q}`, cartID))
	orderID := created["data"].(map[string]interface{})["id"].(string)
	accountID := walletAccountFor(t, app, orderID)

	// The order settles, its wallet goes back to the pool and a second
	// checkout claims it.
	app.deliverCredit(t, "evt-settle", accountID, "25.00", "0xaaa")
	secondCart := app.seedCheckout(t)
	secondCreated := app.postJSON(t, "/api/orders", fmt.Sprintf(`{"cart_id":%q}`, secondCart))
	secondID := secondCreated["data"].(map[string]interface{})["id"].(string)
	secondAccount := walletAccountFor(t, app, secondID)

	// A stale deadline on the settled order must not let the sweep claw the
	// wallet away from the live order.
	id := uuid.MustParse(orderID)
	app.orderRepo.mu.Lock()
	app.orderRepo.orders[id].ExpiresAt = time.Now().Add(-time.Minute)
	app.orderRepo.mu.Unlock()

	transitioned, err := app.orderRepo.MarkExpired(context.Background(), &noopTx{}, id)
	require.NoError(t, err)
	assert.False(t, transitioned)

	// A late promotion attempt against a settled order is a no-op too.
	require.NoError(t, app.orderRepo.PromoteToAwaitingPayment(context.Background(), id, "0xother", "POLYGON"))

	expired, err := app.orderSvc.ExpireDueOrders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, expired)

	code, body := app.getJSON(t, "/api/orders/"+orderID)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "PAID", body["data"].(map[string]interface{})["status"])

	wallet, err := app.walletRepo.GetByAccountID(context.Background(), secondAccount)
	require.NoError(t, err)
	require.NotNil(t, wallet)
	assert.Equal(t, domain.WalletStatusAssigned, wallet.Status)
	require.NotNil(t, wallet.AssignedOrderID)
	assert.Equal(t, secondID, wallet.AssignedOrderID.String())
}

func TestIntegration_SlowWalletProvisioning(t *testing.T) {
	app := newTestApp(t)
	defer app.close()
	app.partner.activateLater = true

	cartID := app.seedCheckout(t)

	// The partner account has no address yet: the order waits in
	// CREATING_WALLET.
	created := app.postJSON(t, "/api/orders", fmt.Sprintf(`{"cart_id":%q}`, cartID))
	order := created["data"].(map[string]interface{})
	orderID := order["id"].(string)
	accountID := walletAccountFor(t, app, orderID)
	assert.Equal(t, "CREATING_WALLET", order["status"])
	_, hasAddress := order["address"]
	assert.False(t, hasAddress)

	// Partner finishes provisioning; the next read promotes the order.
	app.partner.activate(accountID)
	code, body := app.getJSON(t, "/api/orders/"+orderID)
	require.Equal(t, http.StatusOK, code)
	promoted := body["data"].(map[string]interface{})
	assert.Equal(t, "AWAITING_PAYMENT", promoted["status"])
	assert.Equal(t, "0x"+accountID, promoted["address"])
}

func TestIntegration_HealthCheck(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	resp, err := http.Get(app.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
}

// walletAccountFor returns the partner account id of the wallet assigned to
// the order.
func walletAccountFor(t *testing.T, app *testApp, orderID string) string {
	t.Helper()
	order, err := app.orderRepo.GetByID(context.Background(), uuid.MustParse(orderID))
	require.NoError(t, err)
	require.NotNil(t, order)
	require.NotNil(t, order.ExternalAccountID)
	return *order.ExternalAccountID
}
