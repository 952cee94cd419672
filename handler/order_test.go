package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"shop_backend/handler"
	"shop_backend/model"
	"shop_backend/notify"
	"shop_backend/payment"
	"shop_backend/router"
	"shop_backend/store"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGateway struct {
	mu      sync.Mutex
	result  *payment.ChargeResult
	err     error
	calls   int
	lastReq payment.ChargeRequest
}

func (g *stubGateway) Charge(_ context.Context, req payment.ChargeRequest) (*payment.ChargeResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	g.lastReq = req
	if g.err != nil {
		return nil, g.err
	}
	return g.result, nil
}

type recordingSender struct {
	mu            sync.Mutex
	confirmations []model.Order
	statusChanges []model.Order
	alerts        []string
}

func (s *recordingSender) SendOrderConfirmation(order model.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.confirmations = append(s.confirmations, order)
	return nil
}

func (s *recordingSender) SendStatusChange(order model.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statusChanges = append(s.statusChanges, order)
	return nil
}

func (s *recordingSender) SendOpsAlert(subject, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, subject)
	return nil
}

func (s *recordingSender) confirmationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.confirmations)
}

func (s *recordingSender) statusChangeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.statusChanges)
}

func (s *recordingSender) alertCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.alerts)
}

type testEnv struct {
	app     *fiber.App
	orders  *store.MemoryOrderStore
	charges *store.MemoryChargeLog
	gateway *stubGateway
	sender  *recordingSender
}

func setup(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		orders:  store.NewMemoryOrderStore(),
		charges: store.NewMemoryChargeLog(),
		gateway: &stubGateway{result: &payment.ChargeResult{
			TransactionID:    "txn_1",
			ProcessorOrderID: "po_9",
			Status:           "completed",
		}},
		sender: &recordingSender{},
	}

	dispatcher := notify.NewDispatcher(env.sender, env.orders)
	dispatcher.Start()
	t.Cleanup(dispatcher.Stop)

	handler.Orders = env.orders
	handler.Charges = env.charges
	handler.Gateway = env.gateway
	handler.Dispatcher = dispatcher

	env.app = fiber.New()
	router.SetupRoutes(env.app)
	return env
}

func checkoutBody(mutate func(map[string]any)) []byte {
	body := map[string]any{
		"customerInfo": map[string]any{
			"firstName": "Jane",
			"lastName":  "Doe",
			"email":     "jane@example.com",
			"phone":     "555-0100",
			"address":   "1 Main St",
			"city":      "Springfield",
			"state":     "IL",
			"zip":       "62701",
		},
		"items": []map[string]any{
			{"name": "Widget", "price": 9.99, "quantity": 2},
		},
		"paymentToken": "tok_visa",
		"total":        19.98,
	}
	if mutate != nil {
		mutate(body)
	}
	payload, _ := json.Marshal(body)
	return payload
}

func doJSON(t *testing.T, app *fiber.App, method, target string, body []byte) (*http.Response, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	resp.Body.Close()
	return resp, decoded
}

func TestCheckoutSuccess(t *testing.T) {
	env := setup(t)

	resp, body := doJSON(t, env.app, http.MethodPost, "/api/orders", checkoutBody(nil))

	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "txn_1", body["paymentId"])

	orderNumber, _ := body["orderNumber"].(string)
	require.True(t, strings.HasPrefix(orderNumber, "ORD-"))

	// The gateway saw minor units and a fresh idempotency key.
	env.gateway.mu.Lock()
	assert.Equal(t, int64(1998), env.gateway.lastReq.Amount)
	assert.Equal(t, "USD", env.gateway.lastReq.Currency)
	assert.Equal(t, "tok_visa", env.gateway.lastReq.Token)
	assert.NotEmpty(t, env.gateway.lastReq.IdempotencyKey)
	env.gateway.mu.Unlock()

	stored, err := env.orders.GetByNumber(orderNumber)
	require.NoError(t, err)
	assert.Equal(t, model.OrderPaid, stored.OrderStatus)
	assert.Equal(t, model.PaymentPaid, stored.PaymentInfo.PaymentStatus)
	assert.Equal(t, 19.98, stored.PaymentInfo.Amount)
	assert.Equal(t, "txn_1", stored.PaymentInfo.TransactionID)
	assert.Equal(t, "US", stored.Customer.Country)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, "Widget", stored.Items[0].Name)

	// The journal entry is closed once the order row exists.
	recs, err := env.charges.Unrecorded(0)
	require.NoError(t, err)
	assert.Empty(t, recs)

	// Confirmation mail goes out off the request path.
	require.Eventually(t, func() bool {
		return env.sender.confirmationCount() == 1
	}, 2*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		got, err := env.orders.GetByNumber(orderNumber)
		return err == nil && got.EmailSent
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCheckoutDecline(t *testing.T) {
	env := setup(t)
	env.gateway.err = &payment.ChargeError{
		Reason:  "insufficient_funds",
		Details: []string{"card_declined"},
	}

	resp, body := doJSON(t, env.app, http.MethodPost, "/api/orders", checkoutBody(nil))

	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "insufficient_funds", body["error"])

	// A declined charge never produces an order.
	page, err := env.orders.List(store.ListFilter{}, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, page.Total)

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, env.sender.confirmationCount())
}

func TestCheckoutGatewayFailure(t *testing.T) {
	env := setup(t)
	env.gateway.err = errors.New("connection reset")

	resp, body := doJSON(t, env.app, http.MethodPost, "/api/orders", checkoutBody(nil))

	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "payment could not be processed", body["error"])

	page, err := env.orders.List(store.ListFilter{}, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, page.Total)
}

func TestCheckoutValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]any)
	}{
		{"missing payment token", func(m map[string]any) { delete(m, "paymentToken") }},
		{"empty items", func(m map[string]any) { m["items"] = []map[string]any{} }},
		{"zero total", func(m map[string]any) { m["total"] = 0 }},
		{"missing email", func(m map[string]any) {
			m["customerInfo"].(map[string]any)["email"] = ""
		}},
		{"bad email", func(m map[string]any) {
			m["customerInfo"].(map[string]any)["email"] = "not-an-email"
		}},
		{"zero quantity", func(m map[string]any) {
			m["items"] = []map[string]any{{"name": "Widget", "price": 9.99, "quantity": 0}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setup(t)

			resp, body := doJSON(t, env.app, http.MethodPost, "/api/orders", checkoutBody(tt.mutate))

			require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, false, body["success"])
			// Bad input is rejected before any charge attempt.
			assert.Zero(t, env.gateway.calls)
		})
	}
}

func TestCheckoutLegacyAlias(t *testing.T) {
	env := setup(t)

	resp, body := doJSON(t, env.app, http.MethodPost, "/api/process-payment", checkoutBody(nil))

	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, true, body["success"])
}

type failingOrderStore struct {
	*store.MemoryOrderStore
}

func (failingOrderStore) Create(*model.Order) error {
	return errors.New("insert failed")
}

func TestCheckoutChargedButNotRecorded(t *testing.T) {
	env := setup(t)
	handler.Orders = failingOrderStore{env.orders}

	resp, body := doJSON(t, env.app, http.MethodPost, "/api/orders", checkoutBody(nil))

	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, false, body["success"])
	// The caller gets the transaction id so support can trace the money.
	assert.Equal(t, "txn_1", body["paymentId"])

	// The journal keeps the orphaned charge for the reconciliation sweep.
	recs, err := env.charges.Unrecorded(0)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "txn_1", recs[0].TransactionID)
	assert.False(t, recs[0].Recorded)

	// Ops hears about it immediately.
	require.Eventually(t, func() bool {
		return env.sender.alertCount() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestListOrdersPagination(t *testing.T) {
	env := setup(t)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 25; i++ {
		order := model.Order{
			OrderNumber: fmt.Sprintf("ORD-20250101-%06d", i),
			Customer:    model.CustomerInfo{Email: "jane@example.com"},
			OrderStatus: model.OrderPaid,
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, env.orders.Create(&order))
	}

	resp, body := doJSON(t, env.app, http.MethodGet, "/api/orders?page=2&limit=10", nil)

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(25), body["total"])
	assert.Equal(t, float64(3), body["totalPages"])
	assert.Equal(t, float64(2), body["currentPage"])

	orders := body["orders"].([]any)
	require.Len(t, orders, 10)
	first := orders[0].(map[string]any)
	assert.Equal(t, "ORD-20250101-000014", first["orderNumber"])
}

func TestListOrdersStatusFilter(t *testing.T) {
	env := setup(t)

	paid := model.Order{OrderNumber: "ORD-20250101-AAAAAA", OrderStatus: model.OrderPaid}
	require.NoError(t, env.orders.Create(&paid))
	shipped := model.Order{OrderNumber: "ORD-20250101-BBBBBB", OrderStatus: model.OrderShipped}
	require.NoError(t, env.orders.Create(&shipped))

	resp, body := doJSON(t, env.app, http.MethodGet, "/api/orders?status=shipped", nil)

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	orders := body["orders"].([]any)
	require.Len(t, orders, 1)
	assert.Equal(t, "ORD-20250101-BBBBBB", orders[0].(map[string]any)["orderNumber"])
}

func TestGetOrderDetail(t *testing.T) {
	env := setup(t)

	order := model.Order{
		OrderNumber: "ORD-20250101-AAAAAA",
		OrderStatus: model.OrderPaid,
		Items:       []model.OrderItem{{Name: "Widget", Price: 9.99, Quantity: 2}},
	}
	require.NoError(t, env.orders.Create(&order))

	resp, body := doJSON(t, env.app, http.MethodGet, "/api/orders/ORD-20250101-AAAAAA", nil)

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	got := body["order"].(map[string]any)
	assert.Equal(t, "ORD-20250101-AAAAAA", got["orderNumber"])
	qr, _ := body["qrCode"].(string)
	assert.True(t, strings.HasPrefix(qr, "data:image/png;base64,"))
}

func TestGetOrderDetailNotFound(t *testing.T) {
	env := setup(t)

	resp, body := doJSON(t, env.app, http.MethodGet, "/api/orders/ORD-20250101-ZZZZZZ", nil)

	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "order not found", body["error"])
}

func TestUpdateOrderStatus(t *testing.T) {
	env := setup(t)

	order := model.Order{OrderNumber: "ORD-20250101-AAAAAA", OrderStatus: model.OrderPaid}
	require.NoError(t, env.orders.Create(&order))

	payload, _ := json.Marshal(map[string]any{
		"status":         "shipped",
		"trackingNumber": "1Z999AA10123456784",
	})
	resp, body := doJSON(t, env.app, http.MethodPatch,
		"/api/orders/ORD-20250101-AAAAAA/status", payload)

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	got := body["order"].(map[string]any)
	assert.Equal(t, "shipped", got["orderStatus"])
	assert.Equal(t, "1Z999AA10123456784", got["trackingNumber"])

	require.Eventually(t, func() bool {
		return env.sender.statusChangeCount() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestUpdateOrderStatusNotFound(t *testing.T) {
	env := setup(t)

	payload, _ := json.Marshal(map[string]any{"status": "shipped"})
	resp, body := doJSON(t, env.app, http.MethodPatch,
		"/api/orders/ORD-20250101-ZZZZZZ/status", payload)

	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, false, body["success"])
}

func TestUpdateOrderStatusInvalid(t *testing.T) {
	env := setup(t)

	order := model.Order{OrderNumber: "ORD-20250101-AAAAAA", OrderStatus: model.OrderPaid}
	require.NoError(t, env.orders.Create(&order))

	payload, _ := json.Marshal(map[string]any{"status": "teleported"})
	resp, body := doJSON(t, env.app, http.MethodPatch,
		"/api/orders/ORD-20250101-AAAAAA/status", payload)

	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, false, body["success"])

	// Status untouched after the rejected update.
	got, err := env.orders.GetByNumber("ORD-20250101-AAAAAA")
	require.NoError(t, err)
	assert.Equal(t, model.OrderPaid, got.OrderStatus)
}

func TestUpdateOrderStatusTerminalLocked(t *testing.T) {
	env := setup(t)

	order := model.Order{OrderNumber: "ORD-20250101-AAAAAA", OrderStatus: model.OrderCancelled}
	require.NoError(t, env.orders.Create(&order))

	payload, _ := json.Marshal(map[string]any{"status": "processing"})
	resp, body := doJSON(t, env.app, http.MethodPatch,
		"/api/orders/ORD-20250101-AAAAAA/status", payload)

	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, false, body["success"])
	errMsg, _ := body["error"].(string)
	assert.Contains(t, errMsg, "cancelled")
}

func TestHealth(t *testing.T) {
	env := setup(t)

	resp, body := doJSON(t, env.app, http.MethodGet, "/api/health", nil)

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	// No database behind the test app.
	assert.Equal(t, "disconnected", body["database"])
	assert.NotEmpty(t, body["timestamp"])
}
