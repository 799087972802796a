package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apihttp "github.com/orderflow/order-api/internal/adapter/http"
	"github.com/orderflow/order-api/internal/adapter/memory"
	domain "github.com/orderflow/order-api/internal/entity"
	"github.com/orderflow/order-api/internal/usecase"
)

type testEnv struct {
	router *gin.Engine
	orders *memory.OrderStore
	ledger *memory.Ledger
	cache  *memory.Cache
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := &testEnv{
		orders: memory.NewOrderStore(),
		ledger: memory.NewLedger(),
		cache:  memory.NewCache(),
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	saga := usecase.NewOrderSaga(env.orders, env.ledger, memory.NewIdempotencyStore(), memory.NewPublisher(), env.cache, 0, log)
	billing := usecase.NewBilling(env.ledger, log)

	oh := apihttp.NewOrderHandler(saga, env.orders, env.cache)
	bh := apihttp.NewBillingHandler(billing)

	r := gin.New()
	v1 := r.Group("/v1")
	v1.POST("/orders", oh.CreateOrder)
	v1.GET("/orders/:id", oh.GetOrderByID)
	v1.GET("/orders/:id/status", oh.GetOrderStatus)
	v1.GET("/users/:userId/orders", oh.ListUserOrders)
	v1.POST("/billing/accounts", bh.CreateAccount)
	v1.POST("/billing/deposit", bh.Deposit)
	v1.POST("/billing/withdraw", bh.Withdraw)
	v1.GET("/billing/balance/:userId", bh.GetBalance)

	env.router = r
	return env
}

func (e *testEnv) do(t *testing.T, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) fund(t *testing.T, userID, amount string) {
	t.Helper()
	_, err := e.ledger.CreateAccount(context.Background(), userID)
	require.NoError(t, err)
	_, err = e.ledger.Credit(context.Background(), userID, decimal.RequireFromString(amount))
	require.NoError(t, err)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
	return m
}

func TestCreateOrderEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.fund(t, "u1", "100.00")

	w := env.do(t, "POST", "/v1/orders", `{"userId":"u1","email":"u1@example.com","price":"30.00"}`, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp := decode(t, w)
	assert.Equal(t, "u1", resp["userId"])
	assert.Equal(t, "completed", resp["status"])
	assert.NotEmpty(t, resp["id"])
}

func TestCreateOrderInsufficientFundsBody(t *testing.T) {
	env := newTestEnv(t)
	env.fund(t, "u1", "10.00")

	w := env.do(t, "POST", "/v1/orders", `{"userId":"u1","email":"u1@example.com","price":"15.00"}`, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	resp := decode(t, w)
	assert.Equal(t, float64(http.StatusBadRequest), resp["statusCode"])
	assert.Equal(t, "Insufficient funds", resp["message"])
	assert.Equal(t, "failed", resp["status"])
	assert.NotEmpty(t, resp["orderId"])
}

func TestCreateOrderReplayHeader(t *testing.T) {
	env := newTestEnv(t)
	env.fund(t, "u1", "100.00")
	hdr := map[string]string{"X-Idempotency-Key": "key-1"}
	body := `{"userId":"u1","email":"u1@example.com","price":"30.00"}`

	first := env.do(t, "POST", "/v1/orders", body, hdr)
	require.Equal(t, http.StatusCreated, first.Code)
	assert.Empty(t, first.Header().Get("X-Idempotent-Replay"))

	second := env.do(t, "POST", "/v1/orders", body, hdr)
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get("X-Idempotent-Replay"))
	assert.Equal(t, decode(t, first)["id"], decode(t, second)["id"])

	// only one debit across both requests
	bal, err := env.ledger.Balance(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, bal.Equal(decimal.RequireFromString("70.00")), "balance %s", bal)
}

func TestCreateOrderValidation(t *testing.T) {
	env := newTestEnv(t)

	for name, body := range map[string]string{
		"missing user":  `{"email":"u1@example.com","price":"10"}`,
		"missing email": `{"userId":"u1","price":"10"}`,
		"bad email":     `{"userId":"u1","email":"nope","price":"10"}`,
		"zero price":    `{"userId":"u1","email":"u1@example.com","price":"0"}`,
		"not json":      `{{{`,
	} {
		w := env.do(t, "POST", "/v1/orders", body, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, "case %q: %s", name, w.Body.String())
	}
}

func TestCreateOrderUnknownAccount(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, "POST", "/v1/orders", `{"userId":"ghost","email":"g@example.com","price":"10"}`, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "account_not_found", decode(t, w)["error"])
}

func TestGetOrderAndStatus(t *testing.T) {
	env := newTestEnv(t)
	env.fund(t, "u1", "100.00")

	created := decode(t, env.do(t, "POST", "/v1/orders", `{"userId":"u1","email":"u1@example.com","price":"30.00"}`, nil))
	id := created["id"].(string)

	w := env.do(t, "GET", "/v1/orders/"+id, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "completed", decode(t, w)["status"])

	w = env.do(t, "GET", "/v1/orders/"+id+"/status", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, "completed", resp["status"])
	assert.Equal(t, true, resp["cached"])

	w = env.do(t, "GET", "/v1/orders/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListUserOrdersNewestFirst(t *testing.T) {
	env := newTestEnv(t)
	env.fund(t, "u1", "100.00")

	first := decode(t, env.do(t, "POST", "/v1/orders", `{"userId":"u1","email":"u1@example.com","price":"10.00"}`, nil))
	second := decode(t, env.do(t, "POST", "/v1/orders", `{"userId":"u1","email":"u1@example.com","price":"20.00"}`, nil))

	w := env.do(t, "GET", "/v1/users/u1/orders", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, second["id"], list[0]["id"])
	assert.Equal(t, first["id"], list[1]["id"])
}

// faultyOrders fails reads, standing in for a database outage.
type faultyOrders struct {
	usecase.OrderRepo
	err error
}

func (f *faultyOrders) GetByID(context.Context, string) (*domain.Order, error) {
	return nil, f.err
}

func TestGetOrderRepoFaultIsNotA404(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := &faultyOrders{OrderRepo: memory.NewOrderStore(), err: errors.New("db down")}
	saga := usecase.NewOrderSaga(repo, memory.NewLedger(), memory.NewIdempotencyStore(), memory.NewPublisher(), nil, 0, log)
	oh := apihttp.NewOrderHandler(saga, repo, memory.NewCache())

	r := gin.New()
	r.GET("/v1/orders/:id", oh.GetOrderByID)
	r.GET("/v1/orders/:id/status", oh.GetOrderStatus)

	for _, path := range []string{"/v1/orders/o1", "/v1/orders/o1/status"} {
		req := httptest.NewRequest("GET", path, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusInternalServerError, w.Code, path)

		var m map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
		assert.Equal(t, "internal_error", m["error"], path)
	}
}

func TestBillingEndpoints(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, "POST", "/v1/billing/accounts", `{"userId":"u1"}`, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, "POST", "/v1/billing/accounts", `{"userId":"u1"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "account_exists", decode(t, w)["error"])

	w = env.do(t, "POST", "/v1/billing/deposit", `{"userId":"u1","amount":"50.00"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, "POST", "/v1/billing/withdraw", `{"userId":"u1","amount":"80.00"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, "insufficient_funds", resp["message"])

	w = env.do(t, "GET", "/v1/billing/balance/u1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "50", decode(t, w)["balance"])

	w = env.do(t, "GET", "/v1/billing/balance/ghost", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
