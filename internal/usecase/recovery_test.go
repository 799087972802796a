package usecase_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderflow/order-api/internal/adapter/memory"
	domain "github.com/orderflow/order-api/internal/entity"
	"github.com/orderflow/order-api/internal/usecase"
)

func stalePendingOrder(orders *memory.OrderStore, userID, price string, age time.Duration) *domain.Order {
	o := domain.NewOrder(userID, userID+"@example.com", decimal.RequireFromString(price))
	o.CreatedAt = time.Now().UTC().Add(-age)
	orders.Put(o)
	return o
}

func TestSweepCompletesDebitedOrder(t *testing.T) {
	orders := memory.NewOrderStore()
	ledger := memory.NewLedger()
	pub := memory.NewPublisher()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	_, err := ledger.CreateAccount(ctx, "u1")
	require.NoError(t, err)
	_, err = ledger.Credit(ctx, "u1", decimal.RequireFromString("100.00"))
	require.NoError(t, err)

	// crash after the debit applied: the order is still pending but the
	// ledger entry proves the charge landed
	o := stalePendingOrder(orders, "u1", "30.00", time.Hour)
	res, err := ledger.Debit(ctx, "u1", o.Price, o.ID)
	require.NoError(t, err)
	require.True(t, res.Succeeded)

	sweeper := usecase.NewRecoverySweeper(orders, ledger, pub, 5*time.Minute, log)
	n, err := sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := orders.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, got.Status)

	events := pub.Events()
	require.Len(t, events, 1)
	ev, ok := events[0].(domain.OrderCompleted)
	require.True(t, ok)
	assert.Equal(t, o.ID, ev.OrderID)
}

func TestSweepFailsUndebitedOrder(t *testing.T) {
	orders := memory.NewOrderStore()
	ledger := memory.NewLedger()
	pub := memory.NewPublisher()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	o := stalePendingOrder(orders, "u1", "30.00", time.Hour)

	sweeper := usecase.NewRecoverySweeper(orders, ledger, pub, 5*time.Minute, log)
	n, err := sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := orders.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, got.Status)

	events := pub.Events()
	require.Len(t, events, 1)
	ev, ok := events[0].(domain.OrderFailed)
	require.True(t, ok)
	assert.Equal(t, domain.ReasonAbandoned, ev.Reason)
}

func TestSweepSkipsFreshPending(t *testing.T) {
	orders := memory.NewOrderStore()
	ledger := memory.NewLedger()
	pub := memory.NewPublisher()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	o := stalePendingOrder(orders, "u1", "30.00", time.Second)

	sweeper := usecase.NewRecoverySweeper(orders, ledger, pub, 5*time.Minute, log)
	n, err := sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	got, err := orders.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, got.Status)
	assert.Empty(t, pub.Events())
}

func TestSweepSkipsOrdersAlreadyFinalized(t *testing.T) {
	orders := memory.NewOrderStore()
	ledger := memory.NewLedger()
	pub := memory.NewPublisher()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	o := stalePendingOrder(orders, "u1", "30.00", time.Hour)
	done := stalePendingOrder(orders, "u1", "10.00", time.Hour)
	done.Status = domain.StatusCompleted
	orders.Put(done)

	sweeper := usecase.NewRecoverySweeper(orders, ledger, pub, 5*time.Minute, log)
	n, err := sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := orders.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.True(t, got.Terminal())
	got, err = orders.GetByID(ctx, done.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, got.Status)
}
