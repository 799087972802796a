package usecase_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderflow/order-api/internal/adapter/memory"
	domain "github.com/orderflow/order-api/internal/entity"
	"github.com/orderflow/order-api/internal/usecase"
)

func newBilling() (*usecase.Billing, *memory.Ledger) {
	ledger := memory.NewLedger()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return usecase.NewBilling(ledger, log), ledger
}

func TestBillingAccountLifecycle(t *testing.T) {
	b, _ := newBilling()
	ctx := context.Background()

	acc, err := b.CreateAccount(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, acc.Balance.IsZero())

	_, err = b.CreateAccount(ctx, "u1")
	assert.ErrorIs(t, err, usecase.ErrDuplicateAccount)

	_, err = b.CreateAccount(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidUser)
}

func TestBillingDepositAndWithdraw(t *testing.T) {
	b, _ := newBilling()
	ctx := context.Background()

	_, err := b.CreateAccount(ctx, "u1")
	require.NoError(t, err)

	acc, err := b.Deposit(ctx, "u1", decimal.RequireFromString("50.00"))
	require.NoError(t, err)
	assert.True(t, acc.Balance.Equal(decimal.RequireFromString("50.00")))

	res, err := b.Withdraw(ctx, "u1", decimal.RequireFromString("20.00"))
	require.NoError(t, err)
	assert.True(t, res.Succeeded)

	bal, err := b.Balance(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, bal.Equal(decimal.RequireFromString("30.00")))
}

func TestBillingWithdrawInsufficientIsAResult(t *testing.T) {
	b, _ := newBilling()
	ctx := context.Background()

	_, err := b.CreateAccount(ctx, "u1")
	require.NoError(t, err)
	_, err = b.Deposit(ctx, "u1", decimal.RequireFromString("10.00"))
	require.NoError(t, err)

	res, err := b.Withdraw(ctx, "u1", decimal.RequireFromString("15.00"))
	require.NoError(t, err)
	assert.False(t, res.Succeeded)
	assert.Equal(t, domain.ReasonInsufficientFunds, res.Reason)

	bal, err := b.Balance(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, bal.Equal(decimal.RequireFromString("10.00")))
}

func TestBillingRejectsNonPositiveAmounts(t *testing.T) {
	b, _ := newBilling()
	ctx := context.Background()

	_, err := b.CreateAccount(ctx, "u1")
	require.NoError(t, err)

	_, err = b.Deposit(ctx, "u1", decimal.Zero)
	assert.ErrorIs(t, err, domain.ErrInvalidPrice)
	_, err = b.Withdraw(ctx, "u1", decimal.RequireFromString("-5"))
	assert.ErrorIs(t, err, domain.ErrInvalidPrice)
}

func TestBillingUnknownAccount(t *testing.T) {
	b, _ := newBilling()
	ctx := context.Background()

	_, err := b.Deposit(ctx, "ghost", decimal.RequireFromString("5"))
	assert.ErrorIs(t, err, usecase.ErrAccountNotFound)
	_, err = b.Balance(ctx, "ghost")
	assert.ErrorIs(t, err, usecase.ErrAccountNotFound)
}
