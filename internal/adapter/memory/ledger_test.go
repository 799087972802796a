package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Twenty workers race to debit 15 from a balance of 100: exactly six can fit,
// the balance lands on 10 and never crosses zero.
func TestLedgerConcurrentDebitsNeverOverdraw(t *testing.T) {
	ledger := NewLedger()
	ctx := context.Background()

	_, err := ledger.CreateAccount(ctx, "u1")
	require.NoError(t, err)
	_, err = ledger.Credit(ctx, "u1", decimal.RequireFromString("100.00"))
	require.NoError(t, err)

	const workers = 20
	amount := decimal.RequireFromString("15.00")

	var wg sync.WaitGroup
	succeeded := make(chan bool, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := ledger.Debit(ctx, "u1", amount, uuid.NewString())
			if err != nil {
				t.Error(err)
				return
			}
			succeeded <- res.Succeeded
		}()
	}
	wg.Wait()
	close(succeeded)

	wins := 0
	for ok := range succeeded {
		if ok {
			wins++
		}
	}
	assert.Equal(t, 6, wins)

	bal, err := ledger.Balance(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, bal.Equal(decimal.RequireFromString("10.00")), "balance %s", bal)
	assert.Equal(t, 6, ledger.DebitCount())
}

func TestLedgerHasDebitFor(t *testing.T) {
	ledger := NewLedger()
	ctx := context.Background()

	_, err := ledger.CreateAccount(ctx, "u1")
	require.NoError(t, err)
	_, err = ledger.Credit(ctx, "u1", decimal.RequireFromString("50.00"))
	require.NoError(t, err)

	orderID := uuid.NewString()
	res, err := ledger.Debit(ctx, "u1", decimal.RequireFromString("20.00"), orderID)
	require.NoError(t, err)
	require.True(t, res.Succeeded)

	got, err := ledger.HasDebitFor(ctx, orderID)
	require.NoError(t, err)
	assert.True(t, got)

	got, err = ledger.HasDebitFor(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.False(t, got)
}
