// Package memory holds in-process implementations of the usecase ports.
// They back the test suite and keep the concurrency semantics of the real
// adapters: conditional debits, write-once idempotency keys, CAS status
// transitions.
package memory

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	domain "github.com/orderflow/order-api/internal/entity"
	"github.com/orderflow/order-api/internal/usecase"
)

type Ledger struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account
	entries  []domain.LedgerEntry
}

func NewLedger() *Ledger {
	return &Ledger{accounts: make(map[string]*domain.Account)}
}

func (l *Ledger) CreateAccount(_ context.Context, userID string) (*domain.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.accounts[userID]; ok {
		return nil, usecase.ErrDuplicateAccount
	}
	acc := domain.NewAccount(userID)
	l.accounts[userID] = acc
	cp := *acc
	return &cp, nil
}

// Debit checks and decrements under one lock acquisition, which is the
// in-memory equivalent of the conditional UPDATE.
func (l *Ledger) Debit(_ context.Context, userID string, amount decimal.Decimal, orderID string) (usecase.DebitResult, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return usecase.DebitResult{}, domain.ErrInvalidPrice
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	acc, ok := l.accounts[userID]
	if !ok {
		return usecase.DebitResult{}, usecase.ErrAccountNotFound
	}
	if acc.Balance.LessThan(amount) {
		return usecase.DebitResult{Succeeded: false, Reason: domain.ReasonInsufficientFunds}, nil
	}

	acc.Balance = acc.Balance.Sub(amount)
	l.entries = append(l.entries, *domain.NewLedgerEntry(userID, orderID, amount, domain.EntryDebit))
	return usecase.DebitResult{Succeeded: true}, nil
}

func (l *Ledger) Credit(_ context.Context, userID string, amount decimal.Decimal) (*domain.Account, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidPrice
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	acc, ok := l.accounts[userID]
	if !ok {
		return nil, usecase.ErrAccountNotFound
	}
	acc.Balance = acc.Balance.Add(amount)
	l.entries = append(l.entries, *domain.NewLedgerEntry(userID, "", amount, domain.EntryCredit))
	cp := *acc
	return &cp, nil
}

func (l *Ledger) Balance(_ context.Context, userID string) (decimal.Decimal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	acc, ok := l.accounts[userID]
	if !ok {
		return decimal.Zero, usecase.ErrAccountNotFound
	}
	return acc.Balance, nil
}

func (l *Ledger) HasDebitFor(_ context.Context, orderID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.entries {
		if l.entries[i].OrderID == orderID && l.entries[i].Direction == domain.EntryDebit {
			return true, nil
		}
	}
	return false, nil
}

// DebitCount reports how many debit entries exist for the order. Test hook.
func (l *Ledger) DebitCount(orderIDs ...string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	ids := make(map[string]bool, len(orderIDs))
	for _, id := range orderIDs {
		ids[id] = true
	}
	n := 0
	for i := range l.entries {
		if l.entries[i].Direction != domain.EntryDebit {
			continue
		}
		if len(ids) == 0 || ids[l.entries[i].OrderID] {
			n++
		}
	}
	return n
}

var _ usecase.BalanceLedger = (*Ledger)(nil)
