package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account holds a user's balance. Balance never goes negative: every debit is
// a single conditional decrement, never a read-then-write.
type Account struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func NewAccount(userID string) *Account {
	now := time.Now().UTC()
	return &Account{
		ID:        uuid.NewString(),
		UserID:    userID,
		Balance:   decimal.Zero,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

type EntryDirection string

const (
	EntryDebit  EntryDirection = "debit"
	EntryCredit EntryDirection = "credit"
)

// LedgerEntry records a single balance mutation. Entries written for a debit
// carry the order id that caused them, which is what the recovery sweep uses
// to tell a crashed-after-debit order from one that never charged.
type LedgerEntry struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	OrderID   string          `json:"orderId,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
	Direction EntryDirection  `json:"direction"`
	CreatedAt time.Time       `json:"createdAt"`
}

func NewLedgerEntry(userID, orderID string, amount decimal.Decimal, dir EntryDirection) *LedgerEntry {
	return &LedgerEntry{
		ID:        uuid.NewString(),
		UserID:    userID,
		OrderID:   orderID,
		Amount:    amount,
		Direction: dir,
		CreatedAt: time.Now().UTC(),
	}
}
