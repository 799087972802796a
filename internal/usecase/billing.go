package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	domain "github.com/orderflow/order-api/internal/entity"
)

// Billing exposes the ledger operations the billing endpoints need. Account
// mutation stays exclusively behind the BalanceLedger port.
type Billing struct {
	ledger BalanceLedger
	log    *slog.Logger
}

func NewBilling(ledger BalanceLedger, log *slog.Logger) *Billing {
	return &Billing{ledger: ledger, log: log}
}

func (b *Billing) CreateAccount(ctx context.Context, userID string) (*domain.Account, error) {
	if userID == "" {
		return nil, domain.ErrInvalidUser
	}
	acc, err := b.ledger.CreateAccount(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("create account for %s: %w", userID, err)
	}
	b.log.Info("account created", "user_id", userID, "account_id", acc.ID)
	return acc, nil
}

func (b *Billing) Deposit(ctx context.Context, userID string, amount decimal.Decimal) (*domain.Account, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidPrice
	}
	acc, err := b.ledger.Credit(ctx, userID, amount)
	if err != nil {
		return nil, fmt.Errorf("deposit for %s: %w", userID, err)
	}
	return acc, nil
}

// Withdraw debits outside of any order, e.g. for manual adjustments.
// Insufficient funds is a result, not an error.
func (b *Billing) Withdraw(ctx context.Context, userID string, amount decimal.Decimal) (DebitResult, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return DebitResult{}, domain.ErrInvalidPrice
	}
	res, err := b.ledger.Debit(ctx, userID, amount, "")
	if err != nil {
		return DebitResult{}, fmt.Errorf("withdraw for %s: %w", userID, err)
	}
	return res, nil
}

func (b *Billing) Balance(ctx context.Context, userID string) (decimal.Decimal, error) {
	bal, err := b.ledger.Balance(ctx, userID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("balance for %s: %w", userID, err)
	}
	return bal, nil
}
