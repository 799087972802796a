package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	domain "github.com/orderflow/order-api/internal/entity"
)

var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrAccountNotFound  = errors.New("account not found")
	ErrDuplicateAccount = errors.New("account already exists for this user")
	ErrDuplicateKey     = errors.New("idempotency key already recorded")
)

type OrderRepo interface {
	Create(ctx context.Context, o *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	// ListByUser returns the user's orders newest-first.
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	// UpdateStatusIf moves the order from one status to another atomically and
	// reports whether the transition applied. A false result means the order
	// was not in the expected status (or does not exist).
	UpdateStatusIf(ctx context.Context, id string, from, to domain.Status) (bool, error)
	// ListStalePending returns pending orders created before the cutoff, for
	// the recovery sweep.
	ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]domain.Order, error)
}

// DebitResult is the outcome of a debit attempt. Insufficient funds is an
// expected business result, not an error.
type DebitResult struct {
	Succeeded bool
	Reason    string
}

type BalanceLedger interface {
	// CreateAccount fails with ErrDuplicateAccount if the user already has one.
	CreateAccount(ctx context.Context, userID string) (*domain.Account, error)
	// Debit checks balance sufficiency and decrements in one atomic step.
	// orderID ties the resulting ledger entry to the order being charged; it
	// may be empty for standalone withdrawals.
	Debit(ctx context.Context, userID string, amount decimal.Decimal, orderID string) (DebitResult, error)
	Credit(ctx context.Context, userID string, amount decimal.Decimal) (*domain.Account, error)
	Balance(ctx context.Context, userID string) (decimal.Decimal, error)
	// HasDebitFor reports whether a debit entry exists for the order.
	HasDebitFor(ctx context.Context, orderID string) (bool, error)
}

type IdempotencyStore interface {
	// Lookup returns nil for an absent or expired key. Implementations may
	// purge the expired row while they are at it.
	Lookup(ctx context.Context, key string) (*domain.IdempotencyRecord, error)
	// Record fails with ErrDuplicateKey if a non-expired record already holds
	// the key. The saga never overwrites a live record.
	Record(ctx context.Context, rec *domain.IdempotencyRecord) error
	PurgeExpired(ctx context.Context) (int64, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, ev domain.Event) error
}

type OrderCache interface {
	SetStatus(ctx context.Context, orderID, status string) error
	GetStatus(ctx context.Context, orderID string) (string, bool, error)
}
