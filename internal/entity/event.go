package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventTypeOrderCompleted = "order.completed"
	EventTypeOrderFailed    = "order.failed"
)

// ReasonInsufficientFunds is the failure reason attached to an order.failed
// event when the account balance could not cover the price.
const ReasonInsufficientFunds = "insufficient_funds"

// ReasonAbandoned marks an order the recovery sweep gave up on: it was still
// pending past the stale cutoff and no debit was ever applied for it.
const ReasonAbandoned = "abandoned"

var ErrInvalidEvent = errors.New("invalid event")

// Event is the closed set of messages the saga publishes. Exactly one event
// is emitted per terminal order transition; the routing key doubles as the
// wire-level type tag.
type Event interface {
	RoutingKey() string
	Validate() error
}

type OrderCompleted struct {
	Type      string          `json:"type"`
	OrderID   string          `json:"orderId"`
	UserID    string          `json:"userId"`
	Email     string          `json:"email"`
	Amount    decimal.Decimal `json:"amount"`
	Timestamp time.Time       `json:"timestamp"`
}

func NewOrderCompleted(o *Order) OrderCompleted {
	return OrderCompleted{
		Type:      EventTypeOrderCompleted,
		OrderID:   o.ID,
		UserID:    o.UserID,
		Email:     o.Email,
		Amount:    o.Price,
		Timestamp: time.Now().UTC(),
	}
}

func (e OrderCompleted) RoutingKey() string { return EventTypeOrderCompleted }

func (e OrderCompleted) Validate() error {
	if e.Type != EventTypeOrderCompleted {
		return fmt.Errorf("%w: type %q", ErrInvalidEvent, e.Type)
	}
	if e.OrderID == "" || e.UserID == "" {
		return fmt.Errorf("%w: missing order or user id", ErrInvalidEvent)
	}
	if e.Amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: non-positive amount", ErrInvalidEvent)
	}
	return nil
}

type OrderFailed struct {
	Type      string          `json:"type"`
	OrderID   string          `json:"orderId"`
	UserID    string          `json:"userId"`
	Email     string          `json:"email"`
	Amount    decimal.Decimal `json:"amount"`
	Reason    string          `json:"reason"`
	Timestamp time.Time       `json:"timestamp"`
}

func NewOrderFailed(o *Order, reason string) OrderFailed {
	return OrderFailed{
		Type:      EventTypeOrderFailed,
		OrderID:   o.ID,
		UserID:    o.UserID,
		Email:     o.Email,
		Amount:    o.Price,
		Reason:    reason,
		Timestamp: time.Now().UTC(),
	}
}

func (e OrderFailed) RoutingKey() string { return EventTypeOrderFailed }

func (e OrderFailed) Validate() error {
	if e.Type != EventTypeOrderFailed {
		return fmt.Errorf("%w: type %q", ErrInvalidEvent, e.Type)
	}
	if e.OrderID == "" || e.UserID == "" {
		return fmt.Errorf("%w: missing order or user id", ErrInvalidEvent)
	}
	if e.Reason == "" {
		return fmt.Errorf("%w: missing failure reason", ErrInvalidEvent)
	}
	return nil
}

// OrderEventMsg is the consumer-side shape for both order events. Reason is
// empty on order.completed.
type OrderEventMsg struct {
	Type      string          `json:"type"`
	OrderID   string          `json:"orderId"`
	UserID    string          `json:"userId"`
	Email     string          `json:"email"`
	Amount    decimal.Decimal `json:"amount"`
	Reason    string          `json:"reason,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}
