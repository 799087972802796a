package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

var (
	ErrInvalidPrice = errors.New("invalid price")
	ErrInvalidUser  = errors.New("invalid user")
)

type Order struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	Email     string          `json:"email"`
	Price     decimal.Decimal `json:"price"`
	Status    Status          `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// NewOrder creates a pending order. The saga invocation that created it is
// the only writer allowed to move it to a terminal status.
func NewOrder(userID, email string, price decimal.Decimal) *Order {
	now := time.Now().UTC()
	return &Order{
		ID:        uuid.NewString(),
		UserID:    userID,
		Email:     email,
		Price:     price,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (o *Order) Validate() error {
	if o.UserID == "" {
		return ErrInvalidUser
	}
	if o.Price.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidPrice
	}
	return nil
}

// Terminal reports whether the order reached a final status.
// Terminal orders never transition again.
func (o *Order) Terminal() bool {
	return o.Status == StatusCompleted || o.Status == StatusFailed
}
