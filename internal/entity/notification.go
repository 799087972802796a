package domain

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationFailure NotificationType = "failure"
)

// Notification is what the consumer stores for each order event. One row per
// (order, type): redeliveries of the same event collapse onto the first row.
type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"userId"`
	Email     string           `json:"email"`
	OrderID   string           `json:"orderId"`
	Type      NotificationType `json:"type"`
	Message   string           `json:"message"`
	CreatedAt time.Time        `json:"createdAt"`
}

func NewNotification(userID, email, orderID string, typ NotificationType, message string) *Notification {
	return &Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Email:     email,
		OrderID:   orderID,
		Type:      typ,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
}
