package queue

import (
	"context"
	"fmt"

	domain "github.com/orderflow/order-api/internal/entity"
)

const NotificationQueue = "notification.q"

// NotificationStore is the port the consumer writes through. Save must
// swallow duplicate (order, type) pairs so redeliveries stay harmless.
type NotificationStore interface {
	Save(ctx context.Context, n *domain.Notification) error
}

// NotificationHandler turns order events into stored notifications. It binds
// both order.completed and order.failed and is safe under redelivery.
type NotificationHandler struct {
	store NotificationStore
}

func NewNotificationHandler(store NotificationStore) *NotificationHandler {
	return &NotificationHandler{store: store}
}

// HandleEvent is intended to be used with queue.JSONHandler[domain.OrderEventMsg].
func (h *NotificationHandler) HandleEvent(ctx context.Context, msg domain.OrderEventMsg) error {
	var (
		typ  domain.NotificationType
		text string
	)
	switch msg.Type {
	case domain.EventTypeOrderCompleted:
		typ = domain.NotificationSuccess
		text = fmt.Sprintf("Order #%s placed successfully. Charged %s.", msg.OrderID, msg.Amount.StringFixed(2))
	case domain.EventTypeOrderFailed:
		typ = domain.NotificationFailure
		text = fmt.Sprintf("Order #%s could not be placed: %s.", msg.OrderID, msg.Reason)
	default:
		return fmt.Errorf("unknown order event type %q", msg.Type)
	}

	n := domain.NewNotification(msg.UserID, msg.Email, msg.OrderID, typ, text)
	return h.store.Save(ctx, n)
}
