package queue

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/orderflow/order-api/internal/entity"
)

// fakeStore dedupes on (order, type), matching the unique constraint the
// MySQL store enforces.
type fakeStore struct {
	saved []*domain.Notification
}

func (s *fakeStore) Save(_ context.Context, n *domain.Notification) error {
	for _, cur := range s.saved {
		if cur.OrderID == n.OrderID && cur.Type == n.Type {
			return nil
		}
	}
	s.saved = append(s.saved, n)
	return nil
}

func completedMsg(orderID string) domain.OrderEventMsg {
	return domain.OrderEventMsg{
		Type:      domain.EventTypeOrderCompleted,
		OrderID:   orderID,
		UserID:    "u1",
		Email:     "u1@example.com",
		Amount:    decimal.RequireFromString("30.00"),
		Timestamp: time.Now().UTC(),
	}
}

func TestNotificationHandlerCompleted(t *testing.T) {
	store := &fakeStore{}
	h := NewNotificationHandler(store)

	require.NoError(t, h.HandleEvent(context.Background(), completedMsg("o1")))

	require.Len(t, store.saved, 1)
	n := store.saved[0]
	assert.Equal(t, domain.NotificationSuccess, n.Type)
	assert.Equal(t, "o1", n.OrderID)
	assert.Equal(t, "u1@example.com", n.Email)
	assert.Contains(t, n.Message, "30.00")
}

func TestNotificationHandlerFailed(t *testing.T) {
	store := &fakeStore{}
	h := NewNotificationHandler(store)

	msg := completedMsg("o1")
	msg.Type = domain.EventTypeOrderFailed
	msg.Reason = domain.ReasonInsufficientFunds
	require.NoError(t, h.HandleEvent(context.Background(), msg))

	require.Len(t, store.saved, 1)
	assert.Equal(t, domain.NotificationFailure, store.saved[0].Type)
	assert.Contains(t, store.saved[0].Message, domain.ReasonInsufficientFunds)
}

func TestNotificationHandlerRedelivery(t *testing.T) {
	store := &fakeStore{}
	h := NewNotificationHandler(store)

	msg := completedMsg("o1")
	require.NoError(t, h.HandleEvent(context.Background(), msg))
	require.NoError(t, h.HandleEvent(context.Background(), msg))

	assert.Len(t, store.saved, 1, "redelivery must not create a second notification")
}

func TestNotificationHandlerUnknownType(t *testing.T) {
	store := &fakeStore{}
	h := NewNotificationHandler(store)

	msg := completedMsg("o1")
	msg.Type = "order.created"
	err := h.HandleEvent(context.Background(), msg)
	require.Error(t, err)
	assert.Empty(t, store.saved)
}
