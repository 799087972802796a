package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	domain "github.com/orderflow/order-api/internal/entity"
	"github.com/orderflow/order-api/internal/logging"
)

// NotificationReader is the read side of the notification store.
type NotificationReader interface {
	ListByUser(ctx context.Context, userID string) ([]domain.Notification, error)
}

type NotificationHandler struct {
	store NotificationReader
}

func NewNotificationHandler(store NotificationReader) *NotificationHandler {
	return &NotificationHandler{store: store}
}

func (h *NotificationHandler) ListUserNotifications(c *gin.Context) {
	userID := c.Param("userId")
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	notifs, err := h.store.ListByUser(ctx, userID)
	if err != nil {
		logging.From(c).Error("list notifications", "user_id", userID, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}
	if notifs == nil {
		notifs = []domain.Notification{}
	}
	c.JSON(http.StatusOK, notifs)
}
