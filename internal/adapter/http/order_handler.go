package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	domain "github.com/orderflow/order-api/internal/entity"
	"github.com/orderflow/order-api/internal/logging"
	"github.com/orderflow/order-api/internal/usecase"
)

// OrderSubmitter lets tests swap the saga out.
type OrderSubmitter interface {
	Submit(ctx context.Context, in usecase.SubmitOrderInput) (usecase.SubmitOrderOutput, error)
}

type OrderHandler struct {
	saga   OrderSubmitter
	orders usecase.OrderRepo
	cache  usecase.OrderCache
}

func NewOrderHandler(saga OrderSubmitter, orders usecase.OrderRepo, cache usecase.OrderCache) *OrderHandler {
	return &OrderHandler{saga: saga, orders: orders, cache: cache}
}

type createOrderReq struct {
	UserID string          `json:"userId" binding:"required"`
	Email  string          `json:"email" binding:"required,email"`
	Price  decimal.Decimal `json:"price" binding:"required"`
}

type orderResp struct {
	ID     string          `json:"id"`
	UserID string          `json:"userId"`
	Price  decimal.Decimal `json:"price"`
	Status domain.Status   `json:"status"`
}

func toOrderResp(o *domain.Order) orderResp {
	return orderResp{ID: o.ID, UserID: o.UserID, Price: o.Price, Status: o.Status}
}

// CreateOrder runs the saga. The idempotency key travels out-of-band in the
// X-Idempotency-Key header; replays are flagged via X-Idempotent-Replay.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req createOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return
	}

	idemKey := c.GetHeader("X-Idempotency-Key") // prevent duplicated requests

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	out, err := h.saga.Submit(ctx, usecase.SubmitOrderInput{
		UserID:         req.UserID,
		Email:          req.Email,
		Price:          req.Price,
		IdempotencyKey: idemKey,
	})
	if err != nil {
		status := http.StatusInternalServerError
		code := "internal_error"
		switch {
		case errors.Is(err, domain.ErrInvalidPrice), errors.Is(err, domain.ErrInvalidUser):
			status, code = http.StatusBadRequest, "bad_request"
		case errors.Is(err, usecase.ErrAccountNotFound):
			status, code = http.StatusNotFound, "account_not_found"
		default:
			logging.From(c).Error("order submission fault", "err", err)
		}
		c.JSON(status, gin.H{"error": code})
		return
	}

	if out.FromCache {
		c.Header("X-Idempotent-Replay", "true")
	}

	if out.StatusCode == http.StatusBadRequest {
		c.JSON(http.StatusBadRequest, gin.H{
			"statusCode": http.StatusBadRequest,
			"message":    out.Message,
			"orderId":    out.Order.ID,
			"status":     out.Order.Status,
		})
		return
	}

	c.JSON(out.StatusCode, toOrderResp(out.Order))
}

func (h *OrderHandler) GetOrderByID(c *gin.Context) {
	id := c.Param("id")
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	o, err := h.orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, usecase.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
			return
		}
		logging.From(c).Error("get order", "order_id", id, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}
	c.JSON(http.StatusOK, toOrderResp(o))
}

// GetOrderStatus serves the polling path from the cache when it can, falling
// back to the orders table.
func (h *OrderHandler) GetOrderStatus(c *gin.Context) {
	id := c.Param("id")
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if h.cache != nil {
		if status, ok, err := h.cache.GetStatus(ctx, id); err == nil && ok {
			c.JSON(http.StatusOK, gin.H{"id": id, "status": status, "cached": true})
			return
		}
	}

	o, err := h.orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, usecase.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
			return
		}
		logging.From(c).Error("get order status", "order_id", id, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": o.ID, "status": o.Status, "cached": false})
}

func (h *OrderHandler) ListUserOrders(c *gin.Context) {
	userID := c.Param("userId")
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	orders, err := h.orders.ListByUser(ctx, userID)
	if err != nil {
		logging.From(c).Error("list orders", "user_id", userID, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	resp := make([]orderResp, 0, len(orders))
	for i := range orders {
		resp = append(resp, toOrderResp(&orders[i]))
	}
	c.JSON(http.StatusOK, resp)
}
