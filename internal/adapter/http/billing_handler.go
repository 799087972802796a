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

type BillingHandler struct {
	billing *usecase.Billing
}

func NewBillingHandler(billing *usecase.Billing) *BillingHandler {
	return &BillingHandler{billing: billing}
}

type createAccountReq struct {
	UserID string `json:"userId" binding:"required"`
}

type moneyReq struct {
	UserID string          `json:"userId" binding:"required"`
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

func (h *BillingHandler) CreateAccount(c *gin.Context) {
	var req createAccountReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	acc, err := h.billing.CreateAccount(ctx, req.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, acc)
}

func (h *BillingHandler) Deposit(c *gin.Context) {
	var req moneyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	acc, err := h.billing.Deposit(ctx, req.UserID, req.Amount)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, acc)
}

// Withdraw returns the debit outcome as a result body, matching the saga's
// own view of insufficient funds as a business answer rather than a fault.
func (h *BillingHandler) Withdraw(c *gin.Context) {
	var req moneyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	res, err := h.billing.Withdraw(ctx, req.UserID, req.Amount)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !res.Succeeded {
		c.JSON(http.StatusOK, gin.H{"success": false, "message": res.Reason})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *BillingHandler) GetBalance(c *gin.Context) {
	userID := c.Param("userId")
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	bal, err := h.billing.Balance(ctx, userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"userId": userID, "balance": bal})
}

func (h *BillingHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, usecase.ErrDuplicateAccount):
		c.JSON(http.StatusBadRequest, gin.H{"error": "account_exists"})
	case errors.Is(err, usecase.ErrAccountNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "account_not_found"})
	case errors.Is(err, domain.ErrInvalidPrice), errors.Is(err, domain.ErrInvalidUser):
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_request"})
	default:
		logging.From(c).Error("billing fault", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}
