package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/orderflow/order-api/internal/adapter/http/middleware"
	"github.com/orderflow/order-api/internal/logging"
)

func NewRouter(oh *OrderHandler, bh *BillingHandler, nh *NotificationHandler, th *TokenHandler, authz *middleware.Authz, rl gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.MetricsMiddleware())

	l := logging.New("http")
	r.Use(middleware.Logging(l))
	if rl != nil {
		r.Use(rl)
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})
	// Prometheus endpoint (scraped by Prometheus)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.POST("/v1/token", th.IssueToken)

	v1 := r.Group("/v1")
	{
		v1.POST("/orders", authz.Require("orders.write"), oh.CreateOrder)
		v1.GET("/orders/:id", authz.Require("orders.read"), oh.GetOrderByID)
		v1.GET("/orders/:id/status", authz.Require("orders.read"), oh.GetOrderStatus)
		v1.GET("/users/:userId/orders", authz.Require("orders.read"), oh.ListUserOrders)
		v1.GET("/users/:userId/notifications", authz.Require("orders.read"), nh.ListUserNotifications)

		billing := v1.Group("/billing")
		{
			billing.POST("/accounts", authz.Require("billing.write"), bh.CreateAccount)
			billing.POST("/deposit", authz.Require("billing.write"), bh.Deposit)
			billing.POST("/withdraw", authz.Require("billing.write"), bh.Withdraw)
			billing.GET("/balance/:userId", authz.Require("billing.read"), bh.GetBalance)
		}
	}

	return r
}
