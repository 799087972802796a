package observ

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_completed_total",
		Help: "Orders that reached the completed status",
	})

	OrdersFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_failed_total",
		Help: "Orders that reached the failed status",
	}, []string{"reason"})

	IdempotentReplays = promauto.NewCounter(prometheus.CounterOpts{
		Name: "idempotent_replays_total",
		Help: "Submissions answered from the idempotency store without side effects",
	})

	EventPublishErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "order_event_publish_errors_total",
		Help: "Order event publishes that failed after retries",
	})

	RecoveryResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recovery_resolved_orders_total",
		Help: "Stale pending orders resolved by the recovery sweep",
	}, []string{"outcome"})
)
