package queue

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Handler processes a single delivery. It must be idempotent: the broker
// gives at-least-once delivery, so the same message can arrive again.
// Return nil => ACK; return error => NACK without requeue (dead-letter).
type Handler interface {
	Handle(ctx context.Context, d amqp.Delivery) error
}
