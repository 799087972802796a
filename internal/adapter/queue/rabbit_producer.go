package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	amqp "github.com/rabbitmq/amqp091-go"

	domain "github.com/orderflow/order-api/internal/entity"
	"github.com/orderflow/order-api/internal/usecase"
)

const DefaultExchange = "order.events"

// RabbitProducer implements usecase.EventPublisher over a topic exchange.
// Routing key = event type; deliveries are persistent and confirmed.
type RabbitProducer struct {
	ch       *amqp.Channel
	exchange string
}

// NewRabbitProducer declares the exchange once at startup and enables
// publisher confirms on the channel.
func NewRabbitProducer(ch *amqp.Channel, exchange string) (*RabbitProducer, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}

	if err := ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	if err := ch.Confirm(false); err != nil {
		return nil, fmt.Errorf("enable confirm mode: %w", err)
	}

	return &RabbitProducer{ch: ch, exchange: exchange}, nil
}

// Publish validates the event at the boundary, then publishes with retries
// until the broker confirms or the context ends. At-least-once: a confirm
// lost on the wire means the same event goes out twice, and consumers must
// tolerate that.
func (p *RabbitProducer) Publish(ctx context.Context, ev domain.Event) error {
	if err := ev.Validate(); err != nil {
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // survive broker restarts
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	op := func() error {
		conf, err := p.ch.PublishWithDeferredConfirmWithContext(
			ctx,
			p.exchange,
			ev.RoutingKey(),
			false, // mandatory
			false, // immediate
			pub,
		)
		if err != nil {
			return fmt.Errorf("publish: %w", err)
		}
		acked, err := conf.WaitContext(ctx)
		if err != nil {
			return err
		}
		if !acked {
			return fmt.Errorf("publish nacked by broker")
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 10 * time.Second
	return backoff.Retry(op, backoff.WithContext(bo, ctx))
}

var _ usecase.EventPublisher = (*RabbitProducer)(nil)
