package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	domain "github.com/orderflow/order-api/internal/entity"
	"github.com/orderflow/order-api/internal/observ"
)

const insufficientFundsMessage = "Insufficient funds"

type SubmitOrderInput struct {
	UserID         string
	Email          string
	Price          decimal.Decimal
	IdempotencyKey string
}

type SubmitOrderOutput struct {
	Order      *domain.Order
	StatusCode int
	Message    string
	FromCache  bool
}

// OrderSaga orchestrates one order submission: debit the balance, finalize
// the order, publish the matching event, record the idempotent outcome. The
// steps commit locally in that fixed sequence; there is no cross-resource
// transaction. A crash between steps is recoverable by re-reading the order
// (see RecoverySweeper).
type OrderSaga struct {
	orders OrderRepo
	ledger BalanceLedger
	idem   IdempotencyStore
	events EventPublisher
	cache  OrderCache
	ttl    time.Duration
	log    *slog.Logger
}

func NewOrderSaga(orders OrderRepo, ledger BalanceLedger, idem IdempotencyStore, events EventPublisher, cache OrderCache, ttl time.Duration, log *slog.Logger) *OrderSaga {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &OrderSaga{orders: orders, ledger: ledger, idem: idem, events: events, cache: cache, ttl: ttl, log: log}
}

// Submit runs the saga. Business outcomes (created, insufficient funds) come
// back as a SubmitOrderOutput with the matching status code; only resource
// faults return an error, and those are never cached, so the client can
// safely retry them with the same key.
func (s *OrderSaga) Submit(ctx context.Context, in SubmitOrderInput) (SubmitOrderOutput, error) {
	if in.UserID == "" {
		return SubmitOrderOutput{}, domain.ErrInvalidUser
	}
	if in.Price.LessThanOrEqual(decimal.Zero) {
		return SubmitOrderOutput{}, domain.ErrInvalidPrice
	}

	if in.IdempotencyKey != "" {
		out, ok, err := s.replay(ctx, in.IdempotencyKey)
		if err != nil {
			// The store may already hold a record for this key. Executing
			// blind would re-apply the debit, so the outage surfaces as a
			// server fault and the client retries once the store is back.
			return SubmitOrderOutput{}, err
		}
		if ok {
			observ.IdempotentReplays.Inc()
			return out, nil
		}
	}

	// The pending row is the anchor for every later idempotent lookup, even
	// when the saga fails past this point.
	order := domain.NewOrder(in.UserID, in.Email, in.Price)
	if err := s.orders.Create(ctx, order); err != nil {
		return SubmitOrderOutput{}, fmt.Errorf("create order: %w", err)
	}

	res, err := s.ledger.Debit(ctx, in.UserID, in.Price, order.ID)
	if err != nil {
		// No money moved. Never leave the order pending; no idempotency
		// record either, so a retry after recovery re-runs the saga.
		s.failBestEffort(ctx, order)
		return SubmitOrderOutput{}, fmt.Errorf("debit user %s: %w", in.UserID, err)
	}

	out := SubmitOrderOutput{Order: order}
	var ev domain.Event
	if res.Succeeded {
		if err := s.transition(ctx, order, domain.StatusCompleted); err != nil {
			// The debit is already applied. Leave the order pending rather
			// than mark it failed: the recovery sweep will find the debit
			// entry and finish the transition.
			return SubmitOrderOutput{}, fmt.Errorf("finalize order %s: %w", order.ID, err)
		}
		out.StatusCode = http.StatusCreated
		ev = domain.NewOrderCompleted(order)
		observ.OrdersCompleted.Inc()
	} else {
		if err := s.transition(ctx, order, domain.StatusFailed); err != nil {
			return SubmitOrderOutput{}, fmt.Errorf("finalize order %s: %w", order.ID, err)
		}
		out.StatusCode = http.StatusBadRequest
		out.Message = insufficientFundsMessage
		ev = domain.NewOrderFailed(order, res.Reason)
		observ.OrdersFailed.WithLabelValues(res.Reason).Inc()
	}

	// Publish after the terminal state is durable. Failures do not roll back
	// the debit or the order; the broker's own retry and the reconciliation
	// path own redelivery.
	s.publish(ctx, ev)

	if in.IdempotencyKey != "" {
		if winner, ok := s.record(ctx, in.IdempotencyKey, out); ok {
			return winner, nil
		}
	}

	if s.cache != nil {
		if err := s.cache.SetStatus(ctx, order.ID, string(order.Status)); err != nil {
			s.log.Warn("order status cache write failed", "order_id", order.ID, "err", err)
		}
	}
	return out, nil
}

// replay answers a submission from the idempotency store. A lookup fault is
// returned as an error: the key may already have a live record, so executing
// anyway could apply a second debit. A record whose order has gone missing is
// an inconsistent state, not a hit: we log it and let the saga re-execute.
func (s *OrderSaga) replay(ctx context.Context, key string) (SubmitOrderOutput, bool, error) {
	rec, err := s.idem.Lookup(ctx, key)
	if err != nil {
		return SubmitOrderOutput{}, false, fmt.Errorf("idempotency lookup for key %q: %w", key, err)
	}
	if rec == nil {
		return SubmitOrderOutput{}, false, nil
	}

	order, err := s.orders.GetByID(ctx, rec.OrderID)
	if err != nil || order == nil {
		s.log.Warn("idempotency record points at missing order, executing fresh",
			"key", key, "order_id", rec.OrderID, "err", err)
		return SubmitOrderOutput{}, false, nil
	}

	out := SubmitOrderOutput{Order: order, StatusCode: rec.StatusCode, FromCache: true}
	if rec.StatusCode == http.StatusBadRequest {
		out.Message = insufficientFundsMessage
	}
	return out, true, nil
}

// record writes the terminal outcome for the key. Losing the write race means
// a concurrent duplicate finished first; its outcome wins and is returned as
// a cache hit (ok=true).
func (s *OrderSaga) record(ctx context.Context, key string, out SubmitOrderOutput) (SubmitOrderOutput, bool) {
	body, err := json.Marshal(out.Order)
	if err != nil {
		s.log.Error("marshal idempotency response", "order_id", out.Order.ID, "err", err)
		return SubmitOrderOutput{}, false
	}

	rec := domain.NewIdempotencyRecord(key, out.Order.ID, body, out.StatusCode, s.ttl)
	switch err := s.idem.Record(ctx, rec); {
	case err == nil:
		return SubmitOrderOutput{}, false
	case isDuplicateKey(err):
		winner, ok, rerr := s.replay(ctx, key)
		if rerr == nil && ok {
			return winner, true
		}
		// The order is terminal either way; fall back to our own outcome.
		s.log.Warn("lost idempotency race but winner record unreadable", "key", key, "err", rerr)
		return SubmitOrderOutput{}, false
	default:
		// The order is already terminal; failing to cache it only costs a
		// potential re-execution on retry. Not worth failing the request.
		s.log.Error("idempotency record write failed", "key", key, "err", err)
		return SubmitOrderOutput{}, false
	}
}

func (s *OrderSaga) transition(ctx context.Context, order *domain.Order, to domain.Status) error {
	ok, err := s.orders.UpdateStatusIf(ctx, order.ID, domain.StatusPending, to)
	if err != nil {
		return err
	}
	if !ok {
		// Someone else finalized it; terminal states are immutable, so take
		// whatever is persisted.
		cur, err := s.orders.GetByID(ctx, order.ID)
		if err != nil {
			return fmt.Errorf("order %s not pending and unreadable: %w", order.ID, err)
		}
		*order = *cur
		return nil
	}
	order.Status = to
	order.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *OrderSaga) failBestEffort(ctx context.Context, order *domain.Order) {
	if err := s.transition(ctx, order, domain.StatusFailed); err != nil {
		s.log.Error("could not mark order failed", "order_id", order.ID, "err", err)
	}
}

func (s *OrderSaga) publish(ctx context.Context, ev domain.Event) {
	if err := s.events.Publish(ctx, ev); err != nil {
		observ.EventPublishErrors.Inc()
		s.log.Error("order event publish failed", "routing_key", ev.RoutingKey(), "err", err)
	}
}

func isDuplicateKey(err error) bool {
	return errors.Is(err, ErrDuplicateKey)
}
