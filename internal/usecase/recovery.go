package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	domain "github.com/orderflow/order-api/internal/entity"
	"github.com/orderflow/order-api/internal/observ"
)

const sweepBatchSize = 100

// RecoverySweeper resolves orders left pending by a crash mid-saga. Pending
// is a transient in-saga state; anything still pending past the stale cutoff
// is settled here: a debit entry for the order proves the charge landed, so
// the order completes; no entry means no money moved, so it fails. Either way
// the matching event is published, so a lost debit is never silent.
type RecoverySweeper struct {
	orders     OrderRepo
	ledger     BalanceLedger
	events     EventPublisher
	staleAfter time.Duration
	log        *slog.Logger
}

func NewRecoverySweeper(orders OrderRepo, ledger BalanceLedger, events EventPublisher, staleAfter time.Duration, log *slog.Logger) *RecoverySweeper {
	if staleAfter <= 0 {
		staleAfter = 5 * time.Minute
	}
	return &RecoverySweeper{orders: orders, ledger: ledger, events: events, staleAfter: staleAfter, log: log}
}

// Sweep settles one batch of stale pending orders and returns how many it
// resolved.
func (r *RecoverySweeper) Sweep(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-r.staleAfter)
	stale, err := r.orders.ListStalePending(ctx, cutoff, sweepBatchSize)
	if err != nil {
		return 0, fmt.Errorf("list stale pending orders: %w", err)
	}

	resolved := 0
	for i := range stale {
		o := stale[i]
		if err := r.resolve(ctx, &o); err != nil {
			r.log.Error("recovery sweep could not resolve order", "order_id", o.ID, "err", err)
			continue
		}
		resolved++
	}
	return resolved, nil
}

func (r *RecoverySweeper) resolve(ctx context.Context, o *domain.Order) error {
	debited, err := r.ledger.HasDebitFor(ctx, o.ID)
	if err != nil {
		return fmt.Errorf("check debit for order %s: %w", o.ID, err)
	}

	to := domain.StatusFailed
	if debited {
		to = domain.StatusCompleted
	}

	ok, err := r.orders.UpdateStatusIf(ctx, o.ID, domain.StatusPending, to)
	if err != nil {
		return err
	}
	if !ok {
		// Finished by its own saga between the list and the update.
		return nil
	}
	o.Status = to

	var ev domain.Event
	if debited {
		ev = domain.NewOrderCompleted(o)
	} else {
		ev = domain.NewOrderFailed(o, domain.ReasonAbandoned)
	}
	if err := r.events.Publish(ctx, ev); err != nil {
		r.log.Error("recovery event publish failed", "order_id", o.ID, "routing_key", ev.RoutingKey(), "err", err)
	}

	observ.RecoveryResolved.WithLabelValues(string(to)).Inc()
	r.log.Info("recovered stale pending order", "order_id", o.ID, "outcome", string(to))
	return nil
}

// Run sweeps immediately and then on every tick until the context ends.
func (r *RecoverySweeper) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	if _, err := r.Sweep(ctx); err != nil {
		r.log.Error("recovery sweep failed", "err", err)
	}

	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := r.Sweep(ctx); err != nil {
				r.log.Error("recovery sweep failed", "err", err)
			}
		}
	}
}
