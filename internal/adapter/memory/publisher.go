package memory

import (
	"context"
	"sync"

	domain "github.com/orderflow/order-api/internal/entity"
	"github.com/orderflow/order-api/internal/usecase"
)

// Publisher records published events. It still validates at the boundary,
// same as the rabbit producer.
type Publisher struct {
	mu     sync.Mutex
	events []domain.Event

	// Fail, when set, makes Publish return it after validation.
	Fail error
}

func NewPublisher() *Publisher { return &Publisher{} }

func (p *Publisher) Publish(_ context.Context, ev domain.Event) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	if p.Fail != nil {
		return p.Fail
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *Publisher) Events() []domain.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.Event, len(p.events))
	copy(out, p.events)
	return out
}

var _ usecase.EventPublisher = (*Publisher)(nil)
