package memory

import (
	"context"
	"sync"

	"github.com/orderflow/order-api/internal/usecase"
)

type Cache struct {
	mu sync.Mutex
	m  map[string]string
}

func NewCache() *Cache { return &Cache{m: make(map[string]string)} }

func (c *Cache) SetStatus(_ context.Context, orderID, status string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[orderID] = status
	return nil
}

func (c *Cache) GetStatus(_ context.Context, orderID string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.m[orderID]
	return v, ok, nil
}

var _ usecase.OrderCache = (*Cache)(nil)
