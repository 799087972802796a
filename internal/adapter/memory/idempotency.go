package memory

import (
	"context"
	"sync"
	"time"

	domain "github.com/orderflow/order-api/internal/entity"
	"github.com/orderflow/order-api/internal/usecase"
)

type IdempotencyStore struct {
	mu      sync.Mutex
	records map[string]*domain.IdempotencyRecord

	// Now lets tests control the clock. Defaults to time.Now.
	Now func() time.Time
}

func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{
		records: make(map[string]*domain.IdempotencyRecord),
		Now:     time.Now,
	}
}

func (s *IdempotencyStore) Lookup(_ context.Context, key string) (*domain.IdempotencyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[key]
	if !ok {
		return nil, nil
	}
	if rec.Expired(s.Now().UTC()) {
		delete(s.records, key)
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (s *IdempotencyStore) Record(_ context.Context, rec *domain.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.records[rec.Key]; ok && !cur.Expired(s.Now().UTC()) {
		return usecase.ErrDuplicateKey
	}
	cp := *rec
	s.records[rec.Key] = &cp
	return nil
}

func (s *IdempotencyStore) PurgeExpired(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	now := s.Now().UTC()
	for k, rec := range s.records {
		if rec.Expired(now) {
			delete(s.records, k)
			n++
		}
	}
	return n, nil
}

// Expire force-expires the key. Test hook for TTL reuse.
func (s *IdempotencyStore) Expire(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.records[key]; ok {
		rec.ExpiresAt = time.Now().UTC().Add(-time.Second)
	}
}

var _ usecase.IdempotencyStore = (*IdempotencyStore)(nil)
