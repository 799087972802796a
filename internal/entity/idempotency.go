package domain

import (
	"encoding/json"
	"time"
)

// IdempotencyRecord caches the terminal outcome of one client submission.
// Once written, Response, StatusCode and OrderID are immutable. A record past
// ExpiresAt is treated as absent; the key may then start a fresh saga run.
type IdempotencyRecord struct {
	Key        string          `json:"key"`
	OrderID    string          `json:"orderId"`
	Response   json.RawMessage `json:"response"`
	StatusCode int             `json:"statusCode"`
	CreatedAt  time.Time       `json:"createdAt"`
	ExpiresAt  time.Time       `json:"expiresAt"`
}

func NewIdempotencyRecord(key, orderID string, response json.RawMessage, statusCode int, ttl time.Duration) *IdempotencyRecord {
	now := time.Now().UTC()
	return &IdempotencyRecord{
		Key:        key,
		OrderID:    orderID,
		Response:   response,
		StatusCode: statusCode,
		CreatedAt:  now,
		ExpiresAt:  now.Add(ttl),
	}
}

func (r *IdempotencyRecord) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}
