package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	domain "github.com/orderflow/order-api/internal/entity"
	"github.com/orderflow/order-api/internal/usecase"
)

// MySQLIdempotencyRepo keys records on a unique idempotency_key column.
// Expiry is lazy on lookup; PurgeExpired exists for the background reaper.
type MySQLIdempotencyRepo struct{ db *sql.DB }

func NewMySQLIdempotencyRepo(db *sql.DB) *MySQLIdempotencyRepo {
	return &MySQLIdempotencyRepo{db: db}
}

func (r *MySQLIdempotencyRepo) Lookup(ctx context.Context, key string) (*domain.IdempotencyRecord, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT idempotency_key,order_id,response,status_code,created_at,expires_at
FROM idempotency_records WHERE idempotency_key=?`, key)

	var rec domain.IdempotencyRecord
	err := row.Scan(&rec.Key, &rec.OrderID, &rec.Response, &rec.StatusCode, &rec.CreatedAt, &rec.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if rec.Expired(time.Now().UTC()) {
		// Opportunistic purge; the key is free for a fresh attempt.
		_, _ = r.db.ExecContext(ctx,
			`DELETE FROM idempotency_records WHERE idempotency_key=? AND expires_at <= ?`,
			key, time.Now().UTC())
		return nil, nil
	}
	return &rec, nil
}

func (r *MySQLIdempotencyRepo) Record(ctx context.Context, rec *domain.IdempotencyRecord) error {
	err := r.insert(ctx, rec)
	if !isDuplicateEntry(err) {
		return err
	}

	// The unique constraint fired. If the surviving row is merely expired,
	// clear it and try once more; a live row is a genuine duplicate.
	res, derr := r.db.ExecContext(ctx,
		`DELETE FROM idempotency_records WHERE idempotency_key=? AND expires_at <= ?`,
		rec.Key, time.Now().UTC())
	if derr != nil {
		return usecase.ErrDuplicateKey
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return usecase.ErrDuplicateKey
	}
	if err := r.insert(ctx, rec); err != nil {
		if isDuplicateEntry(err) {
			return usecase.ErrDuplicateKey
		}
		return err
	}
	return nil
}

func (r *MySQLIdempotencyRepo) insert(ctx context.Context, rec *domain.IdempotencyRecord) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO idempotency_records (idempotency_key,order_id,response,status_code,created_at,expires_at)
VALUES (?,?,?,?,?,?)
`, rec.Key, rec.OrderID, []byte(rec.Response), rec.StatusCode, rec.CreatedAt, rec.ExpiresAt)
	return err
}

func (r *MySQLIdempotencyRepo) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM idempotency_records WHERE expires_at <= ?`, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

var _ usecase.IdempotencyStore = (*MySQLIdempotencyRepo)(nil)
