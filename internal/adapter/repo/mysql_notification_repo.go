package repo

import (
	"context"
	"database/sql"

	domain "github.com/orderflow/order-api/internal/entity"
)

// MySQLNotificationRepo stores one notification per (order, type). The unique
// key makes redelivered events collapse onto the first write, which is the
// consumer's idempotency discipline.
type MySQLNotificationRepo struct{ db *sql.DB }

func NewMySQLNotificationRepo(db *sql.DB) *MySQLNotificationRepo {
	return &MySQLNotificationRepo{db: db}
}

// Save inserts the notification. A duplicate (order_id, type) is not an
// error: the event was redelivered and the original row stands.
func (r *MySQLNotificationRepo) Save(ctx context.Context, n *domain.Notification) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO notifications (id,user_id,email,order_id,type,message,created_at)
VALUES (?,?,?,?,?,?,?)
`, n.ID, n.UserID, n.Email, n.OrderID, n.Type, n.Message, n.CreatedAt)
	if isDuplicateEntry(err) {
		return nil
	}
	return err
}

func (r *MySQLNotificationRepo) ListByUser(ctx context.Context, userID string) ([]domain.Notification, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id,user_id,email,order_id,type,message,created_at
FROM notifications WHERE user_id=? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Email, &n.OrderID, &n.Type, &n.Message, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
