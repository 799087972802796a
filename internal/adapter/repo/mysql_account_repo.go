package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	domain "github.com/orderflow/order-api/internal/entity"
	"github.com/orderflow/order-api/internal/usecase"
)

// MySQLAccountRepo is the BalanceLedger. The sufficiency check and the
// decrement are one conditional UPDATE, so concurrent debits can never both
// pass the check against a stale balance.
type MySQLAccountRepo struct{ db *sql.DB }

func NewMySQLAccountRepo(db *sql.DB) *MySQLAccountRepo { return &MySQLAccountRepo{db: db} }

func (r *MySQLAccountRepo) CreateAccount(ctx context.Context, userID string) (*domain.Account, error) {
	acc := domain.NewAccount(userID)
	_, err := r.db.ExecContext(ctx, `
INSERT INTO accounts (id,user_id,balance,created_at,updated_at)
VALUES (?,?,?,?,?)
`, acc.ID, acc.UserID, acc.Balance, acc.CreatedAt, acc.UpdatedAt)
	if isDuplicateEntry(err) {
		return nil, usecase.ErrDuplicateAccount
	}
	if err != nil {
		return nil, err
	}
	return acc, nil
}

func (r *MySQLAccountRepo) Debit(ctx context.Context, userID string, amount decimal.Decimal, orderID string) (usecase.DebitResult, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return usecase.DebitResult{}, domain.ErrInvalidPrice
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return usecase.DebitResult{}, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
UPDATE accounts SET balance = balance - ?, updated_at = NOW()
WHERE user_id = ? AND balance >= ?`, amount, userID, amount)
	if err != nil {
		return usecase.DebitResult{}, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return usecase.DebitResult{}, err
	}
	if rows == 0 {
		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM accounts WHERE user_id = ?)`, userID).Scan(&exists); err != nil {
			return usecase.DebitResult{}, err
		}
		if !exists {
			return usecase.DebitResult{}, usecase.ErrAccountNotFound
		}
		return usecase.DebitResult{Succeeded: false, Reason: domain.ReasonInsufficientFunds}, nil
	}

	entry := domain.NewLedgerEntry(userID, orderID, amount, domain.EntryDebit)
	if err := insertEntry(ctx, tx, entry); err != nil {
		return usecase.DebitResult{}, fmt.Errorf("record debit entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return usecase.DebitResult{}, err
	}
	return usecase.DebitResult{Succeeded: true}, nil
}

func (r *MySQLAccountRepo) Credit(ctx context.Context, userID string, amount decimal.Decimal) (*domain.Account, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidPrice
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
UPDATE accounts SET balance = balance + ?, updated_at = NOW()
WHERE user_id = ?`, amount, userID)
	if err != nil {
		return nil, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, usecase.ErrAccountNotFound
	}

	entry := domain.NewLedgerEntry(userID, "", amount, domain.EntryCredit)
	if err := insertEntry(ctx, tx, entry); err != nil {
		return nil, fmt.Errorf("record credit entry: %w", err)
	}

	acc, err := selectAccount(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return acc, nil
}

func (r *MySQLAccountRepo) Balance(ctx context.Context, userID string) (decimal.Decimal, error) {
	var bal decimal.Decimal
	err := r.db.QueryRowContext(ctx,
		`SELECT balance FROM accounts WHERE user_id = ?`, userID).Scan(&bal)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, usecase.ErrAccountNotFound
	}
	if err != nil {
		return decimal.Zero, err
	}
	return bal, nil
}

func (r *MySQLAccountRepo) HasDebitFor(ctx context.Context, orderID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM ledger_entries WHERE order_id = ? AND direction = ?)`,
		orderID, domain.EntryDebit).Scan(&exists)
	return exists, err
}

func insertEntry(ctx context.Context, tx *sql.Tx, e *domain.LedgerEntry) error {
	var orderID sql.NullString
	if e.OrderID != "" {
		orderID = sql.NullString{String: e.OrderID, Valid: true}
	}
	_, err := tx.ExecContext(ctx, `
INSERT INTO ledger_entries (id,user_id,order_id,amount,direction,created_at)
VALUES (?,?,?,?,?,?)
`, e.ID, e.UserID, orderID, e.Amount, e.Direction, e.CreatedAt)
	return err
}

func selectAccount(ctx context.Context, tx *sql.Tx, userID string) (*domain.Account, error) {
	var acc domain.Account
	err := tx.QueryRowContext(ctx, `
SELECT id,user_id,balance,created_at,updated_at FROM accounts WHERE user_id = ?`, userID).
		Scan(&acc.ID, &acc.UserID, &acc.Balance, &acc.CreatedAt, &acc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, usecase.ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

var _ usecase.BalanceLedger = (*MySQLAccountRepo)(nil)
