package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// LedgerTransaction is one journal row.
type LedgerTransaction struct {
	ID          int64
	Kind        string
	Amount      int64
	Description string
	CreatedAt   string
}

type CreateTransactionParams struct {
	Kind        string
	Amount      int64
	Description string
}

const createTransaction = `
INSERT INTO ledger_transactions (kind, amount, description)
VALUES (?, ?, ?)
RETURNING id, kind, amount, description, created_at`

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (LedgerTransaction, error) {
	row := q.db.QueryRowContext(ctx, createTransaction, arg.Kind, arg.Amount, arg.Description)
	var i LedgerTransaction
	err := row.Scan(&i.ID, &i.Kind, &i.Amount, &i.Description, &i.CreatedAt)
	return i, err
}

const listTransactions = `
SELECT id, kind, amount, description, created_at
FROM ledger_transactions
ORDER BY id ASC`

func (q *Queries) ListTransactions(ctx context.Context) ([]LedgerTransaction, error) {
	rows, err := q.db.QueryContext(ctx, listTransactions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []LedgerTransaction
	for rows.Next() {
		var i LedgerTransaction
		if err := rows.Scan(&i.ID, &i.Kind, &i.Amount, &i.Description, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countTransactions = `SELECT COUNT(*) FROM ledger_transactions`

func (q *Queries) CountTransactions(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countTransactions).Scan(&n)
	return n, err
}
