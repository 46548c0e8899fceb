package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"budget/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is an append-only journal of ledger transactions.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer keeps journal ids in the same order as ledger appends.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, queries: New(db)}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks that the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// AppendTransaction implements services.Journal
func (r *SQLiteRepository) AppendTransaction(ctx context.Context, tx core.Transaction) (int64, error) {
	row, err := r.queries.CreateTransaction(ctx, CreateTransactionParams{
		Kind:        string(tx.Kind),
		Amount:      tx.Amount,
		Description: tx.Description,
	})
	if err != nil {
		return 0, fmt.Errorf("create transaction: %w", err)
	}

	slog.DebugContext(ctx, "Transaction journaled",
		"id", row.ID,
		"transaction_kind", row.Kind,
		"amount", row.Amount)

	return row.ID, nil
}

// ListTransactions implements services.Journal, returning rows in append order.
func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		kind, err := core.ParseKind(row.Kind)
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", row.ID, err)
		}
		out = append(out, core.Transaction{
			Kind:        kind,
			Amount:      row.Amount,
			Description: row.Description,
		})
	}
	return out, nil
}

func (r *SQLiteRepository) CountTransactions(ctx context.Context) (int64, error) {
	n, err := r.queries.CountTransactions(ctx)
	if err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}
