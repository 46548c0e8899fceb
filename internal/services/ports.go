package services

import (
	"context"

	"budget/internal/amqp"
	"budget/internal/core"
)

// Ports for outbound adapters.
type (
	// Journal durably records ledger transactions in append order.
	Journal interface {
		AppendTransaction(ctx context.Context, tx core.Transaction) (id int64, err error)
		ListTransactions(ctx context.Context) ([]core.Transaction, error)
		CountTransactions(ctx context.Context) (int64, error)
		Ping(ctx context.Context) error
		Close() error
	}

	// EventPublisher announces recorded transactions to other processes.
	EventPublisher interface {
		PublishTransactionRecorded(ctx context.Context, msg *amqp.TransactionRecordedMessage) error
		Close() error
	}
)
