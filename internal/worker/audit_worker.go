package worker

import (
	"context"
	"fmt"
	"sync/atomic"

	"budget/internal/amqp"
	"budget/internal/core"
	"budget/internal/log"
)

// AuditWorker folds transaction events into a mirror ledger and reports
// when the mirror disagrees with the balance the web process announced.
type AuditWorker struct {
	mirror *core.Ledger
	logger *log.Logger

	processed atomic.Int64
	drifts    atomic.Int64
	rejected  atomic.Int64
}

// Stats summarizes what the worker has seen so far.
type Stats struct {
	Processed int64
	Drifts    int64
	Rejected  int64
	Balance   int64
}

func NewAuditWorker(mirror *core.Ledger, logger *log.Logger) *AuditWorker {
	if mirror == nil {
		mirror = core.NewLedger()
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &AuditWorker{mirror: mirror, logger: logger.WithComponent(log.ComponentWorker)}
}

// HandleTransactionRecorded applies one event to the mirror ledger.
// Events with an unknown kind are rejected with amqp.ErrDiscard.
func (w *AuditWorker) HandleTransactionRecorded(ctx context.Context, msg *amqp.TransactionRecordedMessage) error {
	tx, err := msg.Transaction()
	if err != nil {
		w.rejected.Add(1)
		w.logger.WarnContext(ctx, "Rejecting transaction event",
			log.FieldEventID, msg.EventID,
			log.FieldError, err.Error())
		return fmt.Errorf("event %s: %w: %v", msg.EventID, amqp.ErrDiscard, err)
	}

	w.mirror.Apply(tx)
	w.processed.Add(1)
	balance := w.mirror.Balance()

	fields := log.NewFields().
		WithTransaction(tx).
		WithBalance(balance).
		WithOperation(log.OpConsume)
	fields[log.FieldEventID] = msg.EventID
	fields[log.FieldSequence] = msg.Sequence
	w.logger.InfoContext(ctx, "Transaction event applied", fields.ToSlice()...)

	if balance != msg.BalanceAfter {
		w.drifts.Add(1)
		w.logger.WarnContext(ctx, "Mirror balance drift",
			log.FieldEventID, msg.EventID,
			log.FieldSequence, msg.Sequence,
			"mirror_balance", balance,
			"announced_balance", msg.BalanceAfter,
			"mirror_count", w.mirror.Len())
	}

	return nil
}

func (w *AuditWorker) Stats() Stats {
	return Stats{
		Processed: w.processed.Load(),
		Drifts:    w.drifts.Load(),
		Rejected:  w.rejected.Load(),
		Balance:   w.mirror.Balance(),
	}
}
