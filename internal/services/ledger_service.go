package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"budget/internal/amqp"
	"budget/internal/core"
	"budget/internal/log"
)

var (
	ErrLedgerNotEmpty = errors.New("ledger already has transactions")
	ErrClosed         = errors.New("ledger service closed")

	// ErrJournalDiverged means the journal holds a different number of
	// transactions than the ledger, e.g. another process wrote to it.
	ErrJournalDiverged = errors.New("journal and ledger disagree")
)

// outboxSize bounds the events waiting for the broker. Events beyond it are dropped.
const outboxSize = 256

// LedgerService owns the process-wide ledger and keeps the optional journal
// and event feed in step with it.
type LedgerService struct {
	// mu orders journal appends and ledger appends identically.
	mu        sync.Mutex
	ledger    *core.Ledger
	journal   Journal
	publisher EventPublisher
	logger    *log.Logger
	closed    bool

	// outbox is filled under mu and drained by publishLoop, so events leave
	// in ledger order without holding mu during a publish.
	outbox      chan *amqp.TransactionRecordedMessage
	publishDone chan struct{}
}

// NewLedgerService wraps ledger. journal and publisher may be nil.
func NewLedgerService(ledger *core.Ledger, journal Journal, publisher EventPublisher, logger *log.Logger) *LedgerService {
	if ledger == nil {
		ledger = core.NewLedger()
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	s := &LedgerService{
		ledger:    ledger,
		journal:   journal,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentLedger),
	}
	if publisher != nil {
		s.outbox = make(chan *amqp.TransactionRecordedMessage, outboxSize)
		s.publishDone = make(chan struct{})
		go s.publishLoop()
	}
	return s
}

// RecordIncome records an income entry.
func (s *LedgerService) RecordIncome(ctx context.Context, amount int64, description string) (core.Transaction, error) {
	return s.record(ctx, core.Transaction{Kind: core.Income, Amount: amount, Description: description})
}

// RecordExpense records an expense entry.
func (s *LedgerService) RecordExpense(ctx context.Context, amount int64, description string) (core.Transaction, error) {
	return s.record(ctx, core.Transaction{Kind: core.Expense, Amount: amount, Description: description})
}

func (s *LedgerService) record(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return core.Transaction{}, ErrClosed
	}
	if !s.ledger.Fits(tx) {
		s.logger.WarnContext(ctx, "Transaction would overflow the balance",
			log.NewFields().WithTransaction(tx).WithBalance(s.ledger.Balance()).WithOperation(log.OpRecord).ToSlice()...)
		return core.Transaction{}, fmt.Errorf("record %s of %d: %w", tx.Kind, tx.Amount, core.ErrBalanceOutOfRange)
	}

	if s.journal != nil {
		if _, err := s.journal.AppendTransaction(ctx, tx); err != nil {
			s.logger.ErrorContext(ctx, "Failed to journal transaction",
				log.NewFields().WithTransaction(tx).WithOperation(log.OpRecord).WithError(err).ToSlice()...)
			return core.Transaction{}, fmt.Errorf("journal %s: %w", tx.Kind, err)
		}
	}

	s.ledger.Apply(tx)
	balance := s.ledger.Balance()
	sequence := s.ledger.Len()

	s.logger.InfoContext(ctx, "Transaction recorded",
		log.NewFields().WithTransaction(tx).WithBalance(balance).WithOperation(log.OpRecord).ToSlice()...)

	if s.outbox != nil {
		msg := amqp.NewTransactionRecordedMessage(tx, balance, sequence)
		select {
		case s.outbox <- msg:
		default:
			s.logger.WarnContext(ctx, "Event outbox full, dropping transaction event",
				log.FieldEventID, msg.EventID,
				log.FieldSequence, sequence)
		}
	}

	return tx, nil
}

// publishLoop sends queued events one at a time until the outbox is closed.
// The ledger is the source of truth; a lost event is only logged.
func (s *LedgerService) publishLoop() {
	defer close(s.publishDone)
	for msg := range s.outbox {
		if err := s.publisher.PublishTransactionRecorded(context.Background(), msg); err != nil {
			s.logger.Warn("Failed to publish transaction event",
				log.FieldEventID, msg.EventID,
				log.FieldSequence, msg.Sequence,
				log.FieldOperation, log.OpPublish,
				log.FieldError, err.Error())
		}
	}
}

// Balance returns the current ledger balance.
func (s *LedgerService) Balance() int64 {
	return s.ledger.Balance()
}

// History returns a copy of the ledger history in insertion order.
func (s *LedgerService) History() []core.Transaction {
	return s.ledger.History()
}

// Count returns the number of recorded transactions.
func (s *LedgerService) Count() int {
	return s.ledger.Len()
}

// Durable reports whether transactions outlive the process.
func (s *LedgerService) Durable() bool {
	return s.journal != nil
}

// Restore replays the journal into the ledger. It must run before any
// transaction is recorded. Without a journal it does nothing.
func (s *LedgerService) Restore(ctx context.Context) (int, error) {
	if s.journal == nil {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ledger.Len() != 0 {
		return 0, ErrLedgerNotEmpty
	}

	txs, err := s.journal.ListTransactions(ctx)
	if err != nil {
		return 0, fmt.Errorf("load journal: %w", err)
	}
	for _, tx := range txs {
		s.ledger.Apply(tx)
	}

	s.logger.InfoContext(ctx, "Ledger restored from journal",
		"count", len(txs),
		log.FieldBalance, s.ledger.Balance(),
		log.FieldOperation, log.OpReplay)

	return len(txs), nil
}

// Ping checks the journal, if any, and that it holds exactly the
// transactions the ledger has.
func (s *LedgerService) Ping(ctx context.Context) error {
	if s.journal == nil {
		return nil
	}
	if err := s.journal.Ping(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.journal.CountTransactions(ctx)
	if err != nil {
		return err
	}
	if n != int64(s.ledger.Len()) {
		return fmt.Errorf("%w: journal has %d, ledger has %d", ErrJournalDiverged, n, s.ledger.Len())
	}
	return nil
}

// Close stops recording, flushes queued events, then closes the journal and
// the publisher. Calls after the first return nil.
func (s *LedgerService) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	if s.outbox != nil {
		close(s.outbox)
	}
	s.mu.Unlock()

	if s.publishDone != nil {
		<-s.publishDone
	}

	var errs []error

	if s.journal != nil {
		if err := s.journal.Close(); err != nil {
			errs = append(errs, fmt.Errorf("journal: %w", err))
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %w", errors.Join(errs...))
	}

	return nil
}
