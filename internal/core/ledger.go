package core

import (
	"errors"
	"fmt"
	"math"
	"sync"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

type (
	// Kind tells whether a transaction adds to or subtracts from the balance.
	Kind string

	// Transaction is a single recorded income or expense. Values are copied
	// in and out of the ledger, so a recorded transaction cannot be changed.
	Transaction struct {
		Kind        Kind
		Amount      int64
		Description string
	}
)

var ErrUnknownKind = errors.New("unknown transaction kind")

// ParseKind maps a stored or transmitted kind back to a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case Income, Expense:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Label returns the human readable name of the kind.
func (k Kind) Label() string {
	switch k {
	case Income:
		return "Income"
	case Expense:
		return "Expense"
	default:
		return string(k)
	}
}

// Signed returns the amount with the sign it contributes to the balance.
func (t Transaction) Signed() int64 {
	if t.Kind == Expense {
		return -t.Amount
	}
	return t.Amount
}

// Ledger keeps a running balance together with the full, append-only
// transaction history. The zero value is an empty ledger ready for use.
//
// All methods are safe for concurrent use.
type Ledger struct {
	mu      sync.RWMutex
	balance int64
	history []Transaction
}

// NewLedger returns an empty ledger with a zero balance.
func NewLedger() *Ledger {
	return &Ledger{}
}

// RecordIncome adds amount to the balance and appends an income entry.
// The sign of amount is not checked. It returns the same ledger.
func (l *Ledger) RecordIncome(amount int64, description string) *Ledger {
	return l.Apply(Transaction{Kind: Income, Amount: amount, Description: description})
}

// RecordExpense subtracts amount from the balance and appends an expense entry.
// The balance may go negative. It returns the same ledger.
func (l *Ledger) RecordExpense(amount int64, description string) *Ledger {
	return l.Apply(Transaction{Kind: Expense, Amount: amount, Description: description})
}

// Apply appends tx to the history and adjusts the balance by its signed amount.
// Kinds other than Income and Expense are treated as income; callers that
// decode kinds from outside the process go through ParseKind first.
func (l *Ledger) Apply(tx Transaction) *Ledger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balance += tx.Signed()
	l.history = append(l.history, tx)
	return l
}

// Fits reports whether tx can be applied to l without wrapping the balance.
func (l *Ledger) Fits(tx Transaction) bool {
	if tx.Kind == Expense && tx.Amount == math.MinInt64 {
		return false
	}
	return !AddOverflows(l.Balance(), tx.Signed())
}

// Balance returns the current balance.
func (l *Ledger) Balance() int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balance
}

// History returns a copy of every recorded transaction in insertion order.
func (l *Ledger) History() []Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Transaction, len(l.history))
	copy(out, l.history)
	return out
}

// Len returns the number of recorded transactions.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.history)
}
