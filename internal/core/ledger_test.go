package core

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_FreshIsEmpty(t *testing.T) {
	l := NewLedger()

	assert.Equal(t, int64(0), l.Balance())
	assert.Empty(t, l.History())
	assert.Equal(t, 0, l.Len())
}

func TestLedger_ZeroValueIsUsable(t *testing.T) {
	var l Ledger
	l.RecordIncome(10, "tip")

	assert.Equal(t, int64(10), l.Balance())
}

func TestLedger_IncomeThenExpense(t *testing.T) {
	l := NewLedger()

	got := l.RecordIncome(100, "salary")
	require.Same(t, l, got, "RecordIncome should return the same ledger")
	assert.Equal(t, int64(100), l.Balance())
	assert.Equal(t, []Transaction{{Kind: Income, Amount: 100, Description: "salary"}}, l.History())

	got = l.RecordExpense(30, "groceries")
	require.Same(t, l, got, "RecordExpense should return the same ledger")
	assert.Equal(t, int64(70), l.Balance())
	assert.Equal(t, []Transaction{
		{Kind: Income, Amount: 100, Description: "salary"},
		{Kind: Expense, Amount: 30, Description: "groceries"},
	}, l.History())
}

func TestLedger_NegativeBalanceAllowed(t *testing.T) {
	l := NewLedger()
	l.RecordExpense(50, "rent")

	assert.Equal(t, int64(-50), l.Balance())
}

func TestLedger_ZeroAmountIsRecorded(t *testing.T) {
	l := NewLedger().RecordIncome(20, "start")
	l.RecordExpense(0, "")

	assert.Equal(t, int64(20), l.Balance())
	assert.Equal(t, 2, l.Len())
	assert.Equal(t, Transaction{Kind: Expense, Amount: 0, Description: ""}, l.History()[1])
}

func TestLedger_NotIdempotent(t *testing.T) {
	l := NewLedger()
	l.RecordIncome(25, "refund")
	l.RecordIncome(25, "refund")

	assert.Equal(t, int64(50), l.Balance())
	assert.Len(t, l.History(), 2)
}

func TestLedger_BalanceMatchesHistory(t *testing.T) {
	ops := []Transaction{
		{Kind: Income, Amount: 1200, Description: "salary"},
		{Kind: Expense, Amount: 300, Description: "rent"},
		{Kind: Expense, Amount: 45, Description: "food"},
		{Kind: Income, Amount: -10, Description: "correction"},
		{Kind: Expense, Amount: 2000, Description: "laptop"},
	}
	l := NewLedger()
	var want int64
	for i, op := range ops {
		if op.Kind == Income {
			l.RecordIncome(op.Amount, op.Description)
			want += op.Amount
		} else {
			l.RecordExpense(op.Amount, op.Description)
			want -= op.Amount
		}
		assert.Equal(t, want, l.Balance(), "after op %d", i)
		assert.Equal(t, i+1, l.Len())
	}

	var sum int64
	for _, tx := range l.History() {
		sum += tx.Signed()
	}
	assert.Equal(t, l.Balance(), sum)
	assert.Equal(t, ops, l.History())
}

func TestLedger_HistoryIsACopy(t *testing.T) {
	l := NewLedger().RecordIncome(100, "salary")

	h := l.History()
	h[0].Amount = 1
	h = append(h, Transaction{Kind: Expense, Amount: 5})

	assert.Equal(t, int64(100), l.History()[0].Amount)
	assert.Equal(t, 1, l.Len())
}

func TestLedger_ConcurrentRecords(t *testing.T) {
	l := NewLedger()
	const workers, perWorker = 8, 250

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				l.RecordIncome(3, "in")
				l.RecordExpense(1, "out")
				_ = l.Balance()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, workers*perWorker*2, l.Len())
	assert.Equal(t, int64(workers*perWorker*2), l.Balance())
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("income")
	require.NoError(t, err)
	assert.Equal(t, Income, k)

	k, err = ParseKind("expense")
	require.NoError(t, err)
	assert.Equal(t, Expense, k)

	_, err = ParseKind("transfer")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestKindLabel(t *testing.T) {
	assert.Equal(t, "Income", Income.Label())
	assert.Equal(t, "Expense", Expense.Label())
}

func TestLedger_Fits(t *testing.T) {
	l := NewLedger().RecordIncome(math.MaxInt64, "big")

	assert.False(t, l.Fits(Transaction{Kind: Income, Amount: 1}))
	assert.True(t, l.Fits(Transaction{Kind: Expense, Amount: 1}))
	assert.True(t, l.Fits(Transaction{Kind: Income, Amount: 0}))

	empty := NewLedger()
	assert.False(t, empty.Fits(Transaction{Kind: Expense, Amount: math.MinInt64}),
		"negating MinInt64 wraps, so the expense cannot be applied")
	assert.True(t, empty.Fits(Transaction{Kind: Income, Amount: math.MinInt64}))
	assert.True(t, empty.Fits(Transaction{Kind: Expense, Amount: math.MaxInt64}))
}

func TestLedger_MaxAmountsKeepInvariant(t *testing.T) {
	l := NewLedger()
	for i := 0; i < 1000; i++ {
		require.True(t, l.Fits(Transaction{Kind: Income, Amount: MaxAmount}))
		l.RecordIncome(MaxAmount, "max")
	}
	l.RecordExpense(MaxAmount, "max")

	var sum int64
	for _, tx := range l.History() {
		sum += tx.Signed()
	}
	assert.Equal(t, 999*MaxAmount, l.Balance())
	assert.Equal(t, sum, l.Balance())
	assert.Equal(t, -MaxAmount, Transaction{Kind: Expense, Amount: MaxAmount}.Signed())
}
