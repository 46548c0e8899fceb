package backend

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"budget/internal/amqp"
	"budget/internal/config"
	"budget/internal/log"
	"budget/internal/services"
)

// stubPublisher is read only after Cleanup, which waits for queued events.
type stubPublisher struct{ published int }

func (p *stubPublisher) PublishTransactionRecorded(context.Context, *amqp.TransactionRecordedMessage) error {
	p.published++
	return nil
}

func (p *stubPublisher) Close() error { return nil }

func testFactory() *DefaultFactory {
	return NewFactory(log.New(log.Config{Output: &bytes.Buffer{}}))
}

func TestBackendTypeIsValid(t *testing.T) {
	for _, bt := range []BackendType{MemoryBackend, SQLiteBackend} {
		if !bt.IsValid() {
			t.Errorf("%s should be valid", bt)
		}
	}
	if BackendType("postgres").IsValid() {
		t.Error("postgres should not be valid")
	}
}

func TestCreateBackend_Invalid(t *testing.T) {
	if _, err := testFactory().CreateBackend(context.Background(), Config{Type: "nope"}); err == nil {
		t.Fatal("expected error for invalid backend")
	}
}

func TestCreateBackend_Memory(t *testing.T) {
	res, err := testFactory().CreateBackend(context.Background(), Config{Type: MemoryBackend})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	defer res.Cleanup()

	if res.Service.Durable() {
		t.Error("memory backend must not be durable")
	}
	if res.Service.Balance() != 0 || res.Service.Count() != 0 {
		t.Error("memory backend should start empty")
	}
}

func TestCreateBackend_SQLiteRestoresAcrossRestarts(t *testing.T) {
	ctx := context.Background()
	cfg := Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "budget.db")}

	first, err := testFactory().CreateBackend(ctx, cfg)
	if err != nil {
		t.Fatalf("first CreateBackend: %v", err)
	}
	if _, err := first.Service.RecordIncome(ctx, 100, "salary"); err != nil {
		t.Fatalf("RecordIncome: %v", err)
	}
	if _, err := first.Service.RecordExpense(ctx, 30, "groceries"); err != nil {
		t.Fatalf("RecordExpense: %v", err)
	}
	if err := first.Cleanup(); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}

	second, err := testFactory().CreateBackend(ctx, cfg)
	if err != nil {
		t.Fatalf("second CreateBackend: %v", err)
	}
	defer second.Cleanup()

	if got := second.Service.Balance(); got != 70 {
		t.Errorf("restored balance = %d, want 70", got)
	}
	if got := second.Service.Count(); got != 2 {
		t.Errorf("restored count = %d, want 2", got)
	}
	if err := second.Service.Ping(ctx); err != nil {
		t.Errorf("Ping after restore: %v", err)
	}
}

func TestCreateBackend_Publisher(t *testing.T) {
	ctx := context.Background()

	t.Run("dial failure disables events", func(t *testing.T) {
		f := testFactory()
		f.dialPublisher = func(string, string, string) (services.EventPublisher, error) {
			return nil, errors.New("connection refused")
		}
		res, err := f.CreateBackend(ctx, Config{Type: MemoryBackend, AMQPURL: "amqp://localhost:5672/"})
		if err != nil {
			t.Fatalf("CreateBackend: %v", err)
		}
		defer res.Cleanup()
		if _, err := res.Service.RecordIncome(ctx, 1, "x"); err != nil {
			t.Fatalf("RecordIncome: %v", err)
		}
	})

	t.Run("events published when broker available", func(t *testing.T) {
		pub := &stubPublisher{}
		f := testFactory()
		f.dialPublisher = func(string, string, string) (services.EventPublisher, error) { return pub, nil }
		res, err := f.CreateBackend(ctx, Config{Type: MemoryBackend, AMQPURL: "amqp://localhost:5672/"})
		if err != nil {
			t.Fatalf("CreateBackend: %v", err)
		}
		_, _ = res.Service.RecordExpense(ctx, 2, "y")
		if err := res.Cleanup(); err != nil {
			t.Fatalf("Cleanup: %v", err)
		}
		if pub.published != 1 {
			t.Errorf("published = %d, want 1", pub.published)
		}
	})
}

func TestConfigFromAppConfig(t *testing.T) {
	cfg := ConfigFromAppConfig(&config.Config{
		DataBackend:  "sqlite",
		SQLiteDBPath: "/tmp/b.db",
		AMQPURL:      "amqp://x",
		AMQPExchange: "ex",
		AMQPQueue:    "q",
	})
	want := Config{Type: SQLiteBackend, SQLiteDBPath: "/tmp/b.db", AMQPURL: "amqp://x", AMQPExchange: "ex", AMQPQueue: "q"}
	if cfg != want {
		t.Errorf("ConfigFromAppConfig = %+v, want %+v", cfg, want)
	}
}
