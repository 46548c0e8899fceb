package backend

import (
	"context"
	"fmt"

	"budget/internal/amqp"
	"budget/internal/config"
	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/services"
	"budget/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger

	// dialPublisher is replaced in tests.
	dialPublisher func(url, exchange, queue string) (services.EventPublisher, error)
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) *DefaultFactory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
		dialPublisher: func(url, exchange, queue string) (services.EventPublisher, error) {
			return amqp.NewClient(url, exchange, queue)
		},
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, cfg Config) (*BackendResult, error) {
	if !cfg.Type.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", cfg.Type)
	}

	publisher := f.createPublisher(cfg)

	var journal services.Journal
	if cfg.Type == SQLiteBackend {
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			if publisher != nil {
				_ = publisher.Close()
			}
			return nil, fmt.Errorf("failed to initialize SQLite journal: %w", err)
		}
		journal = repo
	}

	svc := services.NewLedgerService(core.NewLedger(), journal, publisher, f.logger)

	restored, err := svc.Restore(ctx)
	if err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("restore ledger: %w", err)
	}

	f.logger.Info("Initialized ledger backend",
		"backend", cfg.Type.String(),
		"db_path", cfg.SQLiteDBPath,
		"restored_transactions", restored,
		"events_enabled", publisher != nil)

	return &BackendResult{Service: svc, Cleanup: svc.Close}, nil
}

// createPublisher dials the broker when configured. A broker that cannot be
// reached disables events instead of failing startup.
func (f *DefaultFactory) createPublisher(cfg Config) services.EventPublisher {
	if cfg.AMQPURL == "" {
		return nil
	}
	publisher, err := f.dialPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without events", log.FieldError, err.Error())
		return nil
	}
	f.logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	return publisher
}

// ConfigFromAppConfig converts application config to backend config
func ConfigFromAppConfig(appConfig *config.Config) Config {
	return Config{
		Type:         BackendType(appConfig.DataBackend),
		SQLiteDBPath: appConfig.SQLiteDBPath,
		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,
	}
}
