package main

import (
	"context"
	"errors"
	"os"

	"budget/internal/amqp"
	"budget/internal/cli"
	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/worker"
)

func main() {
	cfg := cli.LoadConfig()
	logger := cli.SetupLogger(cfg, log.ComponentWorker, os.Stdout)
	logger.Info("Starting budget-worker")
	cli.MustValidate(cfg, logger)
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the audit worker")
		os.Exit(1)
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	ctx, stop := cli.SignalContext(context.Background(), logger)
	defer stop()

	audit := worker.NewAuditWorker(core.NewLedger(), logger)

	err = client.ConsumeTransactionRecorded(ctx, audit.HandleTransactionRecorded)
	stats := audit.Stats()
	logger.Info("Worker shutdown complete",
		"processed", stats.Processed,
		"drifts", stats.Drifts,
		"rejected", stats.Rejected,
		log.FieldBalance, stats.Balance)

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
		os.Exit(1)
	}
}
