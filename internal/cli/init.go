// Package cli holds the startup steps shared by cmd/budget and cmd/budget-worker.
package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"budget/internal/config"
	"budget/internal/log"
)

// LoadConfig loads the .env file, if any, and then the environment.
// A missing .env file is not an error.
func LoadConfig() *config.Config {
	_ = godotenv.Load()
	return config.Load()
}

// SetupLogger builds the process logger at the configured level and makes it
// the slog default. An invalid level falls back to info; Validate reports it.
func SetupLogger(cfg *config.Config, component string, out io.Writer) *log.Logger {
	if out == nil {
		out = os.Stdout
	}
	level, _ := config.ParseLogLevel(cfg.LogLevel)
	logger := log.New(log.Config{Level: level, Component: component, Output: out})
	log.SetDefault(logger)
	return logger
}

// MustValidate exits the process when cfg is invalid.
func MustValidate(cfg *config.Config, logger *log.Logger) {
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM. The signal
// is logged once it arrives.
func SignalContext(parent context.Context, logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
