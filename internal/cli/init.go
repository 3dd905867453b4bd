// Package cli provides common CLI initialization utilities shared by the
// one-shot commands and the interactive shell of cmd/ledger.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"ledger/internal/backend"
	"ledger/internal/config"
	"ledger/internal/log"
	"ledger/internal/services"
	"ledger/internal/storage"
)

// SetupLogger initializes structured logging on stderr at the given level
// and sets it as the default logger.
func SetupLogger(level string) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Level = log.LevelFromString(level)
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// A missing file is not an error.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
func LoadAndValidateConfig(logger *log.Logger) (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		return nil, err
	}
	return cfg, nil
}

// Ledger bundles the store opened from configuration with the cleanup of its
// backend.
type Ledger struct {
	Store  *services.Store
	Report services.LoadReport

	cleanup backend.CleanupFunc
}

// Close releases the backend.
func (l *Ledger) Close() error {
	if l.cleanup == nil {
		return nil
	}
	return l.cleanup()
}

// OpenLedger creates the configured backend and loads the store from it.
// A degraded load is not an error; the caller decides how to warn.
func OpenLedger(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Ledger, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, log.FieldBackend, bcfg.Type)
		return nil, err
	}

	store, report := services.OpenStore(ctx, storage.NewRepository(res.Slot, logger), logger)
	return &Ledger{Store: store, Report: report, cleanup: res.Cleanup}, nil
}

// DescribeLoad turns a degraded load into a user-facing warning. It returns
// "" when there is nothing to report.
func DescribeLoad(r services.LoadReport) string {
	switch {
	case r.Err != nil:
		return fmt.Sprintf("could not read saved data (%v); starting with an empty ledger", r.Err)
	case r.Result.State == storage.StateCorrupt:
		return fmt.Sprintf("saved data is unreadable (%v); starting with an empty ledger", r.Result.Cause)
	default:
		return ""
	}
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM. cleanup
// runs once when the signal arrives. The returned stop func releases the
// signal handler.
func GracefulShutdown(logger *log.Logger, cleanup func()) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			if cleanup != nil {
				cleanup()
			}
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}
