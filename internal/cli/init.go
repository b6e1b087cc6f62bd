// Package cli provides common initialization utilities shared by
// cmd/ledger and cmd/ledger-worker.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"budget/internal/amqp"
	"budget/internal/config"
	"budget/internal/log"
	"budget/internal/services"
	"budget/internal/storage"
)

// SetupLogger initializes structured logging at the given level and sets it
// as the default logger.
func SetupLogger(level string) *log.Logger {
	logger := log.New(log.Config{
		Level:     log.ParseLevel(level),
		Component: log.ComponentApp,
	})
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// InitSQLite initializes a SQLite repository with the given path.
// Returns the repository or exits the process on failure.
func InitSQLite(logger *log.Logger, dbPath string) *storage.SQLiteRepository {
	sqliteRepo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", log.FieldError, err, log.FieldPath, dbPath)
		os.Exit(1)
	}
	return sqliteRepo
}

// ConnectAMQP dials the broker when messaging is configured. It returns a nil
// client when AMQP_URL is empty.
func ConnectAMQP(logger *log.Logger, cfg *config.Config) (*amqp.Client, error) {
	if !cfg.MessagingEnabled() {
		logger.Info("AMQP disabled, ledger events stay in process")
		return nil, nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPImportQueue, cfg.AMQPEventsRouting)
	if err != nil {
		return nil, err
	}
	logger.WithComponent(log.ComponentAMQP).Info("AMQP connected",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPImportQueue)
	return client, nil
}

// Services bundles the ledger components wired against one repository.
type Services struct {
	Repo       *storage.SQLiteRepository
	Reconciler *services.Reconciler
	Ledger     *services.LedgerService
	Importer   *services.Importer
	Projector  *services.Projector
	Notifiers  []services.Notifier
}

// NewServices wires the ledger components. The projector always subscribes
// to ledger events so cached dashboards are dropped on writes; extra
// notifiers (an AMQP client) are appended after it.
func NewServices(cfg *config.Config, repo *storage.SQLiteRepository, extra ...services.Notifier) *Services {
	projector := services.NewProjector(repo, services.ProjectorConfig{
		CacheSize: cfg.DashboardCacheSize,
		CacheTTL:  cfg.DashboardCacheTTL,
	})
	notifiers := append([]services.Notifier{projector}, extra...)

	resolver := services.NewAccountResolver()
	reconciler := services.NewReconciler()
	return &Services{
		Repo:       repo,
		Reconciler: reconciler,
		Ledger:     services.NewLedgerService(repo, resolver, reconciler, cfg.ReconcileMaxRetries, notifiers...),
		Importer: services.NewImporter(repo, resolver, reconciler, services.ImportOptions{
			MaxRows:   cfg.CSVMaxRows,
			ChunkSize: cfg.CSVInsertChunk,
		}, cfg.ReconcileMaxRetries, notifiers...),
		Projector: projector,
		Notifiers: notifiers,
	}
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(ctx context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		cancel()

		if cleanup != nil {
			cleanup(shutdownCtx)
		}

		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
