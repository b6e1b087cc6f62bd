package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"budget/internal/cache"
	"budget/internal/cli"
	"budget/internal/log"
	"budget/internal/services"
	"budget/internal/worker"
)

const (
	cacheSweepInterval = time.Minute
	shutdownTimeout    = 30 * time.Second
)

func main() {
	os.Exit(run())
}

// run returns the process exit code so deferred cleanup runs before exit.
func run() int {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))

	logger.Info("Starting ledger-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if !cfg.MessagingEnabled() {
		logger.Error("ledger-worker requires AMQP_URL")
		return 1
	}

	sqliteRepo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer sqliteRepo.Close()

	amqpClient, err := cli.ConnectAMQP(logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		return 1
	}
	defer amqpClient.Close()

	svc := cli.NewServices(cfg, sqliteRepo, amqpClient)
	importWorker := worker.NewImportWorker(svc.Importer, cfg.ImportJobTimeout)
	sweeper := services.NewDriftSweeper(sqliteRepo, svc.Reconciler, services.DriftSweeperConfig{
		Interval:   cfg.DriftSweepInterval,
		BatchSize:  cfg.DriftSweepBatchSize,
		MaxRetries: cfg.ReconcileMaxRetries,
	}, svc.Notifiers...)

	caches := cache.NewManager()
	caches.Register("dashboard", svc.Projector.Cache())

	ctx, done := cli.GracefulShutdown(logger, shutdownTimeout, func(ctx context.Context) {
		if err := sweeper.Stop(ctx); err != nil {
			logger.Warn("Drift sweeper did not stop cleanly", log.FieldError, err)
		}
		caches.Stop()
	})

	workerCtx := log.NewContext(ctx, logger.WithComponent(log.ComponentWorker))
	if err := sweeper.Start(log.NewContext(ctx, logger.WithComponent(log.ComponentSweeper))); err != nil {
		logger.Error("Failed to start drift sweeper", log.FieldError, err)
		return 1
	}
	caches.StartCleanup(cacheSweepInterval)

	g, gctx := errgroup.WithContext(workerCtx)
	g.Go(func() error {
		err := amqpClient.ConsumeImportJobs(gctx, importWorker.HandleImportJob)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if err := g.Wait(); err != nil {
		logger.Error("Import job consumption failed", log.FieldError, err)
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := sweeper.Stop(stopCtx); err != nil {
			logger.Warn("Drift sweeper did not stop cleanly", log.FieldError, err)
		}
		caches.Stop()
		return 1
	}
	cli.WaitForShutdown(ctx, done)
	return 0
}
