package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"budget/internal/core"
	"budget/internal/storage"
)

// DriftSweeperConfig holds configuration for the drift sweeper
type DriftSweeperConfig struct {
	// Interval is how often accounts are checked (default: 15m)
	Interval time.Duration

	// BatchSize is the max number of accounts repaired per sweep (default: 100)
	BatchSize int

	// MaxRetries bounds replays of a repair after a version conflict (default: 3)
	MaxRetries int
}

func DefaultDriftSweeperConfig() DriftSweeperConfig {
	return DriftSweeperConfig{
		Interval:   15 * time.Minute,
		BatchSize:  100,
		MaxRetries: DefaultMaxRetries,
	}
}

// DriftSweeper periodically finds spending accounts whose cached balance no
// longer equals the sum of their transactions and recomputes them.
type DriftSweeper struct {
	storage    *storage.SQLiteRepository
	reconciler *Reconciler
	uow        unitOfWork
	notifiers  []Notifier
	config     DriftSweeperConfig

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewDriftSweeper(
	storage *storage.SQLiteRepository,
	reconciler *Reconciler,
	config DriftSweeperConfig,
	notifiers ...Notifier,
) *DriftSweeper {
	def := DefaultDriftSweeperConfig()
	if config.Interval <= 0 {
		config.Interval = def.Interval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = def.BatchSize
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = def.MaxRetries
	}
	return &DriftSweeper{
		storage:    storage,
		reconciler: reconciler,
		uow:        unitOfWork{repo: storage, maxRetries: config.MaxRetries},
		notifiers:  notifiers,
		config:     config,
	}
}

// Start begins the sweep loop. Returns an error if already running.
func (s *DriftSweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("drift sweeper is already running")
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	go s.runLoop(ctx)

	slog.InfoContext(ctx, "Drift sweeper started",
		"interval", s.config.Interval,
		"batch_size", s.config.BatchSize)

	return nil
}

// Stop signals the loop and waits for the sweep in progress to finish.
func (s *DriftSweeper) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	close(s.stopCh)

	select {
	case <-s.doneCh:
		slog.InfoContext(ctx, "Drift sweeper stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Drift sweeper stop timed out")
		return ctx.Err()
	}

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	return nil
}

func (s *DriftSweeper) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *DriftSweeper) runLoop(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	s.sweep(ctx)

	for {
		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *DriftSweeper) sweep(ctx context.Context) {
	if _, err := s.SweepOnce(ctx); err != nil {
		slog.ErrorContext(ctx, "Drift sweep failed", "error", err)
	}
}

// SweepOnce repairs up to BatchSize drifted accounts and returns how many
// were repaired.
func (s *DriftSweeper) SweepOnce(ctx context.Context) (int, error) {
	drifts, err := s.storage.Queries().ListDriftedAccounts(ctx, s.config.BatchSize)
	if err != nil {
		return 0, err
	}

	repaired := 0
	for _, d := range drifts {
		select {
		case <-ctx.Done():
			return repaired, ctx.Err()
		default:
		}

		err := s.uow.run(ctx, "repair_drift", func(q *storage.Queries) error {
			a, err := q.GetAccount(ctx, d.AccountID)
			if err != nil {
				return err
			}
			_, err = s.reconciler.RecomputeSpendingBalance(ctx, q, a)
			return err
		})
		if err != nil {
			slog.ErrorContext(ctx, "Failed to repair account balance",
				"account_id", d.AccountID,
				"error", err)
			continue
		}

		slog.WarnContext(ctx, "Account balance drift repaired",
			"account_id", d.AccountID,
			"user_id", d.UserID,
			"cached_cents", d.Cached.Cents,
			"ledger_cents", d.Ledger.Cents)

		notifyAll(ctx, s.notifiers, core.LedgerEvent{
			Type:       core.EventBalanceRepaired,
			UserID:     d.UserID,
			AccountIDs: []int64{d.AccountID},
			Strategy:   core.StrategyRecompute,
			OccurredAt: time.Now().UTC(),
		})
		repaired++
	}
	return repaired, nil
}
