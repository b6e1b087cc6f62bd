package cli

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"budget/internal/config"
	"budget/internal/core"
	"budget/internal/services"
	"budget/internal/storage"
)

func TestNewServicesWiresNotifiers(t *testing.T) {
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open repo: %v", err)
	}
	defer repo.Close()

	cfg := &config.Config{
		ReconcileMaxRetries: 2,
		DashboardCacheSize:  4,
		DashboardCacheTTL:   time.Minute,
		CSVMaxRows:          10,
		CSVInsertChunk:      5,
	}
	var events []core.LedgerEvent
	svc := NewServices(cfg, repo, services.NotifierFunc(func(_ context.Context, ev core.LedgerEvent) error {
		events = append(events, ev)
		return nil
	}))
	if len(svc.Notifiers) != 2 {
		t.Fatalf("expected projector plus extra notifier, got %d", len(svc.Notifiers))
	}

	ctx := context.Background()
	user, err := svc.Ledger.RegisterUser(ctx, "cli@example.com")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Projector.Dashboard(ctx, user.ID); err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if svc.Projector.Cache().Size() != 1 {
		t.Fatal("dashboard should be cached")
	}

	_, err = svc.Ledger.AddTransaction(ctx, user.ID, services.TransactionInput{
		Date: core.DateOf(time.Now()), Amount: core.Money{Cents: 500}, Kind: core.Credit,
		Description: "Gift", Category: "Income",
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if len(events) != 1 || events[0].Type != core.EventTransactionAdded {
		t.Fatalf("unexpected events %+v", events)
	}
	if svc.Projector.Cache().Size() != 0 {
		t.Fatal("ledger write should invalidate the dashboard")
	}
}

func TestSetupLogger(t *testing.T) {
	logger := SetupLogger("debug")
	if logger == nil || !logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("debug level should be enabled")
	}
}
