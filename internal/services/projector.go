package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"budget/internal/cache"
	"budget/internal/core"
	"budget/internal/storage"
)

const (
	excludedExpenseCategory = "Transfer"
	topCategoryLimit        = 5
	recentTransactionLimit  = 3
	topGoalLimit            = 3
)

// ProjectorConfig holds configuration for the dashboard projector
type ProjectorConfig struct {
	// CacheSize is the number of users whose dashboard is kept (default: 256)
	CacheSize int

	// CacheTTL bounds how stale a cached dashboard may get (default: 5m)
	CacheTTL time.Duration
}

func DefaultProjectorConfig() ProjectorConfig {
	return ProjectorConfig{
		CacheSize: 256,
		CacheTTL:  5 * time.Minute,
	}
}

// Projector answers the read-side dashboard queries. It never writes.
type Projector struct {
	queries *storage.Queries
	cache   *cache.LRUCache[core.Dashboard]
	group   singleflight.Group
	now     func() time.Time

	// generations is bumped per user by Notify. A build only caches its
	// result when the user's generation is unchanged since the build began.
	mu          sync.Mutex
	generations map[int64]uint64

	afterBuild func(userID int64)
}

func NewProjector(storage *storage.SQLiteRepository, config ProjectorConfig) *Projector {
	if config.CacheSize <= 0 {
		config.CacheSize = DefaultProjectorConfig().CacheSize
	}
	if config.CacheTTL <= 0 {
		config.CacheTTL = DefaultProjectorConfig().CacheTTL
	}
	return &Projector{
		queries: storage.Queries(),
		cache:       cache.NewLRUCache[core.Dashboard](config.CacheSize, config.CacheTTL),
		now:         time.Now,
		generations: make(map[int64]uint64),
	}
}

// Cache exposes the dashboard cache so a cache.Manager can sweep it.
func (p *Projector) Cache() *cache.LRUCache[core.Dashboard] {
	return p.cache
}

func dashboardPrefix(userID int64) string {
	return fmt.Sprintf("user:%d:", userID)
}

func dashboardKey(userID int64, today core.Date) string {
	return dashboardPrefix(userID) + today.String()
}

// Notify drops the cached dashboard of the user the event is about and
// stops builds already in flight from caching what they read.
func (p *Projector) Notify(ctx context.Context, ev core.LedgerEvent) error {
	p.mu.Lock()
	p.generations[ev.UserID]++
	n := p.cache.DeletePrefix(dashboardPrefix(ev.UserID))
	p.mu.Unlock()
	p.group.Forget(dashboardKey(ev.UserID, core.Today(p.now)))

	if n > 0 {
		slog.DebugContext(ctx, "Dashboard cache invalidated", "user_id", ev.UserID, "event", ev.Type)
	}
	return nil
}

func (p *Projector) generation(userID int64) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.generations[userID]
}

// storeIfCurrent caches d unless a ledger event for the user arrived since
// gen was read.
func (p *Projector) storeIfCurrent(key string, userID int64, gen uint64, d core.Dashboard) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.generations[userID] != gen {
		return false
	}
	p.cache.Set(key, d)
	return true
}

func (p *Projector) TotalBalance(ctx context.Context, userID int64) (core.Money, error) {
	return p.queries.SumAccountBalances(ctx, userID)
}

func (p *Projector) AccountSummaries(ctx context.Context, userID int64) ([]core.AccountSummary, error) {
	accounts, err := p.queries.ListAccountsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]core.AccountSummary, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, core.AccountSummary{ID: a.ID, Type: a.Type, Name: a.Name, Balance: a.Balance})
	}
	return out, nil
}

func (p *Projector) NetWorth(ctx context.Context, userID int64) (core.NetWorth, error) {
	accounts, err := p.queries.ListAccountsByUser(ctx, userID)
	if err != nil {
		return core.NetWorth{}, err
	}
	nw := core.NetWorth{Breakdown: make([]core.NetWorthEntry, 0, len(accounts))}
	for _, a := range accounts {
		nw.Total = nw.Total.Add(a.Balance)
		nw.Breakdown = append(nw.Breakdown, core.NetWorthEntry{Name: a.Name, Balance: a.Balance})
	}
	return nw, nil
}

// IncomeExpenseSummary returns this month and last month, in that order.
func (p *Projector) IncomeExpenseSummary(ctx context.Context, userID int64) ([]core.IncomeExpense, error) {
	today := core.Today(p.now)
	lastMonth := core.NewDate(today.Year(), today.Month(), 1).AddDate(0, -1, 0)

	months := []core.IncomeExpense{
		{Label: "This month", Year: today.Year(), Month: today.Month()},
		{Label: "Last month", Year: lastMonth.Year(), Month: int(lastMonth.Month())},
	}
	for i := range months {
		first, last := core.MonthRange(months[i].Year, months[i].Month)
		income, err := p.queries.SumIncome(ctx, userID, first, last)
		if err != nil {
			return nil, err
		}
		expense, err := p.queries.SumExpense(ctx, userID, first, last)
		if err != nil {
			return nil, err
		}
		months[i].Income = income
		months[i].Expense = expense
	}
	return months, nil
}

// IncomeTrend returns the dense monthly income of this year and last year.
func (p *Projector) IncomeTrend(ctx context.Context, userID int64) (core.IncomeTrend, error) {
	year := core.Today(p.now).Year()
	trend := core.IncomeTrend{
		Labels:       core.MonthLabels,
		CurrentYear:  year,
		PreviousYear: year - 1,
	}

	current, err := p.queries.IncomeByMonth(ctx, userID, year)
	if err != nil {
		return core.IncomeTrend{}, err
	}
	previous, err := p.queries.IncomeByMonth(ctx, userID, year-1)
	if err != nil {
		return core.IncomeTrend{}, err
	}
	trend.Current = core.DenseMonths(current)
	trend.Previous = core.DenseMonths(previous)
	return trend, nil
}

// TopExpenseCategories ranks spending categories, transfers excluded. Equal
// totals are ordered by category name.
func (p *Projector) TopExpenseCategories(ctx context.Context, userID int64) ([]core.CategoryAmount, error) {
	return p.queries.TopExpenseCategories(ctx, userID, excludedExpenseCategory, topCategoryLimit)
}

func (p *Projector) RecentTransactions(ctx context.Context, userID int64) ([]core.RecentTransaction, error) {
	return p.queries.RecentTransactions(ctx, userID, recentTransactionLimit)
}

// SavingGoalSummaries returns the user's largest goals by target.
func (p *Projector) SavingGoalSummaries(ctx context.Context, userID int64) ([]core.GoalSummary, error) {
	goals, err := p.queries.TopGoalsByTarget(ctx, userID, topGoalLimit)
	if err != nil {
		return nil, err
	}
	out := make([]core.GoalSummary, 0, len(goals))
	for _, g := range goals {
		out = append(out, core.GoalSummary{
			ID: g.ID, Title: g.Title, Target: g.Target, Contributed: g.Contributed, Date: g.Date,
		})
	}
	return out, nil
}

func (p *Projector) GoalStats(ctx context.Context, userID int64) ([]core.GoalStat, error) {
	if _, err := p.queries.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	counts, err := p.queries.CountGoals(ctx, userID, core.Today(p.now))
	if err != nil {
		return nil, err
	}
	return counts.Stats(), nil
}

// Dashboard assembles every view for the user. Results are cached until a
// ledger event for the user arrives or the TTL passes; concurrent callers for
// the same user share one build. Each caller gets its own copy.
func (p *Projector) Dashboard(ctx context.Context, userID int64) (core.Dashboard, error) {
	if err := core.ValidateID(userID, "user id"); err != nil {
		return core.Dashboard{}, err
	}
	key := dashboardKey(userID, core.Today(p.now))
	if d, ok := p.cache.Get(key); ok {
		return d.Clone(), nil
	}

	v, err, shared := p.group.Do(key, func() (any, error) {
		gen := p.generation(userID)
		d, err := p.build(ctx, userID)
		if err != nil {
			return core.Dashboard{}, err
		}
		if p.afterBuild != nil {
			p.afterBuild(userID)
		}
		if !p.storeIfCurrent(key, userID, gen, d) {
			slog.DebugContext(ctx, "Dashboard changed during build, not cached", "user_id", userID)
		}
		return d, nil
	})
	if err != nil {
		return core.Dashboard{}, fmt.Errorf("build dashboard: %w", err)
	}
	if shared {
		slog.DebugContext(ctx, "Dashboard build shared", "user_id", userID)
	}
	return v.(core.Dashboard).Clone(), nil
}

func (p *Projector) build(ctx context.Context, userID int64) (core.Dashboard, error) {
	start := time.Now()
	d := core.Dashboard{UserID: userID, GeneratedAt: p.now().UTC()}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.TotalBalance, err = p.TotalBalance(ctx, userID)
		return err
	})
	g.Go(func() (err error) {
		d.Accounts, err = p.AccountSummaries(ctx, userID)
		return err
	})
	g.Go(func() (err error) {
		d.NetWorth, err = p.NetWorth(ctx, userID)
		return err
	})
	g.Go(func() (err error) {
		d.Monthly, err = p.IncomeExpenseSummary(ctx, userID)
		return err
	})
	g.Go(func() (err error) {
		d.Trend, err = p.IncomeTrend(ctx, userID)
		return err
	})
	g.Go(func() (err error) {
		d.TopCategories, err = p.TopExpenseCategories(ctx, userID)
		return err
	})
	g.Go(func() (err error) {
		d.Recent, err = p.RecentTransactions(ctx, userID)
		return err
	})
	g.Go(func() (err error) {
		d.Goals, err = p.SavingGoalSummaries(ctx, userID)
		return err
	})
	g.Go(func() (err error) {
		d.GoalStats, err = p.GoalStats(ctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.Dashboard{}, err
	}

	slog.DebugContext(ctx, "Dashboard built", "user_id", userID, "duration", time.Since(start))
	return d, nil
}
