package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/HeadAech/ExpenseTracker/internal/cache"
	"github.com/HeadAech/ExpenseTracker/internal/core"
	"github.com/HeadAech/ExpenseTracker/internal/events"
	"github.com/HeadAech/ExpenseTracker/internal/log"
	"github.com/HeadAech/ExpenseTracker/internal/storage"
)

const (
	statsCacheSize = 64
	statsCacheTTL  = 5 * time.Minute
)

// TodaySummary is the total spend for the current calendar day.
type TodaySummary struct {
	Window core.Window
	Total  core.Money
	Count  int
}

// MonthOverview compares the current calendar month against the previous one.
// Delta is current minus previous, signed.
type MonthOverview struct {
	Current  core.Money
	Previous core.Money
	Delta    core.Money
}

// TopTag is the highest-spending tag of the current month. OK is false when
// every expense in the month is untagged. A tag that was deleted after its
// expenses were written keeps only its ID.
type TopTag struct {
	Tag     core.Tag
	Total   core.Money
	Percent float64
	OK      bool
}

// BudgetReport pairs the persisted budget preferences with the evaluation for
// the period the limit applies to.
type BudgetReport struct {
	Config core.BudgetConfig
	Status core.BudgetStatus
}

// StatsService computes aggregate views over the expense store. Window fetches
// are memoized in an LRU cache; any store mutation clears the whole cache,
// because a single changed row can move every derived total.
type StatsService struct {
	store  Store
	logger *log.Logger
	cache  cache.Cache[[]core.Expense]
}

func NewStatsService(store Store, logger *log.Logger) *StatsService {
	return &StatsService{
		store:  store,
		logger: logger.WithComponent(log.ComponentStats),
		cache:  cache.NewLRU[[]core.Expense](statsCacheSize, statsCacheTTL),
	}
}

// Watch invalidates the cache on every store change until ctx is cancelled.
func (s *StatsService) Watch(ctx context.Context, hub *events.Hub) {
	ch, cancel := hub.Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ch:
			if !ok {
				return
			}
			s.cache.Clear()
		}
	}
}

// TodaySummary sums the current day's expenses.
func (s *StatsService) TodaySummary(ctx context.Context, now time.Time) (TodaySummary, error) {
	window, err := core.TodayWindow(now)
	if err != nil {
		return TodaySummary{}, fmt.Errorf("today window: %w", err)
	}

	expenses, err := s.fetchWindow(ctx, window)
	if err != nil {
		return TodaySummary{}, err
	}

	return TodaySummary{
		Window: window,
		Total:  core.Total(expenses),
		Count:  len(expenses),
	}, nil
}

// MonthOverview totals the current and previous calendar months.
func (s *StatsService) MonthOverview(ctx context.Context, now time.Time) (MonthOverview, error) {
	current, err := core.CurrentMonthWindow(now)
	if err != nil {
		return MonthOverview{}, fmt.Errorf("current month window: %w", err)
	}
	previous, err := core.PreviousMonthWindow(now)
	if err != nil {
		return MonthOverview{}, fmt.Errorf("previous month window: %w", err)
	}

	currentExpenses, err := s.fetchWindow(ctx, current)
	if err != nil {
		return MonthOverview{}, err
	}
	previousExpenses, err := s.fetchWindow(ctx, previous)
	if err != nil {
		return MonthOverview{}, err
	}

	currentTotal := core.Total(currentExpenses)
	previousTotal := core.Total(previousExpenses)
	return MonthOverview{
		Current:  currentTotal,
		Previous: previousTotal,
		Delta:    currentTotal.Sub(previousTotal),
	}, nil
}

// WeeklySeries returns exactly seven day buckets ending today, ascending.
// Days without expenses appear as zero buckets.
func (s *StatsService) WeeklySeries(ctx context.Context, now time.Time) ([]core.DayBucket, error) {
	window, err := core.LastSevenDaysWindow(now)
	if err != nil {
		return nil, fmt.Errorf("weekly window: %w", err)
	}

	expenses, err := s.fetchWindow(ctx, window)
	if err != nil {
		return nil, err
	}

	return core.FillDays(core.LastSevenDays(now), core.SummarizeByDay(expenses)), nil
}

// RangeSeries buckets an arbitrary inclusive date range by day. The series is
// sparse: only days with spend appear. A reversed range yields an empty series.
func (s *StatsService) RangeSeries(ctx context.Context, from, to time.Time) ([]core.DayBucket, error) {
	window := core.Between(from, to)
	if window.IsEmpty() {
		return nil, nil
	}

	expenses, err := s.fetchWindow(ctx, window)
	if err != nil {
		return nil, err
	}
	return core.SummarizeByDay(expenses), nil
}

// TopTag ranks this month's tags by total spend and resolves the winner.
func (s *StatsService) TopTag(ctx context.Context, now time.Time) (TopTag, error) {
	window, err := core.CurrentMonthWindow(now)
	if err != nil {
		return TopTag{}, fmt.Errorf("current month window: %w", err)
	}

	expenses, err := s.fetchWindow(ctx, window)
	if err != nil {
		return TopTag{}, err
	}

	tagID, total, ok := core.MostPaidTag(expenses)
	if !ok {
		return TopTag{}, nil
	}

	top := TopTag{
		Total:   total,
		Percent: core.PercentOfTotal(total, core.Total(expenses)),
		OK:      true,
	}

	tag, err := s.store.GetTag(ctx, tagID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		// The tag row is gone but its expenses still reference it.
		s.logger.WarnContext(ctx, "Top tag no longer exists", log.FieldTagID, tagID)
		top.Tag = core.Tag{ID: tagID}
	case err != nil:
		return TopTag{}, fmt.Errorf("resolve top tag: %w", err)
	default:
		top.Tag = tag
	}
	return top, nil
}

// BudgetReport evaluates spend against the persisted budget limit, over the
// day or month window the configured period selects.
func (s *StatsService) BudgetReport(ctx context.Context, now time.Time) (BudgetReport, error) {
	cfg, err := s.store.GetBudgetConfig(ctx)
	if err != nil {
		return BudgetReport{}, fmt.Errorf("load budget config: %w", err)
	}

	var window core.Window
	switch cfg.Period {
	case core.BudgetDaily:
		window, err = core.TodayWindow(now)
	default:
		window, err = core.CurrentMonthWindow(now)
	}
	if err != nil {
		return BudgetReport{}, fmt.Errorf("budget window: %w", err)
	}

	expenses, err := s.fetchWindow(ctx, window)
	if err != nil {
		return BudgetReport{}, err
	}

	return BudgetReport{
		Config: cfg,
		Status: core.EvaluateBudget(cfg.Limit, core.Total(expenses)),
	}, nil
}

// UpdateBudget persists new budget preferences.
func (s *StatsService) UpdateBudget(ctx context.Context, cfg core.BudgetConfig) error {
	if !cfg.Period.Valid() {
		return fmt.Errorf("invalid budget period %q", cfg.Period)
	}
	if cfg.Limit.Cents < 0 {
		return fmt.Errorf("budget limit: %w", core.ErrInvalidAmount)
	}
	if err := s.store.SetBudgetConfig(ctx, cfg); err != nil {
		return fmt.Errorf("save budget config: %w", err)
	}
	return nil
}

func (s *StatsService) fetchWindow(ctx context.Context, w core.Window) ([]core.Expense, error) {
	key := windowKey(w)
	if expenses, ok := s.cache.Get(key); ok {
		return expenses, nil
	}

	expenses, err := s.store.FetchExpenses(ctx, storage.Filter{Window: &w})
	if err != nil {
		return nil, fmt.Errorf("fetch window: %w", err)
	}

	s.cache.Set(key, expenses)
	return expenses, nil
}

func windowKey(w core.Window) string {
	return fmt.Sprintf("%d:%d:%t", w.Start.Unix(), w.End.Unix(), w.ExclusiveEnd)
}
