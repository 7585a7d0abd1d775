package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"planner/internal/cache"
	"planner/internal/core"
	"planner/internal/log"
	"planner/internal/storage"
)

// MaxHistoryMonths bounds a single history request.
const MaxHistoryMonths = 120

var ErrInvalidRange = errors.New("invalid month range")

// Occurrence is one item as it falls in a particular month.
type Occurrence struct {
	core.Cashflow
	Date core.Date
}

// MonthDetail is a month's summary plus the items behind it.
type MonthDetail struct {
	Summary     core.MonthSummary
	Occurrences []Occurrence
}

// HistoryService builds month summaries from stored cashflows and keeps
// recent results in memory until the data changes.
type HistoryService struct {
	store     HistoryStore
	summaries *cache.LRUCache[[]core.MonthSummary]
	details   *cache.LRUCache[MonthDetail]
	logger    *log.Logger
}

func NewHistoryService(store HistoryStore, ttl time.Duration, logger *log.Logger) *HistoryService {
	if logger == nil {
		logger = log.Discard()
	}
	return &HistoryService{
		store:     store,
		summaries: cache.NewLRUCache[[]core.MonthSummary](32, ttl),
		details:   cache.NewLRUCache[MonthDetail](64, ttl),
		logger:    logger.WithComponent(log.ComponentSummary),
	}
}

// RegisterCaches hands the service's caches to m for periodic sweeping.
func (s *HistoryService) RegisterCaches(m *cache.Manager) {
	m.Register(s.summaries)
	m.Register(s.details)
}

// Invalidate drops every cached result.
func (s *HistoryService) Invalidate() {
	s.summaries.Clear()
	s.details.Clear()
}

// History summarises every month from from's month through to's month.
func (s *HistoryService) History(ctx context.Context, from, to time.Time) ([]core.MonthSummary, error) {
	if from.After(to) {
		return nil, fmt.Errorf("%w: %s is after %s", ErrInvalidRange, from.Format("2006-01"), to.Format("2006-01"))
	}
	months := core.HistoricalMonths(from, to)
	if len(months) > MaxHistoryMonths {
		return nil, fmt.Errorf("%w: %d months requested, at most %d allowed", ErrInvalidRange, len(months), MaxHistoryMonths)
	}

	key := months[0].Key() + ".." + months[len(months)-1].Key()
	if cached, ok := s.summaries.Get(key); ok {
		return cached, nil
	}

	stored, err := s.store.GetOrCreateMonths(ctx, months)
	if err != nil {
		return nil, fmt.Errorf("load months: %w", err)
	}
	items, err := s.loadAll(ctx)
	if err != nil {
		return nil, err
	}

	summaries := core.SummarizeHistory(stored, items)
	s.summaries.Set(key, summaries)
	s.logger.DebugContext(ctx, "History summarised", log.FieldOperation, log.OpSummarize, "months", len(summaries), "items", len(items))
	return summaries, nil
}

// MonthDetail returns the summary and dated items of one calendar month.
func (s *HistoryService) MonthDetail(ctx context.Context, year, month int) (MonthDetail, error) {
	if month < 1 || month > 12 {
		return MonthDetail{}, fmt.Errorf("%w: month %d", ErrInvalidRange, month)
	}
	m := core.NewMonth(year, month)
	if cached, ok := s.details.Get(m.Key()); ok {
		return cached, nil
	}

	stored, err := s.store.GetOrCreateMonths(ctx, []core.Month{m})
	if err != nil {
		return MonthDetail{}, fmt.Errorf("load month: %w", err)
	}
	if len(stored) == 1 {
		m = stored[0]
	}
	items, err := s.loadAll(ctx)
	if err != nil {
		return MonthDetail{}, err
	}

	detail := MonthDetail{Summary: core.Summarize(m, items), Occurrences: []Occurrence{}}
	for _, c := range core.ForMonth(m, items) {
		if d, ok := core.OccurrenceIn(m, c); ok {
			detail.Occurrences = append(detail.Occurrences, Occurrence{Cashflow: c, Date: d})
		}
	}
	sort.SliceStable(detail.Occurrences, func(i, j int) bool {
		return detail.Occurrences[i].Date.Before(detail.Occurrences[j].Date.Time)
	})

	s.details.Set(m.Key(), detail)
	return detail, nil
}

// loadAll fetches income and expenditure side by side.
func (s *HistoryService) loadAll(ctx context.Context) ([]core.Cashflow, error) {
	var income, expenditure []core.Cashflow
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		income, err = s.store.ListCashflows(gctx, storage.CashflowFilter{Kind: core.Income})
		return err
	})
	g.Go(func() error {
		var err error
		expenditure, err = s.store.ListCashflows(gctx, storage.CashflowFilter{Kind: core.Expenditure})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load cashflows: %w", err)
	}
	return append(income, expenditure...), nil
}

// UpdateNotes stores the free-text notes of a month.
func (s *HistoryService) UpdateNotes(ctx context.Context, id int64, notes string) error {
	if err := s.store.UpdateMonthNotes(ctx, id, notes); err != nil {
		return err
	}
	s.Invalidate()
	return nil
}
