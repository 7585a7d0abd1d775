package services

import (
	"context"
	"fmt"

	"planner/internal/categorize"
	"planner/internal/core"
	"planner/internal/log"
	"planner/internal/storage"
)

// CategorizeProcessor fills in categories for stored items that have none,
// using the rules currently held in storage.
type CategorizeProcessor struct {
	store  CategoryStore
	cache  Invalidator
	logger *log.Logger
}

func NewCategorizeProcessor(store CategoryStore, cache Invalidator, logger *log.Logger) *CategorizeProcessor {
	if logger == nil {
		logger = log.Discard()
	}
	return &CategorizeProcessor{
		store:  store,
		cache:  cache,
		logger: logger.WithComponent(log.ComponentCategorize),
	}
}

// Process categorizes the given items and returns the ones it changed,
// with their new categories. Items already categorized are left alone.
func (p *CategorizeProcessor) Process(ctx context.Context, ids []int64) ([]core.Cashflow, error) {
	if len(ids) == 0 {
		return []core.Cashflow{}, nil
	}
	items, err := p.store.GetCashflows(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load cashflows: %w", err)
	}
	return p.apply(ctx, items)
}

// ProcessUncategorized categorizes every stored item without a category.
func (p *CategorizeProcessor) ProcessUncategorized(ctx context.Context) ([]core.Cashflow, error) {
	items, err := p.store.ListCashflows(ctx, storage.CashflowFilter{UncategorizedOnly: true})
	if err != nil {
		return nil, fmt.Errorf("list uncategorized cashflows: %w", err)
	}
	return p.apply(ctx, items)
}

// Suggest returns the category the current rules give description.
func (p *CategorizeProcessor) Suggest(ctx context.Context, kind core.Kind, description string) (string, error) {
	engine, err := p.engine(ctx)
	if err != nil {
		return "", err
	}
	return engine.Suggest(kind, description), nil
}

func (p *CategorizeProcessor) engine(ctx context.Context) (*categorize.Engine, error) {
	rules, err := p.store.ListRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("load category rules: %w", err)
	}
	return categorize.NewEngine(rules), nil
}

func (p *CategorizeProcessor) apply(ctx context.Context, items []core.Cashflow) ([]core.Cashflow, error) {
	pending := make([]core.Cashflow, 0, len(items))
	for _, c := range items {
		if c.Category == "" || c.Category == core.Uncategorized {
			pending = append(pending, c)
		}
	}
	if len(pending) == 0 {
		return []core.Cashflow{}, nil
	}

	engine, err := p.engine(ctx)
	if err != nil {
		return nil, err
	}
	updated := engine.Apply(pending)

	categories := make(map[int64]string, len(updated))
	for _, c := range updated {
		categories[c.ID] = c.Category
	}
	written, err := p.store.SetCategories(ctx, categories)
	if err != nil {
		return nil, fmt.Errorf("save categories: %w", err)
	}
	if len(written) < len(updated) {
		saved := make(map[int64]bool, len(written))
		for _, id := range written {
			saved[id] = true
		}
		kept := updated[:0]
		for _, c := range updated {
			if saved[c.ID] {
				kept = append(kept, c)
			}
		}
		updated = kept
	}
	if len(updated) == 0 {
		return []core.Cashflow{}, nil
	}
	if p.cache != nil {
		p.cache.Invalidate()
	}

	p.logger.InfoContext(ctx, "Cashflows categorized", log.FieldOperation, log.OpCategorize, "count", len(updated))
	return updated, nil
}

// RuleStore can report and replace the stored rules.
type RuleStore interface {
	ListRules(ctx context.Context) (categorize.RuleSet, error)
	ReplaceRules(ctx context.Context, set categorize.RuleSet) error
}

// SeedRules stores set when storage holds no rules yet, so a rules file
// configures a fresh database without overwriting later edits.
func SeedRules(ctx context.Context, store RuleStore, set categorize.RuleSet) (bool, error) {
	current, err := store.ListRules(ctx)
	if err != nil {
		return false, fmt.Errorf("load category rules: %w", err)
	}
	if len(current.Income)+len(current.Expenditure) > 0 {
		return false, nil
	}
	if len(set.Income)+len(set.Expenditure) == 0 {
		return false, nil
	}
	if err := store.ReplaceRules(ctx, set); err != nil {
		return false, fmt.Errorf("seed category rules: %w", err)
	}
	return true, nil
}
