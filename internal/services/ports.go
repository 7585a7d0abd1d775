package services

import (
	"context"

	"planner/internal/amqp"
	"planner/internal/categorize"
	"planner/internal/core"
	"planner/internal/storage"
)

// CashflowStore is the slice of storage the import path needs.
type CashflowStore interface {
	UpsertCashflows(ctx context.Context, runID string, items []core.Cashflow) (storage.UpsertResult, error)
	RecordImportRun(ctx context.Context, run storage.ImportRun) error
}

// CategoryStore is used by the categorize processor.
type CategoryStore interface {
	ListRules(ctx context.Context) (categorize.RuleSet, error)
	GetCashflows(ctx context.Context, ids []int64) ([]core.Cashflow, error)
	ListCashflows(ctx context.Context, f storage.CashflowFilter) ([]core.Cashflow, error)
	SetCategories(ctx context.Context, categories map[int64]string) ([]int64, error)
}

// HistoryStore is used by the history service.
type HistoryStore interface {
	GetOrCreateMonths(ctx context.Context, months []core.Month) ([]core.Month, error)
	ListCashflows(ctx context.Context, f storage.CashflowFilter) ([]core.Cashflow, error)
	UpdateMonthNotes(ctx context.Context, id int64, notes string) error
}

// Publisher announces finished imports. *amqp.Client satisfies it.
type Publisher interface {
	PublishImportCompleted(ctx context.Context, msg *amqp.ImportCompletedMessage) error
}

// Invalidator drops derived data after the stored cashflows change.
type Invalidator interface {
	Invalidate()
}

var (
	_ Publisher     = (*amqp.Client)(nil)
	_ CashflowStore = (*storage.SQLiteRepository)(nil)
	_ CategoryStore = (*storage.SQLiteRepository)(nil)
	_ HistoryStore  = (*storage.SQLiteRepository)(nil)
)
