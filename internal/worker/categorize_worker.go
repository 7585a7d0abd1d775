package worker

import (
	"context"
	"fmt"
	"time"

	"planner/internal/amqp"
	"planner/internal/core"
	"planner/internal/log"
	"planner/internal/sheets"
)

// Categorizer assigns categories to stored cashflows and returns the
// items it changed.
type Categorizer interface {
	Process(ctx context.Context, ids []int64) ([]core.Cashflow, error)
	ProcessUncategorized(ctx context.Context) ([]core.Cashflow, error)
}

// CategorizeWorker categorizes freshly imported cashflows and mirrors the
// actual ones to an optional sheet.
type CategorizeWorker struct {
	categorizer Categorizer
	exporter    sheets.CashflowExporter
	logger      *log.Logger
}

// NewCategorizeWorker wires the worker. exporter may be nil.
func NewCategorizeWorker(categorizer Categorizer, exporter sheets.CashflowExporter, logger *log.Logger) *CategorizeWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &CategorizeWorker{
		categorizer: categorizer,
		exporter:    exporter,
		logger:      logger.WithComponent(log.ComponentWorker),
	}
}

// HandleImportCompleted processes a single import completed message from AMQP.
// A categorization failure is returned so the message is redelivered; an
// export failure is only logged because the categories are already saved.
func (w *CategorizeWorker) HandleImportCompleted(ctx context.Context, msg *amqp.ImportCompletedMessage) error {
	w.logger.InfoContext(ctx, "Processing import completed message",
		log.FieldImportRun, msg.RunID,
		"cashflows", len(msg.CashflowIDs))

	updated, err := w.categorizer.Process(ctx, msg.CashflowIDs)
	if err != nil {
		return fmt.Errorf("categorize import %s: %w", msg.RunID, err)
	}
	w.export(ctx, msg.RunID, updated)
	return nil
}

// CategorizePending categorizes anything left behind while the worker
// was down or messages were lost.
func (w *CategorizeWorker) CategorizePending(ctx context.Context) error {
	updated, err := w.categorizer.ProcessUncategorized(ctx)
	if err != nil {
		return fmt.Errorf("categorize pending cashflows: %w", err)
	}
	if len(updated) == 0 {
		w.logger.DebugContext(ctx, "No uncategorized cashflows found")
		return nil
	}
	w.logger.InfoContext(ctx, "Pending cashflows categorized", "count", len(updated))
	w.export(ctx, "", updated)
	return nil
}

// RunPeriodicSweep calls CategorizePending every interval until ctx ends.
// Sweep failures are logged and retried on the next tick.
func (w *CategorizeWorker) RunPeriodicSweep(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.CategorizePending(ctx); err != nil && ctx.Err() == nil {
				w.logger.ErrorContext(ctx, "Periodic categorize sweep failed", log.FieldError, err)
			}
		}
	}
}

func (w *CategorizeWorker) export(ctx context.Context, runID string, items []core.Cashflow) {
	if w.exporter == nil {
		return
	}
	actuals := make([]core.Cashflow, 0, len(items))
	for _, c := range items {
		if c.Type == core.Actual {
			actuals = append(actuals, c)
		}
	}
	if len(actuals) == 0 {
		return
	}
	ref, err := w.exporter.Export(ctx, actuals)
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to export categorized cashflows",
			log.FieldImportRun, runID, log.FieldError, err, "count", len(actuals))
		return
	}
	w.logger.InfoContext(ctx, "Exported categorized cashflows",
		log.FieldImportRun, runID, log.FieldSheetsRef, ref, "count", len(actuals))
}
