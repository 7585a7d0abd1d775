package sheets

import (
	"context"

	"planner/internal/core"
)

// Ports for outbound adapters.
type (
	// CashflowExporter mirrors categorized cashflows to an external sheet.
	CashflowExporter interface {
		Export(ctx context.Context, items []core.Cashflow) (ref string, err error)
	}
)

// Header is the column layout every exporter writes.
var Header = []string{"Date", "Kind", "Type", "Description", "Amount", "Category"}

// Row renders one cashflow in Header order.
func Row(c core.Cashflow) []string {
	return []string{
		c.PaymentDate.String(),
		string(c.Kind),
		string(c.Type),
		c.Name,
		core.FormatAmount(c.Amount),
		c.CategoryOrDefault(),
	}
}
