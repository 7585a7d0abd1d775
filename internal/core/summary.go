package core

import "github.com/shopspring/decimal"

// Totals groups income and expenditure for one CashflowType.
type Totals struct {
	Income      decimal.Decimal
	Expenditure decimal.Decimal
}

// Savings is income minus expenditure.
func (t Totals) Savings() decimal.Decimal {
	return t.Income.Sub(t.Expenditure)
}

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Kind   Kind
	Name   string
	Amount decimal.Decimal
}

// MonthSummary is a compact summary of one month's matching items.
type MonthSummary struct {
	Month     Month
	Projected Totals
	Actual    Totals
	// RunningSavings accumulates actual savings over the months summarised
	// together, in order.
	RunningSavings decimal.Decimal
	ByCategory     []CategoryAmount
}

// Summarize totals the items that belong to m.
func Summarize(m Month, items []Cashflow) MonthSummary {
	s := MonthSummary{Month: m}
	index := map[string]int{}
	for _, c := range ForMonth(m, items) {
		t := &s.Actual
		if c.Type == Projected {
			t = &s.Projected
		}
		switch c.Kind {
		case Income:
			t.Income = t.Income.Add(c.Amount)
		case Expenditure:
			t.Expenditure = t.Expenditure.Add(c.Amount)
		default:
			continue
		}

		if c.Type != Actual {
			continue
		}
		key := string(c.Kind) + "/" + c.CategoryOrDefault()
		i, ok := index[key]
		if !ok {
			i = len(s.ByCategory)
			index[key] = i
			s.ByCategory = append(s.ByCategory, CategoryAmount{Kind: c.Kind, Name: c.CategoryOrDefault()})
		}
		s.ByCategory[i].Amount = s.ByCategory[i].Amount.Add(c.Amount)
	}
	s.RunningSavings = s.Actual.Savings()
	return s
}

// SummarizeHistory summarises each month in order and carries a running
// total of actual savings across them.
func SummarizeHistory(months []Month, items []Cashflow) []MonthSummary {
	out := make([]MonthSummary, 0, len(months))
	running := decimal.Zero
	for _, m := range months {
		s := Summarize(m, items)
		running = running.Add(s.Actual.Savings())
		s.RunningSavings = running
		out = append(out, s)
	}
	return out
}
