package http

import (
	"planner/internal/core"
	"planner/internal/services"
)

// Amounts travel as fixed two-decimal strings so clients never round
// through a float.

type cashflowView struct {
	ID          int64  `json:"id"`
	Kind        string `json:"kind"`
	Type        string `json:"type"`
	Name        string `json:"name"`
	Amount      string `json:"amount"`
	PaymentDate string `json:"payment_date"`
	Recurring   bool   `json:"recurring"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
	Category    string `json:"category"`
}

func newCashflowView(c core.Cashflow) cashflowView {
	v := cashflowView{
		ID:          c.ID,
		Kind:        string(c.Kind),
		Type:        string(c.Type),
		Name:        c.Name,
		Amount:      core.FormatAmount(c.Amount),
		PaymentDate: c.PaymentDate.String(),
		Category:    c.CategoryOrDefault(),
	}
	if r, ok := c.Schedule.(core.Recurring); ok {
		v.Recurring = true
		v.StartDate = r.Start.String()
		v.EndDate = r.End.String()
	}
	return v
}

func newCashflowViews(items []core.Cashflow) []cashflowView {
	out := make([]cashflowView, 0, len(items))
	for _, c := range items {
		out = append(out, newCashflowView(c))
	}
	return out
}

type monthView struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Start string `json:"start"`
	End   string `json:"end"`
	Notes string `json:"notes"`
}

type totalsView struct {
	Income      string `json:"income"`
	Expenditure string `json:"expenditure"`
	Savings     string `json:"savings"`
}

func newTotalsView(t core.Totals) totalsView {
	return totalsView{
		Income:      core.FormatAmount(t.Income),
		Expenditure: core.FormatAmount(t.Expenditure),
		Savings:     core.FormatAmount(t.Savings()),
	}
}

type categoryAmountView struct {
	Kind   string `json:"kind"`
	Name   string `json:"name"`
	Amount string `json:"amount"`
}

type summaryView struct {
	Month          monthView            `json:"month"`
	Projected      totalsView           `json:"projected"`
	Actual         totalsView           `json:"actual"`
	RunningSavings string               `json:"running_savings"`
	ByCategory     []categoryAmountView `json:"by_category"`
}

func newSummaryView(s core.MonthSummary) summaryView {
	v := summaryView{
		Month: monthView{
			ID:    s.Month.ID,
			Name:  s.Month.Name,
			Start: s.Month.Start.String(),
			End:   s.Month.End.String(),
			Notes: s.Month.Notes,
		},
		Projected:      newTotalsView(s.Projected),
		Actual:         newTotalsView(s.Actual),
		RunningSavings: core.FormatAmount(s.RunningSavings),
		ByCategory:     make([]categoryAmountView, 0, len(s.ByCategory)),
	}
	for _, c := range s.ByCategory {
		v.ByCategory = append(v.ByCategory, categoryAmountView{
			Kind:   string(c.Kind),
			Name:   c.Name,
			Amount: core.FormatAmount(c.Amount),
		})
	}
	return v
}

type occurrenceView struct {
	cashflowView
	Date string `json:"date"`
}

type monthDetailView struct {
	summaryView
	Occurrences []occurrenceView `json:"occurrences"`
}

func newMonthDetailView(d services.MonthDetail) monthDetailView {
	v := monthDetailView{
		summaryView: newSummaryView(d.Summary),
		Occurrences: make([]occurrenceView, 0, len(d.Occurrences)),
	}
	for _, o := range d.Occurrences {
		v.Occurrences = append(v.Occurrences, occurrenceView{
			cashflowView: newCashflowView(o.Cashflow),
			Date:         o.Date.String(),
		})
	}
	return v
}
