package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestSummarize(t *testing.T) {
	m := NewMonth(2024, 3)
	items := []Cashflow{
		{Kind: Income, Type: Projected, Name: "salary", Amount: dec("2000"), PaymentDate: NewDate(2024, 1, 25),
			Schedule: Recurring{Start: NewDate(2024, 1, 1), End: NewDate(2024, 12, 31)}},
		{Kind: Expenditure, Type: Projected, Name: "rent", Amount: dec("900"), PaymentDate: NewDate(2024, 1, 1),
			Schedule: Recurring{Start: NewDate(2024, 1, 1), End: NewDate(2024, 12, 31)}},
		{Kind: Income, Type: Actual, Name: "ACME PAYROLL", Amount: dec("1999.50"), PaymentDate: NewDate(2024, 3, 25), Schedule: OneOff{}, Category: "Salary"},
		{Kind: Expenditure, Type: Actual, Name: "TESCO", Amount: dec("45.20"), PaymentDate: NewDate(2024, 3, 3), Schedule: OneOff{}, Category: "Groceries"},
		{Kind: Expenditure, Type: Actual, Name: "TESCO", Amount: dec("12.30"), PaymentDate: NewDate(2024, 3, 9), Schedule: OneOff{}, Category: "Groceries"},
		{Kind: Expenditure, Type: Actual, Name: "MYSTERY", Amount: dec("7"), PaymentDate: NewDate(2024, 3, 10), Schedule: OneOff{}},
		{Kind: Expenditure, Type: Actual, Name: "APRIL", Amount: dec("100"), PaymentDate: NewDate(2024, 4, 1), Schedule: OneOff{}},
	}

	s := Summarize(m, items)
	if !s.Projected.Income.Equal(dec("2000")) || !s.Projected.Expenditure.Equal(dec("900")) {
		t.Fatalf("projected = %+v", s.Projected)
	}
	if !s.Actual.Income.Equal(dec("1999.50")) || !s.Actual.Expenditure.Equal(dec("64.50")) {
		t.Fatalf("actual = %+v", s.Actual)
	}
	if !s.Actual.Savings().Equal(dec("1935")) {
		t.Fatalf("actual savings = %s", s.Actual.Savings())
	}

	byName := map[string]decimal.Decimal{}
	for _, c := range s.ByCategory {
		byName[c.Name] = c.Amount
	}
	if !byName["Groceries"].Equal(dec("57.50")) {
		t.Errorf("Groceries = %s", byName["Groceries"])
	}
	if !byName[Uncategorized].Equal(dec("7")) {
		t.Errorf("Uncategorized = %s", byName[Uncategorized])
	}
}

func TestSummarizeHistoryRunningSavings(t *testing.T) {
	months := []Month{NewMonth(2024, 1), NewMonth(2024, 2), NewMonth(2024, 3)}
	items := []Cashflow{
		{Kind: Income, Type: Actual, Name: "pay", Amount: dec("100"), PaymentDate: NewDate(2024, 1, 5), Schedule: OneOff{}},
		{Kind: Expenditure, Type: Actual, Name: "shop", Amount: dec("30"), PaymentDate: NewDate(2024, 2, 5), Schedule: OneOff{}},
		{Kind: Income, Type: Actual, Name: "pay", Amount: dec("50"), PaymentDate: NewDate(2024, 3, 5), Schedule: OneOff{}},
	}

	got := SummarizeHistory(months, items)
	want := []string{"100", "70", "120"}
	if len(got) != len(want) {
		t.Fatalf("got %d summaries", len(got))
	}
	for i, w := range want {
		if !got[i].RunningSavings.Equal(dec(w)) {
			t.Errorf("month %d running = %s, want %s", i, got[i].RunningSavings, w)
		}
	}
}
