package categorize

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"planner/internal/core"
)

func TestSuggest(t *testing.T) {
	rules := []Rule{
		{Pattern: "tesco", Category: "Groceries"},
		{Pattern: "TESCO PETROL", Category: "Car"},
		{Pattern: "Netflix", Category: "Entertainment"},
	}
	cases := []struct {
		desc string
		want string
	}{
		{"TESCO STORES 2231", "Groceries"},
		// First match wins even when a later rule is more specific.
		{"tesco petrol 12", "Groceries"},
		{"NETFLIX.COM", "Entertainment"},
		{"Unknown merchant", "Miscellaneous"},
		{"", "Miscellaneous"},
	}
	for _, tc := range cases {
		if got := Suggest(tc.desc, rules, DefaultExpenditureCategory); got != tc.want {
			t.Errorf("Suggest(%q) = %q, want %q", tc.desc, got, tc.want)
		}
	}
	if got := Suggest("anything", nil, DefaultIncomeCategory); got != "Other" {
		t.Errorf("no rules: got %q", got)
	}
}

func TestEngineSuggestByKind(t *testing.T) {
	e := NewEngine(RuleSet{
		Income:      []Rule{{Pattern: "ACME", Category: "Salary"}},
		Expenditure: []Rule{{Pattern: "acme", Category: "Home"}},
	})
	if got := e.SuggestIncome("ACME LTD"); got != "Salary" {
		t.Errorf("income = %q", got)
	}
	if got := e.SuggestExpenditure("Acme Hardware"); got != "Home" {
		t.Errorf("expenditure = %q", got)
	}
	if got := e.Suggest(core.Income, "gift from gran"); got != DefaultIncomeCategory {
		t.Errorf("income fallback = %q", got)
	}
	if got := e.Suggest(core.Expenditure, "corner shop"); got != DefaultExpenditureCategory {
		t.Errorf("expenditure fallback = %q", got)
	}
}

func TestEngineIgnoresEmptyPatterns(t *testing.T) {
	e := NewEngine(RuleSet{Expenditure: []Rule{{Pattern: "  ", Category: "Car"}, {Pattern: "BP", Category: "Car"}}})
	if got := e.SuggestExpenditure("corner shop"); got != DefaultExpenditureCategory {
		t.Fatalf("empty pattern matched: %q", got)
	}
}

func TestEngineKeepsPaddedPatterns(t *testing.T) {
	rules := []Rule{{Pattern: " TFL ", Category: "Car"}}
	e := NewEngine(RuleSet{Expenditure: rules})

	tests := []struct {
		description string
		want        string
	}{
		{"NETFLIX.COM", DefaultExpenditureCategory},
		{"TFL.GOV.UK", DefaultExpenditureCategory},
		{"CARD PAYMENT TFL TRAVEL", "Car"},
	}
	for _, tt := range tests {
		got := e.SuggestExpenditure(tt.description)
		if got != tt.want {
			t.Errorf("Engine(%q) = %q, want %q", tt.description, got, tt.want)
		}
		if pkg := Suggest(tt.description, rules, DefaultExpenditureCategory); pkg != got {
			t.Errorf("Suggest(%q) = %q, Engine gave %q", tt.description, pkg, got)
		}
	}
}

func TestEngineApplyKeepsExistingCategories(t *testing.T) {
	e := NewEngine(RuleSet{Expenditure: []Rule{{Pattern: "TESCO", Category: "Groceries"}}})
	items := []core.Cashflow{
		{Kind: core.Expenditure, Name: "TESCO"},
		{Kind: core.Expenditure, Name: "TESCO", Category: "Home"},
		{Kind: core.Expenditure, Name: "TESCO", Category: core.Uncategorized},
	}
	got := e.Apply(items)
	want := []string{"Groceries", "Home", "Groceries"}
	for i, w := range want {
		if got[i].Category != w {
			t.Errorf("item %d category = %q, want %q", i, got[i].Category, w)
		}
	}
	if items[0].Category != "" {
		t.Fatalf("Apply modified its input")
	}
}

func TestEngineRulesAreIsolated(t *testing.T) {
	rules := RuleSet{Expenditure: []Rule{{Pattern: "TESCO", Category: "Groceries"}}}
	e := NewEngine(rules)
	rules.Expenditure[0].Category = "Car"
	if got := e.SuggestExpenditure("TESCO"); got != "Groceries" {
		t.Fatalf("engine saw caller mutation: %q", got)
	}
	copied := e.Rules()
	copied.Expenditure[0].Category = "Car"
	if got := e.SuggestExpenditure("TESCO"); got != "Groceries" {
		t.Fatalf("engine saw mutation through Rules(): %q", got)
	}
}

func TestEngineConcurrentUse(t *testing.T) {
	e := NewEngine(RuleSet{Expenditure: []Rule{{Pattern: "TESCO", Category: "Groceries"}}})
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if e.SuggestExpenditure("tesco") != "Groceries" {
					t.Error("unexpected suggestion")
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestLoadRules(t *testing.T) {
	doc := `
income:
  - pattern: ACME LTD
    category: Salary
expenditure:
  - pattern: TESCO
    category: Groceries
  - pattern: SHELL
    category: Car
`
	set, err := LoadRules(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("LoadRules: %v", err)
	}
	if len(set.Income) != 1 || len(set.Expenditure) != 2 {
		t.Fatalf("got %+v", set)
	}
	if set.Expenditure[1].Pattern != "SHELL" || set.Expenditure[1].Category != "Car" {
		t.Fatalf("order not preserved: %+v", set.Expenditure)
	}
}

func TestLoadRulesRejectsBadDocuments(t *testing.T) {
	cases := map[string]string{
		"empty pattern": "expenditure:\n  - pattern: \"\"\n    category: Car\n",
		"no category":   "income:\n  - pattern: ACME\n",
		"unknown field": "expenses:\n  - pattern: ACME\n    category: Car\n",
		"not yaml":      "income: [",
	}
	for name, doc := range cases {
		if _, err := LoadRules(strings.NewReader(doc)); !errors.Is(err, ErrInvalidRules) {
			t.Errorf("%s: got %v, want ErrInvalidRules", name, err)
		}
	}
}

func TestLoadRulesEmptyDocument(t *testing.T) {
	set, err := LoadRules(strings.NewReader(""))
	if err != nil {
		t.Fatalf("empty document: %v", err)
	}
	if len(set.Income)+len(set.Expenditure) != 0 {
		t.Fatalf("expected no rules, got %+v", set)
	}
}
