// Package categorize suggests categories for cashflow descriptions from an
// ordered list of substring rules.
package categorize

import (
	"strings"

	"planner/internal/core"
)

const (
	DefaultExpenditureCategory = "Miscellaneous"
	DefaultIncomeCategory      = "Other"
)

// Rule maps descriptions containing Pattern to Category. Matching ignores
// case.
type Rule struct {
	Pattern  string `yaml:"pattern" json:"pattern"`
	Category string `yaml:"category" json:"category"`
}

// RuleSet holds the ordered rules for each kind.
type RuleSet struct {
	Income      []Rule `yaml:"income" json:"income"`
	Expenditure []Rule `yaml:"expenditure" json:"expenditure"`
}

// Suggest returns the category of the first rule whose pattern occurs in
// description, or fallback when none does. Earlier rules win.
func Suggest(description string, rules []Rule, fallback string) string {
	desc := strings.ToUpper(description)
	for _, r := range rules {
		if strings.Contains(desc, strings.ToUpper(r.Pattern)) {
			return r.Category
		}
	}
	return fallback
}

// Engine applies a fixed RuleSet. It never mutates its rules and is safe
// for concurrent use.
type Engine struct {
	income      []Rule
	expenditure []Rule
}

func NewEngine(rules RuleSet) *Engine {
	return &Engine{
		income:      normalize(rules.Income),
		expenditure: normalize(rules.Expenditure),
	}
}

// normalize copies rules, uppercasing patterns once and dropping blank
// ones, which would otherwise match every description. Surrounding spaces
// are part of a pattern and are kept.
func normalize(rules []Rule) []Rule {
	out := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if strings.TrimSpace(r.Pattern) == "" {
			continue
		}
		out = append(out, Rule{Pattern: strings.ToUpper(r.Pattern), Category: r.Category})
	}
	return out
}

func (e *Engine) SuggestIncome(description string) string {
	return Suggest(description, e.income, DefaultIncomeCategory)
}

func (e *Engine) SuggestExpenditure(description string) string {
	return Suggest(description, e.expenditure, DefaultExpenditureCategory)
}

// Suggest dispatches on kind. Unknown kinds get the expenditure default.
func (e *Engine) Suggest(kind core.Kind, description string) string {
	if kind == core.Income {
		return e.SuggestIncome(description)
	}
	return e.SuggestExpenditure(description)
}

// Apply returns a copy of items where every uncategorized item carries a
// suggested category. Items that already have one are left alone.
func (e *Engine) Apply(items []core.Cashflow) []core.Cashflow {
	out := make([]core.Cashflow, len(items))
	for i, c := range items {
		if c.Category == "" || c.Category == core.Uncategorized {
			c.Category = e.Suggest(c.Kind, c.Name)
		}
		out[i] = c
	}
	return out
}

// Rules returns a copy of the engine's rules.
func (e *Engine) Rules() RuleSet {
	return RuleSet{
		Income:      append([]Rule(nil), e.income...),
		Expenditure: append([]Rule(nil), e.expenditure...),
	}
}
