package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"planner/internal/categorize"
	"planner/internal/core"
	"planner/internal/storage"
)

var testRules = categorize.RuleSet{
	Income:      []categorize.Rule{{Pattern: "acme", Category: "Salary"}},
	Expenditure: []categorize.Rule{{Pattern: "TESCO", Category: "Groceries"}, {Pattern: "TESCO PETROL", Category: "Car"}},
}

func seedItems(t *testing.T, repo *storage.SQLiteRepository, items ...core.Cashflow) []int64 {
	t.Helper()
	res, err := repo.UpsertCashflows(context.Background(), "", items)
	if err != nil {
		t.Fatalf("UpsertCashflows: %v", err)
	}
	return res.InsertedIDs
}

func actualItem(kind core.Kind, name, amount string, d core.Date) core.Cashflow {
	return core.Cashflow{
		Kind:        kind,
		Type:        core.Actual,
		Name:        name,
		Amount:      decimal.RequireFromString(amount),
		PaymentDate: d,
		Schedule:    core.OneOff{},
	}
}

func TestCategorizeProcessor_Process(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	if err := repo.ReplaceRules(ctx, testRules); err != nil {
		t.Fatalf("ReplaceRules: %v", err)
	}
	day := core.NewDate(2024, 3, 1)
	ids := seedItems(t, repo,
		actualItem(core.Expenditure, "Tesco Petrol 12", "40", day),
		actualItem(core.Income, "ACME LTD", "2000", day),
		actualItem(core.Expenditure, "CORNER SHOP", "3", day),
	)
	inv := &countingInvalidator{}
	p := NewCategorizeProcessor(repo, inv, nil)

	updated, err := p.Process(ctx, ids[:2])
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(updated) != 2 {
		t.Fatalf("updated = %+v", updated)
	}
	// First match wins even though the later rule is more specific.
	got, _ := repo.GetCashflows(ctx, ids)
	want := []string{"Groceries", "Salary", ""}
	for i, c := range got {
		if c.Category != want[i] {
			t.Errorf("%s category = %q, want %q", c.Name, c.Category, want[i])
		}
	}
	if inv.n != 1 {
		t.Errorf("invalidated %d times", inv.n)
	}

	again, err := p.Process(ctx, ids[:2])
	if err != nil || len(again) != 0 {
		t.Errorf("re-processing categorized items = %+v, %v", again, err)
	}

	rest, err := p.ProcessUncategorized(ctx)
	if err != nil {
		t.Fatalf("ProcessUncategorized: %v", err)
	}
	if len(rest) != 1 || rest[0].Category != categorize.DefaultExpenditureCategory {
		t.Errorf("fallback = %+v", rest)
	}
}

func TestCategorizeProcessor_KeepsManualCategories(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	if err := repo.ReplaceRules(ctx, testRules); err != nil {
		t.Fatalf("ReplaceRules: %v", err)
	}
	ids := seedItems(t, repo, actualItem(core.Expenditure, "TESCO", "5", core.NewDate(2024, 3, 1)))
	if err := repo.SetCategory(ctx, ids[0], "Gifts"); err != nil {
		t.Fatalf("SetCategory: %v", err)
	}

	updated, err := NewCategorizeProcessor(repo, nil, nil).Process(ctx, ids)
	if err != nil || len(updated) != 0 {
		t.Fatalf("Process = %+v, %v", updated, err)
	}
	got, _ := repo.GetCashflows(ctx, ids)
	if got[0].Category != "Gifts" {
		t.Errorf("manual category overwritten with %q", got[0].Category)
	}
}

func TestCategorizeProcessor_Suggest(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	p := NewCategorizeProcessor(repo, nil, nil)

	if got, err := p.Suggest(ctx, core.Income, "ACME"); err != nil || got != categorize.DefaultIncomeCategory {
		t.Errorf("Suggest without rules = %q, %v", got, err)
	}
	if err := repo.ReplaceRules(ctx, testRules); err != nil {
		t.Fatalf("ReplaceRules: %v", err)
	}
	if got, _ := p.Suggest(ctx, core.Income, "payment from Acme Ltd"); got != "Salary" {
		t.Errorf("Suggest = %q, want Salary", got)
	}
}

func TestSeedRules(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	seeded, err := SeedRules(ctx, repo, testRules)
	if err != nil || !seeded {
		t.Fatalf("first SeedRules = %v, %v", seeded, err)
	}

	other := categorize.RuleSet{Income: []categorize.Rule{{Pattern: "X", Category: "Y"}}}
	seeded, err = SeedRules(ctx, repo, other)
	if err != nil || seeded {
		t.Fatalf("SeedRules over existing rules = %v, %v", seeded, err)
	}
	got, _ := repo.ListRules(ctx)
	if len(got.Expenditure) != 2 {
		t.Errorf("existing rules replaced: %+v", got)
	}
}

// editingStore sets a manual category right after the processor reads the
// items, as a user editing concurrently would.
type editingStore struct {
	*storage.SQLiteRepository
	editID   int64
	category string
}

func (s *editingStore) GetCashflows(ctx context.Context, ids []int64) ([]core.Cashflow, error) {
	items, err := s.SQLiteRepository.GetCashflows(ctx, ids)
	if err != nil {
		return nil, err
	}
	return items, s.SetCategory(ctx, s.editID, s.category)
}

func TestCategorizeProcessor_ConcurrentManualEditWins(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	if err := repo.ReplaceRules(ctx, testRules); err != nil {
		t.Fatalf("ReplaceRules: %v", err)
	}
	day := core.NewDate(2024, 3, 1)
	ids := seedItems(t, repo,
		actualItem(core.Expenditure, "TESCO", "5", day),
		actualItem(core.Income, "ACME", "2000", day),
	)
	store := &editingStore{SQLiteRepository: repo, editID: ids[0], category: "Gifts"}
	inv := &countingInvalidator{}

	updated, err := NewCategorizeProcessor(store, inv, nil).Process(ctx, ids)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(updated) != 1 || updated[0].Name != "ACME" {
		t.Fatalf("updated = %+v", updated)
	}
	got, _ := repo.GetCashflows(ctx, ids)
	if got[0].Category != "Gifts" || got[1].Category != "Salary" {
		t.Errorf("categories = %q, %q", got[0].Category, got[1].Category)
	}
	if inv.n != 1 {
		t.Errorf("invalidated %d times", inv.n)
	}
}
