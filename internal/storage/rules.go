package storage

import (
	"context"
	"fmt"

	"planner/internal/categorize"
	"planner/internal/core"
)

// ListRules returns the stored category rules in evaluation order.
func (r *SQLiteRepository) ListRules(ctx context.Context) (categorize.RuleSet, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT kind, pattern, category FROM category_rules ORDER BY kind, position`)
	if err != nil {
		return categorize.RuleSet{}, fmt.Errorf("query rules: %w", err)
	}
	defer rows.Close()

	set := categorize.RuleSet{Income: []categorize.Rule{}, Expenditure: []categorize.Rule{}}
	for rows.Next() {
		var kind string
		var rule categorize.Rule
		if err := rows.Scan(&kind, &rule.Pattern, &rule.Category); err != nil {
			return categorize.RuleSet{}, fmt.Errorf("scan rule: %w", err)
		}
		switch core.Kind(kind) {
		case core.Income:
			set.Income = append(set.Income, rule)
		case core.Expenditure:
			set.Expenditure = append(set.Expenditure, rule)
		}
	}
	if err := rows.Err(); err != nil {
		return categorize.RuleSet{}, fmt.Errorf("iterate rules: %w", err)
	}
	return set, nil
}

// ReplaceRules swaps the whole rule set atomically.
func (r *SQLiteRepository) ReplaceRules(ctx context.Context, set categorize.RuleSet) error {
	if err := set.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM category_rules`); err != nil {
		return fmt.Errorf("clear rules: %w", err)
	}
	insert := func(kind core.Kind, rules []categorize.Rule) error {
		for i, rule := range rules {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO category_rules (kind, position, pattern, category) VALUES (?, ?, ?, ?)`,
				string(kind), i, rule.Pattern, rule.Category); err != nil {
				return fmt.Errorf("insert %s rule %d: %w", kind, i, err)
			}
		}
		return nil
	}
	if err := insert(core.Income, set.Income); err != nil {
		return err
	}
	if err := insert(core.Expenditure, set.Expenditure); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	r.logger.InfoContext(ctx, "Category rules replaced",
		"income_rules", len(set.Income),
		"expenditure_rules", len(set.Expenditure))
	return nil
}

// ListCategories returns the catalogue for kind in seed order.
func (r *SQLiteRepository) ListCategories(ctx context.Context, kind core.Kind) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name FROM categories WHERE kind = ? ORDER BY id`, string(kind))
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return names, nil
}

// AddCategory extends the catalogue. Adding an existing name is a no-op.
func (r *SQLiteRepository) AddCategory(ctx context.Context, kind core.Kind, name string) error {
	if !kind.Valid() || name == "" {
		return fmt.Errorf("%w: category %q of kind %q", ErrInvalid, name, kind)
	}
	if _, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO categories (kind, name) VALUES (?, ?)`, string(kind), name); err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}
