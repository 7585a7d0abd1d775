package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"planner/internal/core"
)

// GetOrCreateMonths returns the stored row for each month, inserting the
// ones not seen before. Order follows the input. Notes survive.
func (r *SQLiteRepository) GetOrCreateMonths(ctx context.Context, months []core.Month) ([]core.Month, error) {
	out := make([]core.Month, 0, len(months))
	if len(months) == 0 {
		return out, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, m := range months {
		start, end := m.Start.Format(dateLayout), m.End.Format(dateLayout)
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO months (name, start_date, end_date) VALUES (?, ?, ?)
			ON CONFLICT (start_date, end_date) DO NOTHING`, m.Name, start, end); err != nil {
			return nil, fmt.Errorf("insert month %s: %w", m.Key(), err)
		}
		stored := m
		if err := tx.QueryRowContext(ctx,
			`SELECT id, name, notes FROM months WHERE start_date = ? AND end_date = ?`, start, end,
		).Scan(&stored.ID, &stored.Name, &stored.Notes); err != nil {
			return nil, fmt.Errorf("load month %s: %w", m.Key(), err)
		}
		out = append(out, stored)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return out, nil
}

// GetMonth loads one month by id.
func (r *SQLiteRepository) GetMonth(ctx context.Context, id int64) (core.Month, error) {
	var (
		m          core.Month
		start, end string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, start_date, end_date, notes FROM months WHERE id = ?`, id,
	).Scan(&m.ID, &m.Name, &start, &end, &m.Notes)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Month{}, fmt.Errorf("month %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.Month{}, fmt.Errorf("get month: %w", err)
	}
	s, err := time.Parse(dateLayout, start)
	if err != nil {
		return core.Month{}, fmt.Errorf("month %d: parse start: %w", id, err)
	}
	e, err := time.Parse(dateLayout, end)
	if err != nil {
		return core.Month{}, fmt.Errorf("month %d: parse end: %w", id, err)
	}
	m.Start, m.End = core.DateOf(s), core.DateOf(e)
	return m, nil
}

// UpdateMonthNotes replaces the free-text notes of a month.
func (r *SQLiteRepository) UpdateMonthNotes(ctx context.Context, id int64, notes string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE months SET notes = ? WHERE id = ?`, notes, id)
	if err != nil {
		return fmt.Errorf("update month notes: %w", err)
	}
	return expectRow(result, "month", id)
}
