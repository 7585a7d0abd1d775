package storage

import (
	"context"
	"fmt"
	"time"
)

// ImportRun is the audit record of one statement upload.
type ImportRun struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	Accepted   int       `json:"accepted"`
	Inserted   int       `json:"inserted"`
	Duplicates int       `json:"duplicates"`
	Skipped    int       `json:"skipped"`
	ArchiveRef string    `json:"archive_ref,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func (r *SQLiteRepository) RecordImportRun(ctx context.Context, run ImportRun) error {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO import_runs (id, filename, accepted, inserted, duplicates, skipped, archive_ref, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Filename, run.Accepted, run.Inserted, run.Duplicates, run.Skipped, run.ArchiveRef,
		run.CreatedAt.UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("insert import run: %w", err)
	}
	return nil
}

// ListImportRuns returns the most recent runs first.
func (r *SQLiteRepository) ListImportRuns(ctx context.Context, limit int) ([]ImportRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, filename, accepted, inserted, duplicates, skipped, archive_ref, created_at
		FROM import_runs ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query import runs: %w", err)
	}
	defer rows.Close()

	runs := []ImportRun{}
	for rows.Next() {
		var run ImportRun
		var created string
		if err := rows.Scan(&run.ID, &run.Filename, &run.Accepted, &run.Inserted, &run.Duplicates, &run.Skipped, &run.ArchiveRef, &created); err != nil {
			return nil, fmt.Errorf("scan import run: %w", err)
		}
		if run.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
			return nil, fmt.Errorf("import run %s: parse created_at: %w", run.ID, err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate import runs: %w", err)
	}
	return runs, nil
}
