package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"planner/internal/core"
	"planner/internal/log"

	_ "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid record")
)

type SQLiteRepository struct {
	db            *sql.DB
	logger        *log.Logger
	schemaVersion uint
}

// NewSQLiteRepository opens the database at dbPath, creating its directory
// if needed, and applies pending migrations.
func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = log.Discard()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows a single writer; funnel everything through one conn.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON; PRAGMA busy_timeout = 5000;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	repo := &SQLiteRepository{
		db:            db,
		logger:        logger.WithComponent(log.ComponentStorage),
		schemaVersion: version,
	}
	repo.logger.Info("SQLite repository ready", "path", dbPath, "schema_version", version)
	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the database connection.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) SchemaVersion() uint {
	return r.schemaVersion
}

// CashflowFilter narrows ListCashflows. Zero fields match everything.
type CashflowFilter struct {
	Kind              core.Kind
	Type              core.CashflowType
	UncategorizedOnly bool
}

// UpsertResult reports what UpsertCashflows did with each input item.
type UpsertResult struct {
	InsertedIDs []int64
	Duplicates  int
}

// UpsertCashflows inserts items that are not already stored. Two items are
// the same when name (ignoring case), amount, payment date, kind and type
// all match, so re-importing an overlapping statement is harmless.
// Repeats inside items are all kept.
// runID may be empty for items that did not come from an import.
func (r *SQLiteRepository) UpsertCashflows(ctx context.Context, runID string, items []core.Cashflow) (UpsertResult, error) {
	res := UpsertResult{InsertedIDs: []int64{}}
	if len(items) == 0 {
		return res, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Only rows stored before this call count as duplicates; identical
	// rows within one batch are separate purchases.
	var lastID int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(id), 0) FROM cashflows`).Scan(&lastID); err != nil {
		return res, fmt.Errorf("read last cashflow id: %w", err)
	}

	exists, err := tx.PrepareContext(ctx, `
		SELECT id FROM cashflows
		WHERE lower(name) = lower(?) AND amount = ? AND payment_date = ? AND kind = ? AND type = ? AND id <= ?
		LIMIT 1`)
	if err != nil {
		return res, fmt.Errorf("prepare duplicate lookup: %w", err)
	}
	defer exists.Close()

	for _, c := range items {
		if err := c.Validate(); err != nil {
			return res, fmt.Errorf("%w: %q: %w", ErrInvalid, c.Name, err)
		}

		var id int64
		err := exists.QueryRowContext(ctx, c.Name, c.Amount.String(), c.PaymentDate.Format(dateLayout), string(c.Kind), string(c.Type), lastID).Scan(&id)
		switch {
		case err == nil:
			res.Duplicates++
			continue
		case !errors.Is(err, sql.ErrNoRows):
			return res, fmt.Errorf("look up duplicate: %w", err)
		}

		id, err = insertCashflow(ctx, tx, runID, c)
		if err != nil {
			return res, err
		}
		res.InsertedIDs = append(res.InsertedIDs, id)
	}

	if err := tx.Commit(); err != nil {
		return res, fmt.Errorf("commit transaction: %w", err)
	}
	r.logger.InfoContext(ctx, "Cashflows upserted",
		log.FieldImportRun, runID,
		log.FieldInserted, len(res.InsertedIDs),
		"duplicates", res.Duplicates)
	return res, nil
}

// CreateCashflow stores a single item without the duplicate check.
func (r *SQLiteRepository) CreateCashflow(ctx context.Context, c core.Cashflow) (int64, error) {
	if err := c.Validate(); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return insertCashflow(ctx, r.db, "", c)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertCashflow(ctx context.Context, db execer, runID string, c core.Cashflow) (int64, error) {
	var (
		recurring  int
		start, end sql.NullString
	)
	if rec, ok := c.Schedule.(core.Recurring); ok {
		recurring = 1
		start = sql.NullString{String: rec.Start.Format(dateLayout), Valid: true}
		end = sql.NullString{String: rec.End.Format(dateLayout), Valid: true}
	}
	run := sql.NullString{String: runID, Valid: runID != ""}

	result, err := db.ExecContext(ctx, `
		INSERT INTO cashflows (kind, type, name, amount, payment_date, recurring, start_date, end_date, category, import_run_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(c.Kind), string(c.Type), c.Name, c.Amount.String(), c.PaymentDate.Format(dateLayout),
		recurring, start, end, c.Category, run)
	if err != nil {
		return 0, fmt.Errorf("insert cashflow: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read cashflow id: %w", err)
	}
	return id, nil
}

const cashflowColumns = `id, kind, type, name, amount, payment_date, recurring, start_date, end_date, category`

// ListCashflows returns stored items in insertion order. Rows whose
// recurrence data is incomplete come back with a nil Schedule.
func (r *SQLiteRepository) ListCashflows(ctx context.Context, f CashflowFilter) ([]core.Cashflow, error) {
	var (
		where []string
		args  []any
	)
	if f.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, string(f.Kind))
	}
	if f.Type != "" {
		where = append(where, "type = ?")
		args = append(args, string(f.Type))
	}
	if f.UncategorizedOnly {
		where = append(where, "(category = '' OR category = ?)")
		args = append(args, core.Uncategorized)
	}
	query := `SELECT ` + cashflowColumns + ` FROM cashflows`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY id`
	return r.queryCashflows(ctx, query, args...)
}

// GetCashflows returns the items with the given IDs. Unknown IDs are ignored.
func (r *SQLiteRepository) GetCashflows(ctx context.Context, ids []int64) ([]core.Cashflow, error) {
	if len(ids) == 0 {
		return []core.Cashflow{}, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return r.queryCashflows(ctx, `SELECT `+cashflowColumns+` FROM cashflows WHERE id IN (`+placeholders+`) ORDER BY id`, args...)
}

func (r *SQLiteRepository) queryCashflows(ctx context.Context, query string, args ...any) ([]core.Cashflow, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query cashflows: %w", err)
	}
	defer rows.Close()

	items := []core.Cashflow{}
	for rows.Next() {
		var (
			c                  core.Cashflow
			kind, typ          string
			amount, paid       string
			recurring          bool
			startDate, endDate sql.NullString
		)
		if err := rows.Scan(&c.ID, &kind, &typ, &c.Name, &amount, &paid, &recurring, &startDate, &endDate, &c.Category); err != nil {
			return nil, fmt.Errorf("scan cashflow: %w", err)
		}
		c.Kind = core.Kind(kind)
		c.Type = core.CashflowType(typ)

		if c.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("cashflow %d: parse amount %q: %w", c.ID, amount, err)
		}
		t, err := time.Parse(dateLayout, paid)
		if err != nil {
			return nil, fmt.Errorf("cashflow %d: parse payment date %q: %w", c.ID, paid, err)
		}
		c.PaymentDate = core.DateOf(t)

		c.Schedule, err = core.NewSchedule(recurring, parseNullDate(startDate), parseNullDate(endDate))
		if err != nil {
			r.logger.WarnContext(ctx, "Cashflow has unusable schedule",
				log.FieldCashflow, c.ID, log.FieldError, err)
			c.Schedule = nil
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cashflows: %w", err)
	}
	return items, nil
}

func parseNullDate(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, s.String)
	if err != nil {
		return nil
	}
	return &t
}

// SetCategory assigns category to the item with the given id.
func (r *SQLiteRepository) SetCategory(ctx context.Context, id int64, category string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE cashflows SET category = ? WHERE id = ?`, category, id)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return expectRow(result, "cashflow", id)
}

// SetCategories assigns categories in one transaction, keyed by item id.
// Items that gained a different category since they were read are left
// alone. It returns the ids that were written.
func (r *SQLiteRepository) SetCategories(ctx context.Context, categories map[int64]string) ([]int64, error) {
	written := []int64{}
	if len(categories) == 0 {
		return written, nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		UPDATE cashflows SET category = ?
		WHERE id = ? AND (category = '' OR category = ? OR category = ?)`)
	if err != nil {
		return nil, fmt.Errorf("prepare category update: %w", err)
	}
	defer stmt.Close()
	for id, category := range categories {
		result, err := stmt.ExecContext(ctx, category, id, core.Uncategorized, category)
		if err != nil {
			return nil, fmt.Errorf("update category of %d: %w", id, err)
		}
		if n, err := result.RowsAffected(); err != nil {
			return nil, fmt.Errorf("rows affected: %w", err)
		} else if n > 0 {
			written = append(written, id)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return written, nil
}

// DeleteCashflow removes one item.
func (r *SQLiteRepository) DeleteCashflow(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM cashflows WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete cashflow: %w", err)
	}
	return expectRow(result, "cashflow", id)
}

func expectRow(result sql.Result, what string, id int64) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
	}
	return nil
}
