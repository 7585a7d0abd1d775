package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"planner/internal/amqp"
	"planner/internal/archive"
	"planner/internal/core"
	"planner/internal/log"
	"planner/internal/statement"
	"planner/internal/storage"
)

// ImportReport is the outcome of one statement import.
type ImportReport struct {
	RunID       string                 `json:"run_id"`
	Filename    string                 `json:"filename"`
	Lines       int                    `json:"lines"`
	Accepted    int                    `json:"accepted"`
	Inserted    int                    `json:"inserted"`
	Duplicates  int                    `json:"duplicates"`
	CashflowIDs []int64                `json:"cashflow_ids"`
	Skipped     []statement.SkippedRow `json:"skipped"`
	DryRun      bool                   `json:"dry_run,omitempty"`
	ArchiveRef  string                 `json:"archive_ref,omitempty"`
	Items       []core.Cashflow        `json:"-"`
}

// ImportService parses statements, stores the new rows and announces them.
// Categorization happens later, off the request path.
type ImportService struct {
	store     CashflowStore
	publisher Publisher
	cache     Invalidator
	archive   archive.StatementArchiver
	logger    *log.Logger
	now       func() time.Time
}

// NewImportService wires the import path. publisher and cache may be nil.
func NewImportService(store CashflowStore, publisher Publisher, cache Invalidator, logger *log.Logger) *ImportService {
	if logger == nil {
		logger = log.Discard()
	}
	return &ImportService{
		store:     store,
		publisher: publisher,
		cache:     cache,
		logger:    logger.WithComponent(log.ComponentImport),
		now:       time.Now,
	}
}

// WithArchive keeps the raw bytes of every stored import in a.
func (s *ImportService) WithArchive(a archive.StatementArchiver) *ImportService {
	s.archive = a
	return s
}

// Import parses r with cfg and persists every accepted row that is not
// already stored.
func (s *ImportService) Import(ctx context.Context, filename string, r io.Reader, cfg statement.Config) (ImportReport, error) {
	var raw []byte
	if s.archive != nil {
		data, err := io.ReadAll(r)
		if err != nil {
			return ImportReport{Filename: filename}, fmt.Errorf("read %s: %w", filename, err)
		}
		raw = data
		r = bytes.NewReader(data)
	}

	report, err := s.parse(ctx, filename, r, cfg)
	if err != nil {
		return report, err
	}
	if s.store == nil {
		return report, fmt.Errorf("import service has no storage")
	}

	report.RunID = uuid.NewString()
	if s.archive != nil {
		// A failed upload leaves the run without a reference rather than
		// rejecting the statement.
		ref, err := s.archive.Store(ctx, report.RunID, filename, raw)
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to archive statement", log.FieldImportRun, report.RunID, log.FieldError, err)
		}
		report.ArchiveRef = ref
	}
	res, err := s.store.UpsertCashflows(ctx, report.RunID, report.Items)
	if err != nil {
		return report, fmt.Errorf("store cashflows: %w", err)
	}
	report.Inserted = len(res.InsertedIDs)
	report.Duplicates = res.Duplicates
	report.CashflowIDs = append(report.CashflowIDs, res.InsertedIDs...)

	run := storage.ImportRun{
		ID:         report.RunID,
		Filename:   filename,
		Accepted:   report.Accepted,
		Inserted:   report.Inserted,
		Duplicates: report.Duplicates,
		Skipped:    len(report.Skipped),
		ArchiveRef: report.ArchiveRef,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.store.RecordImportRun(ctx, run); err != nil {
		// The rows are stored; losing the audit record is not worth failing for.
		s.logger.ErrorContext(ctx, "Failed to record import run", log.FieldImportRun, report.RunID, log.FieldError, err)
	}

	if report.Inserted > 0 {
		if s.cache != nil {
			s.cache.Invalidate()
		}
		s.publish(ctx, report)
	}

	s.logger.InfoContext(ctx, "Statement imported", log.NewFields().
		WithOperation(log.OpImport).
		WithImport(report.RunID, filename, report.Accepted, report.Inserted, len(report.Skipped)).
		ToSlice()...)
	return report, nil
}

// Preview parses without storing anything.
func (s *ImportService) Preview(ctx context.Context, filename string, r io.Reader, cfg statement.Config) (ImportReport, error) {
	report, err := s.parse(ctx, filename, r, cfg)
	report.DryRun = true
	return report, err
}

func (s *ImportService) parse(ctx context.Context, filename string, r io.Reader, cfg statement.Config) (ImportReport, error) {
	report := ImportReport{Filename: filename, CashflowIDs: []int64{}, Skipped: []statement.SkippedRow{}}
	if err := cfg.Validate(); err != nil {
		return report, err
	}

	res, err := statement.NewParser(cfg, s.logger).Parse(ctx, r)
	if err != nil {
		return report, fmt.Errorf("parse %s: %w", filename, err)
	}
	report.Lines = res.Lines
	report.Skipped = append(report.Skipped, res.Skipped...)
	report.Items = res.Items
	report.Accepted = len(res.Items)
	return report, nil
}

func (s *ImportService) publish(ctx context.Context, report ImportReport) {
	if s.publisher == nil {
		s.logger.WarnContext(ctx, "No publisher configured, skipping import completed message",
			log.FieldImportRun, report.RunID)
		return
	}
	msg := amqp.NewImportCompletedMessage(report.RunID, report.Filename, report.CashflowIDs)
	if err := s.publisher.PublishImportCompleted(ctx, msg); err != nil {
		// Rows stay uncategorized until the next POST /categorize.
		s.logger.ErrorContext(ctx, "Failed to publish import completed message",
			log.FieldImportRun, report.RunID, log.FieldError, err)
	}
}
