package http

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"planner/internal/statement"
)

// Multipart parts above this stay on disk instead of in memory.
const uploadMemory = 1 << 20

// handleImport accepts a multipart upload with the statement in "file" and
// optional layout overrides as form fields.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	limit := s.deps.MaxUploadBytes
	if r.ContentLength > limit {
		s.handleError(w, r, &http.MaxBytesError{Limit: limit})
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(uploadMemory); err != nil {
		s.handleError(w, r, uploadError(err))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.handleError(w, r, badInput("multipart field \"file\" is required"))
		return
	}
	defer file.Close()

	cfg, err := statementConfig(r, s.deps.StatementDefaults)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	dryRun, err := formBool(r, "dry_run", false)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	filename := filepath.Base(header.Filename)
	run := s.deps.Imports.Import
	if dryRun {
		run = s.deps.Imports.Preview
	}
	report, err := run(r.Context(), filename, file, cfg)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	status := http.StatusCreated
	if dryRun {
		status = http.StatusOK
	}
	writeJSON(w, status, report)
}

func uploadError(err error) error {
	var bigErr *http.MaxBytesError
	if errors.As(err, &bigErr) {
		return bigErr
	}
	return badInput("expected a multipart/form-data upload: %v", err)
}

func (s *Server) handleListImports(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 20)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	if limit < 1 || limit > 200 {
		s.handleError(w, r, badInput("limit must be between 1 and 200"))
		return
	}
	runs, err := s.deps.Runs.ListImportRuns(r.Context(), limit)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

// statementConfig overlays the upload form fields on defaults.
func statementConfig(r *http.Request, defaults statement.Config) (statement.Config, error) {
	cfg := defaults
	var err error

	if cfg.HasHeaderRow, err = formBool(r, "has_header", defaults.HasHeaderRow); err != nil {
		return cfg, err
	}
	columns := []struct {
		field string
		dst   *int
	}{
		{"date_column", &cfg.DateColumn},
		{"description_column", &cfg.DescriptionColumn},
		{"amount_column", &cfg.AmountColumn},
		{"paid_in_column", &cfg.PaidInColumn},
	}
	for _, c := range columns {
		if *c.dst, err = formInt(r, c.field, *c.dst); err != nil {
			return cfg, err
		}
	}
	if v := strings.TrimSpace(r.FormValue("date_format")); v != "" {
		cfg.DateFormat = v
	}
	if v := strings.TrimSpace(r.FormValue("credit_rule")); v != "" {
		if cfg.Credit, err = statement.ParseCreditRule(v); err != nil {
			return cfg, err
		}
	}
	if v := strings.TrimSpace(r.FormValue("charset")); v != "" {
		cfg.Charset = v
	}
	return cfg, cfg.Validate()
}
