package google

import (
	"context"
	"errors"
	"fmt"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"planner/internal/core"
	"planner/internal/log"
	ports "planner/internal/sheets"
)

// Exporter appends categorized cashflows to one sheet of a spreadsheet.
type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logger        *log.Logger
}

// Ensure interface conformance
var _ ports.CashflowExporter = (*Exporter)(nil)

// NewExporter creates a Sheets client authenticated with service account
// credentials. Extra options are appended after the credentials, which lets
// callers point the client at another endpoint.
func NewExporter(ctx context.Context, spreadsheetID, sheetName string, credentialsJSON []byte, logger *log.Logger, opts ...goption.ClientOption) (*Exporter, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	sheetName = strings.TrimSpace(sheetName)
	if sheetName == "" {
		return nil, errors.New("missing sheet name")
	}
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentSheets)

	clientOpts := []goption.ClientOption{goption.WithScopes(gsheet.SpreadsheetsScope)}
	if len(credentialsJSON) > 0 {
		clientOpts = append(clientOpts, goption.WithCredentialsJSON(credentialsJSON))
	}
	clientOpts = append(clientOpts, opts...)

	svc, err := gsheet.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	logger.InfoContext(ctx, "Google Sheets exporter ready", "spreadsheet_id", spreadsheetID, "sheet", sheetName)

	return &Exporter{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		logger:        logger,
	}, nil
}

// Export appends one row per item below the existing data and returns the
// range Sheets reports as updated.
func (e *Exporter) Export(ctx context.Context, items []core.Cashflow) (string, error) {
	if len(items) == 0 {
		return "", nil
	}
	if e.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	rng := fmt.Sprintf("%s!A:%s", quoteSheet(e.sheetName), lastColumn())
	vr := &gsheet.ValueRange{Values: values(items)}
	resp, err := e.svc.Spreadsheets.Values.Append(e.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", e.sheetName, err)
	}

	ref := rng
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	e.logger.InfoContext(ctx, "Cashflows exported", log.FieldOperation, log.OpExport,
		log.FieldSheetsRef, ref, "rows", len(items))
	return ref, nil
}

func values(items []core.Cashflow) [][]any {
	out := make([][]any, 0, len(items))
	for _, c := range items {
		row := ports.Row(c)
		cells := make([]any, len(row))
		for i, v := range row {
			cells[i] = v
		}
		out = append(out, cells)
	}
	return out
}

// quoteSheet wraps names with spaces or quotes in A1 single quotes.
func quoteSheet(name string) string {
	if !strings.ContainsAny(name, " '!") {
		return name
	}
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

func lastColumn() string {
	return string(rune('A' + len(ports.Header) - 1))
}
