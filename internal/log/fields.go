package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldQuery      = "query"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldSuccess    = "success"
	FieldError      = "error"
	FieldOperation  = "operation"

	FieldImportRun = "import_run"
	FieldFilename  = "filename"
	FieldLine      = "line"
	FieldRaw       = "raw"
	FieldReason    = "reason"
	FieldAccepted  = "accepted"
	FieldInserted  = "inserted"
	FieldSkipped   = "skipped"
	FieldCashflow  = "cashflow_id"
	FieldKind      = "kind"
	FieldCategory  = "category"
	FieldMonth     = "month"
	FieldSheetsRef = "sheets_ref"
)

// Components defines standard component names
const (
	ComponentApp        = "app"
	ComponentHTTP       = "http"
	ComponentImport     = "import"
	ComponentStatement  = "statement"
	ComponentCategorize = "categorize"
	ComponentSummary    = "summary"
	ComponentStorage    = "storage"
	ComponentAMQP       = "amqp"
	ComponentWorker     = "worker"
	ComponentSheets     = "sheets"
	ComponentRateLimit  = "rate_limit"
	ComponentTrace      = "trace"
	ComponentArchive    = "archive"
)

// Operations defines standard operation names
const (
	OpImport     = "import"
	OpParse      = "parse"
	OpCategorize = "categorize"
	OpSummarize  = "summarize"
	OpExport     = "export"
	OpUpdate     = "update"
	OpList       = "list"
	OpShutdown   = "shutdown"
	OpStartup    = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithImport adds the outcome counters of a statement import.
func (f LogFields) WithImport(runID, filename string, accepted, inserted, skipped int) LogFields {
	f[FieldImportRun] = runID
	f[FieldFilename] = filename
	f[FieldAccepted] = accepted
	f[FieldInserted] = inserted
	f[FieldSkipped] = skipped
	return f
}

func (f LogFields) WithHTTPRequest(method, path, query, userAgent string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldQuery] = query
	f[FieldUserAgent] = userAgent
	return f
}

func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = statusCode < 400
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
