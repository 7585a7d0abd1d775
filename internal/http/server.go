// Package http exposes the planner over a JSON API.
package http

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"planner/internal/core"
	"planner/internal/log"
	"planner/internal/middleware/ratelimit"
	"planner/internal/middleware/security"
	"planner/internal/middleware/trace"
	"planner/internal/services"
	"planner/internal/statement"
	"planner/internal/storage"
)

// Importer parses and stores uploaded statements.
type Importer interface {
	Import(ctx context.Context, filename string, r io.Reader, cfg statement.Config) (services.ImportReport, error)
	Preview(ctx context.Context, filename string, r io.Reader, cfg statement.Config) (services.ImportReport, error)
}

// ImportRunLister lists the audit trail of past uploads.
type ImportRunLister interface {
	ListImportRuns(ctx context.Context, limit int) ([]storage.ImportRun, error)
}

// Categorizer assigns categories from the stored rules.
type Categorizer interface {
	ProcessUncategorized(ctx context.Context) ([]core.Cashflow, error)
	Suggest(ctx context.Context, kind core.Kind, description string) (string, error)
}

// CategoryLister reads the category catalogue.
type CategoryLister interface {
	ListCategories(ctx context.Context, kind core.Kind) ([]string, error)
}

// HistoryReader serves month summaries.
type HistoryReader interface {
	History(ctx context.Context, from, to time.Time) ([]core.MonthSummary, error)
	MonthDetail(ctx context.Context, year, month int) (services.MonthDetail, error)
	UpdateNotes(ctx context.Context, id int64, notes string) error
}

// CashflowManager handles items entered by hand.
type CashflowManager interface {
	Create(ctx context.Context, c core.Cashflow) (core.Cashflow, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, f storage.CashflowFilter) ([]core.Cashflow, error)
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the server routes requests to.
type Deps struct {
	Imports     Importer
	Runs        ImportRunLister
	Categorizer Categorizer
	Categories  CategoryLister
	History     HistoryReader
	Cashflows   CashflowManager
	Ready       Pinger

	// StatementDefaults fills upload form fields the client leaves out.
	StatementDefaults   statement.Config
	MaxUploadBytes      int64
	UploadRatePerMinute int
	// HistoryStart picks the first month of GET /months when from is absent.
	HistoryStart func(now time.Time) time.Time

	Logger *log.Logger
}

// Server wraps http.Server with the planner routes.
type Server struct {
	http.Server
	deps    Deps
	limiter *ratelimit.Limiter
	logger  *log.Logger
	started time.Time
	now     func() time.Time
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = log.Discard()
	}
	if deps.MaxUploadBytes <= 0 {
		deps.MaxUploadBytes = 5 << 20
	}
	if deps.HistoryStart == nil {
		deps.HistoryStart = func(now time.Time) time.Time {
			return time.Date(now.Year()-1, now.Month(), 1, 0, 0, 0, 0, time.UTC)
		}
	}

	s := &Server{
		deps: deps,
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: deps.UploadRatePerMinute,
		}),
		logger:  deps.Logger.WithComponent(log.ComponentHTTP),
		started: time.Now(),
		now:     time.Now,
	}
	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(trace.NewMiddleware(s.logger, extractClientIP).Handler)
	r.Use(chimiddleware.Recoverer)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Handler)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, http.StatusNotFound, codeNotFound, "no such route")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
	})

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/imports", func(r chi.Router) {
		r.With(s.limiter.Middleware(extractClientIP, s.onRateLimit)).Post("/", s.handleImport)
		r.Get("/", s.handleListImports)
	})

	r.Post("/categorize", s.handleCategorize)
	r.Get("/categories", s.handleListCategories)
	r.Post("/categories/suggest", s.handleSuggest)

	r.Route("/months", func(r chi.Router) {
		r.Get("/", s.handleHistory)
		r.Get("/{year}/{month}", s.handleMonthDetail)
		r.Put("/{id}/notes", s.handleUpdateNotes)
	})

	r.Route("/cashflows", func(r chi.Router) {
		r.Get("/", s.handleListCashflows)
		r.Post("/", s.handleCreateCashflow)
		r.Delete("/{id}", s.handleDeleteCashflow)
	})

	return r
}

// Shutdown stops the rate limiter and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.Server.Shutdown(ctx)
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, extractClientIP(r), log.FieldPath, r.URL.Path)
	s.writeError(w, r, http.StatusTooManyRequests, codeRateLimited, "rate limit exceeded, try again later")
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, httpStatus := "ready", http.StatusOK
	checks := map[string]string{"database": "ok"}
	if s.deps.Ready == nil {
		checks["database"] = "not configured"
	} else if err := s.deps.Ready.Ping(ctx); err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Readiness check failed", log.FieldError, err)
		checks["database"] = "failed: " + err.Error()
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{"status": status, "checks": checks})
}
