package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"planner/internal/core"
	"planner/internal/storage"
)

type cashflowRequest struct {
	Kind        string `json:"kind"`
	Type        string `json:"type"`
	Name        string `json:"name"`
	Amount      string `json:"amount"`
	PaymentDate string `json:"payment_date"`
	Recurring   bool   `json:"recurring"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Category    string `json:"category"`
}

func (req cashflowRequest) toCashflow() (core.Cashflow, error) {
	kind, err := parseKind(req.Kind)
	if err != nil {
		return core.Cashflow{}, err
	}
	typ, err := parseType(req.Type)
	if err != nil {
		return core.Cashflow{}, err
	}
	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		return core.Cashflow{}, err
	}
	paid, err := parseDay("payment_date", req.PaymentDate)
	if err != nil {
		return core.Cashflow{}, err
	}
	if paid == nil {
		return core.Cashflow{}, badInput("payment_date is required")
	}
	start, err := parseDay("start_date", req.StartDate)
	if err != nil {
		return core.Cashflow{}, err
	}
	end, err := parseDay("end_date", req.EndDate)
	if err != nil {
		return core.Cashflow{}, err
	}
	schedule, err := core.NewSchedule(req.Recurring, start, end)
	if err != nil {
		return core.Cashflow{}, err
	}

	return core.Cashflow{
		Kind:        kind,
		Type:        typ,
		Name:        strings.TrimSpace(req.Name),
		Amount:      amount,
		PaymentDate: core.DateOf(*paid),
		Schedule:    schedule,
		Category:    strings.TrimSpace(req.Category),
	}, nil
}

// handleCreateCashflow stores one hand-entered item, usually a projection.
func (s *Server) handleCreateCashflow(w http.ResponseWriter, r *http.Request) {
	var req cashflowRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.handleError(w, r, err)
		return
	}
	c, err := req.toCashflow()
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	created, err := s.deps.Cashflows.Create(r.Context(), c)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	w.Header().Set("Location", "/cashflows/"+strconv.FormatInt(created.ID, 10))
	writeJSON(w, http.StatusCreated, newCashflowView(created))
}

// handleListCashflows serves GET /cashflows?kind=&type=&uncategorized=.
func (s *Server) handleListCashflows(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f storage.CashflowFilter
	if v := q.Get("kind"); v != "" {
		kind, err := parseKind(v)
		if err != nil {
			s.handleError(w, r, err)
			return
		}
		f.Kind = kind
	}
	if v := q.Get("type"); v != "" {
		typ, err := parseType(v)
		if err != nil {
			s.handleError(w, r, err)
			return
		}
		f.Type = typ
	}
	if v := q.Get("uncategorized"); v != "" {
		only, err := strconv.ParseBool(v)
		if err != nil {
			s.handleError(w, r, badInput("uncategorized must be true or false, got %q", v))
			return
		}
		f.UncategorizedOnly = only
	}

	items, err := s.deps.Cashflows.List(r.Context(), f)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cashflows": newCashflowViews(items)})
}

func (s *Server) handleDeleteCashflow(w http.ResponseWriter, r *http.Request) {
	id, err := parseID("id", chi.URLParam(r, "id"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	if err := s.deps.Cashflows.Delete(r.Context(), id); err != nil {
		s.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
