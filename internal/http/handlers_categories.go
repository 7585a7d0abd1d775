package http

import (
	"net/http"
	"strings"

	"planner/internal/core"
)

// handleCategorize categorizes every stored item that has no category yet.
func (s *Server) handleCategorize(w http.ResponseWriter, r *http.Request) {
	updated, err := s.deps.Categorizer.ProcessUncategorized(r.Context())
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"updated": len(updated),
		"items":   newCashflowViews(updated),
	})
}

type suggestRequest struct {
	Kind        string `json:"kind"`
	Description string `json:"description"`
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	var req suggestRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.handleError(w, r, err)
		return
	}
	kind, err := parseKind(req.Kind)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	category, err := s.deps.Categorizer.Suggest(r.Context(), kind, req.Description)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"kind": string(kind), "category": category})
}

// handleListCategories returns the catalogue keyed by kind, narrowed to
// one kind when ?kind= is given.
func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	kinds := []core.Kind{core.Income, core.Expenditure}
	if v := r.URL.Query().Get("kind"); v != "" {
		kind, err := parseKind(v)
		if err != nil {
			s.handleError(w, r, err)
			return
		}
		kinds = []core.Kind{kind}
	}

	out := make(map[string][]string, len(kinds))
	for _, k := range kinds {
		names, err := s.deps.Categories.ListCategories(r.Context(), k)
		if err != nil {
			s.handleError(w, r, err)
			return
		}
		out[string(k)] = names
	}
	writeJSON(w, http.StatusOK, out)
}

func parseKind(v string) (core.Kind, error) {
	k := core.Kind(strings.ToLower(strings.TrimSpace(v)))
	if !k.Valid() {
		return "", badInput("kind must be %q or %q, got %q", core.Income, core.Expenditure, v)
	}
	return k, nil
}

func parseType(v string) (core.CashflowType, error) {
	t := core.CashflowType(strings.ToLower(strings.TrimSpace(v)))
	if !t.Valid() {
		return "", badInput("type must be %q or %q, got %q", core.Projected, core.Actual, v)
	}
	return t, nil
}
