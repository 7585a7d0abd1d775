package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
)

const maxNotesLength = 2000

// handleHistory serves GET /months?from=YYYY-MM&to=YYYY-MM. Both bounds
// are optional: from defaults to the configured history start and to to
// the current month.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	now := s.now().UTC()
	current := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	from, err := parseMonth(r, "from", s.deps.HistoryStart(now))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	to, err := parseMonth(r, "to", current)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	summaries, err := s.deps.History.History(r.Context(), from, to)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	out := make([]summaryView, 0, len(summaries))
	for _, m := range summaries {
		out = append(out, newSummaryView(m))
	}
	writeJSON(w, http.StatusOK, map[string]any{"months": out})
}

func (s *Server) handleMonthDetail(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		s.handleError(w, r, badInput("year must be an integer, got %q", chi.URLParam(r, "year")))
		return
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil {
		s.handleError(w, r, badInput("month must be an integer, got %q", chi.URLParam(r, "month")))
		return
	}

	detail, err := s.deps.History.MonthDetail(r.Context(), year, month)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newMonthDetailView(detail))
}

type notesRequest struct {
	Notes string `json:"notes"`
}

func (s *Server) handleUpdateNotes(w http.ResponseWriter, r *http.Request) {
	id, err := parseID("id", chi.URLParam(r, "id"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	var req notesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.handleError(w, r, err)
		return
	}
	req.Notes = strings.TrimSpace(req.Notes)
	if utf8.RuneCountInString(req.Notes) > maxNotesLength {
		s.handleError(w, r, badInput("notes must be at most %d characters", maxNotesLength))
		return
	}

	if err := s.deps.History.UpdateNotes(r.Context(), id, req.Notes); err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "notes": req.Notes})
}
