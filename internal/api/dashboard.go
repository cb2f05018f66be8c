package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/report"
)

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	period, err := report.ParsePeriod(q.Get("period"))
	if err != nil {
		writeError(w, r, "Error fetching dashboard stats", err)
		return
	}

	var ref *time.Time
	if v := q.Get("date"); v != "" {
		t, _, err := parseDate(v, s.reporter.Location())
		if err != nil {
			writeError(w, r, "Error fetching dashboard stats", common.NewValidationError("date", err.Error()))
			return
		}
		ref = &t
	}

	stats, err := s.reporter.Stats(r.Context(), period, ref)
	if err != nil {
		writeError(w, r, "Error fetching dashboard stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, err := queryInt(q.Get("page"), "page")
	if err != nil {
		writeError(w, r, "Error fetching history", err)
		return
	}
	limit, err := queryInt(q.Get("limit"), "limit")
	if err != nil {
		writeError(w, r, "Error fetching history", err)
		return
	}

	history, err := s.reporter.History(r.Context(), page, limit)
	if err != nil {
		writeError(w, r, "Error fetching history", err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

// queryInt parses an optional integer parameter; empty means zero, which the
// reporter replaces with its default.
func queryInt(v, field string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, common.NewValidationError(field, "must be an integer")
	}
	return n, nil
}
