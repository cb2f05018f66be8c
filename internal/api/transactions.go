package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/ledger"
	"github.com/Veraticus/tally/internal/model"
	"github.com/Veraticus/tally/internal/service"
)

const dateOnly = "2006-01-02"

var errInvalidDate = errors.New("must be YYYY-MM-DD or an RFC 3339 timestamp")

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	filter, err := s.transactionFilter(r)
	if err != nil {
		writeError(w, r, "Error fetching transactions", err)
		return
	}

	txns, err := s.ledger.ListTransactions(r.Context(), filter)
	if err != nil {
		writeError(w, r, "Error fetching transactions", err)
		return
	}
	if txns == nil {
		txns = []model.Transaction{}
	}
	writeJSON(w, http.StatusOK, txns)
}

func (s *Server) getTransaction(w http.ResponseWriter, r *http.Request) {
	txn, err := s.ledger.GetTransaction(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, "Error fetching transaction", err)
		return
	}
	writeJSON(w, http.StatusOK, txn)
}

func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request) {
	var in ledger.CreateTransactionInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, "Error creating transaction", err)
		return
	}

	txn, err := s.ledger.CreateTransaction(r.Context(), in)
	if err != nil {
		writeError(w, r, "Error creating transaction", err)
		return
	}
	writeJSON(w, http.StatusCreated, txn)
}

func (s *Server) updateTransaction(w http.ResponseWriter, r *http.Request) {
	var in ledger.UpdateTransactionInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, "Error updating transaction", err)
		return
	}

	txn, err := s.ledger.UpdateTransaction(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, r, "Error updating transaction", err)
		return
	}
	writeJSON(w, http.StatusOK, txn)
}

func (s *Server) deleteTransaction(w http.ResponseWriter, r *http.Request) {
	if _, err := s.ledger.DeleteTransaction(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, "Error deleting transaction", err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Transaction deleted successfully"})
}

// transactionFilter reads the list filters from the query string. A
// date-only endDate covers that whole day.
func (s *Server) transactionFilter(r *http.Request) (service.TransactionFilter, error) {
	q := r.URL.Query()
	filter := service.TransactionFilter{
		Type:      model.TransactionType(q.Get("type")),
		Division:  model.Division(q.Get("division")),
		Category:  q.Get("category"),
		AccountID: q.Get("accountId"),
	}

	if v := q.Get("startDate"); v != "" {
		start, _, err := parseDate(v, s.reporter.Location())
		if err != nil {
			return filter, common.NewValidationError("startDate", err.Error())
		}
		filter.StartDate = &start
	}
	if v := q.Get("endDate"); v != "" {
		end, dayOnly, err := parseDate(v, s.reporter.Location())
		if err != nil {
			return filter, common.NewValidationError("endDate", err.Error())
		}
		if dayOnly {
			end = end.AddDate(0, 0, 1).Add(-time.Millisecond)
		}
		filter.EndDate = &end
	}
	return filter, nil
}

// parseDate accepts RFC 3339 timestamps or plain dates, the latter read as
// midnight in loc. dayOnly reports which form was given.
func parseDate(v string, loc *time.Location) (t time.Time, dayOnly bool, err error) {
	if t, err = time.Parse(time.RFC3339Nano, v); err == nil {
		return t, false, nil
	}
	if t, err = time.ParseInLocation(dateOnly, v, loc); err == nil {
		return t, true, nil
	}
	return time.Time{}, false, errInvalidDate
}
