package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Veraticus/tally/internal/ledger"
	"github.com/Veraticus/tally/internal/model"
)

// TransferResponse reports both accounts and both booked legs of a transfer.
type TransferResponse struct {
	Message      string              `json:"message"`
	FromAccount  model.Account       `json:"fromAccount"`
	ToAccount    model.Account       `json:"toAccount"`
	Transactions []model.Transaction `json:"transactions"`
}

func (s *Server) listAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.ledger.ListAccounts(r.Context())
	if err != nil {
		writeError(w, r, "Error fetching accounts", err)
		return
	}
	if accounts == nil {
		accounts = []model.Account{}
	}
	writeJSON(w, http.StatusOK, accounts)
}

func (s *Server) getAccount(w http.ResponseWriter, r *http.Request) {
	detail, err := s.ledger.GetAccount(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, "Error fetching account", err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) createAccount(w http.ResponseWriter, r *http.Request) {
	var in ledger.CreateAccountInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, "Error creating account", err)
		return
	}

	account, err := s.ledger.CreateAccount(r.Context(), in)
	if err != nil {
		writeError(w, r, "Error creating account", err)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

func (s *Server) updateAccount(w http.ResponseWriter, r *http.Request) {
	var in ledger.UpdateAccountInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, "Error updating account", err)
		return
	}

	account, err := s.ledger.UpdateAccount(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, r, "Error updating account", err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (s *Server) deleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteAccount(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, "Error deleting account", err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Account deleted successfully"})
}

func (s *Server) transfer(w http.ResponseWriter, r *http.Request) {
	var in ledger.TransferInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, "Error processing transfer", err)
		return
	}

	result, err := s.ledger.Transfer(r.Context(), in)
	if err != nil {
		writeError(w, r, "Error processing transfer", err)
		return
	}
	writeJSON(w, http.StatusOK, TransferResponse{
		Message:      "Transfer successful",
		FromAccount:  result.From,
		ToAccount:    result.To,
		Transactions: []model.Transaction{result.Expense, result.Income},
	})
}
