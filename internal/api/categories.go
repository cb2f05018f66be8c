package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Veraticus/tally/internal/ledger"
	"github.com/Veraticus/tally/internal/model"
)

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.ledger.ListCategories(r.Context())
	if err != nil {
		writeError(w, r, "Error fetching categories", err)
		return
	}
	if categories == nil {
		categories = []model.Category{}
	}
	writeJSON(w, http.StatusOK, categories)
}

func (s *Server) categorySummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.reporter.CategorySummary(r.Context())
	if err != nil {
		writeError(w, r, "Error fetching category summary", err)
		return
	}
	if summary == nil {
		summary = []model.CategorySummary{}
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) createCategory(w http.ResponseWriter, r *http.Request) {
	var in ledger.CreateCategoryInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, "Error creating category", err)
		return
	}

	category, err := s.ledger.CreateCategory(r.Context(), in)
	if err != nil {
		writeError(w, r, "Error creating category", err)
		return
	}
	writeJSON(w, http.StatusCreated, category)
}

func (s *Server) deleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, "Error deleting category", err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Category deleted successfully"})
}
