package http

import (
	"net/http"

	"github.com/HeadAech/ExpenseTracker/internal/services"
)

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var payload expensePayload
	if !s.readJSON(w, r, &payload) {
		return
	}

	expense, err := toExpense(payload)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	created, err := s.expenses.CreateExpense(r.Context(), expense)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusCreated, toExpenseResponse(created))
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	expense, err := s.expenses.GetExpense(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, toExpenseResponse(expense))
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var payload expensePayload
	if !s.readJSON(w, r, &payload) {
		return
	}
	payload.ID = r.PathValue("id")

	expense, err := toExpense(payload)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.expenses.UpdateExpense(r.Context(), expense); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, toExpenseResponse(expense))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := s.expenses.DeleteExpense(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteAllExpenses(w http.ResponseWriter, r *http.Request) {
	if err := s.expenses.DeleteAllExpenses(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type historyResponse struct {
	Expenses       []expenseResponse `json:"expenses"`
	TagSuggestions []tagPayload      `json:"tag_suggestions,omitempty"`
	Total          int               `json:"total"`
	Page           int               `json:"page"`
	HasMore        bool              `json:"has_more"`
	Empty          string            `json:"empty,omitempty"`
}

// handleHistory evaluates a history query: q for search text ('#' prefix
// surfaces tag suggestions), tag for a tag filter, page for prefix paging.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	query := services.HistoryQuery{
		Search: r.URL.Query().Get("q"),
		TagID:  r.URL.Query().Get("tag"),
		Page:   queryInt(r, "page", 0),
	}

	snap, err := s.history.Apply(r.Context(), query)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusOK, historyResponse{
		Expenses:       toExpenseResponses(snap.Expenses),
		TagSuggestions: toTagPayloads(snap.TagSuggestions),
		Total:          snap.Total,
		Page:           snap.Query.Page,
		HasMore:        snap.HasMore,
		Empty:          string(snap.Empty),
	})
}
