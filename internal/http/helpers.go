package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/HeadAech/ExpenseTracker/internal/core"
	"github.com/HeadAech/ExpenseTracker/internal/log"
	"github.com/HeadAech/ExpenseTracker/internal/storage"
)

// expensePayload is the JSON shape of one expense. Amount takes a decimal
// string ("12,34" or "12.34"); ValueCents is used when Amount is empty.
type expensePayload struct {
	ID         string `json:"id,omitempty"`
	Name       string `json:"name"`
	Date       string `json:"date"`
	Amount     string `json:"amount,omitempty"`
	ValueCents int64  `json:"value_cents,omitempty"`
	TagID      string `json:"tag_id,omitempty"`
	Image      []byte `json:"image,omitempty"`
}

type expenseResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Date       string `json:"date"`
	ValueCents int64  `json:"value_cents"`
	TagID      string `json:"tag_id,omitempty"`
	Image      []byte `json:"image,omitempty"`
}

type tagPayload struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
	Icon  string `json:"icon,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toExpenseResponse(e core.Expense) expenseResponse {
	return expenseResponse{
		ID:         e.ID,
		Name:       e.Name,
		Date:       e.Date.Format(time.RFC3339),
		ValueCents: e.Value.Cents,
		TagID:      e.TagID,
		Image:      e.Image,
	}
}

func toExpenseResponses(expenses []core.Expense) []expenseResponse {
	out := make([]expenseResponse, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, toExpenseResponse(e))
	}
	return out
}

func toTag(p tagPayload) core.Tag {
	return core.Tag{ID: p.ID, Name: p.Name, Color: p.Color, Icon: p.Icon}
}

func toTagPayload(t core.Tag) tagPayload {
	return tagPayload{ID: t.ID, Name: t.Name, Color: t.Color, Icon: t.Icon}
}

func toTagPayloads(tags []core.Tag) []tagPayload {
	if len(tags) == 0 {
		return nil
	}
	out := make([]tagPayload, 0, len(tags))
	for _, t := range tags {
		out = append(out, toTagPayload(t))
	}
	return out
}

// toExpense converts a payload into a domain expense. Amount wins over
// ValueCents when both are set.
func toExpense(p expensePayload) (core.Expense, error) {
	date, err := parseDate(p.Date)
	if err != nil {
		return core.Expense{}, err
	}

	cents := p.ValueCents
	if strings.TrimSpace(p.Amount) != "" {
		cents, err = core.ParseDecimalToCents(p.Amount)
		if err != nil {
			return core.Expense{}, err
		}
	}

	return core.Expense{
		ID:    p.ID,
		Name:  p.Name,
		Date:  date,
		Value: core.Money{Cents: cents},
		TagID: p.TagID,
		Image: p.Image,
	}, nil
}

// parseDate accepts RFC3339 or a bare YYYY-MM-DD day.
func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", value, core.ErrZeroDate)
	}
	return t, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to encode response",
			log.FieldPath, r.URL.Path,
			log.FieldError, err)
	}
}

func (s *Server) readJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4<<20))
	if err := decoder.Decode(dst); err != nil {
		s.writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: "invalid JSON body: " + err.Error()})
		return false
	}
	return true
}

// writeError maps domain errors onto HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrFutureDate),
		errors.Is(err, core.ErrZeroDate):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "Request failed",
			log.FieldPath, r.URL.Path,
			log.FieldError, err)
	}
	s.writeJSON(w, r, status, errorResponse{Error: err.Error()})
}

func queryInt(r *http.Request, key string, fallback int) int {
	if v := strings.TrimSpace(r.URL.Query().Get(key)); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
