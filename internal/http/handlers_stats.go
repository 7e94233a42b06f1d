package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/HeadAech/ExpenseTracker/internal/core"
	"github.com/HeadAech/ExpenseTracker/internal/log"
)

type todayResponse struct {
	TotalCents int64 `json:"total_cents"`
	Count      int   `json:"count"`
}

func (s *Server) handleTodaySummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.stats.TodaySummary(r.Context(), time.Now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, todayResponse{
		TotalCents: summary.Total.Cents,
		Count:      summary.Count,
	})
}

type monthResponse struct {
	CurrentCents  int64 `json:"current_cents"`
	PreviousCents int64 `json:"previous_cents"`
	DeltaCents    int64 `json:"delta_cents"`
}

func (s *Server) handleMonthOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := s.stats.MonthOverview(r.Context(), time.Now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, monthResponse{
		CurrentCents:  overview.Current.Cents,
		PreviousCents: overview.Previous.Cents,
		DeltaCents:    overview.Delta.Cents,
	})
}

type dayBucketResponse struct {
	Day        string `json:"day"`
	TotalCents int64  `json:"total_cents"`
}

func toDayBuckets(series []core.DayBucket) []dayBucketResponse {
	out := make([]dayBucketResponse, 0, len(series))
	for _, bucket := range series {
		out = append(out, dayBucketResponse{
			Day:        bucket.Day.Format("2006-01-02"),
			TotalCents: bucket.Total.Cents,
		})
	}
	return out
}

func (s *Server) handleWeeklySeries(w http.ResponseWriter, r *http.Request) {
	series, err := s.stats.WeeklySeries(r.Context(), time.Now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, toDayBuckets(series))
}

// handleRangeSeries buckets spend by day over from/to (YYYY-MM-DD, inclusive).
func (s *Server) handleRangeSeries(w http.ResponseWriter, r *http.Request) {
	from, err := parseDate(r.URL.Query().Get("from"))
	if err != nil {
		s.writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: "invalid 'from' date"})
		return
	}
	to, err := parseDate(r.URL.Query().Get("to"))
	if err != nil {
		s.writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: "invalid 'to' date"})
		return
	}

	series, err := s.stats.RangeSeries(r.Context(), from, to)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, toDayBuckets(series))
}

type topTagResponse struct {
	Tag        *tagPayload `json:"tag,omitempty"`
	TotalCents int64       `json:"total_cents"`
	Percent    float64     `json:"percent"`
}

func (s *Server) handleTopTag(w http.ResponseWriter, r *http.Request) {
	top, err := s.stats.TopTag(r.Context(), time.Now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := topTagResponse{TotalCents: top.Total.Cents, Percent: top.Percent}
	if top.OK {
		tag := toTagPayload(top.Tag)
		resp.Tag = &tag
	}
	s.writeJSON(w, r, http.StatusOK, resp)
}

type budgetPayload struct {
	LimitCents       int64  `json:"limit_cents"`
	Period           string `json:"period"`
	Currency         string `json:"currency"`
	SpentCents       int64  `json:"spent_cents,omitempty"`
	RemainingCents   int64  `json:"remaining_cents,omitempty"`
	DisplayRemaining int64  `json:"display_remaining_cents,omitempty"`
	OverBudget       bool   `json:"over_budget,omitempty"`
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	report, err := s.stats.BudgetReport(r.Context(), time.Now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusOK, budgetPayload{
		LimitCents:       report.Config.Limit.Cents,
		Period:           string(report.Config.Period),
		Currency:         report.Config.Currency,
		SpentCents:       report.Status.Spent.Cents,
		RemainingCents:   report.Status.Remaining.Cents,
		DisplayRemaining: report.Status.DisplayRemaining.Cents,
		OverBudget:       report.Status.OverBudget,
	})
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	var payload budgetPayload
	if !s.readJSON(w, r, &payload) {
		return
	}

	cfg := core.BudgetConfig{
		Limit:    core.Money{Cents: payload.LimitCents},
		Period:   core.BudgetPeriod(payload.Period),
		Currency: payload.Currency,
	}
	if err := s.stats.UpdateBudget(r.Context(), cfg); err != nil {
		if errors.Is(err, core.ErrInvalidAmount) {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleWeeklyChart(w http.ResponseWriter, r *http.Request) {
	series, err := s.stats.WeeklySeries(r.Context(), time.Now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	png, err := s.charts.WeeklyBarChart(series)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writePNG(w, r, png)
}

func (s *Server) handleMonthChart(w http.ResponseWriter, r *http.Request) {
	overview, err := s.stats.MonthOverview(r.Context(), time.Now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	png, err := s.charts.MonthComparisonChart(overview.Current, overview.Previous)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writePNG(w, r, png)
}

func (s *Server) writePNG(w http.ResponseWriter, r *http.Request, png []byte) {
	if len(png) == 0 {
		s.writeJSON(w, r, http.StatusNoContent, nil)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(png); err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to write chart", log.FieldError, err)
	}
}
