package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HeadAech/ExpenseTracker/internal/charts"
	"github.com/HeadAech/ExpenseTracker/internal/events"
	"github.com/HeadAech/ExpenseTracker/internal/log"
	"github.com/HeadAech/ExpenseTracker/internal/services"
	"github.com/HeadAech/ExpenseTracker/internal/storage"
)

func newTestServer(t *testing.T) (*httptest.Server, *Server) {
	t.Helper()

	logger := log.New(log.DefaultConfig())
	repo, err := storage.New(filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	hub := events.NewHub()
	expenses := services.NewExpenseService(repo, nil, hub, logger)
	tags := services.NewTagService(repo, hub, logger)
	stats := services.NewStatsService(repo, logger)
	history := services.NewHistory(repo, logger, 15)

	srv := NewServer(":0", expenses, tags, stats, history, charts.NewGenerator("PLN"), logger)
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)
	t.Cleanup(func() { srv.rateLimiter.stop() })
	return ts, srv
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func createExpense(t *testing.T, baseURL, name, amount string) expenseResponse {
	t.Helper()

	resp, raw := doJSON(t, http.MethodPost, baseURL+"/api/expenses", expensePayload{
		Name:   name,
		Date:   time.Now().Add(-time.Minute).Format(time.RFC3339),
		Amount: amount,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	var created expenseResponse
	require.NoError(t, json.Unmarshal(raw, &created))
	require.NotEmpty(t, created.ID)
	return created
}

func TestHealthEndpoints(t *testing.T) {
	ts, _ := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		resp, _ := doJSON(t, http.MethodGet, ts.URL+path, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

func TestExpenseLifecycle(t *testing.T) {
	ts, _ := newTestServer(t)

	created := createExpense(t, ts.URL, "coffee", "4,50")
	assert.Equal(t, int64(450), created.ValueCents)

	resp, raw := doJSON(t, http.MethodGet, ts.URL+"/api/expenses/"+created.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got expenseResponse
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "coffee", got.Name)

	update := expensePayload{
		Name:       "espresso",
		Date:       created.Date,
		ValueCents: 500,
	}
	resp, raw = doJSON(t, http.MethodPut, ts.URL+"/api/expenses/"+created.ID, update)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	resp, _ = doJSON(t, http.MethodDelete, ts.URL+"/api/expenses/"+created.ID, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/api/expenses/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateExpenseValidation(t *testing.T) {
	ts, _ := newTestServer(t)

	tests := []struct {
		name    string
		payload expensePayload
	}{
		{"empty name", expensePayload{Date: "2026-08-20", Amount: "5,00"}},
		{"future date", expensePayload{Name: "x", Date: time.Now().AddDate(0, 0, 2).Format(time.RFC3339), Amount: "5,00"}},
		{"bad amount", expensePayload{Name: "x", Date: "2026-08-20", Amount: "-5"}},
		{"zero amount", expensePayload{Name: "x", Date: "2026-08-20"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/expenses", tt.payload)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestHistoryEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, raw := doJSON(t, http.MethodGet, ts.URL+"/api/history", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var hist historyResponse
	require.NoError(t, json.Unmarshal(raw, &hist))
	assert.Equal(t, "store_empty", hist.Empty)

	for i := 0; i < 20; i++ {
		createExpense(t, ts.URL, fmt.Sprintf("item %02d", i), "1,00")
	}

	resp, raw = doJSON(t, http.MethodGet, ts.URL+"/api/history", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(raw, &hist))
	assert.Len(t, hist.Expenses, 15)
	assert.Equal(t, 20, hist.Total)
	assert.True(t, hist.HasMore)

	resp, raw = doJSON(t, http.MethodGet, ts.URL+"/api/history?page=1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(raw, &hist))
	assert.Len(t, hist.Expenses, 20, "page 1 returns the whole prefix")
	assert.False(t, hist.HasMore)

	resp, raw = doJSON(t, http.MethodGet, ts.URL+"/api/history?q=item+03", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(raw, &hist))
	assert.Len(t, hist.Expenses, 1)

	resp, raw = doJSON(t, http.MethodGet, ts.URL+"/api/history?q=nothing+matches", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(raw, &hist))
	assert.Equal(t, "filter_empty", hist.Empty)
}

func TestTagLifecycleAndSuggestions(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, raw := doJSON(t, http.MethodPost, ts.URL+"/api/tags", tagPayload{
		Name: "Food", Color: "#FF8800", Icon: "cart",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	var tag tagPayload
	require.NoError(t, json.Unmarshal(raw, &tag))
	require.NotEmpty(t, tag.ID)

	resp, raw = doJSON(t, http.MethodGet, ts.URL+"/api/history?q=%23foo", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var hist historyResponse
	require.NoError(t, json.Unmarshal(raw, &hist))
	require.Len(t, hist.TagSuggestions, 1)
	assert.Equal(t, "Food", hist.TagSuggestions[0].Name)

	resp, _ = doJSON(t, http.MethodDelete, ts.URL+"/api/tags/"+tag.ID, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, raw = doJSON(t, http.MethodGet, ts.URL+"/api/tags", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var tags []tagPayload
	require.NoError(t, json.Unmarshal(raw, &tags))
	assert.Empty(t, tags)
}

func TestTagDeleteNullifiesExpenses(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, raw := doJSON(t, http.MethodPost, ts.URL+"/api/tags", tagPayload{Name: "Travel", Color: "#0000FF"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var tag tagPayload
	require.NoError(t, json.Unmarshal(raw, &tag))

	resp, raw = doJSON(t, http.MethodPost, ts.URL+"/api/expenses", expensePayload{
		Name:   "flight",
		Date:   time.Now().Add(-time.Hour).Format(time.RFC3339),
		Amount: "199.99",
		TagID:  tag.ID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created expenseResponse
	require.NoError(t, json.Unmarshal(raw, &created))
	require.Equal(t, tag.ID, created.TagID)

	resp, _ = doJSON(t, http.MethodDelete, ts.URL+"/api/tags/"+tag.ID, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, raw = doJSON(t, http.MethodGet, ts.URL+"/api/expenses/"+created.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got expenseResponse
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Empty(t, got.TagID, "deleting a tag leaves its expenses untagged")
}

func TestBudgetEndpoints(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, raw := doJSON(t, http.MethodGet, ts.URL+"/api/budget", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var budget budgetPayload
	require.NoError(t, json.Unmarshal(raw, &budget))
	assert.Equal(t, int64(10000), budget.LimitCents)
	assert.Equal(t, "monthly", budget.Period)
	assert.Equal(t, "PLN", budget.Currency)

	resp, _ = doJSON(t, http.MethodPut, ts.URL+"/api/budget", budgetPayload{
		LimitCents: 50000, Period: "daily", Currency: "EUR",
	})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, raw = doJSON(t, http.MethodGet, ts.URL+"/api/budget", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(raw, &budget))
	assert.Equal(t, int64(50000), budget.LimitCents)
	assert.Equal(t, "daily", budget.Period)

	resp, _ = doJSON(t, http.MethodPut, ts.URL+"/api/budget", budgetPayload{
		LimitCents: 100, Period: "weekly",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStatsEndpoints(t *testing.T) {
	ts, _ := newTestServer(t)
	createExpense(t, ts.URL, "coffee", "4,50")
	createExpense(t, ts.URL, "lunch", "15,50")

	resp, raw := doJSON(t, http.MethodGet, ts.URL+"/api/stats/today", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var today todayResponse
	require.NoError(t, json.Unmarshal(raw, &today))
	assert.Equal(t, int64(2000), today.TotalCents)
	assert.Equal(t, 2, today.Count)

	resp, raw = doJSON(t, http.MethodGet, ts.URL+"/api/stats/weekly", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var weekly []dayBucketResponse
	require.NoError(t, json.Unmarshal(raw, &weekly))
	assert.Len(t, weekly, 7)

	resp, raw = doJSON(t, http.MethodGet, ts.URL+"/api/stats/month", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var month monthResponse
	require.NoError(t, json.Unmarshal(raw, &month))
	assert.Equal(t, int64(2000), month.CurrentCents)
}

func TestWeeklyChartEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)
	createExpense(t, ts.URL, "coffee", "4,50")

	resp, raw := doJSON(t, http.MethodGet, ts.URL+"/api/charts/weekly.png", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	require.NotEmpty(t, raw)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, raw[:4])
}

func TestRangeSeriesValidation(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, _ := doJSON(t, http.MethodGet, ts.URL+"/api/stats/range?from=garbage&to=2026-08-20", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, raw := doJSON(t, http.MethodGet, ts.URL+"/api/stats/range?from=2026-08-01&to=2026-08-20", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var series []dayBucketResponse
	require.NoError(t, json.Unmarshal(raw, &series))
}
