package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/HeadAech/ExpenseTracker/internal/core"
	"github.com/HeadAech/ExpenseTracker/internal/log"
)

type RepositorySuite struct {
	suite.Suite
	repo *Repository
	ctx  context.Context
}

func (s *RepositorySuite) SetupTest() {
	dbPath := filepath.Join(s.T().TempDir(), "test.db")
	repo, err := New(dbPath, log.New(log.DefaultConfig()))
	s.Require().NoError(err)
	s.repo = repo
	s.ctx = context.Background()
}

func (s *RepositorySuite) TearDownTest() {
	s.Require().NoError(s.repo.Close())
}

func TestRepositorySuite(t *testing.T) {
	suite.Run(t, new(RepositorySuite))
}

func (s *RepositorySuite) expense(id, name string, date time.Time, cents int64, tagID string) core.Expense {
	e := core.Expense{
		ID:    id,
		Name:  name,
		Date:  date,
		Value: core.Money{Cents: cents},
		TagID: tagID,
	}
	s.Require().NoError(s.repo.InsertExpense(s.ctx, e))
	return e
}

func (s *RepositorySuite) TestInsertAndGetExpense() {
	date := time.Date(2026, 8, 20, 13, 30, 0, 0, time.UTC)
	want := core.Expense{
		ID:    "e1",
		Name:  "Groceries",
		Date:  date,
		Value: core.Money{Cents: 4250},
		Image: []byte{0x89, 0x50, 0x4e, 0x47},
	}
	s.Require().NoError(s.repo.InsertExpense(s.ctx, want))

	got, err := s.repo.GetExpense(s.ctx, "e1")
	s.Require().NoError(err)
	s.Equal(want.ID, got.ID)
	s.Equal(want.Name, got.Name)
	s.Equal(want.Value, got.Value)
	s.Equal(want.Image, got.Image)
	s.Empty(got.TagID)
	s.True(want.Date.Equal(got.Date), "date mismatch: want %v got %v", want.Date, got.Date)
}

func (s *RepositorySuite) TestGetExpenseNotFound() {
	_, err := s.repo.GetExpense(s.ctx, "missing")
	s.ErrorIs(err, ErrNotFound)
}

func (s *RepositorySuite) TestFetchOrderingNewestFirstInsertionTies() {
	day := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	s.expense("old", "older", day.AddDate(0, 0, -1), 100, "")
	s.expense("a", "same-day first", day, 200, "")
	s.expense("b", "same-day second", day, 300, "")
	s.expense("new", "newest", day.AddDate(0, 0, 1), 400, "")

	for i := 0; i < 3; i++ {
		got, err := s.repo.FetchExpenses(s.ctx, Filter{})
		s.Require().NoError(err)
		s.Require().Len(got, 4)
		s.Equal("new", got[0].ID)
		s.Equal("a", got[1].ID)
		s.Equal("b", got[2].ID)
		s.Equal("old", got[3].ID)
	}
}

func (s *RepositorySuite) TestFetchWindowFiltering() {
	s.expense("before", "before", time.Date(2026, 8, 19, 23, 59, 59, 0, time.UTC), 100, "")
	s.expense("start", "at start", time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC), 200, "")
	s.expense("inside", "inside", time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC), 300, "")
	s.expense("end", "at end", time.Date(2026, 8, 21, 0, 0, 0, 0, time.UTC), 400, "")

	halfOpen := core.Window{
		Start:        time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC),
		End:          time.Date(2026, 8, 21, 0, 0, 0, 0, time.UTC),
		ExclusiveEnd: true,
	}
	got, err := s.repo.FetchExpenses(s.ctx, Filter{Window: &halfOpen})
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal("inside", got[0].ID)
	s.Equal("start", got[1].ID)

	inclusive := halfOpen
	inclusive.ExclusiveEnd = false
	got, err = s.repo.FetchExpenses(s.ctx, Filter{Window: &inclusive})
	s.Require().NoError(err)
	s.Len(got, 3)

	n, err := s.repo.CountExpenses(s.ctx, Filter{Window: &halfOpen})
	s.Require().NoError(err)
	s.Equal(2, n)
}

func (s *RepositorySuite) TestFetchNameSearchCaseInsensitive() {
	day := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	s.expense("e1", "Grocery Store", day, 100, "")
	s.expense("e2", "coffee", day, 200, "")
	s.expense("e3", "GROCERIES", day, 300, "")

	got, err := s.repo.FetchExpenses(s.ctx, Filter{NameContains: "groc"})
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal("e1", got[0].ID)
	s.Equal("e3", got[1].ID)

	got, err = s.repo.FetchExpenses(s.ctx, Filter{NameContains: "%"})
	s.Require().NoError(err)
	s.Empty(got, "wildcard characters must match literally")
}

func (s *RepositorySuite) TestFetchTagFilterAndPaging() {
	day := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	s.Require().NoError(s.repo.InsertTag(s.ctx, core.Tag{ID: "t1", Name: "food", Color: "#FF0000", Icon: "cart"}))
	for i, id := range []string{"e1", "e2", "e3", "e4"} {
		tag := ""
		if i%2 == 0 {
			tag = "t1"
		}
		s.expense(id, "item "+id, day.AddDate(0, 0, -i), 100, tag)
	}

	got, err := s.repo.FetchExpenses(s.ctx, Filter{TagID: "t1"})
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal("e1", got[0].ID)
	s.Equal("e3", got[1].ID)

	page, err := s.repo.FetchExpenses(s.ctx, Filter{Limit: 2, Offset: 1})
	s.Require().NoError(err)
	s.Require().Len(page, 2)
	s.Equal("e2", page[0].ID)
	s.Equal("e3", page[1].ID)

	n, err := s.repo.CountExpenses(s.ctx, Filter{Limit: 2, Offset: 1})
	s.Require().NoError(err)
	s.Equal(4, n, "count ignores paging")
}

func (s *RepositorySuite) TestUpdateExpense() {
	day := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	e := s.expense("e1", "draft", day, 100, "")

	e.Name = "final"
	e.Value = core.Money{Cents: 999}
	s.Require().NoError(s.repo.UpdateExpense(s.ctx, e))

	got, err := s.repo.GetExpense(s.ctx, "e1")
	s.Require().NoError(err)
	s.Equal("final", got.Name)
	s.Equal(int64(999), got.Value.Cents)

	e.ID = "missing"
	s.ErrorIs(s.repo.UpdateExpense(s.ctx, e), ErrNotFound)
}

func (s *RepositorySuite) TestDeleteExpense() {
	day := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	s.expense("e1", "gone", day, 100, "")

	s.Require().NoError(s.repo.DeleteExpense(s.ctx, "e1"))
	_, err := s.repo.GetExpense(s.ctx, "e1")
	s.ErrorIs(err, ErrNotFound)

	s.ErrorIs(s.repo.DeleteExpense(s.ctx, "e1"), ErrNotFound)
}

func (s *RepositorySuite) TestDeleteAllExpenses() {
	day := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	s.expense("e1", "one", day, 100, "")
	s.expense("e2", "two", day, 200, "")

	s.Require().NoError(s.repo.DeleteAllExpenses(s.ctx))

	n, err := s.repo.CountExpenses(s.ctx, Filter{})
	s.Require().NoError(err)
	s.Zero(n)
}

func (s *RepositorySuite) TestTagCRUD() {
	tag := core.Tag{ID: "t1", Name: "food", Color: "#00FF00", Icon: "cart"}
	s.Require().NoError(s.repo.InsertTag(s.ctx, tag))

	got, err := s.repo.GetTag(s.ctx, "t1")
	s.Require().NoError(err)
	s.Equal(tag, got)

	tag.Name = "dining"
	s.Require().NoError(s.repo.UpdateTag(s.ctx, tag))
	got, err = s.repo.GetTag(s.ctx, "t1")
	s.Require().NoError(err)
	s.Equal("dining", got.Name)

	s.Require().NoError(s.repo.InsertTag(s.ctx, core.Tag{ID: "t2", Name: "travel", Color: "#0000FF", Icon: "plane"}))
	tags, err := s.repo.ListTags(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(tags, 2)
	s.Equal("t1", tags[0].ID)
	s.Equal("t2", tags[1].ID)
}

func (s *RepositorySuite) TestDeleteTagNullifiesReferences() {
	day := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	s.Require().NoError(s.repo.InsertTag(s.ctx, core.Tag{ID: "t1", Name: "food", Color: "#FF0000", Icon: "cart"}))
	s.Require().NoError(s.repo.InsertTag(s.ctx, core.Tag{ID: "t2", Name: "travel", Color: "#0000FF", Icon: "plane"}))
	s.expense("e1", "lunch", day, 100, "t1")
	s.expense("e2", "dinner", day, 200, "t1")
	s.expense("e3", "flight", day, 300, "t2")

	s.Require().NoError(s.repo.DeleteTag(s.ctx, "t1"))

	for _, id := range []string{"e1", "e2"} {
		got, err := s.repo.GetExpense(s.ctx, id)
		s.Require().NoError(err)
		s.Empty(got.TagID, "expense %s should be untagged", id)
	}
	got, err := s.repo.GetExpense(s.ctx, "e3")
	s.Require().NoError(err)
	s.Equal("t2", got.TagID)

	n, err := s.repo.CountTags(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, n)

	s.ErrorIs(s.repo.DeleteTag(s.ctx, "t1"), ErrNotFound)
}

func (s *RepositorySuite) TestBudgetConfigDefaultsAndRoundTrip() {
	cfg, err := s.repo.GetBudgetConfig(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(10000), cfg.Limit.Cents)
	s.Equal(core.BudgetMonthly, cfg.Period)
	s.Equal("PLN", cfg.Currency)

	want := core.BudgetConfig{
		Limit:    core.Money{Cents: 250000},
		Period:   core.BudgetDaily,
		Currency: "EUR",
	}
	s.Require().NoError(s.repo.SetBudgetConfig(s.ctx, want))

	cfg, err = s.repo.GetBudgetConfig(s.ctx)
	s.Require().NoError(err)
	s.Equal(want, cfg)

	s.Error(s.repo.SetBudgetConfig(s.ctx, core.BudgetConfig{Period: "weekly"}))
}

func TestNewCreatesDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "app.db")
	repo, err := New(dbPath, log.New(log.DefaultConfig()))
	require.NoError(t, err)
	require.NoError(t, repo.Close())
}
