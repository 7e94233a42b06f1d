package services

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/HeadAech/ExpenseTracker/internal/amqp"
	"github.com/HeadAech/ExpenseTracker/internal/core"
	"github.com/HeadAech/ExpenseTracker/internal/storage"
)

// fakeStore mimics the repository's query semantics in memory: newest first,
// insertion order on date ties, case-insensitive substring search.
type fakeStore struct {
	mu       sync.Mutex
	expenses []core.Expense
	tags     []core.Tag
	budget   *core.BudgetConfig

	fetchCalls int
	fetchHook  func(storage.Filter)
}

func newFakeStore() *fakeStore {
	return &fakeStore{}
}

func (f *fakeStore) InsertExpense(_ context.Context, e core.Expense) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expenses = append(f.expenses, e)
	return nil
}

func (f *fakeStore) UpdateExpense(_ context.Context, e core.Expense) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.expenses {
		if f.expenses[i].ID == e.ID {
			f.expenses[i] = e
			return nil
		}
	}
	return storage.ErrNotFound
}

func (f *fakeStore) DeleteExpense(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.expenses {
		if f.expenses[i].ID == id {
			f.expenses = append(f.expenses[:i], f.expenses[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

func (f *fakeStore) DeleteAllExpenses(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expenses = nil
	return nil
}

func (f *fakeStore) GetExpense(_ context.Context, id string) (core.Expense, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.expenses {
		if e.ID == id {
			return e, nil
		}
	}
	return core.Expense{}, storage.ErrNotFound
}

func (f *fakeStore) matching(filter storage.Filter) []core.Expense {
	var matched []core.Expense
	for _, e := range f.expenses {
		if filter.Window != nil && !filter.Window.Contains(e.Date) {
			continue
		}
		if filter.NameContains != "" &&
			!strings.Contains(strings.ToLower(e.Name), strings.ToLower(filter.NameContains)) {
			continue
		}
		if filter.TagID != "" && e.TagID != filter.TagID {
			continue
		}
		matched = append(matched, e)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Date.After(matched[j].Date)
	})
	return matched
}

func (f *fakeStore) FetchExpenses(_ context.Context, filter storage.Filter) ([]core.Expense, error) {
	f.mu.Lock()
	f.fetchCalls++
	hook := f.fetchHook
	matched := f.matching(filter)
	f.mu.Unlock()

	if hook != nil {
		hook(filter)
	}

	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			matched = nil
		} else {
			matched = matched[filter.Offset:]
		}
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

func (f *fakeStore) CountExpenses(_ context.Context, filter storage.Filter) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.matching(filter)), nil
}

func (f *fakeStore) InsertTag(_ context.Context, t core.Tag) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tags = append(f.tags, t)
	return nil
}

func (f *fakeStore) UpdateTag(_ context.Context, t core.Tag) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.tags {
		if f.tags[i].ID == t.ID {
			f.tags[i] = t
			return nil
		}
	}
	return storage.ErrNotFound
}

func (f *fakeStore) GetTag(_ context.Context, id string) (core.Tag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tags {
		if t.ID == id {
			return t, nil
		}
	}
	return core.Tag{}, storage.ErrNotFound
}

func (f *fakeStore) ListTags(context.Context) ([]core.Tag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]core.Tag(nil), f.tags...), nil
}

func (f *fakeStore) DeleteTag(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.tags {
		if f.tags[i].ID != id {
			continue
		}
		f.tags = append(f.tags[:i], f.tags[i+1:]...)
		for j := range f.expenses {
			if f.expenses[j].TagID == id {
				f.expenses[j].TagID = ""
			}
		}
		return nil
	}
	return storage.ErrNotFound
}

func (f *fakeStore) GetBudgetConfig(context.Context) (core.BudgetConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.budget == nil {
		return core.BudgetConfig{
			Limit:    core.Money{Cents: 10000},
			Period:   core.BudgetMonthly,
			Currency: "PLN",
		}, nil
	}
	return *f.budget, nil
}

func (f *fakeStore) SetBudgetConfig(_ context.Context, cfg core.BudgetConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.budget = &cfg
	return nil
}

var _ Store = (*fakeStore)(nil)

func storageFilterAll() storage.Filter {
	return storage.Filter{}
}

// fakePublisher records published change messages.
type fakePublisher struct {
	mu       sync.Mutex
	messages []publishedChange
	err      error
}

type publishedChange struct {
	ID     string
	Change amqp.ChangeKind
}

func (f *fakePublisher) PublishExpenseChange(_ context.Context, id string, change amqp.ChangeKind) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, publishedChange{ID: id, Change: change})
	return nil
}

func (f *fakePublisher) published() []publishedChange {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]publishedChange(nil), f.messages...)
}
