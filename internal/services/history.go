package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/HeadAech/ExpenseTracker/internal/core"
	"github.com/HeadAech/ExpenseTracker/internal/events"
	"github.com/HeadAech/ExpenseTracker/internal/log"
	"github.com/HeadAech/ExpenseTracker/internal/storage"
)

// DefaultPageSize is how many expenses one history page holds.
const DefaultPageSize = 15

// EmptyState distinguishes a store with no expenses at all from a filter that
// matched nothing; the two render differently.
type EmptyState string

const (
	// EmptyNone means results are present.
	EmptyNone EmptyState = ""
	// EmptyStore means no expenses exist at all.
	EmptyStore EmptyState = "store_empty"
	// EmptyFilter means expenses exist but none matched the query.
	EmptyFilter EmptyState = "filter_empty"
)

// HistoryQuery is the user-visible query state of the history view. A Search
// beginning with '#' switches to tag-suggestion mode: the name filter is
// suppressed and matching tags are surfaced instead.
type HistoryQuery struct {
	Search string
	TagID  string
	Page   int
}

// HistorySnapshot is one consistent result of evaluating a HistoryQuery.
type HistorySnapshot struct {
	Query          HistoryQuery
	Expenses       []core.Expense
	TagSuggestions []core.Tag
	Total          int
	HasMore        bool
	Empty          EmptyState
}

// History incrementally evaluates a filtered, paginated expense query and
// keeps the latest result as a snapshot. Mutator calls bump a generation
// counter and release the lock while fetching, so a slow fetch never blocks
// the next keystroke; a fetch that finished against an outdated query is
// discarded instead of applied.
//
// Paging refetches the whole prefix [0, pageSize*(page+1)) rather than a
// single offset page. Loading page N therefore always yields a consistent
// prefix of the current ordering, even when rows changed underneath.
type History struct {
	store    Store
	logger   *log.Logger
	pageSize int

	mu       sync.Mutex
	gen      uint64
	query    HistoryQuery
	snapshot HistorySnapshot
}

func NewHistory(store Store, logger *log.Logger, pageSize int) *History {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &History{
		store:    store,
		logger:   logger.WithComponent(log.ComponentHistory),
		pageSize: pageSize,
	}
}

// SetSearch replaces the search text and resets to the first page.
func (h *History) SetSearch(ctx context.Context, search string) (HistorySnapshot, error) {
	return h.mutate(ctx, func(q *HistoryQuery) {
		q.Search = search
		q.Page = 0
	})
}

// SetTag replaces the tag filter and resets to the first page. An empty id
// clears the filter.
func (h *History) SetTag(ctx context.Context, tagID string) (HistorySnapshot, error) {
	return h.mutate(ctx, func(q *HistoryQuery) {
		q.TagID = tagID
		q.Page = 0
	})
}

// LoadMore advances to the next page, keeping search and tag as they are.
func (h *History) LoadMore(ctx context.Context) (HistorySnapshot, error) {
	return h.mutate(ctx, func(q *HistoryQuery) {
		q.Page++
	})
}

// Apply replaces the whole query at once. Pages below zero clamp to zero.
func (h *History) Apply(ctx context.Context, query HistoryQuery) (HistorySnapshot, error) {
	if query.Page < 0 {
		query.Page = 0
	}
	return h.mutate(ctx, func(q *HistoryQuery) {
		*q = query
	})
}

// Refresh re-evaluates the current query. Called after store mutations.
func (h *History) Refresh(ctx context.Context) (HistorySnapshot, error) {
	return h.mutate(ctx, func(q *HistoryQuery) {})
}

// Snapshot returns the most recently applied result.
func (h *History) Snapshot() HistorySnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.snapshot
}

// Watch refreshes the snapshot on every store change until ctx is cancelled.
func (h *History) Watch(ctx context.Context, hub *events.Hub) {
	ch, cancel := hub.Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ch:
			if !ok {
				return
			}
			if _, err := h.Refresh(ctx); err != nil {
				h.logger.ErrorContext(ctx, "History refresh failed", log.FieldError, err)
			}
		}
	}
}

func (h *History) mutate(ctx context.Context, apply func(*HistoryQuery)) (HistorySnapshot, error) {
	h.mu.Lock()
	apply(&h.query)
	h.gen++
	gen := h.gen
	query := h.query
	h.mu.Unlock()

	snap, err := h.evaluate(ctx, query)
	if err != nil {
		return HistorySnapshot{}, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.gen != gen {
		// A newer mutation won the race; its fetch owns the snapshot.
		return h.snapshot, nil
	}
	h.snapshot = snap
	return snap, nil
}

func (h *History) evaluate(ctx context.Context, q HistoryQuery) (HistorySnapshot, error) {
	search, tagMode := splitSearch(q.Search)

	filter := storage.Filter{TagID: q.TagID}
	if !tagMode {
		filter.NameContains = search
	}

	limit := h.pageSize * (q.Page + 1)
	page := filter
	page.Limit = limit

	expenses, err := h.store.FetchExpenses(ctx, page)
	if err != nil {
		return HistorySnapshot{}, fmt.Errorf("fetch history page: %w", err)
	}

	total, err := h.store.CountExpenses(ctx, filter)
	if err != nil {
		return HistorySnapshot{}, fmt.Errorf("count history results: %w", err)
	}

	snap := HistorySnapshot{
		Query:    q,
		Expenses: expenses,
		Total:    total,
		HasMore:  total > len(expenses),
	}

	if tagMode {
		snap.TagSuggestions, err = h.suggestTags(ctx, search)
		if err != nil {
			return HistorySnapshot{}, err
		}
	}

	if len(expenses) == 0 {
		empty, err := h.store.CountExpenses(ctx, storage.Filter{})
		if err != nil {
			return HistorySnapshot{}, fmt.Errorf("count store: %w", err)
		}
		if empty == 0 {
			snap.Empty = EmptyStore
		} else {
			snap.Empty = EmptyFilter
		}
	}
	return snap, nil
}

func (h *History) suggestTags(ctx context.Context, fragment string) ([]core.Tag, error) {
	tags, err := h.store.ListTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tags for suggestions: %w", err)
	}
	if fragment == "" {
		return tags, nil
	}

	fragment = strings.ToLower(fragment)
	var matched []core.Tag
	for _, t := range tags {
		if strings.Contains(strings.ToLower(t.Name), fragment) {
			matched = append(matched, t)
		}
	}
	return matched, nil
}

// splitSearch separates the tag-suggestion trigger from the query text.
func splitSearch(search string) (text string, tagMode bool) {
	if strings.HasPrefix(search, "#") {
		return strings.TrimPrefix(search, "#"), true
	}
	return search, false
}
