// Package events carries change notifications from the mutation paths to
// derived-state consumers. It replaces framework-level live queries with a
// plain observer: mutate the store, publish a change, and every subscriber
// re-runs its query.
package events

import "sync"

// Kind identifies what changed.
type Kind string

const (
	ExpenseCreated Kind = "expense_created"
	ExpenseUpdated Kind = "expense_updated"
	ExpenseDeleted Kind = "expense_deleted"
	TagDeleted     Kind = "tag_deleted"
)

// Change is one store mutation. ID refers to the affected record.
type Change struct {
	Kind Kind
	ID   string
}

// Hub fans changes out to subscribers. Publishing never blocks: a subscriber
// that is not draining its channel misses intermediate changes, which is fine
// because consumers re-query the store rather than replay deltas.
type Hub struct {
	mu   sync.Mutex
	subs map[int]chan Change
	next int
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int]chan Change)}
}

// Subscribe returns a buffered change channel and a cancel function. Cancel
// must be called exactly once; the channel is closed by it.
func (h *Hub) Subscribe() (<-chan Change, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.next
	h.next++
	ch := make(chan Change, 16)
	h.subs[id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if c, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

// Publish delivers c to every subscriber that has buffer room.
func (h *Hub) Publish(c Change) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subs {
		select {
		case ch <- c:
		default:
		}
	}
}
