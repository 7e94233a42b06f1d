// Package memory is an in-memory sheet adapter for tests and local runs
// without Google credentials.
package memory

import (
	"context"
	"sync"

	"github.com/HeadAech/ExpenseTracker/internal/sheets"
)

type Exporter struct {
	mu   sync.Mutex
	rows map[string]sheets.Row
}

var (
	_ sheets.ExpenseUpserter = (*Exporter)(nil)
	_ sheets.ExpenseDeleter  = (*Exporter)(nil)
)

func New() *Exporter {
	return &Exporter{rows: make(map[string]sheets.Row)}
}

func (e *Exporter) Upsert(_ context.Context, row sheets.Row) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rows[row.Expense.ID] = row
	return nil
}

func (e *Exporter) Delete(_ context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.rows, id)
	return nil
}

// Row returns the stored row for an ID, if present.
func (e *Exporter) Row(id string) (sheets.Row, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	row, ok := e.rows[id]
	return row, ok
}

// Len returns the number of stored rows.
func (e *Exporter) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.rows)
}
