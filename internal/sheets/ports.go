// Package sheets defines the outbound ports for the spreadsheet backup.
package sheets

import (
	"context"

	"github.com/HeadAech/ExpenseTracker/internal/core"
)

// Row is one expense as it appears in the backup sheet. TagName is resolved
// before export; the sheet stores names, not tag IDs.
type Row struct {
	Expense core.Expense
	TagName string
}

// Ports for outbound adapters.
type (
	// ExpenseUpserter writes an expense row keyed by expense ID, replacing an
	// existing row for the same ID.
	ExpenseUpserter interface {
		Upsert(ctx context.Context, row Row) error
	}

	// ExpenseDeleter removes the row for an expense ID. Deleting an absent ID
	// is not an error; replayed messages must stay idempotent.
	ExpenseDeleter interface {
		Delete(ctx context.Context, id string) error
	}
)
