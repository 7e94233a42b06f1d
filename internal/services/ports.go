// Package services orchestrates the expense domain: mutations against the
// store, change fan-out to subscribers and the broker, and the derived query
// engines (history and statistics).
package services

import (
	"context"

	"github.com/HeadAech/ExpenseTracker/internal/amqp"
	"github.com/HeadAech/ExpenseTracker/internal/core"
	"github.com/HeadAech/ExpenseTracker/internal/storage"
)

// Store is the persistence surface the services depend on. *storage.Repository
// implements it; tests substitute an in-memory fake.
type Store interface {
	InsertExpense(ctx context.Context, e core.Expense) error
	UpdateExpense(ctx context.Context, e core.Expense) error
	DeleteExpense(ctx context.Context, id string) error
	DeleteAllExpenses(ctx context.Context) error
	GetExpense(ctx context.Context, id string) (core.Expense, error)
	FetchExpenses(ctx context.Context, f storage.Filter) ([]core.Expense, error)
	CountExpenses(ctx context.Context, f storage.Filter) (int, error)

	InsertTag(ctx context.Context, t core.Tag) error
	UpdateTag(ctx context.Context, t core.Tag) error
	GetTag(ctx context.Context, id string) (core.Tag, error)
	ListTags(ctx context.Context) ([]core.Tag, error)
	DeleteTag(ctx context.Context, id string) error

	GetBudgetConfig(ctx context.Context) (core.BudgetConfig, error)
	SetBudgetConfig(ctx context.Context, cfg core.BudgetConfig) error
}

var _ Store = (*storage.Repository)(nil)

// Publisher pushes expense change messages to the broker for the backup
// worker. A nil Publisher disables broker sync entirely.
type Publisher interface {
	PublishExpenseChange(ctx context.Context, id string, change amqp.ChangeKind) error
}

var _ Publisher = (*amqp.Client)(nil)
