package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/HeadAech/ExpenseTracker/internal/amqp"
	"github.com/HeadAech/ExpenseTracker/internal/core"
	"github.com/HeadAech/ExpenseTracker/internal/events"
	"github.com/HeadAech/ExpenseTracker/internal/log"
	"github.com/HeadAech/ExpenseTracker/internal/storage"
)

// ExpenseService orchestrates expense mutations: local writes first, then
// change fan-out to in-process subscribers and the broker. Broker publishes
// never fail the request; the local write already succeeded.
type ExpenseService struct {
	store     Store
	publisher Publisher
	hub       *events.Hub
	logger    *log.Logger
	now       func() time.Time
}

func NewExpenseService(store Store, publisher Publisher, hub *events.Hub, logger *log.Logger) *ExpenseService {
	return &ExpenseService{
		store:     store,
		publisher: publisher,
		hub:       hub,
		logger:    logger.WithComponent(log.ComponentExpense),
		now:       time.Now,
	}
}

// CreateExpense validates e, assigns it a fresh ID and stores it. The
// caller-supplied ID, if any, is ignored.
func (s *ExpenseService) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(s.now()); err != nil {
		return core.Expense{}, fmt.Errorf("validate expense: %w", err)
	}

	e.ID = uuid.New().String()
	if err := s.store.InsertExpense(ctx, e); err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	s.hub.Publish(events.Change{Kind: events.ExpenseCreated, ID: e.ID})
	s.publishChange(ctx, e.ID, amqp.ChangeCreated)
	return e, nil
}

// UpdateExpense validates and rewrites an existing expense.
func (s *ExpenseService) UpdateExpense(ctx context.Context, e core.Expense) error {
	if err := e.Validate(s.now()); err != nil {
		return fmt.Errorf("validate expense: %w", err)
	}

	if err := s.store.UpdateExpense(ctx, e); err != nil {
		return fmt.Errorf("update expense: %w", err)
	}

	s.hub.Publish(events.Change{Kind: events.ExpenseUpdated, ID: e.ID})
	s.publishChange(ctx, e.ID, amqp.ChangeUpdated)
	return nil
}

// DeleteExpense removes one expense.
func (s *ExpenseService) DeleteExpense(ctx context.Context, id string) error {
	if err := s.store.DeleteExpense(ctx, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}

	s.hub.Publish(events.Change{Kind: events.ExpenseDeleted, ID: id})
	s.publishChange(ctx, id, amqp.ChangeDeleted)
	return nil
}

// DeleteAllExpenses wipes the store. Each removed expense gets its own broker
// message so the backup worker can clear the spreadsheet row by row.
func (s *ExpenseService) DeleteAllExpenses(ctx context.Context) error {
	existing, err := s.store.FetchExpenses(ctx, storage.Filter{})
	if err != nil {
		return fmt.Errorf("list expenses for bulk delete: %w", err)
	}

	if err := s.store.DeleteAllExpenses(ctx); err != nil {
		return fmt.Errorf("delete all expenses: %w", err)
	}

	for _, e := range existing {
		s.hub.Publish(events.Change{Kind: events.ExpenseDeleted, ID: e.ID})
		s.publishChange(ctx, e.ID, amqp.ChangeDeleted)
	}

	s.logger.InfoContext(ctx, "All expenses deleted", "count", len(existing))
	return nil
}

// GetExpense fetches one expense by ID.
func (s *ExpenseService) GetExpense(ctx context.Context, id string) (core.Expense, error) {
	return s.store.GetExpense(ctx, id)
}

func (s *ExpenseService) publishChange(ctx context.Context, id string, change amqp.ChangeKind) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishExpenseChange(ctx, id, change); err != nil {
		// Local write already succeeded; the worker catches up on replay.
		s.logger.ErrorContext(ctx, "Failed to publish change message",
			log.FieldExpenseID, id,
			"change", change,
			log.FieldError, err)
	}
}
