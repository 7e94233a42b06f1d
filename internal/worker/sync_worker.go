// Package worker consumes expense change messages and mirrors them into the
// spreadsheet backup. The database is the source of truth: the worker fetches
// current state per message, so out-of-order and replayed deliveries converge.
package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/HeadAech/ExpenseTracker/internal/amqp"
	"github.com/HeadAech/ExpenseTracker/internal/core"
	"github.com/HeadAech/ExpenseTracker/internal/log"
	"github.com/HeadAech/ExpenseTracker/internal/sheets"
	"github.com/HeadAech/ExpenseTracker/internal/storage"
)

// Store is the read surface the worker needs to resolve a message into a row.
type Store interface {
	GetExpense(ctx context.Context, id string) (core.Expense, error)
	GetTag(ctx context.Context, id string) (core.Tag, error)
}

// SyncWorker applies one change message at a time to the backup sheet.
type SyncWorker struct {
	store    Store
	upserter sheets.ExpenseUpserter
	deleter  sheets.ExpenseDeleter
	logger   *log.Logger
}

func NewSyncWorker(store Store, upserter sheets.ExpenseUpserter, deleter sheets.ExpenseDeleter, logger *log.Logger) *SyncWorker {
	return &SyncWorker{
		store:    store,
		upserter: upserter,
		deleter:  deleter,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// HandleChangeMessage processes a single expense change message. Returning an
// error requeues the message.
func (w *SyncWorker) HandleChangeMessage(ctx context.Context, msg *amqp.ExpenseChangedMessage) error {
	w.logger.InfoContext(ctx, "Processing change message",
		log.FieldExpenseID, msg.ID,
		"change", msg.Change)

	if msg.Change == amqp.ChangeDeleted {
		if err := w.deleter.Delete(ctx, msg.ID); err != nil {
			return fmt.Errorf("delete expense row: %w", err)
		}
		return nil
	}

	expense, err := w.store.GetExpense(ctx, msg.ID)
	if errors.Is(err, storage.ErrNotFound) {
		// Deleted locally after this message was queued. The delete message
		// behind it in the queue removes the row; nothing to write now.
		w.logger.WarnContext(ctx, "Expense vanished before sync, skipping",
			log.FieldExpenseID, msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get expense from storage: %w", err)
	}

	row := sheets.Row{Expense: expense}
	if expense.TagID != "" {
		tag, err := w.store.GetTag(ctx, expense.TagID)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			w.logger.WarnContext(ctx, "Tag vanished before sync, exporting untagged",
				log.FieldExpenseID, msg.ID,
				log.FieldTagID, expense.TagID)
		case err != nil:
			return fmt.Errorf("get tag from storage: %w", err)
		default:
			row.TagName = tag.Name
		}
	}

	if err := w.upserter.Upsert(ctx, row); err != nil {
		return fmt.Errorf("upsert expense row: %w", err)
	}

	w.logger.InfoContext(ctx, "Expense synced",
		log.FieldExpenseID, msg.ID,
		log.FieldValueCents, expense.Value.Cents)
	return nil
}

// Resync pushes every stored expense into the sheet. Run at startup to
// recover from missed messages or worker downtime.
func (w *SyncWorker) Resync(ctx context.Context, lister interface {
	FetchExpenses(ctx context.Context, f storage.Filter) ([]core.Expense, error)
}) error {
	expenses, err := lister.FetchExpenses(ctx, storage.Filter{})
	if err != nil {
		return fmt.Errorf("list expenses for resync: %w", err)
	}

	synced, failed := 0, 0
	for _, e := range expenses {
		msg := &amqp.ExpenseChangedMessage{ID: e.ID, Change: amqp.ChangeUpdated}
		if err := w.HandleChangeMessage(ctx, msg); err != nil {
			w.logger.ErrorContext(ctx, "Resync failed for expense",
				log.FieldExpenseID, e.ID,
				log.FieldError, err)
			failed++
			continue
		}
		synced++
	}

	w.logger.InfoContext(ctx, "Resync completed",
		"total", len(expenses),
		"synced", synced,
		"errors", failed)
	return nil
}
