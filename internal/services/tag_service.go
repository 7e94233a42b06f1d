package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/HeadAech/ExpenseTracker/internal/core"
	"github.com/HeadAech/ExpenseTracker/internal/events"
	"github.com/HeadAech/ExpenseTracker/internal/log"
)

// TagService manages the user-defined category labels.
type TagService struct {
	store  Store
	hub    *events.Hub
	logger *log.Logger
}

func NewTagService(store Store, hub *events.Hub, logger *log.Logger) *TagService {
	return &TagService{
		store:  store,
		hub:    hub,
		logger: logger.WithComponent(log.ComponentExpense),
	}
}

// CreateTag validates t, assigns it a fresh ID and stores it.
func (s *TagService) CreateTag(ctx context.Context, t core.Tag) (core.Tag, error) {
	if err := t.Validate(); err != nil {
		return core.Tag{}, fmt.Errorf("validate tag: %w", err)
	}

	t.ID = uuid.New().String()
	if err := s.store.InsertTag(ctx, t); err != nil {
		return core.Tag{}, fmt.Errorf("save tag: %w", err)
	}
	return t, nil
}

// UpdateTag validates and rewrites an existing tag.
func (s *TagService) UpdateTag(ctx context.Context, t core.Tag) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("validate tag: %w", err)
	}
	if err := s.store.UpdateTag(ctx, t); err != nil {
		return fmt.Errorf("update tag: %w", err)
	}
	return nil
}

// DeleteTag removes a tag. The store nullifies every expense reference in the
// same transaction, so the expenses survive as untagged.
func (s *TagService) DeleteTag(ctx context.Context, id string) error {
	if err := s.store.DeleteTag(ctx, id); err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}

	s.hub.Publish(events.Change{Kind: events.TagDeleted, ID: id})
	return nil
}

// GetTag fetches one tag by ID.
func (s *TagService) GetTag(ctx context.Context, id string) (core.Tag, error) {
	return s.store.GetTag(ctx, id)
}

// ListTags returns all tags in creation order.
func (s *TagService) ListTags(ctx context.Context) ([]core.Tag, error) {
	return s.store.ListTags(ctx)
}
