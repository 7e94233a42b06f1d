package core

import (
	"errors"
	"strings"
	"time"
)

type (
	// Expense is a single spending event. Value is stored in cents; Image is an
	// optional opaque blob carried through untouched. TagID is empty for untagged
	// expenses; a tag whose name is empty is a different thing entirely.
	Expense struct {
		ID    string
		Name  string
		Date  time.Time
		Value Money
		Image []byte
		TagID string
	}

	// Tag is a user-defined category label. Color is a hex string and Icon an
	// opaque symbol identifier; neither is interpreted here.
	Tag struct {
		ID    string
		Name  string
		Color string
		Icon  string
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrEmptyName     = errors.New("empty name")
	ErrFutureDate    = errors.New("date is in the future")
	ErrZeroDate      = errors.New("date cannot be zero")
)

// Validate enforces the entry-point rules for creating or editing an expense.
// Aggregation and query paths never call this: historical rows that predate a
// rule still have to be summed, not rejected.
func (e Expense) Validate(now time.Time) error {
	if len(strings.TrimSpace(e.Name)) == 0 {
		return ErrEmptyName
	}
	if len(e.Name) > 200 {
		return errors.New("name too long (max 200 characters)")
	}
	if e.Date.IsZero() {
		return ErrZeroDate
	}
	if e.Date.After(now) {
		return ErrFutureDate
	}
	if err := e.Value.Validate(); err != nil {
		return err
	}
	return nil
}

// Validate checks a tag for entry-point use. Empty names are allowed: the
// presentation layer renders them as "untagged", but they remain real tags.
func (t Tag) Validate() error {
	if len(t.Name) > 100 {
		return errors.New("tag name too long (max 100 characters)")
	}
	if len(t.Color) > 0 && !isHexColor(t.Color) {
		return errors.New("tag color must be a hex string")
	}
	return nil
}

func isHexColor(s string) bool {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 && len(s) != 8 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
