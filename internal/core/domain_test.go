package core

import (
	"testing"
	"time"
)

func TestExpenseValidate(t *testing.T) {
	now := date(2024, time.September, 18, 12, 0)
	good := Expense{
		Name:  "Groceries",
		Date:  date(2024, time.September, 18, 9, 0),
		Value: Money{Cents: 1234},
	}
	if err := good.Validate(now); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name string
		e    Expense
		want error
	}{
		{"empty name", Expense{Name: "  ", Date: now, Value: Money{Cents: 1}}, ErrEmptyName},
		{"zero date", Expense{Name: "a", Value: Money{Cents: 1}}, ErrZeroDate},
		{"future date", Expense{Name: "a", Date: now.Add(time.Hour), Value: Money{Cents: 1}}, ErrFutureDate},
		{"zero amount", Expense{Name: "a", Date: now, Value: Money{Cents: 0}}, ErrInvalidAmount},
		{"negative amount", Expense{Name: "a", Date: now, Value: Money{Cents: -5}}, ErrInvalidAmount},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.e.Validate(now); err != tc.want {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestTagValidate(t *testing.T) {
	// Empty names are legal: an empty-name tag is distinct from "no tag".
	if err := (Tag{Name: "", Color: "#ff0000", Icon: "cart"}).Validate(); err != nil {
		t.Fatalf("empty tag name must validate, got %v", err)
	}
	if err := (Tag{Name: "Food", Color: "ff0000"}).Validate(); err != nil {
		t.Fatalf("bare hex must validate, got %v", err)
	}
	if err := (Tag{Name: "Food", Color: "red"}).Validate(); err == nil {
		t.Fatalf("non-hex color must fail")
	}
}
