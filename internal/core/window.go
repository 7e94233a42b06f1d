package core

import (
	"errors"
	"time"
)

// ErrWindowComputation reports an inconsistent calendar boundary. Window math
// must fail loudly rather than silently default: a wrong boundary corrupts
// every total derived from it.
var ErrWindowComputation = errors.New("window boundary computation failed")

// Window is a date range used to filter expenses for a report. End handling is
// per-constructor: the today window excludes its end instant, the month and
// week windows include it.
type Window struct {
	Start        time.Time
	End          time.Time
	ExclusiveEnd bool
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	if t.Before(w.Start) {
		return false
	}
	if w.ExclusiveEnd {
		return t.Before(w.End)
	}
	return !t.After(w.End)
}

// IsEmpty reports whether no instant can satisfy the window.
func (w Window) IsEmpty() bool {
	if w.ExclusiveEnd {
		return !w.Start.Before(w.End)
	}
	return w.End.Before(w.Start)
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// TodayWindow returns the half-open range [start of day, start of next day).
func TodayWindow(now time.Time) (Window, error) {
	start := StartOfDay(now)
	end := start.AddDate(0, 0, 1)
	return checkWindow(Window{Start: start, End: end, ExclusiveEnd: true})
}

// CurrentMonthWindow returns [first of month 00:00:00, last of month 23:59:59],
// inclusive on both ends. The end is first-of-month plus one month minus one
// second, so variable month lengths and leap years fall out of the calendar
// arithmetic.
func CurrentMonthWindow(now time.Time) (Window, error) {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 1, 0).Add(-time.Second)
	return checkWindow(Window{Start: start, End: end})
}

// PreviousMonthWindow is CurrentMonthWindow shifted one calendar month back.
// January rolls over to December of the previous year.
func PreviousMonthWindow(now time.Time) (Window, error) {
	firstOfCurrent := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	start := firstOfCurrent.AddDate(0, -1, 0)
	end := firstOfCurrent.Add(-time.Second)
	return checkWindow(Window{Start: start, End: end})
}

// LastSevenDaysWindow returns the weekly-chart range: an eight-day lookback
// from the start of tomorrow, inclusive on both ends. The extra day, after
// the day-boundary shift, guarantees seven fully covered prior days, so the
// chart shows seven bars, not six.
func LastSevenDaysWindow(now time.Time) (Window, error) {
	startOfTomorrow := StartOfDay(now).AddDate(0, 0, 1)
	start := startOfTomorrow.AddDate(0, 0, -8)
	return checkWindow(Window{Start: start, End: startOfTomorrow})
}

// Between returns the caller-supplied inclusive range. No normalization is
// performed: when from is after to the window is simply empty.
func Between(from, to time.Time) Window {
	return Window{Start: from, End: to}
}

// LastSevenDays enumerates the seven day-start values ending today, ascending.
// Callers left-join zero buckets over this list to densify weekly series.
func LastSevenDays(now time.Time) []time.Time {
	startOfTomorrow := StartOfDay(now).AddDate(0, 0, 1)
	days := make([]time.Time, 0, 7)
	for i := 7; i >= 1; i-- {
		days = append(days, startOfTomorrow.AddDate(0, 0, -i))
	}
	return days
}

func checkWindow(w Window) (Window, error) {
	if w.End.Before(w.Start) {
		return Window{}, ErrWindowComputation
	}
	return w, nil
}
