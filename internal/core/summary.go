package core

import (
	"math"
	"sort"
	"time"
)

// DayBucket is one (day, total) pair produced by day-level summarization. Day
// is always a start-of-day instant.
type DayBucket struct {
	Day   time.Time
	Total Money
}

// Total sums the value of every expense in the set. The empty set totals zero.
// Values are summed as-is: zero and negative amounts in historical data are
// arithmetic input here, not business-rule violations.
func Total(expenses []Expense) Money {
	var sum Money
	for _, e := range expenses {
		sum = sum.Add(e.Value)
	}
	return sum
}

// SummarizeByDay groups expenses by the start-of-day of their date and returns
// one bucket per distinct day present, sorted ascending. Two expenses on the
// same calendar day merge regardless of time of day. Days without expenses are
// not synthesized; callers needing a dense series use FillDays.
func SummarizeByDay(expenses []Expense) []DayBucket {
	totals := make(map[time.Time]Money)
	for _, e := range expenses {
		day := StartOfDay(e.Date)
		totals[day] = totals[day].Add(e.Value)
	}

	buckets := make([]DayBucket, 0, len(totals))
	for day, total := range totals {
		buckets = append(buckets, DayBucket{Day: day, Total: total})
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].Day.Before(buckets[j].Day)
	})
	return buckets
}

// FillDays left-joins buckets onto an enumerated day list, producing exactly
// one bucket per listed day with zero totals where no expenses exist. Buckets
// for days outside the list are dropped.
func FillDays(days []time.Time, buckets []DayBucket) []DayBucket {
	byDay := make(map[time.Time]Money, len(buckets))
	for _, b := range buckets {
		byDay[b.Day] = b.Total
	}

	dense := make([]DayBucket, 0, len(days))
	for _, day := range days {
		dense = append(dense, DayBucket{Day: day, Total: byDay[day]})
	}
	return dense
}

// PercentOfTotal returns part/whole as a fraction in [0,1] for ordinary
// inputs, rounded half-up to two decimal places. A zero whole yields 0 so that
// empty periods never propagate a division by zero.
func PercentOfTotal(part, whole Money) float64 {
	if whole.Cents == 0 {
		return 0
	}
	ratio := float64(part.Cents) / float64(whole.Cents)
	return math.Floor(ratio*100+0.5) / 100
}
