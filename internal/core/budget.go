package core

// BudgetPeriod selects which window a budget limit applies to.
type BudgetPeriod string

const (
	BudgetDaily   BudgetPeriod = "daily"
	BudgetMonthly BudgetPeriod = "monthly"
)

// Valid reports whether p is a known period.
func (p BudgetPeriod) Valid() bool {
	return p == BudgetDaily || p == BudgetMonthly
}

// BudgetConfig is the persisted budget preferences, loaded by a single owner
// and passed in explicitly. The engine never reads ambient settings state.
type BudgetConfig struct {
	Limit    Money
	Period   BudgetPeriod
	Currency string
}

// BudgetStatus is a point-in-time comparison of spend against a limit.
// Remaining carries the signed value for over-budget detection;
// DisplayRemaining is clamped at zero for usage visualizations.
type BudgetStatus struct {
	Limit            Money
	Spent            Money
	Remaining        Money
	DisplayRemaining Money
	OverBudget       bool
}

// EvaluateBudget computes remaining budget for a period total. No history is
// kept; callers re-evaluate whenever spend or limit changes.
func EvaluateBudget(limit, spent Money) BudgetStatus {
	remaining := limit.Sub(spent)
	display := remaining
	if display.Cents < 0 {
		display = Money{}
	}
	return BudgetStatus{
		Limit:            limit,
		Spent:            spent,
		Remaining:        remaining,
		DisplayRemaining: display,
		OverBudget:       spent.Cents > limit.Cents,
	}
}
