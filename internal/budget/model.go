package budget

import "time"

// Budget is a company's allowance for the running month. MonthlyBudget is the
// recurring allowance; CurrentMonthBudget is the effective budget for the
// current period and may be edited by a super admin. Period rollover is
// handled by an external job and resets CurrentMonthExpense.
type Budget struct {
	CompanyID           string    `json:"companyId"`
	MonthlyBudget       int64     `json:"monthlyBudget"`
	CurrentMonthBudget  int64     `json:"currentMonthBudget"`
	CurrentMonthExpense int64     `json:"currentMonthExpense"`
	PeriodStart         time.Time `json:"periodStart"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// Remaining is how much room is left this month.
func (b Budget) Remaining() int64 {
	return b.CurrentMonthBudget - b.CurrentMonthExpense
}

// CanAfford reports whether a purchase of cost fits in the remaining room.
func (b Budget) CanAfford(cost int64) bool {
	return b.Remaining()-cost >= 0
}
