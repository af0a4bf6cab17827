package budget

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/xdnjs7/snack-order-service/internal/db"
)

// DBPool matches the methods from *pgxpool.Pool that we use.
// This allows us to mock the database in tests.
type DBPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// Ledger holds a company's monthly budget and accumulated expense.
// CurrentMonthExpense is only ever increased through CommitTx, which runs
// inside the same transaction as the order status write.
type Ledger struct {
	pool DBPool
}

func NewLedger(pool DBPool) *Ledger {
	return &Ledger{pool: pool}
}

const budgetColumns = `
	company_id, monthly_budget, current_month_budget, current_month_expense,
	period_start, updated_at`

func (l *Ledger) Get(ctx context.Context, companyID string) (Budget, error) {
	var b Budget
	err := l.pool.QueryRow(ctx, `
		SELECT `+budgetColumns+`
		FROM budgets WHERE company_id = $1
	`, companyID).Scan(
		&b.CompanyID, &b.MonthlyBudget, &b.CurrentMonthBudget,
		&b.CurrentMonthExpense, &b.PeriodStart, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Budget{}, ErrNotFound
		}
		return Budget{}, fmt.Errorf("select budget: %w", err)
	}
	return b, nil
}

// Remaining returns how much room is left for companyID this month.
func (l *Ledger) Remaining(ctx context.Context, companyID string) (int64, error) {
	b, err := l.Get(ctx, companyID)
	if err != nil {
		return 0, err
	}
	return b.Remaining(), nil
}

// CanAfford reports whether cost fits in the remaining room, along with the
// remaining figure for display. This is an advisory read; the authoritative
// check happens again under lock in CommitTx.
func (l *Ledger) CanAfford(ctx context.Context, companyID string, cost int64) (bool, int64, error) {
	b, err := l.Get(ctx, companyID)
	if err != nil {
		return false, 0, err
	}
	return b.CanAfford(cost), b.Remaining(), nil
}

// CommitTx atomically charges cost against the company's budget. The budget
// row is locked for the duration of tx, so two approvers racing against the
// same remaining room serialize here and the loser gets ExceededError.
// It returns the remaining room after the charge.
func (l *Ledger) CommitTx(ctx context.Context, tx db.Tx, companyID string, cost int64) (int64, error) {
	var currentBudget, expense int64
	err := tx.QueryRow(ctx, `
		SELECT current_month_budget, current_month_expense
		FROM budgets
		WHERE company_id = $1
		FOR UPDATE
	`, companyID).Scan(&currentBudget, &expense)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("lock budget row: %w", err)
	}

	remaining := currentBudget - expense
	if remaining-cost < 0 {
		return 0, &ExceededError{CompanyID: companyID, Remaining: remaining, Cost: cost}
	}

	_, err = tx.Exec(ctx, `
		UPDATE budgets
		SET current_month_expense = current_month_expense + $2, updated_at = NOW()
		WHERE company_id = $1
	`, companyID, cost)
	if err != nil {
		return 0, fmt.Errorf("commit expense: %w", err)
	}

	return remaining - cost, nil
}

// Update sets the budget figures for a company. The current month budget may
// not drop below what was already spent.
func (l *Ledger) Update(ctx context.Context, companyID string, currentMonthBudget, monthlyBudget int64) (Budget, error) {
	if currentMonthBudget < 0 || monthlyBudget < 0 {
		return Budget{}, fmt.Errorf("budget figures must be non-negative")
	}

	var b Budget
	err := l.pool.QueryRow(ctx, `
		UPDATE budgets
		SET current_month_budget = $2, monthly_budget = $3, updated_at = NOW()
		WHERE company_id = $1 AND current_month_expense <= $2
		RETURNING `+budgetColumns+`
	`, companyID, currentMonthBudget, monthlyBudget).Scan(
		&b.CompanyID, &b.MonthlyBudget, &b.CurrentMonthBudget,
		&b.CurrentMonthExpense, &b.PeriodStart, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// either the company is unknown or the new budget is below spend
			if _, getErr := l.Get(ctx, companyID); errors.Is(getErr, ErrNotFound) {
				return Budget{}, ErrNotFound
			}
			return Budget{}, ErrBelowSpent
		}
		return Budget{}, fmt.Errorf("update budget: %w", err)
	}
	return b, nil
}
