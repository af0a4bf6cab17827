package order_test

import (
	"context"
	"io"
	"log"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xdnjs7/snack-order-service/internal/approval"
	"github.com/xdnjs7/snack-order-service/internal/budget"
	"github.com/xdnjs7/snack-order-service/internal/cart"
	"github.com/xdnjs7/snack-order-service/internal/order"
	"github.com/xdnjs7/snack-order-service/internal/testutil"
)

type noopEvents struct{}

func (noopEvents) PublishOrderCreated(context.Context, *order.Order) error          { return nil }
func (noopEvents) PublishOrderCanceled(context.Context, *order.Order, string) error { return nil }
func (noopEvents) PublishOrderDecided(context.Context, *order.Order) error          { return nil }

func seed(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	ctx := context.Background()

	_, err := pool.Exec(ctx, `
		INSERT INTO products (id, name, unit_price) VALUES
			('p1', 'Honey Butter Chips', 1500),
			('p2', 'Cola', 500)
	`)
	require.NoError(t, err)

	_, err = pool.Exec(ctx, `
		INSERT INTO budgets (company_id, monthly_budget, current_month_budget, current_month_expense)
		VALUES ('c1', 1000000, 1000000, 800000)
	`)
	require.NoError(t, err)

	_, err = pool.Exec(ctx, `
		INSERT INTO cart_items (id, user_id, product_id, quantity) VALUES
			('l1', 'u1', 'p1', 2),
			('l2', 'u1', 'p2', 3)
	`)
	require.NoError(t, err)
}

func TestOrderLifecycleAgainstPostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	pool := testutil.StartPostgres(t)
	seed(t, pool)
	ctx := context.Background()

	logger := log.New(io.Discard, "", 0)
	orderRepo := order.NewPostgresRepository(pool)
	cartRepo := cart.NewPostgresRepository(pool)
	ledger := budget.NewLedger(pool)
	svc := order.NewService(orderRepo, cartRepo, ledger, noopEvents{}, 3000, logger)
	workflow := approval.NewWorkflow(orderRepo, ledger, noopEvents{}, logger)

	o, err := svc.Create(ctx, "u1", "c1", []string{"l1", "l2"}, "pantry restock")
	require.NoError(t, err)
	assert.Equal(t, order.StatusPending, o.Status)
	assert.Equal(t, int64(4500), o.TotalPrice)
	assert.Equal(t, int64(7500), o.Total())

	// the cart lines were consumed in the same transaction
	lines, err := cartRepo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, lines)

	// the snapshot survives a catalog price change
	_, err = pool.Exec(ctx, `UPDATE products SET unit_price = 9000 WHERE id = 'p1'`)
	require.NoError(t, err)

	got, err := svc.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4500), got.TotalPrice)

	decided, err := workflow.Decide(ctx, o.ID, "admin1", approval.DecisionApprove, "enjoy")
	require.NoError(t, err)
	assert.Equal(t, order.StatusApproved, decided.Status)
	assert.Equal(t, "admin1", decided.ApproverID)

	// the approval charged the budget
	remaining, err := ledger.Remaining(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, int64(200000-7500), remaining)

	// a second decision replays into a conflict and charges nothing
	_, err = workflow.Decide(ctx, o.ID, "admin2", approval.DecisionApprove, "")
	var transition *order.InvalidTransitionError
	require.ErrorAs(t, err, &transition)

	remaining, err = ledger.Remaining(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, int64(192500), remaining)
}

func TestApproveBeyondBudgetAgainstPostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	pool := testutil.StartPostgres(t)
	seed(t, pool)
	ctx := context.Background()

	logger := log.New(io.Discard, "", 0)
	orderRepo := order.NewPostgresRepository(pool)
	cartRepo := cart.NewPostgresRepository(pool)
	ledger := budget.NewLedger(pool)
	svc := order.NewService(orderRepo, cartRepo, ledger, noopEvents{}, 3000, logger)
	workflow := approval.NewWorkflow(orderRepo, ledger, noopEvents{}, logger)

	// 100 bags of chips: 150,000 + 3,000 delivery, against 200,000 remaining
	_, err := pool.Exec(ctx, `UPDATE cart_items SET quantity = 100 WHERE id = 'l1'`)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `UPDATE budgets SET current_month_expense = 900000 WHERE company_id = 'c1'`)
	require.NoError(t, err)

	o, err := svc.Create(ctx, "u1", "c1", []string{"l1"}, "")
	require.NoError(t, err)

	_, err = workflow.Decide(ctx, o.ID, "admin1", approval.DecisionApprove, "")

	var exceeded *budget.ExceededError
	require.ErrorAs(t, err, &exceeded)
	assert.Equal(t, int64(100000), exceeded.Remaining)

	// the order is still pending and nothing was charged
	got, err := svc.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusPending, got.Status)

	remaining, err := ledger.Remaining(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, int64(100000), remaining)
}

func TestConcurrentApprovalsNeverOverspendAgainstPostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	pool := testutil.StartPostgres(t)
	seed(t, pool)
	ctx := context.Background()

	logger := log.New(io.Discard, "", 0)
	orderRepo := order.NewPostgresRepository(pool)
	cartRepo := cart.NewPostgresRepository(pool)
	ledger := budget.NewLedger(pool)
	svc := order.NewService(orderRepo, cartRepo, ledger, noopEvents{}, 3000, logger)
	workflow := approval.NewWorkflow(orderRepo, ledger, noopEvents{}, logger)

	// two orders, each affordable alone against the 200,000 remaining but
	// not both: 153,000 + 53,000 = 206,000
	_, err := pool.Exec(ctx, `UPDATE cart_items SET quantity = 100`)
	require.NoError(t, err)

	first, err := svc.Create(ctx, "u1", "c1", []string{"l1"}, "")
	require.NoError(t, err)
	second, err := svc.Create(ctx, "u1", "c1", []string{"l2"}, "")
	require.NoError(t, err)
	require.Greater(t, first.Total()+second.Total(), int64(200000))

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i, id := range []string{first.ID, second.ID} {
		i, id := i, id
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = workflow.Decide(ctx, id, "admin1", approval.DecisionApprove, "")
		}()
	}
	wg.Wait()

	var approved, refused int
	for _, err := range errs {
		if err == nil {
			approved++
			continue
		}
		var exceeded *budget.ExceededError
		require.ErrorAs(t, err, &exceeded)
		refused++
	}
	assert.Equal(t, 1, approved, "at most one of the racing approvals may land")
	assert.Equal(t, 1, refused)

	// the ledger reflects exactly the winner's charge and never goes negative
	remaining, err := ledger.Remaining(ctx, "c1")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, remaining, int64(0))
	assert.Contains(t, []int64{200000 - first.Total(), 200000 - second.Total()}, remaining)
}
