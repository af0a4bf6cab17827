package httpapi

import (
	"context"
	"log"

	"github.com/xdnjs7/snack-order-service/internal/approval"
	"github.com/xdnjs7/snack-order-service/internal/budget"
	"github.com/xdnjs7/snack-order-service/internal/cart"
	"github.com/xdnjs7/snack-order-service/internal/order"
	"github.com/xdnjs7/snack-order-service/internal/payment"
)

type OrderService interface {
	Create(ctx context.Context, requesterID, companyID string, lineIDs []string, requestMessage string) (*order.Order, error)
	InstantPurchase(ctx context.Context, requesterID, companyID string, lineIDs []string) (*order.Order, error)
	Cancel(ctx context.Context, orderID, actorID string) error
	Get(ctx context.Context, orderID string) (*order.Order, error)
	List(ctx context.Context, companyID string, f order.ListFilter) ([]order.Order, int, error)
	ListMine(ctx context.Context, requesterID string) ([]order.Order, error)
}

type ApprovalService interface {
	Decide(ctx context.Context, orderID, approverID string, d approval.Decision, adminMessage string) (*order.Order, error)
}

type BudgetService interface {
	Get(ctx context.Context, companyID string) (budget.Budget, error)
	Update(ctx context.Context, companyID string, currentMonthBudget, monthlyBudget int64) (budget.Budget, error)
}

type PaymentConfirmer interface {
	Confirm(ctx context.Context, orderID string, amount int64, paymentKey string) (*order.Order, error)
}

type CheckoutGuard interface {
	CancelPending(ctx context.Context, orderID, actorID string) error
}

type Handler struct {
	orders    OrderService
	approvals ApprovalService
	budgets   BudgetService
	carts     cart.Repository
	confirmer PaymentConfirmer
	guard     CheckoutGuard
	sessions  payment.SessionStore
	logger    *log.Logger
}

func NewHandler(
	orders OrderService,
	approvals ApprovalService,
	budgets BudgetService,
	carts cart.Repository,
	confirmer PaymentConfirmer,
	guard CheckoutGuard,
	sessions payment.SessionStore,
	logger *log.Logger,
) *Handler {
	return &Handler{
		orders:    orders,
		approvals: approvals,
		budgets:   budgets,
		carts:     carts,
		confirmer: confirmer,
		guard:     guard,
		sessions:  sessions,
		logger:    logger,
	}
}
