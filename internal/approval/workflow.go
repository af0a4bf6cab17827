// Package approval implements the admin decision procedure: it re-validates
// the company budget at decision time and writes the terminal order state and
// the budget charge as a single transaction.
package approval

import (
	"context"
	"fmt"
	"log"

	"github.com/xdnjs7/snack-order-service/internal/db"
	"github.com/xdnjs7/snack-order-service/internal/order"
)

type Decision string

const (
	DecisionApprove Decision = "APPROVE"
	DecisionReject  Decision = "REJECT"
)

func (d Decision) status() (order.Status, bool) {
	switch d {
	case DecisionApprove:
		return order.StatusApproved, true
	case DecisionReject:
		return order.StatusRejected, true
	}
	return "", false
}

// OrderStore is the slice of the order repository the workflow needs.
type OrderStore interface {
	Begin(ctx context.Context) (db.Tx, error)
	GetForUpdateTx(ctx context.Context, tx db.Tx, orderID string) (*order.Order, error)
	UpdateStatusTx(ctx context.Context, tx db.Tx, orderID string, from, to order.Status, approverID, adminMessage string) error
}

// Ledger charges the company budget inside the decision transaction.
type Ledger interface {
	CommitTx(ctx context.Context, tx db.Tx, companyID string, cost int64) (int64, error)
}

// EventPublisher emits the decided event after the transaction commits.
type EventPublisher interface {
	PublishOrderDecided(ctx context.Context, o *order.Order) error
}

type Workflow struct {
	orders OrderStore
	ledger Ledger
	events EventPublisher
	logger *log.Logger
}

func NewWorkflow(orders OrderStore, ledger Ledger, events EventPublisher, logger *log.Logger) *Workflow {
	return &Workflow{orders: orders, ledger: ledger, events: events, logger: logger}
}

// Decide resolves a PENDING order to APPROVED or REJECTED.
//
// The order row is locked first, so two decisions on the same order
// serialize and the loser sees a terminal status. For APPROVE the budget row
// is then locked and charged in the same transaction; two admins approving
// different orders against the same remaining room serialize on that row and
// at most one can pass admission control. On a budget shortfall the order
// stays PENDING and the caller gets budget.ExceededError with the remaining
// figure.
func (w *Workflow) Decide(ctx context.Context, orderID, approverID string, d Decision, adminMessage string) (*order.Order, error) {
	target, ok := d.status()
	if !ok {
		return nil, fmt.Errorf("unknown decision %q", d)
	}

	tx, err := w.orders.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o, err := w.orders.GetForUpdateTx(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status != order.StatusPending {
		return nil, &order.InvalidTransitionError{OrderID: orderID, From: o.Status, To: target}
	}

	if d == DecisionApprove {
		if _, err := w.ledger.CommitTx(ctx, tx, o.CompanyID, o.Total()); err != nil {
			return nil, err
		}
	}

	if err := w.orders.UpdateStatusTx(ctx, tx, orderID, order.StatusPending, target, approverID, adminMessage); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	o.Status = target
	o.ApproverID = approverID
	o.AdminMessage = adminMessage

	if err := w.events.PublishOrderDecided(ctx, o); err != nil {
		w.logger.Printf("publish order decided %s: %v", o.ID, err)
	}
	return o, nil
}

// SettleInstant lands a confirmed instant-purchase order: same atomic
// budget-commit-plus-status-write as an approval, with the requester
// recorded as the approver.
func (w *Workflow) SettleInstant(ctx context.Context, o *order.Order) (*order.Order, error) {
	return w.Decide(ctx, o.ID, o.RequesterID, DecisionApprove, "")
}
