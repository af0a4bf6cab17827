// Package checkout compensates for a user abandoning checkout while a
// payment session is open, so orders do not linger PENDING forever and no
// partial charge occurs.
package checkout

import (
	"context"
	"errors"
	"log"

	"github.com/xdnjs7/snack-order-service/internal/payment"
)

// ErrAlreadyConfirmed means the payment moved past the cancelable window;
// canceling through the abandonment path is an error, not silently swallowed.
var ErrAlreadyConfirmed = errors.New("payment already confirmed")

// Navigator is the navigation-intercept port. The concrete implementation
// (browser beforeunload/popstate, native lifecycle hook) is a collaborator.
type Navigator interface {
	OnLeaveAttempt(fn func())
	ConfirmLeave() bool
}

// RemoteNavigator is the Navigator used when interception happens in the
// client: leave attempts arrive as HTTP cancel calls, so the server-side
// hook never fires.
type RemoteNavigator struct{}

func (RemoteNavigator) OnLeaveAttempt(func()) {}
func (RemoteNavigator) ConfirmLeave() bool    { return false }

// OrderCanceler issues the compensating order cancellation.
type OrderCanceler interface {
	Cancel(ctx context.Context, orderID, actorID string) error
}

// Guard watches the payment-session boundary and short-circuits an
// abandoned checkout to CANCELED.
type Guard struct {
	nav      Navigator
	sessions payment.SessionStore
	orders   OrderCanceler
	logger   *log.Logger
}

func NewGuard(nav Navigator, sessions payment.SessionStore, orders OrderCanceler, logger *log.Logger) *Guard {
	return &Guard{nav: nav, sessions: sessions, orders: orders, logger: logger}
}

// Arm registers the leave-attempt interception for one order's checkout.
// When the user confirms leaving and the session is still unconfirmed, the
// cancellation is dispatched before navigation proceeds.
func (g *Guard) Arm(ctx context.Context, orderID, actorID string) {
	g.nav.OnLeaveAttempt(func() {
		sess, err := g.sessions.Get(ctx, orderID)
		if err == nil && sess.Confirmed {
			// past the cancelable window, let the navigation through
			return
		}

		if !g.nav.ConfirmLeave() {
			return
		}

		if err := g.CancelPending(ctx, orderID, actorID); err != nil {
			g.logger.Printf("cancel abandoned order %s: %v", orderID, err)
		}
	})
}

// CancelPending cancels the order and discards its payment session, but only
// while the session has not been confirmed. Racing against a confirmation is
// resolved by treating "already confirmed" as a terminal refusal.
func (g *Guard) CancelPending(ctx context.Context, orderID, actorID string) error {
	sess, err := g.sessions.Get(ctx, orderID)
	if err != nil && !errors.Is(err, payment.ErrSessionNotFound) {
		return err
	}
	if err == nil && sess.Confirmed {
		return ErrAlreadyConfirmed
	}

	if err := g.orders.Cancel(ctx, orderID, actorID); err != nil {
		return err
	}
	return g.sessions.Delete(ctx, orderID)
}
