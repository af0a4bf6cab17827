// Package payment bridges an order to the external card-payment confirmation
// step: it locks an amount into a session, talks to the vendor exactly once,
// and reconciles the result with the order state machine.
package payment

import (
	"fmt"
	"time"

	"github.com/xdnjs7/snack-order-service/internal/order"
)

const Currency = "KRW"

type Amount struct {
	Currency string `json:"currency"`
	Value    int64  `json:"value"`
}

// Session locks the payable amount for one order. It is created when checkout
// starts and discarded after a single confirm succeeds or the order is
// canceled. If the order changed after the session was created the session is
// stale and must not be confirmed.
type Session struct {
	OrderID     string    `json:"orderId"`
	OrderName   string    `json:"orderName"`
	Amount      Amount    `json:"amount"`
	CustomerKey string    `json:"customerKey"`
	Confirmed   bool      `json:"confirmed"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Open locks amount = totalPrice + deliveryFee for a PENDING order.
func Open(o *order.Order, customerKey string) (*Session, error) {
	if o.Status != order.StatusPending {
		return nil, fmt.Errorf("cannot open payment session for %s order %s", o.Status, o.ID)
	}
	return &Session{
		OrderID:     o.ID,
		OrderName:   o.Name(),
		Amount:      Amount{Currency: Currency, Value: o.Total()},
		CustomerKey: customerKey,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// Matches reports whether the session's locked amount still equals the
// order's authoritative total.
func (s *Session) Matches(o *order.Order) bool {
	return s.OrderID == o.ID && s.Amount.Value == o.Total()
}
