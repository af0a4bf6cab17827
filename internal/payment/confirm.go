package payment

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/xdnjs7/snack-order-service/internal/lock"
	"github.com/xdnjs7/snack-order-service/internal/order"
)

// ErrConfirmInFlight means another confirm call for the same order is still
// running. The duplicate is a no-op, not a second vendor call.
var ErrConfirmInFlight = errors.New("payment confirm already in flight")

// ErrConfirmedNotRecorded means the vendor accepted the charge but the
// session's confirmed flag could not be persisted. The latch stays held to
// its TTL so the charge is not blindly repeated; the session needs operator
// attention before checkout can continue.
var ErrConfirmedNotRecorded = errors.New("payment confirmed at vendor but session not recorded")

// AmountMismatchError means the amount the client carried back disagrees with
// the order's authoritative total. That is tamper-evidence or a stale
// session; the confirm never reaches the vendor and must not be retried.
type AmountMismatchError struct {
	OrderID string
	Got     int64
	Want    int64
}

func (e *AmountMismatchError) Error() string {
	return fmt.Sprintf("order %s: amount %d does not match authoritative total %d", e.OrderID, e.Got, e.Want)
}

// Vendor is the external confirm endpoint.
type Vendor interface {
	Confirm(ctx context.Context, paymentKey, orderID string, amount int64) error
}

// OrderGetter loads the authoritative order for amount re-validation.
type OrderGetter interface {
	Get(ctx context.Context, orderID string) (*order.Order, error)
}

// InstantSettler commits the budget and lands the terminal status for
// admin instant-purchase orders once their payment is confirmed.
type InstantSettler interface {
	SettleInstant(ctx context.Context, o *order.Order) (*order.Order, error)
}

// Confirmer performs the exactly-once confirmation of a payment against an
// order, despite page reloads, duplicate callbacks, or double clicks.
type Confirmer struct {
	vendor   Vendor
	orders   OrderGetter
	settler  InstantSettler
	sessions SessionStore
	locks    lock.Locker
	lockTTL  time.Duration
	logger   *log.Logger
}

func NewConfirmer(vendor Vendor, orders OrderGetter, settler InstantSettler, sessions SessionStore, locks lock.Locker, lockTTL time.Duration, logger *log.Logger) *Confirmer {
	return &Confirmer{
		vendor:   vendor,
		orders:   orders,
		settler:  settler,
		sessions: sessions,
		locks:    locks,
		lockTTL:  lockTTL,
		logger:   logger,
	}
}

const confirmLockPrefix = "payment:confirm:"

// Confirm validates the callback amount against the order, then calls the
// vendor at most once under a per-order single-flight latch.
//
// Duplicate calls after success short-circuit on the session's confirmed
// flag. A definitive vendor refusal discards the session and releases the
// latch so checkout can restart. A transport failure leaves the latch held
// until its TTL expires: the outcome is unknown and a blind retry risks a
// duplicate charge.
func (c *Confirmer) Confirm(ctx context.Context, orderID string, amount int64, paymentKey string) (*order.Order, error) {
	o, err := c.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if amount != o.Total() {
		return nil, &AmountMismatchError{OrderID: orderID, Got: amount, Want: o.Total()}
	}

	sess, err := c.sessions.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if sess.Confirmed {
		return o, nil
	}
	if !sess.Matches(o) {
		return nil, &AmountMismatchError{OrderID: orderID, Got: sess.Amount.Value, Want: o.Total()}
	}

	ok, err := c.locks.Acquire(ctx, confirmLockPrefix+orderID, c.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire confirm latch: %w", err)
	}
	if !ok {
		return nil, ErrConfirmInFlight
	}

	if err := c.vendor.Confirm(ctx, paymentKey, orderID, amount); err != nil {
		var ve *VendorError
		if errors.As(err, &ve) {
			// definitive refusal: checkout must restart from scratch
			if delErr := c.sessions.Delete(ctx, orderID); delErr != nil {
				c.logger.Printf("discard session %s: %v", orderID, delErr)
			}
			if relErr := c.locks.Release(ctx, confirmLockPrefix+orderID); relErr != nil {
				c.logger.Printf("release confirm latch %s: %v", orderID, relErr)
			}
		}
		return nil, err
	}

	sess.Confirmed = true
	if err := c.sessions.Save(ctx, sess); err != nil {
		c.logger.Printf("order %s: vendor confirm landed but saving session failed: %v", orderID, err)
		return nil, fmt.Errorf("%w: %v", ErrConfirmedNotRecorded, err)
	}
	if err := c.locks.Release(ctx, confirmLockPrefix+orderID); err != nil {
		c.logger.Printf("release confirm latch %s: %v", orderID, err)
	}

	if o.Instant {
		settled, err := c.settler.SettleInstant(ctx, o)
		if err != nil {
			return nil, fmt.Errorf("settle instant order: %w", err)
		}
		return settled, nil
	}

	// USER path: the order stays PENDING for the approval workflow
	return o, nil
}
