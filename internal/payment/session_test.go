package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xdnjs7/snack-order-service/internal/order"
)

func TestOpenLocksAuthoritativeTotal(t *testing.T) {
	o := &order.Order{
		ID:          "o1",
		Status:      order.StatusPending,
		TotalPrice:  150000,
		DeliveryFee: 3000,
		Receipts:    []order.Receipt{{ProductName: "Honey Butter Chips"}},
	}

	sess, err := Open(o, "u1")
	require.NoError(t, err)

	assert.Equal(t, "o1", sess.OrderID)
	assert.Equal(t, Currency, sess.Amount.Currency)
	assert.Equal(t, int64(153000), sess.Amount.Value)
	assert.Equal(t, "Honey Butter Chips", sess.OrderName)
	assert.False(t, sess.Confirmed)
}

func TestOpenRefusesDecidedOrder(t *testing.T) {
	o := &order.Order{ID: "o1", Status: order.StatusApproved}

	_, err := Open(o, "u1")
	assert.Error(t, err)
}

func TestMatchesDetectsStaleSession(t *testing.T) {
	o := &order.Order{ID: "o1", Status: order.StatusPending, TotalPrice: 150000, DeliveryFee: 3000}
	sess, err := Open(o, "u1")
	require.NoError(t, err)

	assert.True(t, sess.Matches(o))

	o.TotalPrice = 160000
	assert.False(t, sess.Matches(o))

	other := &order.Order{ID: "o2", TotalPrice: 150000, DeliveryFee: 3000}
	assert.False(t, sess.Matches(other))
}
