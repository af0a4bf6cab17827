package payment

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xdnjs7/snack-order-service/internal/lock"
	"github.com/xdnjs7/snack-order-service/internal/order"
)

type fakeVendor struct {
	calls int
	err   error
}

func (v *fakeVendor) Confirm(context.Context, string, string, int64) error {
	v.calls++
	return v.err
}

type fakeOrders struct {
	o *order.Order
}

func (f *fakeOrders) Get(_ context.Context, orderID string) (*order.Order, error) {
	if f.o == nil || f.o.ID != orderID {
		return nil, order.ErrNotFound
	}
	return f.o, nil
}

type fakeSettler struct {
	calls int
}

func (s *fakeSettler) SettleInstant(_ context.Context, o *order.Order) (*order.Order, error) {
	s.calls++
	settled := *o
	settled.Status = order.StatusApproved
	return &settled, nil
}

type confirmFixture struct {
	vendor    *fakeVendor
	settler   *fakeSettler
	sessions  *MemorySessionStore
	locks     *lock.MemoryLocker
	confirmer *Confirmer
	order     *order.Order
}

func newConfirmFixture(t *testing.T, instant bool) *confirmFixture {
	t.Helper()

	o := &order.Order{
		ID:          "o1",
		RequesterID: "u1",
		CompanyID:   "c1",
		Status:      order.StatusPending,
		TotalPrice:  150000,
		DeliveryFee: 3000,
		Instant:     instant,
	}

	f := &confirmFixture{
		vendor:   &fakeVendor{},
		settler:  &fakeSettler{},
		sessions: NewMemorySessionStore(),
		locks:    lock.NewMemoryLocker(),
		order:    o,
	}
	f.confirmer = NewConfirmer(
		f.vendor, &fakeOrders{o: o}, f.settler, f.sessions, f.locks,
		30*time.Second, log.New(io.Discard, "", 0),
	)

	sess, err := Open(o, "u1")
	require.NoError(t, err)
	require.NoError(t, f.sessions.Save(context.Background(), sess))
	return f
}

func TestConfirmAmountMismatchNeverReachesVendor(t *testing.T) {
	f := newConfirmFixture(t, false)

	_, err := f.confirmer.Confirm(context.Background(), "o1", 1, "pay-key")

	var mismatch *AmountMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, int64(1), mismatch.Got)
	assert.Equal(t, int64(153000), mismatch.Want)
	assert.Zero(t, f.vendor.calls)
}

func TestConfirmStaleSessionNeverReachesVendor(t *testing.T) {
	f := newConfirmFixture(t, false)

	// the session's locked amount no longer matches the order
	sess, err := f.sessions.Get(context.Background(), "o1")
	require.NoError(t, err)
	sess.Amount.Value = 1000
	require.NoError(t, f.sessions.Save(context.Background(), sess))

	_, err = f.confirmer.Confirm(context.Background(), "o1", 153000, "pay-key")

	var mismatch *AmountMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Zero(t, f.vendor.calls)
}

func TestConfirmWithoutSession(t *testing.T) {
	f := newConfirmFixture(t, false)
	require.NoError(t, f.sessions.Delete(context.Background(), "o1"))

	_, err := f.confirmer.Confirm(context.Background(), "o1", 153000, "pay-key")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestConfirmCallsVendorExactlyOnce(t *testing.T) {
	f := newConfirmFixture(t, false)

	o, err := f.confirmer.Confirm(context.Background(), "o1", 153000, "pay-key")
	require.NoError(t, err)
	assert.Equal(t, order.StatusPending, o.Status, "a user order stays pending for approval")
	assert.Equal(t, 1, f.vendor.calls)

	// duplicate callback after success short-circuits on the confirmed flag
	o, err = f.confirmer.Confirm(context.Background(), "o1", 153000, "pay-key")
	require.NoError(t, err)
	assert.NotNil(t, o)
	assert.Equal(t, 1, f.vendor.calls)
}

func TestConfirmInFlight(t *testing.T) {
	f := newConfirmFixture(t, false)

	ok, err := f.locks.Acquire(context.Background(), "payment:confirm:o1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = f.confirmer.Confirm(context.Background(), "o1", 153000, "pay-key")
	assert.ErrorIs(t, err, ErrConfirmInFlight)
	assert.Zero(t, f.vendor.calls)
}

func TestConfirmVendorRefusalDiscardsSession(t *testing.T) {
	f := newConfirmFixture(t, false)
	f.vendor.err = &VendorError{Code: "REJECT_CARD_COMPANY", Message: "card refused"}

	_, err := f.confirmer.Confirm(context.Background(), "o1", 153000, "pay-key")

	var vendor *VendorError
	require.ErrorAs(t, err, &vendor)
	assert.Equal(t, "REJECT_CARD_COMPANY", vendor.Code)

	// checkout must restart from scratch: no session, latch free again
	_, err = f.sessions.Get(context.Background(), "o1")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	ok, err := f.locks.Acquire(context.Background(), "payment:confirm:o1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestConfirmTransportFailureKeepsLatch(t *testing.T) {
	f := newConfirmFixture(t, false)
	f.vendor.err = errors.New("dial tcp: connection refused")

	_, err := f.confirmer.Confirm(context.Background(), "o1", 153000, "pay-key")
	require.Error(t, err)

	// the outcome is unknown, so the session survives and the latch stays
	// held until its TTL expires
	_, err = f.sessions.Get(context.Background(), "o1")
	assert.NoError(t, err)

	_, err = f.confirmer.Confirm(context.Background(), "o1", 153000, "pay-key")
	assert.ErrorIs(t, err, ErrConfirmInFlight)
	assert.Equal(t, 1, f.vendor.calls)
}

type flakySessionStore struct {
	*MemorySessionStore
	saveErr error
}

func (s *flakySessionStore) Save(ctx context.Context, sess *Session) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	return s.MemorySessionStore.Save(ctx, sess)
}

func TestConfirmSessionSaveFailureKeepsLatch(t *testing.T) {
	o := &order.Order{
		ID:          "o1",
		RequesterID: "u1",
		CompanyID:   "c1",
		Status:      order.StatusPending,
		TotalPrice:  150000,
		DeliveryFee: 3000,
	}
	vendor := &fakeVendor{}
	sessions := &flakySessionStore{MemorySessionStore: NewMemorySessionStore()}
	locks := lock.NewMemoryLocker()
	confirmer := NewConfirmer(
		vendor, &fakeOrders{o: o}, &fakeSettler{}, sessions, locks,
		30*time.Second, log.New(io.Discard, "", 0),
	)

	sess, err := Open(o, "u1")
	require.NoError(t, err)
	require.NoError(t, sessions.Save(context.Background(), sess))

	// the charge lands at the vendor, then the store goes away
	sessions.saveErr = errors.New("redis: connection pool timeout")

	_, err = confirmer.Confirm(context.Background(), "o1", 153000, "pay-key")
	require.ErrorIs(t, err, ErrConfirmedNotRecorded)
	assert.Equal(t, 1, vendor.calls)

	// the latch stays held so a blind retry cannot charge twice
	ok, err := locks.Acquire(context.Background(), "payment:confirm:o1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConfirmSettlesInstantOrder(t *testing.T) {
	f := newConfirmFixture(t, true)

	o, err := f.confirmer.Confirm(context.Background(), "o1", 153000, "pay-key")
	require.NoError(t, err)

	assert.Equal(t, 1, f.settler.calls)
	assert.Equal(t, order.StatusApproved, o.Status)
}

func TestConfirmUnknownOrder(t *testing.T) {
	f := newConfirmFixture(t, false)

	_, err := f.confirmer.Confirm(context.Background(), "ghost", 153000, "pay-key")
	assert.ErrorIs(t, err, order.ErrNotFound)
}
