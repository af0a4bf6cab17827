package order

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/xdnjs7/snack-order-service/internal/budget"
	"github.com/xdnjs7/snack-order-service/internal/cart"
	"github.com/xdnjs7/snack-order-service/internal/db"
)

// CartReader supplies the candidate line set an order is created from and
// removes the lines inside the order-creation transaction.
type CartReader interface {
	GetLines(ctx context.Context, userID string, lineIDs []string) ([]cart.Line, error)
	DeleteLinesTx(ctx context.Context, tx db.Tx, lineIDs []string) error
}

// Admission is the advisory budget check used by the instant-purchase path.
type Admission interface {
	CanAfford(ctx context.Context, companyID string, cost int64) (bool, int64, error)
}

// EventPublisher emits order lifecycle events. Publish failures are logged,
// not surfaced: the order write already committed.
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, o *Order) error
	PublishOrderCanceled(ctx context.Context, o *Order, canceledBy string) error
}

// Service creates priced order snapshots and owns the cancel transition.
// Approve/reject transitions live in the approval package.
type Service struct {
	repo        Repository
	carts       CartReader
	ledger      Admission
	events      EventPublisher
	deliveryFee int64
	logger      *log.Logger
}

func NewService(repo Repository, carts CartReader, ledger Admission, events EventPublisher, deliveryFee int64, logger *log.Logger) *Service {
	return &Service{
		repo:        repo,
		carts:       carts,
		ledger:      ledger,
		events:      events,
		deliveryFee: deliveryFee,
		logger:      logger,
	}
}

// Create turns the selected cart lines into a PENDING order. Prices are read
// from the catalog at this moment and frozen into receipts; the cart lines
// are consumed in the same transaction. Budget admission is deferred to
// approval time for this path.
func (s *Service) Create(ctx context.Context, requesterID, companyID string, lineIDs []string, requestMessage string) (*Order, error) {
	o, err := s.create(ctx, requesterID, companyID, lineIDs, requestMessage, false)
	if err != nil {
		return nil, err
	}
	s.publishCreated(ctx, o)
	return o, nil
}

// InstantPurchase is the ADMIN/SUPER_ADMIN "buy now" path. Unlike Create, it
// checks the budget up front and refuses to create the order at all when the
// purchase does not fit. The budget itself is committed later, when the
// payment confirm settles the order.
func (s *Service) InstantPurchase(ctx context.Context, requesterID, companyID string, lineIDs []string) (*Order, error) {
	if len(lineIDs) == 0 {
		return nil, ErrEmptySelection
	}

	lines, err := s.carts.GetLines(ctx, requesterID, lineIDs)
	if err != nil {
		return nil, err
	}

	var itemTotal int64
	for _, l := range lines {
		itemTotal += l.Subtotal()
	}
	cost := itemTotal + s.deliveryFee

	ok, remaining, err := s.ledger.CanAfford(ctx, companyID, cost)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &budget.ExceededError{CompanyID: companyID, Remaining: remaining, Cost: cost}
	}

	o, err := s.create(ctx, requesterID, companyID, lineIDs, "", true)
	if err != nil {
		return nil, err
	}
	s.publishCreated(ctx, o)
	return o, nil
}

func (s *Service) create(ctx context.Context, requesterID, companyID string, lineIDs []string, requestMessage string, instant bool) (*Order, error) {
	if len(lineIDs) == 0 {
		return nil, ErrEmptySelection
	}

	lines, err := s.carts.GetLines(ctx, requesterID, lineIDs)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	o := &Order{
		RequesterID:    requesterID,
		CompanyID:      companyID,
		Status:         StatusPending,
		DeliveryFee:    s.deliveryFee,
		RequestMessage: requestMessage,
		Instant:        instant,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	for _, l := range lines {
		o.Receipts = append(o.Receipts, Receipt{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			UnitPrice:   l.UnitPrice,
			Quantity:    cart.ClampQuantity(l.Quantity),
			ImageURL:    l.ImageURL,
		})
	}
	for _, rc := range o.Receipts {
		o.TotalPrice += rc.Subtotal()
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := s.repo.CreateTx(ctx, tx, o); err != nil {
		return nil, err
	}
	if err := s.carts.DeleteLinesTx(ctx, tx, lineIDs); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return o, nil
}

// Cancel moves a PENDING order to CANCELED. Only the requester may cancel,
// and only while no decision has landed.
func (s *Service) Cancel(ctx context.Context, orderID, actorID string) error {
	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o, err := s.repo.GetForUpdateTx(ctx, tx, orderID)
	if err != nil {
		return err
	}
	if o.RequesterID != actorID {
		return ErrNotRequester
	}
	if o.Status != StatusPending {
		return &InvalidTransitionError{OrderID: orderID, From: o.Status, To: StatusCanceled}
	}

	if err := s.repo.UpdateStatusTx(ctx, tx, orderID, StatusPending, StatusCanceled, "", ""); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	o.Status = StatusCanceled
	if err := s.events.PublishOrderCanceled(ctx, o, actorID); err != nil {
		s.logger.Printf("publish order canceled %s: %v", o.ID, err)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, orderID string) (*Order, error) {
	return s.repo.GetByID(ctx, orderID)
}

func (s *Service) List(ctx context.Context, companyID string, f ListFilter) ([]Order, int, error) {
	return s.repo.ListByCompany(ctx, companyID, f)
}

func (s *Service) ListMine(ctx context.Context, requesterID string) ([]Order, error) {
	return s.repo.ListByRequester(ctx, requesterID)
}

func (s *Service) publishCreated(ctx context.Context, o *Order) {
	if err := s.events.PublishOrderCreated(ctx, o); err != nil {
		s.logger.Printf("publish order created %s: %v", o.ID, err)
	}
}
