package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/xdnjs7/snack-order-service/internal/db"
)

// DBPool matches the methods from *pgxpool.Pool that we use.
// This allows us to mock the database in tests.
type DBPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// ListFilter narrows and pages admin order listings.
type ListFilter struct {
	Status  Status
	Offset  int
	Limit   int
	OrderBy string // latest | priceLow | priceHigh
}

type Repository interface {
	Begin(ctx context.Context) (db.Tx, error)
	CreateTx(ctx context.Context, tx db.Tx, o *Order) error
	GetByID(ctx context.Context, orderID string) (*Order, error)
	GetForUpdateTx(ctx context.Context, tx db.Tx, orderID string) (*Order, error)
	UpdateStatusTx(ctx context.Context, tx db.Tx, orderID string, from, to Status, approverID, adminMessage string) error
	ListByCompany(ctx context.Context, companyID string, f ListFilter) ([]Order, int, error)
	ListByRequester(ctx context.Context, requesterID string) ([]Order, error)
}

type PostgresRepository struct {
	pool DBPool
}

func NewPostgresRepository(pool DBPool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Begin(ctx context.Context) (db.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

func (r *PostgresRepository) CreateTx(ctx context.Context, tx db.Tx, o *Order) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}

	_, err := tx.Exec(ctx, `
		INSERT INTO orders (
			id, requester_id, company_id, status, total_price, delivery_fee,
			request_message, admin_message, approver_id, instant, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, o.ID, o.RequesterID, o.CompanyID, o.Status, o.TotalPrice, o.DeliveryFee,
		o.RequestMessage, o.AdminMessage, o.ApproverID, o.Instant, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, rc := range o.Receipts {
		_, err = tx.Exec(ctx, `
			INSERT INTO order_receipts (id, order_id, product_id, product_name, unit_price, quantity, image_url)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, uuid.NewString(), o.ID, rc.ProductID, rc.ProductName, rc.UnitPrice, rc.Quantity, rc.ImageURL)
		if err != nil {
			return fmt.Errorf("insert receipt: %w", err)
		}
	}

	return nil
}

const orderColumns = `
	id, requester_id, company_id, status, total_price, delivery_fee,
	request_message, admin_message, approver_id, instant, created_at, updated_at`

func (r *PostgresRepository) GetByID(ctx context.Context, orderID string) (*Order, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+orderColumns+` FROM orders WHERE id = $1
	`, orderID)

	o, err := scanOrder(row)
	if err != nil {
		return nil, err
	}

	if err := r.loadReceipts(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// GetForUpdateTx loads an order with its row locked, so status checks and the
// subsequent write are one atomic unit. Receipts are immutable and loaded
// without a lock.
func (r *PostgresRepository) GetForUpdateTx(ctx context.Context, tx db.Tx, orderID string) (*Order, error) {
	row := tx.QueryRow(ctx, `
		SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE
	`, orderID)

	o, err := scanOrder(row)
	if err != nil {
		return nil, err
	}
	return o, nil
}

// UpdateStatusTx moves an order from -> to. The WHERE clause re-checks the
// current status, so a concurrent decision that already won makes this a
// zero-row update, surfaced as InvalidTransitionError.
func (r *PostgresRepository) UpdateStatusTx(ctx context.Context, tx db.Tx, orderID string, from, to Status, approverID, adminMessage string) error {
	if !from.CanTransitionTo(to) {
		return &InvalidTransitionError{OrderID: orderID, From: from, To: to}
	}

	tag, err := tx.Exec(ctx, `
		UPDATE orders
		SET status = $3, approver_id = $4, admin_message = $5, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`, orderID, from, to, approverID, adminMessage)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &InvalidTransitionError{OrderID: orderID, From: from, To: to}
	}
	return nil
}

func (r *PostgresRepository) ListByCompany(ctx context.Context, companyID string, f ListFilter) ([]Order, int, error) {
	orderBy := "created_at DESC"
	switch f.OrderBy {
	case "", "latest":
	case "priceLow":
		orderBy = "total_price ASC, created_at DESC"
	case "priceHigh":
		orderBy = "total_price DESC, created_at DESC"
	default:
		return nil, 0, fmt.Errorf("unknown orderBy %q", f.OrderBy)
	}

	var total int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM orders WHERE company_id = $1 AND status = $2
	`, companyID, f.Status).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE company_id = $1 AND status = $2
		ORDER BY `+orderBy+`
		OFFSET $3 LIMIT $4
	`, companyID, f.Status, f.Offset, f.Limit)
	if err != nil {
		return nil, 0, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	orders, err := scanOrders(rows)
	if err != nil {
		return nil, 0, err
	}

	for i := range orders {
		if err := r.loadReceipts(ctx, &orders[i]); err != nil {
			return nil, 0, err
		}
	}
	return orders, total, nil
}

func (r *PostgresRepository) ListByRequester(ctx context.Context, requesterID string) ([]Order, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE requester_id = $1
		ORDER BY created_at DESC
	`, requesterID)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	orders, err := scanOrders(rows)
	if err != nil {
		return nil, err
	}

	for i := range orders {
		if err := r.loadReceipts(ctx, &orders[i]); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (r *PostgresRepository) loadReceipts(ctx context.Context, o *Order) error {
	rows, err := r.pool.Query(ctx, `
		SELECT product_id, product_name, unit_price, quantity, image_url
		FROM order_receipts WHERE order_id = $1
	`, o.ID)
	if err != nil {
		return fmt.Errorf("select receipts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rc Receipt
		if err := rows.Scan(&rc.ProductID, &rc.ProductName, &rc.UnitPrice, &rc.Quantity, &rc.ImageURL); err != nil {
			return fmt.Errorf("scan receipt: %w", err)
		}
		o.Receipts = append(o.Receipts, rc)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows: %w", err)
	}
	return nil
}

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.RequesterID, &o.CompanyID, &o.Status, &o.TotalPrice,
		&o.DeliveryFee, &o.RequestMessage, &o.AdminMessage, &o.ApproverID,
		&o.Instant, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}
	return &o, nil
}

func scanOrders(rows pgx.Rows) ([]Order, error) {
	var orders []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(
			&o.ID, &o.RequesterID, &o.CompanyID, &o.Status, &o.TotalPrice,
			&o.DeliveryFee, &o.RequestMessage, &o.AdminMessage, &o.ApproverID,
			&o.Instant, &o.CreatedAt, &o.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return orders, nil
}
