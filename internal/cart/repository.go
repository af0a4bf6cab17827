package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/xdnjs7/snack-order-service/internal/db"
)

var ErrLineNotFound = errors.New("cart line not found")

// DBPool matches the methods from *pgxpool.Pool that we use.
// This allows us to mock the database in tests.
type DBPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

type Repository interface {
	ListByUser(ctx context.Context, userID string) ([]Line, error)
	GetLines(ctx context.Context, userID string, lineIDs []string) ([]Line, error)
	SetChecked(ctx context.Context, userID, lineID string, checked bool) error
	SetAllChecked(ctx context.Context, userID string, checked bool) error
	SetQuantity(ctx context.Context, userID, lineID string, qty int) error
	DeleteLinesTx(ctx context.Context, tx db.Tx, lineIDs []string) error
}

type PostgresRepository struct {
	pool DBPool
}

func NewPostgresRepository(pool DBPool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const lineColumns = `
	ci.id, ci.user_id, ci.product_id, p.name, p.unit_price, p.image_url,
	ci.quantity, ci.is_checked, ci.created_at`

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]Line, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+lineColumns+`
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.user_id = $1
		ORDER BY ci.created_at
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("select cart lines: %w", err)
	}
	defer rows.Close()

	return scanLines(rows)
}

// GetLines loads the given lines for userID. Every requested id must exist
// and belong to the user; a shorter result is ErrLineNotFound.
func (r *PostgresRepository) GetLines(ctx context.Context, userID string, lineIDs []string) ([]Line, error) {
	if len(lineIDs) == 0 {
		return nil, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+lineColumns+`
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.user_id = $1 AND ci.id = ANY($2)
		ORDER BY ci.created_at
	`, userID, lineIDs)
	if err != nil {
		return nil, fmt.Errorf("select cart lines: %w", err)
	}
	defer rows.Close()

	lines, err := scanLines(rows)
	if err != nil {
		return nil, err
	}
	if len(lines) != len(lineIDs) {
		return nil, ErrLineNotFound
	}
	return lines, nil
}

func (r *PostgresRepository) SetChecked(ctx context.Context, userID, lineID string, checked bool) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE cart_items SET is_checked = $3
		WHERE user_id = $1 AND id = $2
	`, userID, lineID, checked)
	if err != nil {
		return fmt.Errorf("update is_checked: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrLineNotFound
	}
	return nil
}

func (r *PostgresRepository) SetAllChecked(ctx context.Context, userID string, checked bool) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE cart_items SET is_checked = $2 WHERE user_id = $1
	`, userID, checked)
	if err != nil {
		return fmt.Errorf("update all is_checked: %w", err)
	}
	return nil
}

func (r *PostgresRepository) SetQuantity(ctx context.Context, userID, lineID string, qty int) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE cart_items SET quantity = $3
		WHERE user_id = $1 AND id = $2
	`, userID, lineID, ClampQuantity(qty))
	if err != nil {
		return fmt.Errorf("update quantity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrLineNotFound
	}
	return nil
}

// DeleteLinesTx removes lines that were folded into a created order. It runs
// inside the order-creation transaction so the cart and the order move together.
func (r *PostgresRepository) DeleteLinesTx(ctx context.Context, tx db.Tx, lineIDs []string) error {
	if len(lineIDs) == 0 {
		return nil
	}
	_, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE id = ANY($1)`, lineIDs)
	if err != nil {
		return fmt.Errorf("delete cart lines: %w", err)
	}
	return nil
}

func scanLines(rows pgx.Rows) ([]Line, error) {
	var lines []Line
	for rows.Next() {
		var l Line
		if err := rows.Scan(
			&l.ID, &l.UserID, &l.ProductID, &l.ProductName, &l.UnitPrice,
			&l.ImageURL, &l.Quantity, &l.IsChecked, &l.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return lines, nil
}
