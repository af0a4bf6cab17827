package cart

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lineRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "user_id", "product_id", "name", "unit_price",
		"image_url", "quantity", "is_checked", "created_at",
	})
}

func TestGetLines(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT(.|\n)*FROM cart_items ci(.|\n)*ANY").
		WithArgs("u1", []string{"l1", "l2"}).
		WillReturnRows(lineRows().
			AddRow("l1", "u1", "p1", "Honey Butter Chips", int64(1500), "", 2, true, time.Now()).
			AddRow("l2", "u1", "p2", "Cola", int64(500), "", 3, true, time.Now()))

	lines, err := NewPostgresRepository(mock).GetLines(context.Background(), "u1", []string{"l1", "l2"})
	require.NoError(t, err)

	require.Len(t, lines, 2)
	assert.Equal(t, int64(3000), lines[0].Subtotal())
}

func TestGetLinesMissingLine(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	// one of the requested lines belongs to someone else
	mock.ExpectQuery("SELECT(.|\n)*FROM cart_items ci(.|\n)*ANY").
		WithArgs("u1", []string{"l1", "stolen"}).
		WillReturnRows(lineRows().
			AddRow("l1", "u1", "p1", "Honey Butter Chips", int64(1500), "", 2, true, time.Now()))

	_, err = NewPostgresRepository(mock).GetLines(context.Background(), "u1", []string{"l1", "stolen"})
	assert.ErrorIs(t, err, ErrLineNotFound)
}

func TestGetLinesEmptyInput(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	lines, err := NewPostgresRepository(mock).GetLines(context.Background(), "u1", nil)
	require.NoError(t, err)
	assert.Nil(t, lines)
}

func TestSetQuantityUnknownLine(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("UPDATE cart_items SET quantity").
		WithArgs("u1", "ghost", 5).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err = NewPostgresRepository(mock).SetQuantity(context.Background(), "u1", "ghost", 5)
	assert.ErrorIs(t, err, ErrLineNotFound)
}

func TestSetQuantityClampsBeforeWrite(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("UPDATE cart_items SET quantity").
		WithArgs("u1", "l1", MaxQuantity).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err = NewPostgresRepository(mock).SetQuantity(context.Background(), "u1", "l1", 999)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
