package inventory

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const household = "8f14e45f-ceea-467f-a0e6-1b2c3d4e5f60"

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresStore(db), mock
}

func TestIsMember(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM household_members`).
		WithArgs(household, "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := store.IsMember(context.Background(), "user-1", household)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkspaceTypeMissingHousehold(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`FROM households WHERE id = \$1`).
		WithArgs(household).
		WillReturnError(sql.ErrNoRows)

	wt, err := store.WorkspaceType(context.Background(), household)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, Personal, wt)
}

func TestWorkspaceTypeBusiness(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`FROM households WHERE id = \$1`).
		WithArgs(household).
		WillReturnRows(sqlmock.NewRows([]string{"workspace_type"}).AddRow("business"))

	wt, err := store.WorkspaceType(context.Background(), household)
	require.NoError(t, err)
	assert.Equal(t, Business, wt)
}

func TestSearchItemsEscapesWildcards(t *testing.T) {
	store, mock := newMockStore(t)
	expiry := time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM items\s+WHERE household_id = \$1 AND deleted_at IS NULL`).
		WithArgs(household, `%50\% off%`, 5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "household_id", "room_id", "name", "description", "quantity", "unit", "expiry_date"}).
			AddRow("item-1", household, "room-1", "AA Batteries", "", 2.0, "pack", nil).
			AddRow("item-2", household, nil, "Milk", "50% off", 1.0, "carton", expiry))

	items, err := store.SearchItems(context.Background(), household, " 50% off ", 5)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "AA Batteries", items[0].Name)
	require.NotNil(t, items[0].RoomID)
	assert.Equal(t, "room-1", *items[0].RoomID)
	assert.Nil(t, items[0].ExpiryDate)

	assert.Nil(t, items[1].RoomID)
	require.NotNil(t, items[1].ExpiryDate)
	assert.True(t, expiry.Equal(*items[1].ExpiryDate))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProductBySKUNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`FROM products WHERE household_id = \$1 AND lower\(sku\) = lower\(\$2\)`).
		WithArgs(household, "SKU-404").
		WillReturnRows(sqlmock.NewRows([]string{"id", "household_id", "name", "sku", "barcode", "description", "unit", "is_active"}))

	p, err := store.GetProductBySKU(context.Background(), household, "SKU-404")
	assert.Nil(t, p)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSumStockRoomScoped(t *testing.T) {
	store, mock := newMockStore(t)
	room := "room-2"
	mock.ExpectQuery(`FROM stock_levels WHERE household_id = \$1 AND product_id = \$2 AND room_id = \$3`).
		WithArgs(household, "product-1", room).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(7.5))

	total, err := store.SumStock(context.Background(), household, "product-1", &room)
	require.NoError(t, err)
	assert.Equal(t, 7.5, total)
}

func TestListStockLevels(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`LEFT JOIN stock_levels s`).
		WithArgs(household).
		WillReturnRows(sqlmock.NewRows([]string{"id", "household_id", "name", "sku", "barcode", "description", "unit", "is_active", "sum"}).
			AddRow("product-1", household, "Almond Milk", "ALM-1", "", "", "carton", true, 1.0).
			AddRow("product-2", household, "Oat Milk", "OAT-1", "", "", "carton", true, 12.0))

	levels, err := store.ListStockLevels(context.Background(), household)
	require.NoError(t, err)
	require.Len(t, levels, 2)
	assert.Equal(t, "Almond Milk", levels[0].Product.Name)
	assert.Equal(t, 1.0, levels[0].Quantity)
}

func TestListMovementsPropagatesErrors(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`FROM stock_movements`).
		WithArgs(household, "product-1", 25).
		WillReturnError(errors.New("connection reset"))

	_, err := store.ListMovements(context.Background(), household, "product-1", 25)
	assert.ErrorContains(t, err, "list movements")
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, `%a\_b\\c%`, likePattern(` a_b\c `))
}
