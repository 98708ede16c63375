package catalog_test

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parcelgate/shipping/internal/catalog"
)

func newMockStore(t *testing.T) (*catalog.Postgres, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return catalog.NewPostgres(mock), mock
}

func TestPostgres_EnabledCarriers(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT name FROM shipping_services").
		WillReturnRows(pgxmock.NewRows([]string{"name"}).
			AddRow("flat").
			AddRow("canadapost").
			AddRow("purolator"))

	names, err := store.EnabledCarriers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"flat", "canadapost", "purolator"}, names)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_FindBox(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("FROM shipping_boxes").
		WithArgs(20.0, 10.0, 5.0).
		WillReturnRows(pgxmock.NewRows([]string{"uuid", "length", "width", "height", "max_weight"}).
			AddRow("b4f2", 20.0, 10.0, 5.0, 7.5))

	box, err := store.FindBox(context.Background(), 20, 10, 5)
	require.NoError(t, err)
	assert.Equal(t, "b4f2", box.ID)
	assert.Equal(t, 7.5, box.MaxWeight)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_FindBoxNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("FROM shipping_boxes").
		WithArgs(99.0, 99.0, 99.0).
		WillReturnRows(pgxmock.NewRows([]string{"uuid", "length", "width", "height", "max_weight"}))

	_, err := store.FindBox(context.Background(), 99, 99, 99)
	assert.ErrorIs(t, err, catalog.ErrBoxNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_PriceFor(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("FROM shipping_option_prices").
		WithArgs("INTERNAL.FLAT", "b4f2").
		WillReturnRows(pgxmock.NewRows([]string{"price"}).AddRow("9.99"))

	price, err := store.PriceFor(context.Background(), "INTERNAL.FLAT", "b4f2")
	require.NoError(t, err)
	assert.Equal(t, "9.99", price.StringFixed(2))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_PriceForNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("FROM shipping_option_prices").
		WithArgs("INTERNAL.FREE.PICKUP", "b4f2").
		WillReturnRows(pgxmock.NewRows([]string{"price"}))

	_, err := store.PriceFor(context.Background(), "INTERNAL.FREE.PICKUP", "b4f2")
	assert.ErrorIs(t, err, catalog.ErrPriceNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_EnsureSchema(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS shipping_services").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, store.EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
