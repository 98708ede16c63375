package flat_test

import (
	"context"
	"testing"

	"github.com/parcelgate/shipping/internal/catalog"
	"github.com/parcelgate/shipping/internal/telemetry"
	"github.com/parcelgate/shipping/pkg/carrier"
	"github.com/parcelgate/shipping/pkg/carrier/flat"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(store catalog.Store) *flat.Client {
	return flat.New(flat.Config{}, store, telemetry.NopLogger(), nil)
}

func seededStore(t *testing.T) *catalog.Memory {
	t.Helper()
	store := catalog.NewMemory()
	boxID := store.AddBox(20, 10, 5, 5)
	store.SetPrice(flat.CodeFreePickup, boxID, decimal.Zero)
	store.SetPrice(flat.CodeFlat, boxID, decimal.NewFromFloat(9.99))
	return store
}

func TestRates_SumsPerService(t *testing.T) {
	client := newTestClient(seededStore(t))

	packages := carrier.PackageSet{
		carrier.NewMetricPackage(20, 10, 5, 1, 0),
		carrier.NewMetricPackage(20, 10, 5, 2, 0),
	}

	rates, err := client.Rates(context.Background(), carrier.Address{}, carrier.Address{}, packages)
	require.NoError(t, err)
	require.Equal(t, 2, rates.Len())

	pickup, ok := rates.Find(flat.CodeFreePickup)
	require.True(t, ok)
	assert.Equal(t, "0", pickup.Price.String())
	assert.Equal(t, "CAD", pickup.Currency)

	flatRate, ok := rates.Find(flat.CodeFlat)
	require.True(t, ok)
	assert.Equal(t, "19.98", flatRate.Price.StringFixed(2))
}

func TestRate_ServiceFilter(t *testing.T) {
	client := newTestClient(seededStore(t))
	packages := carrier.PackageSet{carrier.NewMetricPackage(20, 10, 5, 1, 0)}

	rates, err := client.Rate(context.Background(), carrier.Address{}, carrier.Address{}, packages,
		&carrier.Service{Code: flat.CodeFlat, Name: "Flat Shipping"})
	require.NoError(t, err)
	require.Equal(t, 1, rates.Len())
	assert.Equal(t, flat.CodeFlat, rates.Rates()[0].Service.Code)
}

func TestRate_UnknownServicePriceNotFound(t *testing.T) {
	client := newTestClient(seededStore(t))
	packages := carrier.PackageSet{carrier.NewMetricPackage(20, 10, 5, 1, 0)}

	_, err := client.Rate(context.Background(), carrier.Address{}, carrier.Address{}, packages,
		&carrier.Service{Code: "INTERNAL.NOPE", Name: "Nope"})
	require.Error(t, err)
	assert.True(t, carrier.IsKind(err, carrier.KindPriceNotFound))
}

func TestRates_UncatalogedBox(t *testing.T) {
	client := newTestClient(seededStore(t))
	packages := carrier.PackageSet{carrier.NewMetricPackage(99, 99, 99, 1, 0)}

	_, err := client.Rates(context.Background(), carrier.Address{}, carrier.Address{}, packages)
	require.Error(t, err)
	assert.True(t, carrier.IsKind(err, carrier.KindInvalidShipmentParameters))
	assert.Contains(t, err.Error(), "does not match a cataloged box size")
}

func TestRates_BoxWeightLimit(t *testing.T) {
	client := newTestClient(seededStore(t))
	packages := carrier.PackageSet{carrier.NewMetricPackage(20, 10, 5, 6, 0)}

	_, err := client.Rates(context.Background(), carrier.Address{}, carrier.Address{}, packages)
	require.Error(t, err)
	assert.True(t, carrier.IsKind(err, carrier.KindOverweightPackage))
}

func TestRates_EmptyPackages(t *testing.T) {
	client := newTestClient(seededStore(t))

	_, err := client.Rates(context.Background(), carrier.Address{}, carrier.Address{}, nil)
	require.Error(t, err)
	assert.True(t, carrier.IsKind(err, carrier.KindEmptyPackages))
}

func TestRates_MissingPriceRowSkipsService(t *testing.T) {
	store := catalog.NewMemory()
	boxID := store.AddBox(20, 10, 5, 0)
	store.SetPrice(flat.CodeFlat, boxID, decimal.NewFromFloat(9.99))

	client := newTestClient(store)
	packages := carrier.PackageSet{carrier.NewMetricPackage(20, 10, 5, 1, 0)}

	rates, err := client.Rates(context.Background(), carrier.Address{}, carrier.Address{}, packages)
	require.NoError(t, err)
	require.Equal(t, 1, rates.Len())
	assert.Equal(t, flat.CodeFlat, rates.Rates()[0].Service.Code)
}

func TestShip_NotSupported(t *testing.T) {
	client := newTestClient(seededStore(t))

	_, err := client.Ship(context.Background(), carrier.ShipFrom{}, carrier.ShipTo{},
		carrier.PackageSet{carrier.NewMetricPackage(20, 10, 5, 1, 0)},
		carrier.Service{Code: flat.CodeFlat}, nil, nil)
	require.Error(t, err)
	assert.True(t, carrier.IsKind(err, carrier.KindShipmentNotCreated))
}
