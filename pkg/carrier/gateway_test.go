package carrier_test

import (
	"context"
	"testing"

	"github.com/parcelgate/shipping/internal/telemetry"
	"github.com/parcelgate/shipping/pkg/carrier"
	"github.com/parcelgate/shipping/pkg/carrier/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGateway(carriers ...carrier.Carrier) *carrier.Gateway {
	registry := carrier.NewRegistry()
	for _, c := range carriers {
		registry.Register(c)
	}
	return carrier.NewGateway(carrier.GatewayConfig{}, registry, telemetry.NopLogger(), nil)
}

func onePackage() carrier.PackageSet {
	return carrier.PackageSet{carrier.NewMetricPackage(20, 10, 5, 1, 0)}
}

func TestGateway_RatesMergesInRegistryOrder(t *testing.T) {
	gateway := newTestGateway(mock.New("alpha"), mock.New("beta"), mock.New("gamma"))

	rates, err := gateway.Rates(context.Background(), carrier.Address{}, carrier.Address{}, onePackage())
	require.NoError(t, err)

	codes := make([]string, 0, rates.Len())
	for _, r := range rates.Rates() {
		codes = append(codes, r.Service.Code)
	}
	assert.Equal(t, []string{
		"alpha.STANDARD", "alpha.EXPRESS",
		"beta.STANDARD", "beta.EXPRESS",
		"gamma.STANDARD", "gamma.EXPRESS",
	}, codes)
}

func TestGateway_RatesFailFast(t *testing.T) {
	failing := mock.New("beta").WithError(
		carrier.NewError("beta", carrier.KindTransport, "connection refused"))
	gateway := newTestGateway(mock.New("alpha"), failing, mock.New("gamma"))

	rates, err := gateway.Rates(context.Background(), carrier.Address{}, carrier.Address{}, onePackage())
	require.Error(t, err)
	assert.Nil(t, rates)
	assert.True(t, carrier.IsKind(err, carrier.KindTransport))
	assert.Contains(t, err.Error(), "beta")
}

func TestGateway_CollectRatesKeepsPartialResults(t *testing.T) {
	failing := mock.New("beta").WithError(
		carrier.NewError("beta", carrier.KindInvalidCredentials, "bad key"))
	gateway := newTestGateway(mock.New("alpha"), failing, mock.New("gamma"))

	rates, errs := gateway.CollectRates(context.Background(), carrier.Address{}, carrier.Address{}, onePackage())
	require.Len(t, errs, 1)
	assert.True(t, carrier.IsKind(errs[0], carrier.KindInvalidCredentials))

	require.Equal(t, 4, rates.Len())
	assert.Equal(t, "alpha.STANDARD", rates.Rates()[0].Service.Code)
	assert.Equal(t, "gamma.EXPRESS", rates.Rates()[3].Service.Code)
}

func TestGateway_EmptyPackagesSkipsCarrierCalls(t *testing.T) {
	alpha := mock.New("alpha")
	gateway := newTestGateway(alpha)

	_, err := gateway.Rates(context.Background(), carrier.Address{}, carrier.Address{}, nil)
	require.Error(t, err)
	assert.True(t, carrier.IsKind(err, carrier.KindEmptyPackages))
	assert.Zero(t, alpha.RateCalls())
}

func TestGateway_ShipDelegatesToNamedCarrier(t *testing.T) {
	alpha := mock.New("alpha")
	beta := mock.New("beta")
	gateway := newTestGateway(alpha, beta)

	from := carrier.ShipFrom{Name: "Warehouse", Address: carrier.Address{CountryCode: "CA"}}
	to := carrier.ShipTo{Name: "Customer", Address: carrier.Address{CountryCode: "CA"}}

	shipments, err := gateway.Ship(context.Background(), "beta", from, to, onePackage(),
		carrier.Service{Code: "beta.EXPRESS"}, nil, nil)
	require.NoError(t, err)
	require.Len(t, shipments, 1)
	assert.Equal(t, "beta-beta.EXPRESS-0", shipments[0].TrackingNumber)
	assert.Equal(t, 1, beta.ShipCalls())
	assert.Zero(t, alpha.ShipCalls())
}

func TestGateway_ShipUnknownCarrier(t *testing.T) {
	gateway := newTestGateway(mock.New("alpha"))

	_, err := gateway.Ship(context.Background(), "nope", carrier.ShipFrom{}, carrier.ShipTo{},
		onePackage(), carrier.Service{Code: "x"}, nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, carrier.ErrCarrierNotFound)
}
