package usps_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/parcelgate/shipping/internal/telemetry"
	"github.com/parcelgate/shipping/pkg/carrier"
	"github.com/parcelgate/shipping/pkg/carrier/usps"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(mock usps.APIClient) *usps.Client {
	return usps.NewWithAPIClient(usps.Config{}, mock, telemetry.NopLogger(), nil)
}

func domesticAddresses() (carrier.Address, carrier.Address) {
	from := carrier.NewAddress("", "", "", "1 Fifth Ave", "", "New York", "10003", "NY", "US")
	to := carrier.NewAddress("", "", "", "500 Market St", "", "San Francisco", "94105", "CA", "US")
	return from, to
}

func TestRates_DomesticMailClasses(t *testing.T) {
	mock := usps.NewMockAPIClient()
	client := newTestClient(mock)
	from, to := domesticAddresses()

	packages := carrier.PackageSet{
		carrier.NewImperialPackage(10, 8, 4, 2, 0),
		carrier.NewImperialPackage(12, 10, 6, 3, 0),
	}

	rates, err := client.Rates(context.Background(), from, to, packages)
	require.NoError(t, err)
	require.Equal(t, 3, rates.Len())
	assert.Equal(t, 2, mock.RateCalls())

	ground, ok := rates.Find("USPS_GROUND_ADVANTAGE-SP")
	require.True(t, ok)
	assert.Equal(t, "16.50", ground.Price.StringFixed(2))
	assert.Equal(t, "USD", ground.Currency)
}

func TestRates_InternationalLaneDetection(t *testing.T) {
	var captured *usps.RatesRequest
	mock := &usps.MockAPIClient{
		OnGetRates: func(ctx context.Context, req *usps.RatesRequest) (*usps.RatesResponse, error) {
			captured = req
			return &usps.RatesResponse{Quotes: []usps.Quote{
				{ServiceCode: "PRIORITY_MAIL_INTERNATIONAL-SP", ServiceName: "Priority Mail International", TotalCharge: 44.80, MailClass: "PRIORITY_MAIL_INTERNATIONAL", Indicator: "SP"},
			}}, nil
		},
	}
	client := newTestClient(mock)

	from := carrier.NewAddress("", "", "", "1 Fifth Ave", "", "New York", "10003", "NY", "US")
	to := carrier.NewAddress("", "", "", "100 Front St", "", "Toronto", "M5J 1E3", "ON", "CA")

	rates, err := client.Rates(context.Background(), from, to,
		carrier.PackageSet{carrier.NewImperialPackage(10, 8, 4, 2, 0)})
	require.NoError(t, err)
	require.Equal(t, 1, rates.Len())

	require.NotNil(t, captured)
	assert.True(t, captured.International)
	assert.Equal(t, "CA", captured.DestCountry)
}

func TestRate_FilterByBareMailClass(t *testing.T) {
	client := newTestClient(usps.NewMockAPIClient())
	from, to := domesticAddresses()
	packages := carrier.PackageSet{carrier.NewImperialPackage(10, 8, 4, 2, 0)}

	rates, err := client.Rate(context.Background(), from, to, packages,
		&carrier.Service{Code: "PRIORITY_MAIL", Name: "Priority Mail"})
	require.NoError(t, err)
	require.Equal(t, 1, rates.Len())
	assert.Equal(t, "PRIORITY_MAIL-SP", rates.Rates()[0].Service.Code)
}

func TestRate_UnknownServicePriceNotFound(t *testing.T) {
	client := newTestClient(usps.NewMockAPIClient())
	from, to := domesticAddresses()
	packages := carrier.PackageSet{carrier.NewImperialPackage(10, 8, 4, 2, 0)}

	_, err := client.Rate(context.Background(), from, to, packages,
		&carrier.Service{Code: "MEDIA_MAIL", Name: "Media Mail"})
	require.Error(t, err)
	assert.True(t, carrier.IsKind(err, carrier.KindPriceNotFound))
}

func TestRates_NoValidRatesFault(t *testing.T) {
	mock := &usps.MockAPIClient{Err: &usps.APIError{
		StatusCode: http.StatusBadRequest,
		Message:    "No valid rates for these parameters.",
	}}
	client := newTestClient(mock)
	from, to := domesticAddresses()

	_, err := client.Rates(context.Background(), from, to,
		carrier.PackageSet{carrier.NewImperialPackage(10, 8, 4, 2, 0)})
	require.Error(t, err)
	assert.True(t, carrier.IsKind(err, carrier.KindPriceNotFound))
}

func TestRates_UnauthorizedClassified(t *testing.T) {
	mock := &usps.MockAPIClient{Err: &usps.APIError{
		StatusCode: http.StatusUnauthorized,
		Message:    "invalid token",
	}}
	client := newTestClient(mock)
	from, to := domesticAddresses()

	_, err := client.Rates(context.Background(), from, to,
		carrier.PackageSet{carrier.NewImperialPackage(10, 8, 4, 2, 0)})
	require.Error(t, err)
	assert.True(t, carrier.IsKind(err, carrier.KindInvalidCredentials))
}

func TestRates_EmptyPackagesSkipsAPI(t *testing.T) {
	mock := usps.NewMockAPIClient()
	client := newTestClient(mock)
	from, to := domesticAddresses()

	_, err := client.Rates(context.Background(), from, to, nil)
	require.Error(t, err)
	assert.True(t, carrier.IsKind(err, carrier.KindEmptyPackages))
	assert.Zero(t, mock.RateCalls())
}

func TestShip_NotSupported(t *testing.T) {
	client := newTestClient(usps.NewMockAPIClient())

	_, err := client.Ship(context.Background(), carrier.ShipFrom{}, carrier.ShipTo{},
		carrier.PackageSet{carrier.NewImperialPackage(10, 8, 4, 2, 0)},
		carrier.Service{Code: "PRIORITY_MAIL"}, nil, nil)
	require.Error(t, err)
	assert.True(t, carrier.IsKind(err, carrier.KindShipmentNotCreated))
	assert.Contains(t, err.Error(), "not supported")
}
