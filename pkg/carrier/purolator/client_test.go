package purolator_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/parcelgate/shipping/internal/telemetry"
	"github.com/parcelgate/shipping/pkg/carrier"
	"github.com/parcelgate/shipping/pkg/carrier/purolator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(mock purolator.APIClient) *purolator.Client {
	return purolator.NewWithAPIClient(purolator.Config{}, mock, telemetry.NopLogger(), nil)
}

func domesticAddresses() (carrier.Address, carrier.Address) {
	from := carrier.NewAddress("", "", "Acme", "100 Front St", "", "Toronto", "M5J 1E3", "ON", "CA")
	to := carrier.NewAddress("Jane", "Doe", "", "200 Main St", "", "Vancouver", "V6B 1A1", "BC", "CA")
	return from, to
}

func TestRates_SingleEstimateForWholeShipment(t *testing.T) {
	mock := purolator.NewMockAPIClient()
	client := newTestClient(mock)
	from, to := domesticAddresses()

	packages := carrier.PackageSet{
		carrier.NewMetricPackage(20, 10, 5, 1, 0),
		carrier.NewMetricPackage(30, 20, 10, 2, 0),
		carrier.NewMetricPackage(40, 30, 15, 3, 0),
	}

	rates, err := client.Rates(context.Background(), from, to, packages)
	require.NoError(t, err)
	require.Equal(t, 2, rates.Len())

	// One estimate call prices every piece; no per-package fan-out.
	assert.Equal(t, 1, mock.RateCalls())

	ground, ok := rates.Find("PurolatorGround")
	require.True(t, ok)
	assert.Equal(t, "15.42", ground.Price.StringFixed(2))
	assert.Equal(t, "Purolator Ground", ground.Service.Name)
	assert.Equal(t, "CAD", ground.Currency)
}

func TestRates_SeedServiceFollowsDestination(t *testing.T) {
	cases := []struct {
		country string
		want    string
	}{
		{"CA", "PurolatorExpress"},
		{"", "PurolatorExpress"},
		{"US", "PurolatorExpressU.S."},
		{"FR", "PurolatorExpressInternational"},
	}

	for _, tc := range cases {
		var captured *purolator.RatesRequest
		mock := &purolator.MockAPIClient{
			OnGetRates: func(ctx context.Context, req *purolator.RatesRequest) (*purolator.RatesResponse, error) {
				captured = req
				return &purolator.RatesResponse{Quotes: []purolator.Quote{
					{ServiceCode: req.ServiceID, TotalPrice: 20},
				}}, nil
			},
		}
		client := newTestClient(mock)

		from, _ := domesticAddresses()
		to := carrier.NewAddress("", "", "", "1 Somewhere", "", "City", "00000", "", tc.country)

		_, err := client.Rates(context.Background(), from, to,
			carrier.PackageSet{carrier.NewMetricPackage(20, 10, 5, 1, 0)})
		require.NoError(t, err)
		require.NotNil(t, captured)
		assert.Equal(t, tc.want, captured.ServiceID, "country %q", tc.country)
	}
}

func TestRates_PiecesKeepNativeUnits(t *testing.T) {
	var captured *purolator.RatesRequest
	mock := &purolator.MockAPIClient{
		OnGetRates: func(ctx context.Context, req *purolator.RatesRequest) (*purolator.RatesResponse, error) {
			captured = req
			return &purolator.RatesResponse{Quotes: []purolator.Quote{
				{ServiceCode: "PurolatorExpressU.S.", TotalPrice: 35},
			}}, nil
		},
	}
	client := newTestClient(mock)
	from, _ := domesticAddresses()
	to := carrier.NewAddress("", "", "", "1 Fifth Ave", "", "New York", "10003", "NY", "US")

	packages := carrier.PackageSet{carrier.NewImperialPackage(10, 8, 4, 2, 0)}
	_, err := client.Rates(context.Background(), from, to, packages)
	require.NoError(t, err)

	require.NotNil(t, captured)
	require.Len(t, captured.Pieces, 1)
	assert.Equal(t, "lb", captured.Pieces[0].WeightUnit)
	assert.Equal(t, "in", captured.Pieces[0].DimensionUnit)
	assert.Equal(t, 10.0, captured.Pieces[0].Length)
	assert.Equal(t, 2.0, captured.TotalWeight)
}

func TestRate_ServiceFilter(t *testing.T) {
	client := newTestClient(purolator.NewMockAPIClient())
	from, to := domesticAddresses()
	packages := carrier.PackageSet{carrier.NewMetricPackage(20, 10, 5, 1, 0)}

	rates, err := client.Rate(context.Background(), from, to, packages,
		&carrier.Service{Code: "PurolatorExpress", Name: "Purolator Express"})
	require.NoError(t, err)
	require.Equal(t, 1, rates.Len())
	assert.Equal(t, "PurolatorExpress", rates.Rates()[0].Service.Code)
}

func TestRate_UnknownServicePriceNotFound(t *testing.T) {
	client := newTestClient(purolator.NewMockAPIClient())
	from, to := domesticAddresses()
	packages := carrier.PackageSet{carrier.NewMetricPackage(20, 10, 5, 1, 0)}

	_, err := client.Rate(context.Background(), from, to, packages,
		&carrier.Service{Code: "PurolatorExpress9AM", Name: "Purolator Express 9AM"})
	require.Error(t, err)
	assert.True(t, carrier.IsKind(err, carrier.KindPriceNotFound))
}

func TestRates_InvalidOriginPostalFault(t *testing.T) {
	mock := &purolator.MockAPIClient{Err: &purolator.APIError{
		StatusCode:  http.StatusOK,
		Code:        "3001149",
		Description: "origin postal code is not serviceable",
	}}
	client := newTestClient(mock)
	from, to := domesticAddresses()

	_, err := client.Rates(context.Background(), from, to,
		carrier.PackageSet{carrier.NewMetricPackage(20, 10, 5, 1, 0)})
	require.Error(t, err)
	assert.True(t, carrier.IsKind(err, carrier.KindInvalidOriginPostalCode))
}

func TestRates_RequestFaultCodes(t *testing.T) {
	for _, code := range []string{"1000000", "1100509", "1100512"} {
		mock := &purolator.MockAPIClient{Err: &purolator.APIError{
			StatusCode:  http.StatusOK,
			Code:        code,
			Description: "request rejected",
		}}
		client := newTestClient(mock)
		from, to := domesticAddresses()

		_, err := client.Rates(context.Background(), from, to,
			carrier.PackageSet{carrier.NewMetricPackage(20, 10, 5, 1, 0)})
		require.Error(t, err)
		assert.True(t, carrier.IsKind(err, carrier.KindInvalidShipmentParameters), "code %s", code)
	}
}

func TestRates_UnauthorizedClassified(t *testing.T) {
	mock := &purolator.MockAPIClient{Err: &purolator.APIError{
		StatusCode: http.StatusUnauthorized,
		Code:       "UNAUTHORIZED",
	}}
	client := newTestClient(mock)
	from, to := domesticAddresses()

	_, err := client.Rates(context.Background(), from, to,
		carrier.PackageSet{carrier.NewMetricPackage(20, 10, 5, 1, 0)})
	require.Error(t, err)
	assert.True(t, carrier.IsKind(err, carrier.KindInvalidCredentials))
}

func TestShip_OneLabelPerPiece(t *testing.T) {
	mock := purolator.NewMockAPIClient()
	client := newTestClient(mock)

	from := carrier.ShipFrom{
		Name:    "Warehouse",
		Address: carrier.NewAddress("", "", "Acme", "100 Front St", "", "Toronto", "M5J 1E3", "ON", "CA"),
	}
	to := carrier.ShipTo{
		Name:    "Jane Doe",
		Address: carrier.NewAddress("Jane", "Doe", "", "200 Main St", "", "Vancouver", "V6B 1A1", "BC", "CA"),
	}
	packages := carrier.PackageSet{
		carrier.NewMetricPackage(20, 10, 5, 1, 0),
		carrier.NewMetricPackage(30, 20, 10, 2, 0),
	}

	shipments, err := client.Ship(context.Background(), from, to, packages,
		carrier.Service{Code: "PurolatorGround", Name: "Purolator Ground"}, nil, nil)
	require.NoError(t, err)
	require.Len(t, shipments, 2)
	assert.Equal(t, 2, mock.ShipCalls())
	assert.Equal(t, carrier.LabelPDF, shipments[0].LabelFormat)
	assert.NotEmpty(t, shipments[0].TrackingNumber)
}
