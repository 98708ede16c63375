package canadapost

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// MockAPIClient is an in-memory APIClient for tests. Call counters let
// tests assert that validation short-circuits before any API traffic.
type MockAPIClient struct {
	Err error // returned by every call when set

	OnGetRates       func(ctx context.Context, req *RatesRequest) (*RatesResponse, error)
	OnCreateShipment func(ctx context.Context, req *ShipmentRequest) (*ShipmentResponse, error)

	rateCalls atomic.Int64
	shipCalls atomic.Int64
}

// NewMockAPIClient creates a mock with default canned responses.
func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{}
}

// RateCalls returns the number of GetRates invocations.
func (m *MockAPIClient) RateCalls() int {
	return int(m.rateCalls.Load())
}

// ShipCalls returns the number of CreateShipment invocations.
func (m *MockAPIClient) ShipCalls() int {
	return int(m.shipCalls.Load())
}

// GetRates returns canned quotes for one parcel.
func (m *MockAPIClient) GetRates(ctx context.Context, req *RatesRequest) (*RatesResponse, error) {
	m.rateCalls.Add(1)
	if m.Err != nil {
		return nil, m.Err
	}
	if m.OnGetRates != nil {
		return m.OnGetRates(ctx, req)
	}

	return &RatesResponse{
		Quotes: []Quote{
			{
				ServiceCode:     "DOM.RP",
				ServiceName:     "Regular Parcel",
				TotalPrice:      12.65,
				ExpectedTransit: 5,
			},
			{
				ServiceCode:        "DOM.XP",
				ServiceName:        "Xpresspost",
				TotalPrice:         25.30,
				ExpectedTransit:    2,
				GuaranteedDelivery: true,
			},
		},
	}, nil
}

// CreateShipment returns a canned label for one parcel.
func (m *MockAPIClient) CreateShipment(ctx context.Context, req *ShipmentRequest) (*ShipmentResponse, error) {
	m.shipCalls.Add(1)
	if m.Err != nil {
		return nil, m.Err
	}
	if m.OnCreateShipment != nil {
		return m.OnCreateShipment(ctx, req)
	}

	id := uuid.New().String()[:8]
	return &ShipmentResponse{
		ShipmentID:  "cp-shipment-" + id,
		TrackingPIN: fmt.Sprintf("123456789012%s", id[:4]),
		LabelData:   "bW9jayBsYWJlbA==",
		LabelFormat: "pdf",
	}, nil
}
