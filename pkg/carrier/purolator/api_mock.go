package purolator

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// MockAPIClient is an in-memory APIClient for tests.
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

// GetRates returns canned estimates for the whole shipment.
func (m *MockAPIClient) GetRates(ctx context.Context, req *RatesRequest) (*RatesResponse, error) {
	m.rateCalls.Add(1)
	if m.Err != nil {
		return nil, m.Err
	}
	if m.OnGetRates != nil {
		return m.OnGetRates(ctx, req)
	}

	return &RatesResponse{Quotes: []Quote{
		{ServiceCode: "PurolatorGround", TotalPrice: 15.42, TransitDays: 3},
		{ServiceCode: "PurolatorExpress", TotalPrice: 27.89, TransitDays: 1},
	}}, nil
}

// CreateShipment returns a canned label for one piece.
func (m *MockAPIClient) CreateShipment(ctx context.Context, req *ShipmentRequest) (*ShipmentResponse, error) {
	m.shipCalls.Add(1)
	if m.Err != nil {
		return nil, m.Err
	}
	if m.OnCreateShipment != nil {
		return m.OnCreateShipment(ctx, req)
	}

	return &ShipmentResponse{
		PIN:         fmt.Sprintf("PUR%s", uuid.New().String()[:9]),
		LabelData:   "bW9jayBsYWJlbA==",
		LabelFormat: "pdf",
	}, nil
}
