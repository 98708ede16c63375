package fedex

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

// GetRates returns canned quotes for one package.
func (m *MockAPIClient) GetRates(ctx context.Context, req *RatesRequest) (*RatesResponse, error) {
	m.rateCalls.Add(1)
	if m.Err != nil {
		return nil, m.Err
	}
	if m.OnGetRates != nil {
		return m.OnGetRates(ctx, req)
	}

	quotes := []Quote{
		{ServiceCode: "FEDEX_GROUND", ServiceName: "FedEx Ground", TotalCharge: 14.20, Currency: "USD", TransitDays: 4},
		{ServiceCode: "FEDEX_2_DAY", ServiceName: "FedEx 2 Day", TotalCharge: 28.75, Currency: "USD", TransitDays: 2},
		{ServiceCode: "PRIORITY_OVERNIGHT", ServiceName: "FedEx Priority Overnight", TotalCharge: 52.10, Currency: "USD", TransitDays: 1},
	}
	if req.ServiceCode != "" {
		var filtered []Quote
		for _, q := range quotes {
			if q.ServiceCode == req.ServiceCode {
				filtered = append(filtered, q)
			}
		}
		quotes = filtered
	}
	return &RatesResponse{Quotes: quotes}, nil
}

// CreateShipment returns a canned label for one package.
func (m *MockAPIClient) CreateShipment(ctx context.Context, req *ShipmentRequest) (*ShipmentResponse, error) {
	m.shipCalls.Add(1)
	if m.Err != nil {
		return nil, m.Err
	}
	if m.OnCreateShipment != nil {
		return m.OnCreateShipment(ctx, req)
	}

	return &ShipmentResponse{
		TrackingNumber: fmt.Sprintf("7%s", uuid.New().String()[:11]),
		LabelData:      "bW9jayBsYWJlbA==",
		LabelFormat:    "pdf",
	}, nil
}
