package usps

import (
	"context"
	"sync/atomic"
)

// MockAPIClient is an in-memory APIClient for tests.
type MockAPIClient struct {
	Err error // returned by every call when set

	OnGetRates func(ctx context.Context, req *RatesRequest) (*RatesResponse, error)

	rateCalls atomic.Int64
}

// NewMockAPIClient creates a mock with default canned responses.
func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{}
}

// RateCalls returns the number of GetRates invocations.
func (m *MockAPIClient) RateCalls() int {
	return int(m.rateCalls.Load())
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

	if req.International {
		return &RatesResponse{Quotes: []Quote{
			{ServiceCode: "PRIORITY_MAIL_INTERNATIONAL-SP", ServiceName: "Priority Mail International", TotalCharge: 44.80, MailClass: "PRIORITY_MAIL_INTERNATIONAL", Indicator: "SP"},
		}}, nil
	}
	return &RatesResponse{Quotes: []Quote{
		{ServiceCode: "USPS_GROUND_ADVANTAGE-SP", ServiceName: "USPS Ground Advantage", TotalCharge: 8.25, MailClass: "USPS_GROUND_ADVANTAGE", Indicator: "SP"},
		{ServiceCode: "PRIORITY_MAIL-SP", ServiceName: "Priority Mail", TotalCharge: 13.65, MailClass: "PRIORITY_MAIL", Indicator: "SP"},
		{ServiceCode: "PRIORITY_MAIL_EXPRESS-PA", ServiceName: "Priority Mail Express", TotalCharge: 31.40, MailClass: "PRIORITY_MAIL_EXPRESS", Indicator: "PA"},
	}}, nil
}
