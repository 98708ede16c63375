package usps

import (
	"context"
	"fmt"
)

// APIClient defines the USPS API operations the adapter needs. USPS rates
// only; the adapter does not purchase labels.
type APIClient interface {
	// GetRates fetches rate quotes for a single package.
	GetRates(ctx context.Context, req *RatesRequest) (*RatesResponse, error)
}

// RatesRequest describes one package to be priced. Weight is in pounds,
// dimensions in inches, per the USPS API.
type RatesRequest struct {
	OriginZIP     string
	DestZIP       string
	DestCountry   string // non-US marks the request international
	Weight        float64
	Length        float64
	Width         float64
	Height        float64
	International bool
}

// RatesResponse holds the quotes returned for one package.
type RatesResponse struct {
	Quotes []Quote
}

// Quote is a single priced mail class. The service code is the mail class
// joined with the rate indicator, so two indicators of the same class stay
// distinct entries.
type Quote struct {
	ServiceCode string
	ServiceName string
	TotalCharge float64
	MailClass   string
	Indicator   string
}

// APIError is a classified fault from the USPS API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("usps api error %d: %s", e.StatusCode, e.Message)
}
