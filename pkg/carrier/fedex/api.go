package fedex

import (
	"context"
	"fmt"
)

// APIClient defines the FedEx API operations the adapter needs.
type APIClient interface {
	// GetRates fetches rate quotes for a single package.
	GetRates(ctx context.Context, req *RatesRequest) (*RatesResponse, error)

	// CreateShipment purchases a label for a single package.
	CreateShipment(ctx context.Context, req *ShipmentRequest) (*ShipmentResponse, error)
}

// RatesRequest describes one package to be priced. Weight is in pounds,
// dimensions in inches, per the FedEx API.
type RatesRequest struct {
	AccountNumber  string
	OriginPostal   string
	OriginCountry  string
	DestPostal     string
	DestCountry    string
	Weight         float64
	Length         float64
	Width          float64
	Height         float64
	ServiceCode    string // empty requests all services
}

// RatesResponse holds the quotes returned for one package.
type RatesResponse struct {
	Quotes []Quote
}

// Quote is a single priced service.
type Quote struct {
	ServiceCode string
	ServiceName string
	TotalCharge float64
	Currency    string
	TransitDays int
}

// ShipmentRequest describes one label purchase.
type ShipmentRequest struct {
	AccountNumber string
	ServiceCode   string
	Shipper       Party
	Recipient     Party
	Weight        float64
	Length        float64
	Width         float64
	Height        float64
	// Customs fields are set for cross-border packages.
	CustomsValue    string
	CustomsCurrency string
}

// Party is a shipper or recipient on a shipment.
type Party struct {
	Name        string
	Company     string
	Phone       string
	Line1       string
	Line2       string
	City        string
	StateCode   string
	PostalCode  string
	CountryCode string
}

// ShipmentResponse is the result of one label purchase.
type ShipmentResponse struct {
	TrackingNumber string
	LabelData      string // base64
	LabelFormat    string
}

// APIError is a classified fault from the FedEx API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("fedex api error %d (%s): %s", e.StatusCode, e.Code, e.Message)
}
