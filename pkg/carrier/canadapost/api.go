package canadapost

import (
	"context"
	"fmt"
)

// APIClient defines the Canada Post API operations the adapter needs. The
// abstraction allows a mock implementation in tests and the HTTP/XML
// implementation in production.
type APIClient interface {
	// GetRates fetches rate quotes for a single parcel.
	GetRates(ctx context.Context, req *RatesRequest) (*RatesResponse, error)

	// CreateShipment purchases a label for a single parcel.
	CreateShipment(ctx context.Context, req *ShipmentRequest) (*ShipmentResponse, error)
}

// RatesRequest describes one parcel to be priced. Weight is in kilograms,
// dimensions in centimetres, per the Canada Post API.
type RatesRequest struct {
	CustomerNumber string
	OriginPostal   string
	Destination    Destination
	Weight         float64
	Dimensions     Dimensions
}

// Dimensions are parcel dimensions in centimetres.
type Dimensions struct {
	Length float64
	Width  float64
	Height float64
}

// Destination selects the domestic or international rate scenario.
type Destination struct {
	Domestic      *DomesticDestination
	International *InternationalDestination
}

// DomesticDestination is a Canadian destination.
type DomesticDestination struct {
	PostalCode string
}

// InternationalDestination is a non-Canadian destination.
type InternationalDestination struct {
	CountryCode string
	PostalCode  string
}

// RatesResponse holds the quotes returned for one parcel.
type RatesResponse struct {
	Quotes []Quote
}

// Quote is a single priced service from the rates call.
type Quote struct {
	ServiceCode        string
	ServiceName        string
	TotalPrice         float64
	ExpectedTransit    int
	ExpectedDelivery   string
	GuaranteedDelivery bool
}

// ShipmentRequest describes one label purchase.
type ShipmentRequest struct {
	CustomerNumber string
	ServiceCode    string
	Sender         Party
	Destination    Party
	Weight         float64
	Dimensions     Dimensions
	// CustomsAmount and CustomsCurrency are set for cross-border parcels.
	CustomsAmount   string
	CustomsCurrency string
}

// Party is a sender or recipient on a shipment.
type Party struct {
	Name         string
	Company      string
	Phone        string
	AddressLine1 string
	AddressLine2 string
	City         string
	Province     string
	PostalCode   string
	CountryCode  string
}

// ShipmentResponse is the result of one label purchase.
type ShipmentResponse struct {
	ShipmentID  string
	TrackingPIN string
	LabelData   string // base64
	LabelFormat string
}

// APIError is a classified fault from the Canada Post API.
type APIError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("canadapost api error %d (%s): %s", e.StatusCode, e.Code, e.Description)
}
