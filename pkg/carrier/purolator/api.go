package purolator

import (
	"context"
	"fmt"
)

// APIClient defines the Purolator E-Ship operations the adapter needs.
type APIClient interface {
	// GetRates fetches estimates for a whole shipment in one call.
	GetRates(ctx context.Context, req *RatesRequest) (*RatesResponse, error)

	// CreateShipment purchases a label for a single piece.
	CreateShipment(ctx context.Context, req *ShipmentRequest) (*ShipmentResponse, error)
}

// RatesRequest describes a full shipment to be estimated. Unlike the JSON
// carriers, Purolator prices all pieces in one GetFullEstimate call.
type RatesRequest struct {
	SenderName     string
	SenderStreet   string
	SenderCity     string
	SenderProvince string
	SenderPostal   string
	SenderCountry  string

	ReceiverName     string
	ReceiverStreet   string
	ReceiverCity     string
	ReceiverProvince string
	ReceiverPostal   string
	ReceiverCountry  string

	// ServiceID seeds the estimate; alternative services come back
	// alongside it.
	ServiceID   string
	TotalWeight float64
	WeightUnit  string // "kg" or "lb"
	Pieces      []Piece
}

// Piece is one physical package on the shipment.
type Piece struct {
	Weight        float64
	WeightUnit    string
	Length        float64
	Width         float64
	Height        float64
	DimensionUnit string // "cm" or "in"
}

// RatesResponse holds the estimates for the shipment.
type RatesResponse struct {
	Quotes []Quote
}

// Quote is a single estimated service.
type Quote struct {
	ServiceCode          string
	TotalPrice           float64
	ExpectedDeliveryDate string
	TransitDays          int
}

// ShipmentRequest describes one label purchase.
type ShipmentRequest struct {
	ServiceCode string
	Sender      Party
	Receiver    Party
	Piece       Piece
}

// Party is a sender or receiver on a shipment.
type Party struct {
	Name       string
	Company    string
	StreetName string
	City       string
	Province   string
	PostalCode string
	Country    string
	Phone      string
}

// ShipmentResponse is the result of one label purchase. LabelData is the
// base64 label fetched from the documents service.
type ShipmentResponse struct {
	PIN         string
	LabelData   string
	LabelFormat string
}

// APIError is a classified fault from the Purolator API. Code carries the
// numeric Purolator error code as a string.
type APIError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("purolator api error %s: %s", e.Code, e.Description)
}
