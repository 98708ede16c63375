package server

import (
	"fmt"

	"github.com/parcelgate/shipping/pkg/carrier"
	"github.com/shopspring/decimal"
)

type addressDTO struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Company     string `json:"company"`
	Line1       string `json:"line1"`
	Line2       string `json:"line2"`
	City        string `json:"city"`
	PostalCode  string `json:"postal_code" validate:"required"`
	StateCode   string `json:"state_code"`
	CountryCode string `json:"country_code" validate:"required,len=2"`
}

type packageDTO struct {
	Length    float64 `json:"length" validate:"gt=0"`
	Width     float64 `json:"width" validate:"gt=0"`
	Height    float64 `json:"height" validate:"gt=0"`
	Weight    float64 `json:"weight" validate:"gte=0"`
	MaxWeight float64 `json:"max_weight" validate:"gte=0"`
	Units     string  `json:"units" validate:"omitempty,oneof=metric imperial"`
}

type serviceDTO struct {
	Code string `json:"code" validate:"required"`
	Name string `json:"name"`
}

type phoneDTO struct {
	CountryCode string `json:"country_code"`
	AreaCode    string `json:"area_code"`
	Number      string `json:"number"`
	Extension   string `json:"extension"`
}

type partyDTO struct {
	Name    string     `json:"name" validate:"required"`
	Company string     `json:"company"`
	Email   string     `json:"email" validate:"omitempty,email"`
	Phone   *phoneDTO  `json:"phone"`
	Address addressDTO `json:"address" validate:"required"`
}

type customsDTO struct {
	Amount   string            `json:"amount" validate:"required"`
	Currency string            `json:"currency" validate:"required,len=3"`
	Extra    map[string]string `json:"extra"`
}

type ratesRequestDTO struct {
	Carrier  string       `json:"carrier"` // empty fans out to every carrier
	From     addressDTO   `json:"from" validate:"required"`
	To       addressDTO   `json:"to" validate:"required"`
	Packages []packageDTO `json:"packages" validate:"dive"`
	Service  *serviceDTO  `json:"service" validate:"omitempty"`
}

type shipmentsRequestDTO struct {
	Carrier  string       `json:"carrier" validate:"required"`
	From     partyDTO     `json:"from" validate:"required"`
	To       partyDTO     `json:"to" validate:"required"`
	Packages []packageDTO `json:"packages" validate:"dive"`
	Service  serviceDTO   `json:"service" validate:"required"`
	Customs  *customsDTO  `json:"customs" validate:"omitempty"`
	Extra    map[string]string `json:"extra"`
}

type rateDTO struct {
	ServiceCode string         `json:"service_code"`
	ServiceName string         `json:"service_name"`
	Price       string         `json:"price"`
	Currency    string         `json:"currency"`
	Meta        map[string]any `json:"meta,omitempty"`
}

type errorDTO struct {
	Carrier string `json:"carrier,omitempty"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message"`
}

type ratesResponseDTO struct {
	Rates  []rateDTO  `json:"rates"`
	Errors []errorDTO `json:"errors,omitempty"`
}

type shipmentDTO struct {
	TrackingNumber string         `json:"tracking_number"`
	LabelData      string         `json:"label_data"`
	LabelFormat    string         `json:"label_format"`
	Meta           map[string]any `json:"meta,omitempty"`
}

type shipmentsResponseDTO struct {
	Shipments []shipmentDTO `json:"shipments"`
}

type carrierDTO struct {
	Name           string            `json:"name"`
	CredentialKeys []string          `json:"credential_keys"`
	Services       []serviceGroupDTO `json:"services"`
}

type serviceGroupDTO struct {
	Category string       `json:"category"`
	Services []serviceDTO `json:"services"`
}

func (d addressDTO) toModel() carrier.Address {
	return carrier.NewAddress(d.FirstName, d.LastName, d.Company,
		d.Line1, d.Line2, d.City, d.PostalCode, d.StateCode, d.CountryCode)
}

func (d packageDTO) toModel() carrier.Package {
	if d.Units == "imperial" {
		return carrier.NewImperialPackage(d.Length, d.Width, d.Height, d.Weight, d.MaxWeight)
	}
	return carrier.NewMetricPackage(d.Length, d.Width, d.Height, d.Weight, d.MaxWeight)
}

func packagesToModel(dtos []packageDTO) carrier.PackageSet {
	set := make(carrier.PackageSet, 0, len(dtos))
	for _, d := range dtos {
		set = append(set, d.toModel())
	}
	return set
}

func (d *phoneDTO) toModel() *carrier.Phone {
	if d == nil {
		return nil
	}
	return &carrier.Phone{
		CountryCode: d.CountryCode,
		AreaCode:    d.AreaCode,
		Number:      d.Number,
		Extension:   d.Extension,
	}
}

func (d partyDTO) toShipFrom() carrier.ShipFrom {
	return carrier.ShipFrom{
		Name:    d.Name,
		Company: d.Company,
		Email:   d.Email,
		Phone:   d.Phone.toModel(),
		Address: d.Address.toModel(),
	}
}

func (d partyDTO) toShipTo() carrier.ShipTo {
	return carrier.ShipTo{
		Name:    d.Name,
		Company: d.Company,
		Email:   d.Email,
		Phone:   d.Phone.toModel(),
		Address: d.Address.toModel(),
	}
}

func (d *customsDTO) toModel() (*carrier.CustomsDeclaration, error) {
	if d == nil {
		return nil, nil
	}
	amount, err := decimal.NewFromString(d.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid customs amount %q", d.Amount)
	}
	return &carrier.CustomsDeclaration{Amount: amount, Currency: d.Currency, Extra: d.Extra}, nil
}

func ratesToDTO(rc *carrier.RateCollection) []rateDTO {
	rates := rc.Rates()
	out := make([]rateDTO, 0, len(rates))
	for _, r := range rates {
		out = append(out, rateDTO{
			ServiceCode: r.Service.Code,
			ServiceName: r.Service.Name,
			Price:       r.Price.StringFixed(2),
			Currency:    r.Currency,
			Meta:        r.Meta,
		})
	}
	return out
}

func shipmentsToDTO(sc carrier.ShipmentCollection) []shipmentDTO {
	out := make([]shipmentDTO, 0, len(sc))
	for _, s := range sc {
		out = append(out, shipmentDTO{
			TrackingNumber: s.TrackingNumber,
			LabelData:      s.LabelData,
			LabelFormat:    string(s.LabelFormat),
			Meta:           s.Meta,
		})
	}
	return out
}

func errorsToDTO(errs []error) []errorDTO {
	out := make([]errorDTO, 0, len(errs))
	for _, err := range errs {
		out = append(out, errorToDTO(err))
	}
	return out
}

func errorToDTO(err error) errorDTO {
	if cerr, ok := carrier.AsError(err); ok {
		return errorDTO{Carrier: cerr.Carrier, Kind: string(cerr.Kind), Message: cerr.Message}
	}
	return errorDTO{Message: err.Error()}
}
