// Package purolator provides the Purolator carrier adapter. Purolator
// speaks SOAP over basic auth; a single estimate call prices every piece
// on the shipment at once.
package purolator

import (
	"context"
	"errors"
	"net/http"

	"github.com/parcelgate/shipping/pkg/carrier"
	"github.com/shopspring/decimal"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const carrierName = "purolator"

// Purolator estimating error codes.
const (
	codeInvalidOriginPostal = "3001149"
)

// invalidParameterCodes are estimating faults caused by the request
// contents rather than the account or the transport.
var invalidParameterCodes = map[string]struct{}{
	"1000000": {},
	"1100509": {},
	"1100512": {},
}

// Config holds Purolator adapter configuration.
type Config struct {
	Credentials Credentials
	BaseURL     string
	UseMock     bool
}

// Client is the Purolator carrier.
type Client struct {
	config    Config
	apiClient APIClient
	logger    *otelzap.Logger
	tracer    trace.Tracer
}

// New creates a new Purolator client.
func New(cfg Config, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	var apiClient APIClient
	if cfg.UseMock {
		apiClient = NewMockAPIClient()
	} else {
		apiClient = NewSOAPAPIClient(SOAPAPIClientConfig{
			BaseURL:     cfg.BaseURL,
			Credentials: cfg.Credentials,
		})
	}
	return &Client{config: cfg, apiClient: apiClient, logger: logger, tracer: tracer}
}

// NewWithAPIClient creates a client with a custom API client.
func NewWithAPIClient(cfg Config, apiClient APIClient, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	return &Client{config: cfg, apiClient: apiClient, logger: logger, tracer: tracer}
}

// Name returns the carrier name.
func (c *Client) Name() string {
	return carrierName
}

// Services returns the Purolator product catalog.
func (c *Client) Services() []carrier.ServiceGroup {
	return []carrier.ServiceGroup{
		{
			Category: "Domestic",
			Services: []carrier.Service{
				{Code: "PurolatorExpress9AM", Name: "Purolator Express 9AM"},
				{Code: "PurolatorExpress10:30AM", Name: "Purolator Express 10:30AM"},
				{Code: "PurolatorExpress12PM", Name: "Purolator Express 12PM"},
				{Code: "PurolatorExpress", Name: "Purolator Express"},
				{Code: "PurolatorExpressEvening", Name: "Purolator Express Evening"},
				{Code: "PurolatorExpressEnvelope", Name: "Purolator Express Envelope"},
				{Code: "PurolatorExpressPack", Name: "Purolator Express Pack"},
				{Code: "PurolatorExpressBox", Name: "Purolator Express Box"},
				{Code: "PurolatorGround", Name: "Purolator Ground"},
				{Code: "PurolatorGround9AM", Name: "Purolator Ground 9AM"},
				{Code: "PurolatorGround10:30AM", Name: "Purolator Ground 10:30AM"},
				{Code: "PurolatorGroundEvening", Name: "Purolator Ground Evening"},
				{Code: "PurolatorQuickShip", Name: "Purolator Quick Ship"},
			},
		},
		{
			Category: "International",
			Services: []carrier.Service{
				{Code: "PurolatorExpressU.S.", Name: "Purolator Express U.S."},
				{Code: "PurolatorExpressU.S.9AM", Name: "Purolator Express U.S. 9AM"},
				{Code: "PurolatorExpressU.S.10:30AM", Name: "Purolator Express U.S. 10:30AM"},
				{Code: "PurolatorExpressU.S.12:00", Name: "Purolator Express U.S. 12:00"},
				{Code: "PurolatorGroundU.S.", Name: "Purolator Ground U.S."},
				{Code: "PurolatorExpressInternational", Name: "Purolator Express International"},
				{Code: "PurolatorExpressInternational9AM", Name: "Purolator Express International 9AM"},
				{Code: "PurolatorExpressInternational10:30AM", Name: "Purolator Express International 10:30AM"},
				{Code: "PurolatorExpressInternational12:00", Name: "Purolator Express International 12:00"},
			},
		},
	}
}

// CredentialKeys returns the ordered configuration keys.
func (c *Client) CredentialKeys() []string {
	return CredentialKeys()
}

// Rates returns rates for all applicable services.
func (c *Client) Rates(ctx context.Context, from, to carrier.Address, packages carrier.PackageSet) (*carrier.RateCollection, error) {
	return c.Rate(ctx, from, to, packages, nil)
}

// Rate estimates the whole package set in a single call. The seed service
// follows the destination country; alternatives come back alongside it.
func (c *Client) Rate(ctx context.Context, from, to carrier.Address, packages carrier.PackageSet, service *carrier.Service) (*carrier.RateCollection, error) {
	if err := carrier.CheckEmptyPackages(carrierName, packages); err != nil {
		return nil, err
	}
	if err := carrier.CheckOverweightPackages(carrierName, packages); err != nil {
		return nil, err
	}

	if c.tracer != nil {
		var span trace.Span
		ctx, span = c.tracer.Start(ctx, "purolator.rate")
		defer span.End()
	}

	c.logger.Ctx(ctx).Info("Getting Purolator rates",
		zap.String("origin_postal", from.NormalizedPostal()),
		zap.String("destination_country", to.CountryCode),
		zap.Int("package_count", len(packages)),
	)

	apiReq := &RatesRequest{
		SenderName:       fullName(from),
		SenderStreet:     from.Line1,
		SenderCity:       from.City,
		SenderProvince:   from.StateCode,
		SenderPostal:     from.NormalizedPostal(),
		SenderCountry:    from.CountryCode,
		ReceiverName:     fullName(to),
		ReceiverStreet:   to.Line1,
		ReceiverCity:     to.City,
		ReceiverProvince: to.StateCode,
		ReceiverPostal:   to.NormalizedPostal(),
		ReceiverCountry:  to.CountryCode,
		ServiceID:        defaultServiceID(to.CountryCode),
		TotalWeight:      packages.Weight(),
		WeightUnit:       string(packages.WeightUnit()),
		Pieces:           packagesToPieces(packages),
	}

	apiResp, err := c.apiClient.GetRates(ctx, apiReq)
	if err != nil {
		return nil, c.classify(err)
	}

	names := c.serviceNames()
	results := carrier.NewRateCollection()
	for _, q := range apiResp.Quotes {
		if service != nil && service.Code != q.ServiceCode {
			continue
		}
		name := names[q.ServiceCode]
		if name == "" {
			name = q.ServiceCode
		}
		results.Add(&carrier.Rate{
			Service:  carrier.Service{Code: q.ServiceCode, Name: name},
			Price:    decimal.NewFromFloat(q.TotalPrice),
			Currency: "CAD",
			Meta: map[string]any{
				"transit_days":           q.TransitDays,
				"expected_delivery_date": q.ExpectedDeliveryDate,
			},
		})
	}

	if results.Len() == 0 {
		return nil, carrier.NewError(carrierName, carrier.KindPriceNotFound, "price not found")
	}
	return results, nil
}

// Ship purchases one label per package.
func (c *Client) Ship(ctx context.Context, from carrier.ShipFrom, to carrier.ShipTo, packages carrier.PackageSet, service carrier.Service, customs *carrier.CustomsDeclaration, extra map[string]string) (carrier.ShipmentCollection, error) {
	if err := carrier.CheckEmptyPackages(carrierName, packages); err != nil {
		return nil, err
	}
	if err := carrier.CheckOverweightPackages(carrierName, packages); err != nil {
		return nil, err
	}
	if err := carrier.CheckCustomsDeclaration(carrierName, from, to, customs); err != nil {
		return nil, err
	}

	if c.tracer != nil {
		var span trace.Span
		ctx, span = c.tracer.Start(ctx, "purolator.ship")
		defer span.End()
	}

	c.logger.Ctx(ctx).Info("Creating Purolator shipment",
		zap.String("service_code", service.Code),
		zap.Int("package_count", len(packages)),
	)

	shipments := make(carrier.ShipmentCollection, 0, len(packages))
	for _, pkg := range packages {
		apiReq := &ShipmentRequest{
			ServiceCode: service.Code,
			Sender:      shipFromToParty(from),
			Receiver:    shipToToParty(to),
			Piece:       packageToPiece(pkg),
		}

		apiResp, err := c.apiClient.CreateShipment(ctx, apiReq)
		if err != nil {
			return nil, c.classify(err)
		}

		shipments = append(shipments, carrier.Shipment{
			TrackingNumber: apiResp.PIN,
			LabelData:      apiResp.LabelData,
			LabelFormat:    carrier.LabelFormat(apiResp.LabelFormat),
		})
	}

	if len(shipments) == 0 {
		return nil, carrier.NewError(carrierName, carrier.KindShipmentNotCreated, "unable to create shipment")
	}
	return shipments, nil
}

// classify maps Purolator faults onto the error taxonomy. Basic auth
// rejections are credential failures, code 3001149 flags an unserviceable
// origin postal code, the known request fault codes are invalid shipment
// parameters.
func (c *Client) classify(err error) error {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return carrier.NewError(carrierName, carrier.KindTransport, "purolator call failed").WithCause(err)
	}

	if _, ok := invalidParameterCodes[apiErr.Code]; ok {
		return carrier.NewError(carrierName, carrier.KindInvalidShipmentParameters, apiErr.Description).
			WithStatusCode(apiErr.StatusCode).WithCause(err)
	}

	switch {
	case apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden:
		return carrier.NewError(carrierName, carrier.KindInvalidCredentials, "invalid Purolator credentials").
			WithStatusCode(apiErr.StatusCode).WithCause(err)
	case apiErr.Code == codeInvalidOriginPostal:
		return carrier.NewError(carrierName, carrier.KindInvalidOriginPostalCode, apiErr.Description).
			WithStatusCode(apiErr.StatusCode).WithCause(err)
	default:
		return carrier.NewError(carrierName, carrier.KindTransport, "unexpected Purolator fault").
			WithStatusCode(apiErr.StatusCode).WithCause(err)
	}
}

// serviceNames flattens the catalog into a code-to-name lookup.
func (c *Client) serviceNames() map[string]string {
	names := make(map[string]string)
	for _, group := range c.Services() {
		for _, s := range group.Services {
			names[s.Code] = s.Name
		}
	}
	return names
}

// defaultServiceID picks the estimate seed service for a destination.
func defaultServiceID(countryCode string) string {
	switch countryCode {
	case "", "CA":
		return "PurolatorExpress"
	case "US":
		return "PurolatorExpressU.S."
	default:
		return "PurolatorExpressInternational"
	}
}

func fullName(a carrier.Address) string {
	name := a.FirstName
	if a.LastName != "" {
		if name != "" {
			name += " "
		}
		name += a.LastName
	}
	if name == "" {
		name = a.Company
	}
	return name
}

func packagesToPieces(packages carrier.PackageSet) []Piece {
	pieces := make([]Piece, 0, len(packages))
	for _, pkg := range packages {
		pieces = append(pieces, packageToPiece(pkg))
	}
	return pieces
}

func packageToPiece(pkg carrier.Package) Piece {
	return Piece{
		Weight:        pkg.Weight,
		WeightUnit:    string(pkg.Units.WeightUnit()),
		Length:        pkg.Length,
		Width:         pkg.Width,
		Height:        pkg.Height,
		DimensionUnit: string(pkg.Units.LengthUnit()),
	}
}

func shipFromToParty(from carrier.ShipFrom) Party {
	p := Party{
		Name:       from.Name,
		Company:    from.Company,
		StreetName: from.Address.Line1,
		City:       from.Address.City,
		Province:   from.Address.StateCode,
		PostalCode: from.Address.NormalizedPostal(),
		Country:    from.Address.CountryCode,
	}
	if from.Phone != nil {
		p.Phone = from.Phone.E164()
	}
	return p
}

func shipToToParty(to carrier.ShipTo) Party {
	p := Party{
		Name:       to.Name,
		Company:    to.Company,
		StreetName: to.Address.Line1,
		City:       to.Address.City,
		Province:   to.Address.StateCode,
		PostalCode: to.Address.NormalizedPostal(),
		Country:    to.Address.CountryCode,
	}
	if to.Phone != nil {
		p.Phone = to.Phone.E164()
	}
	return p
}
