// Package fedex provides the FedEx carrier adapter.
package fedex

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

const carrierName = "fedex"

// invalidServiceCode is the FedEx fault returned when the requested service
// does not serve the destination.
const invalidServiceCode = "SELECTED.DESTINATION.SERVICETYPE.INVALID"

// Config holds FedEx adapter configuration.
type Config struct {
	Credentials Credentials
	BaseURL     string
	UseMock     bool
}

// Client is the FedEx carrier.
type Client struct {
	config    Config
	apiClient APIClient
	logger    *otelzap.Logger
	tracer    trace.Tracer
}

// New creates a new FedEx client.
func New(cfg Config, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	var apiClient APIClient
	if cfg.UseMock {
		apiClient = NewMockAPIClient()
	} else {
		apiClient = NewHTTPAPIClient(HTTPAPIClientConfig{
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

// Services returns the FedEx product catalog.
func (c *Client) Services() []carrier.ServiceGroup {
	return []carrier.ServiceGroup{
		{
			Category: "Domestic",
			Services: []carrier.Service{
				{Code: "FEDEX_GROUND", Name: "FedEx Ground"},
				{Code: "FEDEX_EXPRESS_SAVER", Name: "FedEx Express Saver"},
				{Code: "FEDEX_2_DAY", Name: "FedEx 2 Day"},
				{Code: "STANDARD_OVERNIGHT", Name: "FedEx Standard Overnight"},
				{Code: "PRIORITY_OVERNIGHT", Name: "FedEx Priority Overnight"},
			},
		},
		{
			Category: "International",
			Services: []carrier.Service{
				{Code: "INTERNATIONAL_ECONOMY", Name: "FedEx International Economy"},
				{Code: "INTERNATIONAL_PRIORITY", Name: "FedEx International Priority"},
				{Code: "FEDEX_INTERNATIONAL_CONNECT_PLUS", Name: "FedEx International Connect Plus"},
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

// Rate queries FedEx once per package and merges the quotes by service
// code. FedEx prices in pounds and inches regardless of the package's
// declared unit system.
func (c *Client) Rate(ctx context.Context, from, to carrier.Address, packages carrier.PackageSet, service *carrier.Service) (*carrier.RateCollection, error) {
	if err := carrier.CheckEmptyPackages(carrierName, packages); err != nil {
		return nil, err
	}
	if err := carrier.CheckOverweightPackages(carrierName, packages); err != nil {
		return nil, err
	}

	if c.tracer != nil {
		var span trace.Span
		ctx, span = c.tracer.Start(ctx, "fedex.rate")
		defer span.End()
	}

	c.logger.Ctx(ctx).Info("Getting FedEx rates",
		zap.String("origin_postal", from.NormalizedPostal()),
		zap.String("destination_country", to.CountryCode),
		zap.Int("package_count", len(packages)),
	)

	results := carrier.NewRateCollection()
	for _, pkg := range packages {
		length, width, height := pkg.DimensionsIn(carrier.IN)
		apiReq := &RatesRequest{
			AccountNumber: c.config.Credentials.AccountNumber,
			OriginPostal:  from.NormalizedPostal(),
			OriginCountry: from.CountryCode,
			DestPostal:    to.NormalizedPostal(),
			DestCountry:   to.CountryCode,
			Weight:        pkg.WeightIn(carrier.LB),
			Length:        length,
			Width:         width,
			Height:        height,
		}
		if service != nil {
			apiReq.ServiceCode = service.Code
		}

		apiResp, err := c.apiClient.GetRates(ctx, apiReq)
		if err != nil {
			return nil, c.classify(err)
		}

		for _, q := range apiResp.Quotes {
			if service != nil && service.Code != q.ServiceCode {
				continue
			}
			results.Add(&carrier.Rate{
				Service:  carrier.Service{Code: q.ServiceCode, Name: q.ServiceName},
				Price:    decimal.NewFromFloat(q.TotalCharge),
				Currency: q.Currency,
				Meta:     map[string]any{"transit_days": q.TransitDays},
			})
		}
	}

	if service != nil && results.Len() == 0 {
		return nil, carrier.NewError(carrierName, carrier.KindPriceNotFound,
			"price not found for service "+service.Name)
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
		ctx, span = c.tracer.Start(ctx, "fedex.ship")
		defer span.End()
	}

	c.logger.Ctx(ctx).Info("Creating FedEx shipment",
		zap.String("service_code", service.Code),
		zap.Int("package_count", len(packages)),
	)

	shipments := make(carrier.ShipmentCollection, 0, len(packages))
	for _, pkg := range packages {
		length, width, height := pkg.DimensionsIn(carrier.IN)
		apiReq := &ShipmentRequest{
			AccountNumber: c.config.Credentials.AccountNumber,
			ServiceCode:   service.Code,
			Shipper:       shipFromToParty(from),
			Recipient:     shipToToParty(to),
			Weight:        pkg.WeightIn(carrier.LB),
			Length:        length,
			Width:         width,
			Height:        height,
		}
		if customs != nil {
			apiReq.CustomsValue = customs.Amount.StringFixed(2)
			apiReq.CustomsCurrency = customs.Currency
		}

		apiResp, err := c.apiClient.CreateShipment(ctx, apiReq)
		if err != nil {
			return nil, c.classify(err)
		}

		shipments = append(shipments, carrier.Shipment{
			TrackingNumber: apiResp.TrackingNumber,
			LabelData:      apiResp.LabelData,
			LabelFormat:    carrier.LabelFormat(apiResp.LabelFormat),
		})
	}

	if len(shipments) == 0 {
		return nil, carrier.NewError(carrierName, carrier.KindShipmentNotCreated, "unable to create shipment")
	}
	return shipments, nil
}

// classify maps FedEx faults onto the error taxonomy. A 401 means the
// bearer token or the client credentials behind it were rejected, the
// destination-service fault means the chosen service does not exist for the
// lane, other client faults are invalid shipment parameters.
func (c *Client) classify(err error) error {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return carrier.NewError(carrierName, carrier.KindTransport, "fedex call failed").WithCause(err)
	}

	switch {
	case apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden:
		return carrier.NewError(carrierName, carrier.KindInvalidCredentials, "invalid FedEx credentials").
			WithStatusCode(apiErr.StatusCode).WithCause(err)
	case apiErr.Code == invalidServiceCode:
		return carrier.NewError(carrierName, carrier.KindInvalidService, "service not available for destination").
			WithStatusCode(apiErr.StatusCode).WithCause(err)
	case apiErr.Message != "" && apiErr.StatusCode < http.StatusInternalServerError:
		return carrier.NewError(carrierName, carrier.KindInvalidShipmentParameters, apiErr.Message).
			WithStatusCode(apiErr.StatusCode).WithCause(err)
	default:
		return carrier.NewError(carrierName, carrier.KindTransport, "unexpected FedEx fault").
			WithStatusCode(apiErr.StatusCode).WithCause(err)
	}
}

func shipFromToParty(from carrier.ShipFrom) Party {
	p := Party{
		Name:        from.Name,
		Company:     from.Company,
		Line1:       from.Address.Line1,
		Line2:       from.Address.Line2,
		City:        from.Address.City,
		StateCode:   from.Address.StateCode,
		PostalCode:  from.Address.NormalizedPostal(),
		CountryCode: from.Address.CountryCode,
	}
	if from.Phone != nil {
		p.Phone = from.Phone.E164()
	}
	return p
}

func shipToToParty(to carrier.ShipTo) Party {
	p := Party{
		Name:        to.Name,
		Company:     to.Company,
		Line1:       to.Address.Line1,
		Line2:       to.Address.Line2,
		City:        to.Address.City,
		StateCode:   to.Address.StateCode,
		PostalCode:  to.Address.NormalizedPostal(),
		CountryCode: to.Address.CountryCode,
	}
	if to.Phone != nil {
		p.Phone = to.Phone.E164()
	}
	return p
}
