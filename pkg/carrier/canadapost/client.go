// Package canadapost provides the Canada Post carrier adapter.
package canadapost

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

const carrierName = "canadapost"

// Config holds Canada Post adapter configuration.
type Config struct {
	Credentials Credentials
	BaseURL     string
	UseMock     bool
}

// Client is the Canada Post carrier.
type Client struct {
	config    Config
	apiClient APIClient
	logger    *otelzap.Logger
	tracer    trace.Tracer
}

// New creates a new Canada Post client.
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

// Services returns the Canada Post product catalog.
func (c *Client) Services() []carrier.ServiceGroup {
	return []carrier.ServiceGroup{
		{
			Category: "Domestic",
			Services: []carrier.Service{
				{Code: "DOM.RP", Name: "Regular Parcel"},
				{Code: "DOM.EP", Name: "Expedited Parcel"},
				{Code: "DOM.XP", Name: "Xpresspost"},
				{Code: "DOM.PC", Name: "Priority"},
			},
		},
		{
			Category: "USA",
			Services: []carrier.Service{
				{Code: "USA.EP", Name: "Expedited Parcel USA"},
				{Code: "USA.SP.AIR", Name: "Small Packet USA Air"},
				{Code: "USA.TP", Name: "Tracked Packet USA"},
				{Code: "USA.XP", Name: "Xpresspost USA"},
			},
		},
		{
			Category: "International",
			Services: []carrier.Service{
				{Code: "INT.XP", Name: "Xpresspost International"},
				{Code: "INT.IP.AIR", Name: "International Parcel Air"},
				{Code: "INT.TP", Name: "Tracked Packet International"},
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

// Rate queries Canada Post once per package and merges the quotes by
// service code, so a multi-package shipment reports one combined price per
// service tier.
func (c *Client) Rate(ctx context.Context, from, to carrier.Address, packages carrier.PackageSet, service *carrier.Service) (*carrier.RateCollection, error) {
	if err := carrier.CheckEmptyPackages(carrierName, packages); err != nil {
		return nil, err
	}
	if err := carrier.CheckOverweightPackages(carrierName, packages); err != nil {
		return nil, err
	}

	if c.tracer != nil {
		var span trace.Span
		ctx, span = c.tracer.Start(ctx, "canadapost.rate")
		defer span.End()
	}

	c.logger.Ctx(ctx).Info("Getting Canada Post rates",
		zap.String("origin_postal", from.NormalizedPostal()),
		zap.String("destination_country", to.CountryCode),
		zap.Int("package_count", len(packages)),
	)

	results := carrier.NewRateCollection()
	for _, pkg := range packages {
		length, width, height := pkg.DimensionsIn(carrier.CM)
		apiReq := &RatesRequest{
			CustomerNumber: c.config.Credentials.CustomerNumber,
			OriginPostal:   from.NormalizedPostal(),
			Weight:         pkg.WeightIn(carrier.KG),
			Dimensions:     Dimensions{Length: length, Width: width, Height: height},
		}
		if to.CountryCode == "" || to.CountryCode == "CA" {
			apiReq.Destination.Domestic = &DomesticDestination{PostalCode: to.NormalizedPostal()}
		} else {
			apiReq.Destination.International = &InternationalDestination{
				CountryCode: to.CountryCode,
				PostalCode:  to.NormalizedPostal(),
			}
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
				Price:    decimal.NewFromFloat(q.TotalPrice),
				Currency: "CAD",
				Meta: map[string]any{
					"transit_days": q.ExpectedTransit,
					"guaranteed":   q.GuaranteedDelivery,
				},
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
		ctx, span = c.tracer.Start(ctx, "canadapost.ship")
		defer span.End()
	}

	c.logger.Ctx(ctx).Info("Creating Canada Post shipment",
		zap.String("service_code", service.Code),
		zap.Int("package_count", len(packages)),
	)

	shipments := make(carrier.ShipmentCollection, 0, len(packages))
	for _, pkg := range packages {
		length, width, height := pkg.DimensionsIn(carrier.CM)
		apiReq := &ShipmentRequest{
			CustomerNumber: c.config.Credentials.CustomerNumber,
			ServiceCode:    service.Code,
			Sender:         shipFromToParty(from),
			Destination:    shipToToParty(to),
			Weight:         pkg.WeightIn(carrier.KG),
			Dimensions:     Dimensions{Length: length, Width: width, Height: height},
		}
		if customs != nil {
			apiReq.CustomsAmount = customs.Amount.StringFixed(2)
			apiReq.CustomsCurrency = customs.Currency
		}

		apiResp, err := c.apiClient.CreateShipment(ctx, apiReq)
		if err != nil {
			return nil, c.classify(err)
		}

		shipments = append(shipments, carrier.Shipment{
			TrackingNumber: apiResp.TrackingPIN,
			LabelData:      apiResp.LabelData,
			LabelFormat:    carrier.LabelFormat(apiResp.LabelFormat),
			Meta:           map[string]any{"shipment_id": apiResp.ShipmentID},
		})
	}

	if len(shipments) == 0 {
		return nil, carrier.NewError(carrierName, carrier.KindShipmentNotCreated, "unable to create shipment")
	}
	return shipments, nil
}

// classify maps Canada Post faults onto the error taxonomy: 401/403 are
// credential failures, other message faults are invalid shipment
// parameters, everything else stays an unclassified transport error.
func (c *Client) classify(err error) error {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return carrier.NewError(carrierName, carrier.KindTransport, "canadapost call failed").WithCause(err)
	}

	switch {
	case apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden:
		return carrier.NewError(carrierName, carrier.KindInvalidCredentials, "invalid Canada Post credentials").
			WithStatusCode(apiErr.StatusCode).WithCause(err)
	case apiErr.Description != "" && apiErr.StatusCode < http.StatusInternalServerError:
		return carrier.NewError(carrierName, carrier.KindInvalidShipmentParameters, apiErr.Description).
			WithStatusCode(apiErr.StatusCode).WithCause(err)
	default:
		return carrier.NewError(carrierName, carrier.KindTransport, "unexpected Canada Post fault").
			WithStatusCode(apiErr.StatusCode).WithCause(err)
	}
}

func shipFromToParty(from carrier.ShipFrom) Party {
	p := Party{
		Name:         from.Name,
		Company:      from.Company,
		AddressLine1: from.Address.Line1,
		AddressLine2: from.Address.Line2,
		City:         from.Address.City,
		Province:     from.Address.StateCode,
		PostalCode:   from.Address.NormalizedPostal(),
		CountryCode:  from.Address.CountryCode,
	}
	if from.Phone != nil {
		p.Phone = from.Phone.E164()
	}
	return p
}

func shipToToParty(to carrier.ShipTo) Party {
	p := Party{
		Name:         to.Name,
		Company:      to.Company,
		AddressLine1: to.Address.Line1,
		AddressLine2: to.Address.Line2,
		City:         to.Address.City,
		Province:     to.Address.StateCode,
		PostalCode:   to.Address.NormalizedPostal(),
		CountryCode:  to.Address.CountryCode,
	}
	if to.Phone != nil {
		p.Phone = to.Phone.E164()
	}
	return p
}
