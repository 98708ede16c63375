// Package usps provides the USPS carrier adapter. USPS is rate-only: the
// options search API prices packages, but label purchase goes through a
// separate enrollment flow this gateway does not implement.
package usps

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/parcelgate/shipping/pkg/carrier"
	"github.com/shopspring/decimal"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const carrierName = "usps"

// Config holds USPS adapter configuration.
type Config struct {
	Credentials Credentials
	BaseURL     string
	UseMock     bool
}

// Client is the USPS carrier.
type Client struct {
	config    Config
	apiClient APIClient
	logger    *otelzap.Logger
	tracer    trace.Tracer
}

// New creates a new USPS client.
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

// Services returns the USPS mail class catalog. Live quotes carry a rate
// indicator suffix on these codes.
func (c *Client) Services() []carrier.ServiceGroup {
	return []carrier.ServiceGroup{
		{
			Category: "US",
			Services: []carrier.Service{
				{Code: "PARCEL_SELECT", Name: "Parcel Select"},
				{Code: "USPS_CONNECT_LOCAL", Name: "USPS Connect Local"},
				{Code: "USPS_GROUND_ADVANTAGE", Name: "USPS Ground Advantage"},
				{Code: "PRIORITY_MAIL", Name: "Priority Mail"},
				{Code: "PRIORITY_MAIL_EXPRESS", Name: "Priority Mail Express"},
				{Code: "FIRST-CLASS_PACKAGE_SERVICE", Name: "First-Class Package Service"},
				{Code: "LIBRARY_MAIL", Name: "Library Mail"},
				{Code: "MEDIA_MAIL", Name: "Media Mail"},
				{Code: "BOUND_PRINTED_MATTER", Name: "Bound Printed Matter"},
			},
		},
		{
			Category: "International",
			Services: []carrier.Service{
				{Code: "FIRST-CLASS_PACKAGE_INTERNATIONAL_SERVICE", Name: "First-Class Package International Service"},
				{Code: "PRIORITY_MAIL_INTERNATIONAL", Name: "Priority Mail International"},
				{Code: "PRIORITY_MAIL_EXPRESS_INTERNATIONAL", Name: "Priority Mail Express International"},
				{Code: "GLOBAL_EXPRESS_GUARANTEED", Name: "Global Express Guaranteed"},
			},
		},
	}
}

// CredentialKeys returns the ordered configuration keys.
func (c *Client) CredentialKeys() []string {
	return CredentialKeys()
}

// Rates returns rates for all applicable mail classes.
func (c *Client) Rates(ctx context.Context, from, to carrier.Address, packages carrier.PackageSet) (*carrier.RateCollection, error) {
	return c.Rate(ctx, from, to, packages, nil)
}

// Rate queries USPS once per package and merges the quotes by service
// code. A lane leaving or entering the US from abroad switches the search
// to international mail classes.
func (c *Client) Rate(ctx context.Context, from, to carrier.Address, packages carrier.PackageSet, service *carrier.Service) (*carrier.RateCollection, error) {
	if err := carrier.CheckEmptyPackages(carrierName, packages); err != nil {
		return nil, err
	}
	if err := carrier.CheckOverweightPackages(carrierName, packages); err != nil {
		return nil, err
	}

	if c.tracer != nil {
		var span trace.Span
		ctx, span = c.tracer.Start(ctx, "usps.rate")
		defer span.End()
	}

	c.logger.Ctx(ctx).Info("Getting USPS rates",
		zap.String("origin_zip", from.NormalizedPostal()),
		zap.String("destination_country", to.CountryCode),
		zap.Int("package_count", len(packages)),
	)

	international := (from.CountryCode != "" && from.CountryCode != "US") ||
		(to.CountryCode != "" && to.CountryCode != "US")

	results := carrier.NewRateCollection()
	for _, pkg := range packages {
		length, width, height := pkg.DimensionsIn(carrier.IN)
		apiReq := &RatesRequest{
			OriginZIP:     from.NormalizedPostal(),
			DestZIP:       to.NormalizedPostal(),
			DestCountry:   to.CountryCode,
			Weight:        pkg.WeightIn(carrier.LB),
			Length:        length,
			Width:         width,
			Height:        height,
			International: international,
		}

		apiResp, err := c.apiClient.GetRates(ctx, apiReq)
		if err != nil {
			return nil, c.classify(err)
		}

		for _, q := range apiResp.Quotes {
			if service != nil && !serviceMatches(service.Code, q) {
				continue
			}
			results.Add(&carrier.Rate{
				Service:  carrier.Service{Code: q.ServiceCode, Name: q.ServiceName},
				Price:    decimal.NewFromFloat(q.TotalCharge),
				Currency: "USD",
				Meta: map[string]any{
					"mail_class":     q.MailClass,
					"rate_indicator": q.Indicator,
				},
			})
		}
	}

	if results.Len() == 0 {
		return nil, carrier.NewError(carrierName, carrier.KindPriceNotFound, "price not found")
	}
	return results, nil
}

// Ship reports that USPS labels are not sold through this gateway.
func (c *Client) Ship(ctx context.Context, from carrier.ShipFrom, to carrier.ShipTo, packages carrier.PackageSet, service carrier.Service, customs *carrier.CustomsDeclaration, extra map[string]string) (carrier.ShipmentCollection, error) {
	if err := carrier.CheckEmptyPackages(carrierName, packages); err != nil {
		return nil, err
	}
	return nil, carrier.NewError(carrierName, carrier.KindShipmentNotCreated,
		"usps label purchase is not supported")
}

// serviceMatches accepts either the full quoted code with its rate
// indicator suffix or the bare mail class.
func serviceMatches(code string, q Quote) bool {
	return code == q.ServiceCode || code == q.MailClass
}

// classify maps USPS faults onto the error taxonomy. Token exchange
// failures are credential failures, the no-valid-rates fault is a missing
// price, other client faults are invalid shipment parameters.
func (c *Client) classify(err error) error {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return carrier.NewError(carrierName, carrier.KindTransport, "usps call failed").WithCause(err)
	}

	switch {
	case apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden:
		return carrier.NewError(carrierName, carrier.KindInvalidCredentials, "invalid USPS credentials").
			WithStatusCode(apiErr.StatusCode).WithCause(err)
	case strings.Contains(apiErr.Message, noRatesFragment):
		return carrier.NewError(carrierName, carrier.KindPriceNotFound, "price not found").
			WithStatusCode(apiErr.StatusCode).WithCause(err)
	case apiErr.StatusCode < http.StatusInternalServerError:
		return carrier.NewError(carrierName, carrier.KindInvalidShipmentParameters, apiErr.Message).
			WithStatusCode(apiErr.StatusCode).WithCause(err)
	default:
		return carrier.NewError(carrierName, carrier.KindTransport, "unexpected USPS fault").
			WithStatusCode(apiErr.StatusCode).WithCause(err)
	}
}
