// Package flat implements the internal flat-rate carrier. Prices come from
// the cataloged box sizes and price table instead of an external API.
package flat

import (
	"context"
	"errors"
	"fmt"

	"github.com/parcelgate/shipping/internal/catalog"
	"github.com/parcelgate/shipping/pkg/carrier"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const carrierName = "flat"

// Service codes offered by the flat carrier.
const (
	CodeFreePickup = "INTERNAL.FREE.PICKUP"
	CodeFlat       = "INTERNAL.FLAT"
)

// Config holds flat carrier configuration.
type Config struct {
	// Currency stamped on every flat rate. Defaults to CAD.
	Currency string
}

// Client is the flat-rate carrier.
type Client struct {
	config Config
	store  catalog.Store
	logger *otelzap.Logger
	tracer trace.Tracer
}

// New creates a flat carrier over the given catalog store.
func New(cfg Config, store catalog.Store, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	if cfg.Currency == "" {
		cfg.Currency = "CAD"
	}
	return &Client{config: cfg, store: store, logger: logger, tracer: tracer}
}

// Name returns the carrier name.
func (c *Client) Name() string {
	return carrierName
}

// Services returns the two internal products.
func (c *Client) Services() []carrier.ServiceGroup {
	return []carrier.ServiceGroup{
		{
			Category: "Internal",
			Services: []carrier.Service{
				{Code: CodeFreePickup, Name: "Free Pickup"},
				{Code: CodeFlat, Name: "Flat Shipping"},
			},
		},
	}
}

// CredentialKeys returns no keys; the flat carrier has no credentials.
func (c *Client) CredentialKeys() []string {
	return nil
}

// Rates returns flat rates for all services.
func (c *Client) Rates(ctx context.Context, from, to carrier.Address, packages carrier.PackageSet) (*carrier.RateCollection, error) {
	return c.Rate(ctx, from, to, packages, nil)
}

// Rate prices each package against the box catalog: every package must
// match a cataloged box size exactly and stay under that box's weight
// limit. Prices for the same service are summed across packages.
func (c *Client) Rate(ctx context.Context, from, to carrier.Address, packages carrier.PackageSet, service *carrier.Service) (*carrier.RateCollection, error) {
	if err := carrier.CheckEmptyPackages(carrierName, packages); err != nil {
		return nil, err
	}
	if err := carrier.CheckOverweightPackages(carrierName, packages); err != nil {
		return nil, err
	}

	if c.tracer != nil {
		var span trace.Span
		ctx, span = c.tracer.Start(ctx, "flat.rate")
		defer span.End()
	}

	results := carrier.NewRateCollection()
	for _, group := range c.Services() {
		for _, s := range group.Services {
			if service != nil && service.Code != s.Code {
				continue
			}

			for _, pkg := range packages {
				box, err := c.store.FindBox(ctx, pkg.Length, pkg.Width, pkg.Height)
				if err != nil {
					if errors.Is(err, catalog.ErrBoxNotFound) {
						return nil, carrier.NewError(carrierName, carrier.KindInvalidShipmentParameters,
							fmt.Sprintf("package %s does not match a cataloged box size", pkg))
					}
					return nil, carrier.NewError(carrierName, carrier.KindTransport, "catalog lookup failed").WithCause(err)
				}

				if box.MaxWeight > 0 && pkg.Weight > box.MaxWeight {
					return nil, carrier.NewError(carrierName, carrier.KindOverweightPackage,
						fmt.Sprintf("maximum weight for package %s is %g", pkg, box.MaxWeight))
				}

				price, err := c.store.PriceFor(ctx, s.Code, box.ID)
				if err != nil {
					if errors.Is(err, catalog.ErrPriceNotFound) {
						continue
					}
					return nil, carrier.NewError(carrierName, carrier.KindTransport, "catalog lookup failed").WithCause(err)
				}

				results.Add(&carrier.Rate{
					Service:  s,
					Price:    price,
					Currency: c.config.Currency,
				})
			}
		}
	}

	if service != nil && results.Len() == 0 {
		return nil, carrier.NewError(carrierName, carrier.KindPriceNotFound,
			"price not found for service "+service.Name)
	}

	c.logger.Ctx(ctx).Debug("Flat rates computed",
		zap.Int("package_count", len(packages)),
		zap.Int("rate_count", results.Len()),
	)
	return results, nil
}

// Ship is not offered by the flat carrier; pickups are arranged outside
// the label workflow.
func (c *Client) Ship(ctx context.Context, from carrier.ShipFrom, to carrier.ShipTo, packages carrier.PackageSet, service carrier.Service, customs *carrier.CustomsDeclaration, extra map[string]string) (carrier.ShipmentCollection, error) {
	return nil, carrier.NewError(carrierName, carrier.KindShipmentNotCreated, "flat carrier does not purchase labels")
}
