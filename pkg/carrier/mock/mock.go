// Package mock provides a configurable carrier implementation for tests.
package mock

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/parcelgate/shipping/pkg/carrier"
	"github.com/shopspring/decimal"
)

// Client is a test-double carrier. Every network-equivalent operation bumps
// a counter so tests can assert that validation short-circuits before any
// "carrier" work happens.
type Client struct {
	name  string
	rates []carrier.Rate
	err   error

	rateCalls atomic.Int64
	shipCalls atomic.Int64
}

// New creates a mock carrier offering a standard and an express product.
func New(name string) *Client {
	return &Client{
		name: name,
		rates: []carrier.Rate{
			{
				Service:  carrier.Service{Code: name + ".STANDARD", Name: name + " Standard"},
				Price:    decimal.NewFromFloat(12.50),
				Currency: "CAD",
			},
			{
				Service:  carrier.Service{Code: name + ".EXPRESS", Name: name + " Express"},
				Price:    decimal.NewFromFloat(29.95),
				Currency: "CAD",
			},
		},
	}
}

// WithRates replaces the canned per-package rates.
func (c *Client) WithRates(rates ...carrier.Rate) *Client {
	c.rates = rates
	return c
}

// WithError makes every rate/ship call fail after validation.
func (c *Client) WithError(err error) *Client {
	c.err = err
	return c
}

// RateCalls returns how many rate queries reached the fake carrier API.
func (c *Client) RateCalls() int {
	return int(c.rateCalls.Load())
}

// ShipCalls returns how many label purchases reached the fake carrier API.
func (c *Client) ShipCalls() int {
	return int(c.shipCalls.Load())
}

// Name returns the carrier name.
func (c *Client) Name() string {
	return c.name
}

// Services returns the mock product catalog.
func (c *Client) Services() []carrier.ServiceGroup {
	services := make([]carrier.Service, len(c.rates))
	for i, r := range c.rates {
		services[i] = r.Service
	}
	return []carrier.ServiceGroup{{Category: "Mock", Services: services}}
}

// CredentialKeys returns no keys; the mock needs no credentials.
func (c *Client) CredentialKeys() []string {
	return nil
}

// Rates returns rates for all services.
func (c *Client) Rates(ctx context.Context, from, to carrier.Address, packages carrier.PackageSet) (*carrier.RateCollection, error) {
	return c.Rate(ctx, from, to, packages, nil)
}

// Rate prices one canned rate per package per service, merged by code.
func (c *Client) Rate(ctx context.Context, from, to carrier.Address, packages carrier.PackageSet, service *carrier.Service) (*carrier.RateCollection, error) {
	if err := carrier.CheckEmptyPackages(c.name, packages); err != nil {
		return nil, err
	}
	if err := carrier.CheckOverweightPackages(c.name, packages); err != nil {
		return nil, err
	}

	c.rateCalls.Add(1)
	if c.err != nil {
		return nil, c.err
	}

	results := carrier.NewRateCollection()
	for range packages {
		for _, r := range c.rates {
			if service != nil && service.Code != r.Service.Code {
				continue
			}
			results.Add(&carrier.Rate{Service: r.Service, Price: r.Price, Currency: r.Currency})
		}
	}
	if service != nil && results.Len() == 0 {
		return nil, carrier.NewError(c.name, carrier.KindPriceNotFound,
			"price not found for service "+service.Name)
	}
	return results, nil
}

// Ship fabricates one shipment per package.
func (c *Client) Ship(ctx context.Context, from carrier.ShipFrom, to carrier.ShipTo, packages carrier.PackageSet, service carrier.Service, customs *carrier.CustomsDeclaration, extra map[string]string) (carrier.ShipmentCollection, error) {
	if err := carrier.CheckEmptyPackages(c.name, packages); err != nil {
		return nil, err
	}
	if err := carrier.CheckOverweightPackages(c.name, packages); err != nil {
		return nil, err
	}
	if err := carrier.CheckCustomsDeclaration(c.name, from, to, customs); err != nil {
		return nil, err
	}

	c.shipCalls.Add(1)
	if c.err != nil {
		return nil, c.err
	}

	shipments := make(carrier.ShipmentCollection, 0, len(packages))
	for i := range packages {
		shipments = append(shipments, carrier.Shipment{
			TrackingNumber: fmt.Sprintf("%s-%s-%d", c.name, service.Code, i),
			LabelData:      "bW9jayBsYWJlbA==",
			LabelFormat:    carrier.LabelPDF,
			Meta:           map[string]any{"service": service.Code},
		})
	}
	return shipments, nil
}
