// Package carrier provides the abstraction layer that makes heterogeneous
// shipping carriers interchangeable: a common provider contract, canonical
// rate and shipment models, shared input validation, an error taxonomy, and
// a multi-carrier aggregation gateway.
package carrier

import (
	"context"
)

// Carrier defines the contract that every shipping carrier adapter must
// implement. Adapters translate between these canonical models and one
// carrier's wire protocol.
type Carrier interface {
	// Name returns the carrier identifier (e.g., "canadapost", "fedex", "flat").
	Name() string

	// Services returns the carrier's product catalog, grouped by
	// sub-category. Purely descriptive; no network calls.
	Services() []ServiceGroup

	// CredentialKeys returns the ordered configuration keys this carrier's
	// credentials are built from. Static metadata; no network calls.
	CredentialKeys() []string

	// Rates returns all applicable rates for the shipment. Equivalent to
	// Rate with a nil service filter. Safe to retry.
	Rates(ctx context.Context, from, to Address, packages PackageSet) (*RateCollection, error)

	// Rate queries the carrier for one rate per package and returns the
	// merged collection, optionally filtered to a single service. A non-nil
	// service with no matching rate fails with a PriceNotFound error.
	Rate(ctx context.Context, from, to Address, packages PackageSet, service *Service) (*RateCollection, error)

	// Ship purchases one label per package and returns one Shipment per
	// label created. Not idempotent: calling twice buys two sets of labels.
	// Cross-border shipments require a customs declaration.
	Ship(ctx context.Context, from ShipFrom, to ShipTo, packages PackageSet, service Service, customs *CustomsDeclaration, extra map[string]string) (ShipmentCollection, error)
}
