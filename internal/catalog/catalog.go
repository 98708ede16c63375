// Package catalog holds the persisted shipping configuration the gateway
// consumes: which carriers are enabled, the cataloged box sizes, and the
// flat-rate price table.
package catalog

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrBoxNotFound indicates no cataloged box matches the dimensions.
	ErrBoxNotFound = errors.New("box not found")

	// ErrPriceNotFound indicates no price row exists for (service, box).
	ErrPriceNotFound = errors.New("price not found")
)

// Box is one cataloged box size with its weight limit.
type Box struct {
	ID        string
	Length    float64
	Width     float64
	Height    float64
	MaxWeight float64
}

// Store resolves enablement and flat-rate pricing. Implementations must be
// safe for concurrent use.
type Store interface {
	// EnabledCarriers returns the ordered identifiers of enabled carriers.
	// The order drives registry registration order.
	EnabledCarriers(ctx context.Context) ([]string, error)

	// FindBox resolves a cataloged box by exact dimensions.
	FindBox(ctx context.Context, length, width, height float64) (Box, error)

	// PriceFor returns the flat price for a service code and box.
	PriceFor(ctx context.Context, serviceCode, boxID string) (decimal.Decimal, error)
}
