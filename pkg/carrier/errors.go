package carrier

import (
	"errors"
	"fmt"
)

// Kind classifies a carrier failure. Adapters map carrier-specific fault
// codes (HTTP status, SOAP fault, vendor error code) onto these kinds; the
// gateway interprets only the kind, never transport detail.
type Kind string

const (
	KindEmptyPackages             Kind = "EMPTY_PACKAGES"
	KindOverweightPackage         Kind = "OVERWEIGHT_PACKAGE"
	KindInvalidCredentials        Kind = "INVALID_CREDENTIALS"
	KindInvalidShipmentParameters Kind = "INVALID_SHIPMENT_PARAMETERS"
	KindInvalidService            Kind = "INVALID_SERVICE"
	KindInvalidAddress            Kind = "INVALID_ADDRESS"
	KindInvalidOriginPostalCode   Kind = "INVALID_ORIGIN_POSTAL_CODE"
	KindPriceNotFound             Kind = "PRICE_NOT_FOUND"
	KindShipmentNotCreated        Kind = "SHIPMENT_NOT_CREATED"
	KindCustomsDeclarationMissing Kind = "CUSTOMS_DECLARATION_MISSING"

	// KindTransport is the fallback for faults with no specific mapping.
	// Such faults are re-raised with their cause attached, never swallowed.
	KindTransport Kind = "TRANSPORT"
)

// Error is a classified failure from a carrier adapter.
type Error struct {
	Carrier    string
	Kind       Kind
	Message    string
	StatusCode int
	Cause      error
}

// NewError creates a classified carrier error.
func NewError(name string, kind Kind, message string) *Error {
	return &Error{Carrier: name, Kind: kind, Message: message}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s error (%s): %s: %v", e.Carrier, e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s error (%s): %s", e.Carrier, e.Kind, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches another *Error by kind, so errors.Is can be used with a
// kind-only probe regardless of carrier or message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// WithCause attaches the underlying fault.
func (e *Error) WithCause(err error) *Error {
	e.Cause = err
	return e
}

// WithStatusCode attaches the HTTP status of the failed call.
func (e *Error) WithStatusCode(code int) *Error {
	e.StatusCode = code
	return e
}

// ErrCarrierNotFound indicates the requested carrier is not registered.
var ErrCarrierNotFound = errors.New("carrier not found")

// AsError unwraps err to a carrier *Error, if it is one.
func AsError(err error) (*Error, bool) {
	var ce *Error
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// KindOf returns the classified kind of err, or "" if err is not a
// carrier error.
func KindOf(err error) Kind {
	if ce, ok := AsError(err); ok {
		return ce.Kind
	}
	return ""
}

// IsKind reports whether err is a carrier error of the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// IsRetryable reports whether the failure may be transient. Only
// unclassified transport faults qualify; PriceNotFound and
// ShipmentNotCreated are terminal "no result" signals.
func IsRetryable(err error) bool {
	return IsKind(err, KindTransport)
}
