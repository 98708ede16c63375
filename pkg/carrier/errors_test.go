package carrier_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/parcelgate/shipping/pkg/carrier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_KindMatching(t *testing.T) {
	err := carrier.NewError("canadapost", carrier.KindInvalidCredentials, "bad key")

	assert.True(t, carrier.IsKind(err, carrier.KindInvalidCredentials))
	assert.False(t, carrier.IsKind(err, carrier.KindTransport))
	assert.Equal(t, carrier.KindInvalidCredentials, carrier.KindOf(err))
}

func TestError_WrappedKindMatching(t *testing.T) {
	inner := carrier.NewError("fedex", carrier.KindPriceNotFound, "nothing priced")
	wrapped := fmt.Errorf("rate call: %w", inner)

	assert.True(t, carrier.IsKind(wrapped, carrier.KindPriceNotFound))

	ce, ok := carrier.AsError(wrapped)
	require.True(t, ok)
	assert.Equal(t, "fedex", ce.Carrier)
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := carrier.NewError("usps", carrier.KindTransport, "call failed").WithCause(cause)

	assert.ErrorIs(t, err, cause)
}

func TestError_WithStatusCode(t *testing.T) {
	err := carrier.NewError("purolator", carrier.KindInvalidCredentials, "unauthorized").WithStatusCode(401)
	assert.Equal(t, 401, err.StatusCode)
}

func TestError_Message(t *testing.T) {
	err := carrier.NewError("flat", carrier.KindEmptyPackages, "no packages")
	assert.Contains(t, err.Error(), "flat")
	assert.Contains(t, err.Error(), "EMPTY_PACKAGES")
	assert.Contains(t, err.Error(), "no packages")
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, carrier.IsRetryable(carrier.NewError("x", carrier.KindTransport, "timeout")))
	assert.False(t, carrier.IsRetryable(carrier.NewError("x", carrier.KindPriceNotFound, "none")))
	assert.False(t, carrier.IsRetryable(carrier.NewError("x", carrier.KindInvalidCredentials, "nope")))
	assert.False(t, carrier.IsRetryable(errors.New("plain")))
}

func TestAsError_NonCarrierError(t *testing.T) {
	_, ok := carrier.AsError(errors.New("plain"))
	assert.False(t, ok)
	assert.Equal(t, carrier.Kind(""), carrier.KindOf(errors.New("plain")))
}
