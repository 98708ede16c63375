package carrier_test

import (
	"testing"

	"github.com/parcelgate/shipping/pkg/carrier"
	"github.com/parcelgate/shipping/pkg/carrier/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RegistrationOrder(t *testing.T) {
	r := carrier.NewRegistry()
	r.Register(mock.New("alpha"))
	r.Register(mock.New("beta"))
	r.Register(mock.New("gamma"))

	assert.Equal(t, []string{"alpha", "beta", "gamma"}, r.Names())
	assert.Equal(t, 3, r.Count())

	all := r.All()
	require.Len(t, all, 3)
	assert.Equal(t, "alpha", all[0].Name())
}

func TestRegistry_ReRegisterKeepsPosition(t *testing.T) {
	r := carrier.NewRegistry()
	r.Register(mock.New("alpha"))
	r.Register(mock.New("beta"))

	replacement := mock.New("alpha").WithRates(carrier.Rate{
		Service: carrier.Service{Code: "alpha.NEW", Name: "New"},
	})
	r.Register(replacement)

	assert.Equal(t, []string{"alpha", "beta"}, r.Names())
	got, err := r.Get("alpha")
	require.NoError(t, err)
	assert.Equal(t, "alpha.NEW", got.Services()[0].Services[0].Code)
}

func TestRegistry_GetUnknown(t *testing.T) {
	r := carrier.NewRegistry()
	_, err := r.Get("nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, carrier.ErrCarrierNotFound)
}
