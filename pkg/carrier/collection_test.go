package carrier_test

import (
	"testing"

	"github.com/parcelgate/shipping/pkg/carrier"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rate(code string, price float64) *carrier.Rate {
	return &carrier.Rate{
		Service:  carrier.Service{Code: code, Name: code},
		Price:    decimal.NewFromFloat(price),
		Currency: "CAD",
	}
}

func TestRateCollection_AddMergesByServiceCode(t *testing.T) {
	c := carrier.NewRateCollection()
	c.Add(rate("DOM.RP", 10.00))
	c.Add(rate("DOM.XP", 20.00))
	c.Add(rate("DOM.RP", 12.50))

	require.Equal(t, 2, c.Len())

	first, ok := c.Find("DOM.RP")
	require.True(t, ok)
	assert.Equal(t, "22.5", first.Price.String())

	// Merged entry keeps its first-appearance position.
	assert.Equal(t, "DOM.RP", c.Rates()[0].Service.Code)
	assert.Equal(t, "DOM.XP", c.Rates()[1].Service.Code)
}

func TestRateCollection_Merge(t *testing.T) {
	a := carrier.NewRateCollection(rate("A", 1), rate("B", 2))
	b := carrier.NewRateCollection(rate("B", 3), rate("C", 4))

	a.Merge(b)

	require.Equal(t, 3, a.Len())
	bRate, _ := a.Find("B")
	assert.Equal(t, "5", bRate.Price.String())
	assert.Equal(t, "C", a.Rates()[2].Service.Code)
}

func TestRateCollection_MergeNil(t *testing.T) {
	a := carrier.NewRateCollection(rate("A", 1))
	a.Merge(nil)
	assert.Equal(t, 1, a.Len())
}

func TestRateCollection_Find(t *testing.T) {
	c := carrier.NewRateCollection(rate("A", 1))

	_, ok := c.Find("MISSING")
	assert.False(t, ok)

	r, ok := c.Find("A")
	require.True(t, ok)
	assert.Equal(t, "A", r.Service.Code)
}
