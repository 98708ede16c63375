package carrier_test

import (
	"testing"

	"github.com/parcelgate/shipping/pkg/carrier"
	"github.com/stretchr/testify/assert"
)

func TestConvertWeight(t *testing.T) {
	assert.InDelta(t, 2.20462, carrier.ConvertWeight(1, carrier.KG, carrier.LB), 0.001)
	assert.InDelta(t, 0.45359, carrier.ConvertWeight(1, carrier.LB, carrier.KG), 0.001)
	assert.Equal(t, 5.0, carrier.ConvertWeight(5, carrier.KG, carrier.KG))

	roundTrip := carrier.ConvertWeight(carrier.ConvertWeight(7.5, carrier.KG, carrier.LB), carrier.LB, carrier.KG)
	assert.InDelta(t, 7.5, roundTrip, 0.0075)
}

func TestConvertLength(t *testing.T) {
	assert.InDelta(t, 0.3937, carrier.ConvertLength(1, carrier.CM, carrier.IN), 0.001)
	assert.InDelta(t, 2.54, carrier.ConvertLength(1, carrier.IN, carrier.CM), 0.001)
	assert.Equal(t, 30.0, carrier.ConvertLength(30, carrier.CM, carrier.CM))
}

func TestAddress_NormalizedPostal(t *testing.T) {
	a := carrier.Address{PostalCode: " M5V 1A1 "}
	assert.Equal(t, "M5V1A1", a.NormalizedPostal())

	a = carrier.Address{PostalCode: "90210"}
	assert.Equal(t, "90210", a.NormalizedPostal())
}

func TestAddress_SetPostalCode(t *testing.T) {
	var a carrier.Address
	a.SetPostalCode(" V6B 1A1 ")
	assert.Equal(t, "V6B1A1", a.PostalCode)
}

func TestPhone_E164(t *testing.T) {
	p := carrier.Phone{CountryCode: "1", AreaCode: "416", Number: "555-0199"}
	assert.Equal(t, "+14165550199", p.E164())

	p = carrier.Phone{AreaCode: "(416)", Number: "555 0199"}
	assert.Equal(t, "4165550199", p.E164())
}

func TestPackage_Volume(t *testing.T) {
	pkg := carrier.NewMetricPackage(10.1, 10.1, 10.1, 1, 0)
	assert.Equal(t, 1030.3, pkg.Volume())

	pkg = carrier.NewMetricPackage(20, 10, 5, 1, 0)
	assert.Equal(t, 1000.0, pkg.Volume())
}

func TestPackage_IsOverweight(t *testing.T) {
	unbounded := carrier.NewMetricPackage(10, 10, 10, 9999, 0)
	assert.False(t, unbounded.IsOverweight())

	bounded := carrier.NewMetricPackage(10, 10, 10, 5, 4)
	assert.True(t, bounded.IsOverweight())

	atLimit := carrier.NewMetricPackage(10, 10, 10, 4, 4)
	assert.False(t, atLimit.IsOverweight())
}

func TestPackage_WeightIn(t *testing.T) {
	metric := carrier.NewMetricPackage(10, 10, 10, 2, 0)
	assert.Equal(t, 2.0, metric.WeightIn(carrier.KG))
	assert.InDelta(t, 4.409, metric.WeightIn(carrier.LB), 0.001)

	imperial := carrier.NewImperialPackage(10, 10, 10, 2, 0)
	assert.Equal(t, 2.0, imperial.WeightIn(carrier.LB))
	assert.InDelta(t, 0.907, imperial.WeightIn(carrier.KG), 0.001)
}

func TestPackage_DimensionsIn(t *testing.T) {
	metric := carrier.NewMetricPackage(25.4, 50.8, 76.2, 1, 0)
	l, w, h := metric.DimensionsIn(carrier.IN)
	assert.InDelta(t, 10, l, 0.001)
	assert.InDelta(t, 20, w, 0.001)
	assert.InDelta(t, 30, h, 0.001)

	l, w, h = metric.DimensionsIn(carrier.CM)
	assert.Equal(t, 25.4, l)
	assert.Equal(t, 50.8, w)
	assert.Equal(t, 76.2, h)
}

func TestPackageSet_Weight(t *testing.T) {
	set := carrier.PackageSet{
		carrier.NewMetricPackage(10, 10, 10, 1.5, 0),
		carrier.NewMetricPackage(10, 10, 10, 2.5, 0),
	}
	assert.Equal(t, 4.0, set.Weight())
	assert.Equal(t, carrier.KG, set.WeightUnit())

	empty := carrier.PackageSet{}
	assert.Equal(t, 0.0, empty.Weight())
	assert.Equal(t, carrier.KG, empty.WeightUnit())
}

func TestPackage_String(t *testing.T) {
	pkg := carrier.NewMetricPackage(20, 10, 5.5, 1, 0)
	assert.Equal(t, "20x10x5.5", pkg.String())
}
