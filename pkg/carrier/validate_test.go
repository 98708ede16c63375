package carrier_test

import (
	"testing"

	"github.com/parcelgate/shipping/pkg/carrier"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckEmptyPackages(t *testing.T) {
	err := carrier.CheckEmptyPackages("canadapost", nil)
	require.Error(t, err)
	assert.True(t, carrier.IsKind(err, carrier.KindEmptyPackages))

	err = carrier.CheckEmptyPackages("canadapost", carrier.PackageSet{
		carrier.NewMetricPackage(10, 10, 10, 1, 0),
	})
	assert.NoError(t, err)
}

func TestCheckOverweightPackages(t *testing.T) {
	packages := carrier.PackageSet{
		carrier.NewMetricPackage(10, 10, 10, 1, 5),
		carrier.NewMetricPackage(20, 10, 5, 9, 5),
	}

	err := carrier.CheckOverweightPackages("canadapost", packages)
	require.Error(t, err)
	assert.True(t, carrier.IsKind(err, carrier.KindOverweightPackage))
	assert.Contains(t, err.Error(), "maximum weight for package 20x10x5 is 5")

	// Unbounded packages never flag.
	err = carrier.CheckOverweightPackages("canadapost", carrier.PackageSet{
		carrier.NewMetricPackage(10, 10, 10, 500, 0),
	})
	assert.NoError(t, err)
}

func TestCheckCustomsDeclaration(t *testing.T) {
	domesticFrom := carrier.ShipFrom{Address: carrier.Address{CountryCode: "CA"}}
	domesticTo := carrier.ShipTo{Address: carrier.Address{CountryCode: "CA"}}
	foreignTo := carrier.ShipTo{Address: carrier.Address{CountryCode: "US"}}

	assert.NoError(t, carrier.CheckCustomsDeclaration("fedex", domesticFrom, domesticTo, nil))

	err := carrier.CheckCustomsDeclaration("fedex", domesticFrom, foreignTo, nil)
	require.Error(t, err)
	assert.True(t, carrier.IsKind(err, carrier.KindCustomsDeclarationMissing))

	customs := &carrier.CustomsDeclaration{Amount: decimal.NewFromInt(100), Currency: "CAD"}
	assert.NoError(t, carrier.CheckCustomsDeclaration("fedex", domesticFrom, foreignTo, customs))
}
