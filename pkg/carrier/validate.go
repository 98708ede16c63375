package carrier

import (
	"fmt"
)

// Shared preconditions run by every adapter before any network call. They
// short-circuit locally: no partial success, no retry, no I/O cost.

// CheckEmptyPackages fails with an EmptyPackages error when the set has no
// members.
func CheckEmptyPackages(name string, packages PackageSet) error {
	if len(packages) == 0 {
		return NewError(name, KindEmptyPackages, "you must provide packages in order to get shipment rates")
	}
	return nil
}

// CheckOverweightPackages fails with an OverweightPackage error naming the
// first offending package and its maximum weight.
func CheckOverweightPackages(name string, packages PackageSet) error {
	for _, p := range packages {
		if p.IsOverweight() {
			return NewError(name, KindOverweightPackage,
				fmt.Sprintf("maximum weight for package %s is %g", p, p.MaxWeight))
		}
	}
	return nil
}

// CheckCustomsDeclaration fails with a CustomsDeclarationMissing error when
// the origin and destination countries differ and no declaration was
// supplied. Enforced by Ship only.
func CheckCustomsDeclaration(name string, from ShipFrom, to ShipTo, customs *CustomsDeclaration) error {
	if from.Address.CountryCode != to.Address.CountryCode && customs == nil {
		return NewError(name, KindCustomsDeclarationMissing, "missing customs declaration")
	}
	return nil
}
