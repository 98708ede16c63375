package carrier

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// UnitSystem selects the measurement units a package is described in.
type UnitSystem string

const (
	Metric   UnitSystem = "metric"   // cm / kg
	Imperial UnitSystem = "imperial" // in / lb
)

// WeightUnit represents a weight measurement unit.
type WeightUnit string

const (
	KG WeightUnit = "kg"
	LB WeightUnit = "lb"
)

// LengthUnit represents a dimension measurement unit.
type LengthUnit string

const (
	CM LengthUnit = "cm"
	IN LengthUnit = "in"
)

// LabelFormat represents the encoding of a shipping label.
type LabelFormat string

const (
	LabelPDF LabelFormat = "pdf"
	LabelPNG LabelFormat = "png"
	LabelZPL LabelFormat = "zpl"
)

const (
	kgPerLB = 1.0 / 2.20462262185
	cmPerIN = 2.54
)

// WeightUnit returns the weight unit of the system.
func (u UnitSystem) WeightUnit() WeightUnit {
	if u == Imperial {
		return LB
	}
	return KG
}

// LengthUnit returns the dimension unit of the system.
func (u UnitSystem) LengthUnit() LengthUnit {
	if u == Imperial {
		return IN
	}
	return CM
}

// ConvertWeight converts a weight value between units. Round-tripping a
// value is stable within 1e-3 relative tolerance.
func ConvertWeight(v float64, from, to WeightUnit) float64 {
	if from == to {
		return v
	}
	if from == KG && to == LB {
		return v / kgPerLB
	}
	return v * kgPerLB
}

// ConvertLength converts a dimension value between units.
func ConvertLength(v float64, from, to LengthUnit) float64 {
	if from == to {
		return v
	}
	if from == CM && to == IN {
		return v / cmPerIN
	}
	return v * cmPerIN
}

// Address is a postal address used for rating and shipping.
type Address struct {
	FirstName   string
	LastName    string
	Company     string
	Line1       string
	Line2       string
	City        string
	PostalCode  string
	StateCode   string // state/province code, e.g. "ON", "NY"
	CountryCode string // ISO 3166-1 alpha-2, e.g. "CA", "US"
}

// NewAddress returns an Address with the postal code pre-normalized.
func NewAddress(firstName, lastName, company, line1, line2, city, postalCode, stateCode, countryCode string) Address {
	a := Address{
		FirstName:   firstName,
		LastName:    lastName,
		Company:     company,
		Line1:       line1,
		Line2:       line2,
		City:        city,
		PostalCode:  postalCode,
		StateCode:   stateCode,
		CountryCode: countryCode,
	}
	a.PostalCode = a.NormalizedPostal()
	return a
}

// NormalizedPostal returns the postal code with all whitespace removed.
// Normalizing an already-normalized code is a no-op.
func (a Address) NormalizedPostal() string {
	return strings.Join(strings.Fields(a.PostalCode), "")
}

// SetPostalCode replaces the postal code, normalizing it.
func (a *Address) SetPostalCode(code string) {
	a.PostalCode = code
	a.PostalCode = a.NormalizedPostal()
}

// Phone holds the parts of a phone number. The canonical form is derived,
// never stored.
type Phone struct {
	CountryCode string
	AreaCode    string
	Number      string
	Extension   string
}

// E164 derives an E.164-like string: non-digits stripped, parts
// concatenated, "+" prefixed when a country code is present.
func (p Phone) E164() string {
	var b strings.Builder
	if p.CountryCode != "" {
		b.WriteByte('+')
		b.WriteString(digitsOnly(p.CountryCode))
	}
	b.WriteString(digitsOnly(p.AreaCode))
	b.WriteString(digitsOnly(p.Number))
	return b.String()
}

func (p Phone) String() string {
	return p.E164()
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Package is a box to be shipped. MaxWeight of 0 means unbounded.
type Package struct {
	Length    float64
	Width     float64
	Height    float64
	Weight    float64
	MaxWeight float64
	Units     UnitSystem
}

// NewMetricPackage returns a Package measured in cm/kg.
func NewMetricPackage(length, width, height, weight, maxWeight float64) Package {
	return Package{Length: length, Width: width, Height: height, Weight: weight, MaxWeight: maxWeight, Units: Metric}
}

// NewImperialPackage returns a Package measured in in/lb.
func NewImperialPackage(length, width, height, weight, maxWeight float64) Package {
	return Package{Length: length, Width: width, Height: height, Weight: weight, MaxWeight: maxWeight, Units: Imperial}
}

// Volume returns length*width*height rounded to 2 decimals.
func (p Package) Volume() float64 {
	return math.Round(p.Length*p.Width*p.Height*100) / 100
}

// IsOverweight reports whether the package's own weight exceeds its
// MaxWeight. A MaxWeight of 0 never flags.
func (p Package) IsOverweight() bool {
	return p.IsOverweightAt(p.Weight)
}

// IsOverweightAt reports whether the supplied weight exceeds MaxWeight.
func (p Package) IsOverweightAt(weight float64) bool {
	if p.MaxWeight == 0 {
		return false
	}
	return weight > p.MaxWeight
}

// WeightIn returns the package weight converted to the given unit.
func (p Package) WeightIn(unit WeightUnit) float64 {
	return ConvertWeight(p.Weight, p.Units.WeightUnit(), unit)
}

// DimensionsIn returns the package dimensions converted to the given unit.
func (p Package) DimensionsIn(unit LengthUnit) (length, width, height float64) {
	from := p.Units.LengthUnit()
	return ConvertLength(p.Length, from, unit),
		ConvertLength(p.Width, from, unit),
		ConvertLength(p.Height, from, unit)
}

func (p Package) String() string {
	return fmt.Sprintf("%gx%gx%g", p.Length, p.Width, p.Height)
}

// PackageSet is an ordered collection of packages.
type PackageSet []Package

// Weight returns the sum of the member weights.
func (s PackageSet) Weight() float64 {
	var total float64
	for _, p := range s {
		total += p.Weight
	}
	return total
}

// WeightUnit returns the unit of the first member; kg for an empty set.
func (s PackageSet) WeightUnit() WeightUnit {
	if len(s) == 0 {
		return KG
	}
	return s[0].Units.WeightUnit()
}

// ShipFrom describes the shipment origin party. A zero ShipDate means the
// carrier default (next business day).
type ShipFrom struct {
	Name          string
	AttentionName string
	Address       Address
	Phone         *Phone
	Email         string
	ShipDate      time.Time
	Company       string
}

// ShipTo describes the shipment destination party.
type ShipTo struct {
	Name          string
	AttentionName string
	Address       Address
	Phone         *Phone
	Email         string
	Company       string
}

// CustomsDeclaration carries the declared value for cross-border shipments
// plus carrier-specific extra fields.
type CustomsDeclaration struct {
	Amount   decimal.Decimal
	Currency string
	Extra    map[string]string
}

// Service identifies one carrier product tier. Codes are carrier-defined
// and opaque to this package.
type Service struct {
	Code string
	Name string
}

// ServiceGroup is an ordered set of services under one sub-category
// (e.g. "Domestic", "International").
type ServiceGroup struct {
	Category string
	Services []Service
}

// Rate is a priced service offering. Price is mutated in place only by
// RateCollection's merge.
type Rate struct {
	Service  Service
	Price    decimal.Decimal
	Currency string
	Meta     map[string]any
}

// Shipment is one purchased label. Immutable after creation.
type Shipment struct {
	TrackingNumber string
	LabelData      string // base64-encoded label body
	LabelFormat    LabelFormat
	Meta           map[string]any
}

// ShipmentCollection is an ordered list of shipments, one per label bought.
type ShipmentCollection []Shipment
