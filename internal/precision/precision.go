// Package precision implements named decimal precision profiles. Values are
// rounded half away from zero on their decimal representation, so 0.1+0.2
// compares equal to 0.3 at any reasonable number of digits.
package precision

import (
	"github.com/piwi3910/FilmBoM/internal/model"
	"github.com/shopspring/decimal"
)

// Profile names a configured number of decimal digits.
type Profile string

const (
	Concentration Profile = "concentration"
	Single        Profile = "single"
	Double        Profile = "double"
	Triple        Profile = "triple"
	Quadruple     Profile = "quadruple"
	ProductUoM    Profile = "product_uom"
)

// Config resolves profiles to digits. The zero value rounds everything to
// whole numbers.
type Config struct {
	digits map[Profile]int
}

// New builds a Config from persisted settings.
func New(s model.PrecisionSettings) Config {
	return Config{digits: map[Profile]int{
		Concentration: s.Concentration,
		Single:        s.Single,
		Double:        s.Double,
		Triple:        s.Triple,
		Quadruple:     s.Quadruple,
		ProductUoM:    s.ProductUoM,
	}}
}

// Default returns the Config for model.DefaultPrecisionSettings.
func Default() Config {
	return New(model.DefaultPrecisionSettings())
}

// Digits returns the number of decimal digits of a profile.
func (c Config) Digits(p Profile) int {
	return c.digits[p]
}

// Round rounds v to the digits of profile p.
func (c Config) Round(p Profile, v float64) float64 {
	return RoundTo(v, c.Digits(p))
}

// Compare rounds both values to profile p and returns -1, 0 or 1.
func (c Config) Compare(p Profile, a, b float64) int {
	d := int32(c.Digits(p))
	return decimal.NewFromFloat(a).Round(d).Cmp(decimal.NewFromFloat(b).Round(d))
}

// Equal reports whether a and b are equal once rounded to profile p.
func (c Config) Equal(p Profile, a, b float64) bool {
	return c.Compare(p, a, b) == 0
}

// Sum adds values exactly and rounds the total to profile p.
func (c Config) Sum(p Profile, values ...float64) float64 {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(decimal.NewFromFloat(v))
	}
	return total.Round(int32(c.Digits(p))).InexactFloat64()
}

// RoundTo rounds v to the given number of decimal digits.
func RoundTo(v float64, digits int) float64 {
	return decimal.NewFromFloat(v).Round(int32(digits)).InexactFloat64()
}

// Format renders v with exactly the digits of profile p.
func (c Config) Format(p Profile, v float64) string {
	return decimal.NewFromFloat(v).StringFixed(int32(c.Digits(p)))
}
