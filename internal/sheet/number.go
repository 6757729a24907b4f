package sheet

import (
	"strings"

	"github.com/shopspring/decimal"
)

// MaxExponent bounds the decimal exponent of parsed numbers. Formatting a
// decimal writes out every digit, so "1e300000000" would otherwise expand to
// hundreds of megabytes wherever a cell is printed or compared.
const MaxExponent = 30

// ParseNumber parses a numeric cell independently of locale. A single comma
// is accepted as the decimal separator when the value has no dot. Anything
// else, the empty string included, yields an invalid value, which stands in
// for NaN. So does a value whose exponent exceeds MaxExponent either way.
func ParseNumber(s string) decimal.NullDecimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.NullDecimal{}
	}
	if !strings.Contains(s, ".") && strings.Count(s, ",") == 1 {
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	if exp := d.Exponent(); exp > MaxExponent || exp < -MaxExponent {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}
