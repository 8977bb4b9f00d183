// Package format renders currency-millions amounts and ratios for display.
package format

import (
	"math"
	"strings"

	"github.com/iwvelando/project-finance/pkg/constants"
	"github.com/shopspring/decimal"
)

// Millions returns an amount in currency-millions with a trailing "m" and
// thousands separators (e.g., "-1,234.568m").
func Millions(amount float64) string {
	return Amount(amount, constants.DisplayDecimalPlaces) + "m"
}

// Amount returns a fixed-precision amount with thousands separators (e.g., "-1,234.56").
func Amount(amount float64, places int32) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return "n/a"
	}
	d := decimal.NewFromFloat(amount).Round(places)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	return sign + groupThousands(d.StringFixed(places))
}

// Ratio returns a coverage ratio such as "1.35x".
func Ratio(value float64) string {
	if value <= 0 || math.IsNaN(value) || math.IsInf(value, 0) {
		return "n/a"
	}
	return decimal.NewFromFloat(value).StringFixed(2) + "x"
}

// Percent returns a fraction as a percentage such as "72.50%".
func Percent(fraction float64) string {
	if math.IsNaN(fraction) || math.IsInf(fraction, 0) {
		return "n/a"
	}
	return decimal.NewFromFloat(fraction).Mul(decimal.NewFromInt(100)).StringFixed(2) + "%"
}

func groupThousands(formatted string) string {
	parts := strings.SplitN(formatted, ".", 2)
	intPart := parts[0]

	if len(intPart) > 3 {
		var builder strings.Builder
		for i, digit := range intPart {
			if i > 0 && (len(intPart)-i)%3 == 0 {
				builder.WriteByte(',')
			}
			builder.WriteRune(digit)
		}
		intPart = builder.String()
	}

	if len(parts) == 2 {
		return intPart + "." + parts[1]
	}
	return intPart
}
