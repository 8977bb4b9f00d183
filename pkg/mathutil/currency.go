// Package mathutil provides common numeric helpers for currency-millions amounts.
package mathutil

import (
	"math"

	"github.com/iwvelando/project-finance/pkg/constants"
	"github.com/shopspring/decimal"
)

// Round rounds a value to the given number of decimal places using decimal
// arithmetic so that values like 0.0015 round the way a ledger reader expects.
func Round(val float64, places int32) float64 {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return val
	}
	rounded, _ := decimal.NewFromFloat(val).Round(places).Float64()
	return rounded
}

// RoundLedger rounds an amount to the precision kept in ledger output.
func RoundLedger(val float64) float64 {
	return Round(val, constants.DecimalPlaces)
}

// IsZero checks if a value is effectively zero (within tolerance)
func IsZero(val float64) bool {
	return math.Abs(val) < constants.Tolerance
}

// IsPositive checks if a value is positive (greater than tolerance)
func IsPositive(val float64) bool {
	return val > constants.Tolerance
}

// WithinTolerance checks if two values are within a specified tolerance
func WithinTolerance(val1, val2, tolerance float64) bool {
	return math.Abs(val1-val2) <= tolerance
}

// SafeDivide returns numerator/denominator, or 0 when either is zero.
func SafeDivide(numerator, denominator float64) float64 {
	if denominator == 0 || numerator == 0 {
		return 0
	}
	return numerator / denominator
}

// Sum adds every value in the slice.
func Sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}

// Clamp bounds value to [min, max].
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
