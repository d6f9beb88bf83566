package domain

import "math"

// MinorUnits converts a priced quantity to integer minor currency units
// (kopecks), rounding half-up per line so totals are exact integer sums.
func MinorUnits(unitPrice float64, quantity int32) int64 {
	return int64(math.Floor(unitPrice*float64(quantity)*100 + 0.5))
}
