package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Covariance calculates the sample covariance between two datasets
func Covariance(x, y []float64) float64 {
	if len(x) == 0 || len(y) == 0 || len(x) != len(y) {
		return 0
	}
	return stat.Covariance(x, y, nil)
}

// CalculateReturns converts prices to simple percentage returns.
// Returns[i] = (Price[i+1] - Price[i]) / Price[i]
//
// A missing (NaN) price on either side of an interval yields a NaN return,
// and a zero denominator does too; callers decide how to treat those rows.
func CalculateReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}

	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		prev := prices[i-1]
		if prev == 0 || math.IsNaN(prev) || math.IsNaN(prices[i]) {
			returns[i-1] = math.NaN()
			continue
		}
		returns[i-1] = (prices[i] - prev) / prev
	}

	return returns
}
