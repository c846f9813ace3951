package formulas

import (
	"fmt"
	"math"
)

// CorrelationMatrixFromCovariance calculates the correlation matrix from a covariance matrix.
//
// Formula: corr(i,j) = cov(i,j) / sqrt(cov(i,i) * cov(j,j))
func CorrelationMatrixFromCovariance(cov [][]float64) ([][]float64, error) {
	n := len(cov)
	if n == 0 {
		return nil, fmt.Errorf("empty covariance matrix")
	}
	for i := 0; i < n; i++ {
		if len(cov[i]) != n {
			return nil, fmt.Errorf("covariance matrix is not square")
		}
	}

	vars := make([]float64, n)
	for i := 0; i < n; i++ {
		v := cov[i][i]
		if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("invalid variance on diagonal at %d: %v", i, v)
		}
		vars[i] = v
	}

	corr := make([][]float64, n)
	for i := 0; i < n; i++ {
		corr[i] = make([]float64, n)
	}

	for i := 0; i < n; i++ {
		corr[i][i] = 1.0
		for j := i + 1; j < n; j++ {
			den := math.Sqrt(vars[i] * vars[j])
			val := 0.0
			if den > 0 {
				val = cov[i][j] / den
			}
			// Clamp to valid range.
			val = math.Max(-1.0, math.Min(1.0, val))
			corr[i][j] = val
			corr[j][i] = val
		}
	}

	return corr, nil
}

// CorrelationToDistance converts a correlation matrix to a correlation
// distance matrix.
//
// Distance formula: d_ij = sqrt((1 - ρ_ij) / 2)
// where ρ_ij is the correlation between assets i and j. Perfectly correlated
// assets have distance 0, perfectly anti-correlated assets have distance 1.
//
// This is the metric used for hierarchical clustering in HRP allocation.
func CorrelationToDistance(corrMatrix [][]float64) [][]float64 {
	n := len(corrMatrix)
	distMatrix := make([][]float64, n)

	for i := 0; i < n; i++ {
		distMatrix[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			corr := corrMatrix[i][j]
			// Clamp correlation so rounding noise above 1.0 cannot
			// produce a negative sqrt argument.
			corr = math.Max(-1.0, math.Min(1.0, corr))
			distMatrix[i][j] = math.Sqrt((1.0 - corr) / 2.0)
		}
		distMatrix[i][i] = 0.0
	}

	return distMatrix
}

// InverseVarianceWeights calculates naive risk parity weights using inverse
// variance weighting.
//
// Formula: w_i = (1/v_i) / Σ(1/v_j)
// where v_i is the variance of asset i. Lower-variance assets get
// proportionally higher weights.
func InverseVarianceWeights(variances []float64) []float64 {
	n := len(variances)
	weights := make([]float64, n)

	var totalInvVariance float64
	for _, v := range variances {
		if v > 0 {
			totalInvVariance += 1.0 / v
		}
	}

	if totalInvVariance == 0 {
		// All variances are zero or invalid: fall back to equal weights.
		for i := range weights {
			weights[i] = 1.0 / float64(n)
		}
		return weights
	}

	for i, v := range variances {
		if v > 0 {
			weights[i] = (1.0 / v) / totalInvVariance
		} else {
			weights[i] = 0.0
		}
	}

	return weights
}

// PortfolioVariance computes the quadratic form wᵀ·Σ·w for the given
// covariance matrix and weight vector.
func PortfolioVariance(cov [][]float64, weights []float64) float64 {
	var total float64
	for i := range weights {
		for j := range weights {
			total += weights[i] * cov[i][j] * weights[j]
		}
	}
	return total
}
