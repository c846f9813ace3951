package optimization

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/dmelis/hrpfolio/pkg/formulas"
)

// RiskMetric selects the estimator used to build the risk (covariance)
// matrix from asset returns.
type RiskMetric string

// Supported risk metrics.
const (
	RiskMetricVariance     RiskMetric = "variance"
	RiskMetricSemivariance RiskMetric = "semivariance"
	RiskMetricShrinkage    RiskMetric = "shrinkage"
	RiskMetricLedoitWolf   RiskMetric = "shrinkage-ledoitwolf"
	RiskMetricOAS          RiskMetric = "shrinkage-oas"
)

// basicShrinkageIntensity is the fixed blend used by the plain "shrinkage"
// metric: Σ_shrunk = (1-δ)·Σ_sample + δ·μ·I with μ = trace(Σ)/n.
const basicShrinkageIntensity = 0.1

// ParseRiskMetric parses a risk metric name (case-insensitive).
func ParseRiskMetric(name string) (RiskMetric, error) {
	m := RiskMetric(strings.ToLower(name))
	switch m {
	case RiskMetricVariance, RiskMetricSemivariance, RiskMetricShrinkage,
		RiskMetricLedoitWolf, RiskMetricOAS:
		return m, nil
	}
	return "", fmt.Errorf("%w: unknown risk metric %q", ErrInvalidConfiguration, name)
}

// buildRiskMatrix estimates the N×N risk matrix for the given returns using
// the selected metric. Returns series must share the same length and are
// keyed by the entries of assets.
func buildRiskMatrix(metric RiskMetric, returns map[string][]float64, assets []string) ([][]float64, error) {
	switch metric {
	case RiskMetricVariance:
		return sampleCovariance(returns, assets)
	case RiskMetricSemivariance:
		return semiCovariance(returns, assets)
	case RiskMetricShrinkage:
		sample, err := sampleCovariance(returns, assets)
		if err != nil {
			return nil, err
		}
		return shrinkTowardIdentity(sample, basicShrinkageIntensity), nil
	case RiskMetricLedoitWolf:
		sample, err := sampleCovariance(returns, assets)
		if err != nil {
			return nil, err
		}
		return ledoitWolfShrinkage(sample)
	case RiskMetricOAS:
		sample, err := sampleCovariance(returns, assets)
		if err != nil {
			return nil, err
		}
		obs := len(returns[assets[0]])
		return oasShrinkage(sample, obs)
	}
	return nil, fmt.Errorf("%w: unknown risk metric %q", ErrInvalidConfiguration, metric)
}

// sampleCovariance calculates the sample covariance matrix (N-1 denominator).
func sampleCovariance(returns map[string][]float64, assets []string) ([][]float64, error) {
	if err := checkReturnLengths(returns, assets); err != nil {
		return nil, err
	}

	n := len(assets)
	cov := make([][]float64, n)
	for i := range cov {
		cov[i] = make([]float64, n)
	}

	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			c := formulas.Covariance(returns[assets[i]], returns[assets[j]])
			cov[i][j] = c
			cov[j][i] = c
		}
	}

	return cov, nil
}

// semiCovariance calculates the below-zero semicovariance matrix: only the
// downside part of each return observation contributes.
//
// semicov(i,j) = mean( min(r_i, 0) * min(r_j, 0) )
func semiCovariance(returns map[string][]float64, assets []string) ([][]float64, error) {
	if err := checkReturnLengths(returns, assets); err != nil {
		return nil, err
	}

	n := len(assets)
	obs := len(returns[assets[0]])

	downside := make([][]float64, n)
	for i, a := range assets {
		downside[i] = make([]float64, obs)
		for k, r := range returns[a] {
			downside[i][k] = math.Min(r, 0)
		}
	}

	cov := make([][]float64, n)
	for i := range cov {
		cov[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			var sum float64
			for k := 0; k < obs; k++ {
				sum += downside[i][k] * downside[j][k]
			}
			c := sum / float64(obs)
			cov[i][j] = c
			cov[j][i] = c
		}
	}

	return cov, nil
}

// shrinkTowardIdentity blends the sample covariance with a scaled identity
// target: Σ_shrunk = (1-δ)·Σ + δ·μ·I where μ is the average variance.
func shrinkTowardIdentity(sample [][]float64, delta float64) [][]float64 {
	n := len(sample)

	var mu float64
	for i := 0; i < n; i++ {
		mu += sample[i][i]
	}
	mu /= float64(n)

	shrunk := make([][]float64, n)
	for i := 0; i < n; i++ {
		shrunk[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			target := 0.0
			if i == j {
				target = mu
			}
			shrunk[i][j] = (1-delta)*sample[i][j] + delta*target
		}
	}

	return shrunk
}

// ledoitWolfShrinkage applies Ledoit-Wolf style shrinkage towards the
// constant correlation model.
//
// Reference: Ledoit, O., & Wolf, M. (2004). "A well-conditioned estimator
// for large-dimensional covariance matrices"
func ledoitWolfShrinkage(sample [][]float64) ([][]float64, error) {
	n := len(sample)
	if n == 0 {
		return nil, fmt.Errorf("empty covariance matrix")
	}

	// Shrinkage target: average variance on the diagonal, average
	// covariance elsewhere.
	var avgVar, avgCov float64
	for i := 0; i < n; i++ {
		avgVar += sample[i][i]
		for j := 0; j < n; j++ {
			if i != j {
				avgCov += sample[i][j]
			}
		}
	}
	avgVar /= float64(n)
	if n > 1 {
		avgCov /= float64(n * (n - 1))
	}

	target := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				target.Set(i, j, avgVar)
			} else if avgVar > 0 {
				target.Set(i, j, avgCov)
			}
		}
	}

	// Estimate the shrinkage intensity from the dispersion of the sample
	// around the target.
	shrinkage := 0.2
	if n > 2 && avgVar > 0 {
		var sumSqDiff float64
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				diff := sample[i][j] - target.At(i, j)
				sumSqDiff += diff * diff
			}
		}
		meanSqDiff := sumSqDiff / float64(n*n)

		var sumSq, mean float64
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				mean += sample[i][j]
				sumSq += sample[i][j] * sample[i][j]
			}
		}
		count := float64(n * n)
		mean /= count
		varSample := sumSq/count - mean*mean

		if varSample > 0 && meanSqDiff > 0 {
			shrinkage = math.Min(0.5, math.Max(0.0, varSample/(varSample+meanSqDiff)))
		}
	}

	shrunk := make([][]float64, n)
	for i := 0; i < n; i++ {
		shrunk[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			shrunk[i][j] = (1-shrinkage)*sample[i][j] + shrinkage*target.At(i, j)
		}
	}

	return shrunk, nil
}

// oasShrinkage applies Oracle Approximating Shrinkage towards μ·I.
//
// Reference: Chen, Y. et al. (2010). "Shrinkage algorithms for MMSE
// covariance estimation", IEEE Trans. on Signal Processing.
func oasShrinkage(sample [][]float64, observations int) ([][]float64, error) {
	n := len(sample)
	if n == 0 {
		return nil, fmt.Errorf("empty covariance matrix")
	}
	if observations < 2 {
		return nil, fmt.Errorf("need at least 2 observations for OAS, got %d", observations)
	}

	p := float64(n)
	nObs := float64(observations)

	var trace, traceSq float64
	for i := 0; i < n; i++ {
		trace += sample[i][i]
		for j := 0; j < n; j++ {
			traceSq += sample[i][j] * sample[j][i]
		}
	}
	mu := trace / p

	num := (1-2/p)*traceSq + trace*trace
	den := (nObs + 1 - 2/p) * (traceSq - trace*trace/p)

	rho := 1.0
	if den > 0 {
		rho = math.Min(1.0, num/den)
	}

	shrunk := make([][]float64, n)
	for i := 0; i < n; i++ {
		shrunk[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			target := 0.0
			if i == j {
				target = mu
			}
			shrunk[i][j] = (1-rho)*sample[i][j] + rho*target
		}
	}

	return shrunk, nil
}

// checkReturnLengths verifies every asset has a return series and that all
// series share a common length of at least 2.
func checkReturnLengths(returns map[string][]float64, assets []string) error {
	if len(assets) == 0 {
		return fmt.Errorf("no assets provided")
	}

	length := 0
	for _, a := range assets {
		ret, ok := returns[a]
		if !ok {
			return fmt.Errorf("missing returns for asset %s", a)
		}
		if length == 0 {
			length = len(ret)
		}
		if len(ret) != length {
			return fmt.Errorf("inconsistent return lengths: expected %d, got %d for asset %s",
				length, len(ret), a)
		}
	}

	if length < 2 {
		return fmt.Errorf("insufficient data: need at least 2 observations, got %d", length)
	}

	return nil
}
