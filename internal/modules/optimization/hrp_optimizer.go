package optimization

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dmelis/hrpfolio/internal/cluster"
	"github.com/dmelis/hrpfolio/internal/domain"
	"github.com/dmelis/hrpfolio/pkg/formulas"
)

// weightPrecision is the rounding scale for reported weights (8 decimal
// digits). Assets whose weight rounds to exactly zero are dropped from the
// result.
const weightPrecision = 1e8

// HRPOptimizer computes portfolio weights with the Hierarchical Risk Parity
// method: cluster assets by correlation distance, quasi-diagonalize the
// merge tree, then split capital by recursive bisection in inverse
// proportion to cluster risk.
//
// De Prado, Marcos Lopez. "Advances in Financial Machine Learning" (2018),
// chapter 16.
//
// An optimizer holds no state between Optimize calls and a single instance
// may be reused, but concurrent calls must be serialized by the caller.
type HRPOptimizer struct {
	riskMetric RiskMetric
	linkage    cluster.Method
	log        zerolog.Logger
}

// NewHRPOptimizer creates an optimizer for the given risk metric and linkage
// method names. Unknown names fail here, at construction, with
// ErrInvalidConfiguration.
func NewHRPOptimizer(riskMetric, linkageMethod string, log zerolog.Logger) (*HRPOptimizer, error) {
	metric, err := ParseRiskMetric(riskMetric)
	if err != nil {
		return nil, err
	}

	method, err := cluster.ParseMethod(linkageMethod)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}

	return &HRPOptimizer{
		riskMetric: metric,
		linkage:    method,
		log:        log.With().Str("component", "hrp_optimizer").Logger(),
	}, nil
}

// Optimize runs the full HRP pipeline over a table of asset prices and
// returns the normalized weight allocation.
//
// Pipeline: validate → percentage returns → risk matrix → correlation →
// correlation distance → linkage → quasi-diagonalization → recursive
// bisection → round/renormalize/drop-zeros.
func (o *HRPOptimizer) Optimize(prices *domain.PriceTable) (*Result, error) {
	assets, returns, err := o.prepareReturns(prices)
	if err != nil {
		return nil, err
	}
	n := len(assets)

	riskMatrix, err := buildRiskMatrix(o.riskMetric, returns, assets)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	corrMatrix, err := formulas.CorrelationMatrixFromCovariance(riskMatrix)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	distMatrix := formulas.CorrelationToDistance(corrMatrix)

	condensed := make([]float64, 0, cluster.CondensedLen(n))
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			condensed = append(condensed, distMatrix[i][j])
		}
	}

	tree, err := cluster.Linkage(condensed, n, o.linkage)
	if err != nil {
		return nil, fmt.Errorf("clustering failed: %w", err)
	}

	ordered, err := quasiDiagonalize(tree, n)
	if err != nil {
		return nil, err
	}

	raw := recursiveBisection(riskMatrix, ordered)
	weights := normalizeWeights(assets, raw)

	o.log.Debug().
		Int("assets", n).
		Int("observations", len(returns[assets[0]])).
		Str("risk_metric", string(o.riskMetric)).
		Str("linkage", string(o.linkage)).
		Int("reported_weights", len(weights)).
		Msg("HRP optimization complete")

	return &Result{
		ID:            uuid.NewString(),
		Timestamp:     time.Now().UTC(),
		RiskMetric:    string(o.riskMetric),
		LinkageMethod: string(o.linkage),
		Assets:        assets,
		Weights:       weights,
		Observations:  len(returns[assets[0]]),
		Tree:          tree,
		Ordered:       ordered,
	}, nil
}

// prepareReturns validates the price table and converts it to simple
// percentage returns, dropping assets with no computable observations.
func (o *HRPOptimizer) prepareReturns(prices *domain.PriceTable) ([]string, map[string][]float64, error) {
	if prices == nil || prices.NumAssets() == 0 {
		return nil, nil, fmt.Errorf("%w: price table is empty", ErrInvalidInput)
	}
	if prices.NumAssets() < 2 {
		return nil, nil, fmt.Errorf("%w: need at least 2 assets, got %d",
			ErrInvalidInput, prices.NumAssets())
	}
	if !prices.Chronological() {
		return nil, nil, fmt.Errorf("%w: dates must be strictly chronological", ErrInvalidInput)
	}
	if prices.NumRows() < 3 {
		return nil, nil, fmt.Errorf("%w: need at least 3 price rows for 2 return observations, got %d",
			ErrInvalidInput, prices.NumRows())
	}

	// Fill interior gaps forward then backward, per column. Columns that
	// stay entirely missing are dropped rather than treated as errors.
	assets := make([]string, 0, prices.NumAssets())
	returns := make(map[string][]float64, prices.NumAssets())
	for _, a := range prices.Assets {
		series, ok := prices.Prices[a]
		if !ok || len(series) != prices.NumRows() {
			return nil, nil, fmt.Errorf("%w: price series for %s is missing or ragged",
				ErrInvalidInput, a)
		}

		filled := fillMissing(series)
		ret := formulas.CalculateReturns(filled)
		if allNaN(ret) {
			o.log.Warn().Str("asset", a).Msg("Dropping asset with no computable returns")
			continue
		}

		assets = append(assets, a)
		returns[a] = ret
	}

	if len(assets) < 2 {
		return nil, nil, fmt.Errorf("%w: fewer than 2 usable assets after cleaning", ErrInvalidInput)
	}

	// Drop return rows that are non-computable for every remaining asset.
	rows := len(returns[assets[0]])
	keep := make([]int, 0, rows)
	for k := 0; k < rows; k++ {
		usable := false
		for _, a := range assets {
			if !math.IsNaN(returns[a][k]) {
				usable = true
				break
			}
		}
		if usable {
			keep = append(keep, k)
		}
	}
	if len(keep) < 2 {
		return nil, nil, fmt.Errorf("%w: need at least 2 usable return observations, got %d",
			ErrInvalidInput, len(keep))
	}
	if len(keep) != rows {
		for _, a := range assets {
			trimmed := make([]float64, 0, len(keep))
			for _, k := range keep {
				trimmed = append(trimmed, returns[a][k])
			}
			returns[a] = trimmed
		}
	}

	return assets, returns, nil
}

// normalizeWeights rounds weights to 8 decimal digits, renormalizes the sum
// to 1, and drops assets whose rounded weight is exactly zero. Such assets
// are economically negligible, not an error.
func normalizeWeights(assets []string, raw []float64) map[string]float64 {
	rounded := make([]float64, len(raw))
	var sum float64
	for i, w := range raw {
		rounded[i] = math.Round(w*weightPrecision) / weightPrecision
		sum += rounded[i]
	}

	weights := make(map[string]float64, len(assets))
	for i, a := range assets {
		if rounded[i] == 0 {
			continue
		}
		weights[a] = rounded[i] / sum
	}

	return weights
}

// fillMissing forward-fills then back-fills NaN gaps in a price series.
// An entirely missing series comes back unchanged.
func fillMissing(series []float64) []float64 {
	filled := make([]float64, len(series))
	copy(filled, series)

	last := math.NaN()
	for i, v := range filled {
		if math.IsNaN(v) {
			filled[i] = last
		} else {
			last = v
		}
	}

	next := math.NaN()
	for i := len(filled) - 1; i >= 0; i-- {
		if math.IsNaN(filled[i]) {
			filled[i] = next
		} else {
			next = filled[i]
		}
	}

	return filled
}

func allNaN(values []float64) bool {
	for _, v := range values {
		if !math.IsNaN(v) {
			return false
		}
	}
	return true
}
