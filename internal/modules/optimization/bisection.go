package optimization

import (
	"github.com/dmelis/hrpfolio/pkg/formulas"
)

// indexRange is a contiguous span [start, end) of the quasi-diagonal order.
// Cluster membership is tracked purely with offsets into the ordered
// sequence; the merge tree is never re-walked during bisection.
type indexRange struct {
	start, end int
}

func (r indexRange) size() int { return r.end - r.start }

// recursiveBisection assigns a weight to every asset by splitting capital
// top-down between contiguous halves of the quasi-diagonal order.
//
// Every cluster with more than one member is cut at its midpoint (left half
// gets len/2 members). The left half receives the fraction
// a = 1 - varL/(varL+varR) of its parent's weight and the right half 1-a,
// where each side's variance is the inverse-variance-portfolio variance of
// that sub-cluster (see clusterVariance). The midpoint cut uses only cluster
// size; risk enters solely through the allocation factor.
//
// cov is indexed by the ORIGINAL asset order; ordered maps sequence
// positions back to original indices. The returned weights are indexed by
// original asset order and sum to 1 before any rounding.
func recursiveBisection(cov [][]float64, ordered []int) []float64 {
	n := len(ordered)
	weights := make([]float64, n)
	for i := range weights {
		weights[i] = 1.0
	}

	clusters := []indexRange{{0, n}}
	for len(clusters) > 0 {
		// Bisect every splittable cluster. Halves from the same parent
		// stay adjacent in the slice, so they are consumed in pairs
		// below.
		next := make([]indexRange, 0, 2*len(clusters))
		for _, c := range clusters {
			if c.size() <= 1 {
				continue
			}
			mid := c.start + c.size()/2
			next = append(next, indexRange{c.start, mid}, indexRange{mid, c.end})
		}
		clusters = next

		for i := 0; i+1 < len(clusters); i += 2 {
			left, right := clusters[i], clusters[i+1]

			varLeft := clusterVariance(cov, ordered[left.start:left.end])
			varRight := clusterVariance(cov, ordered[right.start:right.end])

			// Equal split when both halves carry zero measured risk;
			// the factor is undefined there and any other choice
			// would be arbitrary.
			alloc := 0.5
			if total := varLeft + varRight; total > 0 {
				alloc = 1.0 - varLeft/total
			}

			for _, idx := range ordered[left.start:left.end] {
				weights[idx] *= alloc
			}
			for _, idx := range ordered[right.start:right.end] {
				weights[idx] *= 1.0 - alloc
			}
		}
	}

	return weights
}

// clusterVariance approximates the aggregate risk of an index subset: the
// variance of the inverse-variance portfolio formed within the subset
// (naive risk parity), computed as the quadratic form wᵀ·Σ·w over the risk
// matrix restricted to those indices.
func clusterVariance(cov [][]float64, indices []int) float64 {
	m := len(indices)

	variances := make([]float64, m)
	for i, idx := range indices {
		variances[i] = cov[idx][idx]
	}
	w := formulas.InverseVarianceWeights(variances)

	sub := make([][]float64, m)
	for i, ri := range indices {
		sub[i] = make([]float64, m)
		for j, rj := range indices {
			sub[i][j] = cov[ri][rj]
		}
	}

	return formulas.PortfolioVariance(sub, w)
}
