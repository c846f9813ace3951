// Package cluster implements generic agglomerative hierarchical clustering
// over a condensed pairwise distance matrix.
//
// The output is a merge tree of n-1 records. Leaf ids are 0..n-1 (the
// original observations); internal node ids are n..2n-2, assigned in merge
// order, so the root is always node 2n-2. Children are stored
// smaller-id-first. The tree is an append-only array indexed by id offset,
// never a pointer structure.
package cluster

import (
	"fmt"
	"math"
	"strings"
)

// Method selects the linkage criterion used when merging clusters.
type Method string

// Supported linkage methods. Centroid, median and ward assume the input
// distances are Euclidean.
const (
	MethodSingle   Method = "single"
	MethodComplete Method = "complete"
	MethodAverage  Method = "average"
	MethodWeighted Method = "weighted"
	MethodCentroid Method = "centroid"
	MethodMedian   Method = "median"
	MethodWard     Method = "ward"
)

// ParseMethod parses a linkage method name (case-insensitive).
func ParseMethod(name string) (Method, error) {
	m := Method(strings.ToLower(name))
	switch m {
	case MethodSingle, MethodComplete, MethodAverage, MethodWeighted,
		MethodCentroid, MethodMedian, MethodWard:
		return m, nil
	}
	return "", fmt.Errorf("unsupported linkage method %q", name)
}

// Merge is one record of the merge tree: the ids of the two clusters that
// were combined and the linkage distance at which they merged.
type Merge struct {
	Left     int     `json:"left"`
	Right    int     `json:"right"`
	Distance float64 `json:"distance"`
}

// CondensedLen returns the expected condensed matrix length for n points.
func CondensedLen(n int) int {
	return n * (n - 1) / 2
}

// condensedIndex maps a pair (i, j) with i < j to its position in the
// condensed (upper-triangular, row-major, no diagonal) distance matrix.
func condensedIndex(n, i, j int) int {
	return i*n - i*(i+1)/2 + (j - i - 1)
}

// Linkage performs agglomerative clustering over the condensed distance
// matrix of n observations and returns the n-1 merge records.
//
// Ties on the minimum distance are broken by the lowest cluster-id pair, so
// the output is deterministic for identical input.
func Linkage(condensed []float64, n int, method Method) ([]Merge, error) {
	if n < 2 {
		return nil, fmt.Errorf("need at least 2 observations, got %d", n)
	}
	if len(condensed) != CondensedLen(n) {
		return nil, fmt.Errorf("condensed matrix has length %d, want %d for %d observations",
			len(condensed), CondensedLen(n), n)
	}
	if _, err := ParseMethod(string(method)); err != nil {
		return nil, err
	}

	// Working distance matrix between active clusters, indexed by slot.
	// Slot i initially holds leaf i; merged clusters reuse the left slot.
	dist := make([][]float64, n)
	for i := 0; i < n; i++ {
		dist[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := condensed[condensedIndex(n, i, j)]
			dist[i][j] = d
			dist[j][i] = d
		}
	}

	ids := make([]int, n)   // cluster id currently held by each slot
	sizes := make([]int, n) // member count of each slot's cluster
	active := make([]bool, n)
	for i := 0; i < n; i++ {
		ids[i] = i
		sizes[i] = 1
		active[i] = true
	}

	merges := make([]Merge, 0, n-1)
	for step := 0; step < n-1; step++ {
		// Find the closest active pair. Scanning in slot order makes
		// the lowest-id pair win ties.
		best := math.Inf(1)
		bi, bj := -1, -1
		for i := 0; i < n; i++ {
			if !active[i] {
				continue
			}
			for j := i + 1; j < n; j++ {
				if !active[j] {
					continue
				}
				if dist[i][j] < best {
					best = dist[i][j]
					bi, bj = i, j
				}
			}
		}

		left, right := ids[bi], ids[bj]
		if left > right {
			left, right = right, left
		}
		merges = append(merges, Merge{Left: left, Right: right, Distance: best})

		ni := float64(sizes[bi])
		nj := float64(sizes[bj])
		dij := best

		// Lance-Williams update: distance from the merged cluster to
		// every other active cluster.
		for k := 0; k < n; k++ {
			if !active[k] || k == bi || k == bj {
				continue
			}
			nk := float64(sizes[k])
			dik := dist[bi][k]
			djk := dist[bj][k]

			var d float64
			switch method {
			case MethodSingle:
				d = math.Min(dik, djk)
			case MethodComplete:
				d = math.Max(dik, djk)
			case MethodAverage:
				d = (ni*dik + nj*djk) / (ni + nj)
			case MethodWeighted:
				d = (dik + djk) / 2
			case MethodCentroid:
				d = math.Sqrt((ni*dik*dik+nj*djk*djk)/(ni+nj) -
					ni*nj*dij*dij/((ni+nj)*(ni+nj)))
			case MethodMedian:
				d = math.Sqrt(dik*dik/2 + djk*djk/2 - dij*dij/4)
			case MethodWard:
				d = math.Sqrt(((ni+nk)*dik*dik + (nj+nk)*djk*djk - nk*dij*dij) /
					(ni + nj + nk))
			}

			dist[bi][k] = d
			dist[k][bi] = d
		}

		// Merged cluster takes over slot bi; slot bj retires.
		ids[bi] = n + step
		sizes[bi] += sizes[bj]
		active[bj] = false
	}

	return merges, nil
}
