package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMethod(t *testing.T) {
	for _, name := range []string{"single", "complete", "average", "weighted", "centroid", "median", "ward"} {
		m, err := ParseMethod(name)
		require.NoError(t, err)
		assert.Equal(t, Method(name), m)
	}

	// Method names match case-insensitively.
	m, err := ParseMethod("Ward")
	require.NoError(t, err)
	assert.Equal(t, MethodWard, m)

	_, err = ParseMethod("kmeans")
	assert.Error(t, err)
}

func TestLinkage_InputValidation(t *testing.T) {
	_, err := Linkage(nil, 1, MethodSingle)
	assert.Error(t, err, "fewer than 2 observations should be rejected")

	_, err = Linkage([]float64{0.1, 0.2}, 3, MethodSingle)
	assert.Error(t, err, "condensed length must be n(n-1)/2")

	_, err = Linkage([]float64{0.1, 0.2, 0.3}, 3, Method("bogus"))
	assert.Error(t, err)
}

func TestLinkage_SingleThreePoints(t *testing.T) {
	// d(0,1)=0.1, d(0,2)=0.9, d(1,2)=0.8
	condensed := []float64{0.1, 0.9, 0.8}

	merges, err := Linkage(condensed, 3, MethodSingle)
	require.NoError(t, err)
	require.Len(t, merges, 2)

	// Closest pair first, children smaller-id-first.
	assert.Equal(t, Merge{Left: 0, Right: 1, Distance: 0.1}, merges[0])

	// Single linkage: d(cluster{0,1}, 2) = min(0.9, 0.8) = 0.8.
	// The new cluster got id 3 (= n + step).
	assert.Equal(t, 2, merges[1].Left)
	assert.Equal(t, 3, merges[1].Right)
	assert.InDelta(t, 0.8, merges[1].Distance, 1e-12)
}

func TestLinkage_CompleteThreePoints(t *testing.T) {
	condensed := []float64{0.1, 0.9, 0.8}

	merges, err := Linkage(condensed, 3, MethodComplete)
	require.NoError(t, err)
	require.Len(t, merges, 2)

	// Complete linkage takes the farthest member: max(0.9, 0.8) = 0.9.
	assert.InDelta(t, 0.9, merges[1].Distance, 1e-12)
}

func TestLinkage_AverageFourPoints(t *testing.T) {
	// Two tight pairs far apart: {0,1} and {2,3}.
	// d(0,1)=0.1, d(2,3)=0.2, cross distances all 1.0.
	condensed := []float64{
		0.1, 1.0, 1.0,
		1.0, 1.0,
		0.2,
	}

	merges, err := Linkage(condensed, 4, MethodAverage)
	require.NoError(t, err)
	require.Len(t, merges, 3)

	assert.Equal(t, Merge{Left: 0, Right: 1, Distance: 0.1}, merges[0])
	assert.Equal(t, Merge{Left: 2, Right: 3, Distance: 0.2}, merges[1])

	// Final merge joins clusters 4 and 5 at the average cross distance.
	assert.Equal(t, 4, merges[2].Left)
	assert.Equal(t, 5, merges[2].Right)
	assert.InDelta(t, 1.0, merges[2].Distance, 1e-12)
}

func TestLinkage_WardEqualDistances(t *testing.T) {
	// Equilateral configuration: ties broken by lowest pair.
	condensed := []float64{1.0, 1.0, 1.0}

	merges, err := Linkage(condensed, 3, MethodWard)
	require.NoError(t, err)
	require.Len(t, merges, 2)

	assert.Equal(t, Merge{Left: 0, Right: 1, Distance: 1.0}, merges[0])

	// Ward update: sqrt((2*1 + 2*1 - 1*1) / 3) = 1.
	assert.Equal(t, 2, merges[1].Left)
	assert.Equal(t, 3, merges[1].Right)
	assert.InDelta(t, 1.0, merges[1].Distance, 1e-12)
}

func TestLinkage_WeightedCollinearPoints(t *testing.T) {
	// Points 0, 1, 4, 10 on a line. After {0,1} merges at 1.0, weighted
	// linkage averages the member distances regardless of cluster size:
	// d(c,4) = (4+3)/2 = 3.5, then d(c',10) = (9.5+6)/2 = 7.75.
	condensed := []float64{1, 4, 10, 3, 9, 6}

	merges, err := Linkage(condensed, 4, MethodWeighted)
	require.NoError(t, err)
	require.Len(t, merges, 3)

	assert.Equal(t, Merge{Left: 0, Right: 1, Distance: 1.0}, merges[0])
	assert.Equal(t, 2, merges[1].Left)
	assert.Equal(t, 4, merges[1].Right)
	assert.InDelta(t, 3.5, merges[1].Distance, 1e-12)
	assert.Equal(t, 3, merges[2].Left)
	assert.Equal(t, 5, merges[2].Right)
	assert.InDelta(t, 7.75, merges[2].Distance, 1e-12)
}

func TestLinkage_CentroidCollinearPoints(t *testing.T) {
	// Same fixture; centroid distances track the cluster means. {0,1} has
	// centroid 0.5, so d(c,4) = 3.5; {0,1,4} has centroid 5/3, so
	// d(c',10) = 25/3.
	condensed := []float64{1, 4, 10, 3, 9, 6}

	merges, err := Linkage(condensed, 4, MethodCentroid)
	require.NoError(t, err)
	require.Len(t, merges, 3)

	assert.Equal(t, Merge{Left: 0, Right: 1, Distance: 1.0}, merges[0])
	assert.InDelta(t, 3.5, merges[1].Distance, 1e-12)
	assert.InDelta(t, 25.0/3.0, merges[2].Distance, 1e-12)
}

func TestLinkage_MedianCollinearPoints(t *testing.T) {
	// Median linkage places the merged cluster at the midpoint of the two
	// merged clusters' positions: {0,1} sits at 0.5, {0,1,4} at the
	// midpoint 2.25, giving d to 10 of 7.75.
	condensed := []float64{1, 4, 10, 3, 9, 6}

	merges, err := Linkage(condensed, 4, MethodMedian)
	require.NoError(t, err)
	require.Len(t, merges, 3)

	assert.Equal(t, Merge{Left: 0, Right: 1, Distance: 1.0}, merges[0])
	assert.InDelta(t, 3.5, merges[1].Distance, 1e-12)
	assert.InDelta(t, 7.75, merges[2].Distance, 1e-12)
}

func TestLinkage_NodeIDsFormValidTree(t *testing.T) {
	condensed := []float64{
		0.3, 0.7, 0.9,
		0.4, 0.8,
		0.2,
	}
	n := 4

	merges, err := Linkage(condensed, n, MethodAverage)
	require.NoError(t, err)
	require.Len(t, merges, n-1)

	// Every child id must reference a leaf or an earlier merge, and each
	// id may be consumed exactly once (binary tree over n leaves).
	seen := make(map[int]bool)
	for step, m := range merges {
		newID := n + step
		assert.Less(t, m.Left, m.Right, "children stored smaller-id-first")
		for _, child := range []int{m.Left, m.Right} {
			assert.GreaterOrEqual(t, child, 0)
			assert.Less(t, child, newID)
			assert.False(t, seen[child], "cluster id %d merged twice", child)
			seen[child] = true
		}
	}
}

func TestLinkage_Deterministic(t *testing.T) {
	condensed := []float64{
		0.5, 0.5, 0.5,
		0.5, 0.5,
		0.5,
	}

	first, err := Linkage(condensed, 4, MethodSingle)
	require.NoError(t, err)
	second, err := Linkage(condensed, 4, MethodSingle)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
