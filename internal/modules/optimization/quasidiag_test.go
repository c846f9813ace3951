package optimization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmelis/hrpfolio/internal/cluster"
)

func TestQuasiDiagonalize_ThreeAssets(t *testing.T) {
	// Leaves 0 and 1 merge first (cluster 3), then 2 joins at the root (4).
	tree := []cluster.Merge{
		{Left: 0, Right: 1, Distance: 0.2236},
		{Left: 2, Right: 3, Distance: 0.7071},
	}

	order, err := quasiDiagonalize(tree, 3)
	require.NoError(t, err)

	// Root expands left child 2 first, then cluster 3 as {0, 1}.
	assert.Equal(t, []int{2, 0, 1}, order)
}

func TestQuasiDiagonalize_IsPermutation(t *testing.T) {
	tree := []cluster.Merge{
		{Left: 1, Right: 3, Distance: 0.1},
		{Left: 0, Right: 5, Distance: 0.3},
		{Left: 2, Right: 4, Distance: 0.5},
		{Left: 6, Right: 7, Distance: 0.9},
	}

	order, err := quasiDiagonalize(tree, 5)
	require.NoError(t, err)
	require.Len(t, order, 5)

	seen := make(map[int]bool, 5)
	for _, idx := range order {
		assert.GreaterOrEqual(t, idx, 0)
		assert.Less(t, idx, 5)
		assert.False(t, seen[idx], "index %d appears twice", idx)
		seen[idx] = true
	}
}

func TestQuasiDiagonalize_MergedLeavesStayAdjacent(t *testing.T) {
	// Leaves 2 and 4 merge at the smallest distance; they must end up next
	// to each other in the final order.
	tree := []cluster.Merge{
		{Left: 2, Right: 4, Distance: 0.05},
		{Left: 0, Right: 1, Distance: 0.2},
		{Left: 3, Right: 5, Distance: 0.4},
		{Left: 6, Right: 7, Distance: 0.8},
	}

	order, err := quasiDiagonalize(tree, 5)
	require.NoError(t, err)

	pos := make(map[int]int, len(order))
	for i, idx := range order {
		pos[idx] = i
	}
	assert.Equal(t, 1, abs(pos[2]-pos[4]))
}

func TestQuasiDiagonalize_MalformedTrees(t *testing.T) {
	// Wrong record count.
	_, err := quasiDiagonalize([]cluster.Merge{{Left: 0, Right: 1}}, 3)
	assert.ErrorIs(t, err, ErrInternalInvariant)

	// Child id outside the arena.
	_, err = quasiDiagonalize([]cluster.Merge{
		{Left: 0, Right: 1, Distance: 0.1},
		{Left: 9, Right: 3, Distance: 0.2},
	}, 3)
	assert.ErrorIs(t, err, ErrInternalInvariant)

	// Self-referencing node would loop forever without the cycle guard.
	_, err = quasiDiagonalize([]cluster.Merge{
		{Left: 0, Right: 1, Distance: 0.1},
		{Left: 4, Right: 2, Distance: 0.2},
	}, 3)
	assert.ErrorIs(t, err, ErrInternalInvariant)

	// Negative child id.
	_, err = quasiDiagonalize([]cluster.Merge{
		{Left: -1, Right: 1, Distance: 0.1},
		{Left: 2, Right: 3, Distance: 0.2},
	}, 3)
	assert.ErrorIs(t, err, ErrInternalInvariant)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
