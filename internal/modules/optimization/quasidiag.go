package optimization

import (
	"fmt"

	"github.com/dmelis/hrpfolio/internal/cluster"
)

// quasiDiagonalize flattens the merge tree into a permutation of the
// original asset indices 0..numAssets-1 such that assets merged at small
// distances end up adjacent. This places the largest covariance values
// along the diagonal of the reordered risk matrix.
//
// The expansion starts at the root (id 2N-2) and recursively replaces each
// internal node with its two children, preserving the stored left/right
// order. Nothing is re-sorted; the order is exactly the one assigned by the
// clustering merge sequence.
//
// A child id outside [0, 2N-2) means the clustering primitive broke its
// contract; that surfaces as ErrInternalInvariant.
func quasiDiagonalize(tree []cluster.Merge, numAssets int) ([]int, error) {
	if len(tree) != numAssets-1 {
		return nil, fmt.Errorf("%w: merge tree has %d records, want %d",
			ErrInternalInvariant, len(tree), numAssets-1)
	}

	order := make([]int, 0, numAssets)

	// Iterative depth-first expansion over the id arena. Children are
	// pushed right-first so the left child is expanded first.
	stack := []int{2*numAssets - 2}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if node < 0 || node > 2*numAssets-2 {
			return nil, fmt.Errorf("%w: node id %d out of range for %d assets",
				ErrInternalInvariant, node, numAssets)
		}

		if node < numAssets {
			order = append(order, node)
			continue
		}

		merge := tree[node-numAssets]
		// Children must predate their parent; anything else is a cycle.
		if merge.Left >= node || merge.Right >= node || merge.Left < 0 || merge.Right < 0 {
			return nil, fmt.Errorf("%w: merge node %d references children (%d, %d)",
				ErrInternalInvariant, node, merge.Left, merge.Right)
		}
		stack = append(stack, merge.Right, merge.Left)
	}

	if len(order) != numAssets {
		return nil, fmt.Errorf("%w: expanded %d leaves, want %d",
			ErrInternalInvariant, len(order), numAssets)
	}

	return order, nil
}
