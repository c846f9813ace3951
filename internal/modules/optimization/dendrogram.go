package optimization

import (
	"fmt"
	"strings"

	"github.com/dmelis/hrpfolio/internal/cluster"
)

// RenderDendrogram renders the merge tree as an indented text dendrogram,
// one line per node, leaves labeled and internal nodes annotated with their
// merge distance. size controls the indent width per tree level (values
// below 2 fall back to the default of 3), standing in for the figure-size
// knob of graphical dendrogram plotters.
//
//	└─ d=0.7071
//	   ├─ d=0.2236
//	   │  ├─ AAA
//	   │  └─ BBB
//	   └─ CCC
//
// The rendering walks the same id arena the allocator uses; a malformed
// tree surfaces as ErrInternalInvariant.
func RenderDendrogram(tree []cluster.Merge, labels []string, size int) (string, error) {
	n := len(labels)
	if len(tree) != n-1 {
		return "", fmt.Errorf("%w: merge tree has %d records for %d labels",
			ErrInternalInvariant, len(tree), n)
	}
	if size < 2 {
		size = 3
	}

	var b strings.Builder
	if err := renderNode(&b, tree, labels, 2*n-2, "", "└─ ", strings.Repeat(" ", size), size); err != nil {
		return "", err
	}
	return b.String(), nil
}

func renderNode(b *strings.Builder, tree []cluster.Merge, labels []string, node int, prefix, branch, childPad string, size int) error {
	n := len(labels)
	if node < 0 || node > 2*n-2 {
		return fmt.Errorf("%w: node id %d out of range", ErrInternalInvariant, node)
	}

	if node < n {
		b.WriteString(prefix)
		b.WriteString(branch)
		b.WriteString(labels[node])
		b.WriteByte('\n')
		return nil
	}

	merge := tree[node-n]
	if merge.Left >= node || merge.Right >= node || merge.Left < 0 || merge.Right < 0 {
		return fmt.Errorf("%w: merge node %d references children (%d, %d)",
			ErrInternalInvariant, node, merge.Left, merge.Right)
	}

	b.WriteString(prefix)
	b.WriteString(branch)
	fmt.Fprintf(b, "d=%.4f\n", merge.Distance)

	pad := strings.Repeat(" ", size)
	childPrefix := prefix + childPad
	if err := renderNode(b, tree, labels, merge.Left, childPrefix, "├─ ", "│"+pad[1:], size); err != nil {
		return err
	}
	return renderNode(b, tree, labels, merge.Right, childPrefix, "└─ ", pad, size)
}
