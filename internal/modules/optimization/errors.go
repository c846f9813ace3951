package optimization

import "errors"

// Error kinds surfaced by the optimizer. Callers match with errors.Is.
var (
	// ErrInvalidConfiguration indicates a bad risk-metric or linkage-method
	// name. It is returned at construction time, never mid-run.
	ErrInvalidConfiguration = errors.New("invalid optimizer configuration")

	// ErrInvalidInput indicates a malformed or insufficient price table.
	ErrInvalidInput = errors.New("invalid price input")

	// ErrNotOptimized indicates the dendrogram was requested before a
	// successful optimization run.
	ErrNotOptimized = errors.New("optimizer has no result yet")

	// ErrInternalInvariant indicates a malformed merge tree. This signals a
	// clustering contract violation, not a user error.
	ErrInternalInvariant = errors.New("internal invariant violation")
)
