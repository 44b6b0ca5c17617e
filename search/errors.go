package search

import "errors"

// ErrNegativeDepth indicates full traversal was asked to recurse to a
// negative depth.
var ErrNegativeDepth = errors.New("search: max depth must be non-negative")
