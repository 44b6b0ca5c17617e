package solver

import "errors"

var (
	// ErrEmptyMatrix indicates Solve was called with zero rows or columns.
	ErrEmptyMatrix = errors.New("solver: matrix has no rows or columns")
)
