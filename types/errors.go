package types

import "errors"

var (
	// ErrNegativeDimension indicates a matrix or vector was asked to
	// allocate with a negative rows/cols/length.
	ErrNegativeDimension = errors.New("types: dimension must be non-negative")
	// ErrActionIndexOutOfRange indicates an Action index fell outside
	// the bounds of the relevant action list.
	ErrActionIndexOutOfRange = errors.New("types: action index out of range")
	// ErrPolicyLengthMismatch indicates a policy vector returned by a
	// model or solver did not match the expected action count.
	ErrPolicyLengthMismatch = errors.New("types: policy length does not match action count")
)
