// Package types holds the strongly-typed scalars and containers shared by
// every state, model, solver and search implementation: reals, probabilities,
// values, actions, observations and dense vectors/matrices over them.
package types

import "math/big"

// Epsilon is the tolerance used by FuzzyEqual in floating mode.
const Epsilon = 1.0 / (1 << 24)

// Real is a floating-point scalar used for payoffs, bounds and probabilities.
type Real float64

// FuzzyEqual reports whether a and b differ by less than Epsilon.
func FuzzyEqual(a, b Real) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < Epsilon
}

// RatReal is an exact rational scalar, used where a bitwise-exact
// comparison of a known equilibrium value matters more than float64 speed.
type RatReal struct {
	r big.Rat
}

// NewRat builds a RatReal equal to num/den in lowest terms.
func NewRat(num, den int64) RatReal {
	var r RatReal
	r.r.SetFrac64(num, den)
	return r
}

// RatEqual reports exact equality after canonicalization.
func RatEqual(a, b RatReal) bool {
	return a.r.Cmp(&b.r) == 0
}

func (r RatReal) Float64() float64 {
	f, _ := r.r.Float64()
	return f
}

func (r RatReal) Add(o RatReal) RatReal {
	var out RatReal
	out.r.Add(&r.r, &o.r)
	return out
}

func (r RatReal) Mul(o RatReal) RatReal {
	var out RatReal
	out.r.Mul(&r.r, &o.r)
	return out
}

func (r RatReal) Sub(o RatReal) RatReal {
	var out RatReal
	out.r.Sub(&r.r, &o.r)
	return out
}

func (r RatReal) String() string { return r.r.RatString() }

// Prob is a probability in [0, 1].
type Prob float64

// Value is a zero-sum payoff for the row player; the column player's value
// is ZeroSumComplement(v).
type Value float64

// ZeroSumComplement returns the column player's value given the row value,
// under the convention that row + col == 0.
func ZeroSumComplement(v Value) Value { return -v }

// Action is an opaque index into a state's row or column action list.
type Action int

// Obs is an opaque, hashable observation identifying a chance outcome.
type Obs uint64

// MinVal and MaxVal bound the value range used by pruning and by the
// pessimistic/optimistic matrices in alpha-beta search.
const (
	MinVal Value = -1
	MaxVal Value = 1
)
