package search

import (
	"testing"

	"simzero/model"
	"simzero/solver"
	"simzero/state"
	"simzero/types"

	"github.com/stretchr/testify/require"
)

// TestAlphaBetaEnumerableKnownValue exercises a game whose closed-form
// mixed equilibrium value is 7/12. The search here runs over float64
// Value, not the exact-rational RatReal kernel, so the bracket is checked
// against Epsilon rather than bit-exact equality.
func TestAlphaBetaEnumerableKnownValue(t *testing.T) {
	s := state.NewKnownValueMatrix()
	ab := NewAlphaBetaEnumerable(solver.NewExact2x2())
	root := NewABENode()

	alpha, beta := ab.Run(1, s, model.NewMonteCarlo(1), root)

	want := types.Value(7.0 / 12.0)
	require.True(t, types.FuzzyEqual(types.Real(alpha), types.Real(want)),
		"alpha = %v, want ~%v", alpha, want)
	require.True(t, types.FuzzyEqual(types.Real(beta), types.Real(want)),
		"beta = %v, want ~%v", beta, want)
	require.True(t, types.FuzzyEqual(types.Real(alpha), types.Real(beta)))
}

func TestAlphaBetaEnumerableMatchingPennies(t *testing.T) {
	s := state.NewMatchingPennies()
	ab := NewAlphaBetaEnumerable(solver.NewExact2x2())
	root := NewABENode()

	alpha, beta := ab.Run(1, s, model.NewMonteCarlo(1), root)

	require.InDelta(t, 0.5, float64(alpha), 1e-9)
	require.InDelta(t, 0.5, float64(beta), 1e-9)
}

func TestAlphaBetaEnumerableZeroDepthConsultsModel(t *testing.T) {
	s := state.NewKnownValueMatrix()
	ab := NewAlphaBetaEnumerable(solver.NewExact2x2())
	root := NewABENode()

	alpha, beta := ab.Run(0, s, model.NewMonteCarlo(3), root)

	require.Equal(t, alpha, beta)
	require.Equal(t, root.Value, alpha)
}
