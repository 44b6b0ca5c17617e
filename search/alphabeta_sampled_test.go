package search

import (
	"testing"

	"simzero/model"
	"simzero/solver"
	"simzero/state"
	"simzero/types"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

// TestAlphaBetaSampledBudgetTermination exercises the sampled-chance
// double oracle against a state with no enumerable chance support,
// checking that every explored cell stopped because it hit the
// unexplored-mass floor or the hard sample cap, and that the returned
// bracket converged to within Epsilon.
func TestAlphaBetaSampledBudgetTermination(t *testing.T) {
	s := state.NewStochasticCoin()
	device := rand.New(rand.NewSource(42))
	ab := NewAlphaBetaSampled(solver.NewExact2x2(), device, 4, 64, types.Prob(1.0/64.0))
	root := NewABSNode()

	alpha, beta := ab.Run(1, s, model.NewMonteCarlo(1), root)

	require.True(t, types.FuzzyEqual(types.Real(alpha), types.Real(beta)),
		"alpha=%v beta=%v did not converge within epsilon", alpha, beta)

	rowActions, colActions := s.GetActions()
	for i := range rowActions {
		for j := range colActions {
			chance := root.Access(i, j)
			tries := chance.Stats.Tries
			unexplored := chance.Stats.Unexplored
			require.True(t, unexplored <= ab.MaxUnexplored || tries == ab.MaxTries,
				"cell (%d,%d): unexplored=%v tries=%d satisfies neither stopping condition", i, j, unexplored, tries)
		}
	}
}
