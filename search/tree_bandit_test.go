package search

import (
	"math"
	"testing"

	"simzero/bandit"
	"simzero/model"
	"simzero/state"
	"simzero/types"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

// TestTreeBanditExp3MatchingPennies drives 10000 iterations of Exp3 search
// over matching pennies: the empirical root value should converge toward
// the game's 0.5 equilibrium value, and both sides' visit counts should
// stay balanced.
func TestTreeBanditExp3MatchingPennies(t *testing.T) {
	s := state.NewMatchingPennies()
	device := rand.New(rand.NewSource(7))
	tb := NewTreeBandit(bandit.NewExp3(0.1), device)
	root := &bandit.Node{}

	const iterations = 10000
	tb.RunForIterations(iterations, s, model.NewMonteCarlo(1), root)

	require.Equal(t, iterations, root.Stats.Visits)

	value := tb.EmpiricalValue(root)
	require.InDelta(t, 0.5, float64(value), 0.05)

	rowVisits := root.Stats.RowVisits
	colVisits := root.Stats.ColVisits

	rowSum, colSum := 0, 0
	for _, v := range rowVisits {
		rowSum += v
	}
	for _, v := range colVisits {
		colSum += v
	}
	require.Equal(t, iterations, rowSum)
	require.Equal(t, iterations, colSum)

	requireBalanced(t, rowVisits, iterations)
	requireBalanced(t, colVisits, iterations)
}

// TestTreeBanditAdvance covers Advance's found and not-found paths
// directly against a hand-built tree, without depending on search's own
// randomness: a walk along an edge the tree actually expanded finds the
// existing child; a walk along an observation, action index, or root the
// tree never expanded reports failure.
func TestTreeBanditAdvance(t *testing.T) {
	root := &bandit.Node{}
	root.Expand([]types.Action{0, 1}, []types.Action{0, 1})
	chance := root.Access(0, 0)
	child, _ := chance.Access(types.Obs(0))
	child.Expand([]types.Action{0, 1}, []types.Action{0, 1})

	found, ok := Advance(root, []Segment{{RowIdx: 0, ColIdx: 0, Obs: 0}})
	require.True(t, ok)
	require.Same(t, child, found)

	_, ok = Advance(root, []Segment{{RowIdx: 0, ColIdx: 0, Obs: 1}})
	require.False(t, ok, "an observation the tree never sampled must fail the walk")

	_, ok = Advance(root, []Segment{{RowIdx: 1, ColIdx: 1, Obs: 0}})
	require.False(t, ok, "an edge the tree never expanded must fail the walk")

	_, ok = Advance(&bandit.Node{}, []Segment{{RowIdx: 0, ColIdx: 0, Obs: 0}})
	require.False(t, ok, "an unexpanded root has no edges to walk")

	same, ok := Advance(root, nil)
	require.True(t, ok)
	require.Same(t, root, same, "an empty path returns root unchanged")
}

// requireBalanced checks every action's visit count is within 10% of the
// total visit count of the uniform 1/n share, matching equal-strength
// matching pennies actions.
func requireBalanced(t *testing.T, visits []int, total int) {
	t.Helper()
	n := len(visits)
	expected := float64(total) / float64(n)
	tolerance := 0.10 * float64(total)
	for i, v := range visits {
		require.True(t, math.Abs(float64(v)-expected) <= tolerance,
			"action %d: visits=%d expected~%v tolerance=%v", i, v, expected, tolerance)
	}
}
