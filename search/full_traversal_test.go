package search

import (
	"testing"

	"simzero/model"
	"simzero/solver"
	"simzero/state"
	"simzero/types"

	"github.com/stretchr/testify/require"
)

func TestFullTraversalOneShot(t *testing.T) {
	s := state.NewOneShot(0.5)
	ft := NewFullTraversal(solver.NewExact2x2())
	root := NewFullNode()

	value, err := ft.Run(1, s, model.NewMonteCarlo(1), root)
	require.NoError(t, err)
	require.Equal(t, types.Value(0.5), value)
	require.Equal(t, []types.Real{1}, root.Stats.RowSolution)
	require.Equal(t, []types.Real{1}, root.Stats.ColSolution)
	require.False(t, root.Terminal) // one action application still separates root from the payoff
}

func TestFullTraversalMatchingPennies(t *testing.T) {
	s := state.NewMatchingPennies()
	ft := NewFullTraversal(solver.NewExact2x2())
	root := NewFullNode()

	value, err := ft.Run(1, s, model.NewMonteCarlo(1), root)
	require.NoError(t, err)
	require.InDelta(t, 0.5, float64(value), 1e-9)
	require.InDelta(t, 0.5, float64(root.Stats.RowSolution[0]), 1e-9)
	require.InDelta(t, 0.5, float64(root.Stats.ColSolution[0]), 1e-9)
}

func TestFullTraversalMoldNodeCount(t *testing.T) {
	s := state.NewMold(3, 3)
	ft := NewFullTraversal(solver.NewExact2x2())
	root := NewFullNode()

	value, err := ft.Run(3, s, model.NewMonteCarlo(1), root)
	require.NoError(t, err)
	require.Equal(t, types.Value(0), value)
	require.Equal(t, 91, countFullMatrixNodes(root))
}

func TestFullTraversalZeroDepthConsultsModel(t *testing.T) {
	s := state.NewMold(2, 5)
	ft := NewFullTraversal(solver.NewExact2x2())
	root := NewFullNode()

	_, err := ft.Run(0, s, model.NewMonteCarlo(7), root)
	require.NoError(t, err)
	require.True(t, root.Expanded)
	require.Equal(t, 0, countFullMatrixNodes(root)-1) // no children: only the root itself
}

func countFullMatrixNodes(n *FullNode) int {
	count := 1
	for i := 0; i < n.Rows(); i++ {
		for j := 0; j < n.Cols(); j++ {
			chance := n.EdgeAt(i, j)
			if chance == nil {
				continue
			}
			for _, child := range chance.Children() {
				count += countFullMatrixNodes(child)
			}
		}
	}
	return count
}
