package search

import (
	"simzero/model"
	"simzero/solver"
	"simzero/state"
	"simzero/tree"
	"simzero/types"

	"golang.org/x/exp/slices"
)

// ABEMatrixStats is the per-matrix-node statistics payload for the
// enumerable-chance double oracle: pessimistic/optimistic bound matrices
// over the full action set, the restricted action sets I, J currently
// explored, and the current sub-game solution over I x J.
type ABEMatrixStats struct {
	P, O               types.Matrix[types.Value] // pessimistic, optimistic bounds
	I, J               []int                      // restricted row/col action indices
	RowSolution        []types.Real
	ColSolution        []types.Real
	RowValue           types.Value
	RowBestResponseIdx int
	ColBestResponseIdx int
	RowPrincipalIdx    int
	ColPrincipalIdx    int
}

// ABEChanceStats is the per-chance-node statistics payload: the enumerated
// outcomes and how many of them have contributed a solved value so far.
type ABEChanceStats struct {
	Outcomes []state.ChanceOutcome
	Solved   int
}

type ABENode = tree.MatrixNode[ABEMatrixStats, ABEChanceStats]
type ABEChance = tree.ChanceNode[ABEMatrixStats, ABEChanceStats]

// NewABENode allocates a fresh, unexpanded root for the enumerable-chance
// double oracle.
func NewABENode() *ABENode { return tree.NewMatrixNode[ABEMatrixStats, ABEChanceStats](0) }

// AlphaBetaEnumerable is the canonical simultaneous-move alpha-beta double
// oracle over states whose chance support is fully enumerable: I, J grow
// by repeated best response until the pessimistic and optimistic bounds
// over the restricted sub-game agree.
type AlphaBetaEnumerable struct {
	Solver solver.MatrixSolver
	// RetainPrincipal, when true, seeds I/J on a later Run call from the
	// node's cached principal action instead of resetting to action 0.
	// Defaults to false: a fresh double-oracle run starts from an
	// untouched node.
	RetainPrincipal bool
}

// NewAlphaBetaEnumerable builds a double oracle search using the given
// matrix solver.
func NewAlphaBetaEnumerable(solve solver.MatrixSolver) *AlphaBetaEnumerable {
	return &AlphaBetaEnumerable{Solver: solve}
}

// Run grows I, J on root until the pessimistic and optimistic bounds over
// I x J agree, returning the converged (alpha, beta) -- equal at
// convergence, the matrix-game value of the restricted sub-game.
func (a *AlphaBetaEnumerable) Run(maxDepth int, s state.State, m model.Model, root *ABENode) (alpha, beta types.Value) {
	if root.Expanded {
		i0, j0 := 0, 0
		if a.RetainPrincipal {
			i0, j0 = root.Stats.RowPrincipalIdx, root.Stats.ColPrincipalIdx
		}
		root.Stats.I, root.Stats.J = []int{i0}, []int{j0}
	}
	return a.search(maxDepth, s, m, root, types.MinVal, types.MaxVal)
}

func (a *AlphaBetaEnumerable) search(depth int, s state.State, m model.Model, node *ABENode, alpha, beta types.Value) (types.Value, types.Value) {
	rowActions, colActions := s.GetActions()
	node.TryExpand(func() {
		node.Expand(rowActions, colActions)
		rows, cols := len(rowActions), len(colActions)
		node.Stats.P = types.NewMatrix[types.Value](rows, cols)
		node.Stats.O = types.NewMatrix[types.Value](rows, cols)
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				node.Stats.P.Set(i, j, types.MinVal)
				node.Stats.O.Set(i, j, types.MaxVal)
			}
		}
		i0, j0 := 0, 0
		if a.RetainPrincipal {
			i0, j0 = node.Stats.RowPrincipalIdx, node.Stats.ColPrincipalIdx
		}
		node.Stats.I = []int{i0}
		node.Stats.J = []int{j0}
	})

	if s.IsTerminal() {
		node.Terminal = true
		node.Value = s.GetPayoff()
		return node.Value, node.Value
	}
	if depth <= 0 {
		node.Value = m.Inference(s).Value
		return node.Value, node.Value
	}

	for {
		stats := &node.Stats
		for _, i := range stats.I {
			for _, j := range stats.J {
				if fuzzyEqualValue(stats.P.Get(i, j), stats.O.Get(i, j)) {
					continue
				}
				u := a.solveCell(depth, s, m, node, rowActions, colActions, i, j)
				stats.P.Set(i, j, u)
				stats.O.Set(i, j, u)
			}
		}

		sub := subMatrix(stats.P, stats.I, stats.J)
		rowSol, colSol, _ := a.Solver.Solve(&sub)
		solver.CheckSolution(&sub, rowSol, colSol)
		stats.RowSolution, stats.ColSolution = rowSol, colSol

		colStrategyFull := expandStrategy(colSol, stats.J, len(colActions))
		rowStrategyFull := expandStrategy(rowSol, stats.I, len(rowActions))

		i0, vMax := a.bestResponseRow(depth, s, m, node, rowActions, colActions, alpha, colStrategyFull)
		j0, vMin := a.bestResponseCol(depth, s, m, node, rowActions, colActions, beta, rowStrategyFull)

		if i0 == -1 {
			node.Value = types.MinVal
			return types.MinVal, types.MinVal
		}
		if j0 == -1 {
			node.Value = types.MaxVal
			return types.MaxVal, types.MaxVal
		}

		if vMin > alpha {
			alpha = vMin
		}
		if vMax < beta {
			beta = vMax
		}

		stats.RowBestResponseIdx, stats.ColBestResponseIdx = i0, j0
		stats.I = insertSorted(stats.I, i0)
		stats.J = insertSorted(stats.J, j0)

		if fuzzyEqualValue(alpha, beta) {
			stats.RowValue = alpha
			node.Value = alpha
			stats.RowPrincipalIdx = stats.I[argmaxReal(rowSol)]
			stats.ColPrincipalIdx = stats.J[argmaxReal(colSol)]
			return alpha, beta
		}
	}
}

// solveCell resolves cell (i, j)'s exact value by recursing into every
// enumerated chance outcome of the joint action and averaging by
// probability, exactly as full traversal's nash_payoff_matrix accumulation.
func (a *AlphaBetaEnumerable) solveCell(depth int, s state.State, m model.Model, node *ABENode, rowActions, colActions []types.Action, i, j int) types.Value {
	chance := node.Access(i, j)
	outcomes := chanceActionsOf(s, rowActions[i], colActions[j])
	chance.Stats.Outcomes = outcomes

	var acc types.Value
	for _, outcome := range outcomes {
		child, _ := chance.Access(outcome.Obs)
		childState := applyChance(s, rowActions[i], colActions[j], outcome.Obs)
		v, _ := a.search(depth-1, childState, m, child, types.MinVal, types.MaxVal)
		acc += v * types.Value(outcome.Prob)
		chance.Stats.Solved++
	}
	return acc
}

// bestResponseRow finds the row maximizing expected payoff against col
// strategy y, tightening p[i][*]/o[i][*] to exact values as it resolves
// cells. Before recursing into an unresolved cell it checks the row's
// optimistic upper bound built from every column's pre-resolve o[i][*]:
// if that bound already can't reach alpha, no value the unresolved cell
// could take would change the outcome, so the recursive solve is skipped
// and the row drops out of contention for this round. Every row is a
// candidate, including ones already in I: the sub-game solve only fixes
// their value, not their optimality, so they must stay in contention for
// the overall best response.
func (a *AlphaBetaEnumerable) bestResponseRow(depth int, s state.State, m model.Model, node *ABENode, rowActions, colActions []types.Action, alpha types.Value, y []types.Real) (int, types.Value) {
	stats := &node.Stats
	best, bestVal := -1, types.MinVal
	for i := 0; i < len(rowActions); i++ {
		feasible := true
		for j, yj := range y {
			if yj <= 0 || fuzzyEqualValue(stats.P.Get(i, j), stats.O.Get(i, j)) {
				continue
			}
			var upperBound types.Value
			for k, yk := range y {
				upperBound += stats.O.Get(i, k) * types.Value(yk)
			}
			if upperBound < alpha {
				feasible = false
				break
			}
			u := a.solveCell(depth, s, m, node, rowActions, colActions, i, j)
			stats.P.Set(i, j, u)
			stats.O.Set(i, j, u)
		}
		if !feasible {
			continue
		}
		var expected types.Value
		for j, yj := range y {
			expected += stats.P.Get(i, j) * types.Value(yj)
		}
		if best == -1 || expected > bestVal {
			best, bestVal = i, expected
		}
	}
	return best, bestVal
}

// bestResponseCol mirrors bestResponseRow for the column player, which
// minimizes expected payoff against row strategy x. Before recursing into
// an unresolved cell it checks the column's pessimistic lower bound built
// from every row's pre-resolve p[*][j]: if that bound already exceeds
// beta, no value the unresolved cell could take would bring the column
// back into contention, so the recursive solve is skipped.
func (a *AlphaBetaEnumerable) bestResponseCol(depth int, s state.State, m model.Model, node *ABENode, rowActions, colActions []types.Action, beta types.Value, x []types.Real) (int, types.Value) {
	stats := &node.Stats
	best, bestVal := -1, types.MaxVal
	for j := 0; j < len(colActions); j++ {
		feasible := true
		for i, xi := range x {
			if xi <= 0 || fuzzyEqualValue(stats.P.Get(i, j), stats.O.Get(i, j)) {
				continue
			}
			var lowerBound types.Value
			for k, xk := range x {
				lowerBound += stats.P.Get(k, j) * types.Value(xk)
			}
			if lowerBound > beta {
				feasible = false
				break
			}
			u := a.solveCell(depth, s, m, node, rowActions, colActions, i, j)
			stats.P.Set(i, j, u)
			stats.O.Set(i, j, u)
		}
		if !feasible {
			continue
		}
		var expected types.Value
		for i, xi := range x {
			expected += stats.O.Get(i, j) * types.Value(xi)
		}
		if best == -1 || expected < bestVal {
			best, bestVal = j, expected
		}
	}
	return best, bestVal
}

func fuzzyEqualValue(a, b types.Value) bool {
	return types.FuzzyEqual(types.Real(a), types.Real(b))
}

func subMatrix(m types.Matrix[types.Value], rows, cols []int) types.Matrix[types.Value] {
	out := types.NewMatrix[types.Value](len(rows), len(cols))
	for ii, i := range rows {
		for jj, j := range cols {
			out.Set(ii, jj, m.Get(i, j))
		}
	}
	return out
}

// expandStrategy scatters a strategy defined over the restricted index set
// idx back into a full-length vector of zeros elsewhere.
func expandStrategy(strategy []types.Real, idx []int, full int) []types.Real {
	out := make([]types.Real, full)
	for k, i := range idx {
		out[i] = strategy[k]
	}
	return out
}

func insertSorted(xs []int, v int) []int {
	if slices.Contains(xs, v) {
		return xs
	}
	out := append(xs, v)
	slices.Sort(out)
	return out
}

func argmaxReal(xs []types.Real) int {
	best := 0
	for k, x := range xs {
		if x > xs[best] {
			best = k
		}
	}
	return best
}

// chanceActionsOf enumerates a joint action's chance outcomes the same way
// FullTraversal.chanceActions does.
func chanceActionsOf(s state.State, row, col types.Action) []state.ChanceOutcome {
	if es, ok := s.(state.EnumerableChanceState); ok {
		return es.GetChanceActions(row, col)
	}
	sample := s.Clone()
	sample.ApplyActions(row, col)
	return []state.ChanceOutcome{{Obs: sample.GetObs(), Prob: sample.GetProb()}}
}
