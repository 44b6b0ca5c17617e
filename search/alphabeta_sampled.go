package search

import (
	"simzero/model"
	"simzero/solver"
	"simzero/state"
	"simzero/tree"
	"simzero/types"

	"golang.org/x/exp/rand"
	"golang.org/x/exp/slices"
)

// ABSChanceStats is the per-cell exploration ledger for the sampled-chance
// double oracle: the unexplored probability mass, the alpha/beta-weighted
// value accumulated from branches discovered so far, how many samples have
// been drawn, and the discovered branches themselves (probability and the
// seed that produced them; the branch's child matrix node lives in the
// surrounding tree.ChanceNode, so it is not duplicated here).
type ABSChanceStats struct {
	Unexplored    types.Prob
	AlphaExplored types.Value
	BetaExplored  types.Value
	Tries         int
	BranchProbs   map[types.Obs]types.Prob
	BranchSeeds   map[types.Obs]uint64
}

// ABSMatrixStats is the per-matrix-node statistics payload: the restricted
// action sets I, J, the current sub-game solution over them, the
// converged (alpha, beta) bracket and the cached principal indices used to
// seed I, J on a later run.
type ABSMatrixStats struct {
	I, J                             []int
	RowSolution, ColSolution         []types.Real
	RowPrincipalIdx, ColPrincipalIdx int
	Alpha, Beta                      types.Value
	Depth                            int
}

type ABSNode = tree.MatrixNode[ABSMatrixStats, ABSChanceStats]
type ABSChance = tree.ChanceNode[ABSMatrixStats, ABSChanceStats]

// NewABSNode allocates a fresh, unexpanded root for the sampled-chance
// double oracle.
func NewABSNode() *ABSNode { return tree.NewMatrixNode[ABSMatrixStats, ABSChanceStats](0) }

// AlphaBetaSampled is the simultaneous-move double oracle for states whose
// chance support cannot be enumerated: each cell explores by repeatedly
// drawing a seed, applying the joint action and hashing the observation,
// stopping once a tries/unexplored-mass budget is satisfied.
type AlphaBetaSampled struct {
	Solver solver.MatrixSolver
	Device *rand.Rand

	MinTries, MaxTries int
	MaxUnexplored      types.Prob

	// ClampUnexplored keeps total unexplored mass >= 0 after every
	// subtraction, guarding against float64 underflow when reported
	// probabilities don't sum to exactly 1. Default true; set false only
	// when running with an exact Real end to end.
	ClampUnexplored bool

	// RetainPrincipal mirrors AlphaBetaEnumerable's option of the same
	// name.
	RetainPrincipal bool
}

// NewAlphaBetaSampled builds a sampled-chance double oracle with the given
// solver, PRNG device and exploration budget.
func NewAlphaBetaSampled(solve solver.MatrixSolver, device *rand.Rand, minTries, maxTries int, maxUnexplored types.Prob) *AlphaBetaSampled {
	return &AlphaBetaSampled{
		Solver:          solve,
		Device:          device,
		MinTries:        minTries,
		MaxTries:        maxTries,
		MaxUnexplored:   maxUnexplored,
		ClampUnexplored: true,
	}
}

// Run grows I, J on root until alpha and beta agree (or the outer loop
// stalls), returning the converged bracket.
func (a *AlphaBetaSampled) Run(maxDepth int, s state.State, m model.Model, root *ABSNode) (alpha, beta types.Value) {
	if root.Expanded {
		i0, j0 := 0, 0
		if a.RetainPrincipal {
			i0, j0 = root.Stats.RowPrincipalIdx, root.Stats.ColPrincipalIdx
		}
		root.Stats.I, root.Stats.J = []int{i0}, []int{j0}
	}
	return a.search(maxDepth, s, m, root, types.MinVal, types.MaxVal)
}

func (a *AlphaBetaSampled) search(depth int, s state.State, m model.Model, node *ABSNode, alpha, beta types.Value) (types.Value, types.Value) {
	rowActions, colActions := s.GetActions()
	node.TryExpand(func() {
		node.Expand(rowActions, colActions)
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

	stats := &node.Stats
	for {
		// Drive every active cell's exploration to budget before
		// solving, mirroring the enumerable variant's "for each
		// (i,j) in I x J, resolve u" pre-solve step.
		for _, i := range stats.I {
			for _, j := range stats.J {
				chance := node.Access(i, j)
				a.ensureCell(chance)
				for !a.budgetExhausted(chance) {
					a.explore(depth, s, m, rowActions[i], colActions[j], chance)
				}
			}
		}

		alphaMat, betaMat, exact := a.buildMatrices(node, stats.I, stats.J)
		var rowSol, colSol []types.Real
		if exact {
			rs, cs, _ := a.Solver.Solve(&alphaMat)
			solver.CheckSolution(&alphaMat, rs, cs)
			rowSol, colSol = rs, cs
		} else {
			rs, cs, _ := a.Solver.Solve(&alphaMat)
			solver.CheckSolution(&alphaMat, rs, cs)
			rs2, cs2, _ := a.Solver.Solve(&betaMat)
			solver.CheckSolution(&betaMat, rs2, cs2)
			rowSol, colSol = rs, cs2
		}
		stats.RowSolution, stats.ColSolution = rowSol, colSol

		colStrategyFull := expandStrategy(colSol, stats.J, len(colActions))
		rowStrategyFull := expandStrategy(rowSol, stats.I, len(rowActions))

		i0, vMax := a.bestResponseRow(depth, s, m, node, rowActions, colActions, beta, colStrategyFull)
		j0, vMin := a.bestResponseCol(depth, s, m, node, rowActions, colActions, alpha, rowStrategyFull)

		if i0 == -1 {
			node.Value = types.MinVal
			return types.MinVal, types.MinVal
		}
		if j0 == -1 {
			node.Value = types.MaxVal
			return types.MaxVal, types.MaxVal
		}

		newAlpha, newBeta := alpha, beta
		if vMin > newAlpha {
			newAlpha = vMin
		}
		if vMax < newBeta {
			newBeta = vMax
		}
		tightened := newAlpha != alpha || newBeta != beta
		alpha, beta = newAlpha, newBeta

		addedRow := !slices.Contains(stats.I, i0)
		addedCol := !slices.Contains(stats.J, j0)
		stats.I = insertSorted(stats.I, i0)
		stats.J = insertSorted(stats.J, j0)

		if fuzzyEqualValue(alpha, beta) {
			break
		}
		if !addedRow && !addedCol && !tightened {
			break
		}
	}

	stats.Alpha, stats.Beta = alpha, beta
	node.Value = (alpha + beta) / 2
	if len(stats.RowSolution) > 0 {
		stats.RowPrincipalIdx = stats.I[argmaxReal(stats.RowSolution)]
	}
	if len(stats.ColSolution) > 0 {
		stats.ColPrincipalIdx = stats.J[argmaxReal(stats.ColSolution)]
	}
	return alpha, beta
}

// ensureCell lazily initializes a freshly allocated chance node's
// exploration ledger: no branches discovered yet, full probability mass
// unexplored.
func (a *AlphaBetaSampled) ensureCell(chance *ABSChance) {
	if chance.Stats.BranchProbs == nil {
		chance.Stats.BranchProbs = make(map[types.Obs]types.Prob)
		chance.Stats.BranchSeeds = make(map[types.Obs]uint64)
		chance.Stats.Unexplored = 1
	}
}

// budgetExhausted reports whether a cell has been sampled enough to stop:
// either the hard cap max_tries was hit, or min_tries were spent and the
// remaining unexplored mass has shrunk to max_unexplored.
func (a *AlphaBetaSampled) budgetExhausted(chance *ABSChance) bool {
	s := &chance.Stats
	if s.Tries >= a.MaxTries {
		return true
	}
	return s.Tries >= a.MinTries && s.Unexplored <= a.MaxUnexplored
}

// explore draws one sample at a cell: a fresh 64-bit seed, the resulting
// observation, and -- only on a novel observation -- a recursive solve of
// the new branch folded into alpha_explored/beta_explored. It reports
// whether the cell's budget allowed a sample to be drawn at all.
func (a *AlphaBetaSampled) explore(depth int, s state.State, m model.Model, row, col types.Action, chance *ABSChance) bool {
	if a.budgetExhausted(chance) {
		return false
	}

	seed := a.Device.Uint64()
	child := s.Clone()
	child.RandomizeTransition(seed)
	child.ApplyActions(row, col)
	obs := child.GetObs()
	prob := child.GetProb()

	stats := &chance.Stats
	stats.Tries++

	if _, known := stats.BranchProbs[obs]; known {
		return true
	}

	stats.BranchProbs[obs] = prob
	stats.BranchSeeds[obs] = seed
	unexplored := stats.Unexplored - prob
	if a.ClampUnexplored && unexplored < 0 {
		unexplored = 0
	}
	stats.Unexplored = unexplored

	childNode, _ := chance.Access(obs)
	childAlpha, childBeta := a.search(depth-1, child, m, childNode, types.MinVal, types.MaxVal)
	stats.AlphaExplored += types.Value(prob) * childAlpha
	stats.BetaExplored += types.Value(prob) * childBeta
	return true
}

// buildMatrices builds the alpha and beta bound matrices over I x J from
// each cell's current exploration ledger, and reports whether every cell
// has zero unexplored mass (so alpha and beta matrices coincide and a
// single solve suffices).
func (a *AlphaBetaSampled) buildMatrices(node *ABSNode, I, J []int) (types.Matrix[types.Value], types.Matrix[types.Value], bool) {
	alphaMat := types.NewMatrix[types.Value](len(I), len(J))
	betaMat := types.NewMatrix[types.Value](len(I), len(J))
	exact := true
	for ii, i := range I {
		for jj, j := range J {
			chance := node.Access(i, j)
			a.ensureCell(chance)
			s := chance.Stats
			unexplored := types.Value(s.Unexplored)
			alphaMat.Set(ii, jj, s.AlphaExplored+unexplored*types.MinVal)
			betaMat.Set(ii, jj, s.BetaExplored+unexplored*types.MaxVal)
			if s.Unexplored > 0 {
				exact = false
			}
		}
	}
	return alphaMat, betaMat, exact
}

// bestResponseRow finds the row maximizing expected payoff against column
// strategy y, spending exploration budget on the highest-priority
// (y[j]*unexplored[i][j]) cell until the row can no longer possibly beat
// the current best response or its priorities are exhausted.
func (a *AlphaBetaSampled) bestResponseRow(depth int, s state.State, m model.Model, node *ABSNode, rowActions, colActions []types.Action, beta types.Value, y []types.Real) (int, types.Value) {
	best, bestVal := -1, types.MinVal
	for i := 0; i < len(rowActions); i++ {
		expected, totalUnexplored := a.rowExpectedAlpha(node, i, rowActions, colActions, y)
		for {
			priorities, anyPositive := a.rowPriorities(node, i, len(colActions), y)
			if !anyPositive {
				break
			}
			if float64(expected)+float64(beta)*totalUnexplored < float64(bestVal) {
				break
			}
			j := argmaxFloat(priorities)
			chance := node.Access(i, j)
			if !a.explore(depth, s, m, rowActions[i], colActions[j], chance) {
				continue // budget exhausted at this cell; priorities recompute to 0 next pass
			}
			expected, totalUnexplored = a.rowExpectedAlpha(node, i, rowActions, colActions, y)
		}

		if best == -1 || expected > bestVal {
			best, bestVal = i, expected
		}
	}
	return best, bestVal
}

// bestResponseCol mirrors bestResponseRow for the column player, which
// minimizes expected payoff (using the beta / optimistic bound) against
// row strategy x.
func (a *AlphaBetaSampled) bestResponseCol(depth int, s state.State, m model.Model, node *ABSNode, rowActions, colActions []types.Action, alpha types.Value, x []types.Real) (int, types.Value) {
	best, bestVal := -1, types.MaxVal
	for j := 0; j < len(colActions); j++ {
		expected, totalUnexplored := a.colExpectedBeta(node, j, rowActions, colActions, x)
		for {
			priorities, anyPositive := a.colPriorities(node, j, len(rowActions), x)
			if !anyPositive {
				break
			}
			if float64(expected)+float64(alpha)*totalUnexplored > float64(bestVal) {
				break
			}
			i := argmaxFloat(priorities)
			chance := node.Access(i, j)
			if !a.explore(depth, s, m, rowActions[i], colActions[j], chance) {
				continue
			}
			expected, totalUnexplored = a.colExpectedBeta(node, j, rowActions, colActions, x)
		}

		if best == -1 || expected < bestVal {
			best, bestVal = j, expected
		}
	}
	return best, bestVal
}

func (a *AlphaBetaSampled) rowExpectedAlpha(node *ABSNode, i int, rowActions, colActions []types.Action, y []types.Real) (types.Value, float64) {
	var expected types.Value
	var totalUnexplored float64
	for j, yj := range y {
		chance := node.Access(i, j)
		a.ensureCell(chance)
		s := chance.Stats
		alphaCell := s.AlphaExplored + types.Value(s.Unexplored)*types.MinVal
		expected += alphaCell * types.Value(yj)
		totalUnexplored += float64(yj) * float64(s.Unexplored)
	}
	return expected, totalUnexplored
}

func (a *AlphaBetaSampled) colExpectedBeta(node *ABSNode, j int, rowActions, colActions []types.Action, x []types.Real) (types.Value, float64) {
	var expected types.Value
	var totalUnexplored float64
	for i, xi := range x {
		chance := node.Access(i, j)
		a.ensureCell(chance)
		s := chance.Stats
		betaCell := s.BetaExplored + types.Value(s.Unexplored)*types.MaxVal
		expected += betaCell * types.Value(xi)
		totalUnexplored += float64(xi) * float64(s.Unexplored)
	}
	return expected, totalUnexplored
}

func (a *AlphaBetaSampled) rowPriorities(node *ABSNode, i, cols int, y []types.Real) ([]float64, bool) {
	priorities := make([]float64, cols)
	any := false
	for j := 0; j < cols; j++ {
		chance := node.Access(i, j)
		a.ensureCell(chance)
		if a.budgetExhausted(chance) {
			continue
		}
		priorities[j] = float64(y[j]) * float64(chance.Stats.Unexplored)
		if priorities[j] > 0 {
			any = true
		}
	}
	return priorities, any
}

func (a *AlphaBetaSampled) colPriorities(node *ABSNode, j, rows int, x []types.Real) ([]float64, bool) {
	priorities := make([]float64, rows)
	any := false
	for i := 0; i < rows; i++ {
		chance := node.Access(i, j)
		a.ensureCell(chance)
		if a.budgetExhausted(chance) {
			continue
		}
		priorities[i] = float64(x[i]) * float64(chance.Stats.Unexplored)
		if priorities[i] > 0 {
			any = true
		}
	}
	return priorities, any
}

func argmaxFloat(xs []float64) int {
	best := 0
	for i, x := range xs {
		if x > xs[best] {
			best = i
		}
	}
	return best
}
