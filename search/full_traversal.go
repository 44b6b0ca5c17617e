// Package search implements the four interchangeable search algorithms
// this module exists to provide: full traversal, simultaneous-move
// alpha-beta double oracle (enumerable and sampled chance) and tree-bandit
// (MCTS-style) search. All four share the tree package's MatrixNode/
// ChanceNode arborescence and the state/model/solver contracts.
package search

import (
	"sync"

	"simzero/model"
	"simzero/solver"
	"simzero/state"
	"simzero/tree"
	"simzero/types"

	"github.com/rs/zerolog/log"
)

// FullMatrixStats is the per-matrix-node statistics payload for full
// traversal: the solved payoff, the equilibrium strategies and the
// accumulated nash payoff matrix that produced them.
type FullMatrixStats struct {
	Payoff           types.Value
	RowSolution      []types.Real
	ColSolution      []types.Real
	NashPayoffMatrix types.Matrix[types.Value]
	Depth            int
	Prob             types.Prob
}

// FullChanceStats is the per-chance-node statistics payload for full
// traversal: the enumerated chance outcomes and whether this cell has
// already been fully solved (used by the threaded variant to skip work).
type FullChanceStats struct {
	Outcomes []state.ChanceOutcome
	Solved   bool
}

// FullNode and FullChance alias the tree types instantiated with full
// traversal's statistics payloads.
type FullNode = tree.MatrixNode[FullMatrixStats, FullChanceStats]
type FullChance = tree.ChanceNode[FullMatrixStats, FullChanceStats]

// NewFullNode allocates a fresh, unexpanded root for full traversal.
func NewFullNode() *FullNode { return tree.NewMatrixNode[FullMatrixStats, FullChanceStats](0) }

// FullTraversal exhaustively expands the game tree to a bounded depth,
// solving a matrix sub-game at every matrix node from its children's
// solved values.
type FullTraversal struct {
	Solver solver.MatrixSolver
	// Threads, when > 1, runs cell expansion across a goroutine pool
	// with per-chance-node try-lock work stealing.
	Threads int
}

// NewFullTraversal builds a single-threaded full traversal search using
// the given matrix solver.
func NewFullTraversal(solve solver.MatrixSolver) *FullTraversal {
	return &FullTraversal{Solver: solve, Threads: 1}
}

// Run recursively expands root to maxDepth and returns the root's solved
// row value (the column value is its zero-sum complement).
func (f *FullTraversal) Run(maxDepth int, s state.State, m model.Model, root *FullNode) (types.Value, error) {
	if maxDepth < 0 {
		return 0, ErrNegativeDepth
	}
	if f.Threads > 1 {
		return f.expandThreaded(maxDepth, s, m, root), nil
	}
	return f.expand(maxDepth, s, m, root), nil
}

func (f *FullTraversal) expand(depth int, s state.State, m model.Model, node *FullNode) types.Value {
	rowActions, colActions := s.GetActions()
	node.TryExpand(func() { node.Expand(rowActions, colActions) })

	if s.IsTerminal() {
		node.Terminal = true
		node.Value = s.GetPayoff()
		node.Stats.Payoff = node.Value
		return node.Value
	}
	if depth <= 0 {
		node.Value = m.Inference(s).Value
		node.Stats.Payoff = node.Value
		return node.Value
	}

	rows, cols := node.Rows(), node.Cols()
	nash := types.NewMatrix[types.Value](rows, cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			chance := node.Access(i, j)
			outcomes := f.chanceActions(s, rowActions[i], colActions[j])
			chance.Stats.Outcomes = outcomes

			var acc types.Value
			for _, outcome := range outcomes {
				child, _ := chance.Access(outcome.Obs)
				childState := applyChance(s, rowActions[i], colActions[j], outcome.Obs)
				v := f.expand(depth-1, childState, m, child)
				acc += v * types.Value(outcome.Prob)
			}
			nash.Set(i, j, acc)
		}
	}

	node.Stats.NashPayoffMatrix = nash
	rowSol, colSol, value := f.Solver.Solve(&nash)
	solver.CheckSolution(&nash, rowSol, colSol)
	node.Stats.RowSolution = rowSol
	node.Stats.ColSolution = colSol
	node.Stats.Payoff = value
	node.Value = value
	return value
}

// chanceActions enumerates the distinct observations reachable from
// (row, col) at s. States implementing state.EnumerableChanceState report
// their full chance support; every other state is treated as having a
// single deterministic branch obtained by sampling once, which keeps full
// traversal usable against states that never expose enumerable chance.
func (f *FullTraversal) chanceActions(s state.State, row, col types.Action) []state.ChanceOutcome {
	if es, ok := s.(state.EnumerableChanceState); ok {
		return es.GetChanceActions(row, col)
	}
	sample := s.Clone()
	sample.ApplyActions(row, col)
	return []state.ChanceOutcome{{Obs: sample.GetObs(), Prob: sample.GetProb()}}
}

// applyChance advances a clone of s by (row, col) to the named outcome.
// States implementing state.ApplyChance advance deterministically to that
// exact outcome; others are advanced by plain ApplyActions, which lands on
// whatever outcome the state's own seed draws. That matches obs whenever
// the joint action has a single outcome, as on chanceActions' single-branch
// path; for a state listing several outcomes without implementing
// state.ApplyChance, the landed outcome is not guaranteed to be obs.
func applyChance(s state.State, row, col types.Action, obs types.Obs) state.State {
	child := s.Clone()
	if ac, ok := child.(state.ApplyChance); ok {
		ac.ApplyChanceAction(row, col, obs)
		return child
	}
	child.ApplyActions(row, col)
	return child
}

// expandThreaded parallelizes cell expansion across f.Threads goroutines.
// Each worker try-locks a chance node before working on it; on contention
// it skips to the next cell rather than blocking, so other workers keep
// making progress on cells nobody else has claimed yet. Matrix-node
// expansion stays serialized through MatrixNode.TryExpand.
func (f *FullTraversal) expandThreaded(depth int, s state.State, m model.Model, node *FullNode) types.Value {
	rowActions, colActions := s.GetActions()
	node.TryExpand(func() { node.Expand(rowActions, colActions) })

	if s.IsTerminal() {
		node.Terminal = true
		node.Value = s.GetPayoff()
		node.Stats.Payoff = node.Value
		return node.Value
	}
	if depth <= 0 {
		node.Value = m.Inference(s).Value
		node.Stats.Payoff = node.Value
		return node.Value
	}

	rows, cols := node.Rows(), node.Cols()
	nash := types.NewMatrix[types.Value](rows, cols)
	var nashMu sync.Mutex

	type cell struct{ i, j int }
	cells := make(chan cell, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			cells <- cell{i, j}
		}
	}
	close(cells)

	pending := make(chan cell, rows*cols)
	var wg sync.WaitGroup
	for t := 0; t < f.Threads; t++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			scratch := s.Clone()
			for c := range cells {
				if !f.solveCell(depth, scratch, m, node, rowActions, colActions, c.i, c.j, &nash, &nashMu) {
					pending <- c
				}
			}
		}()
	}
	wg.Wait()
	close(pending)

	// Work-stealing retry pass: any cell a worker skipped on contention
	// is guaranteed uncontended by the time every worker has drained the
	// first pass, since a chance node is only ever locked transiently.
	for c := range pending {
		scratch := s.Clone()
		chance := node.Access(c.i, c.j)
		chance.Lock()
		f.solveCellLocked(depth, scratch, m, rowActions, colActions, c.i, c.j, chance, &nash, &nashMu)
		chance.Unlock()
	}

	node.Stats.NashPayoffMatrix = nash
	rowSol, colSol, value := f.Solver.Solve(&nash)
	solver.CheckSolution(&nash, rowSol, colSol)
	node.Stats.RowSolution = rowSol
	node.Stats.ColSolution = colSol
	node.Stats.Payoff = value
	node.Value = value
	return value
}

func (f *FullTraversal) solveCell(depth int, s state.State, m model.Model, node *FullNode, rowActions, colActions []types.Action, i, j int, nash *types.Matrix[types.Value], nashMu *sync.Mutex) bool {
	chance := node.Access(i, j)
	if !chance.TryLock() {
		return false
	}
	defer chance.Unlock()
	if chance.Stats.Solved {
		return true
	}
	f.solveCellLocked(depth, s, m, rowActions, colActions, i, j, chance, nash, nashMu)
	return true
}

func (f *FullTraversal) solveCellLocked(depth int, s state.State, m model.Model, rowActions, colActions []types.Action, i, j int, chance *FullChance, nash *types.Matrix[types.Value], nashMu *sync.Mutex) {
	outcomes := f.chanceActions(s, rowActions[i], colActions[j])
	chance.Stats.Outcomes = outcomes

	var acc types.Value
	for _, outcome := range outcomes {
		child, _ := chance.Access(outcome.Obs)
		childState := applyChance(s, rowActions[i], colActions[j], outcome.Obs)
		v := f.expand(depth-1, childState, m, child)
		acc += v * types.Value(outcome.Prob)
	}
	chance.Stats.Solved = true

	nashMu.Lock()
	nash.Set(i, j, acc)
	nashMu.Unlock()
}

// RunWithLog wraps Run with a zerolog entry, logging around the search
// rather than inside its inner loops.
func RunWithLog(f *FullTraversal, maxDepth int, s state.State, m model.Model, root *FullNode) (types.Value, error) {
	v, err := f.Run(maxDepth, s, m, root)
	if err != nil {
		log.Error().Err(err).Int("max_depth", maxDepth).Msg("full traversal failed")
		return v, err
	}
	log.Debug().Int("max_depth", maxDepth).Float64("value", float64(v)).Msg("full traversal complete")
	return v, nil
}
