// Package bandit implements the tree-bandit statistics protocol shared by
// Exp3, UCB and Rand: per-node select/expand/update, and empirical
// strategy/value extraction from accumulated visit counts.
package bandit

import (
	"simzero/tree"
	"simzero/types"

	"golang.org/x/exp/rand"
)

// MatrixStats is the per-matrix-node statistics payload shared by every
// bandit: row/column gains and visit counts plus a running value total.
// Exp3 uses the gains as importance-weighted rewards and UCB as running
// value sums; Rand leaves them unallocated.
type MatrixStats struct {
	RowGains, ColGains   []types.Real
	RowVisits, ColVisits []int
	Visits               int
	ValueTotal           types.Value
}

// ChanceStats is the per-chance-node statistics payload. The bandits in
// this package only need a visit count at chance nodes.
type ChanceStats struct {
	Visits int
}

// Node and Chance are aliases for the tree types instantiated with this
// package's statistics payloads, used throughout tree-bandit search.
type Node = tree.MatrixNode[MatrixStats, ChanceStats]
type Chance = tree.ChanceNode[MatrixStats, ChanceStats]

// Outcome is produced by Select and consumed by the update methods: the
// sampled joint action, the probability each side sampled it under, and
// (filled in by the caller after recursing) the backed-up value.
type Outcome struct {
	RowIdx, ColIdx int
	RowMu, ColMu   types.Prob
	RowValue       types.Value // row player's value of the backed-up child
	Value          types.Value // alias of RowValue, kept for readability at call sites
}

// Bandit is the pluggable selection/update policy driving tree-bandit
// search. Every implementation shares the same lifecycle: initialize
// stats on expansion, select a joint action on every visit, and update
// matrix/chance stats on backup.
type Bandit interface {
	// InitializeStats seeds a freshly expanded node's stats for the
	// given action counts.
	InitializeStats(n *Node, rows, cols int)

	// Select samples a joint action against the node's current stats.
	Select(device *rand.Rand, n *Node) Outcome

	// UpdateMatrixStats folds a completed iteration's outcome into the
	// matrix node's stats.
	UpdateMatrixStats(n *Node, outcome Outcome)

	// UpdateChanceStats folds a completed iteration's outcome into the
	// chance node's stats.
	UpdateChanceStats(c *Chance, outcome Outcome)

	// EmpiricalStrategies returns visit-count-normalized row/col
	// strategies.
	EmpiricalStrategies(n *Node) (rowStrategy, colStrategy []types.Real)

	// EmpiricalValues returns value_total/visits, guarded against
	// divide by zero.
	EmpiricalValues(n *Node) types.Value
}

func visitsToStrategy(visits []int, total int) []types.Real {
	out := make([]types.Real, len(visits))
	if total == 0 {
		for i := range out {
			out[i] = types.Real(1) / types.Real(len(visits))
		}
		return out
	}
	for i, v := range visits {
		out[i] = types.Real(v) / types.Real(total)
	}
	return out
}

func empiricalValue(s MatrixStats) types.Value {
	if s.Visits == 0 {
		return 0
	}
	return s.ValueTotal / types.Value(s.Visits)
}
