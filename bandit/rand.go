package bandit

import (
	"simzero/types"

	"golang.org/x/exp/rand"
)

// Rand selects uniformly over rows x cols, ignoring all accumulated
// statistics. It is the baseline every other bandit is measured against.
type Rand struct{}

func NewRand() *Rand { return &Rand{} }

func (r *Rand) InitializeStats(n *Node, rows, cols int) {
	n.Stats = MatrixStats{
		RowVisits: make([]int, rows),
		ColVisits: make([]int, cols),
	}
}

func (r *Rand) Select(device *rand.Rand, n *Node) Outcome {
	rowIdx := device.Intn(len(n.Stats.RowVisits))
	colIdx := device.Intn(len(n.Stats.ColVisits))
	return Outcome{
		RowIdx: rowIdx,
		ColIdx: colIdx,
		RowMu:  types.Prob(1) / types.Prob(len(n.Stats.RowVisits)),
		ColMu:  types.Prob(1) / types.Prob(len(n.Stats.ColVisits)),
	}
}

func (r *Rand) UpdateMatrixStats(n *Node, outcome Outcome) {
	s := &n.Stats
	s.Visits++
	s.RowVisits[outcome.RowIdx]++
	s.ColVisits[outcome.ColIdx]++
	s.ValueTotal += outcome.RowValue
}

func (r *Rand) UpdateChanceStats(c *Chance, outcome Outcome) {
	c.Stats.Visits++
}

func (r *Rand) EmpiricalStrategies(n *Node) ([]types.Real, []types.Real) {
	return visitsToStrategy(n.Stats.RowVisits, n.Stats.Visits), visitsToStrategy(n.Stats.ColVisits, n.Stats.Visits)
}

func (r *Rand) EmpiricalValues(n *Node) types.Value {
	return empiricalValue(n.Stats)
}
