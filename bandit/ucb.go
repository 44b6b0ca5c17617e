package bandit

import (
	"math"

	"simzero/types"

	"golang.org/x/exp/rand"
)

// UCB selects each side's action independently via UCB1, generalizing the
// single-player UCT used by decision-node trees to the simultaneous-move
// row/col split: each side maximizes its own empirical mean (the column
// side's gains accumulate the zero-sum complement of the row value) plus
// an exploration bonus over its own visit counts.
type UCB struct {
	// C is the exploration constant; C_SQUARED in the single-player
	// form. Defaults to 2.
	C float64
}

func NewUCB(c float64) *UCB {
	if c <= 0 {
		c = 2
	}
	return &UCB{C: c}
}

func (u *UCB) InitializeStats(n *Node, rows, cols int) {
	n.Stats = MatrixStats{
		RowGains:  make([]types.Real, rows),
		ColGains:  make([]types.Real, cols),
		RowVisits: make([]int, rows),
		ColVisits: make([]int, cols),
	}
}

func (u *UCB) Select(device *rand.Rand, n *Node) Outcome {
	rowIdx := u.pick(n.Stats.RowGains, n.Stats.RowVisits, n.Stats.Visits, true)
	colIdx := u.pick(n.Stats.ColGains, n.Stats.ColVisits, n.Stats.Visits, true)
	return Outcome{RowIdx: rowIdx, ColIdx: colIdx, RowMu: 1, ColMu: 1}
}

// pick returns the action maximizing mean plus the exploration bonus, or,
// with maximize false, minimizing mean minus it. Unvisited actions are
// picked first.
func (u *UCB) pick(gains []types.Real, visits []int, totalVisits int, maximize bool) int {
	if len(gains) == 1 {
		return 0
	}

	best := -1
	bestScore := math.Inf(-1)
	if !maximize {
		bestScore = math.Inf(1)
	}

	for i, v := range visits {
		if v == 0 {
			return i
		}
		mean := float64(gains[i]) / float64(v)
		bonus := math.Sqrt(u.C * math.Log(float64(totalVisits)) / float64(v))

		var score float64
		if maximize {
			score = mean + bonus
		} else {
			score = mean - bonus
		}

		if (maximize && score > bestScore) || (!maximize && score < bestScore) {
			best, bestScore = i, score
		}
	}
	return best
}

func (u *UCB) UpdateMatrixStats(n *Node, outcome Outcome) {
	s := &n.Stats
	s.Visits++
	s.RowVisits[outcome.RowIdx]++
	s.ColVisits[outcome.ColIdx]++
	s.ValueTotal += outcome.RowValue

	s.RowGains[outcome.RowIdx] += types.Real(outcome.RowValue)
	s.ColGains[outcome.ColIdx] += types.Real(types.ZeroSumComplement(outcome.RowValue))
}

func (u *UCB) UpdateChanceStats(c *Chance, outcome Outcome) {
	c.Stats.Visits++
}

func (u *UCB) EmpiricalStrategies(n *Node) ([]types.Real, []types.Real) {
	return visitsToStrategy(n.Stats.RowVisits, n.Stats.Visits), visitsToStrategy(n.Stats.ColVisits, n.Stats.Visits)
}

func (u *UCB) EmpiricalValues(n *Node) types.Value {
	return empiricalValue(n.Stats)
}
