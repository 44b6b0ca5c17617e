package bandit

import (
	"math"

	"simzero/types"

	"golang.org/x/exp/rand"
)

// Exp3 is the exponential-weights bandit: forecast
// (1-gamma)*softmax(gains*gamma/k) + gamma/k, sampled independently for
// both players.
type Exp3 struct {
	// Gamma is the exploration rate in (0, 1]. Defaults to 0.1.
	Gamma float64
}

// NewExp3 builds an Exp3 bandit with the given exploration rate.
func NewExp3(gamma float64) *Exp3 {
	if gamma <= 0 || gamma > 1 {
		gamma = 0.1
	}
	return &Exp3{Gamma: gamma}
}

func (e *Exp3) InitializeStats(n *Node, rows, cols int) {
	n.Stats = MatrixStats{
		RowGains:   make([]types.Real, rows),
		ColGains:   make([]types.Real, cols),
		RowVisits:  make([]int, rows),
		ColVisits:  make([]int, cols),
	}
}

func (e *Exp3) Select(device *rand.Rand, n *Node) Outcome {
	rowForecast := e.forecast(n.Stats.RowGains)
	colForecast := e.forecast(n.Stats.ColGains)

	rowIdx := sampleIndex(device, rowForecast)
	colIdx := sampleIndex(device, colForecast)

	return Outcome{
		RowIdx: rowIdx,
		ColIdx: colIdx,
		RowMu:  types.Prob(rowForecast[rowIdx]),
		ColMu:  types.Prob(colForecast[colIdx]),
	}
}

// forecast computes (1-gamma)*softmax(gains*gamma/k) + gamma/k. A single
// action side always forecasts [1].
func (e *Exp3) forecast(gains []types.Real) []types.Real {
	k := len(gains)
	if k == 1 {
		return []types.Real{1}
	}

	eta := e.Gamma / float64(k)
	weights := softmax(gains, eta)

	out := make([]types.Real, k)
	for i, w := range weights {
		out[i] = types.Real((1-e.Gamma)*w + eta)
	}
	return out
}

// softmax computes softmax(gains*scale), shifting by the max scaled gain
// before exponentiation for numerical stability.
func softmax(gains []types.Real, scale float64) []float64 {
	scaled := make([]float64, len(gains))
	max := math.Inf(-1)
	for i, g := range gains {
		scaled[i] = float64(g) * scale
		if scaled[i] > max {
			max = scaled[i]
		}
	}
	sum := 0.0
	weights := make([]float64, len(gains))
	for i, s := range scaled {
		weights[i] = math.Exp(s - max)
		sum += weights[i]
	}
	for i := range weights {
		weights[i] /= sum
	}
	return weights
}

func sampleIndex(device *rand.Rand, forecast []types.Real) int {
	x := device.Float64()
	cumulative := types.Real(0)
	for i, p := range forecast {
		cumulative += p
		if types.Real(x) < cumulative {
			return i
		}
	}
	return len(forecast) - 1
}

func (e *Exp3) UpdateMatrixStats(n *Node, outcome Outcome) {
	s := &n.Stats
	s.Visits++
	s.RowVisits[outcome.RowIdx]++
	s.ColVisits[outcome.ColIdx]++
	s.ValueTotal += outcome.RowValue

	if outcome.RowMu > 0 {
		s.RowGains[outcome.RowIdx] += types.Real(outcome.RowValue) / types.Real(outcome.RowMu)
	}
	colValue := types.ZeroSumComplement(outcome.RowValue)
	if outcome.ColMu > 0 {
		s.ColGains[outcome.ColIdx] += types.Real(colValue) / types.Real(outcome.ColMu)
	}

	shiftIfNonNegative(s.RowGains, outcome.RowIdx)
	shiftIfNonNegative(s.ColGains, outcome.ColIdx)
}

// shiftIfNonNegative subtracts the max gain from every gain on this side
// if the just-touched gain became >= 0, which keeps gains <= 0 (avoiding
// overflow in the softmax exponential) without changing their relative
// order.
func shiftIfNonNegative(gains []types.Real, touched int) {
	if gains[touched] < 0 {
		return
	}
	max := gains[0]
	for _, g := range gains[1:] {
		if g > max {
			max = g
		}
	}
	for i := range gains {
		gains[i] -= max
	}
}

func (e *Exp3) UpdateChanceStats(c *Chance, outcome Outcome) {
	c.Stats.Visits++
}

func (e *Exp3) EmpiricalStrategies(n *Node) ([]types.Real, []types.Real) {
	return visitsToStrategy(n.Stats.RowVisits, n.Stats.Visits), visitsToStrategy(n.Stats.ColVisits, n.Stats.Visits)
}

func (e *Exp3) EmpiricalValues(n *Node) types.Value {
	return empiricalValue(n.Stats)
}
