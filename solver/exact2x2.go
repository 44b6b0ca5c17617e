package solver

import "simzero/types"

// Exact2x2 solves 2x2 zero-sum matrix games in closed form, and falls back
// to FictitiousPlay.Solve for any other shape. 2x2 games have a well known
// closed-form equilibrium, which makes this the solver of choice whenever
// a test needs a bitwise-exact value rather than an iterated approximation.
type Exact2x2 struct {
	Fallback *FictitiousPlay
}

func NewExact2x2() *Exact2x2 {
	return &Exact2x2{Fallback: NewFictitiousPlay(0)}
}

func (e *Exact2x2) Solve(m *types.Matrix[types.Value]) ([]types.Real, []types.Real, types.Value) {
	if m.Rows != 2 || m.Cols != 2 {
		return e.Fallback.Solve(m)
	}

	// A pure saddle point (an entry that is the minimum of its row and the
	// maximum of its column) is the equilibrium; the mixed closed form
	// below only holds when there is none.
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			v := m.Get(i, j)
			if v <= m.Get(i, 1-j) && v >= m.Get(1-i, j) {
				row, col := []types.Real{0, 0}, []types.Real{0, 0}
				row[i], col[j] = 1, 1
				return row, col, v
			}
		}
	}

	a, b := float64(m.Get(0, 0)), float64(m.Get(0, 1))
	c, d := float64(m.Get(1, 0)), float64(m.Get(1, 1))

	denom := a - b - c + d
	if denom == 0 {
		// Degenerate: no interior saddle point, fall back to the
		// iterated approximation rather than dividing by zero.
		return e.Fallback.Solve(m)
	}

	p := (d - c) / denom // P(row picks action 0)
	q := (d - b) / denom // P(col picks action 0)
	value := (a*d - b*c) / denom

	clamp := func(x float64) float64 {
		if x < 0 {
			return 0
		}
		if x > 1 {
			return 1
		}
		return x
	}
	p, q = clamp(p), clamp(q)

	return []types.Real{types.Real(p), types.Real(1 - p)},
		[]types.Real{types.Real(q), types.Real(1 - q)},
		types.Value(value)
}
