package bandit

import (
	"testing"

	"simzero/types"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func TestExp3Forecast(t *testing.T) {
	e := NewExp3(0.1)

	t.Run("single action side always forecasts [1]", func(t *testing.T) {
		got := e.forecast([]types.Real{5})
		require.Equal(t, []types.Real{1}, got)
	})

	t.Run("zero gains forecast uniformly", func(t *testing.T) {
		got := e.forecast([]types.Real{0, 0, 0, 0})
		for _, p := range got {
			require.InDelta(t, 0.25, float64(p), 1e-9)
		}
	})

	t.Run("forecast sums to 1 regardless of gain spread", func(t *testing.T) {
		got := e.forecast([]types.Real{-3, 0, -1, -8})
		sum := types.Real(0)
		for _, p := range got {
			sum += p
		}
		require.InDelta(t, 1.0, float64(sum), 1e-9)
	})

	t.Run("higher gain forecasts higher probability", func(t *testing.T) {
		got := e.forecast([]types.Real{0, -5})
		require.Greater(t, float64(got[0]), float64(got[1]))
	})

	t.Run("gamma floors every action's probability at gamma/k", func(t *testing.T) {
		got := e.forecast([]types.Real{0, -100})
		require.GreaterOrEqual(t, float64(got[1]), e.Gamma/2-1e-9)
	})
}

func TestExp3Select(t *testing.T) {
	device := rand.New(rand.NewSource(1))
	e := NewExp3(0.1)
	n := &Node{}
	e.InitializeStats(n, 3, 2)

	t.Run("samples a valid joint action within range", func(t *testing.T) {
		outcome := e.Select(device, n)
		require.GreaterOrEqual(t, outcome.RowIdx, 0)
		require.Less(t, outcome.RowIdx, 3)
		require.GreaterOrEqual(t, outcome.ColIdx, 0)
		require.Less(t, outcome.ColIdx, 2)
		require.Greater(t, float64(outcome.RowMu), 0.0)
		require.Greater(t, float64(outcome.ColMu), 0.0)
	})

	t.Run("single-action side always selects index 0", func(t *testing.T) {
		single := &Node{}
		e.InitializeStats(single, 1, 4)
		for i := 0; i < 10; i++ {
			outcome := e.Select(device, single)
			require.Equal(t, 0, outcome.RowIdx)
			require.Equal(t, types.Prob(1), outcome.RowMu)
		}
	})
}

func TestExp3UpdateMatrixStats(t *testing.T) {
	e := NewExp3(0.1)
	n := &Node{}
	e.InitializeStats(n, 2, 2)

	e.UpdateMatrixStats(n, Outcome{RowIdx: 0, ColIdx: 1, RowMu: 0.5, ColMu: 0.5, RowValue: 1})

	require.Equal(t, 1, n.Stats.Visits)
	require.Equal(t, []int{1, 0}, n.Stats.RowVisits)
	require.Equal(t, []int{0, 1}, n.Stats.ColVisits)
	require.Equal(t, types.Value(1), n.Stats.ValueTotal)
	// RowGains[0] would be value/mu = 1/0.5 = 2 before shiftIfNonNegative
	// pulls every row gain down by the max (2) to keep gains <= 0.
	require.InDelta(t, 0.0, float64(n.Stats.RowGains[0]), 1e-9)
	require.InDelta(t, -2.0, float64(n.Stats.RowGains[1]), 1e-9)
	// The col side's touched gain landed negative, so no shift fires and
	// it stays exactly the zero-sum complement over its own probability.
	require.InDelta(t, -2.0, float64(n.Stats.ColGains[1]), 1e-9)
}

func TestExp3SampleIndex(t *testing.T) {
	t.Run("falls through to the last index on floating-point overshoot", func(t *testing.T) {
		device := rand.New(rand.NewSource(1))
		got := sampleIndex(device, []types.Real{0, 0})
		require.Equal(t, 1, got, "no cumulative mass ever exceeds the draw")
	})

	t.Run("single-mass forecast always returns index 0", func(t *testing.T) {
		device := rand.New(rand.NewSource(1))
		require.Equal(t, 0, sampleIndex(device, []types.Real{1}))
	})
}
