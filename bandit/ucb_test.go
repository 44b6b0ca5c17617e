package bandit

import (
	"math"
	"testing"

	"simzero/types"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func TestUCBPick(t *testing.T) {
	u := NewUCB(2.0)

	t.Run("single action side always picks index 0", func(t *testing.T) {
		got := u.pick([]types.Real{99}, []int{7}, 7, true)
		require.Equal(t, 0, got)
	})

	t.Run("an unvisited action is picked before any visited one", func(t *testing.T) {
		gains := []types.Real{10, 0, 0}
		visits := []int{5, 0, 3}
		got := u.pick(gains, visits, 8, true)
		require.Equal(t, 1, got)
	})

	t.Run("maximize picks the highest mean plus exploration bonus", func(t *testing.T) {
		gains := []types.Real{10, 4}
		visits := []int{5, 5}
		got := u.pick(gains, visits, 10, true)
		require.Equal(t, 0, got, "action 0's mean (2.0) beats action 1's (0.8) with equal visits")
	})

	t.Run("minimize picks the lowest mean minus exploration bonus", func(t *testing.T) {
		gains := []types.Real{10, 4}
		visits := []int{5, 5}
		got := u.pick(gains, visits, 10, false)
		require.Equal(t, 1, got, "action 1's mean (0.8) is lower than action 0's (2.0)")
	})

	t.Run("exploration bonus favors the less-visited action at equal mean", func(t *testing.T) {
		gains := []types.Real{6, 2}
		visits := []int{3, 1}
		got := u.pick(gains, visits, 4, true)
		require.Equal(t, 1, got, "both actions mean 2.0, the less-visited one gets a bigger bonus")
	})

	t.Run("matches the closed-form UCB1 score", func(t *testing.T) {
		gains := []types.Real{6, 6}
		visits := []int{3, 6}
		got := u.pick(gains, visits, 9, true)

		score := func(gain types.Real, visit int) float64 {
			mean := float64(gain) / float64(visit)
			bonus := math.Sqrt(u.C * math.Log(9) / float64(visit))
			return mean + bonus
		}
		want := 0
		if score(gains[1], visits[1]) > score(gains[0], visits[0]) {
			want = 1
		}
		require.Equal(t, want, got)
	})
}

func TestUCBSelect(t *testing.T) {
	device := rand.New(rand.NewSource(1))
	u := NewUCB(2.0)
	n := &Node{}
	u.InitializeStats(n, 2, 3)

	outcome := u.Select(device, n)
	require.Equal(t, types.Prob(1), outcome.RowMu)
	require.Equal(t, types.Prob(1), outcome.ColMu)
	require.GreaterOrEqual(t, outcome.RowIdx, 0)
	require.Less(t, outcome.RowIdx, 2)
	require.GreaterOrEqual(t, outcome.ColIdx, 0)
	require.Less(t, outcome.ColIdx, 3)

	t.Run("single-action side always selects index 0", func(t *testing.T) {
		single := &Node{}
		u.InitializeStats(single, 1, 2)
		got := u.Select(device, single)
		require.Equal(t, 0, got.RowIdx)
	})
}

func TestUCBUpdateMatrixStats(t *testing.T) {
	u := NewUCB(2.0)
	n := &Node{}
	u.InitializeStats(n, 2, 2)

	u.UpdateMatrixStats(n, Outcome{RowIdx: 1, ColIdx: 0, RowValue: 1})

	require.Equal(t, 1, n.Stats.Visits)
	require.Equal(t, []int{0, 1}, n.Stats.RowVisits)
	require.Equal(t, []int{1, 0}, n.Stats.ColVisits)
	require.Equal(t, types.Real(1), n.Stats.RowGains[1])
	require.Equal(t, types.Real(-1), n.Stats.ColGains[0], "col gain accumulates the zero-sum complement")
}
