// Self-play tree-reuse experiment: plays a short episode move by move,
// re-rooting the tree onto the position reached after each move via
// search.Advance instead of discarding it, mirroring the teacher's
// engine.Run driving MCTSAdapter.FindMove turn by turn with accumulated
// Segments.
package main

import (
	"simzero/bandit"
	"simzero/metrics"
	"simzero/model"
	"simzero/search"
	"simzero/state"
	"simzero/types"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
)

const (
	selfPlayExperiment = "tree_reuse"
	selfPlayIterations = 300
	selfPlayMoldSize   = 2
	selfPlayMoldDepth  = 5
)

// runTreeReuseExperiment plays a Mold episode to completion, recording
// whether each move's search continued a subtree Advance found from the
// previous move or had to start over on a fresh root.
func runTreeReuseExperiment() []metrics.SearchRecord {
	log.Info().Msg("starting tree-reuse self-play experiment...")

	s := state.NewMold(selfPlayMoldSize, selfPlayMoldDepth)
	device := rand.New(rand.NewSource(1))
	tb := search.NewTreeBandit(bandit.NewExp3(0.1), device, search.WithMetrics())

	root := &bandit.Node{}
	var records []metrics.SearchRecord
	reused := false

	for move := 1; !s.IsTerminal(); move++ {
		tb.SetTreeReused(reused)
		tb.RunForIterations(selfPlayIterations, s, model.NewMonteCarlo(1), root)

		metric := tb.Metrics()
		records = append(records, metrics.SearchRecord{Run: move, SearchMetric: metric})
		log.Info().Msgf("move %d: %d iterations, tree_reused=%v", move, metric.Iterations, metric.IsTreeReused)

		rowStrategy, colStrategy := tb.EmpiricalStrategies(root)
		i, j := argmax(rowStrategy), argmax(colStrategy)

		rowActions, colActions := s.GetActions()
		s.ApplyActions(rowActions[i], colActions[j])

		next, ok := search.Advance(root, []search.Segment{{RowIdx: i, ColIdx: j, Obs: s.GetObs()}})
		reused = ok
		if ok {
			root = next
		} else {
			root = &bandit.Node{}
		}
	}

	log.Info().Msg("finished tree-reuse self-play experiment")
	return records
}

// argmax returns the index of the largest entry, breaking ties toward
// the earliest index.
func argmax(xs []types.Real) int {
	best := 0
	for i, x := range xs {
		if x > xs[best] {
			best = i
		}
	}
	return best
}
