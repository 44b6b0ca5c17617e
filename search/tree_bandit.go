package search

import (
	"sync"
	"sync/atomic"
	"time"

	"simzero/bandit"
	"simzero/metrics"
	"simzero/model"
	"simzero/state"
	"simzero/types"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
)

// Option configures a TreeBandit search via the functional-options pattern.
type Option func(*TreeBandit)

// WithIterations records an iteration budget on the search. Run and
// RunForIterations take their budgets as arguments and do not read it.
func WithIterations(n int) Option {
	return func(t *TreeBandit) {
		if n > 0 {
			t.iterations = n
		}
	}
}

// WithDuration records a wall-clock budget on the search. Run and
// RunForIterations take their budgets as arguments and do not read it.
func WithDuration(d time.Duration) Option {
	return func(t *TreeBandit) {
		if d > 0 {
			t.duration = d
		}
	}
}

// WithGoroutines sets the number of concurrent simulation workers.
// Defaults to 1 (single-threaded).
func WithGoroutines(n int) Option {
	return func(t *TreeBandit) {
		if n > 0 {
			t.goroutines = n
		}
	}
}

// WithBackupEmpirical switches backup to use a child's running empirical
// value (value_total/visits) instead of the leaf model's value, the
// MCTS-A backup variant.
func WithBackupEmpirical() Option {
	return func(t *TreeBandit) { t.backupEmpirical = true }
}

// WithMetrics attaches a live metrics.Collector to the search, recording
// one iteration per completed simulation. Without this option, a
// TreeBandit discards its own iteration bookkeeping.
func WithMetrics() Option {
	return func(t *TreeBandit) { t.metrics = metrics.NewCollector() }
}

// TreeBandit runs iteration-based MCTS-style search: descend by the
// bandit's Select policy, expand unexpanded matrix nodes against the
// model, and back-propagate the model's leaf value through every matrix
// and chance node on the path.
type TreeBandit struct {
	Bandit bandit.Bandit
	Device *rand.Rand

	iterations      int
	duration        time.Duration
	goroutines      int
	backupEmpirical bool
	metrics         metrics.Collector
}

// NewTreeBandit builds a tree-bandit search using the given bandit policy
// and PRNG device.
func NewTreeBandit(b bandit.Bandit, device *rand.Rand, opts ...Option) *TreeBandit {
	t := &TreeBandit{Bandit: b, Device: device, goroutines: 1, metrics: metrics.NewDummyCollector()}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// RunForIterations runs exactly n iterations and reports elapsed time.
func (t *TreeBandit) RunForIterations(n int, s state.State, m model.Model, root *bandit.Node) time.Duration {
	t.metrics.Start(t.goroutines, "tree-bandit")
	start := time.Now()
	t.run(s, m, root, n, 0)
	elapsed := time.Since(start)
	logComplete(n, elapsed, t.EmpiricalValue(root))
	return elapsed
}

// Run runs for the given wall-clock duration and reports the iteration
// count completed.
func (t *TreeBandit) Run(duration time.Duration, s state.State, m model.Model, root *bandit.Node) int {
	t.metrics.Start(t.goroutines, "tree-bandit")
	completed := t.run(s, m, root, 0, duration)
	logComplete(completed, duration, t.EmpiricalValue(root))
	return completed
}

// Metrics reports the statistics collected by the most recently started
// Run or RunForIterations call, or the zero value if WithMetrics was never
// set.
func (t *TreeBandit) Metrics() metrics.SearchMetric {
	return t.metrics.Complete()
}

// run dispatches to a goroutine pool sharing root. Iterations-bounded runs
// queue the count up front and workers pull from the shared queue until it
// is drained; duration-bounded runs poll wall
// time after every iteration, since an iteration in flight never yields
// mid-way. It returns the number of completed iterations either way.
func (t *TreeBandit) run(s state.State, m model.Model, root *bandit.Node, iterations int, duration time.Duration) int {
	goroutines := t.goroutines
	if goroutines < 1 {
		goroutines = 1
	}

	// Expand the root up front so that every iteration selects a joint
	// action at it and the root's visit count equals the iterations run.
	if !s.IsTerminal() {
		root.TryExpand(func() {
			rowActions, colActions := s.GetActions()
			root.Expand(rowActions, colActions)
			t.Bandit.InitializeStats(root, len(rowActions), len(colActions))
			root.Value = m.Inference(s).Value
		})
	}

	var completed atomic.Int64

	if duration > 0 {
		done := make(chan struct{})
		var wg sync.WaitGroup
		for g := 0; g < goroutines; g++ {
			wg.Add(1)
			go func(seed uint64) {
				defer wg.Done()
				device := rand.New(rand.NewSource(seed))
				for {
					select {
					case <-done:
						return
					default:
						t.iterate(s, m, root, device)
						completed.Add(1)
					}
				}
			}(t.Device.Uint64())
		}
		time.Sleep(duration)
		close(done)
		wg.Wait()
		return int(completed.Load())
	}

	tasks := make(chan struct{}, iterations)
	for i := 0; i < iterations; i++ {
		tasks <- struct{}{}
	}
	close(tasks)

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(seed uint64) {
			defer wg.Done()
			device := rand.New(rand.NewSource(seed))
			for range tasks {
				t.iterate(s, m, root, device)
				completed.Add(1)
			}
		}(t.Device.Uint64())
	}
	wg.Wait()
	return int(completed.Load())
}

// iterate runs one simulation: clone the state, descend to an unexpanded
// or terminal leaf, and back-propagate the leaf's value.
func (t *TreeBandit) iterate(s state.State, m model.Model, root *bandit.Node, device *rand.Rand) {
	sim := s.Clone()
	sim.RandomizeTransition(device.Uint64())

	path, leafValue := t.descend(sim, m, root, device)
	t.backup(path, leafValue)
	t.metrics.AddIteration()
}

type pathStep struct {
	node    *bandit.Node
	chance  *bandit.Chance
	outcome bandit.Outcome
}

// descend walks from root, expanding the first unexpanded node it meets
// and selecting a joint action otherwise, returning the traversed path
// (for backup) and the leaf's evaluated value.
func (t *TreeBandit) descend(s state.State, m model.Model, root *bandit.Node, device *rand.Rand) ([]pathStep, types.Value) {
	var path []pathStep
	node := root

	for {
		if s.IsTerminal() {
			node.Terminal = true
			node.Value = s.GetPayoff()
			return path, node.Value
		}

		expanded := node.TryExpand(func() {
			rowActions, colActions := s.GetActions()
			node.Expand(rowActions, colActions)
			t.Bandit.InitializeStats(node, len(rowActions), len(colActions))
			node.Value = m.Inference(s).Value
		})
		if expanded {
			return path, node.Value
		}

		node.RLockStats()
		outcome := t.Bandit.Select(device, node)
		node.RUnlockStats()
		rowActions, colActions := node.RowActions, node.ColActions
		chance := node.Access(outcome.RowIdx, outcome.ColIdx)
		s.ApplyActions(rowActions[outcome.RowIdx], colActions[outcome.ColIdx])

		child, _ := chance.Access(s.GetObs())
		path = append(path, pathStep{node: node, chance: chance, outcome: outcome})
		node = child
	}
}

// backup folds the leaf value into every matrix/chance node pair on the
// path, walking from the leaf back to the root. Every node's stats mutex
// serializes concurrent backups from other goroutines sharing the same
// tree. backupEmpirical, when set, uses the child node's running
// empirical value instead of the leaf's model value at every step (MCTS-A).
func (t *TreeBandit) backup(path []pathStep, leafValue types.Value) {
	value := leafValue
	for i := len(path) - 1; i >= 0; i-- {
		step := path[i]
		outcome := step.outcome
		outcome.RowValue, outcome.Value = value, value

		step.node.LockStats()
		t.Bandit.UpdateMatrixStats(step.node, outcome)
		if t.backupEmpirical {
			value = t.Bandit.EmpiricalValues(step.node)
		}
		step.node.UnlockStats()

		step.chance.LockStats()
		t.Bandit.UpdateChanceStats(step.chance, outcome)
		step.chance.UnlockStats()
	}
}

// Segment records one played joint action and the resulting observation,
// the unit of path Advance walks by. Mirrors the teacher's
// Segment{Move, StateHash}, generalized from a single-player move to a
// simultaneous-move joint action.
type Segment struct {
	RowIdx, ColIdx int
	Obs            types.Obs
}

// Advance walks root by path, one played joint action at a time, and
// returns the matrix node reached. It reports false the moment the walk
// falls off the tree -- an edge the tree never expanded, or an
// observation the tree never sampled at that edge -- mirroring the
// teacher's findRoot/traverse: a failed walk means the old tree carries
// no information about the position reached, and the caller should
// discard it and search a fresh root instead of continuing on found.
//
// A caller driving a multi-move episode calls Advance between moves and
// forwards its second return to SetTreeReused before the next Run.
func Advance(root *bandit.Node, path []Segment) (found *bandit.Node, ok bool) {
	node := root
	for _, seg := range path {
		if node == nil || !node.Expanded {
			return nil, false
		}
		if seg.RowIdx < 0 || seg.RowIdx >= node.Rows() || seg.ColIdx < 0 || seg.ColIdx >= node.Cols() {
			return nil, false
		}
		chance := node.EdgeAt(seg.RowIdx, seg.ColIdx)
		if chance == nil {
			return nil, false
		}
		child, ok := chance.Lookup(seg.Obs)
		if !ok {
			return nil, false
		}
		node = child
	}
	return node, true
}

// SetTreeReused records, on this search's metrics collector, whether the
// upcoming Run/RunForIterations call continues a tree Advance found or
// starts fresh over a newly allocated root. A no-op unless WithMetrics
// was set.
func (t *TreeBandit) SetTreeReused(reused bool) {
	t.metrics.SetTreeReused(reused)
}

// EmpiricalStrategies exposes the root's visit-normalized strategies. Safe
// to call while a Run/RunForIterations call is still in flight on the same
// root from another goroutine.
func (t *TreeBandit) EmpiricalStrategies(root *bandit.Node) (rowStrategy, colStrategy []types.Real) {
	root.RLockStats()
	defer root.RUnlockStats()
	return t.Bandit.EmpiricalStrategies(root)
}

// EmpiricalValue exposes the root's value_total/visits estimate. Safe to
// call while a Run/RunForIterations call is still in flight on the same
// root from another goroutine.
func (t *TreeBandit) EmpiricalValue(root *bandit.Node) types.Value {
	root.RLockStats()
	defer root.RUnlockStats()
	return t.Bandit.EmpiricalValues(root)
}

// logComplete logs a summary once search finishes, never inside the hot
// per-iteration loop.
func logComplete(iterations int, elapsed time.Duration, value types.Value) {
	log.Debug().
		Int("iterations", iterations).
		Dur("elapsed", elapsed).
		Float64("value", float64(value)).
		Msg("tree bandit search complete")
}
