package state

import "simzero/types"

// OneShot is a one row action, one column action, deterministic terminal
// game with a fixed payoff. It is the 1x1 uniform 1-step game from the
// test suite.
type OneShot struct {
	payoff   types.Value
	terminal bool
}

// NewOneShot builds a OneShot state with the given row payoff.
func NewOneShot(payoff types.Value) *OneShot {
	return &OneShot{payoff: payoff}
}

func (s *OneShot) GetActions() ([]types.Action, []types.Action) {
	return []types.Action{0}, []types.Action{0}
}

func (s *OneShot) IsTerminal() bool { return s.terminal }

func (s *OneShot) GetPayoff() types.Value { return s.payoff }

func (s *OneShot) ApplyActions(row, col types.Action) {
	s.terminal = true
}

func (s *OneShot) RandomizeTransition(seed uint64) {}

func (s *OneShot) GetObs() types.Obs { return 0 }

func (s *OneShot) GetProb() types.Prob { return 1 }

func (s *OneShot) Clone() State {
	c := *s
	return &c
}

func (s *OneShot) GetChanceActions(row, col types.Action) []ChanceOutcome {
	return []ChanceOutcome{{Obs: 0, Prob: 1}}
}

// MatchingPennies is the classic two-action zero-sum matching pennies game:
// row payoff matrix [[1,0],[0,1]], terminal after one joint action.
type MatchingPennies struct {
	row, col types.Action
	applied  bool
}

func NewMatchingPennies() *MatchingPennies {
	return &MatchingPennies{}
}

func (s *MatchingPennies) GetActions() ([]types.Action, []types.Action) {
	return []types.Action{0, 1}, []types.Action{0, 1}
}

func (s *MatchingPennies) IsTerminal() bool { return s.applied }

func (s *MatchingPennies) GetPayoff() types.Value {
	if s.row == s.col {
		return 1
	}
	return 0
}

func (s *MatchingPennies) ApplyActions(row, col types.Action) {
	s.row, s.col = row, col
	s.applied = true
}

func (s *MatchingPennies) RandomizeTransition(seed uint64) {}

func (s *MatchingPennies) GetObs() types.Obs { return 0 }

func (s *MatchingPennies) GetProb() types.Prob { return 1 }

func (s *MatchingPennies) Clone() State {
	c := *s
	return &c
}

func (s *MatchingPennies) GetChanceActions(row, col types.Action) []ChanceOutcome {
	return []ChanceOutcome{{Obs: 0, Prob: 1}}
}

// Mold is a large uniform tree for exercising full traversal: size
// actions per side at every depth, zero payoff everywhere, terminal once
// its remaining depth reaches one. So named because it grows until it can't.
type Mold struct {
	size     int
	depth    int
	terminal bool
}

// NewMold builds a Mold state with the given branching factor and total
// node-level depth (depth counts this node's own level, so depth=1 is
// itself a leaf, depth=2 branches once into leaves, and so on).
func NewMold(size, depth int) *Mold {
	return &Mold{size: size, depth: depth, terminal: depth <= 1}
}

func (s *Mold) GetActions() ([]types.Action, []types.Action) {
	actions := make([]types.Action, s.size)
	for i := range actions {
		actions[i] = types.Action(i)
	}
	return actions, actions
}

func (s *Mold) IsTerminal() bool { return s.terminal }

func (s *Mold) GetPayoff() types.Value { return 0 }

func (s *Mold) ApplyActions(row, col types.Action) {
	s.depth--
	s.terminal = s.depth <= 1
}

func (s *Mold) RandomizeTransition(seed uint64) {}

func (s *Mold) GetObs() types.Obs { return 0 }

func (s *Mold) GetProb() types.Prob { return 1 }

func (s *Mold) Clone() State {
	c := *s
	return &c
}

func (s *Mold) GetChanceActions(row, col types.Action) []ChanceOutcome {
	return []ChanceOutcome{{Obs: 0, Prob: 1}}
}

// StochasticCoin is a two-action-per-side game whose transition is a coin
// flip seeded from RandomizeTransition rather than enumerable: action (0,0)
// pays 1 on heads and -1 on tails, every other joint action pays 0 always.
// Its chance support is intentionally not exposed via GetChanceActions,
// making it the reference state for the sampled-chance alpha-beta tests.
type StochasticCoin struct {
	seed     uint64
	flipped  bool
	heads    bool
	terminal bool
}

func NewStochasticCoin() *StochasticCoin {
	return &StochasticCoin{seed: 1}
}

func (s *StochasticCoin) GetActions() ([]types.Action, []types.Action) {
	return []types.Action{0, 1}, []types.Action{0, 1}
}

func (s *StochasticCoin) IsTerminal() bool { return s.terminal }

func (s *StochasticCoin) GetPayoff() types.Value {
	if !s.flipped {
		return 0
	}
	if s.heads {
		return 1
	}
	return -1
}

func (s *StochasticCoin) ApplyActions(row, col types.Action) {
	s.terminal = true
	s.flipped = row == 0 && col == 0
	if !s.flipped {
		s.heads = false
		return
	}
	// xorshift64 step: deterministic given the seed, nothing fancier
	// needed here.
	x := s.seed
	x ^= x << 13
	x ^= x >> 7
	x ^= x << 17
	s.seed = x
	s.heads = x%2 == 0
}

func (s *StochasticCoin) RandomizeTransition(seed uint64) { s.seed = seed | 1 }

func (s *StochasticCoin) GetObs() types.Obs {
	if s.heads {
		return 1
	}
	return 0
}

func (s *StochasticCoin) GetProb() types.Prob {
	if !s.flipped {
		return 1
	}
	return 0.5
}

func (s *StochasticCoin) Clone() State {
	c := *s
	return &c
}

// KnownValueMatrix is a two-action-per-side one-step game whose row payoff
// matrix [[1,0],[0,1.4]] has a closed-form mixed equilibrium value of
// 1.4/2.4 = 7/12, the reference state for the enumerable alpha-beta exact
// value scenario.
type KnownValueMatrix struct {
	row, col types.Action
	applied  bool
}

func NewKnownValueMatrix() *KnownValueMatrix {
	return &KnownValueMatrix{}
}

func (s *KnownValueMatrix) GetActions() ([]types.Action, []types.Action) {
	return []types.Action{0, 1}, []types.Action{0, 1}
}

func (s *KnownValueMatrix) IsTerminal() bool { return s.applied }

func (s *KnownValueMatrix) GetPayoff() types.Value {
	switch {
	case s.row == 0 && s.col == 0:
		return 1
	case s.row == 1 && s.col == 1:
		return 1.4
	default:
		return 0
	}
}

func (s *KnownValueMatrix) ApplyActions(row, col types.Action) {
	s.row, s.col = row, col
	s.applied = true
}

func (s *KnownValueMatrix) RandomizeTransition(seed uint64) {}

func (s *KnownValueMatrix) GetObs() types.Obs { return 0 }

func (s *KnownValueMatrix) GetProb() types.Prob { return 1 }

func (s *KnownValueMatrix) Clone() State {
	c := *s
	return &c
}

func (s *KnownValueMatrix) GetChanceActions(row, col types.Action) []ChanceOutcome {
	return []ChanceOutcome{{Obs: 0, Prob: 1}}
}
