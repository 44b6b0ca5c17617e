package model

import (
	"simzero/state"
	"simzero/types"

	"golang.org/x/exp/rand"
)

// MonteCarlo evaluates a state by playing it out to a terminal state,
// sampling row and column actions uniformly at random at every step.
type MonteCarlo struct {
	Device *rand.Rand
	// Policy, when true, additionally emits uniform row/col policies
	// over the state's current actions.
	Policy bool
}

// NewMonteCarlo builds a rollout model seeded from seed.
func NewMonteCarlo(seed uint64) *MonteCarlo {
	return &MonteCarlo{Device: rand.New(rand.NewSource(seed))}
}

func (m *MonteCarlo) Inference(s state.State) Output {
	rollout := s.Clone()
	for !rollout.IsTerminal() {
		rowActions, colActions := rollout.GetActions()
		row := rowActions[m.Device.Intn(len(rowActions))]
		col := colActions[m.Device.Intn(len(colActions))]
		rollout.ApplyActions(row, col)
	}

	out := Output{Value: rollout.GetPayoff()}
	if m.Policy && !s.IsTerminal() {
		rowActions, colActions := s.GetActions()
		out.RowPolicy = uniform(len(rowActions))
		out.ColPolicy = uniform(len(colActions))
	}
	return out
}

func (m *MonteCarlo) InferenceBatch(states []state.State) []Output {
	out := make([]Output, len(states))
	for i, s := range states {
		out[i] = m.Inference(s)
	}
	return out
}

func uniform(n int) []types.Prob {
	p := make([]types.Prob, n)
	for i := range p {
		p[i] = types.Prob(1) / types.Prob(n)
	}
	return p
}
