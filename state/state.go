// Package state defines the external State contract that every search
// algorithm drives, and carries a handful of reference implementations used
// by the test suite.
package state

import "simzero/types"

// State is a value type describing one node of a simultaneous-move
// stochastic game. Implementations are external collaborators: the search
// algorithms only ever call through this interface.
type State interface {
	// GetActions enumerates the row and column action lists available
	// at the current state.
	GetActions() (rowActions, colActions []types.Action)

	// IsTerminal reports whether the state has no further actions.
	IsTerminal() bool

	// GetPayoff returns the row player's terminal payoff. Only valid
	// once IsTerminal reports true.
	GetPayoff() types.Value

	// ApplyActions advances the state given a joint action. The chance
	// outcome is drawn internally from the state's own seed.
	ApplyActions(row, col types.Action)

	// RandomizeTransition reseeds the state's internal chance device.
	RandomizeTransition(seed uint64)

	// GetObs returns an observation identifying the outcome of the most
	// recent ApplyActions call.
	GetObs() types.Obs

	// GetProb returns the probability of the most recently observed
	// chance transition.
	GetProb() types.Prob

	// Clone returns an independent copy so concurrent search frames
	// never share mutable state.
	Clone() State
}

// EnumerableChanceState is implemented by states whose chance support
// can be listed exactly, which the enumerable-chance algorithms require.
type EnumerableChanceState interface {
	State
	// GetChanceActions lists the distinct observations reachable from
	// applying (row, col) at the current state, alongside each one's
	// probability. Advancing to a named outcome is the separate
	// ApplyChance interface.
	GetChanceActions(row, col types.Action) []ChanceOutcome
}

// ChanceOutcome names one deterministic outcome of an otherwise
// stochastic joint action, for enumerable-chance states.
type ChanceOutcome struct {
	Obs  types.Obs
	Prob types.Prob
}

// ApplyChance is implemented alongside EnumerableChanceState to advance
// deterministically to a named chance outcome rather than sampling one.
type ApplyChance interface {
	ApplyChanceAction(row, col types.Action, outcome types.Obs)
}
