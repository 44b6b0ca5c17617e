// Package model defines the leaf-evaluation contract consumed by every
// search algorithm, plus a Monte-Carlo rollout reference implementation.
package model

import (
	"simzero/state"
	"simzero/types"
)

// Output is the result of evaluating a state: a value estimate for the
// row player plus, optionally, row/column policies over its actions.
type Output struct {
	Value     types.Value
	RowPolicy []types.Prob
	ColPolicy []types.Prob
}

// Model is the external leaf-evaluation collaborator: a rollout-based
// Monte-Carlo evaluator, a learned value network, or a solved oracle.
type Model interface {
	Inference(s state.State) Output
}

// BatchModel is implemented by models that can amortize evaluation cost
// across several states at once.
type BatchModel interface {
	Model
	InferenceBatch(states []state.State) []Output
}
