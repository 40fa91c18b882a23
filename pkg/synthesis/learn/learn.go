package learn

import (
	"context"

	"github.com/anchorsynth/anchorsynth/pkg/constraint"
)

// Learner is the strategy interface shared by the learning methods. Learn
// returns one candidate list per input template, index-aligned; a rejected
// template yields an empty list. The only error is context cancellation.
type Learner interface {
	Learn(ctx context.Context) ([][]constraint.Candidate, error)
}

// Method names a learner implementation, as selected in the options.
type Method string

// The learning methods.
const (
	MethodSimple        Method = "simple"
	MethodHeuristic     Method = "heuristic"
	MethodNoiseTolerant Method = "noisetolerant"
)

// Valid reports whether m names a known method.
func (m Method) Valid() bool {
	switch m {
	case MethodSimple, MethodHeuristic, MethodNoiseTolerant:
		return true
	}
	return false
}
