package learn

import (
	"context"
	"math"

	"github.com/anchorsynth/anchorsynth/pkg/constraint"
	"github.com/anchorsynth/anchorsynth/pkg/layout"
	"github.com/anchorsynth/anchorsynth/pkg/num"
)

// Simple is the exact-agreement learner: a template survives only when
// every example pins its free parameter to the same exact rational. There
// is no noise tolerance and no enumeration; it is fast, brittle, and useful
// as a baseline and on synthetic data.
type Simple struct {
	templates []constraint.Constraint
	examples  []*layout.View
	cfg       Config

	// prior applies the Stern-Brocot simplicity prior to multiplier
	// candidates instead of scoring everything 1. Set by the heuristic
	// variant.
	prior bool
}

// NewSimple builds the exact-agreement learner.
func NewSimple(templates []constraint.Constraint, examples []*layout.View, cfg Config) *Simple {
	return &Simple{templates: templates, examples: examples, cfg: cfg}
}

// NewHeuristic builds the heuristic variant: exact agreement plus the
// depth-based simplicity prior on learned multipliers, so that awkward
// ratios score below simple ones instead of all scoring 1.
func NewHeuristic(templates []constraint.Constraint, examples []*layout.View, cfg Config) *Simple {
	l := NewSimple(templates, examples, cfg)
	l.prior = true
	return l
}

// Learn evaluates every template against every example. Results are
// index-aligned with the templates; disagreeing templates yield empty
// lists.
func (l *Simple) Learn(ctx context.Context) ([][]constraint.Candidate, error) {
	results := make([][]constraint.Candidate, len(l.templates))
	for i, tpl := range l.templates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		results[i] = l.learnTemplate(tpl)
	}
	return results, nil
}

func (l *Simple) learnTemplate(tpl constraint.Constraint) []constraint.Candidate {
	var param num.Rat
	for _, ex := range l.examples {
		v, ok := exactParam(tpl, ex)
		if !ok {
			return nil
		}
		if param == nil {
			param = v
			continue
		}
		if !num.Eq(param, v) {
			return nil
		}
	}
	if param == nil {
		return nil
	}

	score := 1.0
	n := len(l.examples)
	var c constraint.Constraint
	switch {
	case tpl.Kind.IsConstantForm(), tpl.Kind.IsAddOnlyForm():
		if num.Abs(param).Cmp(num.Int(l.cfg.MaxOffset)) > 0 {
			return nil
		}
		c = tpl.Subst(nil, param, n)
	case tpl.Kind.IsMulOnlyForm():
		if param.Denom().Int64() > int64(l.cfg.MaxDenominator) && !num.IsInt(param) {
			return nil
		}
		c = tpl.Subst(param, nil, n)
		if l.prior {
			score = math.Exp(-math.Abs(float64(num.SBDepth(param)) - l.cfg.ExpectedDepth))
		}
	default:
		// General forms are under-determined by per-example agreement.
		return nil
	}
	return []constraint.Candidate{{Constraint: c, Score: score}}
}

// exactParam solves the template's single free parameter against one
// example, exactly.
func exactParam(tpl constraint.Constraint, ex *layout.View) (num.Rat, bool) {
	ya, ok := ex.FindAnchor(tpl.YID)
	if !ok {
		return nil, false
	}
	y := ya.Value()

	if tpl.Kind.IsConstantForm() {
		return y, true
	}

	xa, ok := ex.FindAnchor(*tpl.XID)
	if !ok {
		return nil, false
	}
	x := xa.Value()

	switch {
	case tpl.Kind.IsAddOnlyForm():
		return num.Sub(y, x), true
	case tpl.Kind.IsMulOnlyForm():
		if num.IsZero(x) {
			return nil, false
		}
		return num.Div(y, x), true
	}
	return nil, false
}
