package prune

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/anchorsynth/anchorsynth/pkg/constraint"
	"github.com/anchorsynth/anchorsynth/pkg/errors"
	"github.com/anchorsynth/anchorsynth/pkg/layout"
	"github.com/anchorsynth/anchorsynth/pkg/num"
	"github.com/anchorsynth/anchorsynth/pkg/observability"
	"github.com/anchorsynth/anchorsynth/pkg/smt"
)

// focusResult is the outcome of one focus view's pair of axis queries.
// The queries stay open so the hierarchical pruner can run child-dimension
// optimizations against their models; callers must close it.
type focusResult struct {
	chosen   []constraint.Candidate
	minVals  map[string]num.Rat
	maxVals  map[string]num.Rat
	xQuery   *axisQuery
	yQuery   *axisQuery
	xModel   *smt.Model
	yModel   *smt.Model
}

func (fr *focusResult) close() {
	if fr.xQuery != nil {
		fr.xQuery.close()
	}
	if fr.yQuery != nil {
		fr.yQuery.close()
	}
}

// solveFocus runs the two per-axis MaxSMT queries for one focus view over
// the candidate pool. Unsatisfiable or timed-out axes contribute empty
// selections; the error return is reserved for context expiry.
func solveFocus(ctx context.Context, factory smt.Factory, focus *layout.View,
	minC, maxC Conformance, pool []constraint.Candidate, logger *log.Logger) (*focusResult, error) {

	var rel []constraint.Candidate
	for _, c := range pool {
		if relevant(focus, c.Constraint) {
			rel = append(rel, c)
		}
	}
	rel = filterCandidates(rel)

	var xCands, yCands []constraint.Candidate
	for _, c := range rel {
		if c.Constraint.IsHorizontal() {
			xCands = append(xCands, c)
		} else {
			yCands = append(yCands, c)
		}
	}

	confs := Range(minC, maxC, conformanceCount)
	fr := &focusResult{
		minVals: make(map[string]num.Rat),
		maxVals: make(map[string]num.Rat),
	}
	fr.xQuery = newAxisQuery(factory, focus, confs, xCands, true)
	fr.yQuery = newAxisQuery(factory, focus, confs, yCands, false)

	solveAxis := func(q *axisQuery, model **smt.Model, axis string) error {
		start := time.Now()
		chosen, m, err := q.solve(ctx)
		observability.Synthesis().OnSolverQuery(ctx, focus.Name, axis, len(q.cands), time.Since(start), m != nil)
		if err != nil {
			if errors.Is(err, errors.ErrCodeSmtTimeout) && ctx.Err() != nil {
				return err
			}
			logger.Warn("axis query failed; dropping selection",
				"focus", focus.Name, "axis", axis, "err", err)
			return nil
		}
		if m == nil {
			logger.Debug("axis query unsatisfiable", "focus", focus.Name, "axis", axis)
			return nil
		}
		fr.chosen = append(fr.chosen, chosen...)
		*model = m
		for k, v := range q.valuations(m, 0) {
			fr.minVals[k] = v
		}
		for k, v := range q.valuations(m, len(confs)-1) {
			fr.maxVals[k] = v
		}
		return nil
	}

	if err := solveAxis(fr.xQuery, &fr.xModel, "x"); err != nil {
		fr.close()
		return nil, err
	}
	if err := solveAxis(fr.yQuery, &fr.yModel, "y"); err != nil {
		fr.close()
		return nil, err
	}
	return fr, nil
}

// BlackBox is the baseline pruner: a single pair of axis queries over the
// root view and its immediate children. It exists as the reference point
// the hierarchical decomposition is checked against, and as the pruner of
// choice for flat layouts.
type BlackBox struct {
	examples []*layout.View
	bounds   Bounds
	factory  smt.Factory
	logger   *log.Logger
}

// NewBlackBox builds the baseline pruner.
func NewBlackBox(examples []*layout.View, bounds Bounds, factory smt.Factory, logger *log.Logger) *BlackBox {
	return &BlackBox{examples: examples, bounds: bounds, factory: factory, logger: logger}
}

// Prune selects candidates for the root layer.
func (p *BlackBox) Prune(ctx context.Context, cands []constraint.Candidate) (Result, error) {
	root := p.examples[0]
	minC, maxC := confSpan(p.examples, p.bounds)

	fr, err := solveFocus(ctx, p.factory, root, minC, maxC, cands, p.logger)
	if err != nil {
		return Result{}, errors.Wrap(errors.ErrCodeTimeout, err, "baseline pruning")
	}
	defer fr.close()

	out := Result{MinValues: fr.minVals, MaxValues: fr.maxVals}
	for _, c := range fr.chosen {
		out.Constraints = append(out.Constraints, c.Constraint)
	}
	sortConstraints(out.Constraints)
	return out, nil
}

// PassThrough is the "none" pruning method: every candidate survives.
type PassThrough struct{}

// Prune returns all candidates unchanged.
func (PassThrough) Prune(_ context.Context, cands []constraint.Candidate) (Result, error) {
	out := Result{MinValues: map[string]num.Rat{}, MaxValues: map[string]num.Rat{}}
	for _, c := range cands {
		out.Constraints = append(out.Constraints, c.Constraint)
	}
	sortConstraints(out.Constraints)
	return out, nil
}
