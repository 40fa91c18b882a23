package prune

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/anchorsynth/anchorsynth/pkg/constraint"
	"github.com/anchorsynth/anchorsynth/pkg/errors"
	"github.com/anchorsynth/anchorsynth/pkg/layout"
	"github.com/anchorsynth/anchorsynth/pkg/num"
	"github.com/anchorsynth/anchorsynth/pkg/smt"
)

// Hierarchical decomposes pruning into one subproblem per internal view.
// A worklist starts at the root; each focus solves its own layer, then the
// feasible dimension range of every child is inferred from the focus
// model and becomes the child's conformance span.
type Hierarchical struct {
	examples []*layout.View
	bounds   Bounds
	factory  smt.Factory
	logger   *log.Logger
}

// NewHierarchical builds the hierarchical pruner.
func NewHierarchical(examples []*layout.View, bounds Bounds, factory smt.Factory, logger *log.Logger) *Hierarchical {
	return &Hierarchical{examples: examples, bounds: bounds, factory: factory, logger: logger}
}

// workItem is one pending subproblem.
type workItem struct {
	focus      *layout.View
	minC, maxC Conformance
}

// Prune runs the worklist to completion (or deadline) and returns the
// accumulated selection. On context expiry the partial accumulation is
// returned along with a TIMEOUT error.
func (p *Hierarchical) Prune(ctx context.Context, cands []constraint.Candidate) (Result, error) {
	root := p.examples[0]
	minC, maxC := confSpan(p.examples, p.bounds)

	selected := make(map[string]constraint.Constraint)
	minVals := make(map[string]num.Rat)
	maxVals := make(map[string]num.Rat)

	worklist := []workItem{{focus: root, minC: minC, maxC: maxC}}
	var timedOut bool

	for len(worklist) > 0 {
		if ctx.Err() != nil {
			timedOut = true
			break
		}
		item := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]

		if len(item.focus.Children) == 0 {
			continue
		}
		p.logger.Debug("pruning focus", "view", item.focus.Name)

		fr, err := solveFocus(ctx, p.factory, item.focus, item.minC, item.maxC, cands, p.logger)
		if err != nil {
			timedOut = true
			break
		}
		for _, c := range fr.chosen {
			if _, ok := selected[c.Constraint.Key()]; !ok {
				selected[c.Constraint.Key()] = c.Constraint
			}
		}
		for k, v := range fr.minVals {
			if _, ok := minVals[k]; !ok {
				minVals[k] = v
			}
		}
		for k, v := range fr.maxVals {
			if _, ok := maxVals[k]; !ok {
				maxVals[k] = v
			}
		}

		for _, child := range item.focus.Children {
			if len(child.Children) == 0 {
				continue
			}
			clo, chi := p.childSpan(ctx, fr, child)
			worklist = append(worklist, workItem{focus: child, minC: clo, maxC: chi})
		}
		fr.close()
	}

	out := Result{MinValues: minVals, MaxValues: maxVals}
	for _, c := range selected {
		out.Constraints = append(out.Constraints, c)
	}
	sortConstraints(out.Constraints)

	if timedOut {
		return out, errors.New(errors.ErrCodeTimeout, "hierarchical pruning deadline exhausted")
	}
	return out, nil
}

// childSpan infers the feasible conformance range for a child: the chosen
// candidates are held as hard facts while the child's size and position
// are minimized and maximized per conformance. When a focus query produced
// no model the child's measured extents across the examples serve as the
// fallback span.
func (p *Hierarchical) childSpan(ctx context.Context, fr *focusResult, child *layout.View) (Conformance, Conformance) {
	lo, hi := exampleSpan(p.examples, child.Name)

	if fr.xModel != nil {
		if minW, maxW, minX, maxX, err := fr.xQuery.childBox(ctx, child); err == nil {
			lo.W, hi.W = minW, maxW
			lo.X, hi.X = minX, maxX
		} else {
			p.logger.Warn("child width inference failed; using example extents",
				"child", child.Name, "err", err)
		}
	}
	if fr.yModel != nil {
		if minH, maxH, minY, maxY, err := fr.yQuery.childBox(ctx, child); err == nil {
			lo.H, hi.H = minH, maxH
			lo.Y, hi.Y = minY, maxY
		} else {
			p.logger.Warn("child height inference failed; using example extents",
				"child", child.Name, "err", err)
		}
	}
	return lo, hi
}

// exampleSpan measures a view's extremal rectangle across the examples.
func exampleSpan(examples []*layout.View, name string) (Conformance, Conformance) {
	var lo, hi Conformance
	for _, ex := range examples {
		v := ex.Find(name)
		if v == nil {
			continue
		}
		r := v.Rect
		c := Conformance{W: r.Width(), H: r.Height(), X: r.Left, Y: r.Top}
		if lo.W == nil {
			lo, hi = c, c
			continue
		}
		lo.W, hi.W = num.Min(lo.W, c.W), num.Max(hi.W, c.W)
		lo.H, hi.H = num.Min(lo.H, c.H), num.Max(hi.H, c.H)
		lo.X, hi.X = num.Min(lo.X, c.X), num.Max(hi.X, c.X)
		lo.Y, hi.Y = num.Min(lo.Y, c.Y), num.Max(hi.Y, c.Y)
	}
	return lo, hi
}
