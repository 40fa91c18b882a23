package prune

import (
	"context"
	"strconv"

	"github.com/anchorsynth/anchorsynth/pkg/constraint"
	"github.com/anchorsynth/anchorsynth/pkg/layout"
	"github.com/anchorsynth/anchorsynth/pkg/num"
	"github.com/anchorsynth/anchorsynth/pkg/smt"
)

// anchorVar names the solver variable for one anchor under one
// conformance.
func anchorVar(id layout.AnchorID, conf int) smt.Var {
	return smt.Var(id.String() + "#" + strconv.Itoa(conf))
}

// relFor rewrites a candidate constraint to the conformance-indexed anchor
// variables: y op a·x + b.
func relFor(c constraint.Constraint, conf int) smt.Rel {
	lhs := smt.V(anchorVar(c.YID, conf))
	rhs := smt.Const(c.B)
	if c.XID != nil {
		rhs = smt.Term(anchorVar(*c.XID, conf), c.A).Plus(rhs)
	}
	switch c.Op {
	case constraint.OpLE:
		return smt.LE(lhs, rhs)
	case constraint.OpGE:
		return smt.GE(lhs, rhs)
	default:
		return smt.Eq(lhs, rhs)
	}
}

// axisQuery is one per-axis MaxSMT query for a focus view: selectors over
// the axis's candidates, geometry over the focus and its immediate
// children at each conformance.
type axisQuery struct {
	solver     smt.Solver
	horizontal bool
	focus      *layout.View
	confs      []Conformance
	cands      []constraint.Candidate
	sels       []smt.Bool
}

// newAxisQuery builds the full encoding. The caller owns the solver's
// lifetime via close.
func newAxisQuery(factory smt.Factory, focus *layout.View, confs []Conformance,
	cands []constraint.Candidate, horizontal bool) *axisQuery {

	q := &axisQuery{
		solver:     factory(),
		horizontal: horizontal,
		focus:      focus,
		confs:      confs,
		cands:      cands,
	}

	// Selectors and soft weights.
	for i, c := range cands {
		sel := smt.Bool("s" + strconv.Itoa(i))
		q.sels = append(q.sels, sel)
		q.solver.AddSoft(sel, wholeScore(c))
	}

	boxes := append([]*layout.View{focus}, focus.Children...)
	for j, conf := range confs {
		q.fixConformance(j, conf)
		for _, box := range boxes {
			q.addLayoutAxioms(box, j)
		}
		q.addContainment(j)
		for i, c := range cands {
			q.solver.AddImplication(q.sels[i], relFor(c.Constraint, j))
		}
	}

	q.addDeterminism()
	q.addLinking()
	return q
}

// fixConformance pins the focus rectangle to one test point on this
// query's axis.
func (q *axisQuery) fixConformance(j int, conf Conformance) {
	if q.horizontal {
		left := anchorVar(q.focus.Anchor(layout.AttrLeft).ID(), j)
		width := anchorVar(q.focus.Anchor(layout.AttrWidth).ID(), j)
		q.solver.AddHard(smt.Eq(smt.V(left), smt.Const(conf.X)))
		q.solver.AddHard(smt.Eq(smt.V(width), smt.Const(conf.W)))
	} else {
		top := anchorVar(q.focus.Anchor(layout.AttrTop).ID(), j)
		height := anchorVar(q.focus.Anchor(layout.AttrHeight).ID(), j)
		q.solver.AddHard(smt.Eq(smt.V(top), smt.Const(conf.Y)))
		q.solver.AddHard(smt.Eq(smt.V(height), smt.Const(conf.H)))
	}
}

// addLayoutAxioms ties a box's derived anchors to its edges on this
// query's axis: width = right - left and 2·center_x = left + right, or the
// vertical counterparts. Edge ordering (left <= right) follows from the
// nonnegative width. Theory variables are nonnegative by backend contract,
// which covers the "anchors at or above the origin" axioms.
func (q *axisQuery) addLayoutAxioms(box *layout.View, j int) {
	if q.horizontal {
		l := smt.V(anchorVar(box.Anchor(layout.AttrLeft).ID(), j))
		r := smt.V(anchorVar(box.Anchor(layout.AttrRight).ID(), j))
		w := smt.V(anchorVar(box.Anchor(layout.AttrWidth).ID(), j))
		cx := smt.V(anchorVar(box.Anchor(layout.AttrCenterX).ID(), j))
		q.solver.AddHard(smt.Eq(w, r.Minus(l)))
		q.solver.AddHard(smt.Eq(cx.Scale(num.Int(2)), l.Plus(r)))
	} else {
		t := smt.V(anchorVar(box.Anchor(layout.AttrTop).ID(), j))
		b := smt.V(anchorVar(box.Anchor(layout.AttrBottom).ID(), j))
		h := smt.V(anchorVar(box.Anchor(layout.AttrHeight).ID(), j))
		cy := smt.V(anchorVar(box.Anchor(layout.AttrCenterY).ID(), j))
		q.solver.AddHard(smt.Eq(h, b.Minus(t)))
		q.solver.AddHard(smt.Eq(cy.Scale(num.Int(2)), t.Plus(b)))
	}
}

// addContainment keeps every immediate child inside the focus, with weak
// inequalities.
func (q *axisQuery) addContainment(j int) {
	for _, child := range q.focus.Children {
		if q.horizontal {
			cl := smt.V(anchorVar(child.Anchor(layout.AttrLeft).ID(), j))
			cr := smt.V(anchorVar(child.Anchor(layout.AttrRight).ID(), j))
			fl := smt.V(anchorVar(q.focus.Anchor(layout.AttrLeft).ID(), j))
			fr := smt.V(anchorVar(q.focus.Anchor(layout.AttrRight).ID(), j))
			q.solver.AddHard(smt.GE(cl, fl))
			q.solver.AddHard(smt.LE(cr, fr))
		} else {
			ct := smt.V(anchorVar(child.Anchor(layout.AttrTop).ID(), j))
			cb := smt.V(anchorVar(child.Anchor(layout.AttrBottom).ID(), j))
			ft := smt.V(anchorVar(q.focus.Anchor(layout.AttrTop).ID(), j))
			fb := smt.V(anchorVar(q.focus.Anchor(layout.AttrBottom).ID(), j))
			q.solver.AddHard(smt.GE(ct, ft))
			q.solver.AddHard(smt.LE(cb, fb))
		}
	}
}

// addDeterminism enforces, per child, at most one active candidate per
// anchor and exactly two determined anchors on this query's axis.
func (q *axisQuery) addDeterminism() {
	for _, child := range q.focus.Children {
		var axisSels []smt.Lit
		for _, anchor := range child.AxisAnchors(q.horizontal) {
			id := anchor.ID()
			var anchorSels []smt.Lit
			for i, c := range q.cands {
				if c.Constraint.YID == id {
					anchorSels = append(anchorSels, smt.Pos(q.sels[i]))
				}
			}
			if len(anchorSels) > 1 {
				q.solver.AddCardinality(anchorSels, 0, 1)
			}
			axisSels = append(axisSels, anchorSels...)
		}
		// Exactly two active candidates; combined with the per-anchor cap,
		// exactly two distinct determined anchors.
		q.solver.AddCardinality(axisSels, 2, 2)
	}
}

// addLinking requires, when the focus has two or more children, that at
// least two distinct children are determined by a candidate anchored to
// the focus itself. Without it the children can form a rigid block that
// drifts freely inside the parent.
func (q *axisQuery) addLinking() {
	if len(q.focus.Children) < 2 {
		return
	}
	var links []smt.Lit
	for _, child := range q.focus.Children {
		var parentSels []smt.Lit
		for i, c := range q.cands {
			if c.Constraint.YID.ViewName != child.Name {
				continue
			}
			if c.Constraint.XID != nil && c.Constraint.XID.ViewName == q.focus.Name {
				parentSels = append(parentSels, smt.Pos(q.sels[i]))
			}
		}
		if len(parentSels) == 0 {
			continue
		}
		link := smt.Bool("link_" + child.Name)
		// link ↔ OR(parentSels)
		q.solver.AddClause(append([]smt.Lit{smt.Neg(link)}, parentSels...)...)
		for _, s := range parentSels {
			q.solver.AddClause(smt.Lit{Bool: s.Bool, Negated: true}, smt.Pos(link))
		}
		links = append(links, smt.Pos(link))
	}
	q.solver.AddCardinality(links, 2, len(links))
}

// solve checks the query and extracts the chosen candidates. An
// unsatisfiable query returns an empty selection and no model.
func (q *axisQuery) solve(ctx context.Context) ([]constraint.Candidate, *smt.Model, error) {
	res, err := q.solver.CheckWithDeadline(ctx)
	if err != nil {
		return nil, nil, err
	}
	if res != smt.Sat {
		return nil, nil, nil
	}
	model, err := q.solver.Model()
	if err != nil {
		return nil, nil, err
	}
	var chosen []constraint.Candidate
	for i, sel := range q.sels {
		if model.Bools[sel] {
			chosen = append(chosen, q.cands[i])
		}
	}
	return chosen, model, nil
}

// close releases the solver.
func (q *axisQuery) close() {
	_ = q.solver.Close()
}

// valuations reads the axis anchors of the focus and its children at one
// conformance index out of a model.
func (q *axisQuery) valuations(model *smt.Model, j int) map[string]num.Rat {
	out := make(map[string]num.Rat)
	boxes := append([]*layout.View{q.focus}, q.focus.Children...)
	for _, box := range boxes {
		for _, anchor := range box.AxisAnchors(q.horizontal) {
			id := anchor.ID()
			if v, ok := model.Values[anchorVar(id, j)]; ok {
				out[id.String()] = v
			}
		}
	}
	return out
}

// childBox computes the feasible [min, max] range of a child's size and
// position on this query's axis, with the chosen candidates held as hard
// facts, by optimizing across every conformance.
func (q *axisQuery) childBox(ctx context.Context, child *layout.View) (minSize, maxSize, minPos, maxPos num.Rat, err error) {
	sizeAttr, posAttr := layout.AttrWidth, layout.AttrLeft
	if !q.horizontal {
		sizeAttr, posAttr = layout.AttrHeight, layout.AttrTop
	}
	for j := range q.confs {
		sizeObj := smt.V(anchorVar(child.Anchor(sizeAttr).ID(), j))
		posObj := smt.V(anchorVar(child.Anchor(posAttr).ID(), j))

		lo, err := q.solver.Minimize(ctx, sizeObj)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		hi, err := q.solver.Maximize(ctx, sizeObj)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		plo, err := q.solver.Minimize(ctx, posObj)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		phi, err := q.solver.Maximize(ctx, posObj)
		if err != nil {
			return nil, nil, nil, nil, err
		}

		if minSize == nil {
			minSize, maxSize, minPos, maxPos = lo, hi, plo, phi
			continue
		}
		minSize = num.Min(minSize, lo)
		maxSize = num.Max(maxSize, hi)
		minPos = num.Min(minPos, plo)
		maxPos = num.Max(maxPos, phi)
	}
	return minSize, maxSize, minPos, maxPos, nil
}
