// Package instantiate enumerates well-formed constraint sketches over the
// anchors of a set of layout examples.
//
// The instantiator is local inference: it decides which anchor pairs are
// worth relating at all, based on the view hierarchy and on edge visibility,
// and emits templates with unknown parameters. Learning the parameters is
// the next stage's job.
//
// All examples contribute: visibility is the union across examples, so a
// pair that is visible at any measured screen size produces a sketch.
package instantiate

import (
	"github.com/anchorsynth/anchorsynth/pkg/constraint"
	"github.com/anchorsynth/anchorsynth/pkg/layout"
	"github.com/anchorsynth/anchorsynth/pkg/synthesis/visibility"
)

// Instantiator generates constraint templates for a set of isomorphic
// example trees.
type Instantiator struct {
	examples []*layout.View
	vis      *visibility.Set

	// View-level visibility, aggregated from edge pairs. hVis holds view
	// pairs connected by a horizontal sightline (their vertical edges see
	// each other), vVis pairs connected by a vertical sightline.
	hVis map[[2]string]bool
	vVis map[[2]string]bool
}

// New builds an instantiator over the given examples. The first example
// supplies the hierarchy; visibility is unioned across all of them.
func New(examples []*layout.View) *Instantiator {
	it := &Instantiator{
		examples: examples,
		vis:      visibility.NewSet(),
		hVis:     make(map[[2]string]bool),
		vVis:     make(map[[2]string]bool),
	}
	for _, ex := range examples {
		it.vis.Merge(visibility.VisiblePairs(ex))
	}
	for _, p := range it.vis.Pairs() {
		key := [2]string{p[0].ViewName, p[1].ViewName}
		if p[0].Attribute.IsVertical() {
			// Pairs of horizontal edges (top/bottom/center_y) arise from
			// vertical casts.
			it.vVis[key] = true
		} else {
			it.hVis[key] = true
		}
	}
	return it
}

// Visibility exposes the unioned visibility set for debug output.
func (it *Instantiator) Visibility() *visibility.Set { return it.vis }

// Instantiate emits all well-formed sketches in a stable order: views in
// pre-order of the first example, attributes in canonical order, pair rules
// before the constant rule per anchor.
func (it *Instantiator) Instantiate() []constraint.Constraint {
	root := it.examples[0]
	views := root.All()

	var anchors []layout.Anchor
	for _, v := range views {
		anchors = append(anchors, v.Anchors()...)
	}

	var out []constraint.Constraint
	for _, y := range anchors {
		for _, x := range anchors {
			if c, ok := it.pairSketch(y, x); ok {
				out = append(out, c)
			}
		}
	}
	for _, y := range anchors {
		if y.Attribute.IsSize() {
			out = append(out, constraint.MustTemplate(constraint.KindSizeConstant, y.ID(), nil))
		}
	}
	return out
}

// pairSketch applies the rule table to the ordered anchor pair (y, x).
func (it *Instantiator) pairSketch(y, x layout.Anchor) (constraint.Constraint, bool) {
	ya, xa := y.Attribute, x.Attribute
	sameView := y.View == x.View
	parent := y.View.Parent() == x.View && x.View != nil
	sibling := y.View.IsSiblingOf(x.View)

	bothSize := ya.IsSize() && xa.IsSize()
	bothPos := ya.IsPosition() && xa.IsPosition()

	xid := x.ID()

	// Aspect ratio: width against height of the same view.
	if sameView && bothSize && ya.IsHorizontal() && xa.IsVertical() {
		return constraint.MustTemplate(constraint.KindSizeAspectRatio, y.ID(), &xid), true
	}

	// Parent-relative size on a shared axis.
	if parent && bothSize &&
		(ya.IsHorizontal() && xa.IsHorizontal() || ya.IsVertical() && xa.IsVertical()) {
		return constraint.MustTemplate(constraint.KindSizeRatio, y.ID(), &xid), true
	}

	// Sibling-relative size rules (child.width = a * sibling.width) are
	// deliberately not emitted: they over-generate without improving
	// coverage.

	if bothPos {
		// Adjacency: parent/child on the same attribute, or siblings on
		// opposing edges, with a clear line of sight between the edges.
		if parent && ya == xa && it.vis.Visible(y.ID(), xid) {
			return constraint.MustTemplate(constraint.KindPosLTRBOffset, y.ID(), &xid), true
		}
		if sibling && layout.IsDualPair(ya, xa) && it.vis.Visible(y.ID(), xid) {
			return constraint.MustTemplate(constraint.KindPosLTRBOffset, y.ID(), &xid), true
		}

		// Alignment: siblings on the same attribute, visible to each other
		// along the attribute's perpendicular axis.
		if sibling && ya == xa && it.viewsVisible(y.View, x.View, ya) {
			return constraint.MustTemplate(constraint.KindPosLTRBOffset, y.ID(), &xid), true
		}
	}

	return constraint.Constraint{}, false
}

// viewsVisible reports whether two views see each other along the axis
// perpendicular to attr: aligning horizontal attributes (left, right,
// center_x) needs a vertical sightline, and vice versa.
func (it *Instantiator) viewsVisible(a, b *layout.View, attr layout.Attribute) bool {
	key := [2]string{a.Name, b.Name}
	if attr.IsHorizontal() {
		return it.vVis[key]
	}
	return it.hVis[key]
}
