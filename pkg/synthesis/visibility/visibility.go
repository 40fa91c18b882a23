// Package visibility computes line-of-sight relationships between view
// edges.
//
// Two edges are visible to each other when an axis-aligned segment can be
// drawn from a point on one to a point on the other without crossing any
// other view's edge. The engine casts sweep lines at every child boundary
// coordinate and pairs up edges that end up adjacent along each cast,
// recursing into every non-leaf view.
//
// Visibility is what separates plausible adjacency constraints ("sidebar.top
// meets header.bottom") from geometric coincidences between views that
// cannot see each other.
package visibility

import (
	"sort"

	"github.com/anchorsynth/anchorsynth/pkg/layout"
	"github.com/anchorsynth/anchorsynth/pkg/num"
)

// Set records which edge pairs are mutually visible. Pairs are symmetric:
// Visible(a, b) == Visible(b, a).
type Set struct {
	pairs map[[2]layout.AnchorID]bool
}

// NewSet returns an empty visibility set.
func NewSet() *Set {
	return &Set{pairs: make(map[[2]layout.AnchorID]bool)}
}

// Add records a visible pair in both orientations.
func (s *Set) Add(a, b layout.AnchorID) {
	s.pairs[[2]layout.AnchorID{a, b}] = true
	s.pairs[[2]layout.AnchorID{b, a}] = true
}

// Visible reports whether the two anchors' edges see each other.
func (s *Set) Visible(a, b layout.AnchorID) bool {
	return s.pairs[[2]layout.AnchorID{a, b}]
}

// Merge adds every pair of o into s.
func (s *Set) Merge(o *Set) {
	for p := range o.pairs {
		s.pairs[p] = true
	}
}

// Len returns the number of ordered pairs in the set.
func (s *Set) Len() int { return len(s.pairs) }

// Pairs returns all ordered pairs in a stable order, for debug output and
// tests.
func (s *Set) Pairs() [][2]layout.AnchorID {
	out := make([][2]layout.AnchorID, 0, len(s.pairs))
	for p := range s.pairs {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i][0] != out[j][0] {
			return out[i][0].String() < out[j][0].String()
		}
		return out[i][1].String() < out[j][1].String()
	})
	return out
}

// VisiblePairs computes the visibility set for v's subtree: one sweep pass
// per internal view, recursing into every non-leaf child. The root of each
// pass contributes its own edges as the outer boundary.
func VisiblePairs(v *layout.View) *Set {
	set := NewSet()
	visit(v, set)
	return set
}

func visit(v *layout.View, set *Set) {
	if len(v.Children) > 0 {
		sweep(v, set)
	}
	for _, c := range v.Children {
		visit(c, set)
	}
}

// sweep casts vertical lines through the horizontal edges of v's children
// (pairing top/bottom edges and center_y companions) and horizontal lines
// through their vertical edges (pairing left/right edges and center_x
// companions). The parent's own edges bound every cast.
func sweep(v *layout.View, set *Set) {
	var hIndex, vIndex intervalIndex
	for _, c := range v.Children {
		hIndex.add(c.Edge(layout.AttrTop))
		hIndex.add(c.Edge(layout.AttrBottom))
		vIndex.add(c.Edge(layout.AttrLeft))
		vIndex.add(c.Edge(layout.AttrRight))
	}

	xEvents := sweepCoords(v, layout.AttrLeft, layout.AttrRight)
	yEvents := sweepCoords(v, layout.AttrTop, layout.AttrBottom)

	for _, x := range xEvents {
		hits := hIndex.stab(x)
		sortEdges(hits, layout.AttrCenterY)
		line := make([]layout.Edge, 0, len(hits)+2)
		line = append(line, v.Edge(layout.AttrTop))
		line = append(line, hits...)
		line = append(line, v.Edge(layout.AttrBottom))
		emitAdjacent(line, layout.AttrCenterY, set)
	}

	for _, y := range yEvents {
		hits := vIndex.stab(y)
		sortEdges(hits, layout.AttrCenterX)
		line := make([]layout.Edge, 0, len(hits)+2)
		line = append(line, v.Edge(layout.AttrLeft))
		line = append(line, hits...)
		line = append(line, v.Edge(layout.AttrRight))
		emitAdjacent(line, layout.AttrCenterX, set)
	}
}

// sweepCoords returns the deduplicated lo/hi coordinates of v and its
// children along one axis, in increasing order.
func sweepCoords(v *layout.View, lo, hi layout.Attribute) []num.Rat {
	var coords []num.Rat
	add := func(r num.Rat) {
		for _, c := range coords {
			if num.Eq(c, r) {
				return
			}
		}
		coords = append(coords, r)
	}
	add(v.Attr(lo))
	add(v.Attr(hi))
	for _, c := range v.Children {
		add(c.Attr(lo))
		add(c.Attr(hi))
	}
	sort.Slice(coords, func(i, j int) bool { return coords[i].Cmp(coords[j]) < 0 })
	return coords
}

// sortEdges orders hit edges along the cast: by the owning view's center on
// the cast's axis, then by edge position. The sort is stable so coincident
// edges keep insertion order, which keeps the pass deterministic.
func sortEdges(edges []layout.Edge, center layout.Attribute) {
	sort.SliceStable(edges, func(i, j int) bool {
		ci, cj := edges[i].View().Attr(center), edges[j].View().Attr(center)
		if c := ci.Cmp(cj); c != 0 {
			return c < 0
		}
		return edges[i].Position().Cmp(edges[j].Position()) < 0
	})
}

// emitAdjacent pairs each two consecutive distinct-view edges along a cast,
// plus the corresponding center edges of the two views (which back center
// alignment constraints).
func emitAdjacent(line []layout.Edge, center layout.Attribute, set *Set) {
	for i := 0; i+1 < len(line); i++ {
		a, b := line[i], line[i+1]
		if a.View().Name == b.View().Name {
			continue
		}
		set.Add(a.Anchor.ID(), b.Anchor.ID())
		set.Add(
			layout.AnchorID{ViewName: a.View().Name, Attribute: center},
			layout.AnchorID{ViewName: b.View().Name, Attribute: center},
		)
	}
}
