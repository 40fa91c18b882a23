package visibility

import (
	"github.com/anchorsynth/anchorsynth/pkg/layout"
	"github.com/anchorsynth/anchorsynth/pkg/num"
)

// intervalIndex holds edges keyed by the interval they span on their
// perpendicular axis and answers stabbing queries.
//
// Intervals are half-open [lo, hi): an edge is hit by a sweep coordinate q
// when lo <= q < hi. Half-open stabbing means a sweep cast exactly at the
// seam of two touching views hits only the view starting there, which keeps
// seam-adjacent edges from occluding each other. Edges with empty intervals
// (zero-extent views) are dropped at insert.
//
// The index is a plain slice with linear stabbing. View trees have a handful
// of children per parent, so n is tiny; an actual interval tree would cost
// more in bookkeeping than it saves.
type intervalIndex struct {
	entries []intervalEntry
}

type intervalEntry struct {
	lo, hi num.Rat
	edge   layout.Edge
}

// add indexes an edge under its own interval. Empty intervals are ignored.
func (ix *intervalIndex) add(e layout.Edge) {
	if e.Lo.Cmp(e.Hi) >= 0 {
		return
	}
	ix.entries = append(ix.entries, intervalEntry{lo: e.Lo, hi: e.Hi, edge: e})
}

// stab returns the edges whose interval contains q, in insertion order.
func (ix *intervalIndex) stab(q num.Rat) []layout.Edge {
	var hits []layout.Edge
	for _, en := range ix.entries {
		if en.lo.Cmp(q) <= 0 && q.Cmp(en.hi) < 0 {
			hits = append(hits, en.edge)
		}
	}
	return hits
}
