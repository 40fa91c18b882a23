// Package prune selects a mutually consistent, deterministic,
// maximally-scoring subset of learned constraint candidates.
//
// Selection is global inference, phrased as MaxSMT: boolean selectors pick
// candidates, hard assertions encode geometry, containment and determinism
// over a handful of concrete test screen sizes (conformances), and soft
// weights carry the learners' posterior scores. The hierarchical pruner
// decomposes the problem into one query per internal view so each query
// stays small; the baseline pruner runs the same encoding monolithically
// over the root and is used for cross-checking.
package prune

import (
	"github.com/anchorsynth/anchorsynth/pkg/layout"
	"github.com/anchorsynth/anchorsynth/pkg/num"
)

// Conformance is one concrete test screen size: the focus rectangle's
// origin and dimensions at one test point.
type Conformance struct {
	W num.Rat
	H num.Rat
	X num.Rat
	Y num.Rat
}

// Bounds describes the test range for pruning. Nil fields mean "derive
// from the examples".
type Bounds struct {
	MinW, MinH, MaxW, MaxH num.Rat
	MinX, MinY, MaxX, MaxY num.Rat
}

// conformanceCount is the number of test points per query. Three points
// (min, mid, max) is the paper's choice: more points linearly increase
// solve time and make queries more conservative.
const conformanceCount = 3

// Range interpolates between a minimum and maximum conformance. n of 2
// returns the endpoints; 3 and up adds the midpoint (the count is clamped
// to 3; the encoding gains nothing from more).
func Range(min, max Conformance, n int) []Conformance {
	if n <= 2 {
		return []Conformance{min, max}
	}
	mid := Conformance{
		W: num.Mid(min.W, max.W),
		H: num.Mid(min.H, max.H),
		X: num.Mid(min.X, max.X),
		Y: num.Mid(min.Y, max.Y),
	}
	return []Conformance{min, mid, max}
}

// confSpan derives the extremal conformances for a set of examples,
// widening the given bounds so that every example is inside the range.
func confSpan(examples []*layout.View, b Bounds) (Conformance, Conformance) {
	first := examples[0]
	minC := Conformance{W: first.Rect.Width(), H: first.Rect.Height(), X: first.Rect.Left, Y: first.Rect.Top}
	maxC := minC
	for _, ex := range examples[1:] {
		r := ex.Rect
		minC.W, maxC.W = num.Min(minC.W, r.Width()), num.Max(maxC.W, r.Width())
		minC.H, maxC.H = num.Min(minC.H, r.Height()), num.Max(maxC.H, r.Height())
		minC.X, maxC.X = num.Min(minC.X, r.Left), num.Max(maxC.X, r.Left)
		minC.Y, maxC.Y = num.Min(minC.Y, r.Top), num.Max(maxC.Y, r.Top)
	}
	if b.MinW != nil {
		minC.W = num.Min(b.MinW, minC.W)
	}
	if b.MaxW != nil {
		maxC.W = num.Max(b.MaxW, maxC.W)
	}
	if b.MinH != nil {
		minC.H = num.Min(b.MinH, minC.H)
	}
	if b.MaxH != nil {
		maxC.H = num.Max(b.MaxH, maxC.H)
	}
	if b.MinX != nil {
		minC.X = num.Min(b.MinX, minC.X)
	}
	if b.MaxX != nil {
		maxC.X = num.Max(b.MaxX, maxC.X)
	}
	if b.MinY != nil {
		minC.Y = num.Min(b.MinY, minC.Y)
	}
	if b.MaxY != nil {
		maxC.Y = num.Max(b.MaxY, maxC.Y)
	}
	return minC, maxC
}
