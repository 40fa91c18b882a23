package prune

import (
	"context"
	"math"
	"sort"

	"github.com/anchorsynth/anchorsynth/pkg/constraint"
	"github.com/anchorsynth/anchorsynth/pkg/layout"
	"github.com/anchorsynth/anchorsynth/pkg/num"
)

// Method names a pruning strategy, as selected in the options.
type Method string

// The pruning methods.
const (
	MethodNone         Method = "none"
	MethodBaseline     Method = "baseline"
	MethodHierarchical Method = "hierarchical"
)

// Valid reports whether m names a known method.
func (m Method) Valid() bool {
	switch m {
	case MethodNone, MethodBaseline, MethodHierarchical:
		return true
	}
	return false
}

// Result is a pruner's output: the selected constraints plus the anchor
// valuations observed at the extremal conformances of each query.
type Result struct {
	Constraints []constraint.Constraint
	MinValues   map[string]num.Rat
	MaxValues   map[string]num.Rat
}

// Pruner selects a subset of candidates. Implementations degrade
// gracefully: an unsatisfiable or timed-out subproblem contributes an
// empty selection, and only context expiry aborts the whole run.
type Pruner interface {
	Prune(ctx context.Context, cands []constraint.Candidate) (Result, error)
}

// wholeScore converts a candidate's posterior into an integer soft weight:
// round(1000·score), nudged so that an exact size constant always outranks
// the inequality bound on the same anchor.
func wholeScore(c constraint.Candidate) int {
	w := int(math.Round(1000 * c.Score))
	if w < 1 {
		w = 1
	}
	switch c.Constraint.Kind {
	case constraint.KindSizeConstant:
		w += 2
	case constraint.KindSizeConstantBound:
		if w > 1 {
			w--
		}
	}
	return w
}

// boundMergeSlack is how far apart (in layout units) a >= / <= pair on the
// same anchor may sit and still collapse into one equality.
var boundMergeSlack = num.Int(5)

// combineBounds merges complementary size-constant bounds. A >= and <=
// pair on the same anchor within the slack becomes a single equality at
// the midpoint with strong priority; a stray bound survives only when no
// equality candidate covers its anchor (it fills a coverage gap).
func combineBounds(cands []constraint.Candidate) []constraint.Candidate {
	covered := make(map[layout.AnchorID]bool)
	for _, c := range cands {
		if c.Constraint.Op == constraint.OpEq {
			covered[c.Constraint.YID] = true
		}
	}

	var out []constraint.Candidate
	merged := make(map[int]bool)
	for i, c := range cands {
		if merged[i] {
			continue
		}
		if c.Constraint.Kind != constraint.KindSizeConstantBound {
			out = append(out, c)
			continue
		}
		// Look for the complementary half.
		partner := -1
		for j := i + 1; j < len(cands); j++ {
			o := cands[j]
			if merged[j] || o.Constraint.Kind != constraint.KindSizeConstantBound {
				continue
			}
			if o.Constraint.YID != c.Constraint.YID || o.Constraint.Op == c.Constraint.Op {
				continue
			}
			gap := num.Abs(num.Sub(o.Constraint.B, c.Constraint.B))
			if gap.Cmp(boundMergeSlack) < 0 {
				partner = j
				break
			}
		}
		if partner >= 0 {
			o := cands[partner]
			merged[partner] = true
			eq := c.Constraint.
				WithOp(constraint.OpEq).
				WithB(num.Mid(c.Constraint.B, o.Constraint.B)).
				WithPriority(constraint.PriorityStrong)
			eq.Kind = constraint.KindSizeConstant
			out = append(out, constraint.Candidate{
				Constraint: eq,
				Score:      math.Max(c.Score, o.Score),
			})
			continue
		}
		if covered[c.Constraint.YID] {
			// An equality already determines this anchor; the stray bound
			// adds nothing.
			continue
		}
		out = append(out, c)
	}
	return out
}

// filterCandidates prepares the pool for encoding: aspect-ratio kinds are
// dropped (they cross axes, and the per-axis queries cannot host them),
// then bounds are combined.
func filterCandidates(cands []constraint.Candidate) []constraint.Candidate {
	var kept []constraint.Candidate
	for _, c := range cands {
		switch c.Constraint.Kind {
		case constraint.KindSizeAspectRatio, constraint.KindSizeAspectRatioGeneral:
			continue
		}
		kept = append(kept, c)
	}
	return combineBounds(kept)
}

// relevant reports whether a candidate belongs to the focus view's
// subproblem: its y anchor must be on an immediate child of the focus, and
// its x anchor (if any) on the focus itself or another immediate child.
func relevant(focus *layout.View, c constraint.Constraint) bool {
	if !focus.IsParentOf(c.YID.ViewName) {
		return false
	}
	if c.XID == nil {
		return true
	}
	return c.XID.ViewName == focus.Name || focus.IsParentOf(c.XID.ViewName)
}

// sortConstraints orders a selection canonically so that output is
// deterministic regardless of solver internals.
func sortConstraints(cs []constraint.Constraint) {
	sort.Slice(cs, func(i, j int) bool { return cs[i].Key() < cs[j].Key() })
}
