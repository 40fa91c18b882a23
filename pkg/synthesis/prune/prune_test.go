package prune

import (
	"context"
	"io"
	"sort"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"

	"github.com/anchorsynth/anchorsynth/pkg/constraint"
	"github.com/anchorsynth/anchorsynth/pkg/layout"
	"github.com/anchorsynth/anchorsynth/pkg/num"
	"github.com/anchorsynth/anchorsynth/pkg/smt/native"
)

func id(view string, attr layout.Attribute) layout.AnchorID {
	return layout.AnchorID{ViewName: view, Attribute: attr}
}

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

// cand builds a learned candidate with score 1.
func cand(kind constraint.Kind, y layout.AnchorID, x *layout.AnchorID, a, b num.Rat) constraint.Candidate {
	c := constraint.MustTemplate(kind, y, x)
	var sa, sb num.Rat
	if kind.IsMulOnlyForm() || kind.IsGeneralForm() {
		sa = a
	}
	if kind.IsConstantForm() || kind.IsAddOnlyForm() || kind.IsGeneralForm() {
		sb = b
	}
	return constraint.Candidate{Constraint: c.Subst(sa, sb, 2), Score: 1}
}

func ratio(y layout.AnchorID, x layout.AnchorID, a num.Rat) constraint.Candidate {
	return cand(constraint.KindSizeRatio, y, &x, a, nil)
}

func offset(y layout.AnchorID, x layout.AnchorID, b num.Rat) constraint.Candidate {
	return cand(constraint.KindPosLTRBOffset, y, &x, nil, b)
}

func sizeConst(y layout.AnchorID, b num.Rat) constraint.Candidate {
	return cand(constraint.KindSizeConstant, y, nil, nil, b)
}

func keys(cs []constraint.Constraint) map[string]bool {
	out := make(map[string]bool, len(cs))
	for _, c := range cs {
		out[c.Key()] = true
	}
	return out
}

// --- S1: constant header -------------------------------------------------

func s1Examples() []*layout.View {
	return []*layout.View{
		layout.B("root", 0, 0, 800, 600, layout.B("header", 0, 0, 800, 80)).MustBuild(),
		layout.B("root", 0, 0, 1200, 800, layout.B("header", 0, 0, 1200, 80)).MustBuild(),
	}
}

func s1Pool() []constraint.Candidate {
	return []constraint.Candidate{
		sizeConst(id("header", layout.AttrHeight), num.Int(80)),
		ratio(id("header", layout.AttrWidth), id("root", layout.AttrWidth), num.Int(1)),
		offset(id("header", layout.AttrTop), id("root", layout.AttrTop), num.Int(0)),
		offset(id("header", layout.AttrLeft), id("root", layout.AttrLeft), num.Int(0)),
		offset(id("header", layout.AttrRight), id("root", layout.AttrRight), num.Int(0)),
		offset(id("header", layout.AttrCenterX), id("root", layout.AttrCenterX), num.Int(0)),
	}
}

func TestS1ConstantHeader(t *testing.T) {
	p := NewHierarchical(s1Examples(), Bounds{}, native.Factory(), quietLogger())
	res, err := p.Prune(context.Background(), s1Pool())
	if err != nil {
		t.Fatalf("Prune error: %v", err)
	}

	got := keys(res.Constraints)
	mustHave := []constraint.Candidate{
		sizeConst(id("header", layout.AttrHeight), num.Int(80)),
		offset(id("header", layout.AttrTop), id("root", layout.AttrTop), num.Int(0)),
	}
	for _, m := range mustHave {
		if !got[m.Constraint.Key()] {
			t.Errorf("selection missing %s", m.Constraint)
		}
	}

	// Determinism closure: exactly two x-axis and two y-axis constraints
	// on the header.
	var xCount, yCount int
	for _, c := range res.Constraints {
		if c.YID.ViewName != "header" {
			t.Errorf("unexpected constraint on %s", c.YID.ViewName)
			continue
		}
		if c.IsHorizontal() {
			xCount++
		} else {
			yCount++
		}
	}
	if xCount != 2 || yCount != 2 {
		t.Errorf("determined anchors per axis = (%d, %d), want (2, 2)", xCount, yCount)
	}

	// Any consistent selection must reproduce the header rectangle at the
	// extremal conformances.
	checks := []struct {
		anchor string
		minVal string
		maxVal string
	}{
		{"header.left", "0", "0"},
		{"header.width", "800", "1200"},
		{"header.top", "0", "0"},
		{"header.height", "80", "80"},
	}
	for _, c := range checks {
		if got := num.Format(res.MinValues[c.anchor]); got != c.minVal {
			t.Errorf("min %s = %s, want %s", c.anchor, got, c.minVal)
		}
		if got := num.Format(res.MaxValues[c.anchor]); got != c.maxVal {
			t.Errorf("max %s = %s, want %s", c.anchor, got, c.maxVal)
		}
	}
}

// --- S2: header + sidebar + main -----------------------------------------

func s2Examples() []*layout.View {
	return []*layout.View{
		layout.B("root", 0, 0, 800, 600,
			layout.B("header", 0, 0, 800, 80),
			layout.B("sidebar", 0, 80, 200, 600),
			layout.B("main", 200, 80, 800, 600),
		).MustBuild(),
		layout.B("root", 0, 0, 1200, 800,
			layout.B("header", 0, 0, 1200, 80),
			layout.B("sidebar", 0, 80, 200, 800),
			layout.B("main", 200, 80, 1200, 800),
		).MustBuild(),
	}
}

func s2Pool() []constraint.Candidate {
	return []constraint.Candidate{
		// header
		sizeConst(id("header", layout.AttrHeight), num.Int(80)),
		ratio(id("header", layout.AttrWidth), id("root", layout.AttrWidth), num.Int(1)),
		offset(id("header", layout.AttrTop), id("root", layout.AttrTop), num.Int(0)),
		offset(id("header", layout.AttrLeft), id("root", layout.AttrLeft), num.Int(0)),
		offset(id("header", layout.AttrRight), id("root", layout.AttrRight), num.Int(0)),
		// sidebar
		sizeConst(id("sidebar", layout.AttrWidth), num.Int(200)),
		offset(id("sidebar", layout.AttrLeft), id("root", layout.AttrLeft), num.Int(0)),
		offset(id("sidebar", layout.AttrTop), id("header", layout.AttrBottom), num.Int(0)),
		offset(id("sidebar", layout.AttrTop), id("root", layout.AttrTop), num.Int(80)),
		offset(id("sidebar", layout.AttrBottom), id("root", layout.AttrBottom), num.Int(0)),
		// main
		offset(id("main", layout.AttrTop), id("header", layout.AttrBottom), num.Int(0)),
		offset(id("main", layout.AttrTop), id("sidebar", layout.AttrTop), num.Int(0)),
		offset(id("main", layout.AttrLeft), id("sidebar", layout.AttrRight), num.Int(0)),
		offset(id("main", layout.AttrRight), id("root", layout.AttrRight), num.Int(0)),
		offset(id("main", layout.AttrBottom), id("root", layout.AttrBottom), num.Int(0)),
	}
}

func TestS2SidebarMain(t *testing.T) {
	p := NewHierarchical(s2Examples(), Bounds{}, native.Factory(), quietLogger())
	res, err := p.Prune(context.Background(), s2Pool())
	if err != nil {
		t.Fatalf("Prune error: %v", err)
	}

	got := keys(res.Constraints)
	mustHave := []constraint.Candidate{
		sizeConst(id("header", layout.AttrHeight), num.Int(80)),
		sizeConst(id("sidebar", layout.AttrWidth), num.Int(200)),
		offset(id("sidebar", layout.AttrLeft), id("root", layout.AttrLeft), num.Int(0)),
		offset(id("sidebar", layout.AttrBottom), id("root", layout.AttrBottom), num.Int(0)),
		offset(id("main", layout.AttrLeft), id("sidebar", layout.AttrRight), num.Int(0)),
		offset(id("main", layout.AttrRight), id("root", layout.AttrRight), num.Int(0)),
		offset(id("main", layout.AttrBottom), id("root", layout.AttrBottom), num.Int(0)),
		offset(id("header", layout.AttrTop), id("root", layout.AttrTop), num.Int(0)),
	}
	for _, m := range mustHave {
		if !got[m.Constraint.Key()] {
			t.Errorf("selection missing %s", m.Constraint)
		}
	}

	// The selection must reproduce every view's rectangle at both extremal
	// conformances.
	checks := []struct {
		anchor string
		minVal string
		maxVal string
	}{
		{"sidebar.width", "200", "200"},
		{"sidebar.top", "80", "80"},
		{"sidebar.bottom", "600", "800"},
		{"main.left", "200", "200"},
		{"main.right", "800", "1200"},
		{"main.top", "80", "80"},
		{"header.height", "80", "80"},
	}
	for _, c := range checks {
		if got := num.Format(res.MinValues[c.anchor]); got != c.minVal {
			t.Errorf("min %s = %s, want %s", c.anchor, got, c.minVal)
		}
		if got := num.Format(res.MaxValues[c.anchor]); got != c.maxVal {
			t.Errorf("max %s = %s, want %s", c.anchor, got, c.maxVal)
		}
	}
}

// --- S6: hierarchical agrees with baseline on a flat tree ----------------

func TestS6BaselineAgreement(t *testing.T) {
	pool := s2Pool()
	examples := s2Examples()

	h := NewHierarchical(examples, Bounds{}, native.Factory(), quietLogger())
	hres, err := h.Prune(context.Background(), pool)
	if err != nil {
		t.Fatalf("hierarchical error: %v", err)
	}
	b := NewBlackBox(examples, Bounds{}, native.Factory(), quietLogger())
	bres, err := b.Prune(context.Background(), pool)
	if err != nil {
		t.Fatalf("baseline error: %v", err)
	}

	sortedKeys := func(m map[string]bool) []string {
		out := make([]string, 0, len(m))
		for k := range m {
			out = append(out, k)
		}
		sort.Strings(out)
		return out
	}
	hk, bk := keys(hres.Constraints), keys(bres.Constraints)
	if diff := cmp.Diff(sortedKeys(hk), sortedKeys(bk)); diff != "" {
		t.Errorf("selections differ (-hierarchical +baseline):\n%s", diff)
	}
}

// --- Nested decomposition ------------------------------------------------

func nestedExamples() []*layout.View {
	return []*layout.View{
		layout.B("root", 0, 0, 800, 600,
			layout.B("panel", 0, 0, 400, 600,
				layout.B("button", 10, 10, 110, 60),
			),
		).MustBuild(),
		layout.B("root", 0, 0, 1200, 800,
			layout.B("panel", 0, 0, 600, 800,
				layout.B("button", 10, 10, 110, 60),
			),
		).MustBuild(),
	}
}

func nestedPool() []constraint.Candidate {
	return []constraint.Candidate{
		ratio(id("panel", layout.AttrWidth), id("root", layout.AttrWidth), num.Frac(1, 2)),
		ratio(id("panel", layout.AttrHeight), id("root", layout.AttrHeight), num.Int(1)),
		offset(id("panel", layout.AttrLeft), id("root", layout.AttrLeft), num.Int(0)),
		offset(id("panel", layout.AttrTop), id("root", layout.AttrTop), num.Int(0)),
		sizeConst(id("button", layout.AttrWidth), num.Int(100)),
		sizeConst(id("button", layout.AttrHeight), num.Int(50)),
		offset(id("button", layout.AttrLeft), id("panel", layout.AttrLeft), num.Int(10)),
		offset(id("button", layout.AttrTop), id("panel", layout.AttrTop), num.Int(10)),
	}
}

func TestHierarchicalDecomposition(t *testing.T) {
	p := NewHierarchical(nestedExamples(), Bounds{}, native.Factory(), quietLogger())
	res, err := p.Prune(context.Background(), nestedPool())
	if err != nil {
		t.Fatalf("Prune error: %v", err)
	}

	got := keys(res.Constraints)
	for _, m := range nestedPool() {
		if !got[m.Constraint.Key()] {
			t.Errorf("selection missing %s", m.Constraint)
		}
	}
	if len(res.Constraints) != len(nestedPool()) {
		t.Errorf("selected %d constraints, want %d", len(res.Constraints), len(nestedPool()))
	}

	// Valuations from the child subproblem surface in the result.
	if got := num.Format(res.MinValues["button.width"]); got != "100" {
		t.Errorf("min button.width = %s, want 100", got)
	}
}

// --- Generalization invariant --------------------------------------------

func TestSelectionHoldsAtConformances(t *testing.T) {
	p := NewHierarchical(s2Examples(), Bounds{}, native.Factory(), quietLogger())
	res, err := p.Prune(context.Background(), s2Pool())
	if err != nil {
		t.Fatalf("Prune error: %v", err)
	}

	check := func(vals map[string]num.Rat, label string) {
		for _, c := range res.Constraints {
			y, ok := vals[c.YID.String()]
			if !ok {
				continue
			}
			rhs := c.B
			if c.XID != nil {
				x, ok := vals[c.XID.String()]
				if !ok {
					continue
				}
				rhs = num.Add(num.Mul(c.A, x), c.B)
			}
			if !c.Op.Holds(y, rhs) {
				t.Errorf("%s model violates %s (y=%s rhs=%s)", label, c, num.Format(y), num.Format(rhs))
			}
		}
	}
	check(res.MinValues, "min")
	check(res.MaxValues, "max")
}

// --- Bound handling ------------------------------------------------------

func TestCombineBounds(t *testing.T) {
	y := id("bar", layout.AttrHeight)
	ge := cand(constraint.KindSizeConstantBound, y, nil, nil, num.Int(80))
	ge.Constraint = ge.Constraint.WithOp(constraint.OpGE)
	le := cand(constraint.KindSizeConstantBound, y, nil, nil, num.Int(81))
	le.Constraint = le.Constraint.WithOp(constraint.OpLE)

	out := combineBounds([]constraint.Candidate{ge, le})
	if len(out) != 1 {
		t.Fatalf("combined %d candidates, want 1", len(out))
	}
	c := out[0].Constraint
	if c.Op != constraint.OpEq || c.Kind != constraint.KindSizeConstant {
		t.Errorf("merged bound = %s, want equality size constant", c)
	}
	if num.Format(c.B) != "161/2" {
		t.Errorf("merged b = %s, want 161/2", num.Format(c.B))
	}
	if c.Priority != constraint.PriorityStrong {
		t.Errorf("merged priority = %v, want strong", c.Priority)
	}
}

func TestStrayBoundCoverage(t *testing.T) {
	y := id("bar", layout.AttrHeight)
	stray := cand(constraint.KindSizeConstantBound, y, nil, nil, num.Int(80))
	stray.Constraint = stray.Constraint.WithOp(constraint.OpGE)

	// Alone, the stray bound fills a gap and survives.
	out := combineBounds([]constraint.Candidate{stray})
	if len(out) != 1 {
		t.Fatalf("stray bound should survive, got %d", len(out))
	}

	// With an equality covering the anchor, it is dropped.
	eq := sizeConst(y, num.Int(80))
	out = combineBounds([]constraint.Candidate{stray, eq})
	for _, c := range out {
		if c.Constraint.Kind == constraint.KindSizeConstantBound {
			t.Errorf("covered stray bound should be dropped, got %s", c.Constraint)
		}
	}
}

// --- Misc ----------------------------------------------------------------

func TestPassThrough(t *testing.T) {
	res, err := PassThrough{}.Prune(context.Background(), s1Pool())
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Constraints) != len(s1Pool()) {
		t.Errorf("pass-through kept %d of %d", len(res.Constraints), len(s1Pool()))
	}
}

func TestAspectRatioFilteredBeforeEncoding(t *testing.T) {
	x := id("header", layout.AttrHeight)
	pool := append(s1Pool(),
		cand(constraint.KindSizeAspectRatio, id("header", layout.AttrWidth), &x, num.Int(10), nil))

	p := NewHierarchical(s1Examples(), Bounds{}, native.Factory(), quietLogger())
	res, err := p.Prune(context.Background(), pool)
	if err != nil {
		t.Fatalf("Prune error: %v", err)
	}
	for _, c := range res.Constraints {
		if c.Kind == constraint.KindSizeAspectRatio {
			t.Errorf("aspect ratio survived pruning: %s", c)
		}
	}
}

func TestWholeScore(t *testing.T) {
	y := id("bar", layout.AttrHeight)
	eq := sizeConst(y, num.Int(80))
	bound := cand(constraint.KindSizeConstantBound, y, nil, nil, num.Int(80))

	if wholeScore(eq) <= wholeScore(bound) {
		t.Error("size constant should outscore its bound form at equal posterior")
	}
	low := eq
	low.Score = 0.5
	if wholeScore(eq) <= wholeScore(low) {
		t.Error("higher posterior should yield higher weight")
	}
}

func TestRelevant(t *testing.T) {
	root := s2Examples()[0]

	in := offset(id("sidebar", layout.AttrTop), id("header", layout.AttrBottom), num.Int(0))
	if !relevant(root, in.Constraint) {
		t.Error("sibling-anchored child constraint should be relevant to root")
	}
	self := sizeConst(id("root", layout.AttrWidth), num.Int(800))
	if relevant(root, self.Constraint) {
		t.Error("constraints on the focus itself are not relevant")
	}
}
