package learn

import (
	"testing"

	"github.com/anchorsynth/anchorsynth/pkg/constraint"
	"github.com/anchorsynth/anchorsynth/pkg/layout"
	"github.com/anchorsynth/anchorsynth/pkg/num"
)

// exampleWithHeight builds a root with a single child whose height is h
// hundredths of a unit.
func exampleWithHeight(hundredths int64) *layout.View {
	return (&layout.Builder{
		Name: "root",
		Rect: layout.RectFromInts(0, 0, 800, 600),
		Children: []*layout.Builder{{
			Name: "bar",
			Rect: layout.Rect{
				Left:   num.Int(0),
				Top:    num.Int(0),
				Right:  num.Int(800),
				Bottom: num.Frac(hundredths, 100),
			},
		}},
	}).MustBuild()
}

func TestBoundFallback(t *testing.T) {
	// Heights hover tightly around 80.5: the interval contains no integer,
	// so the learner falls back to a pair of one-sided bounds.
	examples := []*layout.View{
		exampleWithHeight(8045),
		exampleWithHeight(8055),
		exampleWithHeight(8050),
		exampleWithHeight(8048),
		exampleWithHeight(8052),
	}
	tpl := constraint.MustTemplate(constraint.KindSizeConstant, id("bar", layout.AttrHeight), nil)
	cands := learnOne(t, tpl, examples)

	if len(cands) != 2 {
		t.Fatalf("expected 2 bound candidates, got %d: %v", len(cands), cands)
	}
	var sawGE, sawLE bool
	for _, c := range cands {
		if c.Constraint.Kind != constraint.KindSizeConstantBound {
			t.Errorf("bound fallback has kind %s", c.Constraint.Kind)
		}
		switch c.Constraint.Op {
		case constraint.OpGE:
			sawGE = true
			if num.Format(c.Constraint.B) != "80" {
				t.Errorf("lower bound b = %s, want 80", num.Format(c.Constraint.B))
			}
		case constraint.OpLE:
			sawLE = true
			if num.Format(c.Constraint.B) != "81" {
				t.Errorf("upper bound b = %s, want 81", num.Format(c.Constraint.B))
			}
		}
	}
	if !sawGE || !sawLE {
		t.Error("expected one >= and one <= bound")
	}
}
