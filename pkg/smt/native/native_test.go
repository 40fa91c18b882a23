package native

import (
	"context"
	"testing"
	"time"

	"github.com/anchorsynth/anchorsynth/pkg/num"
	"github.com/anchorsynth/anchorsynth/pkg/smt"
)

func TestPureTheorySat(t *testing.T) {
	s := New()
	s.AddHard(smt.Eq(smt.V("x"), smt.Const(num.Int(5))))

	res, err := s.CheckWithDeadline(context.Background())
	if err != nil || res != smt.Sat {
		t.Fatalf("check = %v, %v; want sat", res, err)
	}
	m, err := s.Model()
	if err != nil {
		t.Fatal(err)
	}
	if num.Format(m.Values["x"]) != "5" {
		t.Errorf("x = %s, want 5", num.Format(m.Values["x"]))
	}
}

func TestPureTheoryUnsat(t *testing.T) {
	s := New()
	s.AddHard(smt.Eq(smt.V("x"), smt.Const(num.Int(5))))
	s.AddHard(smt.Eq(smt.V("x"), smt.Const(num.Int(6))))

	res, err := s.CheckWithDeadline(context.Background())
	if err != nil || res != smt.Unsat {
		t.Fatalf("check = %v, %v; want unsat", res, err)
	}
}

func TestSoftMaximization(t *testing.T) {
	// Two selectors imply contradictory values for x; the heavier one must
	// win.
	s := New()
	s.AddImplication("a", smt.Eq(smt.V("x"), smt.Const(num.Int(1))))
	s.AddImplication("b", smt.Eq(smt.V("x"), smt.Const(num.Int(2))))
	s.AddSoft("a", 10)
	s.AddSoft("b", 20)

	res, err := s.CheckWithDeadline(context.Background())
	if err != nil || res != smt.Sat {
		t.Fatalf("check = %v, %v; want sat", res, err)
	}
	m, _ := s.Model()
	if m.Bools["a"] || !m.Bools["b"] {
		t.Errorf("model bools = %v, want b only", m.Bools)
	}
	if num.Format(m.Values["x"]) != "2" {
		t.Errorf("x = %s, want 2", num.Format(m.Values["x"]))
	}
}

func TestCompatibleSoftBothChosen(t *testing.T) {
	s := New()
	s.AddImplication("a", smt.Eq(smt.V("x"), smt.Const(num.Int(3))))
	s.AddImplication("b", smt.Eq(smt.V("y"), smt.V("x")))
	s.AddSoft("a", 5)
	s.AddSoft("b", 5)

	res, err := s.CheckWithDeadline(context.Background())
	if err != nil || res != smt.Sat {
		t.Fatalf("check = %v, %v; want sat", res, err)
	}
	m, _ := s.Model()
	if !m.Bools["a"] || !m.Bools["b"] {
		t.Errorf("both selectors should be active: %v", m.Bools)
	}
	if num.Format(m.Values["y"]) != "3" {
		t.Errorf("y = %s, want 3", num.Format(m.Values["y"]))
	}
}

func TestCardinalityExactly(t *testing.T) {
	// Three compatible selectors, but exactly two may be active; the two
	// heaviest win.
	s := New()
	s.AddImplication("a", smt.Eq(smt.V("xa"), smt.Const(num.Int(1))))
	s.AddImplication("b", smt.Eq(smt.V("xb"), smt.Const(num.Int(1))))
	s.AddImplication("c", smt.Eq(smt.V("xc"), smt.Const(num.Int(1))))
	s.AddSoft("a", 10)
	s.AddSoft("b", 30)
	s.AddSoft("c", 20)
	s.AddCardinality([]smt.Lit{smt.Pos("a"), smt.Pos("b"), smt.Pos("c")}, 2, 2)

	res, err := s.CheckWithDeadline(context.Background())
	if err != nil || res != smt.Sat {
		t.Fatalf("check = %v, %v; want sat", res, err)
	}
	m, _ := s.Model()
	if m.Bools["a"] || !m.Bools["b"] || !m.Bools["c"] {
		t.Errorf("want b and c active, got %v", m.Bools)
	}
}

func TestCardinalityInfeasibleFloor(t *testing.T) {
	s := New()
	s.AddSoft("a", 1)
	s.AddCardinality([]smt.Lit{smt.Pos("a")}, 2, 2)

	res, err := s.CheckWithDeadline(context.Background())
	if err != nil || res != smt.Unsat {
		t.Fatalf("check = %v, %v; want unsat", res, err)
	}
}

func TestCegarConflictRefinement(t *testing.T) {
	// a and b together are arithmetically inconsistent but boolean-free;
	// the CEGAR loop must discover the conflict and settle on the heavier
	// selector.
	s := New()
	s.AddImplication("a", smt.Eq(smt.V("x"), smt.Const(num.Int(1))))
	s.AddImplication("b", smt.GE(smt.V("x"), smt.Const(num.Int(10))))
	s.AddSoft("a", 7)
	s.AddSoft("b", 3)

	res, err := s.CheckWithDeadline(context.Background())
	if err != nil || res != smt.Sat {
		t.Fatalf("check = %v, %v; want sat", res, err)
	}
	m, _ := s.Model()
	if !m.Bools["a"] || m.Bools["b"] {
		t.Errorf("want a active and b refuted, got %v", m.Bools)
	}
}

func TestClauseForcesSelector(t *testing.T) {
	s := New()
	s.AddImplication("a", smt.Eq(smt.V("x"), smt.Const(num.Int(4))))
	s.AddClause(smt.Pos("a"))

	res, err := s.CheckWithDeadline(context.Background())
	if err != nil || res != smt.Sat {
		t.Fatalf("check = %v, %v; want sat", res, err)
	}
	m, _ := s.Model()
	if !m.Bools["a"] {
		t.Error("hard clause should force a")
	}
	if num.Format(m.Values["x"]) != "4" {
		t.Errorf("x = %s, want 4", num.Format(m.Values["x"]))
	}
}

func TestMinimizeMaximizeAfterCheck(t *testing.T) {
	s := New()
	s.AddHard(smt.GE(smt.V("w"), smt.Const(num.Int(100))))
	s.AddHard(smt.LE(smt.V("w"), smt.Const(num.Int(300))))
	s.AddImplication("a", smt.GE(smt.V("w"), smt.Const(num.Int(150))))
	s.AddSoft("a", 1)

	if res, err := s.CheckWithDeadline(context.Background()); err != nil || res != smt.Sat {
		t.Fatalf("check = %v, %v; want sat", res, err)
	}

	lo, err := s.Minimize(context.Background(), smt.V("w"))
	if err != nil {
		t.Fatal(err)
	}
	if num.Format(lo) != "150" {
		t.Errorf("min w = %s, want 150 (selector held as hard fact)", num.Format(lo))
	}
	hi, err := s.Maximize(context.Background(), smt.V("w"))
	if err != nil {
		t.Fatal(err)
	}
	if num.Format(hi) != "300" {
		t.Errorf("max w = %s, want 300", num.Format(hi))
	}
}

func TestDeadlineExpiry(t *testing.T) {
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	s := New()
	s.AddImplication("a", smt.Eq(smt.V("x"), smt.Const(num.Int(1))))
	s.AddSoft("a", 1)

	res, err := s.CheckWithDeadline(ctx)
	if res != smt.Unknown || err == nil {
		t.Errorf("expired deadline should yield unknown with error, got %v, %v", res, err)
	}
}
