// Package smt defines the MaxSMT backend interface the pruner talks to.
//
// The pruner's queries mix boolean selector variables (one per candidate
// constraint) with rational anchor variables related by linear arithmetic:
// hard assertions, selector-implied assertions, cardinality constraints
// over selectors, and weighted soft selectors. A backend must find a model
// maximizing the satisfied soft weight, and must support minimizing or
// maximizing a linear objective for child-dimension inference.
//
// The interface deliberately mirrors a subset of an SMT optimizer's
// surface (assert hard, assert soft, minimize/maximize, check with a
// deadline, extract model) so that backends can be swapped without
// touching the pruner. The default backend lives in smt/native; a Z3-based
// one would satisfy the same interface.
package smt

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/anchorsynth/anchorsynth/pkg/num"
)

// Var names a rational theory variable. Theory variables are nonnegative;
// the layout encoding guarantees this by construction and backends may rely
// on it.
type Var string

// Bool names a boolean selector variable.
type Bool string

// Lit is a possibly negated selector literal.
type Lit struct {
	Bool    Bool
	Negated bool
}

// Pos and Neg build literals.
func Pos(b Bool) Lit { return Lit{Bool: b} }
func Neg(b Bool) Lit { return Lit{Bool: b, Negated: true} }

// LinExpr is a linear expression over theory variables: sum of coeff·var
// plus a constant. The zero value is the constant 0.
type LinExpr struct {
	Terms map[Var]num.Rat
	Const num.Rat
}

// Const builds a constant expression.
func Const(c num.Rat) LinExpr {
	return LinExpr{Const: c}
}

// Term builds the expression coeff·v.
func Term(v Var, coeff num.Rat) LinExpr {
	return LinExpr{Terms: map[Var]num.Rat{v: coeff}}
}

// V builds the expression 1·v.
func V(v Var) LinExpr {
	return Term(v, num.Int(1))
}

// constant returns the expression's constant, defaulting nil to 0.
func (e LinExpr) constant() num.Rat {
	if e.Const == nil {
		return num.Int(0)
	}
	return e.Const
}

// Plus returns e + o.
func (e LinExpr) Plus(o LinExpr) LinExpr {
	out := LinExpr{Terms: make(map[Var]num.Rat, len(e.Terms)+len(o.Terms))}
	for v, c := range e.Terms {
		out.Terms[v] = c
	}
	for v, c := range o.Terms {
		if prev, ok := out.Terms[v]; ok {
			out.Terms[v] = num.Add(prev, c)
		} else {
			out.Terms[v] = c
		}
	}
	out.Const = num.Add(e.constant(), o.constant())
	return out
}

// Minus returns e - o.
func (e LinExpr) Minus(o LinExpr) LinExpr {
	return e.Plus(o.Scale(num.Int(-1)))
}

// Scale returns k·e.
func (e LinExpr) Scale(k num.Rat) LinExpr {
	out := LinExpr{Terms: make(map[Var]num.Rat, len(e.Terms))}
	for v, c := range e.Terms {
		out.Terms[v] = num.Mul(c, k)
	}
	out.Const = num.Mul(e.constant(), k)
	return out
}

// Eval substitutes variable values into the expression. Missing variables
// count as zero.
func (e LinExpr) Eval(values map[Var]num.Rat) num.Rat {
	out := e.constant()
	for v, c := range e.Terms {
		if val, ok := values[v]; ok {
			out = num.Add(out, num.Mul(c, val))
		}
	}
	return out
}

// String renders the expression deterministically for debugging.
func (e LinExpr) String() string {
	vars := make([]string, 0, len(e.Terms))
	for v := range e.Terms {
		vars = append(vars, string(v))
	}
	sort.Strings(vars)
	var sb strings.Builder
	for _, v := range vars {
		fmt.Fprintf(&sb, "%s*%s + ", num.Format(e.Terms[Var(v)]), v)
	}
	sb.WriteString(num.Format(e.constant()))
	return sb.String()
}

// Cmp is a linear relation's comparison.
type Cmp int

// The comparisons.
const (
	CmpEq Cmp = iota
	CmpLE
	CmpGE
)

func (c Cmp) String() string {
	switch c {
	case CmpEq:
		return "="
	case CmpLE:
		return "<="
	case CmpGE:
		return ">="
	}
	return "?"
}

// Rel asserts LHS cmp RHS between two linear expressions.
type Rel struct {
	LHS LinExpr
	Cmp Cmp
	RHS LinExpr
}

// Eq, LE and GE build relations.
func Eq(a, b LinExpr) Rel { return Rel{LHS: a, Cmp: CmpEq, RHS: b} }
func LE(a, b LinExpr) Rel { return Rel{LHS: a, Cmp: CmpLE, RHS: b} }
func GE(a, b LinExpr) Rel { return Rel{LHS: a, Cmp: CmpGE, RHS: b} }

// Holds evaluates the relation under a variable assignment.
func (r Rel) Holds(values map[Var]num.Rat) bool {
	l, rr := r.LHS.Eval(values), r.RHS.Eval(values)
	switch r.Cmp {
	case CmpEq:
		return num.Eq(l, rr)
	case CmpLE:
		return l.Cmp(rr) <= 0
	case CmpGE:
		return l.Cmp(rr) >= 0
	}
	return false
}

func (r Rel) String() string {
	return fmt.Sprintf("%s %s %s", r.LHS, r.Cmp, r.RHS)
}

// Result is a solver verdict.
type Result int

// The verdicts.
const (
	Unknown Result = iota
	Sat
	Unsat
)

func (r Result) String() string {
	switch r {
	case Sat:
		return "sat"
	case Unsat:
		return "unsat"
	}
	return "unknown"
}

// Model is a satisfying assignment: selector valuations plus theory
// variable values.
type Model struct {
	Bools  map[Bool]bool
	Values map[Var]num.Rat
}

// Solver is one MaxSMT query in progress. Implementations are single-use:
// build the query, check it, read the model, close. A fresh solver is used
// per subproblem; Close releases backend resources.
type Solver interface {
	// AddHard asserts a relation that every model must satisfy.
	AddHard(r Rel)

	// AddImplication asserts sel → r.
	AddImplication(sel Bool, r Rel)

	// AddClause asserts a disjunction of selector literals.
	AddClause(lits ...Lit)

	// AddCardinality asserts lo <= Σ lits <= hi over selector literals
	// (use lo = 0 or hi = len(lits) for one-sided bounds).
	AddCardinality(lits []Lit, lo, hi int)

	// AddSoft marks sel as a soft assertion with the given positive weight.
	AddSoft(sel Bool, weight int)

	// CheckWithDeadline searches for a model maximizing the satisfied soft
	// weight. The context deadline bounds the search; on expiry the check
	// returns Unknown with a wrapped timeout error.
	CheckWithDeadline(ctx context.Context) (Result, error)

	// Model returns the model found by the last successful check.
	Model() (*Model, error)

	// Minimize and Maximize optimize a linear objective over the theory,
	// holding any selector assignment found by the last check fixed. On a
	// query with no selectors they optimize the hard system directly.
	Minimize(ctx context.Context, obj LinExpr) (num.Rat, error)
	Maximize(ctx context.Context, obj LinExpr) (num.Rat, error)

	// Close releases backend resources.
	Close() error
}

// Factory creates fresh solvers; the pruner takes one per subproblem.
type Factory func() Solver
