// Package native implements the default MaxSMT backend.
//
// The backend splits each query along its two natures. The boolean
// skeleton — selector clauses, cardinality constraints, weighted soft
// selectors — goes to gophersat's weighted MaxSAT solver. The arithmetic —
// hard linear relations plus the relations implied by active selectors —
// goes to an exact rational simplex. The two meet in a CEGAR loop:
// gophersat proposes a maximal-weight selector assignment, the simplex
// checks the implied linear system, and every arithmetic conflict is
// shrunk to a small selector core and returned to the SAT layer as a
// blocking clause. The loop terminates because each round removes at least
// one boolean assignment from the search space.
package native

import (
	"context"
	"sort"

	"github.com/crillab/gophersat/maxsat"

	"github.com/anchorsynth/anchorsynth/pkg/errors"
	"github.com/anchorsynth/anchorsynth/pkg/num"
	"github.com/anchorsynth/anchorsynth/pkg/smt"
)

// maxRounds bounds the CEGAR loop; in practice conflicts number in the
// dozens, and the bound only guards against encoding mistakes.
const maxRounds = 10000

// Solver is one native MaxSMT query. It implements smt.Solver.
type Solver struct {
	hard         []smt.Rel
	implications []implication
	clauses      [][]smt.Lit
	cards        []cardinality
	soft         []softLit

	boolIndex map[smt.Bool]int
	bools     []smt.Bool

	blocking [][]smt.Lit
	model    *smt.Model

	// forcedUnsat is set when an assertion is unsatisfiable on its face
	// (e.g. a cardinality floor above the literal count).
	forcedUnsat bool
}

type implication struct {
	sel smt.Bool
	rel smt.Rel
}

type cardinality struct {
	lits   []smt.Lit
	lo, hi int
}

type softLit struct {
	sel    smt.Bool
	weight int
}

// New creates a fresh solver for one query.
func New() *Solver {
	return &Solver{boolIndex: make(map[smt.Bool]int)}
}

// Factory returns an smt.Factory producing native solvers.
func Factory() smt.Factory {
	return func() smt.Solver { return New() }
}

func (s *Solver) noteBool(b smt.Bool) {
	if _, ok := s.boolIndex[b]; !ok {
		s.boolIndex[b] = len(s.bools)
		s.bools = append(s.bools, b)
	}
}

// AddHard asserts a relation every model must satisfy.
func (s *Solver) AddHard(r smt.Rel) {
	s.hard = append(s.hard, r)
}

// AddImplication asserts sel → r.
func (s *Solver) AddImplication(sel smt.Bool, r smt.Rel) {
	s.noteBool(sel)
	s.implications = append(s.implications, implication{sel: sel, rel: r})
}

// AddClause asserts a disjunction of selector literals.
func (s *Solver) AddClause(lits ...smt.Lit) {
	for _, l := range lits {
		s.noteBool(l.Bool)
	}
	s.clauses = append(s.clauses, lits)
}

// AddCardinality asserts lo <= Σ lits <= hi.
func (s *Solver) AddCardinality(lits []smt.Lit, lo, hi int) {
	if lo > len(lits) || hi < 0 {
		s.forcedUnsat = true
		return
	}
	for _, l := range lits {
		s.noteBool(l.Bool)
	}
	s.cards = append(s.cards, cardinality{lits: lits, lo: lo, hi: hi})
}

// AddSoft marks sel as a weighted soft assertion.
func (s *Solver) AddSoft(sel smt.Bool, weight int) {
	s.noteBool(sel)
	s.soft = append(s.soft, softLit{sel: sel, weight: weight})
}

// Close releases resources. The native backend holds none beyond the heap.
func (s *Solver) Close() error { return nil }

// Model returns the model of the last successful check.
func (s *Solver) Model() (*smt.Model, error) {
	if s.model == nil {
		return nil, errors.New(errors.ErrCodeInternal, "no model available; check first")
	}
	return s.model, nil
}

// CheckWithDeadline runs the CEGAR loop.
func (s *Solver) CheckWithDeadline(ctx context.Context) (smt.Result, error) {
	s.model = nil
	if s.forcedUnsat {
		return smt.Unsat, nil
	}

	// The arithmetic skeleton must stand on its own.
	base := newSystem()
	for _, r := range s.hard {
		base.addRel(r)
	}
	if _, ok := base.feasible(); !ok {
		return smt.Unsat, nil
	}

	// No boolean structure: the hard system is the whole query.
	if len(s.bools) == 0 {
		values, _ := base.feasible()
		s.model = &smt.Model{Bools: map[smt.Bool]bool{}, Values: values}
		return smt.Sat, nil
	}

	for round := 0; round < maxRounds; round++ {
		if err := ctx.Err(); err != nil {
			return smt.Unknown, errors.Wrap(errors.ErrCodeSmtTimeout, err, "maxsmt check interrupted")
		}

		assignment, ok := s.solveBooleans()
		if !ok {
			return smt.Unsat, nil
		}

		active := s.activeSelectors(assignment)
		sys := base.clone()
		for _, imp := range s.implications {
			if assignment[imp.sel] {
				sys.addRel(imp.rel)
			}
		}
		if values, ok := sys.feasible(); ok {
			s.model = &smt.Model{Bools: assignment, Values: values}
			return smt.Sat, nil
		}

		core := s.shrinkCore(base, active)
		if len(core) == 0 {
			// The conflict is independent of every selector, yet the hard
			// system alone was feasible; nothing to block.
			return smt.Unsat, nil
		}
		block := make([]smt.Lit, len(core))
		for i, b := range core {
			block[i] = smt.Neg(b)
		}
		s.blocking = append(s.blocking, block)
	}
	return smt.Unknown, errors.New(errors.ErrCodeSmtTimeout, "maxsmt check exceeded %d refinement rounds", maxRounds)
}

// solveBooleans runs one weighted MaxSAT solve over the boolean skeleton
// plus accumulated blocking clauses.
func (s *Solver) solveBooleans() (map[smt.Bool]bool, bool) {
	var constrs []maxsat.Constr

	lit := func(l smt.Lit) maxsat.Lit {
		ml := maxsat.Var(string(l.Bool))
		if l.Negated {
			ml = ml.Negation()
		}
		return ml
	}
	clause := func(lits []smt.Lit, atLeast int, weight int) maxsat.Constr {
		mls := make([]maxsat.Lit, len(lits))
		for i, l := range lits {
			mls[i] = lit(l)
		}
		return maxsat.Constr{Lits: mls, AtLeast: atLeast, Weight: weight}
	}

	// Every selector appears in a vacuous clause so the model assigns it.
	for _, b := range s.bools {
		constrs = append(constrs, clause([]smt.Lit{smt.Pos(b), smt.Neg(b)}, 1, 0))
	}
	for _, cl := range s.clauses {
		constrs = append(constrs, clause(cl, 1, 0))
	}
	for _, cd := range s.cards {
		if cd.lo > 0 {
			constrs = append(constrs, clause(cd.lits, cd.lo, 0))
		}
		if cd.hi < len(cd.lits) {
			negated := make([]smt.Lit, len(cd.lits))
			for i, l := range cd.lits {
				negated[i] = smt.Lit{Bool: l.Bool, Negated: !l.Negated}
			}
			constrs = append(constrs, clause(negated, len(cd.lits)-cd.hi, 0))
		}
	}
	for _, bl := range s.blocking {
		constrs = append(constrs, clause(bl, 1, 0))
	}
	for _, sl := range s.soft {
		constrs = append(constrs, clause([]smt.Lit{smt.Pos(sl.sel)}, 1, sl.weight))
	}

	model, _ := maxsat.New(constrs...).Solve()
	if model == nil {
		return nil, false
	}
	assignment := make(map[smt.Bool]bool, len(s.bools))
	for _, b := range s.bools {
		assignment[b] = model[string(b)]
	}
	return assignment, true
}

// activeSelectors returns the true selectors that imply relations, in a
// stable order.
func (s *Solver) activeSelectors(assignment map[smt.Bool]bool) []smt.Bool {
	seen := make(map[smt.Bool]bool)
	var active []smt.Bool
	for _, imp := range s.implications {
		if assignment[imp.sel] && !seen[imp.sel] {
			seen[imp.sel] = true
			active = append(active, imp.sel)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i] < active[j] })
	return active
}

// shrinkCore reduces an infeasible selector set to a small core by deletion:
// drop each selector in turn and keep it dropped when the remainder is
// still infeasible.
func (s *Solver) shrinkCore(base *system, active []smt.Bool) []smt.Bool {
	relsOf := make(map[smt.Bool][]smt.Rel)
	for _, imp := range s.implications {
		relsOf[imp.sel] = append(relsOf[imp.sel], imp.rel)
	}

	infeasibleWith := func(sels []smt.Bool) bool {
		sys := base.clone()
		for _, b := range sels {
			for _, r := range relsOf[b] {
				sys.addRel(r)
			}
		}
		_, ok := sys.feasible()
		return !ok
	}

	core := append([]smt.Bool(nil), active...)
	for i := 0; i < len(core); {
		trial := append(append([]smt.Bool(nil), core[:i]...), core[i+1:]...)
		if infeasibleWith(trial) {
			core = trial
		} else {
			i++
		}
	}
	return core
}

// Minimize optimizes obj downward over the theory, holding the selector
// assignment of the last check fixed.
func (s *Solver) Minimize(ctx context.Context, obj smt.LinExpr) (num.Rat, error) {
	return s.optimize(ctx, obj, true)
}

// Maximize optimizes obj upward over the theory, holding the selector
// assignment of the last check fixed.
func (s *Solver) Maximize(ctx context.Context, obj smt.LinExpr) (num.Rat, error) {
	return s.optimize(ctx, obj, false)
}

func (s *Solver) optimize(ctx context.Context, obj smt.LinExpr, minimize bool) (num.Rat, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeSmtTimeout, err, "optimization interrupted")
	}

	sys := newSystem()
	for _, r := range s.hard {
		sys.addRel(r)
	}
	if len(s.bools) > 0 {
		if s.model == nil {
			return nil, errors.New(errors.ErrCodeInternal, "optimize before check on a query with selectors")
		}
		for _, imp := range s.implications {
			if s.model.Bools[imp.sel] {
				sys.addRel(imp.rel)
			}
		}
	}

	status, val, _ := sys.optimize(obj, minimize)
	switch status {
	case lpInfeasible:
		return nil, errors.New(errors.ErrCodeSmtUnsat, "optimization over infeasible system")
	case lpUnbounded:
		return nil, errors.New(errors.ErrCodeSmtUnbounded, "unbounded objective")
	}
	return val, nil
}
