package native

import (
	"github.com/anchorsynth/anchorsynth/pkg/num"
	"github.com/anchorsynth/anchorsynth/pkg/smt"
)

// The theory solver: a two-phase primal simplex over exact rationals.
//
// Feasibility and optimization of the pruner's linear systems must be exact
// (a float simplex would accept constraint sets that are subtly
// inconsistent, or reject consistent ones at the seams), so the tableau
// works on num.Rat throughout and pivots by Bland's rule, which guarantees
// termination without perturbation tricks.
//
// All structural variables are nonnegative, matching the layout encoding.

// lpStatus is the outcome of a solve.
type lpStatus int

const (
	lpOptimal lpStatus = iota
	lpInfeasible
	lpUnbounded
)

// system accumulates linear relations over named variables and lowers them
// to simplex form on demand.
type system struct {
	index map[smt.Var]int
	names []smt.Var
	rows  []sysRow
}

// sysRow is one normalized relation: coeffs·x cmp rhs.
type sysRow struct {
	coeffs map[int]num.Rat
	cmp    smt.Cmp
	rhs    num.Rat
}

func newSystem() *system {
	return &system{index: make(map[smt.Var]int)}
}

func (s *system) varIndex(v smt.Var) int {
	if i, ok := s.index[v]; ok {
		return i
	}
	i := len(s.names)
	s.index[v] = i
	s.names = append(s.names, v)
	return i
}

// addRel lowers LHS cmp RHS into a row: (LHS - RHS) terms on the left,
// constants on the right.
func (s *system) addRel(r smt.Rel) {
	diff := r.LHS.Minus(r.RHS)
	row := sysRow{coeffs: make(map[int]num.Rat), cmp: r.Cmp, rhs: num.Neg(diff.Eval(nil))}
	for v, c := range diff.Terms {
		if num.IsZero(c) {
			continue
		}
		i := s.varIndex(v)
		if prev, ok := row.coeffs[i]; ok {
			row.coeffs[i] = num.Add(prev, c)
		} else {
			row.coeffs[i] = c
		}
	}
	s.rows = append(s.rows, row)
}

// clone returns an independent copy sharing no row storage.
func (s *system) clone() *system {
	out := &system{index: make(map[smt.Var]int, len(s.index)), names: append([]smt.Var(nil), s.names...)}
	for v, i := range s.index {
		out.index[v] = i
	}
	out.rows = append(out.rows, s.rows...)
	return out
}

// feasible reports whether the system has a nonnegative solution, and
// returns one if so.
func (s *system) feasible() (map[smt.Var]num.Rat, bool) {
	status, _, values := s.solve(nil, true)
	if status != lpOptimal {
		return nil, false
	}
	return values, true
}

// optimize minimizes (or maximizes) a linear objective over the system.
func (s *system) optimize(obj smt.LinExpr, minimize bool) (lpStatus, num.Rat, map[smt.Var]num.Rat) {
	c := make([]num.Rat, len(s.names)+len(obj.Terms))
	for v, coeff := range obj.Terms {
		i := s.varIndex(v)
		for len(c) <= i {
			c = append(c, nil)
		}
		c[i] = coeff
	}
	c = c[:len(s.names)]
	status, val, values := s.solve(c, minimize)
	if status != lpOptimal {
		return status, nil, nil
	}
	if obj.Const != nil {
		val = num.Add(val, obj.Const)
	}
	return lpOptimal, val, values
}

// solve runs two-phase simplex. obj is the structural objective (nil for a
// pure feasibility check); the returned value is the objective at the
// optimum. Values maps every named variable to its solution value.
func (s *system) solve(obj []num.Rat, minimize bool) (lpStatus, num.Rat, map[smt.Var]num.Rat) {
	t := newTableau(s)

	// Phase 1: minimize the artificial sum.
	if !t.phase1() {
		return lpInfeasible, nil, nil
	}

	// Phase 2: the real objective, if any.
	if obj != nil {
		cost := make([]num.Rat, t.cols)
		for j, cj := range obj {
			if cj == nil {
				continue
			}
			if minimize {
				cost[j] = cj
			} else {
				cost[j] = num.Neg(cj)
			}
		}
		if !t.phase2(cost) {
			return lpUnbounded, nil, nil
		}
	}

	values := make(map[smt.Var]num.Rat, len(s.names))
	sol := t.solution()
	for i, name := range s.names {
		values[name] = sol[i]
	}

	var objVal num.Rat
	if obj != nil {
		objVal = num.Int(0)
		for j, cj := range obj {
			if cj != nil {
				objVal = num.Add(objVal, num.Mul(cj, sol[j]))
			}
		}
	}
	return lpOptimal, objVal, values
}

// tableau is the dense simplex tableau: m rows over cols structural+slack+
// artificial columns, an rhs column, and an objective row of reduced costs.
type tableau struct {
	m, cols    int
	structural int   // count of structural variables
	artStart   int   // first artificial column
	rows       [][]num.Rat // m x cols
	rhs        []num.Rat   // m
	cost       []num.Rat   // cols reduced costs
	costVal    num.Rat     // negated objective value
	basis      []int       // basic column per row
	active     []bool      // row still part of the tableau
}

// newTableau lowers the system: every inequality gains a slack column,
// every row an artificial column, and right-hand sides are made
// nonnegative.
func newTableau(s *system) *tableau {
	m := len(s.rows)
	n := len(s.names)

	slackCount := 0
	for _, r := range s.rows {
		if r.cmp != smt.CmpEq {
			slackCount++
		}
	}
	cols := n + slackCount + m

	t := &tableau{
		m:          m,
		cols:       cols,
		structural: n,
		artStart:   n + slackCount,
		basis:      make([]int, m),
		active:     make([]bool, m),
	}
	zero := num.Int(0)

	slack := n
	for i, r := range s.rows {
		row := make([]num.Rat, cols)
		for j := range row {
			row[j] = zero
		}
		rhs := r.rhs
		neg := rhs.Sign() < 0
		for j, c := range r.coeffs {
			if neg {
				row[j] = num.Neg(c)
			} else {
				row[j] = c
			}
		}
		cmp := r.cmp
		if neg {
			rhs = num.Neg(rhs)
			switch cmp {
			case smt.CmpLE:
				cmp = smt.CmpGE
			case smt.CmpGE:
				cmp = smt.CmpLE
			}
		}
		switch cmp {
		case smt.CmpLE:
			row[slack] = num.Int(1)
			slack++
		case smt.CmpGE:
			row[slack] = num.Int(-1)
			slack++
		}
		art := t.artStart + i
		row[art] = num.Int(1)
		t.rows = append(t.rows, row)
		t.rhs = append(t.rhs, rhs)
		t.basis[i] = art
		t.active[i] = true
	}
	return t
}

// phase1 minimizes the artificial sum; returns false when the system is
// infeasible. Surviving basic artificials are pivoted out or their rows
// retired as redundant.
func (t *tableau) phase1() bool {
	cost := make([]num.Rat, t.cols)
	zero := num.Int(0)
	for j := range cost {
		cost[j] = zero
	}
	for j := t.artStart; j < t.cols; j++ {
		cost[j] = num.Int(1)
	}
	t.installCost(cost)
	t.pivotLoop(func(j int) bool { return true })

	// Objective value is -costVal; feasible iff zero.
	if t.costVal.Sign() != 0 {
		return false
	}

	for i := 0; i < t.m; i++ {
		if !t.active[i] || t.basis[i] < t.artStart {
			continue
		}
		pivoted := false
		for j := 0; j < t.artStart; j++ {
			if t.rows[i][j].Sign() != 0 {
				t.pivot(i, j)
				pivoted = true
				break
			}
		}
		if !pivoted {
			// Redundant row.
			t.active[i] = false
		}
	}
	return true
}

// phase2 optimizes the given cost row, with artificial columns barred from
// entering. Returns false when the objective is unbounded.
func (t *tableau) phase2(cost []num.Rat) bool {
	zero := num.Int(0)
	for j := range cost {
		if cost[j] == nil {
			cost[j] = zero
		}
	}
	t.installCost(cost)
	return t.pivotLoop(func(j int) bool { return j < t.artStart })
}

// installCost sets the objective row and eliminates the current basic
// columns from it.
func (t *tableau) installCost(cost []num.Rat) {
	t.cost = make([]num.Rat, t.cols)
	copy(t.cost, cost)
	t.costVal = num.Int(0)
	for i := 0; i < t.m; i++ {
		if !t.active[i] {
			continue
		}
		cb := t.cost[t.basis[i]]
		if cb.Sign() == 0 {
			continue
		}
		for j := 0; j < t.cols; j++ {
			t.cost[j] = num.Sub(t.cost[j], num.Mul(cb, t.rows[i][j]))
		}
		t.costVal = num.Sub(t.costVal, num.Mul(cb, t.rhs[i]))
	}
}

// pivotLoop runs Bland's rule to optimality. allowed filters entering
// columns. Returns false on an unbounded objective.
func (t *tableau) pivotLoop(allowed func(j int) bool) bool {
	for {
		// Entering: lowest-index allowed column with negative reduced cost.
		enter := -1
		for j := 0; j < t.cols; j++ {
			if allowed(j) && t.cost[j].Sign() < 0 {
				enter = j
				break
			}
		}
		if enter < 0 {
			return true
		}

		// Leaving: minimum ratio over rows with positive pivot column,
		// breaking ties by lowest basic index (Bland).
		leave := -1
		var best num.Rat
		for i := 0; i < t.m; i++ {
			if !t.active[i] || t.rows[i][enter].Sign() <= 0 {
				continue
			}
			ratio := num.Div(t.rhs[i], t.rows[i][enter])
			if leave < 0 || ratio.Cmp(best) < 0 ||
				(ratio.Cmp(best) == 0 && t.basis[i] < t.basis[leave]) {
				leave = i
				best = ratio
			}
		}
		if leave < 0 {
			return false
		}
		t.pivot(leave, enter)
	}
}

// pivot makes column j basic in row i.
func (t *tableau) pivot(i, j int) {
	p := t.rows[i][j]
	inv := num.Inv(p)
	for k := 0; k < t.cols; k++ {
		t.rows[i][k] = num.Mul(t.rows[i][k], inv)
	}
	t.rhs[i] = num.Mul(t.rhs[i], inv)

	for r := 0; r < t.m; r++ {
		if r == i || !t.active[r] {
			continue
		}
		f := t.rows[r][j]
		if f.Sign() == 0 {
			continue
		}
		for k := 0; k < t.cols; k++ {
			t.rows[r][k] = num.Sub(t.rows[r][k], num.Mul(f, t.rows[i][k]))
		}
		t.rhs[r] = num.Sub(t.rhs[r], num.Mul(f, t.rhs[i]))
	}

	f := t.cost[j]
	if f.Sign() != 0 {
		for k := 0; k < t.cols; k++ {
			t.cost[k] = num.Sub(t.cost[k], num.Mul(f, t.rows[i][k]))
		}
		t.costVal = num.Sub(t.costVal, num.Mul(f, t.rhs[i]))
	}
	t.basis[i] = j
}

// solution reads the current basic solution for all columns.
func (t *tableau) solution() []num.Rat {
	zero := num.Int(0)
	sol := make([]num.Rat, t.cols)
	for j := range sol {
		sol[j] = zero
	}
	for i := 0; i < t.m; i++ {
		if t.active[i] {
			sol[t.basis[i]] = t.rhs[i]
		}
	}
	return sol
}
