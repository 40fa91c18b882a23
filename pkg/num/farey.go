package num

import (
	"math"
	"math/big"
	"sort"
)

// ContinuedFraction returns the continued fraction expansion of |a|.
// The expansion of zero is empty.
func ContinuedFraction(a Rat) []int64 {
	abs := Abs(a)
	if abs.Sign() == 0 {
		return nil
	}
	n1 := new(big.Int).Set(abs.Num())
	n2 := new(big.Int).Set(abs.Denom())

	var terms []int64
	for n2.Sign() != 0 {
		q, r := new(big.Int).QuoRem(n1, n2, new(big.Int))
		terms = append(terms, q.Int64())
		n1, n2 = n2, r
	}
	return terms
}

// SBDepth returns the Stern-Brocot depth of a: the sum of the terms of its
// continued fraction expansion. Simple rationals have small depth (1/2 has
// depth 2), awkward ones like 47/83 have large depth.
func SBDepth(a Rat) int64 {
	var sum int64
	for _, t := range ContinuedFraction(a) {
		sum += t
	}
	return sum
}

// Farey returns the Farey sequence of order n: all reduced rationals in
// [0, 1] with denominator at most n, in increasing order.
func Farey(n int) []Rat {
	seen := make(map[string]bool)
	seq := []Rat{Int(0)}
	seen["0"] = true
	for q := int64(1); q <= int64(n); q++ {
		for p := int64(1); p <= q; p++ {
			r := Frac(p, q)
			key := r.RatString()
			if !seen[key] {
				seen[key] = true
				seq = append(seq, r)
			}
		}
	}
	sort.Slice(seq, func(i, j int) bool { return seq[i].Cmp(seq[j]) < 0 })
	return seq
}

// ExtFarey returns the Farey sequence of order n extended past 1 with the
// reciprocals of its interior members, covering [0, n] in increasing order.
func ExtFarey(n int) []Rat {
	f := Farey(n)
	out := make([]Rat, 0, 2*len(f))
	out = append(out, f...)
	for i := len(f) - 2; i >= 1; i-- {
		out = append(out, Inv(f[i]))
	}
	return out
}

// RatsIn returns the members of seq falling inside [lo, hi], along with their
// negations when the interval reaches below zero. seq must be ascending and
// non-negative (as produced by Farey or ExtFarey).
func RatsIn(seq []Rat, lo, hi Rat) []Rat {
	var out []Rat
	for _, r := range seq {
		if r.Cmp(lo) >= 0 && r.Cmp(hi) <= 0 {
			out = append(out, r)
		}
		if r.Sign() > 0 {
			neg := Neg(r)
			if neg.Cmp(lo) >= 0 && neg.Cmp(hi) <= 0 {
				out = append(out, neg)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Cmp(out[j]) < 0 })
	return out
}

// IntsIn returns all integers in [lo, hi] clamped to [-maxAbs, maxAbs],
// in increasing order.
func IntsIn(lo, hi float64, maxAbs int64) []int64 {
	l := int64(math.Ceil(lo))
	h := int64(math.Floor(hi))
	if l < -maxAbs {
		l = -maxAbs
	}
	if h > maxAbs {
		h = maxAbs
	}
	if l > h {
		return nil
	}
	out := make([]int64, 0, h-l+1)
	for v := l; v <= h; v++ {
		out = append(out, v)
	}
	return out
}
