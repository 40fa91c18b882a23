// Package num provides exact rational arithmetic for the synthesis core.
//
// All critical geometry and constraint math in this repository runs on exact
// rationals. The package wraps math/big with non-mutating helpers so call
// sites read like ordinary arithmetic, plus the number-theoretic utilities
// the learner needs (continued fractions, Stern-Brocot depth, Farey
// sequences).
//
// Values are never mutated in place: every operation allocates its result.
// This keeps views, anchors and constraints safely shareable across
// goroutines without copying discipline at every call site.
package num

import (
	"fmt"
	"math/big"
	"strings"
)

// Rat is an exact rational number.
type Rat = *big.Rat

// Int returns n as a rational.
func Int(n int64) Rat {
	return new(big.Rat).SetInt64(n)
}

// Frac returns p/q. It panics if q is zero.
func Frac(p, q int64) Rat {
	return big.NewRat(p, q)
}

// FromFloat converts a float to the exact rational it represents.
// NaN and infinities return nil.
func FromFloat(f float64) Rat {
	return new(big.Rat).SetFloat64(f)
}

// Parse reads a rational from its string form. Accepted forms are
// integers ("5"), fractions ("3/2"), and decimals ("1.5").
func Parse(s string) (Rat, error) {
	r, ok := new(big.Rat).SetString(strings.TrimSpace(s))
	if !ok {
		return nil, fmt.Errorf("invalid rational: %q", s)
	}
	return r, nil
}

// Format renders r in its canonical form: "5" for integers, "3/2" otherwise.
func Format(r Rat) string {
	if r == nil {
		return ""
	}
	return r.RatString()
}

// Add returns a + b.
func Add(a, b Rat) Rat { return new(big.Rat).Add(a, b) }

// Sub returns a - b.
func Sub(a, b Rat) Rat { return new(big.Rat).Sub(a, b) }

// Mul returns a * b.
func Mul(a, b Rat) Rat { return new(big.Rat).Mul(a, b) }

// Div returns a / b. It panics if b is zero.
func Div(a, b Rat) Rat { return new(big.Rat).Quo(a, b) }

// Neg returns -a.
func Neg(a Rat) Rat { return new(big.Rat).Neg(a) }

// Abs returns |a|.
func Abs(a Rat) Rat { return new(big.Rat).Abs(a) }

// Inv returns 1/a. It panics if a is zero.
func Inv(a Rat) Rat { return new(big.Rat).Inv(a) }

// Eq reports whether a == b.
func Eq(a, b Rat) bool { return a.Cmp(b) == 0 }

// Less reports whether a < b.
func Less(a, b Rat) bool { return a.Cmp(b) < 0 }

// LessEq reports whether a <= b.
func LessEq(a, b Rat) bool { return a.Cmp(b) <= 0 }

// Min returns the smaller of a and b.
func Min(a, b Rat) Rat {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}

// Max returns the larger of a and b.
func Max(a, b Rat) Rat {
	if a.Cmp(b) >= 0 {
		return a
	}
	return b
}

// Mid returns the midpoint (a + b) / 2.
func Mid(a, b Rat) Rat {
	return Div(Add(a, b), Int(2))
}

// Sign returns -1, 0, or +1 according to the sign of a.
func Sign(a Rat) int { return a.Sign() }

// IsZero reports whether a is zero.
func IsZero(a Rat) bool { return a.Sign() == 0 }

// IsInt reports whether a is an integer.
func IsInt(a Rat) bool { return a.IsInt() }

// Float returns the nearest float64 to a.
func Float(a Rat) float64 {
	f, _ := a.Float64()
	return f
}

// Clone returns an independent copy of a.
func Clone(a Rat) Rat { return new(big.Rat).Set(a) }
