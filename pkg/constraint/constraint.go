package constraint

import (
	"fmt"
	"strings"

	"github.com/anchorsynth/anchorsynth/pkg/layout"
	"github.com/anchorsynth/anchorsynth/pkg/num"
)

// Op is a comparison operator.
type Op string

// The comparison operators.
const (
	OpEq Op = "="
	OpLE Op = "<="
	OpGE Op = ">="
)

// Holds reports whether "lhs op rhs" is true.
func (o Op) Holds(lhs, rhs num.Rat) bool {
	switch o {
	case OpEq:
		return lhs.Cmp(rhs) == 0
	case OpLE:
		return lhs.Cmp(rhs) <= 0
	case OpGE:
		return lhs.Cmp(rhs) >= 0
	}
	panic(fmt.Sprintf("unknown op %q", o))
}

// Flip returns the mirrored operator (<= becomes >=); = is its own mirror.
func (o Op) Flip() Op {
	switch o {
	case OpLE:
		return OpGE
	case OpGE:
		return OpLE
	}
	return o
}

// Priority is a solver strength triple (strong, medium, weak), following the
// Cassowary convention. Required constraints use (1000, 1000, 1000).
type Priority [3]int

// The priority levels.
var (
	PriorityRequired = Priority{1000, 1000, 1000}
	PriorityStrong   = Priority{1, 0, 0}
	PriorityMedium   = Priority{0, 1, 0}
	PriorityWeak     = Priority{0, 0, 1}
)

// Constraint is one linear relation y op a·x + b over anchors.
//
// SampleCount == 0 marks a template: a sketch whose parameters have not been
// learned yet (A and B hold the kind's defaults). SampleCount > 0 marks a
// learned candidate. Constraints are immutable; use Subst to derive a
// candidate from a template.
type Constraint struct {
	Kind Kind
	YID  layout.AnchorID
	XID  *layout.AnchorID // nil for constant forms

	A num.Rat
	B num.Rat

	Op          Op
	Priority    Priority
	SampleCount int
}

// IsTemplate reports whether the constraint still has unlearned parameters.
func (c Constraint) IsTemplate() bool { return c.SampleCount == 0 }

// Subst returns a learned copy of a template with the given parameters
// filled in. Nil parameters keep the template's defaults. It panics when
// called on a non-template or with sampleCount == 0; learning a template is
// the only way a candidate comes into being.
func (c Constraint) Subst(a, b num.Rat, sampleCount int) Constraint {
	if !c.IsTemplate() {
		panic("subst on non-template constraint")
	}
	if sampleCount <= 0 {
		panic("subst requires a positive sample count")
	}
	out := c
	if a != nil {
		out.A = a
	}
	if b != nil {
		out.B = b
	}
	out.SampleCount = sampleCount
	return out
}

// WithOp returns a copy with the operator replaced.
func (c Constraint) WithOp(op Op) Constraint {
	c.Op = op
	return c
}

// WithB returns a copy with the offset replaced.
func (c Constraint) WithB(b num.Rat) Constraint {
	c.B = b
	return c
}

// WithPriority returns a copy with the priority replaced.
func (c Constraint) WithPriority(p Priority) Constraint {
	c.Priority = p
	return c
}

// IsHorizontal reports whether the constraint lives on the x axis. It panics
// on a constraint mixing axes unless the kind is an aspect ratio, which is
// deliberately cross-axis (and classified by its y anchor).
func (c Constraint) IsHorizontal() bool {
	yh := c.YID.Attribute.IsHorizontal()
	if c.XID == nil {
		return yh
	}
	if c.Kind == KindSizeAspectRatio || c.Kind == KindSizeAspectRatioGeneral {
		return yh
	}
	if yh != c.XID.Attribute.IsHorizontal() {
		panic(fmt.Sprintf("constraint %s mixes axes", c))
	}
	return yh
}

// SameAnchors reports whether two constraints relate the same anchor pair.
func (c Constraint) SameAnchors(o Constraint) bool {
	if c.YID != o.YID {
		return false
	}
	if (c.XID == nil) != (o.XID == nil) {
		return false
	}
	return c.XID == nil || *c.XID == *o.XID
}

// Equal reports full structural equality.
func (c Constraint) Equal(o Constraint) bool {
	return c.SameAnchors(o) &&
		c.Kind == o.Kind && c.Op == o.Op &&
		num.Eq(c.A, o.A) && num.Eq(c.B, o.B) &&
		c.Priority == o.Priority && c.SampleCount == o.SampleCount
}

// Key returns a canonical string identity usable as a map key. Two
// constraints with equal keys are semantically identical (priority and
// sample count excluded).
func (c Constraint) Key() string {
	var sb strings.Builder
	sb.WriteString(string(c.Kind))
	sb.WriteByte('|')
	sb.WriteString(c.YID.String())
	sb.WriteByte('|')
	if c.XID != nil {
		sb.WriteString(c.XID.String())
	}
	sb.WriteByte('|')
	sb.WriteString(num.Format(c.A))
	sb.WriteByte('|')
	sb.WriteString(num.Format(c.B))
	sb.WriteByte('|')
	sb.WriteString(string(c.Op))
	return sb.String()
}

// String renders the constraint for logs: "y = a * x + b" with template
// placeholders shown as "_".
func (c Constraint) String() string {
	a, b := num.Format(c.A), num.Format(c.B)
	if c.IsTemplate() {
		if c.Kind.IsMulOnlyForm() || c.Kind.IsGeneralForm() {
			a = "_"
		}
		if c.Kind.IsConstantForm() || c.Kind.IsAddOnlyForm() || c.Kind.IsGeneralForm() {
			b = "_"
		}
	}
	switch {
	case c.XID == nil:
		return fmt.Sprintf("%s %s %s", c.YID, c.Op, b)
	case c.Kind.IsMulOnlyForm():
		return fmt.Sprintf("%s %s %s * %s", c.YID, c.Op, a, c.XID)
	case c.Kind.IsAddOnlyForm():
		return fmt.Sprintf("%s %s %s + %s", c.YID, c.Op, c.XID, b)
	case c.Kind == KindPosCentering:
		return fmt.Sprintf("%s %s %s", c.YID, c.Op, c.XID)
	default:
		return fmt.Sprintf("%s %s %s * %s + %s", c.YID, c.Op, a, c.XID, b)
	}
}

// Candidate pairs a learned constraint with its posterior score in [0, 1].
type Candidate struct {
	Constraint Constraint
	Score      float64
}
